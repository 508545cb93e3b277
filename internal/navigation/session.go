package navigation

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"turn-guidance-service/internal/camera"
	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/platform/obs"
	"turn-guidance-service/internal/ports"
)

// Deps are the optional asynchronous collaborators of a Session.
type Deps struct {
	Rerouter ports.Rerouter
	Progress ports.ProgressRecorder
	Trace    ports.TraceRecorder

	// ResumeKey names the saved progress slot. Empty means the session id.
	ResumeKey string
	// Now is the session clock. Defaults to time.Now.
	Now func() time.Time
}

const persistTimeout = 5 * time.Second

// Session serializes every input of a Navigator onto one goroutine: API
// calls, location pushes, the dead-reckoning ticker, the frame ticker and
// reroute results. Callbacks that were scheduled for an older generation
// (before a stop, a restart or a reroute) are dropped.
type Session struct {
	cfg  Config
	deps Deps
	nav  *Navigator

	cmds chan func()
	jobs chan func(ctx context.Context)
	done chan struct{}

	// loop-owned
	runCtx    context.Context
	gen       uint64
	resumeKey string
	trace     []domain.PositionSample

	wg sync.WaitGroup
}

func NewSession(cfg Config, sinks Sinks, deps Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Session{
		cfg:    cfg,
		deps:   deps,
		cmds:   make(chan func(), 64),
		jobs:   make(chan func(ctx context.Context), 64),
		done:   make(chan struct{}),
		runCtx: context.Background(),
	}
	s.nav = NewNavigator(cfg, sinks, Hooks{
		Reroute:    s.reroute,
		Checkpoint: s.saveProgress,
		Trace:      s.record,
		Finished:   s.finished,
	})
	return s
}

// Run drives the session until ctx is done. It must be called exactly once.
func (s *Session) Run(ctx context.Context) error {
	s.runCtx = ctx

	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)
		base := context.WithoutCancel(ctx)
		for job := range s.jobs {
			jctx, cancel := context.WithTimeout(base, persistTimeout)
			job(jctx)
			cancel()
		}
	}()

	deadReckon := time.NewTicker(s.cfg.DeadReckonInterval)
	defer deadReckon.Stop()
	frame := time.NewTicker(s.cfg.FrameInterval)
	defer frame.Stop()

	for {
		select {
		case <-ctx.Done():
			close(s.done)
			if s.nav.Navigating() {
				_ = s.nav.Stop(s.sessionCtx())
			}
			s.flushTrace()
			s.wg.Wait()
			close(s.jobs)
			<-persistDone
			return ctx.Err()
		case fn := <-s.cmds:
			fn()
		case <-deadReckon.C:
			s.nav.DeadReckon(s.sessionCtx(), s.deps.Now())
		case <-frame.C:
			s.nav.Frame(s.sessionCtx(), s.deps.Now())
		}
	}
}

// do runs fn on the loop and waits for its result.
func (s *Session) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case s.cmds <- func() { errc <- fn() }:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post schedules fn on the loop without waiting. It reports false when the
// session is closed.
func (s *Session) post(fn func()) bool {
	select {
	case s.cmds <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) sessionCtx() context.Context {
	return obs.WithSession(s.runCtx, s.nav.ID())
}

// Start begins navigating route and returns the new session id.
func (s *Session) Start(ctx context.Context, route *domain.Route, resume *domain.ResumeState) (string, error) {
	id := uuid.NewString()
	err := s.do(ctx, func() error {
		s.flushTrace()
		s.gen++
		s.resumeKey = s.deps.ResumeKey
		if s.resumeKey == "" {
			s.resumeKey = id
		}
		return s.nav.Start(obs.WithSession(s.runCtx, id), id, route, resume, s.deps.Now())
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Session) Stop(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.gen++
		err := s.nav.Stop(s.sessionCtx())
		s.flushTrace()
		return err
	})
}

func (s *Session) Simulate(ctx context.Context) error {
	return s.do(ctx, func() error {
		return s.nav.Simulate(s.sessionCtx(), s.deps.Now())
	})
}

func (s *Session) Continue(ctx context.Context, ack bool) error {
	return s.do(ctx, func() error {
		return s.nav.Continue(s.sessionCtx(), ack, s.deps.Now())
	})
}

// PushPosition feeds a sample and reports whether it was used.
func (s *Session) PushPosition(ctx context.Context, sample domain.PositionSample) (bool, error) {
	var accepted bool
	err := s.do(ctx, func() error {
		if !s.nav.Navigating() {
			return ErrNotNavigating
		}
		accepted = s.nav.OnPosition(s.sessionCtx(), sample, s.deps.Now())
		return nil
	})
	return accepted, err
}

// Offer queues a sample from a live location source without waiting.
func (s *Session) Offer(sample domain.PositionSample) {
	select {
	case s.cmds <- func() { s.nav.OnPosition(s.sessionCtx(), sample, s.deps.Now()) }:
	case <-s.done:
	default:
		log.Printf("event=sample_dropped reason=busy")
	}
}

func (s *Session) SetCamera(ctx context.Context, mode *camera.Mode, paused *bool) error {
	return s.do(ctx, func() error {
		s.nav.SetCamera(s.sessionCtx(), mode, paused, s.deps.Now())
		return nil
	})
}

func (s *Session) State(ctx context.Context) (domain.NavigationState, error) {
	var st domain.NavigationState
	err := s.do(ctx, func() error {
		st = s.nav.State()
		return nil
	})
	return st, err
}

// Route returns the active route, or ErrNotNavigating.
func (s *Session) Route(ctx context.Context) (*domain.Route, error) {
	var r *domain.Route
	err := s.do(ctx, func() error {
		if !s.nav.Navigating() {
			return ErrNotNavigating
		}
		r = s.nav.Route()
		return nil
	})
	return r, err
}

// reroute runs on the loop; the request itself runs in the background and
// its result is posted back under the generation it was issued in.
func (s *Session) reroute(req ports.RerouteRequest) {
	if s.deps.Rerouter == nil {
		return
	}
	gen := s.gen
	ctx := s.sessionCtx()
	id := s.nav.ID()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		rctx, cancel := context.WithTimeout(ctx, s.cfg.RerouteTimeout)
		route, err := s.deps.Rerouter.Reroute(rctx, req)
		cancel()

		s.post(func() {
			if gen != s.gen {
				log.Printf("session=%s event=stale_reroute_dropped", id)
				return
			}
			if err != nil {
				log.Printf("session=%s event=reroute_failed err=%v", id, err)
				s.nav.RerouteFailed()
				return
			}
			s.gen++
			if err := s.nav.ApplyRoute(s.sessionCtx(), route, s.deps.Now()); err != nil {
				log.Printf("session=%s event=reroute_rejected err=%v", id, err)
			}
		})
	}()
}

func (s *Session) enqueue(job func(ctx context.Context)) {
	select {
	case s.jobs <- job:
	default:
		log.Printf("session=%s event=persist_dropped reason=busy", s.nav.ID())
	}
}

func (s *Session) saveProgress(state domain.ResumeState) {
	if s.deps.Progress == nil {
		return
	}
	key := s.resumeKey
	id := s.nav.ID()
	s.enqueue(func(ctx context.Context) {
		if err := s.deps.Progress.SaveProgress(obs.WithSession(ctx, id), key, state); err != nil {
			log.Printf("session=%s event=checkpoint_failed err=%v", id, err)
		}
	})
}

func (s *Session) finished() {
	store, ok := s.deps.Progress.(ports.ResumeStore)
	if !ok {
		return
	}
	key := s.resumeKey
	id := s.nav.ID()
	s.enqueue(func(ctx context.Context) {
		if err := store.ClearProgress(obs.WithSession(ctx, id), key); err != nil {
			log.Printf("session=%s event=clear_progress_failed err=%v", id, err)
		}
	})
}

func (s *Session) record(sample domain.PositionSample) {
	if s.deps.Trace == nil {
		return
	}
	s.trace = append(s.trace, sample)
	if len(s.trace) >= s.cfg.TraceBatch {
		s.flushTrace()
	}
}

func (s *Session) flushTrace() {
	if s.deps.Trace == nil || len(s.trace) == 0 {
		return
	}
	batch := s.trace
	s.trace = nil
	id := s.nav.ID()
	s.enqueue(func(ctx context.Context) {
		if err := s.deps.Trace.AppendSamples(obs.WithSession(ctx, id), id, batch); err != nil {
			log.Printf("session=%s event=trace_failed err=%v samples=%d", id, err, len(batch))
		}
	})
}
