package camera

import (
	"math"
	"time"

	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/geo"
)

// Command is one viewport update for the map sink. Forced commands jump with
// a short fly; the rest ease over Duration.
type Command struct {
	Target   domain.CameraTarget
	Forced   bool
	Duration time.Duration
}

type microTask struct {
	at   time.Time
	in   Input
	span time.Duration
}

// Sync rate-limits and animates viewport updates. Early updates are coalesced
// into a single pending one, applied by the next Frame. Intermediate marker
// positions are queued as micro-tasks and drained by Frame as well, so they
// never touch route matching.
//
// Sync is not safe for concurrent use.
type Sync struct {
	cfg    Config
	mode   Mode
	paused bool

	last            Input
	hasLast         bool
	lastApplied     time.Time
	stationarySince time.Time

	pending *Command
	queue   []microTask
}

func NewSync(cfg Config) *Sync {
	return &Sync{cfg: cfg}
}

func (s *Sync) Mode() Mode   { return s.mode }
func (s *Sync) Paused() bool { return s.paused }

// Reset drops all queued work and forgets the last input. The mode and the
// pause flag are user preferences and survive.
func (s *Sync) Reset() {
	s.hasLast = false
	s.last = Input{}
	s.lastApplied = time.Time{}
	s.stationarySince = time.Time{}
	s.pending = nil
	s.queue = nil
}

// SetPaused toggles the auto-snap pause. While paused every update is
// dropped, including queued ones.
func (s *Sync) SetPaused(p bool) {
	s.paused = p
	if p {
		s.pending = nil
		s.queue = nil
	}
}

// SetMode switches perspective and forces a refresh on the last known input.
func (s *Sync) SetMode(m Mode, now time.Time) (Command, bool) {
	changed := m != s.mode
	s.mode = m
	if !changed || !s.hasLast {
		return Command{}, false
	}
	return s.Update(s.last, now, true)
}

// Interval returns the current minimum spacing between applied updates.
func (s *Sync) Interval(now time.Time) time.Duration {
	if !s.stationarySince.IsZero() && now.Sub(s.stationarySince) > s.cfg.StationaryAfter {
		return s.cfg.StationaryInterval
	}
	return s.cfg.MinInterval
}

// Update offers a new input. It returns the command to apply now, or false if
// the update was dropped (paused) or coalesced for the next Frame. Queued
// micro-tasks are older than in and are discarded either way.
func (s *Sync) Update(in Input, now time.Time, forced bool) (Command, bool) {
	if s.paused {
		return Command{}, false
	}
	s.observe(in, now)
	s.queue = nil

	cmd := s.command(in, forced)
	if forced || s.lastApplied.IsZero() || now.Sub(s.lastApplied) >= s.Interval(now) {
		s.lastApplied = now
		s.pending = nil
		return cmd, true
	}
	s.pending = &cmd
	return Command{}, false
}

// Interpolate replaces the micro-task queue with steps intermediate inputs
// from the last displayed position to to, spread over the interpolation span.
// The final task lands exactly on to. Without a previous position or with no
// steps it degrades to a plain Update.
func (s *Sync) Interpolate(to Input, steps int, now time.Time) (Command, bool) {
	if s.paused {
		return Command{}, false
	}
	if steps <= 0 || !s.hasLast {
		s.queue = nil
		return s.Update(to, now, false)
	}

	from := s.last
	s.observe(to, now)
	s.queue = s.queue[:0]
	gap := s.cfg.InterpolationSpan / time.Duration(steps)
	for k := 1; k <= steps; k++ {
		f := float64(k) / float64(steps)
		in := to
		in.Position = geo.Interpolate(from.Position, to.Position, f)
		in.Heading = geo.NormalizeBearing(from.Heading + f*geo.AngleDiff(from.Heading, to.Heading))
		s.queue = append(s.queue, microTask{at: now.Add(time.Duration(k-1) * gap), in: in, span: gap})
	}
	return Command{}, false
}

// Frame runs one animation tick: it drains due micro-tasks and applies a
// coalesced update whose interval has elapsed.
func (s *Sync) Frame(now time.Time) []Command {
	if s.paused {
		return nil
	}

	var out []Command
	due := 0
	for due < len(s.queue) && !s.queue[due].at.After(now) {
		due++
	}
	if due > 0 {
		// only the newest due position is worth drawing
		task := s.queue[due-1]
		s.queue = s.queue[due:]
		cmd := s.command(task.in, false)
		cmd.Duration = task.span
		s.lastApplied = now
		s.pending = nil
		out = append(out, cmd)
	}

	if s.pending != nil && now.Sub(s.lastApplied) >= s.Interval(now) {
		out = append(out, *s.pending)
		s.pending = nil
		s.lastApplied = now
	}
	return out
}

// QueuedSteps reports how many interpolation micro-tasks are waiting.
func (s *Sync) QueuedSteps() int { return len(s.queue) }

func (s *Sync) observe(in Input, now time.Time) {
	s.last, s.hasLast = in, true
	if math.Max(in.Speed, 0)*3.6 < s.cfg.MovingSpeed {
		if s.stationarySince.IsZero() {
			s.stationarySince = now
		}
		return
	}
	s.stationarySince = time.Time{}
}

func (s *Sync) command(in Input, forced bool) Command {
	cmd := Command{Target: s.cfg.Target(in, s.mode), Forced: forced}
	switch {
	case forced:
		cmd.Duration = s.cfg.FlyDuration
	case math.Max(in.Speed, 0)*3.6 >= s.cfg.MovingSpeed:
		cmd.Duration = s.cfg.MovingDuration
	default:
		cmd.Duration = s.cfg.StillDuration
	}
	return cmd
}
