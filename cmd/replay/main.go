package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"turn-guidance-service/internal/adapters/repositories"
	"turn-guidance-service/internal/api/dto"
	"turn-guidance-service/internal/config"
	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/navigation"
	"turn-guidance-service/internal/platform/db"
)

// replay drives a navigator on a virtual clock, so a whole trip runs in
// milliseconds and prints the narration it would have spoken.
func main() {
	routePath := flag.String("route", "", "route JSON file (path, legs, steps)")
	traceID := flag.String("trace", "", "recorded session id to replay instead of simulating")
	speed := flag.Float64("speed", 0, "simulation speed in km/h (0 keeps the tuning value)")
	limit := flag.Duration("limit", 6*time.Hour, "virtual time limit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	if *routePath == "" {
		log.Fatal("-route is required")
	}

	cfg, err := config.LoadTuning(config.Get("GUIDANCE_CONFIG", "guidance.yml"))
	if err != nil {
		log.Fatal(err)
	}
	if *speed > 0 {
		cfg.SimulationSpeed = *speed
	}

	route, err := loadRoute(*routePath)
	if err != nil {
		log.Fatal(err)
	}

	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &replayer{clock: start, start: start}
	nav := navigation.NewNavigator(cfg, navigation.Sinks{Speaker: r}, navigation.Hooks{})

	ctx := context.Background()
	if err := nav.Start(ctx, "replay", route, nil, r.clock); err != nil {
		log.Fatal(err)
	}

	if *traceID != "" {
		samples, err := loadTrace(ctx, *traceID)
		if err != nil {
			log.Fatal(err)
		}
		r.trace(ctx, nav, cfg, samples)
	} else {
		r.simulate(ctx, nav, cfg, *limit)
	}

	st := nav.State()
	fmt.Printf("%s  done navigating=%v leg=%d index=%d\n", r.elapsed(), st.IsNavigating, st.ActiveLeg, st.RouteIndex)
}

type replayer struct {
	clock time.Time
	start time.Time
}

func (r *replayer) Speak(_ context.Context, text string) error {
	fmt.Printf("%s  %s\n", r.elapsed(), text)
	return nil
}

func (r *replayer) elapsed() string {
	d := r.clock.Sub(r.start).Round(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

// simulate plays the route back, acknowledging every waypoint.
func (r *replayer) simulate(ctx context.Context, nav *navigation.Navigator, cfg navigation.Config, limit time.Duration) {
	if err := nav.Simulate(ctx, r.clock); err != nil {
		log.Fatal(err)
	}
	for r.clock.Sub(r.start) < limit && nav.Navigating() {
		r.clock = r.clock.Add(cfg.FrameInterval)
		nav.Frame(ctx, r.clock)
		if nav.WaitingForContinue() {
			if err := nav.Continue(ctx, true, r.clock); err != nil {
				log.Fatal(err)
			}
			continue
		}
		if !nav.Simulating() {
			return
		}
	}
}

// trace feeds recorded samples on their own timeline, running frames and
// dead reckoning in the gaps between them.
func (r *replayer) trace(ctx context.Context, nav *navigation.Navigator, cfg navigation.Config, samples []domain.PositionSample) {
	offset := r.start.Sub(samples[0].Timestamp)
	nextReckon := r.clock.Add(cfg.DeadReckonInterval)

	for _, s := range samples {
		at := s.Timestamp.Add(offset)
		for r.clock.Add(cfg.FrameInterval).Before(at) {
			r.clock = r.clock.Add(cfg.FrameInterval)
			nav.Frame(ctx, r.clock)
			if !r.clock.Before(nextReckon) {
				nav.DeadReckon(ctx, r.clock)
				nextReckon = r.clock.Add(cfg.DeadReckonInterval)
			}
		}
		if at.After(r.clock) {
			r.clock = at
		}
		s.Timestamp = r.clock
		nav.OnPosition(ctx, s, r.clock)
		if nav.WaitingForContinue() {
			if err := nav.Continue(ctx, true, r.clock); err != nil {
				log.Fatal(err)
			}
		}
		if !nav.Navigating() {
			return
		}
	}
}

func loadRoute(path string) (*domain.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load route: read %q: %w", path, err)
	}
	var in dto.RouteDTO
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("load route: decode %q: %w", path, err)
	}
	if err := validator.New().Struct(in); err != nil {
		return nil, fmt.Errorf("load route: validate %q: %w", path, err)
	}
	return in.ToDomain()
}

func loadTrace(ctx context.Context, sessionID string) ([]domain.PositionSample, error) {
	driver, dsn := config.Database()
	conn, err := db.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stores, err := repositories.NewStores(driver, conn)
	if err != nil {
		return nil, err
	}
	return stores.Trace.LoadTrace(ctx, sessionID)
}
