package navigation

import (
	"time"

	"turn-guidance-service/internal/camera"
	"turn-guidance-service/internal/guidance"
	"turn-guidance-service/internal/playback"
	"turn-guidance-service/internal/tracking"
)

// Config bundles the tuning of every engine component plus the session timers.
type Config struct {
	Guidance guidance.Config `yaml:"guidance"`
	Tracking tracking.Config `yaml:"tracking"`
	Camera   camera.Config   `yaml:"camera"`

	SimulationSpeed    float64       `yaml:"simulation_speed" validate:"gt=0"`
	DeadReckonInterval time.Duration `yaml:"dead_reckon_interval" validate:"gt=0"`
	FrameInterval      time.Duration `yaml:"frame_interval" validate:"gt=0"`
	CheckpointInterval time.Duration `yaml:"checkpoint_interval" validate:"gt=0"`
	RerouteTimeout     time.Duration `yaml:"reroute_timeout" validate:"gt=0"`
	TraceBatch         int           `yaml:"trace_batch" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		Guidance: guidance.DefaultConfig(),
		Tracking: tracking.DefaultConfig(),
		Camera:   camera.DefaultConfig(),

		SimulationSpeed:    playback.DefaultSpeed,
		DeadReckonInterval: time.Second,
		FrameInterval:      50 * time.Millisecond,
		CheckpointInterval: 30 * time.Second,
		RerouteTimeout:     10 * time.Second,
		TraceBatch:         20,
	}
}
