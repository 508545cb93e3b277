package camera

import "time"

// Config holds the viewport tuning. Speeds are km/h, distances meters.
type Config struct {
	MaxZoom        float64 `yaml:"max_zoom" validate:"gt=0"`
	NearBoostRange float64 `yaml:"near_boost_range" validate:"gt=0"`
	NearBoost      float64 `yaml:"near_boost" validate:"gte=0"`
	FarBoostRange  float64 `yaml:"far_boost_range" validate:"gtfield=NearBoostRange"`
	FarBoost       float64 `yaml:"far_boost" validate:"gte=0"`

	ManeuverPitch      float64 `yaml:"maneuver_pitch" validate:"gte=0,lte=85"`
	ManeuverPitchRange float64 `yaml:"maneuver_pitch_range" validate:"gte=0"`

	TopPadding3D float64 `yaml:"top_padding_3d" validate:"gte=0"`
	TopPadding2D float64 `yaml:"top_padding_2d" validate:"gte=0"`

	FlyDuration        time.Duration `yaml:"fly_duration" validate:"gte=0"`
	MovingDuration     time.Duration `yaml:"moving_duration" validate:"gte=0"`
	StillDuration      time.Duration `yaml:"still_duration" validate:"gte=0"`
	MovingSpeed        float64       `yaml:"moving_speed" validate:"gte=0"`
	MinInterval        time.Duration `yaml:"min_interval" validate:"gte=0"`
	StationaryInterval time.Duration `yaml:"stationary_interval" validate:"gtefield=MinInterval"`
	StationaryAfter    time.Duration `yaml:"stationary_after" validate:"gte=0"`
	InterpolationSpan  time.Duration `yaml:"interpolation_span" validate:"gt=0"`
}

// DefaultConfig returns the production viewport tuning.
func DefaultConfig() Config {
	return Config{
		MaxZoom:        20,
		NearBoostRange: 40,
		NearBoost:      1.2,
		FarBoostRange:  100,
		FarBoost:       0.6,

		ManeuverPitch:      70,
		ManeuverPitchRange: 60,

		TopPadding3D: 200,
		TopPadding2D: 80,

		FlyDuration:        600 * time.Millisecond,
		MovingDuration:     1200 * time.Millisecond,
		StillDuration:      300 * time.Millisecond,
		MovingSpeed:        1.5,
		MinInterval:        20 * time.Millisecond,
		StationaryInterval: 5 * time.Second,
		StationaryAfter:    60 * time.Second,
		InterpolationSpan:  time.Second,
	}
}
