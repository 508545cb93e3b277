package tracking

import "time"

// Config holds the tracking thresholds. Speeds are km/h, distances meters.
type Config struct {
	MaxAccuracy float64 `yaml:"max_accuracy" validate:"gt=0"`

	StationarySpeed float64 `yaml:"stationary_speed" validate:"gte=0"`
	HighSpeed       float64 `yaml:"high_speed" validate:"gt=0"`
	HighSpeedAlpha  float64 `yaml:"high_speed_alpha" validate:"gt=0,lte=1"`
	LowSpeedAlpha   float64 `yaml:"low_speed_alpha" validate:"gt=0,lte=1"`
	RoadBlend       float64 `yaml:"road_blend" validate:"gte=0,lte=1"`
	CourseMinMove   float64 `yaml:"course_min_move" validate:"gte=0"`

	SnapSlowSpeed    float64 `yaml:"snap_slow_speed" validate:"gt=0"`
	SnapMidSpeed     float64 `yaml:"snap_mid_speed" validate:"gtfield=SnapSlowSpeed"`
	SnapSlowRadius   float64 `yaml:"snap_slow_radius" validate:"gt=0"`
	SnapMidRadius    float64 `yaml:"snap_mid_radius" validate:"gt=0"`
	SnapFastRadius   float64 `yaml:"snap_fast_radius" validate:"gt=0"`
	HeadingTolerance float64 `yaml:"heading_tolerance" validate:"gt=0,lte=180"`

	OffRouteFarDistance float64       `yaml:"off_route_far_distance" validate:"gt=0"`
	OffRouteMidDistance float64       `yaml:"off_route_mid_distance" validate:"gt=0"`
	WrongWayAngle       float64       `yaml:"wrong_way_angle" validate:"gt=0,lte=180"`
	WrongWaySpeed       float64       `yaml:"wrong_way_speed" validate:"gte=0"`
	RerouteScore        int           `yaml:"reroute_score" validate:"gt=0"`
	RerouteCooldown     time.Duration `yaml:"reroute_cooldown" validate:"gte=0"`
	ReroutePending      time.Duration `yaml:"reroute_pending" validate:"gte=0"`

	InterpolateMinJump  float64 `yaml:"interpolate_min_jump" validate:"gte=0"`
	InterpolateMaxJump  float64 `yaml:"interpolate_max_jump" validate:"gtfield=InterpolateMinJump"`
	InterpolateMinSpeed float64 `yaml:"interpolate_min_speed" validate:"gte=0"`

	DeadReckonMinAge   time.Duration `yaml:"dead_reckon_min_age" validate:"gt=0"`
	DeadReckonMaxAge   time.Duration `yaml:"dead_reckon_max_age" validate:"gtfield=DeadReckonMinAge"`
	DeadReckonMinSpeed float64       `yaml:"dead_reckon_min_speed" validate:"gte=0"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MaxAccuracy: 70,

		StationarySpeed: 1.5,
		HighSpeed:       40,
		HighSpeedAlpha:  0.15,
		LowSpeedAlpha:   0.3,
		RoadBlend:       0.7,
		CourseMinMove:   3,

		SnapSlowSpeed:    20,
		SnapMidSpeed:     60,
		SnapSlowRadius:   35,
		SnapMidRadius:    60,
		SnapFastRadius:   90,
		HeadingTolerance: 100,

		OffRouteFarDistance: 200,
		OffRouteMidDistance: 100,
		WrongWayAngle:       110,
		WrongWaySpeed:       20,
		RerouteScore:        8,
		RerouteCooldown:     5 * time.Second,
		ReroutePending:      15 * time.Second,

		InterpolateMinJump:  0.3,
		InterpolateMaxJump:  60,
		InterpolateMinSpeed: 3,

		DeadReckonMinAge:   1500 * time.Millisecond,
		DeadReckonMaxAge:   12 * time.Second,
		DeadReckonMinSpeed: 5,
	}
}
