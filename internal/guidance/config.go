package guidance

// Config carries the tunable thresholds of the guidance state machine.
// Speeds are km/h, distances meters, unless the name says otherwise.
type Config struct {
	ArrivalSlowRadius       float64 `yaml:"arrival_slow_radius" validate:"gt=0"`
	ArrivalFastRadius       float64 `yaml:"arrival_fast_radius" validate:"gt=0"`
	ArrivalSlowSpeed        float64 `yaml:"arrival_slow_speed" validate:"gt=0"`
	FinalLegMaxSpeed        float64 `yaml:"final_leg_max_speed" validate:"gt=0"`
	IntermediateLegMaxSpeed float64 `yaml:"intermediate_leg_max_speed" validate:"gt=0"`

	OvershootNearRadius float64 `yaml:"overshoot_near_radius" validate:"gt=0"`
	OvershootFarRadius  float64 `yaml:"overshoot_far_radius" validate:"gtfield=OvershootNearRadius"`
	OvershootMinSpeed   float64 `yaml:"overshoot_min_speed" validate:"gte=0"`
	SideHintMaxAngle    float64 `yaml:"side_hint_max_angle" validate:"gt=0,lte=180"`

	ShortStepDistance      float64 `yaml:"short_step_distance" validate:"gte=0"`
	LongStepConfirmation   float64 `yaml:"long_step_confirmation" validate:"gt=0"`
	NowRadius              float64 `yaml:"now_radius" validate:"gt=0"`
	MinBandWidth           float64 `yaml:"min_band_width" validate:"gt=0"`
	BandSecondsAtSpeed     float64 `yaml:"band_seconds_at_speed" validate:"gt=0"`
	FinalArrivalSlowRadius float64 `yaml:"final_arrival_slow_radius" validate:"gt=0"`
	FinalArrivalFastRadius float64 `yaml:"final_arrival_fast_radius" validate:"gt=0"`
	FinalArrivalSlowSpeed  float64 `yaml:"final_arrival_slow_speed" validate:"gt=0"`

	ETAMinSpeed  float64 `yaml:"eta_min_speed" validate:"gt=0"`
	ETAAlpha     float64 `yaml:"eta_alpha" validate:"gt=0,lte=1"`
	ETASnapDelta float64 `yaml:"eta_snap_minutes" validate:"gt=0"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		ArrivalSlowRadius:       45,
		ArrivalFastRadius:       30,
		ArrivalSlowSpeed:        15,
		FinalLegMaxSpeed:        28,
		IntermediateLegMaxSpeed: 85,

		OvershootNearRadius: 40,
		OvershootFarRadius:  70,
		OvershootMinSpeed:   15,
		SideHintMaxAngle:    160,

		ShortStepDistance:      80,
		LongStepConfirmation:   1200,
		NowRadius:              18,
		MinBandWidth:           30,
		BandSecondsAtSpeed:     2.8,
		FinalArrivalSlowRadius: 15,
		FinalArrivalFastRadius: 30,
		FinalArrivalSlowSpeed:  20,

		ETAMinSpeed:  25,
		ETAAlpha:     0.1,
		ETASnapDelta: 10,
	}
}
