package domain

// Read-only snapshot of a navigation session, published to clients.
type NavigationState struct {
	SessionID          string
	IsNavigating       bool
	IsSimulating       bool
	WaitingForContinue bool
	ActiveLeg          int
	RouteIndex         int
	ETAMinutes         float64
	RemainingMeters    float64
	Instruction        string
	NextManeuver       *ManeuverPreview
	SecondNextManeuver *ManeuverPreview
	Position           *Coordinate
	Heading            float64
	Speed              float64
	Snapped            bool
	ReroutePending     bool
	CameraMode         string
	CameraPaused       bool
}
