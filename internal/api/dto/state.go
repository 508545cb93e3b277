package dto

import (
	"time"

	"turn-guidance-service/internal/domain"
)

type PositionRequest struct {
	Lat       float64    `json:"lat" validate:"gte=-90,lte=90"`
	Lng       float64    `json:"lng" validate:"gte=-180,lte=180"`
	Heading   *float64   `json:"heading" validate:"omitempty,gte=0,lt=360"`
	Speed     *float64   `json:"speed" validate:"omitempty,gte=0"`
	Accuracy  float64    `json:"accuracy" validate:"gte=0"`
	Timestamp *time.Time `json:"timestamp"`
}

type PositionResponse struct {
	Accepted bool `json:"accepted"`
}

type ContinueRequest struct {
	Ack bool `json:"ack"`
}

type CameraRequest struct {
	Mode   *string `json:"mode" validate:"omitempty,oneof=2d 3d 2D 3D"`
	Paused *bool   `json:"paused"`
}

type ManeuverResponse struct {
	Type              string  `json:"type"`
	Modifier          string  `json:"modifier"`
	DistanceMeters    float64 `json:"distance_meters"`
	Instruction       string  `json:"instruction"`
	FollowingDistance float64 `json:"following_distance"`
}

type StateResponse struct {
	SessionID          string            `json:"session_id"`
	IsNavigating       bool              `json:"is_navigating"`
	IsSimulating       bool              `json:"is_simulating"`
	WaitingForContinue bool              `json:"is_waiting_for_continue"`
	ActiveLeg          int               `json:"active_leg"`
	RouteIndex         int               `json:"current_route_index"`
	ETAMinutes         float64           `json:"eta_minutes"`
	RemainingMeters    float64           `json:"remaining_distance"`
	Instruction        string            `json:"current_instruction_text"`
	NextManeuver       *ManeuverResponse `json:"next_maneuver"`
	SecondNextManeuver *ManeuverResponse `json:"second_next_maneuver"`
	Position           *CoordinateDTO    `json:"position"`
	Heading            float64           `json:"heading"`
	Speed              float64           `json:"speed"`
	Snapped            bool              `json:"snapped"`
	ReroutePending     bool              `json:"reroute_pending"`
	CameraMode         string            `json:"camera_mode"`
	CameraPaused       bool              `json:"camera_paused"`
}

type CameraResponse struct {
	Center   CoordinateDTO `json:"center"`
	Zoom     float64       `json:"zoom"`
	Bearing  float64       `json:"bearing"`
	Pitch    float64       `json:"pitch"`
	Padding  PaddingDTO    `json:"padding"`
	Forced   bool          `json:"forced"`
	Duration int64         `json:"duration_ms"`
}

type PaddingDTO struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Sample converts the request into a position sample stamped with now when
// the client sent no timestamp.
func (p PositionRequest) Sample(now time.Time) domain.PositionSample {
	s := domain.PositionSample{
		Lat:       p.Lat,
		Lng:       p.Lng,
		Heading:   p.Heading,
		Speed:     p.Speed,
		Accuracy:  p.Accuracy,
		Timestamp: now,
	}
	if p.Timestamp != nil {
		s.Timestamp = *p.Timestamp
	}
	return s
}

func StateFromDomain(s domain.NavigationState) StateResponse {
	out := StateResponse{
		SessionID:          s.SessionID,
		IsNavigating:       s.IsNavigating,
		IsSimulating:       s.IsSimulating,
		WaitingForContinue: s.WaitingForContinue,
		ActiveLeg:          s.ActiveLeg,
		RouteIndex:         s.RouteIndex,
		ETAMinutes:         s.ETAMinutes,
		RemainingMeters:    s.RemainingMeters,
		Instruction:        s.Instruction,
		NextManeuver:       maneuverFromDomain(s.NextManeuver),
		SecondNextManeuver: maneuverFromDomain(s.SecondNextManeuver),
		Heading:            s.Heading,
		Speed:              s.Speed,
		Snapped:            s.Snapped,
		ReroutePending:     s.ReroutePending,
		CameraMode:         s.CameraMode,
		CameraPaused:       s.CameraPaused,
	}
	if s.Position != nil {
		out.Position = &CoordinateDTO{Lat: s.Position.Lat, Lng: s.Position.Lng}
	}
	return out
}

func CameraFromDomain(t domain.CameraTarget, forced bool, d time.Duration) CameraResponse {
	return CameraResponse{
		Center:   CoordinateDTO{Lat: t.Center.Lat, Lng: t.Center.Lng},
		Zoom:     t.Zoom,
		Bearing:  t.Bearing,
		Pitch:    t.Pitch,
		Padding:  PaddingDTO{Top: t.Padding.Top, Bottom: t.Padding.Bottom, Left: t.Padding.Left, Right: t.Padding.Right},
		Forced:   forced,
		Duration: d.Milliseconds(),
	}
}

func maneuverFromDomain(p *domain.ManeuverPreview) *ManeuverResponse {
	if p == nil {
		return nil
	}
	return &ManeuverResponse{
		Type:              p.Type,
		Modifier:          p.Modifier,
		DistanceMeters:    p.DistanceMeters,
		Instruction:       p.Instruction,
		FollowingDistance: p.FollowingDistance,
	}
}
