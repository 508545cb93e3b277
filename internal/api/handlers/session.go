package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"turn-guidance-service/internal/api/dto"
	"turn-guidance-service/internal/camera"
	"turn-guidance-service/internal/domain"
	"turn-guidance-service/internal/navigation"
	"turn-guidance-service/internal/playback"
	"turn-guidance-service/internal/ports"
)

// Navigation is the slice of navigation.Session the control surface drives.
type Navigation interface {
	Start(ctx context.Context, route *domain.Route, resume *domain.ResumeState) (string, error)
	Stop(ctx context.Context) error
	Simulate(ctx context.Context) error
	Continue(ctx context.Context, ack bool) error
	PushPosition(ctx context.Context, sample domain.PositionSample) (bool, error)
	SetCamera(ctx context.Context, mode *camera.Mode, paused *bool) error
	State(ctx context.Context) (domain.NavigationState, error)
	Route(ctx context.Context) (*domain.Route, error)
}

// SessionHandler exposes the navigation control operations over HTTP.
type SessionHandler struct {
	Nav Navigation

	// Resume and ResumeKey back the use_saved start option. Both optional.
	Resume    ports.ResumeStore
	ResumeKey string

	Now func() time.Time
}

func (h *SessionHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartSessionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	route, err := req.Route.ToDomain()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var resume *domain.ResumeState
	switch {
	case req.Resume != nil:
		resume = &domain.ResumeState{Leg: req.Resume.Leg, PointIndex: req.Resume.PointIndex}
	case req.UseSaved:
		resume = h.savedProgress(r.Context())
	}

	id, err := h.Nav.Start(r.Context(), route, resume)
	if err != nil {
		h.fail(w, r, "start session", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.StartSessionResponse{SessionID: id})
}

// savedProgress returns the stored checkpoint, or nil when there is none or
// the store is unavailable. A failed lookup starts from the beginning.
func (h *SessionHandler) savedProgress(ctx context.Context) *domain.ResumeState {
	if h.Resume == nil || h.ResumeKey == "" {
		return nil
	}
	st, ok, err := h.Resume.LoadProgress(ctx, h.ResumeKey)
	if err != nil {
		log.Printf("load saved progress failed: key=%s err=%v", h.ResumeKey, err)
		return nil
	}
	if !ok {
		return nil
	}
	return &st
}

func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.Nav.Stop(r.Context()); err != nil {
		h.fail(w, r, "stop session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	if err := h.Nav.Simulate(r.Context()); err != nil {
		h.fail(w, r, "start simulation", err)
		return
	}
	h.writeState(w, r, http.StatusAccepted)
}

func (h *SessionHandler) Continue(w http.ResponseWriter, r *http.Request) {
	var req dto.ContinueRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Nav.Continue(r.Context(), req.Ack); err != nil {
		h.fail(w, r, "continue navigation", err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

func (h *SessionHandler) Position(w http.ResponseWriter, r *http.Request) {
	var req dto.PositionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	accepted, err := h.Nav.PushPosition(r.Context(), req.Sample(h.now()))
	if err != nil {
		h.fail(w, r, "push position", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.PositionResponse{Accepted: accepted})
}

func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	h.writeState(w, r, http.StatusOK)
}

func (h *SessionHandler) Camera(w http.ResponseWriter, r *http.Request) {
	var req dto.CameraRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var mode *camera.Mode
	if req.Mode != nil {
		m, ok := camera.ParseMode(*req.Mode)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "mode must be 2d or 3d")
			return
		}
		mode = &m
	}

	if err := h.Nav.SetCamera(r.Context(), mode, req.Paused); err != nil {
		h.fail(w, r, "set camera", err)
		return
	}
	h.writeState(w, r, http.StatusOK)
}

func (h *SessionHandler) writeState(w http.ResponseWriter, r *http.Request, status int) {
	st, err := h.Nav.State(r.Context())
	if err != nil {
		h.fail(w, r, "read state", err)
		return
	}
	writeJSON(w, r, status, dto.StateFromDomain(st))
}

// fail maps navigation sentinels to client errors and hides everything else.
func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, navigation.ErrNoRoute):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, navigation.ErrNotNavigating),
		errors.Is(err, navigation.ErrNotWaiting),
		errors.Is(err, navigation.ErrSimulating),
		errors.Is(err, playback.ErrEmptyPath):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, navigation.ErrSessionClosed):
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Printf("%s failed: %v", op, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
