package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"turn-guidance-service/internal/api/handlers"
)

// NewRouter wires the navigation control surface and returns an http.Handler.
// live serves the websocket feed of camera targets, narration and state; it may be nil.
func NewRouter(sessions *handlers.SessionHandler, live http.Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	r.HandleFunc("/sessions", sessions.Start).Methods(http.MethodPost)
	cur := r.PathPrefix("/sessions/current").Subrouter()
	cur.HandleFunc("", sessions.State).Methods(http.MethodGet)
	cur.HandleFunc("", sessions.Stop).Methods(http.MethodDelete)
	cur.HandleFunc("/simulate", sessions.Simulate).Methods(http.MethodPost)
	cur.HandleFunc("/continue", sessions.Continue).Methods(http.MethodPost)
	cur.HandleFunc("/positions", sessions.Position).Methods(http.MethodPost)
	cur.HandleFunc("/camera", sessions.Camera).Methods(http.MethodPut)
	cur.HandleFunc("/route.geojson", sessions.RouteGeoJSON).Methods(http.MethodGet)

	if live != nil {
		r.Handle("/ws", live).Methods(http.MethodGet)
	}

	r.Use(loggingMiddleware)
	return r
}
