// Package controlplane exposes the display's REST control surface and a
// push-based status WebSocket, routed with go-chi the way the rest of
// this domain's example repos build their HTTP surfaces.
package controlplane

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ledgrid/ledctld/internal/arbiter"
	"github.com/ledgrid/ledctld/internal/layout"
	"github.com/ledgrid/ledctld/internal/patterns"
	"github.com/ledgrid/ledctld/internal/patternrunner"
	"github.com/ledgrid/ledctld/internal/status"
)

func errUnknownPattern(name string) error {
	return fmt.Errorf("controlplane: unknown pattern %q", name)
}

func errInvalidScheduleState(state string) error {
	return fmt.Errorf("controlplane: invalid schedule state %q, want %q or %q", state, arbiter.Awake, arbiter.Asleep)
}

// Server wires the Arbiter and Status Publisher into an HTTP surface.
type Server struct {
	arb       *arbiter.Arbiter
	statusPub *status.Publisher
	registry  *patterns.Registry
	log       zerolog.Logger
}

// New builds a Server; call Handler to obtain its http.Handler.
func New(arb *arbiter.Arbiter, statusPub *status.Publisher, registry *patterns.Registry, log zerolog.Logger) *Server {
	return &Server{arb: arb, statusPub: statusPub, registry: registry, log: log}
}

// Handler returns the routed http.Handler, with permissive CORS so a
// browser-based dashboard on another origin can reach it.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/layout", s.getLayout)
	r.Put("/layout", s.putLayout)
	r.Put("/brightness", s.putBrightness)
	r.Put("/pattern", s.putPattern)
	r.Put("/schedule", s.putSchedule)
	r.Put("/power-ceiling", s.putPowerCeiling)
	r.Get("/status", s.getStatus)
	r.Get("/patterns", s.getPatterns)
	r.Get("/status/ws", s.statusWS)

	return r
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	snap := s.arb.Snapshot()
	writeJSON(w, http.StatusOK, snap.Layout.Describe())
}

func (s *Server) putLayout(w http.ResponseWriter, r *http.Request) {
	var desc layout.Description
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.arb.SetLayout(desc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type brightnessBody struct {
	Brightness uint8 `json:"brightness"`
}

func (s *Server) putBrightness(w http.ResponseWriter, r *http.Request) {
	var body brightnessBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.arb.SetBrightness(body.Brightness)
	w.WriteHeader(http.StatusNoContent)
}

type patternBody struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params"`
}

func (s *Server) putPattern(w http.ResponseWriter, r *http.Request) {
	var body patternBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Name != "" {
		if _, ok := s.registry.Lookup(body.Name); !ok {
			writeError(w, http.StatusNotFound, errUnknownPattern(body.Name))
			return
		}
	}
	s.arb.SetPattern(patternrunner.Selection{Name: body.Name, Params: body.Params})
	w.WriteHeader(http.StatusNoContent)
}

type scheduleBody struct {
	State string `json:"state"`
}

func (s *Server) putSchedule(w http.ResponseWriter, r *http.Request) {
	var body scheduleBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	state := arbiter.ScheduleState(body.State)
	if state != arbiter.Awake && state != arbiter.Asleep {
		writeError(w, http.StatusBadRequest, errInvalidScheduleState(body.State))
		return
	}
	s.arb.SetSchedule(state)
	w.WriteHeader(http.StatusNoContent)
}

type powerCeilingBody struct {
	Amps    float64 `json:"amps"`
	Enabled bool    `json:"enabled"`
}

func (s *Server) putPowerCeiling(w http.ResponseWriter, r *http.Request) {
	var body powerCeilingBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.arb.SetPowerCeiling(body.Amps, body.Enabled); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statusPub.Snapshot())
}

func (s *Server) getPatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Names())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
