// internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tamzrod/lidar-bank/internal/lidar"
)

const service = "lidar-bank"

// Bank is the slice of the controller the API needs.
type Bank interface {
	Snapshot() []lidar.SensorSnapshot
	Count() int
	State(slot int) (lidar.State, error)
	SetState(slot int, st lidar.State) error
	Reset(slot int) error
}

// Server exposes bank introspection and metrics over HTTP.
type Server struct {
	bank    Bank
	metrics http.Handler
	router  *mux.Router
}

// New builds the HTTP surface. metrics may be nil.
func New(bank Bank, metrics http.Handler) *Server {
	s := &Server{bank: bank, metrics: metrics}

	r := mux.NewRouter()
	r.HandleFunc("/", s.rootHandler).Methods(http.MethodGet)
	r.HandleFunc("/sensors", s.listHandler).Methods(http.MethodGet)
	r.HandleFunc("/sensors/{slot}", s.sensorHandler).Methods(http.MethodGet)
	r.HandleFunc("/sensors/{slot}/state", s.setStateHandler).Methods(http.MethodPost)
	r.HandleFunc("/sensors/{slot}/reset", s.resetHandler).Methods(http.MethodPost)
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	s.router = r
	return s
}

// Router returns the configured router for http.ListenAndServe.
func (s *Server) Router() http.Handler { return s.router }

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func slotVar(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["slot"])
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": service,
		"sensors": s.bank.Count(),
	})
}

func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sensors": s.bank.Snapshot(),
	})
}

func (s *Server) sensorHandler(w http.ResponseWriter, r *http.Request) {
	slot, err := slotVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for _, snap := range s.bank.Snapshot() {
		if snap.Slot == slot {
			writeJSON(w, http.StatusOK, snap)
			return
		}
	}
	if _, err := s.bank.State(slot); err != nil {
		writeError(w, http.StatusNotFound, err)
	}
}

// setStateHandler forces a unit into a named state. Diagnostics only:
// the state machine reclaims the unit on the next tick.
func (s *Server) setStateHandler(w http.ResponseWriter, r *http.Request) {
	slot, err := slotVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var body struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	st, ok := lidar.ParseState(body.State)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown state " + body.State,
		})
		return
	}

	if err := s.bank.SetState(slot, st); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": st.String()})
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	slot, err := slotVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.bank.Reset(slot); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": lidar.StatePoweringDown.String()})
}
