package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"composer-quiz/internal/app"
	"composer-quiz/internal/domain"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts the websocket endpoint and the read-only REST API.
func NewRouter(service *app.QuizService, log logrus.FieldLogger) *mux.Router {
	ws := NewWSHandler(service, log)
	api := &restHandler{service: service, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/samples", api.listSamples).Methods(http.MethodGet)
	v1.HandleFunc("/samples/{id:[0-9]+}", api.getSample).Methods(http.MethodGet)
	v1.HandleFunc("/players/{playerId}/scores", api.getScores).Methods(http.MethodGet)
	return r
}

type restHandler struct {
	service *app.QuizService
	log     logrus.FieldLogger
}

func (h *restHandler) listSamples(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.Catalog(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"samples": catalog.Samples()})
}

func (h *restHandler) getSample(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid sample id"})
		return
	}
	catalog, err := h.service.Catalog(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	sample, err := catalog.SampleByID(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func (h *restHandler) getScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.service.Scores(r.Context(), mux.Vars(r)["playerId"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h *restHandler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrSampleNotFound) {
		writeJSON(w, http.StatusNotFound, errorPayload{Message: err.Error()})
		return
	}
	h.log.WithError(err).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
