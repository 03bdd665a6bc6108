package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Dan9191/balancify/internal/engine"
	"github.com/Dan9191/balancify/internal/middleware"
	"github.com/Dan9191/balancify/internal/repository"
	"github.com/Dan9191/balancify/internal/service"
	"github.com/Dan9191/balancify/internal/session"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var errEmptyBody = &engine.ValidationError{Field: "body", Message: "request body is empty"}

type Handler struct {
	svc    *service.Service
	store  *session.Store
	tokens *session.Tokens
	log    *logrus.Logger
}

func NewHandler(svc *service.Service, store *session.Store, tokens *session.Tokens, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, store: store, tokens: tokens, log: log}
}

// SubmitQuestionnaire handles a raw questionnaire submission
func (h *Handler) SubmitQuestionnaire(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeObject(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp, err := h.svc.SubmitQuestionnaire(r.Context(), raw, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAnalysis returns the stored analysis of a questionnaire
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.GetAnalysis(r.Context(), mux.Vars(r)["questionnaireId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Simulate runs a what-if scenario
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req service.SimulationRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.svc.Simulate(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListPresets returns the predefined scenarios
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"presets": h.svc.Presets()})
}

// DownloadReport streams the XML report
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["questionnaireId"]
	doc, err := h.svc.RenderReport(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=balancify-report-%s.xml", id))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// EmailReport mails the report to the address in the body
func (h *Handler) EmailReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		h.writeError(w, &engine.ValidationError{Field: "email", Message: "is required"})
		return
	}
	if err := h.svc.EmailReport(r.Context(), mux.Vars(r)["questionnaireId"], req.Email); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps domain errors to HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrInactive):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrStorageDisabled):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		h.log.Errorf("Request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v. Numbers stay json.Number so amounts keep
// their precision.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return &engine.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

func decodeObject(r *http.Request) (map[string]any, error) {
	raw := map[string]any{}
	if err := decode(r, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func currentSession(r *http.Request) string {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return ""
	}
	return sess.ID
}
