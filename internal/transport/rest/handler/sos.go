package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"sahayak/internal/model"
	"sahayak/internal/service"
	"sahayak/internal/transport/rest/middleware"
)

const (
	minRawInputLen = 5
	maxRawInputLen = 2000
)

// SOSHandler handles SOS request endpoints
type SOSHandler struct {
	pedagogySvc *service.PedagogyService
}

// NewSOSHandler creates a new SOS handler
func NewSOSHandler(pedagogySvc *service.PedagogyService) *SOSHandler {
	return &SOSHandler{pedagogySvc: pedagogySvc}
}

// CreateSOSRequest is the request body for submitting an SOS
type CreateSOSRequest struct {
	RawInput      string `json:"rawInput"`
	InputType     string `json:"inputType,omitempty"`
	InputLanguage string `json:"inputLanguage,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Grade         string `json:"grade,omitempty"`
	Topic         string `json:"topic,omitempty"`
}

// FeedbackRequest is the request body for playbook feedback
type FeedbackRequest struct {
	Worked bool   `json:"worked"`
	Rating int    `json:"rating"`
	Text   string `json:"text,omitempty"`
}

func validRawInput(raw string) bool {
	n := utf8.RuneCountInString(raw)
	return n >= minRawInputLen && n <= maxRawInputLen
}

// Create handles POST /v1/sos. Processing is asynchronous; progress arrives
// over the status stream.
func (h *SOSHandler) Create(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	if teacherID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSOSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validRawInput(req.RawInput) {
		writeError(w, http.StatusBadRequest, "rawInput must be between 5 and 2000 characters")
		return
	}

	sos := &model.SOSRequest{
		TeacherID:     teacherID,
		RawInput:      req.RawInput,
		InputType:     model.InputType(req.InputType),
		InputLanguage: req.InputLanguage,
		Context: model.ClassifiedContext{
			Subject: req.Subject,
			Grade:   req.Grade,
			Topic:   req.Topic,
		},
	}

	id, err := h.pedagogySvc.Submit(r.Context(), sos)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     id,
		"status": string(model.SOSPending),
	})
}

// Quick handles POST /v1/sos/quick. Processes inline and returns the playbook
// in the response body; works without authentication for demos.
func (h *SOSHandler) Quick(w http.ResponseWriter, r *http.Request) {
	rawInput := r.URL.Query().Get("raw_input")
	if !validRawInput(rawInput) {
		writeError(w, http.StatusBadRequest, "raw_input must be between 5 and 2000 characters")
		return
	}

	teacherID := middleware.GetTeacherID(r.Context())
	if teacherID == "" {
		teacherID = "anonymous"
	}

	sos := &model.SOSRequest{
		TeacherID: teacherID,
		RawInput:  rawInput,
		Context: model.ClassifiedContext{
			Subject: r.URL.Query().Get("subject"),
			Grade:   r.URL.Query().Get("grade"),
		},
	}

	resolved, playbook, err := h.pedagogySvc.SubmitAndWait(r.Context(), sos)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"error":   "Failed to generate playbook",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"sosId":            resolved.ID.Hex(),
		"problem":          resolved.RawInput,
		"detectedSubject":  resolved.Context.Subject,
		"detectedGrade":    resolved.Context.Grade,
		"urgency":          resolved.Context.Urgency,
		"playbook":         playbook,
		"fromCache":        resolved.FromCache,
		"processingTimeMs": resolved.ProcessingMS,
	})
}

// List handles GET /v1/sos
func (h *SOSHandler) List(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	if teacherID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	skip := parseQueryInt(r, "skip", 0, 0, 1<<31)
	limit := parseQueryInt(r, "limit", 10, 1, 50)

	// An unknown status filter is ignored rather than rejected.
	var status model.SOSStatus
	switch s := model.SOSStatus(r.URL.Query().Get("status")); s {
	case model.SOSPending, model.SOSProcessing, model.SOSResolved, model.SOSFailed:
		status = s
	}

	requests, err := h.pedagogySvc.ListSOS(r.Context(), teacherID, status, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if requests == nil {
		requests = []*model.SOSRequest{}
	}

	writeJSON(w, http.StatusOK, requests)
}

// Get handles GET /v1/sos/{id}
func (h *SOSHandler) Get(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	sosID := mux.Vars(r)["id"]

	sos, err := h.pedagogySvc.GetSOS(r.Context(), sosID, teacherID)
	if err != nil {
		writeSOSError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sos)
}

// GetPlaybook handles GET /v1/sos/{id}/playbook
func (h *SOSHandler) GetPlaybook(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	sosID := mux.Vars(r)["id"]

	playbook, err := h.pedagogySvc.GetPlaybook(r.Context(), sosID, teacherID)
	if err != nil {
		if errors.Is(err, service.ErrPlaybookNotFound) {
			writeError(w, http.StatusNotFound, "Playbook not yet generated")
			return
		}
		writeSOSError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, playbook)
}

// Feedback handles POST /v1/sos/{id}/feedback
func (h *SOSHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	sosID := mux.Vars(r)["id"]

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	err := h.pedagogySvc.SubmitFeedback(r.Context(), sosID, teacherID, model.SOSFeedback{
		Worked: req.Worked,
		Rating: req.Rating,
		Text:   req.Text,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotOwner) {
			writeError(w, http.StatusForbidden, "Not authorized to give feedback on this request")
			return
		}
		writeSOSError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Thank you for your feedback!"})
}

func writeSOSError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSOSNotFound):
		writeError(w, http.StatusNotFound, "SOS request not found")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, "Not authorized to view this SOS request")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseQueryInt(r *http.Request, name string, def, min, max int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < min {
		return def
	}
	if v > max {
		return max
	}
	return v
}
