package handler

import (
	"careerchat/internal/model"
	"careerchat/internal/service"
	"careerchat/internal/transport/rest/middleware"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// SessionHandler handles assessment session endpoints
type SessionHandler struct {
	turns   *service.TurnCoordinator
	authSvc *service.AuthService
	logger  *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(turns *service.TurnCoordinator, authSvc *service.AuthService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		turns:   turns,
		authSvc: authSvc,
		logger:  logger,
	}
}

// Create handles POST /v1/sessions
//
//	@Summary	Start an assessment session
//	@Tags		sessions
//	@Produce	json
//	@Success	201	{object}	model.CreateSessionResponse
//	@Router		/v1/sessions [post]
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	view, err := h.turns.CreateSession(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "", err)
		return
	}

	token, err := h.authSvc.GenerateSessionToken(view.SessionID)
	if err != nil {
		h.logger.Error("sign session token", zap.String("session_id", view.SessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, tryAgain)
		return
	}

	writeJSON(w, http.StatusCreated, model.CreateSessionResponse{
		SessionID: view.SessionID,
		Token:     token,
		Next:      view.Next,
		Progress:  view.Progress,
	})
}

// Get handles GET /v1/sessions/{id}
//
//	@Summary	Current state, next required type and progress
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	model.SessionView
//	@Router		/v1/sessions/{id} [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetSessionID(r.Context())
	view, err := h.turns.GetSession(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, id, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SubmitAnswer handles POST /v1/sessions/{id}/answers
//
//	@Summary	Record one answer turn
//	@Tags		sessions
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Session ID"
//	@Param		body	body		model.SubmitAnswerRequest	true	"Answer"
//	@Success	200		{object}	model.TurnResult
//	@Failure	409		{object}	map[string]string
//	@Failure	422		{object}	map[string]string
//	@Router		/v1/sessions/{id}/answers [post]
func (h *SessionHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetSessionID(r.Context())

	var req model.SubmitAnswerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.turns.SubmitAnswer(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, h.logger, id, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reset handles POST /v1/sessions/{id}/reset
//
//	@Summary	Reset the assessment to its initial state
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	model.SessionView
//	@Router		/v1/sessions/{id}/reset [post]
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetSessionID(r.Context())
	view, err := h.turns.Reset(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, id, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /v1/sessions/{id}
//
//	@Summary	Delete the session, its transcript and result
//	@Tags		sessions
//	@Param		id	path	string	true	"Session ID"
//	@Success	204
//	@Router		/v1/sessions/{id} [delete]
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetSessionID(r.Context())
	if err := h.turns.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPersona handles PUT /v1/sessions/{id}/persona
//
//	@Summary	Store the opaque persona document
//	@Tags		sessions
//	@Accept		json
//	@Param		id	path	string	true	"Session ID"
//	@Success	204
//	@Router		/v1/sessions/{id}/persona [put]
func (h *SessionHandler) SetPersona(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetSessionID(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.turns.SetPersona(r.Context(), id, json.RawMessage(body)); err != nil {
		writeServiceError(w, h.logger, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Results handles GET /v1/sessions/{id}/results
//
//	@Summary	Summary of a completed assessment
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path		string	true	"Session ID"
//	@Success	200	{object}	model.AssessmentResult
//	@Failure	404	{object}	map[string]string
//	@Router		/v1/sessions/{id}/results [get]
func (h *SessionHandler) Results(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetSessionID(r.Context())
	res, err := h.turns.Results(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, id, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Transcript handles GET /v1/sessions/{id}/transcript
//
//	@Summary	Recorded turns, oldest first
//	@Tags		sessions
//	@Produce	json
//	@Param		id	path	string	true	"Session ID"
//	@Success	200	{array}	model.TranscriptEntry
//	@Router		/v1/sessions/{id}/transcript [get]
func (h *SessionHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetSessionID(r.Context())
	entries, err := h.turns.Transcript(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, id, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
