package handler

import (
	"careerchat/internal/assessment"
	"careerchat/internal/cache"
	"careerchat/internal/service"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

const tryAgain = "something went wrong, please try again"

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service errors to responses. Internal detail is logged, never sent.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, sessionID string, err error) {
	var (
		mismatch *assessment.TypeMismatchError
		contract *service.GenerationContractError
	)

	switch {
	case errors.Is(err, service.ErrInvalidAnswer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &mismatch):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":    fmt.Sprintf("this question expects a %s answer", mismatch.Required),
			"required": string(mismatch.Required),
		})
	case errors.Is(err, service.ErrCorruptState):
		logger.Error("session state rejected", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, tryAgain)
	case errors.Is(err, service.ErrNotComplete):
		writeError(w, http.StatusNotFound, "assessment not complete")
	case errors.As(err, &contract):
		logger.Warn("generation contract violated", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, tryAgain)
	case errors.Is(err, service.ErrSessionBusy), errors.Is(err, cache.ErrVersionConflict):
		logger.Info("concurrent turn rejected", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusConflict, tryAgain)
	default:
		logger.Error("request failed", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, tryAgain)
	}
}
