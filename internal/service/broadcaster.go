package service

// Events pushed to a session's live connections
const (
	EventProgressUpdate     = "progress_update"
	EventAssessmentComplete = "assessment_complete"
	EventAssessmentReset    = "assessment_reset"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}
