package service

// Dashboard message types
const (
	MsgResponseRecorded = "response_recorded"
	MsgSummaryUpdate    = "summary_update"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToDashboard(surveyID string, msgType string, payload interface{})
}
