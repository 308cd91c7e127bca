package event

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeResponseRecorded  EventType = "response.recorded"
	EventTypeResponsesImported EventType = "responses.imported"
	EventTypeSnapshotCreated   EventType = "report.snapshot.created"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Version   string    `json:"version"`
}

type ResponseRecordedEvent struct {
	BaseEvent
	SurveyID   string `json:"survey_id"`
	ResponseID string `json:"response_id"`
	Revision   int64  `json:"revision"`
}

type ResponsesImportedEvent struct {
	BaseEvent
	SurveyID string `json:"survey_id"`
	Count    int    `json:"count"`
	Revision int64  `json:"revision"`
}

type SnapshotCreatedEvent struct {
	BaseEvent
	SurveyID   string `json:"survey_id"`
	SnapshotID string `json:"snapshot_id"`
	Revision   int64  `json:"revision"`
	Verdict    string `json:"verdict"`
}

func newBase(t EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().Unix(),
		Version:   "1.0",
	}
}

func NewResponseRecordedEvent(surveyID, responseID string, revision int64) *ResponseRecordedEvent {
	return &ResponseRecordedEvent{
		BaseEvent:  newBase(EventTypeResponseRecorded),
		SurveyID:   surveyID,
		ResponseID: responseID,
		Revision:   revision,
	}
}

func NewResponsesImportedEvent(surveyID string, count int, revision int64) *ResponsesImportedEvent {
	return &ResponsesImportedEvent{
		BaseEvent: newBase(EventTypeResponsesImported),
		SurveyID:  surveyID,
		Count:     count,
		Revision:  revision,
	}
}

func NewSnapshotCreatedEvent(surveyID, snapshotID string, revision int64, verdict string) *SnapshotCreatedEvent {
	return &SnapshotCreatedEvent{
		BaseEvent:  newBase(EventTypeSnapshotCreated),
		SurveyID:   surveyID,
		SnapshotID: snapshotID,
		Revision:   revision,
		Verdict:    verdict,
	}
}
