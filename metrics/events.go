package metrics

// EventType identifies what a developer log event describes.
type EventType string

const (
	EventSessionStart EventType = "SessionStart"
	EventSessionEnd   EventType = "SessionEnd"
)

// RequestOrigin is the client that asked for a session.
type RequestOrigin string

const (
	OriginUnknown       RequestOrigin = "Unknown"
	OriginCLI           RequestOrigin = "CLI"
	OriginPartnerPortal RequestOrigin = "PartnerPortal"
)

// SessionStartStatus is the session manager's own outcome of a start request.
type SessionStartStatus string

const (
	StartStatusOK               SessionStartStatus = "Ok"
	StartStatusInvalidDirectory SessionStartStatus = "InvalidDirectory"
	StartStatusRestartedSession SessionStartStatus = "RestartedSession"
	StartStatusFailed           SessionStartStatus = "Failed"
)

type SessionStartData struct {
	// StatusCode is the gRPC code returned to the caller, e.g. "OK".
	StatusCode             string             `json:"statusCode"`
	StartStatus            SessionStartStatus `json:"startStatus"`
	ConcurrentSessionCount int                `json:"concurrentSessionCount"`
	Origin                 RequestOrigin      `json:"origin"`
}

// SessionData is attached by a multi-session when an event is recorded for one
// of its sessions.
type SessionData struct {
	SessionID  string `json:"sessionId"`
	InstanceID string `json:"instanceId"`
}

// MultiSessionData is attached by a multi-session to every event it records.
type MultiSessionData struct {
	MultiSessionID string `json:"multiSessionId"`
	SessionCount   int    `json:"sessionCount"`
}

// DeveloperLogEvent is the telemetry record handed to a sink exactly once.
type DeveloperLogEvent struct {
	ProjectID      string            `json:"projectId,omitempty"`
	OrganizationID string            `json:"organizationId,omitempty"`
	SessionStart   *SessionStartData `json:"sessionStart,omitempty"`
	Session        *SessionData      `json:"session,omitempty"`
	MultiSession   *MultiSessionData `json:"multiSession,omitempty"`
}

// Recorder is the bare service-level sink.
type Recorder interface {
	RecordEvent(evt DeveloperLogEvent, typ EventType)
}
