package session

import (
	"context"

	"asset-stream-manager/metrics"
)

// StartRequest carries everything the manager needs to bring up a session.
type StartRequest struct {
	InstanceID           string
	ProjectID            string
	OrganizationID       string
	Host                 string
	Port                 uint16
	WorkstationDirectory string
}

// Container is a registry of concurrently active sessions that stream from the
// same workstation directory, possibly to several gamelets.
type Container interface {
	GetSessionCount() int
	HasSessionForInstance(instanceID string) bool
	RecordSessionEvent(evt metrics.DeveloperLogEvent, typ metrics.EventType, instanceID string)
	RecordMultiSessionEvent(evt metrics.DeveloperLogEvent, typ metrics.EventType)
}

// Manager owns session state. StartSession returns a nil Container when no
// multi-session was obtained.
type Manager interface {
	StartSession(ctx context.Context, req StartRequest) (Container, metrics.SessionStartStatus, error)
	StopSession(ctx context.Context, instanceID string) error
}
