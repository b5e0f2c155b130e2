package queues

import (
	"context"
	"errors"

	"asset-stream-manager/metrics"
)

type SessionAction string

const (
	ActionStart SessionAction = "start"
	ActionStop  SessionAction = "stop"
)

// SessionRequest asks for a session to be started or stopped.
type SessionRequest struct {
	RequestID            string        `json:"requestId"`
	Action               SessionAction `json:"action"`
	GameletName          string        `json:"gameletName,omitempty"`
	WorkstationDirectory string        `json:"workstationDirectory,omitempty"`
	Origin               int32         `json:"origin,omitempty"`
	GameletID            string        `json:"gameletId,omitempty"`
}

// Validate checks that the fields required by the action are present.
func (r *SessionRequest) Validate() error {
	switch r.Action {
	case ActionStart:
		if r.GameletName == "" || r.WorkstationDirectory == "" {
			return errors.New("start request requires gameletName and workstationDirectory")
		}
	case ActionStop:
		if r.GameletID == "" {
			return errors.New("stop request requires gameletId")
		}
	default:
		return errors.New("unknown action " + string(r.Action))
	}
	return nil
}

// EventEnvelope wraps a developer log event published to the telemetry topic.
type EventEnvelope struct {
	EnvelopeVersion string                    `json:"envelopeVersion"`
	Type            string                    `json:"type"`
	EventType       metrics.EventType         `json:"eventType"`
	Event           metrics.DeveloperLogEvent `json:"event"`
}

type Subscriber interface {
	Start(ctx context.Context, handler func(context.Context, *SessionRequest) error) error
}

type Publisher interface {
	PublishEvent(ctx context.Context, typ metrics.EventType, evt metrics.DeveloperLogEvent) error
}
