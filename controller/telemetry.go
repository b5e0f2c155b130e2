package controller

import (
	"asset-stream-manager/metrics"
	"asset-stream-manager/session"
)

// Scope is the sink that received a session start event.
type Scope int

const (
	// ScopeService: no container was obtained; recorded by the bare service.
	ScopeService Scope = iota
	// ScopeInstance: recorded for the session of the requested instance.
	ScopeInstance
	// ScopeMultiSession: recorded for the container as a whole.
	ScopeMultiSession
)

func (s Scope) String() string {
	switch s {
	case ScopeInstance:
		return "instance"
	case ScopeMultiSession:
		return "multi_session"
	default:
		return "service"
	}
}

// snapshotter is implemented by containers that can report membership and
// session count from one consistent read.
type snapshotter interface {
	Snapshot(instanceID string) (bool, int)
}

// routeStartEvent hands evt to exactly one sink and reports which one.
func routeStartEvent(container session.Container, instanceID string, evt metrics.DeveloperLogEvent, service metrics.Recorder) Scope {
	if container == nil {
		service.RecordEvent(evt, metrics.EventSessionStart)
		return ScopeService
	}

	has, count := membership(container, instanceID)
	if evt.SessionStart != nil {
		evt.SessionStart.ConcurrentSessionCount = count
	}
	if has {
		container.RecordSessionEvent(evt, metrics.EventSessionStart, instanceID)
		return ScopeInstance
	}
	container.RecordMultiSessionEvent(evt, metrics.EventSessionStart)
	return ScopeMultiSession
}

// membership falls back to two separate queries when the container has no
// snapshot; the answers may then reflect different registry states.
func membership(container session.Container, instanceID string) (bool, int) {
	if s, ok := container.(snapshotter); ok {
		has, count := s.Snapshot(instanceID)
		return has && instanceID != "", count
	}
	count := container.GetSessionCount()
	return instanceID != "" && container.HasSessionForInstance(instanceID), count
}
