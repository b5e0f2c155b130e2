package session

import (
	"sync"
	"time"

	"asset-stream-manager/metrics"

	"github.com/google/uuid"
)

// Session is one workstation directory streamed to one gamelet.
type Session struct {
	ID         string
	InstanceID string
	ProjectID  string
	Host       string
	Port       uint16
	StartedAt  time.Time
}

// MultiSession groups the sessions that stream the same workstation directory.
type MultiSession struct {
	id       string
	dir      string
	recorder metrics.Recorder

	mu       sync.RWMutex
	sessions map[string]*Session // key: instance id
}

func newMultiSession(dir string, recorder metrics.Recorder) *MultiSession {
	return &MultiSession{
		id:       uuid.NewString(),
		dir:      dir,
		recorder: recorder,
		sessions: make(map[string]*Session),
	}
}

// Directory returns the workstation directory being streamed.
func (ms *MultiSession) Directory() string { return ms.dir }

func (ms *MultiSession) GetSessionCount() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.sessions)
}

func (ms *MultiSession) HasSessionForInstance(instanceID string) bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	_, ok := ms.sessions[instanceID]
	return ok
}

// Snapshot returns membership of instanceID and the session count from a
// single read.
func (ms *MultiSession) Snapshot(instanceID string) (bool, int) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	_, ok := ms.sessions[instanceID]
	return ok, len(ms.sessions)
}

// RecordSessionEvent records evt for the session of instanceID. If the session
// is gone by now, the event is recorded for the multi-session instead.
func (ms *MultiSession) RecordSessionEvent(evt metrics.DeveloperLogEvent, typ metrics.EventType, instanceID string) {
	ms.mu.RLock()
	s, ok := ms.sessions[instanceID]
	if ok {
		evt.Session = &metrics.SessionData{SessionID: s.ID, InstanceID: s.InstanceID}
	}
	evt.MultiSession = &metrics.MultiSessionData{MultiSessionID: ms.id, SessionCount: len(ms.sessions)}
	ms.mu.RUnlock()
	ms.recorder.RecordEvent(evt, typ)
}

func (ms *MultiSession) RecordMultiSessionEvent(evt metrics.DeveloperLogEvent, typ metrics.EventType) {
	ms.mu.RLock()
	evt.MultiSession = &metrics.MultiSessionData{MultiSessionID: ms.id, SessionCount: len(ms.sessions)}
	ms.mu.RUnlock()
	ms.recorder.RecordEvent(evt, typ)
}

func (ms *MultiSession) add(s *Session) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[s.InstanceID] = s
}

// remove deletes the session for instanceID and reports the remaining count.
func (ms *MultiSession) remove(instanceID string) (*Session, int) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	s := ms.sessions[instanceID]
	delete(ms.sessions, instanceID)
	return s, len(ms.sessions)
}
