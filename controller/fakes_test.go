package controller

import (
	"context"
	"sync"

	"asset-stream-manager/metrics"
	"asset-stream-manager/provisioner"
	"asset-stream-manager/session"
)

type mockRecorder struct {
	mu     sync.Mutex
	events []metrics.DeveloperLogEvent
}

func (m *mockRecorder) RecordEvent(evt metrics.DeveloperLogEvent, typ metrics.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

type mockProvisioner struct {
	endpoint provisioner.Endpoint
	err      error
	targets  []provisioner.Target
}

func (m *mockProvisioner) Provision(ctx context.Context, target provisioner.Target) (provisioner.Endpoint, error) {
	m.targets = append(m.targets, target)
	if m.err != nil {
		return provisioner.Endpoint{}, m.err
	}
	return m.endpoint, nil
}

// mockContainer answers membership queries from fixed values and counts the
// events recorded through each sink.
type mockContainer struct {
	count        int
	has          bool
	sessionEvts  []metrics.DeveloperLogEvent
	sessionIDs   []string
	multiEvts    []metrics.DeveloperLogEvent
	hasQueries   int
	countQueries int
}

func (m *mockContainer) GetSessionCount() int {
	m.countQueries++
	return m.count
}

func (m *mockContainer) HasSessionForInstance(instanceID string) bool {
	m.hasQueries++
	return m.has
}

func (m *mockContainer) RecordSessionEvent(evt metrics.DeveloperLogEvent, typ metrics.EventType, instanceID string) {
	m.sessionEvts = append(m.sessionEvts, evt)
	m.sessionIDs = append(m.sessionIDs, instanceID)
}

func (m *mockContainer) RecordMultiSessionEvent(evt metrics.DeveloperLogEvent, typ metrics.EventType) {
	m.multiEvts = append(m.multiEvts, evt)
}

// snapshotContainer additionally offers a consistent snapshot.
type snapshotContainer struct {
	mockContainer
	snapshots int
}

func (s *snapshotContainer) Snapshot(instanceID string) (bool, int) {
	s.snapshots++
	return s.has, s.count
}

type mockManager struct {
	container session.Container
	status    metrics.SessionStartStatus
	err       error
	stopErr   error
	starts    []session.StartRequest
	stops     []string
}

func (m *mockManager) StartSession(ctx context.Context, req session.StartRequest) (session.Container, metrics.SessionStartStatus, error) {
	m.starts = append(m.starts, req)
	return m.container, m.status, m.err
}

func (m *mockManager) StopSession(ctx context.Context, instanceID string) error {
	m.stops = append(m.stops, instanceID)
	return m.stopErr
}
