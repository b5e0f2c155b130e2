package controller

import (
	"context"
	"testing"

	"asset-stream-manager/metrics"
	"asset-stream-manager/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startEvent() metrics.DeveloperLogEvent {
	return metrics.DeveloperLogEvent{SessionStart: &metrics.SessionStartData{StatusCode: "OK"}}
}

func TestRouteStartEvent(t *testing.T) {
	tests := []struct {
		name         string
		container    *mockContainer
		instanceID   string
		wantScope    Scope
		wantService  int
		wantInstance int
		wantMulti    int
	}{
		{name: "no container", container: nil, instanceID: "a/b/c", wantScope: ScopeService, wantService: 1},
		{name: "session for instance", container: &mockContainer{count: 3, has: true}, instanceID: "a/b/c", wantScope: ScopeInstance, wantInstance: 1},
		{name: "container without instance", container: &mockContainer{count: 3, has: false}, instanceID: "a/b/c", wantScope: ScopeMultiSession, wantMulti: 1},
		{name: "empty instance id is never instance scoped", container: &mockContainer{count: 3, has: true}, instanceID: "", wantScope: ScopeMultiSession, wantMulti: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecorder{}
			var c session.Container
			if tt.container != nil {
				c = tt.container
			}
			scope := routeStartEvent(c, tt.instanceID, startEvent(), rec)

			assert.Equal(t, tt.wantScope, scope)
			assert.Len(t, rec.events, tt.wantService)
			if tt.container == nil {
				assert.Equal(t, 0, rec.events[0].SessionStart.ConcurrentSessionCount)
				return
			}
			assert.Len(t, tt.container.sessionEvts, tt.wantInstance)
			assert.Len(t, tt.container.multiEvts, tt.wantMulti)
			for _, evt := range append(tt.container.sessionEvts, tt.container.multiEvts...) {
				assert.Equal(t, 3, evt.SessionStart.ConcurrentSessionCount)
			}
		})
	}
}

func TestRouteStartEvent_PrefersSnapshot(t *testing.T) {
	c := &snapshotContainer{mockContainer: mockContainer{count: 2, has: true}}
	scope := routeStartEvent(c, "a/b/c", startEvent(), &mockRecorder{})

	assert.Equal(t, ScopeInstance, scope)
	assert.Equal(t, 1, c.snapshots)
	assert.Equal(t, 0, c.hasQueries, "membership must come from the snapshot")
	assert.Equal(t, 0, c.countQueries, "count must come from the snapshot")
	require.Len(t, c.sessionEvts, 1)
	assert.Equal(t, 2, c.sessionEvts[0].SessionStart.ConcurrentSessionCount)
}

func TestRouteStartEvent_WithRegistry(t *testing.T) {
	dir := t.TempDir()
	rec := &mockRecorder{}
	reg := session.NewRegistry(rec)
	c, _, err := reg.StartSession(context.Background(), session.StartRequest{InstanceID: "a/b/c", Host: "h", Port: 22, WorkstationDirectory: dir})
	require.NoError(t, err)

	assert.Equal(t, ScopeInstance, routeStartEvent(c, "a/b/c", startEvent(), rec))
	assert.Equal(t, ScopeMultiSession, routeStartEvent(c, "x/y/z", startEvent(), rec))
	require.Len(t, rec.events, 2)
	require.NotNil(t, rec.events[0].Session)
	assert.Equal(t, "a/b/c", rec.events[0].Session.InstanceID)
	assert.Nil(t, rec.events[1].Session)
}

func TestScope_String(t *testing.T) {
	assert.Equal(t, "service", ScopeService.String())
	assert.Equal(t, "instance", ScopeInstance.String())
	assert.Equal(t, "multi_session", ScopeMultiSession.String())
}
