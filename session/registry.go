package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"asset-stream-manager/apperrors"
	"asset-stream-manager/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Registry is an in-process Manager. It keeps one MultiSession per workstation
// directory and at most one session per gamelet instance.
type Registry struct {
	recorder metrics.Recorder

	mu        sync.Mutex
	byDir     map[string]*MultiSession // key: cleaned workstation directory
	instances map[string]*MultiSession // key: instance id
}

// NewRegistry creates an empty registry that records events through recorder.
func NewRegistry(recorder metrics.Recorder) *Registry {
	return &Registry{
		recorder:  recorder,
		byDir:     make(map[string]*MultiSession),
		instances: make(map[string]*MultiSession),
	}
}

func (r *Registry) StartSession(ctx context.Context, req StartRequest) (Container, metrics.SessionStartStatus, error) {
	dir, err := checkDirectory(req.WorkstationDirectory)
	if err != nil {
		log.Warn().Err(err).Str("workstationDirectory", req.WorkstationDirectory).Msg("session: invalid workstation directory")
		return nil, metrics.StartStatusInvalidDirectory, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	status := metrics.StartStatusOK
	if prev, ok := r.instances[req.InstanceID]; ok && prev.dir != dir {
		// An instance streams from one directory at a time.
		r.stopLocked(prev, req.InstanceID)
		status = metrics.StartStatusRestartedSession
		log.Info().Str("instanceId", req.InstanceID).Str("previousDirectory", prev.dir).Msg("session: restarting session for new directory")
	}

	ms, ok := r.byDir[dir]
	if !ok {
		ms = newMultiSession(dir, r.recorder)
		r.byDir[dir] = ms
		log.Info().Str("multiSessionId", ms.id).Str("workstationDirectory", dir).Msg("session: multi-session created")
	}
	s := &Session{
		ID:         uuid.NewString(),
		InstanceID: req.InstanceID,
		ProjectID:  req.ProjectID,
		Host:       req.Host,
		Port:       req.Port,
		StartedAt:  time.Now(),
	}
	ms.add(s)
	r.instances[req.InstanceID] = ms
	log.Info().Str("sessionId", s.ID).Str("instanceId", s.InstanceID).Str("host", s.Host).Uint16("port", s.Port).Msg("session: started")
	return ms, status, nil
}

func (r *Registry) StopSession(ctx context.Context, instanceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ms, ok := r.instances[instanceID]
	if !ok {
		return apperrors.New(apperrors.CodeSessionNotFound, fmt.Sprintf("no session for gamelet '%s'", instanceID))
	}
	r.stopLocked(ms, instanceID)
	return nil
}

// stopLocked removes the session of instanceID from ms. r.mu must be held.
func (r *Registry) stopLocked(ms *MultiSession, instanceID string) {
	s, remaining := ms.remove(instanceID)
	delete(r.instances, instanceID)
	if s != nil {
		ms.RecordMultiSessionEvent(metrics.DeveloperLogEvent{
			ProjectID: s.ProjectID,
			Session:   &metrics.SessionData{SessionID: s.ID, InstanceID: s.InstanceID},
		}, metrics.EventSessionEnd)
		log.Info().Str("sessionId", s.ID).Str("instanceId", instanceID).Dur("uptime", time.Since(s.StartedAt)).Msg("session: stopped")
	}
	if remaining == 0 {
		delete(r.byDir, ms.dir)
		log.Info().Str("multiSessionId", ms.id).Msg("session: multi-session removed")
	}
}

// Sessions returns a snapshot of session counts per workstation directory.
func (r *Registry) Sessions() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]int, len(r.byDir))
	for dir, ms := range r.byDir {
		snapshot[dir] = ms.GetSessionCount()
	}
	return snapshot
}

func checkDirectory(dir string) (string, error) {
	if dir == "" {
		return "", apperrors.New(apperrors.CodeInvalidDirectory, "workstation directory is empty")
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInvalidDirectory, fmt.Sprintf("failed to stat workstation directory '%s'", dir), err)
	}
	if !fi.IsDir() {
		return "", apperrors.New(apperrors.CodeInvalidDirectory, fmt.Sprintf("workstation path '%s' is not a directory", dir))
	}
	return filepath.Clean(dir), nil
}
