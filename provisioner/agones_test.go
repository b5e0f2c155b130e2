package provisioner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"asset-stream-manager/apperrors"

	agonesv1 "agones.dev/agones/pkg/apis/agones/v1"
	agonesclientset "agones.dev/agones/pkg/client/clientset/versioned"
	agonesfake "agones.dev/agones/pkg/client/clientset/versioned/fake"
	"github.com/stretchr/testify/assert"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func gameServer(name string, state agonesv1.GameServerState, addr string, ports ...int32) *agonesv1.GameServer {
	gs := &agonesv1.GameServer{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "gamelets"},
		Status:     agonesv1.GameServerStatus{State: state, Address: addr},
	}
	for _, p := range ports {
		gs.Status.Ports = append(gs.Status.Ports, agonesv1.GameServerStatusPort{Name: "ssh", Port: p})
	}
	return gs
}

func TestAgones_Provision(t *testing.T) {
	tests := []struct {
		name     string
		objects  []*agonesv1.GameServer
		instance string
		want     Endpoint
		wantErr  bool
	}{
		{name: "ready", objects: []*agonesv1.GameServer{gameServer("c1", agonesv1.GameServerStateReady, "10.0.0.5", 7022)}, instance: "a/b/c1", want: Endpoint{Host: "10.0.0.5", Port: 7022}},
		{name: "allocated", objects: []*agonesv1.GameServer{gameServer("c2", agonesv1.GameServerStateAllocated, "10.0.0.6", 22, 7000)}, instance: "a/b/c2", want: Endpoint{Host: "10.0.0.6", Port: 22}},
		{name: "not found", instance: "a/b/missing", wantErr: true},
		{name: "starting", objects: []*agonesv1.GameServer{gameServer("c3", agonesv1.GameServerStateScheduled, "10.0.0.7", 22)}, instance: "a/b/c3", wantErr: true},
		{name: "no address", objects: []*agonesv1.GameServer{gameServer("c4", agonesv1.GameServerStateReady, "", 22)}, instance: "a/b/c4", wantErr: true},
		{name: "no ports", objects: []*agonesv1.GameServer{gameServer("c5", agonesv1.GameServerStateReady, "10.0.0.8")}, instance: "a/b/c5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := agonesfake.NewSimpleClientset()
			for _, gs := range tt.objects {
				_, err := cli.AgonesV1().GameServers("gamelets").Create(context.Background(), gs, metav1.CreateOptions{})
				assert.NoError(t, err)
			}
			a := &Agones{namespace: "gamelets", client: cli}
			got, err := a.Provision(context.Background(), Target{InstanceID: tt.instance})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, Endpoint{}, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAgones_Provision_ErrorCodes(t *testing.T) {
	cli := agonesfake.NewSimpleClientset()
	_, err := cli.AgonesV1().GameServers("gamelets").Create(context.Background(), gameServer("c3", agonesv1.GameServerStateScheduled, "10.0.0.7", 22), metav1.CreateOptions{})
	assert.NoError(t, err)
	a := &Agones{namespace: "gamelets", client: cli}

	_, err = a.Provision(context.Background(), Target{InstanceID: "a/b/missing"})
	assert.True(t, errors.Is(err, apperrors.New(apperrors.CodeProvisioningRun, "")), "err=%v", err)

	_, err = a.Provision(context.Background(), Target{InstanceID: "a/b/c3"})
	assert.True(t, errors.Is(err, apperrors.New(apperrors.CodeProvisioningOutput, "")), "err=%v", err)
}

func TestAgones_Provision_ConcurrentClientInit(t *testing.T) {
	cli := agonesfake.NewSimpleClientset()
	_, err := cli.AgonesV1().GameServers("gamelets").Create(context.Background(), gameServer("c1", agonesv1.GameServerStateReady, "10.0.0.5", 7022), metav1.CreateOptions{})
	assert.NoError(t, err)

	var inits atomic.Int32
	a := NewAgones("gamelets")
	a.newClient = func() (agonesclientset.Interface, error) {
		inits.Add(1)
		return cli, nil
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := a.Provision(context.Background(), Target{InstanceID: "a/b/c1"})
			if err == nil && got != (Endpoint{Host: "10.0.0.5", Port: 7022}) {
				err = errors.New("unexpected endpoint")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), inits.Load(), "client must be created once")
}

func TestAgones_Provision_RetriesFailedClientInit(t *testing.T) {
	cli := agonesfake.NewSimpleClientset()
	_, err := cli.AgonesV1().GameServers("gamelets").Create(context.Background(), gameServer("c1", agonesv1.GameServerStateReady, "10.0.0.5", 7022), metav1.CreateOptions{})
	assert.NoError(t, err)

	calls := 0
	a := NewAgones("gamelets")
	a.newClient = func() (agonesclientset.Interface, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("no kubeconfig")
		}
		return cli, nil
	}

	_, err = a.Provision(context.Background(), Target{InstanceID: "a/b/c1"})
	assert.True(t, errors.Is(err, apperrors.New(apperrors.CodeProvisioningStart, "")), "err=%v", err)

	got, err := a.Provision(context.Background(), Target{InstanceID: "a/b/c1"})
	assert.NoError(t, err)
	assert.Equal(t, Endpoint{Host: "10.0.0.5", Port: 7022}, got)
	assert.Equal(t, 2, calls)
}
