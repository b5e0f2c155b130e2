package provisioner

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"asset-stream-manager/apperrors"

	agonesv1 "agones.dev/agones/pkg/apis/agones/v1"
	agonesclientset "agones.dev/agones/pkg/client/clientset/versioned"
	"github.com/rs/zerolog/log"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Agones resolves the endpoint of a gamelet that runs as an Agones GameServer.
// The GameServer name is the last segment of the instance id.
type Agones struct {
	namespace string
	newClient func() (agonesclientset.Interface, error)

	mu     sync.Mutex
	client agonesclientset.Interface
}

func NewAgones(namespace string) *Agones {
	return &Agones{namespace: namespace, newClient: newAgonesClient}
}

// clientset creates the Agones client on first use. A failed init is retried
// by the next call.
func (a *Agones) clientset() (agonesclientset.Interface, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}
	cli, err := a.newClient()
	if err != nil {
		log.Error().Err(err).Msg("provisioner: failed to initialize Agones client")
		return nil, apperrors.Wrap(apperrors.CodeProvisioningStart, "agones client init failed", err)
	}
	a.client = cli
	log.Info().Msg("provisioner: Agones client initialized")
	return cli, nil
}

func (a *Agones) Provision(ctx context.Context, target Target) (endpoint Endpoint, err error) {
	start := time.Now()
	defer func() { observe("agones", start, err) }()

	cli, err := a.clientset()
	if err != nil {
		return Endpoint{}, err
	}

	ns := a.namespace
	if ns == "" {
		ns = "default"
	}
	name := path.Base(target.InstanceID)
	gs, err := cli.AgonesV1().GameServers(ns).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		log.Error().Err(err).Str("namespace", ns).Str("gameServerName", name).Msg("provisioner: failed to get GameServer")
		return Endpoint{}, apperrors.Wrap(apperrors.CodeProvisioningRun, fmt.Sprintf("failed to get GameServer '%s'", name), err)
	}

	switch gs.Status.State {
	case agonesv1.GameServerStateReady, agonesv1.GameServerStateReserved, agonesv1.GameServerStateAllocated:
	default:
		return Endpoint{}, apperrors.New(apperrors.CodeProvisioningOutput, fmt.Sprintf("GameServer '%s' is not reachable (state=%s)", name, gs.Status.State))
	}

	var port int32
	if len(gs.Status.Ports) > 0 {
		port = gs.Status.Ports[0].Port
	}
	if gs.Status.Address == "" || port <= 0 || port > 65535 {
		log.Error().Str("address", gs.Status.Address).Int32("port", port).Msg("provisioner: GameServer missing address/port")
		return Endpoint{}, apperrors.New(apperrors.CodeProvisioningOutput, fmt.Sprintf("GameServer '%s' missing address/port", name))
	}
	return Endpoint{Host: gs.Status.Address, Port: uint16(port)}, nil
}

// newAgonesClient returns an Agones typed clientset using in-cluster config or local kubeconfig.
func newAgonesClient() (agonesclientset.Interface, error) {
	if cfg, err := rest.InClusterConfig(); err == nil {
		return agonesclientset.NewForConfig(cfg)
	}
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{})
	cfg, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, err
	}
	return agonesclientset.NewForConfig(cfg)
}
