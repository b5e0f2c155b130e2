package provisioner

import (
	"context"
	"time"

	"asset-stream-manager/metrics"
)

// Target identifies the gamelet to make reachable. ProjectID and
// OrganizationID are optional.
type Target struct {
	InstanceID     string
	ProjectID      string
	OrganizationID string
}

// Endpoint is where the gamelet's ssh server can be reached. It is only
// meaningful when Provision returned a nil error.
type Endpoint struct {
	Host string
	Port uint16
}

// Provisioner makes a gamelet reachable over ssh.
type Provisioner interface {
	Provision(ctx context.Context, target Target) (Endpoint, error)
}

func observe(backend string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.ProvisioningDuration.WithLabelValues(backend, result).Observe(time.Since(start).Seconds())
}
