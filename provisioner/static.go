package provisioner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Static returns a fixed endpoint for every gamelet. It is meant for
// development against a known instance address.
type Static struct {
	endpoint Endpoint
}

// NewStatic fails unless host is set and port is in [1, 65535].
func NewStatic(host string, port int) (*Static, error) {
	if host == "" {
		return nil, errors.New("static endpoint requires a host")
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("static endpoint port %d out of range [1, 65535]", port)
	}
	return &Static{endpoint: Endpoint{Host: host, Port: uint16(port)}}, nil
}

func (s *Static) Provision(ctx context.Context, target Target) (Endpoint, error) {
	observe("static", time.Now(), nil)
	log.Debug().Str("instanceId", target.InstanceID).Str("host", s.endpoint.Host).Uint16("port", s.endpoint.Port).Msg("provisioner: using static endpoint")
	return s.endpoint, nil
}
