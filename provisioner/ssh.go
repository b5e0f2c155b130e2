package provisioner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"asset-stream-manager/apperrors"
	"asset-stream-manager/kvtext"
	"asset-stream-manager/process"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
)

// SSH provisions gamelets by running "ggp ssh init" and parsing the Host and
// Port lines it prints.
type SSH struct {
	toolPath string
	factory  process.Factory
}

func NewSSH(toolPath string, factory process.Factory) *SSH {
	return &SSH{toolPath: toolPath, factory: factory}
}

// Provision blocks until the ggp process exits. The process is not bound to
// ctx; it runs to completion once started.
func (p *SSH) Provision(ctx context.Context, target Target) (endpoint Endpoint, err error) {
	start := time.Now()
	defer func() { observe("ggp", start, err) }()

	var output outputBuffer
	proc := p.factory.Create(process.StartInfo{
		Name:               "ggp ssh init",
		Command:            p.commandLine(target),
		StdoutHandler:      output.Append,
		ForwardOutputToLog: true,
	})
	log.Debug().Str("instanceId", target.InstanceID).Msg("provisioner: running ggp ssh init")

	if err := proc.Start(); err != nil {
		return Endpoint{}, apperrors.Wrap(apperrors.CodeProvisioningStart, "failed to start ggp process", err)
	}
	if err := proc.RunUntilExit(); err != nil {
		return Endpoint{}, apperrors.Wrap(apperrors.CodeProvisioningRun, "failed to run ggp process", err)
	}
	if code := proc.ExitCode(); code != 0 {
		e := apperrors.New(apperrors.CodeProvisioningExit, fmt.Sprintf("ggp process exited with code %d", code))
		e.ExitCode = code
		return Endpoint{}, e
	}

	// RunUntilExit has returned, so no more chunks will be appended.
	out := output.String()
	host, ok := kvtext.Value(out, "Host")
	if !ok {
		return Endpoint{}, apperrors.WithOutput(apperrors.CodeProvisioningOutput, "failed to parse host from ggp ssh init response", out)
	}
	port, ok := parsePort(out)
	if !ok {
		return Endpoint{}, apperrors.WithOutput(apperrors.CodeProvisioningOutput, "failed to parse ssh port from ggp ssh init response", out)
	}
	log.Info().Str("instanceId", target.InstanceID).Str("host", host).Uint16("port", port).Msg("provisioner: gamelet reachable over ssh")
	return Endpoint{Host: host, Port: port}, nil
}

func (p *SSH) commandLine(target Target) string {
	args := []string{p.toolPath, "ssh", "init", "--instance", target.InstanceID}
	if target.ProjectID != "" {
		args = append(args, "--project", target.ProjectID)
	}
	if target.OrganizationID != "" {
		args = append(args, "--organization", target.OrganizationID)
	}
	return shellquote.Join(args...)
}

// parsePort reads "Port: <n>" with n in [1, 65535].
func parsePort(out string) (uint16, bool) {
	s, ok := kvtext.Value(out, "Port")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint16(n), true
}

// outputBuffer accumulates stdout appended from the process goroutine.
type outputBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (o *outputBuffer) Append(data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.b.Write(data)
	return nil
}

func (o *outputBuffer) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.b.String()
}
