package controller

import (
	"context"
	"fmt"
	"time"

	"asset-stream-manager/api"
	"asset-stream-manager/apperrors"
	"asset-stream-manager/gamelet"
	"asset-stream-manager/metrics"
	"asset-stream-manager/provisioner"
	"asset-stream-manager/queues"
	"asset-stream-manager/session"

	"github.com/rs/zerolog/log"
)

// Controller implements the LocalAssetsStreamManager service. It resolves the
// gamelet, makes it reachable over ssh and hands the session to the session
// manager. Session state itself is owned by the session manager.
type Controller struct {
	api.UnimplementedLocalAssetsStreamManagerServer

	sessions    session.Manager
	provisioner provisioner.Provisioner
	metrics     metrics.Recorder
}

func NewController(sm session.Manager, p provisioner.Provisioner, rec metrics.Recorder) *Controller {
	return &Controller{sessions: sm, provisioner: p, metrics: rec}
}

func (c *Controller) StartSession(ctx context.Context, req *api.StartSessionRequest) (*api.StartSessionResponse, error) {
	if err := c.start(ctx, req); err != nil {
		return nil, apperrors.ToGRPCStatus(err)
	}
	return &api.StartSessionResponse{}, nil
}

// start serves a start request and returns the domain error, if any.
func (c *Controller) start(ctx context.Context, req *api.StartSessionRequest) error {
	start := time.Now()
	log.Info().Str("gameletName", req.GetGameletName()).Str("workstationDirectory", req.GetWorkstationDirectory()).Str("origin", req.GetOrigin().String()).Msg("controller: StartSession")

	evt := metrics.DeveloperLogEvent{
		SessionStart: &metrics.SessionStartData{
			StartStatus: metrics.StartStatusOK,
			Origin:      convertOrigin(req.GetOrigin()),
		},
	}
	container, instanceID, err := c.startSession(ctx, req, &evt)

	code := apperrors.CodeOf(err)
	evt.SessionStart.StatusCode = code.String()
	scope := routeStartEvent(container, instanceID, evt, c.metrics)
	metrics.SessionStartsTotal.WithLabelValues(code.String(), scope.String()).Inc()
	duration := time.Since(start)
	metrics.SessionStartDuration.Observe(duration.Seconds())

	if err != nil {
		log.Error().Err(err).Str("code", code.String()).Str("gameletName", req.GetGameletName()).Dur("duration", duration).Msg("controller: StartSession failed")
		return err
	}
	log.Info().Str("instanceId", instanceID).Str("scope", scope.String()).Dur("duration", duration).Msg("controller: StartSession succeeded")
	return nil
}

// startSession runs parse, provision and bring-up, stopping at the first
// failure. It fills the identity fields of evt as they become known.
func (c *Controller) startSession(ctx context.Context, req *api.StartSessionRequest, evt *metrics.DeveloperLogEvent) (session.Container, string, error) {
	name, err := gamelet.ParseName(req.GetGameletName())
	if err != nil {
		evt.SessionStart.StartStatus = metrics.StartStatusFailed
		return nil, "", apperrors.Wrap(apperrors.CodeMalformedResourceName, fmt.Sprintf("failed to parse instance name '%s'", req.GetGameletName()), err)
	}
	evt.ProjectID = name.ProjectID
	evt.OrganizationID = name.OrganizationID

	endpoint, err := c.provisioner.Provision(ctx, provisioner.Target{
		InstanceID:     name.InstanceID,
		ProjectID:      name.ProjectID,
		OrganizationID: name.OrganizationID,
	})
	if err != nil {
		evt.SessionStart.StartStatus = metrics.StartStatusFailed
		return nil, name.InstanceID, fmt.Errorf("init ssh for instance '%s': %w", name.InstanceID, err)
	}

	container, status, err := c.sessions.StartSession(ctx, session.StartRequest{
		InstanceID:           name.InstanceID,
		ProjectID:            name.ProjectID,
		OrganizationID:       name.OrganizationID,
		Host:                 endpoint.Host,
		Port:                 endpoint.Port,
		WorkstationDirectory: req.GetWorkstationDirectory(),
	})
	evt.SessionStart.StartStatus = status
	return container, name.InstanceID, err
}

func (c *Controller) StopSession(ctx context.Context, req *api.StopSessionRequest) (*api.StopSessionResponse, error) {
	if err := c.stop(ctx, req); err != nil {
		return nil, apperrors.ToGRPCStatus(err)
	}
	return &api.StopSessionResponse{}, nil
}

func (c *Controller) stop(ctx context.Context, req *api.StopSessionRequest) error {
	log.Info().Str("gameletId", req.GetGameletID()).Msg("controller: StopSession")

	err := c.sessions.StopSession(ctx, req.GetGameletID())
	code := apperrors.CodeOf(err)
	metrics.SessionStopsTotal.WithLabelValues(code.String()).Inc()
	if err != nil {
		log.Error().Err(err).Str("code", code.String()).Str("gameletId", req.GetGameletID()).Msg("controller: StopSession failed")
		return err
	}
	log.Info().Str("gameletId", req.GetGameletID()).Msg("controller: StopSession succeeded")
	return nil
}

// Handle serves a session request received from Pub/Sub. Unlike the RPC
// methods it returns the domain error unconverted.
func (c *Controller) Handle(ctx context.Context, req *queues.SessionRequest) error {
	switch req.Action {
	case queues.ActionStart:
		return c.start(ctx, &api.StartSessionRequest{
			GameletName:          req.GameletName,
			WorkstationDirectory: req.WorkstationDirectory,
			Origin:               api.Origin(req.Origin),
		})
	case queues.ActionStop:
		return c.stop(ctx, &api.StopSessionRequest{GameletID: req.GameletID})
	default:
		return fmt.Errorf("unknown session action '%s'", req.Action)
	}
}

func convertOrigin(origin api.Origin) metrics.RequestOrigin {
	switch origin {
	case api.OriginCLI:
		return metrics.OriginCLI
	case api.OriginPartnerPortal:
		return metrics.OriginPartnerPortal
	default:
		return metrics.OriginUnknown
	}
}
