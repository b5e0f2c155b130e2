package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"asset-stream-manager/apperrors"
	"asset-stream-manager/queues"

	gpubsub "cloud.google.com/go/pubsub"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Subscriber receives session requests from a Pub/Sub subscription.
type Subscriber struct {
	projectID        string
	subscriptionName string
	credsFile        string
	client           *gpubsub.Client
	sub              *gpubsub.Subscription
}

func NewSubscriber(projectID, subscriptionName, credsFile string) *Subscriber {
	return &Subscriber{projectID: projectID, subscriptionName: subscriptionName, credsFile: credsFile}
}

func (s *Subscriber) Start(ctx context.Context, handler func(context.Context, *queues.SessionRequest) error) error {
	if s.client == nil {
		var (
			client *gpubsub.Client
			err    error
		)
		if s.credsFile != "" {
			log.Debug().Str("projectID", s.projectID).Str("subscription", s.subscriptionName).Str("credsFile", s.credsFile).Msg("initializing pubsub subscriber with explicit credentials")
			client, err = gpubsub.NewClient(ctx, s.projectID, option.WithCredentialsFile(s.credsFile))
		} else {
			log.Debug().Str("projectID", s.projectID).Str("subscription", s.subscriptionName).Msg("initializing pubsub subscriber with default credentials")
			client, err = gpubsub.NewClient(ctx, s.projectID)
		}
		if err != nil {
			log.Error().Err(err).Str("projectID", s.projectID).Str("subscription", s.subscriptionName).Msg("failed to create pubsub client for subscriber")
			return err
		}
		s.client = client
		s.sub = client.Subscription(s.subscriptionName)
		log.Info().Str("subscription", s.subscriptionName).Msg("pubsub subscriber initialized")
	}

	// Receive blocks; it will create goroutines internally; respect ctx cancellation
	return s.sub.Receive(ctx, func(ctx context.Context, m *gpubsub.Message) {
		log.Debug().Str("messageID", m.ID).Int("size", len(m.Data)).Msg("received pubsub message")
		recvAt := time.Now()
		var req queues.SessionRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			log.Error().Err(err).Msg("failed to unmarshal session request")
			m.Nack()
			return
		}
		if err := req.Validate(); err != nil {
			log.Error().Err(err).Str("requestId", req.RequestID).Msg("invalid request payload")
			// Ack to drop bad message (poison)
			m.Ack()
			return
		}

		log.Info().Str("requestId", req.RequestID).Str("action", string(req.Action)).Msg("handling session request")
		if err := handler(ctx, &req); err != nil {
			if permanent(err) {
				log.Error().Err(err).Str("requestId", req.RequestID).Msg("handler failed permanently; dropping request")
				m.Ack()
				return
			}
			log.Error().Err(err).Str("requestId", req.RequestID).Msg("handler failed; will retry")
			m.Nack()
			return
		}
		log.Debug().Str("requestId", req.RequestID).Dur("latency", time.Since(recvAt)).Msg("handler succeeded; acking message")
		m.Ack()
	})
}

// permanent reports whether retrying the request cannot succeed. Provisioning
// output that could not be parsed is deterministic and is not retried.
func permanent(err error) bool {
	var e *apperrors.Error
	if errors.As(err, &e) {
		switch e.Code {
		case apperrors.CodeMalformedResourceName, apperrors.CodeInvalidDirectory, apperrors.CodeSessionNotFound, apperrors.CodeProvisioningOutput:
			return true
		}
		return false
	}
	switch status.Code(err) {
	case codes.InvalidArgument, codes.NotFound:
		return true
	}
	return false
}
