package pubsub

import (
	"context"
	"encoding/json"

	"asset-stream-manager/metrics"
	"asset-stream-manager/queues"

	gpubsub "cloud.google.com/go/pubsub"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Publisher ships developer log events to a Pub/Sub topic.
type Publisher struct {
	projectID  string
	eventTopic string
	credsFile  string
	client     *gpubsub.Client
	topic      *gpubsub.Topic
}

func NewPublisher(projectID, eventTopic, credsFile string) *Publisher {
	return &Publisher{projectID: projectID, eventTopic: eventTopic, credsFile: credsFile}
}

func (p *Publisher) PublishEvent(ctx context.Context, typ metrics.EventType, evt metrics.DeveloperLogEvent) error {
	if p.client == nil {
		var (
			client *gpubsub.Client
			err    error
		)
		if p.credsFile != "" {
			log.Debug().Str("projectID", p.projectID).Str("topic", p.eventTopic).Str("credsFile", p.credsFile).Msg("initializing pubsub publisher with explicit credentials")
			client, err = gpubsub.NewClient(ctx, p.projectID, option.WithCredentialsFile(p.credsFile))
		} else {
			log.Debug().Str("projectID", p.projectID).Str("topic", p.eventTopic).Msg("initializing pubsub publisher with default credentials")
			client, err = gpubsub.NewClient(ctx, p.projectID)
		}
		if err != nil {
			log.Error().Err(err).Str("projectID", p.projectID).Str("topic", p.eventTopic).Msg("failed to create pubsub client for publisher")
			return err
		}
		p.client = client
		p.topic = client.Topic(p.eventTopic)
		log.Info().Str("topic", p.eventTopic).Msg("pubsub publisher initialized")
	}
	env := queues.EventEnvelope{
		EnvelopeVersion: "1.0",
		Type:            "developer-log-event",
		EventType:       typ,
		Event:           evt,
	}
	b, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("eventType", string(typ)).Msg("failed to marshal developer log event")
		return err
	}
	// Publish and wait for server ack
	r := p.topic.Publish(ctx, &gpubsub.Message{Data: b, Attributes: map[string]string{"eventType": string(typ)}})
	id, err := r.Get(ctx)
	if err != nil {
		log.Error().Err(err).Str("eventType", string(typ)).Msg("failed to publish developer log event")
		return err
	}
	log.Debug().Str("messageID", id).Str("eventType", string(typ)).Msg("published developer log event")
	return nil
}
