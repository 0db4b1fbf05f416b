// Package broadcast publishes state slice updates to live subscribers.
package broadcast

import (
	"context"

	"github.com/centrifugal/gocent"
)

// Publisher delivers an encoded message to a named channel.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, channel string, data []byte) error
}

// CentrifugoConfig configures the Centrifugo HTTP API client.
type CentrifugoConfig struct {
	Addr string // HTTP API endpoint, e.g. http://localhost:8000/api
	Key  string // API key
}

// CentrifugoPublisher publishes through a Centrifugo server.
type CentrifugoPublisher struct {
	client *gocent.Client
}

// NewCentrifugoPublisher creates a publisher for the given server.
func NewCentrifugoPublisher(cfg CentrifugoConfig) *CentrifugoPublisher {
	return &CentrifugoPublisher{
		client: gocent.New(gocent.Config{
			Addr: cfg.Addr,
			Key:  cfg.Key,
		}),
	}
}

// Name implements Publisher.
func (p *CentrifugoPublisher) Name() string { return "centrifugo" }

// Publish implements Publisher.
func (p *CentrifugoPublisher) Publish(ctx context.Context, channel string, data []byte) error {
	return p.client.Publish(ctx, channel, data)
}
