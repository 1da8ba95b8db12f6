// Package events publishes account lifecycle notifications to a message
// broker. Publishing is best-effort: the identity flow never fails
// because a broker is down.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Channel names.
const (
	AccountCreatedChannel = "account.created"
)

// AccountCreated is the payload published after a successful
// registration. It carries the public projection only, never the hash.
type AccountCreated struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Backend defines the broker-agnostic operations used by the publisher.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher wraps a backend with typed publish helpers.
type Publisher struct {
	backend Backend
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// AccountCreated publishes an account-created event and returns the
// broker-assigned message id.
func (p *Publisher) AccountCreated(ctx context.Context, event AccountCreated) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	return p.backend.Publish(ctx, AccountCreatedChannel, data, map[string]string{
		"event": AccountCreatedChannel,
	})
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}

// NoopBackend discards every event. Used when no broker is configured.
type NoopBackend struct{}

func (NoopBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return "", nil
}

func (NoopBackend) Close() error {
	return nil
}
