package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureBackend struct {
	channel string
	data    []byte
	attrs   map[string]string
	err     error
	closed  bool
}

func (c *captureBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.channel = channel
	c.data = data
	c.attrs = attrs
	return "msg-1", nil
}

func (c *captureBackend) Close() error {
	c.closed = true
	return nil
}

func TestPublisher_AccountCreated(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{}
	publisher := NewPublisher(backend)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id, err := publisher.AccountCreated(context.Background(), AccountCreated{
		ID:        7,
		Username:  "alice_1",
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, AccountCreatedChannel, backend.channel)
	assert.Equal(t, AccountCreatedChannel, backend.attrs["event"])

	var decoded AccountCreated
	require.NoError(t, json.Unmarshal(backend.data, &decoded))
	assert.Equal(t, 7, decoded.ID)
	assert.Equal(t, "alice_1", decoded.Username)
	assert.True(t, decoded.CreatedAt.Equal(created))

	require.NoError(t, publisher.Close())
	assert.True(t, backend.closed)
}

func TestPublisher_BackendFailure(t *testing.T) {
	t.Parallel()

	backendErr := errors.New("broker down")
	publisher := NewPublisher(&captureBackend{err: backendErr})

	_, err := publisher.AccountCreated(context.Background(), AccountCreated{ID: 1, Username: "u"})
	assert.ErrorIs(t, err, backendErr)
}

func TestNoopBackend(t *testing.T) {
	t.Parallel()

	publisher := NewPublisher(NoopBackend{})
	id, err := publisher.AccountCreated(context.Background(), AccountCreated{ID: 1, Username: "u"})
	require.NoError(t, err)
	assert.Empty(t, id)
	require.NoError(t, publisher.Close())
}
