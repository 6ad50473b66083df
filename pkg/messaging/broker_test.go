package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBrokerPublish(t *testing.T) {
	var buf bytes.Buffer
	b := NewLogBroker(zerolog.New(&buf))

	err := b.Publish(context.Background(), "meditracker.prescription.created", map[string]int64{"prescription_id": 4})
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "meditracker.prescription.created", line["channel"])
	assert.Equal(t, "log-broker", line["component"])
	assert.Equal(t, map[string]interface{}{"prescription_id": float64(4)}, line["message"])
	assert.NoError(t, b.Close())
}

func TestLogBrokerRejectsUnencodable(t *testing.T) {
	b := NewLogBroker(zerolog.Nop())
	err := b.Publish(context.Background(), "x", make(chan int))
	assert.Error(t, err)
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", time.Minute)
	boom := errors.New("broker down")

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (interface{}, error) { return nil, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
