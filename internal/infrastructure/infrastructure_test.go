package infrastructure

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jwalitptl/meditracker-api/internal/config"
	"github.com/jwalitptl/meditracker-api/pkg/messaging"
)

func TestOpenMemoryStorage(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverMemory}}

	s, err := OpenStorage(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, s.Memory)
	assert.NoError(t, s.Ping(context.Background()))

	roles, err := s.Repos.Roles.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, roles, 3)
	assert.NoError(t, s.Close())
}

func TestOpenStorageUnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}
	_, err := OpenStorage(cfg, zap.NewNop())
	assert.EqualError(t, err, `unsupported storage driver "sqlite"`)
}

func TestNewLogBroker(t *testing.T) {
	cfg := &config.Config{Messaging: config.MessagingConfig{Driver: config.MessagingDriverLog}}
	b, err := NewBroker(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &messaging.LogBroker{}, b)
}

func TestNewBrokerUnknownDriver(t *testing.T) {
	cfg := &config.Config{Messaging: config.MessagingConfig{Driver: "kafka"}}
	_, err := NewBroker(cfg, zerolog.Nop())
	assert.EqualError(t, err, `unsupported messaging driver "kafka"`)
}
