package heartbeat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/config"
	"courier/pkg/protocol"
)

func TestStart_DisabledIsNoOp(t *testing.T) {
	s := New(config.HeartbeatConfig{Enabled: false}, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.Nil(t, s.cron)
	s.Stop() // must not panic without a schedule
}

func TestStart_RequiresTarget(t *testing.T) {
	s := New(config.HeartbeatConfig{
		Enabled:  true,
		Schedule: "@hourly",
	}, nil)
	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "channel_id and user_id")
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s := New(config.HeartbeatConfig{
		Enabled:   true,
		Schedule:  "not a cron expression",
		ChannelID: "telegram",
		UserID:    "1",
	}, func(context.Context, *protocol.IncomingMessage) {})
	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "invalid heartbeat schedule")
}

func TestFire_BuildsSyntheticMessage(t *testing.T) {
	var got *protocol.IncomingMessage
	s := New(config.HeartbeatConfig{
		Enabled:    true,
		Schedule:   "@hourly",
		Prompt:     "Anything new?",
		ChannelID:  "telegram",
		UserID:     "42",
		SessionKey: "telegram_42",
	}, func(ctx context.Context, msg *protocol.IncomingMessage) { got = msg })

	s.fire(context.Background())

	require.NotNil(t, got)
	assert.Equal(t, "Anything new?", got.Text)
	assert.Equal(t, "telegram", got.ChannelID)
	assert.Equal(t, "42", got.UserID)
	assert.Equal(t, "telegram_42", got.SessionKey)
	assert.Equal(t, "true", got.Metadata["heartbeat"])
	assert.Equal(t, protocol.TypeIncomingMessage, got.Type)
}

func TestFire_DefaultPrompt(t *testing.T) {
	var got *protocol.IncomingMessage
	s := New(config.HeartbeatConfig{
		Enabled:   true,
		ChannelID: "telegram",
		UserID:    "42",
	}, func(ctx context.Context, msg *protocol.IncomingMessage) { got = msg })

	s.fire(context.Background())

	require.NotNil(t, got)
	assert.NotEmpty(t, got.Text)
}

func TestStartStop(t *testing.T) {
	s := New(config.HeartbeatConfig{
		Enabled:   true,
		Schedule:  "@every 1h",
		ChannelID: "telegram",
		UserID:    "1",
	}, func(context.Context, *protocol.IncomingMessage) {})

	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, s.cron)
	s.Stop()
}
