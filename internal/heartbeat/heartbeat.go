package heartbeat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"courier/internal/config"
	"courier/pkg/protocol"
)

// HandlerFunc receives the synthetic check-in message on each tick
type HandlerFunc func(ctx context.Context, msg *protocol.IncomingMessage)

// Service fires scheduled check-in prompts into the message pipeline.
// Each tick is handled like a regular incoming message, so the reply
// takes the normal generation and delivery path.
type Service struct {
	cfg     config.HeartbeatConfig
	handler HandlerFunc
	cron    *cron.Cron
}

// New creates a heartbeat service
func New(cfg config.HeartbeatConfig, handler HandlerFunc) *Service {
	return &Service{cfg: cfg, handler: handler}
}

// Start schedules the heartbeat. A disabled config is a no-op.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}
	if s.cfg.ChannelID == "" || s.cfg.UserID == "" {
		return fmt.Errorf("heartbeat requires channel_id and user_id")
	}

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.fire(ctx) }); err != nil {
		return fmt.Errorf("invalid heartbeat schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	s.cron = c

	log.Printf("[Heartbeat] Scheduled with %q", s.cfg.Schedule)
	return nil
}

// Stop cancels the schedule and waits for a running tick to finish
func (s *Service) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Printf("[Heartbeat] Stopped")
}

// fire builds the synthetic check-in message and hands it to the pipeline
func (s *Service) fire(ctx context.Context) {
	prompt := s.cfg.Prompt
	if prompt == "" {
		prompt = "Scheduled check-in. Anything the user should know right now?"
	}

	msg := &protocol.IncomingMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeIncomingMessage,
			ID:        fmt.Sprintf("heartbeat_%s", uuid.New().String()[:8]),
			Timestamp: time.Now(),
		},
		ChannelID:  s.cfg.ChannelID,
		SessionKey: s.cfg.SessionKey,
		UserID:     s.cfg.UserID,
		Text:       prompt,
		Metadata:   map[string]string{"heartbeat": "true"},
	}

	log.Printf("[Heartbeat] Tick for channel %s", s.cfg.ChannelID)
	s.handler(ctx, msg)
}
