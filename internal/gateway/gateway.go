package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"courier/internal/agent"
	"courier/internal/ai"
	"courier/internal/sessions"
	"courier/pkg/protocol"
)

// historyLimit bounds how much conversation history is replayed per request.
const historyLimit = 20

// heartbeatOK is the ack the model returns when a scheduled check-in has
// nothing worth relaying. Such replies are swallowed instead of delivered.
const heartbeatOK = "HEARTBEAT_OK"

// Sender is the outbound side of the channel manager
type Sender interface {
	SendMessage(msg *protocol.OutgoingMessage) error
	SendTypingIndicator(adapterID, chatID string)
}

// Gateway routes incoming chat messages through the AI provider and sends
// replies back out. Reply chunking happens downstream in the channel
// manager, so the text handed to Sender may still contain markers.
type Gateway struct {
	store           *sessions.Store
	sender          Sender
	providers       map[string]ai.Provider
	defaultProvider string
	promptBuilder   *agent.PromptBuilder
}

// New creates a gateway
func New(store *sessions.Store, sender Sender, providers map[string]ai.Provider, defaultProvider string, pb *agent.PromptBuilder) *Gateway {
	return &Gateway{
		store:           store,
		sender:          sender,
		providers:       providers,
		defaultProvider: defaultProvider,
		promptBuilder:   pb,
	}
}

// Run consumes incoming messages until the context is cancelled
func (g *Gateway) Run(ctx context.Context, incoming <-chan *protocol.IncomingMessage) {
	log.Printf("[Gateway] Processing messages")
	for {
		select {
		case msg, ok := <-incoming:
			if !ok {
				return
			}
			go g.handleMessage(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

// handleMessage processes a single incoming message end to end
func (g *Gateway) handleMessage(ctx context.Context, msg *protocol.IncomingMessage) {
	if strings.HasPrefix(msg.Text, "/") {
		g.handleCommand(msg)
		return
	}

	g.sender.SendTypingIndicator(msg.ChannelID, msg.UserID)

	session, err := g.store.GetOrCreateSession(msg.UserID, msg.ChannelID)
	if err != nil {
		log.Printf("[Gateway] Failed to get session: %v", err)
		return
	}

	if err := g.store.AddMessage(session.Key, "user", msg.Text); err != nil {
		log.Printf("[Gateway] Failed to store user message: %v", err)
	}

	reply, err := g.generateReply(ctx, session, msg.Text)
	if err != nil {
		log.Printf("[Gateway] Generation failed for session %s: %v", session.Key, err)
		g.reply(msg, "Sorry, something went wrong on my end. Try again in a moment?")
		return
	}

	if err := g.store.AddMessage(session.Key, "assistant", reply); err != nil {
		log.Printf("[Gateway] Failed to store assistant message: %v", err)
	}

	if msg.Metadata["heartbeat"] == "true" && strings.Contains(reply, heartbeatOK) {
		log.Printf("[Gateway] Heartbeat acknowledged, nothing to deliver")
		return
	}

	g.reply(msg, reply)
}

// HandleIncoming processes a message injected from outside a channel
// adapter, such as a scheduled heartbeat.
func (g *Gateway) HandleIncoming(ctx context.Context, msg *protocol.IncomingMessage) {
	g.handleMessage(ctx, msg)
}

// generateReply builds the prompt plus history and calls the provider
func (g *Gateway) generateReply(ctx context.Context, session *sessions.Session, userText string) (string, error) {
	provider, ok := g.providers[g.defaultProvider]
	if !ok {
		return "", fmt.Errorf("provider %q not configured", g.defaultProvider)
	}

	history, err := g.store.GetRecentMessages(session.Key, historyLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}

	messages := make([]ai.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		messages = append(messages, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}
	// History already includes the just-stored user message; append only if
	// the store write failed and left it out.
	if len(messages) == 0 || messages[len(messages)-1].Content != userText {
		messages = append(messages, ai.ChatMessage{Role: "user", Content: userText})
	}

	resp, err := provider.GenerateResponse(ctx, &ai.GenerateRequest{
		System:   g.promptBuilder.Build(session),
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// handleCommand answers slash commands locally, without the provider
func (g *Gateway) handleCommand(msg *protocol.IncomingMessage) {
	cmd := strings.Fields(msg.Text)[0]

	switch cmd {
	case "/reset":
		session, err := g.store.GetOrCreateSession(msg.UserID, msg.ChannelID)
		if err == nil {
			err = g.store.ClearSession(session.Key)
		}
		if err != nil {
			log.Printf("[Gateway] Reset failed: %v", err)
			g.reply(msg, "Couldn't reset the conversation.")
			return
		}
		g.reply(msg, "Conversation cleared. Starting fresh!")

	case "/help":
		g.reply(msg, "Commands:\n/reset - clear conversation history\n/help - show this message")

	default:
		g.reply(msg, fmt.Sprintf("Unknown command %s. Try /help.", cmd))
	}
}

// reply sends text back to the message's origin
func (g *Gateway) reply(msg *protocol.IncomingMessage, text string) {
	out := &protocol.OutgoingMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeOutgoingMessage,
			ID:        uuid.New().String(),
			Timestamp: time.Now(),
		},
		ChannelID:  msg.ChannelID,
		SessionKey: msg.SessionKey,
		UserID:     msg.UserID,
		Metadata:   map[string]string{"source_message_id": msg.Metadata["message_id"]},
		Text:       text,
	}
	if err := g.sender.SendMessage(out); err != nil {
		log.Printf("[Gateway] Failed to send reply: %v", err)
	}
}
