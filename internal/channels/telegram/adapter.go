package telegram

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"courier/internal/channels"
	"courier/pkg/protocol"
)

// Regex patterns for Telegram markdown conversion
var (
	// Headers: # Header -> *Header* (bold with single asterisk)
	headerRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	// Standard **bold** -> *bold* (Telegram uses single asterisk)
	doubleBoldRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	// Links [text](url) -> text (url) - Telegram markdown doesn't support links
	linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// botAPI abstracts the Telegram bot methods used by the adapter, enabling testing with mocks.
type botAPI interface {
	Start(ctx context.Context)
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
	GetMe(ctx context.Context) (*models.User, error)
}

// Adapter implements the ChannelAdapter interface for Telegram
type Adapter struct {
	id        string
	name      string
	bot       botAPI
	config    TelegramConfig
	status    channels.StatusCode
	statusMsg string
	incoming  chan *protocol.IncomingMessage
	ctx       context.Context
	cancel    context.CancelFunc
	mutex     sync.RWMutex
	startTime time.Time
	msgCount  int64
}

// TelegramConfig contains Telegram-specific configuration
type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	Debug    bool   `json:"debug"`
}

// Factory creates Telegram channel adapters
type Factory struct{}

// NewFactory creates a new Telegram adapter factory
func NewFactory() *Factory {
	return &Factory{}
}

// SupportsType returns whether this factory supports the given adapter type
func (f *Factory) SupportsType(adapterType string) bool {
	return adapterType == "telegram"
}

// GetSupportedTypes returns the adapter types this factory supports
func (f *Factory) GetSupportedTypes() []string {
	return []string{"telegram"}
}

// CreateAdapter creates a new Telegram adapter instance
func (f *Factory) CreateAdapter(config channels.ChannelConfig) (channels.ChannelAdapter, error) {
	telegramConfig := TelegramConfig{}

	if token, ok := config.Config["bot_token"].(string); ok {
		telegramConfig.BotToken = token
	} else {
		return nil, fmt.Errorf("bot_token is required for Telegram adapter")
	}

	if debug, ok := config.Config["debug"].(bool); ok {
		telegramConfig.Debug = debug
	}

	return &Adapter{
		id:       config.ID,
		name:     config.Name,
		config:   telegramConfig,
		status:   channels.StatusInitializing,
		incoming: make(chan *protocol.IncomingMessage, 100),
	}, nil
}

// ID returns the adapter's unique identifier
func (a *Adapter) ID() string {
	return a.id
}

// Name returns the adapter's human-readable name
func (a *Adapter) Name() string {
	return a.name
}

// Type returns the adapter type
func (a *Adapter) Type() string {
	return "telegram"
}

// Start initializes and starts the Telegram bot in polling mode
func (a *Adapter) Start(ctx context.Context) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.ctx, a.cancel = context.WithCancel(ctx)
	a.status = channels.StatusInitializing
	a.statusMsg = "Starting Telegram bot"
	a.startTime = time.Now()

	opts := []bot.Option{
		bot.WithDefaultHandler(a.handleUpdate),
	}
	if a.config.Debug {
		opts = append(opts, bot.WithDebug())
	}

	telegramBot, err := bot.New(a.config.BotToken, opts...)
	if err != nil {
		a.status = channels.StatusError
		a.statusMsg = fmt.Sprintf("Failed to create bot: %v", err)
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	a.bot = telegramBot

	go func() {
		defer func() {
			a.mutex.Lock()
			a.status = channels.StatusOffline
			a.statusMsg = "Bot stopped"
			a.mutex.Unlock()
		}()

		a.mutex.Lock()
		a.status = channels.StatusOnline
		a.statusMsg = "Bot is running"
		a.mutex.Unlock()

		log.Printf("[Telegram] Bot started: %s", a.Name())
		a.bot.Start(a.ctx)
	}()

	return nil
}

// Stop gracefully shuts down the adapter
func (a *Adapter) Stop() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.cancel != nil {
		a.cancel()
	}

	a.status = channels.StatusOffline
	a.statusMsg = "Adapter stopped"

	close(a.incoming)

	log.Printf("[Telegram] Adapter stopped: %s", a.Name())
	return nil
}

// convertToTelegramMarkdown converts standard markdown to Telegram's limited subset
// Telegram: *bold/italic* (single asterisk), `code`, ```code blocks```
func convertToTelegramMarkdown(text string) string {
	result := doubleBoldRe.ReplaceAllString(text, "*$1*")
	result = headerRe.ReplaceAllString(result, "*$1*")
	result = linkRe.ReplaceAllString(result, "$1 ($2)")
	return strings.TrimSpace(result)
}

// SendMessage sends an outgoing message through Telegram
func (a *Adapter) SendMessage(msg *protocol.OutgoingMessage) error {
	if a.bot == nil {
		return fmt.Errorf("bot not initialized")
	}

	chatID, err := strconv.ParseInt(msg.UserID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %s", msg.UserID)
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      convertToTelegramMarkdown(msg.Text),
		ParseMode: models.ParseModeMarkdownV1,
	}

	// Handle parse mode override from metadata
	if parseMode, ok := msg.Metadata["parse_mode"]; ok {
		params.ParseMode = models.ParseMode(parseMode)
	}

	_, err = a.bot.SendMessage(a.ctx, params)
	if err != nil {
		// If markdown parsing fails, retry without formatting
		if strings.Contains(err.Error(), "can't parse entities") {
			log.Printf("[Telegram] Markdown parsing failed, retrying as plain text: %v", err)
			params.ParseMode = ""
			params.Text = msg.Text
			if _, err = a.bot.SendMessage(a.ctx, params); err != nil {
				return fmt.Errorf("failed to send message (plain text fallback): %w", err)
			}
		} else {
			return fmt.Errorf("failed to send message: %w", err)
		}
	}

	// Privacy-safe logging - no message content
	log.Printf("[Telegram] Message sent to chat (%d chars)", len(msg.Text))

	a.mutex.Lock()
	a.msgCount++
	a.mutex.Unlock()

	return nil
}

// SendTypingIndicator sends a "typing" chat action to show the bot is thinking
func (a *Adapter) SendTypingIndicator(chatID string) error {
	if a.bot == nil {
		return fmt.Errorf("bot not initialized")
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	_, err = a.bot.SendChatAction(a.ctx, &bot.SendChatActionParams{
		ChatID: chatIDInt,
		Action: models.ChatActionTyping,
	})
	return err
}

// ReceiveMessages returns the channel for incoming messages
func (a *Adapter) ReceiveMessages() <-chan *protocol.IncomingMessage {
	return a.incoming
}

// Status returns the current adapter status
func (a *Adapter) Status() channels.ChannelStatus {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	details := map[string]interface{}{
		"uptime_seconds": time.Since(a.startTime).Seconds(),
		"message_count":  a.msgCount,
	}

	if a.bot != nil {
		if me, err := a.bot.GetMe(context.Background()); err == nil {
			details["bot_id"] = me.ID
			details["bot_username"] = me.Username
		}
	}

	return channels.ChannelStatus{
		Status:    a.status,
		Message:   a.statusMsg,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// IsHealthy returns whether the adapter is functioning properly
func (a *Adapter) IsHealthy() bool {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return a.status == channels.StatusOnline && a.bot != nil
}

// handleUpdate processes incoming Telegram updates
func (a *Adapter) handleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	incomingMsg := &protocol.IncomingMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeIncomingMessage,
			ID:        a.generateMessageID(),
			Timestamp: time.Now(),
		},
		ChannelID:  a.id,
		SessionKey: fmt.Sprintf("telegram_%d", update.Message.Chat.ID),
		UserID:     strconv.FormatInt(update.Message.Chat.ID, 10),
		Text:       update.Message.Text,
		Metadata: map[string]string{
			"message_id": strconv.Itoa(update.Message.ID),
			"chat_type":  string(update.Message.Chat.Type),
		},
	}

	select {
	case a.incoming <- incomingMsg:
		a.mutex.Lock()
		a.msgCount++
		a.mutex.Unlock()

		// Privacy-safe logging - no message content or user names
		log.Printf("[Telegram] Received message from chat %d (%d chars)",
			update.Message.Chat.ID, len(update.Message.Text))
	default:
		log.Printf("[Telegram] Warning: incoming message channel is full, dropping message")
	}
}

// generateMessageID creates a unique message ID
func (a *Adapter) generateMessageID() string {
	return fmt.Sprintf("telegram_%s_%s", a.id, uuid.New().String()[:8])
}
