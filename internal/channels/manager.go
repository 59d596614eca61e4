package channels

import (
	"context"
	"fmt"
	"log"
	"sync"

	"courier/internal/chunker"
	"courier/pkg/protocol"
)

// Manager manages all channel adapters and routes messages between them
// and the relay core. Outbound messages pass through the chunk splitter
// before dispatch: one assistant reply becomes one delivered message per
// chunk, with marker tokens removed.
type Manager struct {
	adapters     map[string]ChannelAdapter
	factories    map[string]ChannelFactory
	incoming     chan *protocol.IncomingMessage
	outgoing     chan *protocol.OutgoingMessage
	chunking     *chunker.Config
	ctx          context.Context
	cancel       context.CancelFunc
	mutex        sync.RWMutex
	messageStats map[string]int64
}

// NewManager creates a new channel manager. chunking may be nil, which
// disables reply chunking entirely.
func NewManager(chunking *chunker.Config) *Manager {
	return &Manager{
		adapters:     make(map[string]ChannelAdapter),
		factories:    make(map[string]ChannelFactory),
		incoming:     make(chan *protocol.IncomingMessage, 1000),
		outgoing:     make(chan *protocol.OutgoingMessage, 1000),
		chunking:     chunking,
		messageStats: make(map[string]int64),
	}
}

// RegisterFactory registers a channel adapter factory
func (m *Manager) RegisterFactory(factory ChannelFactory) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, adapterType := range factory.GetSupportedTypes() {
		m.factories[adapterType] = factory
		log.Printf("[ChannelManager] Registered factory for type: %s", adapterType)
	}
}

// Start initializes and starts the channel manager
func (m *Manager) Start(ctx context.Context, configs []ChannelConfig) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	for _, config := range configs {
		if !config.Enabled {
			log.Printf("[ChannelManager] Skipping disabled adapter: %s", config.ID)
			continue
		}

		if err := m.CreateAdapter(config); err != nil {
			log.Printf("[ChannelManager] Failed to create adapter %s: %v", config.ID, err)
			continue
		}
	}

	go m.routeMessages()

	log.Printf("[ChannelManager] Started with %d adapters", len(m.adapters))
	return nil
}

// Stop gracefully shuts down all adapters
func (m *Manager) Stop() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.cancel != nil {
		m.cancel()
	}

	for id, adapter := range m.adapters {
		if err := adapter.Stop(); err != nil {
			log.Printf("[ChannelManager] Error stopping adapter %s: %v", id, err)
		}
	}

	close(m.incoming)
	close(m.outgoing)

	log.Printf("[ChannelManager] Stopped")
	return nil
}

// CreateAdapter creates and starts a new adapter
func (m *Manager) CreateAdapter(config ChannelConfig) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	factory, exists := m.factories[config.Type]
	if !exists {
		return fmt.Errorf("no factory found for adapter type: %s", config.Type)
	}

	adapter, err := factory.CreateAdapter(config)
	if err != nil {
		return fmt.Errorf("failed to create adapter: %w", err)
	}

	if err := adapter.Start(m.ctx); err != nil {
		return fmt.Errorf("failed to start adapter: %w", err)
	}

	m.adapters[config.ID] = adapter
	m.messageStats[config.ID] = 0

	go m.forwardMessages(adapter)

	log.Printf("[ChannelManager] Created and started adapter: %s (%s)", config.ID, config.Type)
	return nil
}

// SendMessage queues a message for delivery through its channel
func (m *Manager) SendMessage(msg *protocol.OutgoingMessage) error {
	select {
	case m.outgoing <- msg:
		return nil
	case <-m.ctx.Done():
		return fmt.Errorf("channel manager is shutting down")
	default:
		return fmt.Errorf("outgoing message queue is full")
	}
}

// ReceiveMessages returns the channel for incoming messages
func (m *Manager) ReceiveMessages() <-chan *protocol.IncomingMessage {
	return m.incoming
}

// GetAdapter returns a specific adapter by ID
func (m *Manager) GetAdapter(id string) (ChannelAdapter, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	adapter, exists := m.adapters[id]
	return adapter, exists
}

// SendTypingIndicator sends a typing indicator if the adapter supports it
func (m *Manager) SendTypingIndicator(adapterID, chatID string) {
	m.mutex.RLock()
	adapter, exists := m.adapters[adapterID]
	m.mutex.RUnlock()

	if !exists {
		return
	}

	if ti, ok := adapter.(TypingIndicator); ok {
		if err := ti.SendTypingIndicator(chatID); err != nil {
			log.Printf("[ChannelManager] Failed to send typing indicator: %v", err)
		}
	}
}

// GetStatus returns the status of all adapters
func (m *Manager) GetStatus() map[string]ChannelStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make(map[string]ChannelStatus)
	for id, adapter := range m.adapters {
		status := adapter.Status()
		result[id] = status
	}
	return result
}

// GetMessageStats returns message statistics for all adapters
func (m *Manager) GetMessageStats() map[string]int64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make(map[string]int64)
	for id, count := range m.messageStats {
		result[id] = count
	}
	return result
}

// forwardMessages forwards incoming messages from an adapter to the main channel
func (m *Manager) forwardMessages(adapter ChannelAdapter) {
	for {
		select {
		case msg, ok := <-adapter.ReceiveMessages():
			if !ok {
				log.Printf("[ChannelManager] Adapter %s message channel closed", adapter.ID())
				return
			}

			select {
			case m.incoming <- msg:
				m.mutex.Lock()
				m.messageStats[adapter.ID()]++
				m.mutex.Unlock()
			case <-m.ctx.Done():
				return
			default:
				log.Printf("[ChannelManager] Warning: incoming message queue is full, dropping message from %s", adapter.ID())
			}

		case <-m.ctx.Done():
			return
		}
	}
}

// expandChunks fans one outgoing message out into one message per chunk.
// With chunking disabled (or no markers present) the original message is
// returned alone, text untouched.
func (m *Manager) expandChunks(msg *protocol.OutgoingMessage) []*protocol.OutgoingMessage {
	markers := chunker.Resolve(m.chunking)
	chunks := chunker.Split(msg.Text, markers, m.chunking.MinSize())

	if len(chunks) == 1 {
		msg.Text = chunks[0]
		return []*protocol.OutgoingMessage{msg}
	}

	out := make([]*protocol.OutgoingMessage, 0, len(chunks))
	for _, chunk := range chunks {
		out = append(out, msg.Clone(chunk))
	}
	return out
}

// routeMessages handles outgoing message routing to appropriate adapters
func (m *Manager) routeMessages() {
	for {
		select {
		case msg, ok := <-m.outgoing:
			if !ok {
				return
			}

			m.mutex.RLock()
			adapter, exists := m.adapters[msg.ChannelID]
			m.mutex.RUnlock()

			if !exists {
				log.Printf("[ChannelManager] Warning: no adapter found for channel %s", msg.ChannelID)
				continue
			}

			parts := m.expandChunks(msg)
			if len(parts) > 1 {
				log.Printf("[ChannelManager] Splitting reply into %d messages for channel %s", len(parts), msg.ChannelID)
			}
			for _, part := range parts {
				if err := adapter.SendMessage(part); err != nil {
					log.Printf("[ChannelManager] Error sending message via %s: %v", msg.ChannelID, err)
				}
			}

		case <-m.ctx.Done():
			return
		}
	}
}
