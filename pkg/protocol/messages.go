package protocol

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of protocol message
type MessageType string

const (
	// Incoming message types (from channels to the relay)
	TypeIncomingMessage MessageType = "incoming_message"
	TypeChannelStatus   MessageType = "channel_status"

	// Outgoing message types (from the relay to channels)
	TypeOutgoingMessage MessageType = "outgoing_message"
	TypeChannelCommand  MessageType = "channel_command"
)

// BaseMessage contains common fields for all protocol messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
}

// IncomingMessage represents a message received from a channel
type IncomingMessage struct {
	BaseMessage
	ChannelID  string            `json:"channel_id"`
	SessionKey string            `json:"session_key"`
	UserID     string            `json:"user_id"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// OutgoingMessage represents a message to be sent through a channel.
// One assistant reply may fan out into several OutgoingMessages when
// chunking is active; everything except Text is carried over unchanged.
type OutgoingMessage struct {
	BaseMessage
	ChannelID  string            `json:"channel_id"`
	SessionKey string            `json:"session_key"`
	UserID     string            `json:"user_id"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Clone returns a copy of the message with the given text. The metadata map
// is copied so siblings from one fan-out never share mutable state.
func (m *OutgoingMessage) Clone(text string) *OutgoingMessage {
	clone := *m
	clone.Text = text
	if m.Metadata != nil {
		clone.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// ChannelStatus represents status information from a channel adapter
type ChannelStatus struct {
	BaseMessage
	ChannelID string                 `json:"channel_id"`
	Status    string                 `json:"status"` // "online", "offline", "error"
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ChannelCommand represents a command sent to a channel adapter
type ChannelCommand struct {
	BaseMessage
	ChannelID string                 `json:"channel_id"`
	Command   string                 `json:"command"`
	Args      map[string]interface{} `json:"args,omitempty"`
}

// ParseMessage parses a JSON message into the appropriate struct
func ParseMessage(data []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	switch base.Type {
	case TypeIncomingMessage:
		var msg IncomingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case TypeOutgoingMessage:
		var msg OutgoingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case TypeChannelStatus:
		var msg ChannelStatus
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return &msg, nil

	case TypeChannelCommand:
		var msg ChannelCommand
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, err
		}
		return &msg, nil

	default:
		return &base, nil
	}
}
