package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClone(t *testing.T) {
	original := &OutgoingMessage{
		BaseMessage: BaseMessage{Type: TypeOutgoingMessage, ID: "msg-1"},
		ChannelID:   "telegram",
		SessionKey:  "telegram_1",
		UserID:      "1",
		Text:        "full reply",
		Metadata:    map[string]string{"parse_mode": "Markdown"},
	}

	clone := original.Clone("chunk one")

	assert.Equal(t, "chunk one", clone.Text)
	assert.Equal(t, "full reply", original.Text)
	assert.Equal(t, original.ChannelID, clone.ChannelID)
	assert.Equal(t, original.SessionKey, clone.SessionKey)
	assert.Equal(t, original.ID, clone.ID)

	// Metadata is copied, not shared.
	clone.Metadata["parse_mode"] = "HTML"
	assert.Equal(t, "Markdown", original.Metadata["parse_mode"])
}

func TestClone_NilMetadata(t *testing.T) {
	original := &OutgoingMessage{Text: "x"}
	clone := original.Clone("y")
	assert.Nil(t, clone.Metadata)
}

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		data string
		want interface{}
	}{
		{"incoming", `{"type":"incoming_message","id":"1","text":"hi"}`, &IncomingMessage{}},
		{"outgoing", `{"type":"outgoing_message","id":"2","text":"yo"}`, &OutgoingMessage{}},
		{"status", `{"type":"channel_status","id":"3","status":"online"}`, &ChannelStatus{}},
		{"command", `{"type":"channel_command","id":"4","command":"restart"}`, &ChannelCommand{}},
		{"unknown", `{"type":"mystery","id":"5"}`, &BaseMessage{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseMessage([]byte(tt.data))
			require.NoError(t, err)
			assert.IsType(t, tt.want, msg)
		})
	}
}

func TestParseMessage_InvalidJSON(t *testing.T) {
	_, err := ParseMessage([]byte("{not json"))
	assert.Error(t, err)
}
