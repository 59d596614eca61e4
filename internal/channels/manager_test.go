package channels

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courier/internal/chunker"
	"courier/pkg/protocol"
)

// fakeAdapter records sent messages for assertions
type fakeAdapter struct {
	id       string
	incoming chan *protocol.IncomingMessage
	mu       sync.Mutex
	sent     []*protocol.OutgoingMessage
}

func newFakeAdapter(id string) *fakeAdapter {
	return &fakeAdapter{id: id, incoming: make(chan *protocol.IncomingMessage, 10)}
}

func (f *fakeAdapter) ID() string                      { return f.id }
func (f *fakeAdapter) Name() string                    { return f.id }
func (f *fakeAdapter) Type() string                    { return "fake" }
func (f *fakeAdapter) Start(ctx context.Context) error { return nil }
func (f *fakeAdapter) Stop() error                     { close(f.incoming); return nil }
func (f *fakeAdapter) IsHealthy() bool                 { return true }
func (f *fakeAdapter) Status() ChannelStatus {
	return ChannelStatus{Status: StatusOnline, Timestamp: time.Now()}
}
func (f *fakeAdapter) ReceiveMessages() <-chan *protocol.IncomingMessage { return f.incoming }
func (f *fakeAdapter) SendMessage(msg *protocol.OutgoingMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}
func (f *fakeAdapter) sentMessages() []*protocol.OutgoingMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*protocol.OutgoingMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakeFactory creates a fixed adapter
type fakeFactory struct{ adapter *fakeAdapter }

func (f *fakeFactory) SupportsType(t string) bool  { return t == "fake" }
func (f *fakeFactory) GetSupportedTypes() []string { return []string{"fake"} }
func (f *fakeFactory) CreateAdapter(config ChannelConfig) (ChannelAdapter, error) {
	return f.adapter, nil
}

func TestExpandChunks_Disabled(t *testing.T) {
	m := NewManager(&chunker.Config{Enabled: false})
	msg := &protocol.OutgoingMessage{Text: "  One[MSG]Two.  "}

	parts := m.expandChunks(msg)
	require.Len(t, parts, 1)
	// Chunking off: text passes through completely unmodified.
	assert.Equal(t, "  One[MSG]Two.  ", parts[0].Text)
}

func TestExpandChunks_NilConfig(t *testing.T) {
	m := NewManager(nil)
	msg := &protocol.OutgoingMessage{Text: "One[MSG]Two"}

	parts := m.expandChunks(msg)
	require.Len(t, parts, 1)
	assert.Equal(t, "One[MSG]Two", parts[0].Text)
}

func TestExpandChunks_SplitsOnDefaultMarkers(t *testing.T) {
	m := NewManager(&chunker.Config{Enabled: true})
	msg := &protocol.OutgoingMessage{
		Text:     "First part[MSG]Second part.",
		UserID:   "42",
		Metadata: map[string]string{"parse_mode": "Markdown"},
	}

	parts := m.expandChunks(msg)
	require.Len(t, parts, 2)
	assert.Equal(t, "First part", parts[0].Text)
	assert.Equal(t, "Second part", parts[1].Text)

	// Every other payload attribute is carried over unchanged.
	for _, p := range parts {
		assert.Equal(t, "42", p.UserID)
		assert.Equal(t, "Markdown", p.Metadata["parse_mode"])
	}

	// Metadata maps must not be shared between siblings.
	parts[0].Metadata["parse_mode"] = "HTML"
	assert.Equal(t, "Markdown", parts[1].Metadata["parse_mode"])
}

func TestExpandChunks_CustomMarkersAndMinSize(t *testing.T) {
	m := NewManager(&chunker.Config{
		Enabled:      true,
		Markers:      []string{"---"},
		MinChunkSize: 5,
	})
	msg := &protocol.OutgoingMessage{Text: "A---B"}

	parts := m.expandChunks(msg)
	require.Len(t, parts, 1)
	assert.Equal(t, "A\n\nB", parts[0].Text)
}

func TestExpandChunks_SingleChunkStillNormalized(t *testing.T) {
	m := NewManager(&chunker.Config{Enabled: true})
	msg := &protocol.OutgoingMessage{Text: "  Just one thought.  "}

	parts := m.expandChunks(msg)
	require.Len(t, parts, 1)
	assert.Equal(t, "Just one thought", parts[0].Text)
}

func TestRouteMessages_DeliversChunksInOrder(t *testing.T) {
	adapter := newFakeAdapter("fake")
	m := NewManager(&chunker.Config{Enabled: true})
	m.RegisterFactory(&fakeFactory{adapter: adapter})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx, []ChannelConfig{
		{ID: "fake", Type: "fake", Name: "fake", Enabled: true},
	}))

	require.NoError(t, m.SendMessage(&protocol.OutgoingMessage{
		ChannelID: "fake",
		Text:      "One[MSG]Two<nl>Three",
	}))

	assert.Eventually(t, func() bool {
		return len(adapter.sentMessages()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	sent := adapter.sentMessages()
	assert.Equal(t, "One", sent[0].Text)
	assert.Equal(t, "Two", sent[1].Text)
	assert.Equal(t, "Three", sent[2].Text)
}

func TestRouteMessages_UnknownChannelDropped(t *testing.T) {
	m := NewManager(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx, nil))

	// No adapter registered for this channel; message is logged and dropped.
	require.NoError(t, m.SendMessage(&protocol.OutgoingMessage{
		ChannelID: "ghost",
		Text:      "hello",
	}))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, m.GetStatus())
}
