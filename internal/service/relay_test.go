package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gowa-bridge/internal/model"
	"gowa-bridge/internal/wa"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForwarder struct {
	mu        sync.Mutex
	forwarded []string // "sender|body"
	fail      bool
}

func (f *fakeForwarder) ForwardMessage(ctx context.Context, senderNumber, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("webhook unreachable")
	}
	f.forwarded = append(f.forwarded, senderNumber+"|"+body)
	return nil
}

func (f *fakeForwarder) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.forwarded...)
}

type fakeChatSource struct {
	mu     sync.Mutex
	chats  []wa.Chat
	unread map[string][]model.InboundMessage
	seen   []string
}

func (f *fakeChatSource) ListChats(ctx context.Context) ([]wa.Chat, error) {
	return f.chats, nil
}

func (f *fakeChatSource) FetchUnread(ctx context.Context, chatJID string, count int) ([]model.InboundMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread[chatJID], nil
}

func (f *fakeChatSource) MarkSeen(ctx context.Context, chatJID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, chatJID)
	return nil
}

func (f *fakeChatSource) seenChats() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func text(sender, body string) model.InboundMessage {
	return model.InboundMessage{SenderID: sender, TextBody: body}
}

func TestRelayOneClassification(t *testing.T) {
	cases := []struct {
		name string
		msg  model.InboundMessage
		want string // "" means dropped
	}{
		{"plain text", text("212611111111", "hello"), "212611111111|hello"},
		{"self-originated dropped", model.InboundMessage{SenderID: "212611111111", TextBody: "me", IsSelfOriginated: true}, ""},
		{"whitespace-only dropped", text("212611111111", "   \n\t "), ""},
		{"text trimmed", text("212611111111", "  salut  "), "212611111111|salut"},
		{"image placeholder", model.InboundMessage{SenderID: "212622222222", HasMedia: true, MediaKind: model.MediaImage}, "212622222222|[image message]"},
		{"voice note placeholder", model.InboundMessage{SenderID: "212622222222", HasMedia: true, MediaKind: model.MediaVoiceNote}, "212622222222|[voice note message]"},
		{"unknown media placeholder", model.InboundMessage{SenderID: "212622222222", HasMedia: true, MediaKind: model.MediaKind("hologram")}, "212622222222|[media message]"},
		{"sender stripped to digits", text("212633333333@c.us", "hi"), "212633333333|hi"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			forwarder := &fakeForwarder{}
			relay := NewRelay(&fakeChatSource{}, forwarder)
			relay.relayOne(context.Background(), tc.msg)

			got := forwarder.snapshot()
			if tc.want == "" {
				assert.Empty(t, got)
			} else {
				require.Len(t, got, 1)
				assert.Equal(t, tc.want, got[0])
			}
		})
	}
}

func TestRelayWebhookFailureDropsMessage(t *testing.T) {
	forwarder := &fakeForwarder{fail: true}
	relay := NewRelay(&fakeChatSource{}, forwarder)

	relay.relayOne(context.Background(), text("212611111111", "lost"))
	relay.relayOne(context.Background(), text("212611111111", "also lost"))

	assert.Empty(t, forwarder.snapshot())
}

func TestDrainRelaysBacklogThenMarksSeen(t *testing.T) {
	source := &fakeChatSource{
		chats: []wa.Chat{
			{JID: "212611111111@c.us", UnreadCount: 2},
			{JID: "group1@g.us", IsGroup: true, UnreadCount: 5},
			{JID: "212622222222@c.us", UnreadCount: 0},
			{JID: "212633333333@c.us", UnreadCount: 1},
		},
		unread: map[string][]model.InboundMessage{
			"212611111111@c.us": {
				text("212611111111@c.us", "first"),
				text("212611111111@c.us", "second"),
			},
			"212633333333@c.us": {
				text("212633333333@c.us", "third"),
			},
		},
	}
	forwarder := &fakeForwarder{}
	relay := NewRelay(source, forwarder)

	relay.drainUnread(context.Background())

	assert.Equal(t, []string{
		"212611111111|first",
		"212611111111|second",
		"212633333333|third",
	}, forwarder.snapshot())
	// Groups and zero-unread chats are never touched.
	assert.Equal(t, []string{"212611111111@c.us", "212633333333@c.us"}, source.seenChats())
}

func TestDrainCompletesBeforeLiveMessages(t *testing.T) {
	source := &fakeChatSource{
		chats: []wa.Chat{{JID: "212611111111@c.us", UnreadCount: 1}},
		unread: map[string][]model.InboundMessage{
			"212611111111@c.us": {text("212611111111@c.us", "backlog")},
		},
	}
	forwarder := &fakeForwarder{}
	relay := NewRelay(source, forwarder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Enqueue everything before the worker starts: queue order is the only
	// thing deciding delivery order.
	relay.EnqueueDrain()
	for i := 0; i < 5; i++ {
		relay.EnqueueMessage(text("212644444444", fmt.Sprintf("live-%d", i)))
	}
	go relay.Run(ctx)

	require.Eventually(t, func() bool {
		return len(forwarder.snapshot()) == 6
	}, time.Second, 2*time.Millisecond)

	got := forwarder.snapshot()
	assert.Equal(t, "212611111111|backlog", got[0])
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("212644444444|live-%d", i), got[i+1])
	}
}
