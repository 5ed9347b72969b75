package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/event"
	"github.com/voxmeet/voxmeet/internal/provider"
	"github.com/voxmeet/voxmeet/internal/session"
	"github.com/voxmeet/voxmeet/internal/wire"
)

func TestSendChatEchoesExactlyOnce(t *testing.T) {
	// The reliable channel loops the sender's own frame back; the echo
	// must be recognized and dropped so the message shows up once.
	fake := &provider.Fake{Identity: "alice", EchoData: true}
	c, _ := newJoined(t, fake, false)

	require.NoError(t, c.SendChat("hello room"))

	chat := c.Snapshot().Chat
	require.Len(t, chat, 1)
	require.Equal(t, "hello room", chat[0].Text)
	require.True(t, chat[0].IsLocalEcho)

	sent, err := wire.Decode(fake.LastPublished())
	require.NoError(t, err)
	frame, ok := sent.(wire.Chat)
	require.True(t, ok)
	require.Equal(t, "hello room", frame.Text)
	require.Equal(t, "alice", frame.Sender)
}

func TestSendChatSkipsBlankMessages(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	require.NoError(t, c.SendChat("   \n\t"))
	require.Empty(t, c.Snapshot().Chat)
	require.Empty(t, fake.Published)
}

func TestReceiveChatResolvesDisplayName(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)
	drainNotices(c)
	fake.Emit(event.ParticipantJoined{ID: "bob", Name: "Bob"})
	drainNotices(c)

	frame, err := wire.Encode(wire.NewChat("stale-wire-name", "hi alice", 1700000000000))
	require.NoError(t, err)
	fake.Emit(event.DataReceived{Sender: "bob", Payload: frame})

	chat := c.Snapshot().Chat
	require.Len(t, chat, 1)
	// The roster name wins over whatever the frame carries.
	require.Equal(t, "Bob", chat[0].SenderName)
	require.False(t, chat[0].IsLocalEcho)
	require.True(t, hasNotice(drainNotices(c), session.CodeChat))
}

func TestReceiveChatOrderIsReceiptOrder(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	for i, tc := range []struct {
		sender string
		text   string
		ts     int64
	}{
		{"bob", "first", 3000},
		{"carol", "second", 1000}, // older timestamp, later arrival
		{"bob", "third", 2000},
	} {
		frame, err := wire.Encode(wire.NewChat(tc.sender, tc.text, tc.ts))
		require.NoError(t, err, "frame %d", i)
		fake.Emit(event.DataReceived{Sender: domain.ParticipantID(tc.sender), Payload: frame})
	}

	chat := c.Snapshot().Chat
	require.Len(t, chat, 3)
	require.Equal(t, "first", chat[0].Text)
	require.Equal(t, "second", chat[1].Text)
	require.Equal(t, "third", chat[2].Text)
}

func TestReceiveUndecodableFrameIsDropped(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	fake.Emit(event.DataReceived{Sender: "bob", Payload: []byte("not json at all")})
	fake.Emit(event.DataReceived{Sender: "bob", Payload: []byte(`{"type":"shrug"}`)})
	require.Empty(t, c.Snapshot().Chat)
}

func TestSendChatRequiresActiveSession(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)
	c.Leave()

	require.ErrorIs(t, c.SendChat("too late"), session.ErrNotJoined)
}
