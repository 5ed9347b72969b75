package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/provider"
	"github.com/voxmeet/voxmeet/internal/state"
	"github.com/voxmeet/voxmeet/internal/wire"
)

// messenger owns the chat log: optimistic local echo on send, reliable
// broadcast to the room, and suppression of the echo coming back so
// the sender never sees a duplicate.
type messenger struct {
	store *state.Store
	prov  provider.Provider

	localID   domain.ParticipantID
	localName string
}

func newMessenger(store *state.Store, prov provider.Provider) *messenger {
	return &messenger{store: store, prov: prov}
}

func (m *messenger) bindLocal(id domain.ParticipantID, name string) {
	m.localID = id
	m.localName = name
}

func (m *messenger) send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	now := time.Now()
	m.store.AppendChat(domain.ChatMessage{
		ID:          uuid.NewString(),
		SenderID:    m.localID,
		SenderName:  m.localName,
		Text:        text,
		SentAt:      now,
		IsLocalEcho: true,
	})

	b, err := wire.Encode(wire.NewChat(string(m.localID), text, now.UnixMilli()))
	if err != nil {
		return err
	}
	if err := m.prov.PublishData(b); err != nil {
		return fmt.Errorf("chat broadcast: %w", err)
	}
	log.Debug().Str("module", "session.chat").Int("len", len(text)).Msg("chat sent")
	return nil
}

// onReceive decodes one reliable frame. It returns a notification for
// messages worth surfacing; the sender's own echo produces none and is
// not appended again.
func (m *messenger) onReceive(sender domain.ParticipantID, payload []byte) (Notice, bool) {
	p, err := wire.Decode(payload)
	if err != nil {
		log.Warn().Err(err).Str("module", "session.chat").Str("sender", string(sender)).Msg("undecodable data frame")
		return Notice{}, false
	}
	chat, ok := p.(wire.Chat)
	if !ok {
		// Mute facts and share claims ride the metadata channel; a
		// non-chat frame here is a peer quirk, not ours to handle.
		return Notice{}, false
	}
	if sender == m.localID {
		return Notice{}, false
	}

	name := chat.Sender
	if pt, ok := m.store.Participant(sender); ok {
		name = pt.Name
	}
	m.store.AppendChat(domain.ChatMessage{
		ID:         uuid.NewString(),
		SenderID:   sender,
		SenderName: name,
		Text:       chat.Text,
		SentAt:     time.UnixMilli(chat.Timestamp),
	})
	return Notice{Level: NoticeInfo, Code: CodeChat, Text: name + ": " + chat.Text}, true
}
