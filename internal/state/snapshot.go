package state

import "github.com/voxmeet/voxmeet/internal/domain"

// Snapshot is the read-only view handed to the UI layer. Everything in
// it is copied; mutating a snapshot never touches the store.
type Snapshot struct {
	Room         *domain.Room
	Participants []domain.Participant
	ActiveSharer domain.ParticipantID
	Chat         []domain.ChatMessage
	Revision     uint64
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ActiveSharer: s.activeSharer,
		Revision:     s.rev,
	}
	if s.room != nil {
		room := *s.room
		snap.Room = &room
	}
	snap.Participants = make([]domain.Participant, 0, len(s.order))
	for _, id := range s.order {
		p, ok := s.participants[id]
		if !ok {
			continue
		}
		cp := *p
		cp.Publications = make(map[domain.MediaKind]*domain.TrackPublication, len(p.Publications))
		for k, pub := range p.Publications {
			pubCopy := *pub
			cp.Publications[k] = &pubCopy
		}
		snap.Participants = append(snap.Participants, cp)
	}
	snap.Chat = append(snap.Chat, s.chat...)
	return snap
}
