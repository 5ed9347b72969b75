// Package state holds the reconciled view of the session. The store is
// pure data behind accessors: the session controller and the components
// it delegates to are the only writers, so mutations are serialized by
// its dispatch path. Readers get copies, never interior pointers.
package state

import (
	"sync"

	"github.com/voxmeet/voxmeet/internal/domain"
)

// Store owns every session entity for the lifetime of a room.
type Store struct {
	mu sync.RWMutex

	room         *domain.Room
	localID      domain.ParticipantID
	participants map[domain.ParticipantID]*domain.Participant
	order        []domain.ParticipantID
	activeSharer domain.ParticipantID
	chat         []domain.ChatMessage

	rev     uint64
	changes chan uint64
}

func NewStore() *Store {
	return &Store{
		participants: make(map[domain.ParticipantID]*domain.Participant),
		changes:      make(chan uint64, 16),
	}
}

// Changes delivers a revision number after every committed mutation.
// Delivery is best-effort: a slow consumer misses intermediate revisions
// but never blocks the event path.
func (s *Store) Changes() <-chan uint64 {
	return s.changes
}

func (s *Store) notifyLocked() {
	s.rev++
	select {
	case s.changes <- s.rev:
	default:
	}
}

// Reset installs a fresh room and forgets everything from the previous
// session.
func (s *Store) Reset(room *domain.Room, localID domain.ParticipantID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = room
	s.localID = localID
	s.participants = make(map[domain.ParticipantID]*domain.Participant)
	s.order = nil
	s.activeSharer = ""
	s.chat = nil
	s.notifyLocked()
}

// Clear drops all session state, used on leave and forced termination.
func (s *Store) Clear() {
	s.Reset(nil, "")
}

func (s *Store) Room() *domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.room == nil {
		return nil
	}
	cp := *s.room
	return &cp
}

func (s *Store) SetRoomCreator(id domain.ParticipantID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return
	}
	s.room.CreatorID = id
	s.notifyLocked()
}

func (s *Store) MarkTerminated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return
	}
	s.room.Terminated = true
	for _, p := range s.participants {
		p.State = domain.ParticipantLeft
	}
	s.notifyLocked()
}

func (s *Store) LocalID() domain.ParticipantID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.localID
}

// BindLocal records the local identity once the transport assigns it
// (after connect) and creates the local participant entry. Remote
// events arriving before this point are still recorded.
func (s *Store) BindLocal(id domain.ParticipantID, name string) *domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localID = id
	p, err := domain.NewParticipant(id, name, true)
	if err != nil {
		p, _ = domain.NewParticipant(id, string(id), true)
	}
	p.State = domain.ParticipantActive
	s.participants[id] = p
	s.order = append(s.order, id)
	s.notifyLocked()
	return p
}

// EnsureParticipant returns the participant record, creating a minimal
// one when a track or data event beats the presence event. The creation
// order is preserved for rendering.
func (s *Store) EnsureParticipant(id domain.ParticipantID, name string) *domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.participants[id]; ok {
		if name != "" && p.Name == string(id) {
			p.Name = name
		}
		return p
	}
	if name == "" {
		name = string(id)
	}
	p, err := domain.NewParticipant(id, name, id == s.localID)
	if err != nil {
		// Length caps only; fall back to the identity itself.
		p, _ = domain.NewParticipant(id, string(id), id == s.localID)
	}
	s.participants[id] = p
	s.order = append(s.order, id)
	s.notifyLocked()
	return p
}

func (s *Store) Participant(id domain.ParticipantID) (*domain.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	return p, ok
}

func (s *Store) SetParticipantState(id domain.ParticipantID, st domain.ParticipantState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok || p.State == st {
		return
	}
	p.State = st
	s.notifyLocked()
}

func (s *Store) RemoveParticipant(id domain.ParticipantID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[id]; !ok {
		return
	}
	delete(s.participants, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.notifyLocked()
}

func (s *Store) ParticipantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants)
}

// UpsertPublication installs or transitions the (owner, kind)
// publication. It reports whether anything actually changed so callers
// can keep attach/detach side effects transition-only.
func (s *Store) UpsertPublication(owner domain.ParticipantID, kind domain.MediaKind, st domain.PublicationState, muted bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[owner]
	if !ok {
		return false
	}
	pub, ok := p.Publications[kind]
	if !ok {
		p.Publications[kind] = &domain.TrackPublication{Owner: owner, Kind: kind, State: st, Muted: muted}
		s.notifyLocked()
		return true
	}
	if pub.State == st && pub.Muted == muted {
		return false
	}
	pub.State = st
	pub.Muted = muted
	s.notifyLocked()
	return true
}

func (s *Store) RemovePublication(owner domain.ParticipantID, kind domain.MediaKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[owner]
	if !ok {
		return false
	}
	if _, ok := p.Publications[kind]; !ok {
		return false
	}
	delete(p.Publications, kind)
	s.notifyLocked()
	return true
}

// SetAudioMuted commits a reconciled mute value. ts is the metadata fact
// timestamp that produced it, or 0 for provider-level signals. Returns
// false when the value was already current, keeping re-delivery
// idempotent.
func (s *Store) SetAudioMuted(id domain.ParticipantID, muted bool, ts int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return false
	}
	if ts > p.LastMuteUpdate {
		p.LastMuteUpdate = ts
	}
	if p.AudioMuted == muted {
		return false
	}
	p.AudioMuted = muted
	s.notifyLocked()
	return true
}

func (s *Store) ActiveSharer() domain.ParticipantID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSharer
}

func (s *Store) SetActiveSharer(id domain.ParticipantID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeSharer == id {
		return
	}
	s.activeSharer = id
	s.notifyLocked()
}

func (s *Store) AppendChat(msg domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, msg)
	s.notifyLocked()
}
