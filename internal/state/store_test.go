package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voxmeet/voxmeet/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	room, err := domain.NewRoom("algebra-1")
	require.NoError(t, err)
	s.Reset(room, "alice")
	return s
}

func TestEnsureParticipantLazyCreate(t *testing.T) {
	s := newTestStore(t)

	// A track event can beat the presence event; the store must create
	// a minimal record instead of dropping it.
	p := s.EnsureParticipant("bob", "")
	require.Equal(t, "bob", p.Name)
	require.True(t, p.AudioMuted, "no audio publication yet, must default to muted")

	// Presence event later fills in the display name.
	p2 := s.EnsureParticipant("bob", "Bob")
	require.Same(t, p, p2)
	require.Equal(t, "Bob", p2.Name)
	require.Equal(t, 1, s.ParticipantCount())
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStore(t)
	s.EnsureParticipant("bob", "Bob")
	require.True(t, s.UpsertPublication("bob", domain.KindAudio, domain.Subscribed, false))

	snap := s.Snapshot()
	require.Len(t, snap.Participants, 1)

	snap.Participants[0].Name = "mallory"
	snap.Participants[0].Publications[domain.KindAudio].Muted = true
	snap.Room.Terminated = true

	p, ok := s.Participant("bob")
	require.True(t, ok)
	require.Equal(t, "Bob", p.Name)
	require.False(t, p.Publications[domain.KindAudio].Muted)
	require.False(t, s.Room().Terminated)
}

func TestSnapshotPreservesJoinOrder(t *testing.T) {
	s := newTestStore(t)
	s.EnsureParticipant("alice", "Alice")
	s.EnsureParticipant("bob", "Bob")
	s.EnsureParticipant("carol", "Carol")
	s.RemoveParticipant("bob")
	s.EnsureParticipant("bob", "Bob")

	snap := s.Snapshot()
	require.Len(t, snap.Participants, 3)
	require.Equal(t, domain.ParticipantID("alice"), snap.Participants[0].ID)
	require.Equal(t, domain.ParticipantID("carol"), snap.Participants[1].ID)
	require.Equal(t, domain.ParticipantID("bob"), snap.Participants[2].ID)
}

func TestUpsertPublicationReportsTransitions(t *testing.T) {
	s := newTestStore(t)
	s.EnsureParticipant("bob", "Bob")

	require.True(t, s.UpsertPublication("bob", domain.KindVideo, domain.Published, false))
	require.True(t, s.UpsertPublication("bob", domain.KindVideo, domain.Subscribed, false))
	// Same state again is not a transition.
	require.False(t, s.UpsertPublication("bob", domain.KindVideo, domain.Subscribed, false))
}

func TestSetAudioMutedIdempotent(t *testing.T) {
	s := newTestStore(t)
	s.EnsureParticipant("bob", "Bob")

	require.True(t, s.SetAudioMuted("bob", false, 0))
	require.False(t, s.SetAudioMuted("bob", false, 0), "re-delivery must not report a change")
	require.True(t, s.SetAudioMuted("bob", true, 100))
}

func TestChangesNeverBlocks(t *testing.T) {
	s := newTestStore(t)
	// Nobody drains the channel; far more mutations than its capacity.
	for i := 0; i < 100; i++ {
		s.EnsureParticipant(domain.ParticipantID(fmt.Sprintf("p-%d", i)), "p")
	}
	select {
	case <-s.Changes():
	default:
		t.Fatal("expected at least one buffered revision")
	}
}

func TestMarkTerminated(t *testing.T) {
	s := newTestStore(t)
	s.EnsureParticipant("bob", "Bob")
	s.MarkTerminated()

	require.True(t, s.Room().Terminated)
	p, _ := s.Participant("bob")
	require.Equal(t, domain.ParticipantLeft, p.State)
}
