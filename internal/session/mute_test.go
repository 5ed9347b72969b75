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

func muteFact(t *testing.T, sender string, muted bool, ts int64) []byte {
	t.Helper()
	b, err := wire.Encode(wire.NewMuteStatus(sender, muted, ts))
	require.NoError(t, err)
	return b
}

func remoteMuted(t *testing.T, c *session.Controller, id domain.ParticipantID) bool {
	t.Helper()
	for _, p := range c.Snapshot().Participants {
		if p.ID == id {
			return p.AudioMuted
		}
	}
	t.Fatalf("participant %s not in snapshot", id)
	return false
}

func TestMuteAnnounceAndFactCommute(t *testing.T) {
	// Publication flag and a newer metadata fact must converge to the
	// same answer regardless of observation order.
	orderings := []struct {
		name string
		run  func(f *provider.Fake)
	}{
		{"announce-then-fact", func(f *provider.Fake) {
			f.Emit(event.TrackPublished{Owner: "bob", Kind: domain.KindAudio, Muted: false})
			f.Emit(event.MetadataChanged{Owner: "bob", Payload: muteFact(t, "bob", true, 2000)})
		}},
		{"fact-then-announce", func(f *provider.Fake) {
			f.Emit(event.MetadataChanged{Owner: "bob", Payload: muteFact(t, "bob", true, 2000)})
			f.Emit(event.TrackPublished{Owner: "bob", Kind: domain.KindAudio, Muted: false})
		}},
	}
	for _, tc := range orderings {
		t.Run(tc.name, func(t *testing.T) {
			fake := &provider.Fake{Identity: "alice"}
			c, _ := newJoined(t, fake, false)
			fake.Emit(event.ParticipantJoined{ID: "bob", Name: "Bob"})
			tc.run(fake)
			require.True(t, remoteMuted(t, c, "bob"))
		})
	}
}

func TestMuteFactLastWriteWinsByTimestamp(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)
	fake.Emit(event.ParticipantJoined{ID: "bob", Name: "Bob"})

	// The newer fact arrives first; the stale one must not regress it.
	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: muteFact(t, "bob", false, 5000)})
	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: muteFact(t, "bob", true, 3000)})
	require.False(t, remoteMuted(t, c, "bob"))

	// A genuinely newer fact still applies.
	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: muteFact(t, "bob", true, 7000)})
	require.True(t, remoteMuted(t, c, "bob"))
}

func TestMuteFactIdempotent(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)
	fake.Emit(event.ParticipantJoined{ID: "bob", Name: "Bob"})

	fact := muteFact(t, "bob", true, 4000)
	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: fact})
	rev := c.Snapshot().Revision
	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: fact})

	require.True(t, remoteMuted(t, c, "bob"))
	require.Equal(t, rev, c.Snapshot().Revision, "replaying the same fact must not produce a new revision")
}

func TestMuteTrackSignalsMostRecentWins(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)
	fake.Emit(event.ParticipantJoined{ID: "bob", Name: "Bob"})
	fake.Emit(event.TrackPublished{Owner: "bob", Kind: domain.KindAudio, Muted: false})

	fake.Emit(event.TrackMuted{Owner: "bob", Kind: domain.KindAudio})
	require.True(t, remoteMuted(t, c, "bob"))
	fake.Emit(event.TrackUnmuted{Owner: "bob", Kind: domain.KindAudio})
	require.False(t, remoteMuted(t, c, "bob"))
}

func TestMuteAbsenceDefaultsToMuted(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	// A participant with no audio publication at all renders as muted.
	fake.Emit(event.ParticipantJoined{ID: "bob", Name: "Bob"})
	require.True(t, remoteMuted(t, c, "bob"))

	// Publication appears unmuted, then ends; absence wins again.
	fake.Emit(event.TrackPublished{Owner: "bob", Kind: domain.KindAudio, Muted: false})
	require.False(t, remoteMuted(t, c, "bob"))
	fake.Emit(event.TrackUnsubscribed{Owner: "bob", Kind: domain.KindAudio})
	require.True(t, remoteMuted(t, c, "bob"))
}

func TestLateJoinerConvergesFromSweep(t *testing.T) {
	// Bob was already in the room, mic open per his publication but
	// muted per a newer metadata fact. The sweep must land on muted.
	fake := &provider.Fake{
		Identity: "carol",
		Remotes: []provider.RemoteParticipant{{
			ID:       "bob",
			Name:     "Bob",
			Metadata: muteFact(t, "bob", true, 9000),
			Publications: []provider.RemotePublication{
				{Kind: domain.KindAudio, Muted: false, Subscribed: true},
			},
		}},
	}
	c, _ := newJoined(t, fake, true)
	require.True(t, remoteMuted(t, c, "bob"))
}

func TestToggleMuteBroadcastsFactAndRollsBack(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	require.NoError(t, c.ToggleMute())
	decoded, err := wire.Decode(fake.LastMetadata())
	require.NoError(t, err)
	fact, ok := decoded.(wire.MuteStatus)
	require.True(t, ok)
	require.True(t, fact.Muted)
	require.Equal(t, "alice", fact.Sender)
	require.True(t, remoteMuted(t, c, "alice"))

	// Device layer refuses the unmute; the optimistic flip rolls back.
	fake.MicErr = provider.ErrDeviceDenied
	require.Error(t, c.ToggleMute())
	require.True(t, remoteMuted(t, c, "alice"))
}

func TestMuteEventsForUnknownParticipantCreatePlaceholder(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	// Track announce for a participant we never saw join.
	fake.Emit(event.TrackPublished{Owner: "ghost", Kind: domain.KindAudio, Muted: true})
	require.True(t, remoteMuted(t, c, "ghost"))

	// The later join fills in the name without disturbing mute state.
	fake.Emit(event.ParticipantJoined{ID: "ghost", Name: "Grace"})
	for _, p := range c.Snapshot().Participants {
		if p.ID == "ghost" {
			require.Equal(t, "Grace", p.Name)
		}
	}
}
