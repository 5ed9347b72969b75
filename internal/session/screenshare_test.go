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

func shareClaim(t *testing.T, sender string, sharing bool, ts int64) []byte {
	t.Helper()
	b, err := wire.Encode(wire.NewScreenShare(sender, sharing, ts))
	require.NoError(t, err)
	return b
}

func TestScreenShareLocalToggle(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	require.NoError(t, c.ToggleScreenShare())
	require.True(t, fake.Screen)
	require.Equal(t, domain.ParticipantID("alice"), c.Snapshot().ActiveSharer)

	claim, err := wire.Decode(fake.LastMetadata())
	require.NoError(t, err)
	ss, ok := claim.(wire.ScreenShare)
	require.True(t, ok)
	require.True(t, ss.Sharing)
	require.Equal(t, "alice", ss.Sender)

	require.NoError(t, c.ToggleScreenShare())
	require.False(t, fake.Screen)
	require.Empty(t, c.Snapshot().ActiveSharer)

	release, err := wire.Decode(fake.LastMetadata())
	require.NoError(t, err)
	require.False(t, release.(wire.ScreenShare).Sharing)
}

func TestScreenShareSoftDenialWhileRemoteHolds(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)
	drainNotices(c)

	fake.Emit(event.ParticipantJoined{ID: "bob", Name: "Bob"})
	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: shareClaim(t, "bob", true, 1000)})
	require.Equal(t, domain.ParticipantID("bob"), c.Snapshot().ActiveSharer)

	err := c.ToggleScreenShare()
	require.ErrorIs(t, err, session.ErrShareDenied)
	require.False(t, fake.Screen, "denied toggle must not touch the capture device")
	require.True(t, hasNotice(drainNotices(c), session.CodeShareDenied))
}

func TestScreenShareSlotHoldsAtMostOne(t *testing.T) {
	// Two concurrent claims may both pass the remote clients' soft
	// checks; this client still records exactly one holder at a time.
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: shareClaim(t, "bob", true, 1000)})
	fake.Emit(event.MetadataChanged{Owner: "carol", Payload: shareClaim(t, "carol", true, 1001)})
	require.Equal(t, domain.ParticipantID("carol"), c.Snapshot().ActiveSharer)
}

func TestScreenShareStaleReleaseIgnored(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: shareClaim(t, "bob", true, 1000)})
	fake.Emit(event.MetadataChanged{Owner: "carol", Payload: shareClaim(t, "carol", true, 1001)})

	// Bob's belated release must not clear Carol's claim.
	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: shareClaim(t, "bob", false, 1002)})
	require.Equal(t, domain.ParticipantID("carol"), c.Snapshot().ActiveSharer)

	fake.Emit(event.MetadataChanged{Owner: "carol", Payload: shareClaim(t, "carol", false, 1003)})
	require.Empty(t, c.Snapshot().ActiveSharer)
}

func TestScreenShareClaimHolderIsEventOwnerNotPayloadSender(t *testing.T) {
	// The payload's sender field is peer-written and untrusted; the
	// slot is attributed to whoever the transport says changed their
	// metadata.
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: shareClaim(t, "mallory", true, 1000)})
	require.Equal(t, domain.ParticipantID("bob"), c.Snapshot().ActiveSharer)
}

func TestScreenShareLiveTrackIsAClaim(t *testing.T) {
	// The metadata broadcast can be missed entirely; a subscribed
	// screen track still marks its owner as the sharer.
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	fake.Emit(event.TrackPublished{Owner: "bob", Kind: domain.KindScreenVideo})
	require.Equal(t, domain.ParticipantID("bob"), c.Snapshot().ActiveSharer)
}

func TestScreenShareTrackEndReleasesSlot(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: shareClaim(t, "bob", true, 1000)})
	fake.Emit(event.TrackPublished{Owner: "bob", Kind: domain.KindScreenVideo})
	fake.Emit(event.TrackUnsubscribed{Owner: "bob", Kind: domain.KindScreenVideo})
	require.Empty(t, c.Snapshot().ActiveSharer, "track end is the authoritative release")
}

func TestScreenShareAbruptDisconnectReleasesSlot(t *testing.T) {
	// The sharer's process dies: no release broadcast ever arrives,
	// only the presence departure. The slot must reopen so the local
	// control re-enables.
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)
	fake.Emit(event.ParticipantJoined{ID: "bob", Name: "Bob"})
	fake.Emit(event.MetadataChanged{Owner: "bob", Payload: shareClaim(t, "bob", true, 1000)})
	fake.Emit(event.TrackPublished{Owner: "bob", Kind: domain.KindScreenVideo})

	fake.Emit(event.ParticipantLeft{ID: "bob"})
	require.Empty(t, c.Snapshot().ActiveSharer)

	require.NoError(t, c.ToggleScreenShare())
	require.Equal(t, domain.ParticipantID("alice"), c.Snapshot().ActiveSharer)
}

func TestScreenShareDeviceFailureRollsBackClaim(t *testing.T) {
	fake := &provider.Fake{Identity: "alice", ScreenErr: provider.ErrDeviceDenied}
	c, _ := newJoined(t, fake, false)

	require.Error(t, c.ToggleScreenShare())
	require.Empty(t, c.Snapshot().ActiveSharer, "failed capture must not leave a dangling claim")
}

func TestScreenShareLocalReleaseBroadcastOnLeave(t *testing.T) {
	fake := &provider.Fake{Identity: "alice"}
	c, _ := newJoined(t, fake, false)

	require.NoError(t, c.ToggleScreenShare())
	c.Leave()

	release, err := wire.Decode(fake.LastMetadata())
	require.NoError(t, err)
	ss, ok := release.(wire.ScreenShare)
	require.True(t, ok)
	require.False(t, ss.Sharing, "leaving while sharing must broadcast a release")
}
