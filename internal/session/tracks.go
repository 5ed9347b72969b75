package session

import (
	"github.com/rs/zerolog/log"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/state"
)

// trackManager drives the per-(participant, kind) publication machine.
// Remote tracks enter at Published when announced and reach Subscribed
// once media is decodable; attach/detach hooks fire only on those
// transitions, never on re-delivery.
type trackManager struct {
	store *state.Store
	mute  *muteReconciler
	share *shareArbitrator
	hooks Hooks
}

func newTrackManager(store *state.Store, mute *muteReconciler, share *shareArbitrator, hooks Hooks) *trackManager {
	return &trackManager{store: store, mute: mute, share: share, hooks: hooks}
}

func (m *trackManager) onAnnounced(owner domain.ParticipantID, kind domain.MediaKind, muted bool) {
	// A publication can be announced before the presence event arrives;
	// a minimal participant record is created rather than dropping it.
	p := m.store.EnsureParticipant(owner, "")

	st := domain.Published
	if existing, ok := p.Publication(kind); ok && existing.State > domain.Published {
		// Announce arriving after subscription must not regress the
		// machine.
		st = existing.State
	}
	m.store.UpsertPublication(owner, kind, st, muted)
	log.Debug().Str("module", "session.tracks").Str("owner", string(owner)).Str("kind", kind.String()).Msg("track announced")

	switch kind {
	case domain.KindAudio:
		m.mute.applyPublicationFlag(owner, muted)
	case domain.KindScreenVideo:
		m.share.observePublished(owner)
	}
}

func (m *trackManager) onSubscribed(owner domain.ParticipantID, kind domain.MediaKind, muted bool) {
	p := m.store.EnsureParticipant(owner, "")

	prev := domain.Unpublished
	if existing, ok := p.Publication(kind); ok {
		prev = existing.State
	}
	m.store.UpsertPublication(owner, kind, domain.Subscribed, muted)

	if prev != domain.Subscribed && m.hooks.AttachTrack != nil {
		m.hooks.AttachTrack(owner, kind)
	}
	log.Debug().Str("module", "session.tracks").Str("owner", string(owner)).Str("kind", kind.String()).Msg("track subscribed")

	switch kind {
	case domain.KindAudio:
		m.mute.applyPublicationFlag(owner, muted)
	case domain.KindScreenVideo:
		m.share.observePublished(owner)
	}
}

func (m *trackManager) onEnded(owner domain.ParticipantID, kind domain.MediaKind) {
	if !m.store.RemovePublication(owner, kind) {
		return
	}
	if m.hooks.DetachTrack != nil {
		m.hooks.DetachTrack(owner, kind)
	}
	log.Debug().Str("module", "session.tracks").Str("owner", string(owner)).Str("kind", kind.String()).Msg("track ended")

	switch kind {
	case domain.KindAudio:
		m.mute.applyAbsence(owner)
	case domain.KindScreenVideo:
		// Track lifecycle is ground truth for the share slot; the
		// release broadcast may never arrive.
		m.share.observeTrackEnded(owner)
	}
}

// dropAll removes every publication a departing participant owned.
func (m *trackManager) dropAll(owner domain.ParticipantID) {
	for _, kind := range []domain.MediaKind{domain.KindAudio, domain.KindVideo, domain.KindScreenVideo} {
		if m.store.RemovePublication(owner, kind) && m.hooks.DetachTrack != nil {
			m.hooks.DetachTrack(owner, kind)
		}
	}
}
