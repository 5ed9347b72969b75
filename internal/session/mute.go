package session

import (
	"github.com/rs/zerolog/log"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/state"
)

// muteReconciler merges the independent mute signal sources into one
// boolean per participant. Sources in ascending precedence: absence of
// an audio publication (muted), the publication flag at announce time,
// provider mute/unmute events, and metadata facts ordered by their own
// timestamps. The merge is idempotent and commutative over the
// orderings the side-channels can produce.
type muteReconciler struct {
	store *state.Store
}

func newMuteReconciler(store *state.Store) *muteReconciler {
	return &muteReconciler{store: store}
}

// applyPublicationFlag applies the flag carried on the publication at
// announce/subscribe time. A metadata fact already applied outranks it,
// which is what makes announce-then-fact and fact-then-announce
// converge.
func (r *muteReconciler) applyPublicationFlag(id domain.ParticipantID, muted bool) {
	p, ok := r.store.Participant(id)
	if !ok {
		return
	}
	if p.LastMuteUpdate > 0 {
		return
	}
	if r.store.SetAudioMuted(id, muted, 0) {
		log.Debug().Str("module", "session.mute").Str("id", string(id)).Bool("muted", muted).Msg("publication flag applied")
	}
}

// applyTrackSignal handles provider-level mute/unmute events; the most
// recent one wins.
func (r *muteReconciler) applyTrackSignal(id domain.ParticipantID, muted bool) {
	r.store.EnsureParticipant(id, "")
	if r.store.SetAudioMuted(id, muted, 0) {
		log.Debug().Str("module", "session.mute").Str("id", string(id)).Bool("muted", muted).Msg("track signal applied")
	}
}

// applyMetaFact applies a metadata-broadcast fact, last-write-wins by
// the fact's own timestamp rather than arrival order. Re-delivery of
// the same fact is a no-op.
func (r *muteReconciler) applyMetaFact(id domain.ParticipantID, muted bool, ts int64) {
	p := r.store.EnsureParticipant(id, "")
	if ts < p.LastMuteUpdate {
		log.Debug().Str("module", "session.mute").Str("id", string(id)).Int64("ts", ts).Int64("last", p.LastMuteUpdate).Msg("stale mute fact discarded")
		return
	}
	r.store.SetAudioMuted(id, muted, ts)
}

// applyAbsence restores the conservative default once no audio
// publication remains, unless a metadata fact still speaks for the
// participant.
func (r *muteReconciler) applyAbsence(id domain.ParticipantID) {
	p, ok := r.store.Participant(id)
	if !ok {
		return
	}
	if p.LastMuteUpdate > 0 {
		return
	}
	r.store.SetAudioMuted(id, true, 0)
}
