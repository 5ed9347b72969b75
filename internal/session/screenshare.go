package session

import (
	"github.com/rs/zerolog/log"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/state"
)

// shareArbitrator enforces the at-most-one-sharer invariant with an
// optimistic claim/release protocol. The invariant is advisory: no
// client can veto another's capture, so two participants may briefly
// hold concurrent claims. The first claim observed wins the local
// exclusivity check and the inconsistency self-heals within one
// broadcast round-trip; do not replace this with a real lock.
type shareArbitrator struct {
	store *state.Store
}

func newShareArbitrator(store *state.Store) *shareArbitrator {
	return &shareArbitrator{store: store}
}

// requestShare is the local, soft admission check.
func (a *shareArbitrator) requestShare(id domain.ParticipantID) error {
	if holder := a.store.ActiveSharer(); holder != "" && holder != id {
		log.Info().Str("module", "session.share").Str("holder", string(holder)).Msg("share denied, slot taken")
		return ErrShareDenied
	}
	a.store.SetActiveSharer(id)
	return nil
}

// observeClaim applies a broadcast claim. A release only clears the
// slot when the releasing holder is the recorded holder, so a stale
// release from a superseded sharer cannot knock out the current one.
func (a *shareArbitrator) observeClaim(holder domain.ParticipantID, sharing bool) {
	if sharing {
		a.store.SetActiveSharer(holder)
		log.Debug().Str("module", "session.share").Str("holder", string(holder)).Msg("share claim observed")
		return
	}
	a.releaseIfHolder(holder)
}

// observePublished treats a live screen track as a claim in itself;
// the metadata broadcast is advisory and may be missed.
func (a *shareArbitrator) observePublished(owner domain.ParticipantID) {
	a.store.SetActiveSharer(owner)
}

// observeTrackEnded is the authoritative release path: when the screen
// track of the recorded holder ends (including an abrupt disconnect
// with no release broadcast), the slot reopens.
func (a *shareArbitrator) observeTrackEnded(owner domain.ParticipantID) {
	a.releaseIfHolder(owner)
}

func (a *shareArbitrator) releaseIfHolder(id domain.ParticipantID) {
	if a.store.ActiveSharer() != id {
		return
	}
	a.store.SetActiveSharer("")
	log.Debug().Str("module", "session.share").Str("holder", string(id)).Msg("share slot released")
}
