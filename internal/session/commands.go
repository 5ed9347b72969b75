package session

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/wire"
)

// The command surface the UI layer calls. Each command is optimistic:
// local state flips first for a responsive indicator, and rolls back if
// the provider refuses.

func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	if c.phase != Active {
		c.mu.Unlock()
		return ErrNotJoined
	}
	if !c.micOn && c.micMuted {
		// View-only tier: no microphone was ever acquired.
		c.mu.Unlock()
		return ErrNotJoined
	}
	muted := !c.micMuted
	c.micMuted = muted
	localID := c.localID
	c.mu.Unlock()

	c.store.SetAudioMuted(localID, muted, 0)

	if err := c.prov.SetMicrophoneEnabled(!muted); err != nil {
		// Roll the optimistic flip back.
		c.mu.Lock()
		c.micMuted = !muted
		c.mu.Unlock()
		c.store.SetAudioMuted(localID, !muted, 0)
		log.Error().Err(err).Str("module", "session").Msg("toggle mute failed")
		return err
	}

	// Re-broadcast on every toggle so late joiners converge on the
	// newest fact.
	c.broadcastMuteFact(muted)
	log.Info().Str("module", "session").Bool("muted", muted).Msg("microphone toggled")
	return nil
}

func (c *Controller) ToggleCamera() error {
	c.mu.Lock()
	if c.phase != Active {
		c.mu.Unlock()
		return ErrNotJoined
	}
	on := !c.camOn
	c.camOn = on
	localID := c.localID
	c.mu.Unlock()

	if err := c.prov.SetCameraEnabled(on); err != nil {
		c.mu.Lock()
		c.camOn = !on
		c.mu.Unlock()
		log.Error().Err(err).Str("module", "session").Msg("toggle camera failed")
		return err
	}

	if on {
		c.store.UpsertPublication(localID, domain.KindVideo, domain.Subscribed, false)
	} else {
		c.detach(localID, domain.KindVideo)
		c.store.RemovePublication(localID, domain.KindVideo)
	}
	log.Info().Str("module", "session").Bool("on", on).Msg("camera toggled")
	return nil
}

// ToggleScreenShare claims or releases the shared screen slot. The
// denial is soft and purely local: if this client believes someone else
// holds the slot it refuses, but nothing prevents two participants from
// passing the check concurrently. That race is accepted and self-heals
// once claims propagate.
func (c *Controller) ToggleScreenShare() error {
	c.mu.Lock()
	if c.phase != Active {
		c.mu.Unlock()
		return ErrNotJoined
	}
	localID := c.localID
	starting := !c.sharing
	c.mu.Unlock()

	if starting {
		if err := c.share.requestShare(localID); err != nil {
			holder := c.store.ActiveSharer()
			c.notify(Notice{Level: NoticeWarning, Code: CodeShareDenied, Text: string(holder) + " is already sharing their screen."})
			return err
		}
		if err := c.prov.SetScreenShareEnabled(true); err != nil {
			c.share.releaseIfHolder(localID)
			log.Error().Err(err).Str("module", "session").Msg("screen share start failed")
			return err
		}
		c.mu.Lock()
		c.sharing = true
		c.mu.Unlock()
		c.store.UpsertPublication(localID, domain.KindScreenVideo, domain.Subscribed, false)
		c.broadcastShareClaim(true)
		log.Info().Str("module", "session").Msg("screen share started")
		return nil
	}

	if err := c.prov.SetScreenShareEnabled(false); err != nil {
		log.Error().Err(err).Str("module", "session").Msg("screen share stop failed")
		return err
	}
	c.mu.Lock()
	c.sharing = false
	c.mu.Unlock()
	c.detach(localID, domain.KindScreenVideo)
	c.store.RemovePublication(localID, domain.KindScreenVideo)
	c.share.releaseIfHolder(localID)
	c.broadcastShareClaim(false)
	log.Info().Str("module", "session").Msg("screen share stopped")
	return nil
}

// SendChat echoes locally first, then broadcasts over the reliable
// channel. Display order is receipt order: consistent per sender, not
// globally ordered.
func (c *Controller) SendChat(text string) error {
	c.mu.Lock()
	if c.phase != Active {
		c.mu.Unlock()
		return ErrNotJoined
	}
	c.mu.Unlock()
	return c.chat.send(text)
}

func (c *Controller) broadcastShareClaim(sharing bool) {
	c.mu.Lock()
	localID := c.localID
	c.mu.Unlock()
	b, err := wire.Encode(wire.NewScreenShare(string(localID), sharing, time.Now().UnixMilli()))
	if err != nil {
		return
	}
	if err := c.prov.SetMetadata(b); err != nil {
		log.Warn().Err(err).Str("module", "session").Msg("share claim broadcast failed")
	}
}

func (c *Controller) detach(owner domain.ParticipantID, kind domain.MediaKind) {
	if c.hooks.DetachTrack != nil {
		c.hooks.DetachTrack(owner, kind)
	}
}
