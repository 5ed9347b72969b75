package provider

import (
	"strings"

	"github.com/voxmeet/voxmeet/internal/domain"
	"github.com/voxmeet/voxmeet/internal/event"
)

// The adapter funcs below normalize the loosely typed values real
// transports emit. Everything that cannot be normalized is reported as
// not-ok and the caller skips the event instead of guessing.

// NormalizeKind maps a transport (kind, source) pair onto the media
// kind enum. Screen capture arrives as a video track with a source tag;
// the tag spelling varies between transport versions.
func NormalizeKind(kind, source string) (domain.MediaKind, bool) {
	switch strings.ToLower(kind) {
	case "audio":
		return domain.KindAudio, true
	case "video":
		switch strings.ToLower(source) {
		case "screenshare", "screen_share", "screen":
			return domain.KindScreenVideo, true
		default:
			// Camera, or an absent source tag on older transports.
			return domain.KindVideo, true
		}
	}
	return 0, false
}

// NormalizeData accepts the payload representations transports use for
// data frames (binary or text) and returns raw bytes.
func NormalizeData(payload any) ([]byte, bool) {
	switch v := payload.(type) {
	case []byte:
		return v, len(v) > 0
	case string:
		return []byte(v), len(v) > 0
	}
	return nil, false
}

// NormalizeReason folds transport disconnect reason strings into the
// event enum. Only operator closure matters to the session; everything
// unrecognized is a transport failure.
func NormalizeReason(reason string) event.DisconnectReason {
	switch strings.ToLower(reason) {
	case "room_closed", "room_deleted", "roomdeleted":
		return event.ReasonRoomClosed
	case "client_initiated", "left":
		return event.ReasonLeft
	case "":
		return event.ReasonUnknown
	default:
		return event.ReasonTransportFailure
	}
}
