package domain

// MediaKind distinguishes the three streams a participant can publish.
// Camera video and screen video are separate kinds so that each keeps
// its own lifecycle state machine.
type MediaKind int

const (
	KindAudio MediaKind = iota
	KindVideo
	KindScreenVideo
)

func (k MediaKind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindScreenVideo:
		return "screen_video"
	}
	return "unknown"
}

// PublicationState is the per-(participant, kind) subscription machine:
// Unpublished -> Published -> Subscribing -> Subscribed -> Unsubscribed.
// Local publications skip straight to Subscribed; there is no
// subscription step for one's own media.
type PublicationState int

const (
	Unpublished PublicationState = iota
	Published
	Subscribing
	Subscribed
	Unsubscribed
)

func (s PublicationState) String() string {
	switch s {
	case Unpublished:
		return "unpublished"
	case Published:
		return "published"
	case Subscribing:
		return "subscribing"
	case Subscribed:
		return "subscribed"
	case Unsubscribed:
		return "unsubscribed"
	}
	return "unknown"
}

// TrackPublication is a media stream a participant has made available.
type TrackPublication struct {
	Owner ParticipantID
	Kind  MediaKind
	State PublicationState
	// Muted mirrors the provider-level publication flag, one of the
	// inputs the mute reconciler merges for audio.
	Muted bool
}
