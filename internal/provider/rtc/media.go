package rtc

import (
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"

	"github.com/voxmeet/voxmeet/internal/provider"
)

// MediaSource supplies the local capture tracks. Capture hardware is
// platform-specific, so it stays behind this seam; a source that has
// no device for a slot returns provider.ErrNoDevice and the session
// degrades instead of failing.
type MediaSource interface {
	AcquireMicrophone() (webrtc.TrackLocal, error)
	AcquireCamera() (webrtc.TrackLocal, error)
	AcquireScreen() (webrtc.TrackLocal, error)
}

// NoMedia is the view-only source: every slot reports no device.
type NoMedia struct{}

func (NoMedia) AcquireMicrophone() (webrtc.TrackLocal, error) { return nil, provider.ErrNoDevice }
func (NoMedia) AcquireCamera() (webrtc.TrackLocal, error)     { return nil, provider.ErrNoDevice }
func (NoMedia) AcquireScreen() (webrtc.TrackLocal, error)     { return nil, provider.ErrNoDevice }

// SampleMedia mints static sample tracks the app feeds encoded frames
// into. Which slots exist is decided at construction, so a box without
// a camera still joins with audio.
type SampleMedia struct {
	Audio  bool
	Video  bool
	Screen bool
}

func (m SampleMedia) AcquireMicrophone() (webrtc.TrackLocal, error) {
	if !m.Audio {
		return nil, provider.ErrNoDevice
	}
	return webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio", uuid.NewString())
}

func (m SampleMedia) AcquireCamera() (webrtc.TrackLocal, error) {
	if !m.Video {
		return nil, provider.ErrNoDevice
	}
	return webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"video", uuid.NewString())
}

func (m SampleMedia) AcquireScreen() (webrtc.TrackLocal, error) {
	if !m.Screen {
		return nil, provider.ErrNoDevice
	}
	return webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"screen", uuid.NewString())
}
