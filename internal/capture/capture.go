// Package capture acquires camera/microphone devices and produces assessment clips.
package capture

import (
	"errors"
	"time"
)

var (
	// ErrPermissionDenied indicates device access was refused by the OS.
	ErrPermissionDenied = errors.New("capture device access denied")
	// ErrDeviceUnavailable indicates the hardware is missing, busy, or already held.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrInvalidState indicates misuse of the recorder lifecycle; it is never a
	// silent no-op.
	ErrInvalidState = errors.New("invalid capture state")
	// ErrEmptyClip indicates stop completed but no media bytes were captured.
	ErrEmptyClip = errors.New("recording produced no media")
)

// State is the recorder lifecycle position.
type State string

const (
	StateIdle         State = "idle"
	StateDeviceActive State = "device_active"
	StateRecording    State = "recording"
	StateStopped      State = "stopped"
)

// Clip is one finalized recording for a single question: an MJPEG video track
// and a separately addressable WAV audio track. Immutable once returned.
type Clip struct {
	Video      []byte
	VideoMIME  string
	Audio      []byte
	AudioMIME  string
	Duration   time.Duration
	RecordedAt time.Time
}

// Empty reports whether the clip carries no usable media at all.
func (c Clip) Empty() bool {
	return len(c.Audio) == 0 && len(c.Video) == 0
}
