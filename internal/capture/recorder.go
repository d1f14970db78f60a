package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// AudioTrack is one live microphone capture owned by a recorder.
type AudioTrack interface {
	Start() error
	PCM() []byte
	BytesCaptured() int64
	Close() error
}

// VideoTrack is one live camera capture owned by a recorder.
type VideoTrack interface {
	Start() error
	MJPEG() []byte
	FrameCount() int
	Close() error
}

// Devices opens concrete microphone and camera handles for a recorder.
type Devices interface {
	OpenMicrophone(ctx context.Context) (AudioTrack, error)
	OpenCamera(ctx context.Context) (VideoTrack, error)
}

// Recorder owns the single-device capture lifecycle for one session:
// Idle -> DeviceActive -> Recording -> Stopped -> Idle. At most one device
// handle is ever open; a second Acquire before Release fails fast.
type Recorder struct {
	logger  *slog.Logger
	devices Devices

	mu        sync.Mutex
	state     State
	audio     AudioTrack
	video     VideoTrack
	startedAt time.Time
}

// NewRecorder constructs an idle recorder over the given device opener.
func NewRecorder(devices Devices, logger *slog.Logger) *Recorder {
	return &Recorder{
		logger:  logger,
		devices: devices,
		state:   StateIdle,
	}
}

// State returns the current lifecycle state snapshot.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Acquire opens the microphone and camera. It fails fast, never queues, when
// a handle is already held.
func (r *Recorder) Acquire(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return fmt.Errorf("%w: device handle already held (state %s)", ErrDeviceUnavailable, r.state)
	}

	audio, err := r.devices.OpenMicrophone(ctx)
	if err != nil {
		return fmt.Errorf("acquire microphone: %w", err)
	}

	video, err := r.devices.OpenCamera(ctx)
	if err != nil {
		_ = audio.Close()
		return fmt.Errorf("acquire camera: %w", err)
	}

	r.audio = audio
	r.video = video
	r.state = StateDeviceActive
	r.logDebug("capture device acquired")
	return nil
}

// Start begins buffering media on the held device. Starting while a recording
// is in progress, or without an acquired device, fails with ErrInvalidState
// and leaves the existing state untouched.
func (r *Recorder) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateRecording:
		return fmt.Errorf("%w: recording already in progress", ErrInvalidState)
	case StateDeviceActive:
	default:
		return fmt.Errorf("%w: no active device handle (state %s)", ErrInvalidState, r.state)
	}

	if err := r.audio.Start(); err != nil {
		return fmt.Errorf("start microphone: %w", err)
	}
	if err := r.video.Start(); err != nil {
		return fmt.Errorf("start camera: %w", err)
	}

	r.startedAt = time.Now()
	r.state = StateRecording
	r.logDebug("recording started")
	return nil
}

// Stop finalizes buffered media into one immutable clip and stops all device
// tracks. Fails with ErrInvalidState when no recording is in progress.
func (r *Recorder) Stop() (Clip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return Clip{}, fmt.Errorf("%w: no recording in progress (state %s)", ErrInvalidState, r.state)
	}

	duration := time.Since(r.startedAt)

	// Stop the tracks before snapshotting so no bytes land after the clip
	// boundary.
	_ = r.audio.Close()
	_ = r.video.Close()

	clip := Clip{
		Video:      r.video.MJPEG(),
		VideoMIME:  "video/x-motion-jpeg",
		Audio:      EncodeWAV(r.audio.PCM(), audioSampleRate, audioChannels),
		AudioMIME:  "audio/wav",
		Duration:   duration,
		RecordedAt: r.startedAt,
	}
	if len(r.audio.PCM()) == 0 && r.video.FrameCount() == 0 {
		clip.Audio = nil
		clip.Video = nil
	}

	r.state = StateStopped
	r.logDebug("recording stopped",
		"duration_ms", duration.Milliseconds(),
		"audio_bytes", r.audio.BytesCaptured(),
		"video_frames", r.video.FrameCount(),
	)
	return clip, nil
}

// Release stops all device tracks and returns to Idle. Idempotent: calling it
// twice, or without a held device, is a no-op. It must run on every exit path
// so no handle outlives its question.
func (r *Recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.audio != nil {
		_ = r.audio.Close()
		r.audio = nil
	}
	if r.video != nil {
		_ = r.video.Close()
		r.video = nil
	}
	if r.state != StateIdle {
		r.logDebug("capture device released")
	}
	r.state = StateIdle
}

// logDebug emits debug-level logs when a logger is configured.
func (r *Recorder) logDebug(msg string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Debug(msg, args...)
}
