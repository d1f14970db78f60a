package capture

import (
	"context"
	"log/slog"
)

// Options selects the concrete hardware a recorder opens.
type Options struct {
	AudioInput    string
	AudioFallback string
	VideoDevice   string
	VideoWidth    uint32
	VideoHeight   uint32
}

// NewDevices returns the PulseAudio + V4L2 device opener used outside tests.
func NewDevices(opts Options, logger *slog.Logger) Devices {
	return hardwareDevices{opts: opts, logger: logger}
}

type hardwareDevices struct {
	opts   Options
	logger *slog.Logger
}

func (h hardwareDevices) OpenMicrophone(ctx context.Context) (AudioTrack, error) {
	selection, err := SelectAudioDevice(ctx, h.opts.AudioInput, h.opts.AudioFallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" && h.logger != nil {
		h.logger.Warn(selection.Warning)
	}
	return NewMicrophone(ctx, selection.Device)
}

func (h hardwareDevices) OpenCamera(_ context.Context) (VideoTrack, error) {
	return NewCamera(h.opts.VideoDevice, h.opts.VideoWidth, h.opts.VideoHeight)
}
