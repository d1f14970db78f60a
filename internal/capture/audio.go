package capture

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	audioSampleRate = 16000
	audioChannels   = 1
)

// AudioDevice describes one Pulse input source surfaced to eloq.
type AudioDevice struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// AudioSelection is the resolved capture source plus optional fallback warning context.
type AudioSelection struct {
	Device   AudioDevice
	Warning  string
	Fallback bool
}

// ListAudioDevices returns available Pulse input sources with default/availability metadata.
func ListAudioDevices(_ context.Context) ([]AudioDevice, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("eloq"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]AudioDevice, 0, len(sourceInfos))
	for _, source := range sourceInfos {
		if source == nil {
			continue
		}
		devices = append(devices, AudioDevice{
			ID:          source.SourceName,
			Description: source.Device,
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultID,
		})
	}
	return devices, nil
}

// SelectAudioDevice resolves audio.input/audio.fallback preferences against live devices.
func SelectAudioDevice(ctx context.Context, input string, fallback string) (AudioSelection, error) {
	devices, err := ListAudioDevices(ctx)
	if err != nil {
		return AudioSelection{}, err
	}
	return selectAudioFromList(devices, input, fallback)
}

// selectAudioFromList applies selection policy to a pre-fetched device list.
func selectAudioFromList(devices []AudioDevice, input string, fallback string) (AudioSelection, error) {
	if len(devices) == 0 {
		return AudioSelection{}, fmt.Errorf("%w: no audio input devices found", ErrDeviceUnavailable)
	}

	var (
		defaultDevice *AudioDevice
		byInput       *AudioDevice
		byFallback    *AudioDevice
	)

	input = strings.TrimSpace(strings.ToLower(input))
	fallback = strings.TrimSpace(strings.ToLower(fallback))

	for i := range devices {
		dev := &devices[i]
		if dev.Default {
			defaultDevice = dev
		}
		if byInput == nil && input != "" && input != "default" && audioDeviceMatches(*dev, input) {
			byInput = dev
		}
		if byFallback == nil && fallback != "" && fallback != "default" && audioDeviceMatches(*dev, fallback) {
			byFallback = dev
		}
	}

	chooseDefault := func() (*AudioDevice, error) {
		if defaultDevice == nil {
			return nil, fmt.Errorf("%w: default audio source is unavailable", ErrDeviceUnavailable)
		}
		return defaultDevice, nil
	}

	selectPrimary := func() (*AudioDevice, error) {
		if input == "" || input == "default" {
			return chooseDefault()
		}
		if byInput != nil {
			return byInput, nil
		}
		return nil, fmt.Errorf("%w: audio.input %q did not match any device", ErrDeviceUnavailable, input)
	}

	primary, err := selectPrimary()
	if err != nil {
		return AudioSelection{}, err
	}
	if primary.Available && !primary.Muted {
		return AudioSelection{Device: *primary}, nil
	}

	primaryReason := "unavailable"
	if primary.Muted {
		primaryReason = "muted"
	}

	fallbackDevice := primary
	if fallback != "" && fallback != "default" {
		if byFallback == nil {
			return AudioSelection{}, fmt.Errorf("%w: primary input %q is %s and fallback %q not found", ErrDeviceUnavailable, primary.ID, primaryReason, fallback)
		}
		fallbackDevice = byFallback
	} else {
		d, derr := chooseDefault()
		if derr != nil {
			return AudioSelection{}, fmt.Errorf("primary input %q is %s and no usable fallback: %w", primary.ID, primaryReason, derr)
		}
		fallbackDevice = d
	}

	if !fallbackDevice.Available {
		return AudioSelection{}, fmt.Errorf("%w: audio fallback device %q is not available", ErrDeviceUnavailable, fallbackDevice.ID)
	}
	if fallbackDevice.Muted {
		return AudioSelection{}, fmt.Errorf("%w: audio fallback device %q is muted", ErrDeviceUnavailable, fallbackDevice.ID)
	}

	return AudioSelection{
		Device:   *fallbackDevice,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, primaryReason, fallbackDevice.ID),
		Fallback: primary.ID != fallbackDevice.ID,
	}, nil
}

// audioDeviceMatches reports whether a search term matches a device id or description.
func audioDeviceMatches(device AudioDevice, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(device.ID)
	desc := strings.ToLower(device.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}

// Microphone holds one open 16kHz mono s16 Pulse record stream and buffers
// captured PCM until the clip is finalized.
type Microphone struct {
	device AudioDevice

	client *pulse.Client
	stream *pulse.RecordStream

	mu      sync.Mutex
	rawPCM  []byte
	stopped bool

	bytes atomic.Int64
}

// NewMicrophone connects the Pulse client and prepares (but does not start) a
// record stream on the selected source. The microphone is held from this point
// until Close, so callers own its release on every exit path.
func NewMicrophone(_ context.Context, selected AudioDevice) (*Microphone, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("eloq"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: connect pulse server: %v", ErrDeviceUnavailable, err)
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: resolve source %q: %v", ErrDeviceUnavailable, selected.ID, err)
	}

	mic := &Microphone{device: selected, client: client}

	writer := pulse.NewWriter(writerFunc(mic.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(audioSampleRate),
		pulse.RecordMediaName("eloq assessment"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: create pulse record stream: %v", ErrDeviceUnavailable, err)
	}

	mic.stream = stream
	return mic, nil
}

// Device returns capture metadata for logging and diagnostics.
func (m *Microphone) Device() AudioDevice {
	return m.device
}

// Start begins buffering PCM from the open stream.
func (m *Microphone) Start() error {
	m.stream.Start()
	return nil
}

// PCM returns a snapshot of all captured raw PCM bytes.
func (m *Microphone) PCM() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.rawPCM))
	copy(out, m.rawPCM)
	return out
}

// BytesCaptured reports total bytes accepted from Pulse.
func (m *Microphone) BytesCaptured() int64 {
	return m.bytes.Load()
}

// Close stops the stream and releases the Pulse client. Idempotent.
func (m *Microphone) Close() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	m.mu.Unlock()

	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
	}
	if m.client != nil {
		m.client.Close()
	}
	return nil
}

// onPCM receives raw Pulse frames and appends them to the clip buffer.
func (m *Microphone) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return 0, io.EOF
	}
	m.rawPCM = append(m.rawPCM, buffer...)
	m.mu.Unlock()

	m.bytes.Add(int64(len(buffer)))
	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}

// sourceStateString maps Pulse source state constants to human-readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
