package capture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testAudioDevices() []AudioDevice {
	return []AudioDevice{
		{ID: "alsa_input.usb-blue_yeti", Description: "Blue Yeti", Available: true},
		{ID: "alsa_input.pci-built_in", Description: "Built-in Audio", Available: true, Default: true},
		{ID: "alsa_input.usb-muted_mic", Description: "Muted Mic", Available: true, Muted: true},
		{ID: "alsa_input.usb-unplugged", Description: "Unplugged Headset", Available: false},
	}
}

func TestSelectAudioDefaultInput(t *testing.T) {
	selection, err := selectAudioFromList(testAudioDevices(), "default", "default")
	require.NoError(t, err)
	require.Equal(t, "alsa_input.pci-built_in", selection.Device.ID)
	require.False(t, selection.Fallback)
	require.Empty(t, selection.Warning)
}

func TestSelectAudioByNameMatch(t *testing.T) {
	selection, err := selectAudioFromList(testAudioDevices(), "yeti", "")
	require.NoError(t, err)
	require.Equal(t, "alsa_input.usb-blue_yeti", selection.Device.ID)
}

func TestSelectAudioUnknownInputFails(t *testing.T) {
	_, err := selectAudioFromList(testAudioDevices(), "nonexistent", "")
	require.ErrorIs(t, err, ErrDeviceUnavailable)
	require.Contains(t, err.Error(), "did not match")
}

func TestSelectAudioMutedPrimaryFallsBackToDefault(t *testing.T) {
	selection, err := selectAudioFromList(testAudioDevices(), "muted", "default")
	require.NoError(t, err)
	require.Equal(t, "alsa_input.pci-built_in", selection.Device.ID)
	require.True(t, selection.Fallback)
	require.Contains(t, selection.Warning, "muted")
}

func TestSelectAudioUnavailablePrimaryFallsBackToNamed(t *testing.T) {
	selection, err := selectAudioFromList(testAudioDevices(), "unplugged", "yeti")
	require.NoError(t, err)
	require.Equal(t, "alsa_input.usb-blue_yeti", selection.Device.ID)
	require.True(t, selection.Fallback)
}

func TestSelectAudioMutedFallbackFails(t *testing.T) {
	_, err := selectAudioFromList(testAudioDevices(), "unplugged", "muted")
	require.ErrorIs(t, err, ErrDeviceUnavailable)
}

func TestSelectAudioNoDevices(t *testing.T) {
	_, err := selectAudioFromList(nil, "default", "default")
	require.ErrorIs(t, err, ErrDeviceUnavailable)
}
