// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakeDevices = []*portaudio.DeviceInfo{
	{
		Name:                    "Built-in Microphone",
		MaxInputChannels:        2,
		DefaultSampleRate:       48000,
		DefaultLowInputLatency:  3 * time.Millisecond,
		DefaultHighInputLatency: 12 * time.Millisecond,
	},
	{
		Name:              "Built-in Output",
		MaxOutputChannels: 2,
		DefaultSampleRate: 44100,
	},
	{
		Name:              "Interface",
		MaxInputChannels:  8,
		MaxOutputChannels: 8,
		DefaultSampleRate: 96000,
	},
}

// stubPortAudio replaces the PortAudio entry points for the duration of t.
func stubPortAudio(t *testing.T, devices []*portaudio.DeviceInfo, err error) {
	t.Helper()
	origDevices, origDefault := paLibDevicesFunc, paLibDefaultInputDeviceFunc
	t.Cleanup(func() {
		paLibDevicesFunc, paLibDefaultInputDeviceFunc = origDevices, origDefault
	})
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) { return devices, err }
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		if len(devices) == 0 {
			return nil, errors.New("no default input device")
		}
		return devices[0], nil
	}
}

func TestHostDevices(t *testing.T) {
	stubPortAudio(t, fakeDevices, nil)

	devices, err := HostDevices()
	require.NoError(t, err)
	require.Len(t, devices, len(fakeDevices))
	for i, d := range devices {
		assert.Equal(t, i, d.ID)
		assert.Equal(t, fakeDevices[i].Name, d.Name)
		assert.Equal(t, fakeDevices[i].DefaultSampleRate, d.DefaultSampleRate)
	}
	assert.Equal(t, 3*time.Millisecond, devices[0].LowInputLatency)
	assert.Equal(t, "Input", devices[0].Type())
	assert.Equal(t, "Output", devices[1].Type())
	assert.Equal(t, "Input/Output", devices[2].Type())
	assert.Equal(t, "None", Device{}.Type())
}

func TestHostDevices_paDevicesError(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, errors.New("mock error")
	}

	_, err := HostDevices()
	assert.ErrorContains(t, err, "mock error")
}

func TestInputDevice(t *testing.T) {
	stubPortAudio(t, fakeDevices, nil)

	t.Run("Default input device", func(t *testing.T) {
		dev, err := InputDevice(-1)
		require.NoError(t, err)
		assert.Equal(t, "Built-in Microphone", dev.Name)
	})

	t.Run("Valid input device", func(t *testing.T) {
		dev, err := InputDevice(2)
		require.NoError(t, err)
		assert.Equal(t, "Interface", dev.Name)
	})

	tests := []struct {
		name string
		id   int
		err  error
	}{
		{"Negative ID", -2, ErrInvalidDevice},
		{"Too high ID", len(fakeDevices) + 10, ErrInvalidDevice},
		{"Non-input device", 1, ErrNoInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InputDevice(tt.id)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestInputDevice_paDevicesError(t *testing.T) {
	stubPortAudio(t, nil, errors.New("mock error"))

	_, err := InputDevice(-1)
	assert.ErrorContains(t, err, "mock error")
}

func TestInputDevice_paDefaultInputDeviceError(t *testing.T) {
	stubPortAudio(t, fakeDevices, nil)
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return nil, errors.New("mock default input error")
	}

	_, err := InputDevice(-1)
	assert.ErrorContains(t, err, "mock default input error")
}

func TestErrorInitialize(t *testing.T) {
	orig := paLibInitialize
	defer func() { paLibInitialize = orig }()

	paLibInitialize = func() error { return nil }
	assert.NoError(t, Initialize())

	paLibInitialize = func() error { return errors.New("mock init error") }
	assert.ErrorContains(t, Initialize(), "mock init error")
}

func TestErrorTerminate(t *testing.T) {
	orig := paLibTerminate
	defer func() { paLibTerminate = orig }()

	paLibTerminate = func() error { return nil }
	assert.NoError(t, Terminate())

	paLibTerminate = func() error { return errors.New("mock term error") }
	assert.ErrorContains(t, Terminate(), "mock term error")
}

func TestGetDevices(t *testing.T) {
	origInit, origTerm := paLibInitialize, paLibTerminate
	defer func() { paLibInitialize, paLibTerminate = origInit, origTerm }()
	stubPortAudio(t, fakeDevices, nil)

	var terminated bool
	paLibInitialize = func() error { return nil }
	paLibTerminate = func() error { terminated = true; return nil }

	devices, err := GetDevices()
	require.NoError(t, err)
	assert.Len(t, devices, len(fakeDevices))
	assert.True(t, terminated, "GetDevices should terminate PortAudio")

	paLibInitialize = func() error { return errors.New("mock init error") }
	_, err = GetDevices()
	assert.ErrorContains(t, err, "mock init error")
}

func TestNilDevices(t *testing.T) {
	stubPortAudio(t, nil, nil)

	devices, err := paDevices()
	require.NoError(t, err)
	assert.NotNil(t, devices, "expected empty slice, got nil")
	assert.Empty(t, devices)
}

func TestPortAudioNotInitialized(t *testing.T) {
	stubPortAudio(t, nil, errors.New("PortAudio not initialized"))

	devices, err := paDevices()
	assert.ErrorContains(t, err, "PortAudio not initialized")
	assert.Nil(t, devices)
}

func TestListDevices(t *testing.T) {
	stubPortAudio(t, fakeDevices, nil)

	var buf bytes.Buffer
	require.NoError(t, ListDevices(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\nAvailable Audio Devices\n\n"))
	assert.Contains(t, out, "[0] Built-in Microphone (Input)\n")
	assert.Contains(t, out, "[1] Built-in Output (Output)\n")
	assert.Contains(t, out, "[2] Interface (Input/Output)\n")
	assert.Contains(t, out, "    Default sample rate: 96000 Hz\n")
	assert.Contains(t, out, "    Latency: Low=3.00ms, High=12.00ms\n")
}

func TestListDevicesError(t *testing.T) {
	stubPortAudio(t, nil, errors.New("mock error"))

	var buf bytes.Buffer
	assert.Error(t, ListDevices(&buf))
	assert.Zero(t, buf.Len())
}
