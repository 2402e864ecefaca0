// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"spectrum/internal/config"
	applog "spectrum/internal/log"
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrBitDepth         = errors.New("unsupported bit depth")
)

// RecordingPath names a new recording in dir by its start time.
func RecordingPath(dir string, at time.Time) string {
	return filepath.Join(dir, "recording-"+at.Format("20060102-150405")+".wav")
}

func (e *Engine) StartRecording(filename string) error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		return ErrAlreadyRecording
	}

	bitDepth := e.config.Recording.BitDepth
	if bitDepth == 0 {
		bitDepth = config.DefaultBitDepth
	}
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}

	e.recMu.Lock()
	defer e.recMu.Unlock()

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	e.outputFile = file

	channels := e.config.Audio.InputChannels
	rate := int(e.config.Audio.SampleRate)
	e.wavEncoder = wav.NewEncoder(file, rate, bitDepth, channels, 1)

	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  rate,
		},
		Data:           make([]int, e.config.Audio.FramesPerBuffer*channels),
		SourceBitDepth: bitDepth,
	}
	e.pcmMax = audio.IntMaxSignedValue(bitDepth)
	e.writeFailures = 0
	e.framesWritten = 0
	e.maxFrames = e.config.Recording.MaxDuration * rate

	atomic.StoreInt32(&e.isRecording, 1)
	applog.Infof("Engine: Recording to %s (%d-bit, %d channels, %d Hz)", filename, bitDepth, channels, rate)

	return nil
}

func (e *Engine) StopRecording() error {
	if atomic.LoadInt32(&e.isRecording) == 0 {
		return nil
	}

	e.recMu.Lock()
	defer e.recMu.Unlock()
	return e.closeRecording()
}

// IsRecording reports whether captured buffers are being written to disk.
func (e *Engine) IsRecording() bool {
	return atomic.LoadInt32(&e.isRecording) == 1
}

// closeRecording finalizes the WAV header and closes the file. recMu held.
func (e *Engine) closeRecording() error {
	atomic.StoreInt32(&e.isRecording, 0)

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}

	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		applog.Infof("Engine: Recording stopped (%d frames)", e.framesWritten)
		e.outputFile = nil
	}

	return nil
}

// writeRecording converts buffer to PCM and appends it to the WAV file.
// Recording stops after too many consecutive failures or at the maximum
// duration.
func (e *Engine) writeRecording(buffer []float32) {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	if e.wavEncoder == nil {
		return
	}

	channels := e.sampleBuf.Format.NumChannels
	n := min(len(buffer), cap(e.sampleBuf.Data))
	n -= n % channels
	if e.maxFrames > 0 {
		n = min(n, (e.maxFrames-e.framesWritten)*channels)
	}

	data := e.sampleBuf.Data[:n]
	for i := range data {
		data[i] = pcmSample(buffer[i], e.pcmMax)
	}
	e.sampleBuf.Data = data

	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		e.writeFailures++
		applog.Errorf("Engine: Error writing to WAV file (%d/%d): %v", e.writeFailures, config.DefaultMaxConsecutiveWriteFailures, err)
		if e.writeFailures >= config.DefaultMaxConsecutiveWriteFailures {
			applog.Errorf("Engine: Too many consecutive write failures, stopping recording")
			if err := e.closeRecording(); err != nil {
				applog.Errorf("Engine: Error closing recording: %v", err)
			}
		}
		return
	}
	e.writeFailures = 0
	e.framesWritten += n / channels

	if e.maxFrames > 0 && e.framesWritten >= e.maxFrames {
		applog.Infof("Engine: Maximum recording duration reached")
		if err := e.closeRecording(); err != nil {
			applog.Errorf("Engine: Error closing recording: %v", err)
		}
	}
}

// pcmSample converts a float sample to a signed integer of the given peak,
// clipping outside [-1, 1].
func pcmSample(s float32, peak int) int {
	switch {
	case s >= 1:
		return peak
	case s <= -1:
		return -peak
	}
	return int(float64(s) * float64(peak))
}

func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}

	if err := e.StopInputStream(); err != nil {
		return err
	}

	return nil
}
