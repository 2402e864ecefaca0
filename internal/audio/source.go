// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrInvalidFile       = errors.New("invalid audio file")
)

// Source is a decoded audio file. Read fills dst with interleaved samples in
// [-1, 1], always a whole number of frames, and returns io.EOF once the file
// is exhausted.
type Source interface {
	Read(dst []float32) (int, error)
	SampleRate() int
	Channels() int
	Close() error
}

// OpenFile opens path with the decoder matching its extension.
func OpenFile(path string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".wave":
	case ".mp3":
	case ".flac":
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var src Source
	switch ext {
	case ".mp3":
		src, err = newMP3Source(f)
	case ".flac":
		src, err = newFLACSource(f)
	default:
		src, err = newWAVSource(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// wavSource decodes PCM WAV through go-audio.
type wavSource struct {
	file     *os.File
	decoder  *wav.Decoder
	buf      *audio.IntBuffer
	rate     int
	channels int
	bitDepth int
	scale    float32
}

func newWAVSource(f *os.File) (*wavSource, error) {
	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a PCM WAV file", ErrInvalidFile)
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to seek to PCM data: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	peak := audio.IntMaxSignedValue(bitDepth)
	if peak == 0 {
		return nil, fmt.Errorf("%w: %d-bit WAV", ErrUnsupportedFormat, bitDepth)
	}
	channels := int(decoder.NumChans)
	rate := int(decoder.SampleRate)

	return &wavSource{
		file:     f,
		decoder:  decoder,
		buf:      &audio.IntBuffer{Format: &audio.Format{NumChannels: channels, SampleRate: rate}},
		rate:     rate,
		channels: channels,
		bitDepth: bitDepth,
		scale:    1 / float32(peak+1),
	}, nil
}

func (s *wavSource) Read(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, io.ErrShortBuffer
	}
	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil {
		return 0, err
	}
	n -= n % s.channels
	if n == 0 {
		return 0, io.EOF
	}

	for i, v := range s.buf.Data[:n] {
		if s.bitDepth == 8 {
			// 8-bit WAV is unsigned.
			v -= 128
		}
		dst[i] = float32(v) * s.scale
	}
	return n, nil
}

func (s *wavSource) SampleRate() int { return s.rate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Close() error    { return s.file.Close() }

// mp3Channels is fixed: go-mp3 always decodes to 16-bit stereo.
const mp3Channels = 2

type mp3Source struct {
	file    *os.File
	decoder *mp3.Decoder
	buf     []byte
}

func newMP3Source(f *os.File) (*mp3Source, error) {
	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}
	return &mp3Source{file: f, decoder: decoder}, nil
}

func (s *mp3Source) Read(dst []float32) (int, error) {
	frames := len(dst) / mp3Channels
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}
	need := frames * mp3Channels * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	m, err := io.ReadFull(s.decoder, buf)
	n := m / 2
	n -= n % mp3Channels
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("failed to read MP3 data: %w", err)
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("failed to read MP3 data: %w", err)
	}

	// 16-bit signed little-endian.
	for i := range n {
		v := int16(uint16(buf[2*i]) | uint16(buf[2*i+1])<<8)
		dst[i] = float32(v) / 32768
	}
	return n, nil
}

func (s *mp3Source) SampleRate() int { return s.decoder.SampleRate() }
func (s *mp3Source) Channels() int   { return mp3Channels }
func (s *mp3Source) Close() error    { return s.file.Close() }

type flacSource struct {
	file     *os.File
	stream   *flac.Stream
	rate     int
	channels int

	frame *frame.Frame // Current frame, nil before the first read.
	pos   int          // Next sample index within frame.
	scale float32
}

func newFLACSource(f *os.File) (*flacSource, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create FLAC decoder: %w", err)
	}
	if stream.Info.NChannels == 0 || stream.Info.SampleRate == 0 {
		stream.Close()
		return nil, fmt.Errorf("%w: FLAC stream info", ErrInvalidFile)
	}
	return &flacSource{
		file:     f,
		stream:   stream,
		rate:     int(stream.Info.SampleRate),
		channels: int(stream.Info.NChannels),
	}, nil
}

func (s *flacSource) Read(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, io.ErrShortBuffer
	}

	n := 0
	for n < want {
		if s.frame == nil || s.pos >= len(s.frame.Subframes[0].Samples) {
			f, err := s.stream.ParseNext()
			if err != nil {
				if errors.Is(err, io.EOF) {
					if n > 0 {
						return n, nil
					}
					return 0, io.EOF
				}
				return n, fmt.Errorf("failed to parse FLAC frame: %w", err)
			}
			if len(f.Subframes) < s.channels {
				return n, fmt.Errorf("%w: FLAC frame with %d of %d channels", ErrInvalidFile, len(f.Subframes), s.channels)
			}
			s.frame, s.pos = f, 0
			s.scale = 1 / float32(int64(1)<<(f.BitsPerSample-1))
		}

		for ; s.pos < len(s.frame.Subframes[0].Samples) && n < want; s.pos++ {
			for ch := range s.channels {
				dst[n] = float32(s.frame.Subframes[ch].Samples[s.pos]) * s.scale
				n++
			}
		}
	}
	return n, nil
}

func (s *flacSource) SampleRate() int { return s.rate }
func (s *flacSource) Channels() int   { return s.channels }

func (s *flacSource) Close() error {
	s.stream.Close()
	return s.file.Close()
}
