package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// Clip is a fully decoded mono recording. Multi-channel files keep only the
// first channel.
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// maxPrealloc bounds how many samples a header may reserve up front.
const maxPrealloc = 1 << 24

// DecodeFile decodes a .wav, .mp3, .flac or .ogg file chosen by extension.
func DecodeFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()

	var clip Clip
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		clip, err = decodeWAV(f)
	case ".mp3":
		clip, err = decodeMP3(f)
	case ".flac":
		clip, err = decodeFLAC(f)
	case ".ogg":
		clip, err = decodeOGG(f)
	default:
		return Clip{}, fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		return Clip{}, err
	}
	if clip.SampleRate <= 0 {
		return Clip{}, fmt.Errorf("invalid sample rate %d", clip.SampleRate)
	}
	if len(clip.Samples) == 0 {
		return Clip{}, errors.New("no audio samples")
	}
	return clip, nil
}

// --- WAV ---

func decodeWAV(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, errors.New("invalid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := max(int(dec.NumChans), 1)
	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return Clip{}, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := range frames {
		v := buf.Data[i*channels]
		if bitDepth == 8 {
			// 8-bit WAV is unsigned
			samples[i] = float64(v-128) / 128
			continue
		}
		samples[i] = float64(v) / float64(int(1)<<(bitDepth-1))
	}
	return Clip{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

// --- MP3 ---

// go-mp3 always produces 16-bit little-endian stereo.
func decodeMP3(r io.Reader) (Clip, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return Clip{}, fmt.Errorf("decoding MP3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return Clip{}, fmt.Errorf("decoding MP3: %w", err)
	}

	const frameSize = 4
	samples := make([]float64, len(raw)/frameSize)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(raw[i*frameSize:]))) / 32768
	}
	return Clip{Samples: samples, SampleRate: dec.SampleRate()}, nil
}

// --- FLAC ---

func decodeFLAC(r io.Reader) (Clip, error) {
	stream, err := flac.New(r)
	if err != nil {
		return Clip{}, fmt.Errorf("decoding FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	if info.BitsPerSample == 0 || info.BitsPerSample > 32 {
		return Clip{}, fmt.Errorf("unsupported FLAC bit depth %d", info.BitsPerSample)
	}
	scale := float64(int64(1) << (info.BitsPerSample - 1))
	// NSamples comes from the header and may be wrong or zero.
	samples := make([]float64, 0, min(info.NSamples, maxPrealloc))
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Clip{}, fmt.Errorf("decoding FLAC frame: %w", err)
		}
		for _, s := range frame.Subframes[0].Samples {
			samples = append(samples, float64(s)/scale)
		}
	}
	return Clip{Samples: samples, SampleRate: int(info.SampleRate)}, nil
}

// --- OGG Vorbis ---

func decodeOGG(r io.Reader) (Clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return Clip{}, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := max(format.Channels, 1)
	samples := make([]float64, len(data)/channels)
	for i := range samples {
		samples[i] = float64(data[i*channels])
	}
	return Clip{Samples: samples, SampleRate: format.SampleRate}, nil
}
