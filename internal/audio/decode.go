package audio

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
)

const wavFormatFloat = 3

// Loader reads audio files, converting non-WAV containers through ffmpeg.
type Loader struct {
	FFmpegPath string
	Log        zerolog.Logger
}

// Load decodes the file at path into a mono Buffer.
func (l *Loader) Load(ctx context.Context, path string) (*Buffer, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		buf, err := DecodeFile(path)
		if err == nil {
			return buf, nil
		}
		l.Log.Debug().Err(err).Str("path", path).Msg("native WAV decode failed, trying ffmpeg")
		converted, cerr := l.loadConverted(ctx, path)
		if cerr != nil {
			return nil, err
		}
		return converted, nil
	}
	return l.loadConverted(ctx, path)
}

func (l *Loader) loadConverted(ctx context.Context, path string) (*Buffer, error) {
	tmp, err := os.MkdirTemp("", "lipsync-audio-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	out := filepath.Join(tmp, "audio.wav")
	if err := l.convert(ctx, path, out); err != nil {
		return nil, err
	}
	return DecodeFile(out)
}

// convert transcodes input to 16-bit mono PCM WAV.
func (l *Loader) convert(ctx context.Context, input, output string) error {
	bin := l.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	l.Log.Debug().Str("input", input).Msg("converting audio to WAV")

	cmd := exec.CommandContext(ctx, bin,
		"-y",
		"-i", input,
		"-ac", "1",
		"-c:a", "pcm_s16le",
		output,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: failed to convert %s to WAV: %v, output %s", ErrDecode, input, err, string(out))
	}
	return nil
}

// DecodeFile decodes a PCM WAV file.
func DecodeFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads PCM WAV data, normalizes it and mixes it down to mono.
func Decode(r io.ReadSeeker) (*Buffer, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return nil, fmt.Errorf("%w: not a valid WAV file", ErrDecode)
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(pcm.Data) == 0 {
		return nil, ErrNoSamples
	}

	samples, err := normalize(pcm, d.WavAudioFormat)
	if err != nil {
		return nil, err
	}

	return &Buffer{
		Samples:    mixdown(samples, pcm.Format.NumChannels),
		SampleRate: pcm.Format.SampleRate,
	}, nil
}

func normalize(pcm *audio.IntBuffer, format uint16) ([]float64, error) {
	bits := pcm.SourceBitDepth
	out := make([]float64, len(pcm.Data))

	switch {
	case format == wavFormatFloat && bits == 32:
		for i, v := range pcm.Data {
			out[i] = float64(math.Float32frombits(uint32(int32(v))))
		}
	case format == wavFormatFloat:
		return nil, fmt.Errorf("%w: %d-bit float WAV", ErrFormat, bits)
	case bits == 8:
		for i, v := range pcm.Data {
			out[i] = float64(v-128) / 128
		}
	case bits == 16 || bits == 24 || bits == 32:
		scale := float64(int64(1) << (bits - 1))
		for i, v := range pcm.Data {
			out[i] = float64(v) / scale
		}
	default:
		return nil, fmt.Errorf("%w: %d-bit PCM", ErrFormat, bits)
	}
	return out, nil
}

func mixdown(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	n := len(interleaved) / channels
	mono := make([]float64, n)
	for i := range mono {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
