package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Format describes 16-bit little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is what the player opens the device with.
var DefaultFormat = Format{SampleRate: 44100, Channels: 1}

const bytesPerSample = 2

// FrameSize returns the number of bytes per frame.
func (f Format) FrameSize() int {
	return bytesPerSample * f.Channels
}

// Duration returns how long n bytes of audio play for.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := n / f.FrameSize()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Validate checks that data holds whole frames.
func (f Format) Validate(data []byte) error {
	if f.FrameSize() <= 0 {
		return fmt.Errorf("invalid format with %d channels", f.Channels)
	}
	if len(data) == 0 {
		return errors.New("empty PCM data")
	}
	if len(data)%f.FrameSize() != 0 {
		return fmt.Errorf("PCM data length %d is not aligned to %d-byte frames", len(data), f.FrameSize())
	}
	return nil
}

// Resample converts mono PCM between sample rates with linear
// interpolation.
func Resample(input []byte, from, to int) ([]byte, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", from, to)
	}
	if from == to || len(input) < 2*bytesPerSample {
		return input, nil
	}

	in := make([]int16, len(input)/bytesPerSample)
	for i := range in {
		in[i] = int16(binary.LittleEndian.Uint16(input[i*bytesPerSample:]))
	}

	ratio := float64(to) / float64(from)
	outSamples := int(float64(len(in)) * ratio)
	out := make([]byte, outSamples*bytesPerSample)
	for i := 0; i < outSamples; i++ {
		pos := float64(i) / ratio
		idx := int(pos)
		var v float64
		if idx >= len(in)-1 {
			v = float64(in[len(in)-1])
		} else {
			frac := pos - float64(idx)
			v = float64(in[idx])*(1-frac) + float64(in[idx+1])*frac
		}
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(int16(math.Round(v))))
	}
	return out, nil
}

// Tone returns d of a sine wave at freq Hz in f, at half amplitude.
func Tone(f Format, freq float64, d time.Duration) []byte {
	frames := int(d.Seconds() * float64(f.SampleRate))
	out := make([]byte, frames*f.FrameSize())
	for i := 0; i < frames; i++ {
		v := int16(math.Sin(2*math.Pi*freq*float64(i)/float64(f.SampleRate)) * math.MaxInt16 / 2)
		for ch := 0; ch < f.Channels; ch++ {
			binary.LittleEndian.PutUint16(out[(i*f.Channels+ch)*bytesPerSample:], uint16(v))
		}
	}
	return out
}
