package audio

import (
	"encoding/binary"
	"errors"

	"github.com/zaf/g711"
)

// PCMToULaw converts a 16-bit PCM sample to 8-bit µ-law using ITU-T G.711.
func PCMToULaw(sample int16) byte {
	return g711.EncodeUlawFrame(sample)
}

// ULawToPCM converts an 8-bit µ-law byte to 16-bit PCM using ITU-T G.711.
func ULawToPCM(u byte) int16 {
	return g711.DecodeUlawFrame(u)
}

// PCMBytesToULaw converts 16-bit little-endian PCM bytes to µ-law.
func PCMBytesToULaw(pcm []byte) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, errors.New("PCM byte slice length must be even (16-bit samples)")
	}
	return g711.EncodeUlaw(pcm), nil
}

// ULawBytesToPCM converts µ-law bytes to 16-bit little-endian PCM bytes.
func ULawBytesToPCM(uBytes []byte) []byte {
	return g711.DecodeUlaw(uBytes)
}

// ResamplePCM16 converts mono 16-bit little-endian PCM between sample rates
// by linear interpolation. Good enough for speech headed to an 8 kHz µ-law
// telephony leg; not a substitute for a proper band-limited resampler.
func ResamplePCM16(pcm []byte, fromRate, toRate int) ([]byte, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, errors.New("sample rates must be positive")
	}
	if len(pcm)%2 != 0 {
		return nil, errors.New("PCM byte slice length must be even (16-bit samples)")
	}
	if fromRate == toRate || len(pcm) == 0 {
		return pcm, nil
	}

	inSamples := len(pcm) / 2
	outSamples := inSamples * toRate / fromRate
	out := make([]byte, outSamples*2)
	ratio := float64(fromRate) / float64(toRate)

	for i := 0; i < outSamples; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		s0 := int16(binary.LittleEndian.Uint16(pcm[idx*2:]))
		s1 := s0
		if idx+1 < inSamples {
			s1 = int16(binary.LittleEndian.Uint16(pcm[(idx+1)*2:]))
		}
		sample := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out, nil
}
