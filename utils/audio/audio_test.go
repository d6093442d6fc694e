package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULawRoundTripPreservesSign(t *testing.T) {
	samples := []int16{-20000, -1000, -1, 0, 1, 1000, 20000}
	for _, sample := range samples {
		decoded := ULawToPCM(PCMToULaw(sample))
		if sample > 0 {
			assert.Greater(t, decoded, int16(0))
		}
		if sample < 0 {
			assert.Less(t, decoded, int16(0))
		}
	}
}

func TestPCMBytesToULawRejectsOddLength(t *testing.T) {
	_, err := PCMBytesToULaw([]byte{0x01, 0x02, 0x03})
	assert.Error(t, err)
}

func TestPCMBytesToULawHalvesSize(t *testing.T) {
	pcm := make([]byte, 320)
	encoded, err := PCMBytesToULaw(pcm)
	require.NoError(t, err)
	assert.Len(t, encoded, 160)
}

func TestULawBytesToPCMDoublesSize(t *testing.T) {
	assert.Len(t, ULawBytesToPCM(make([]byte, 160)), 320)
}

func TestResamplePCM16Downsample(t *testing.T) {
	// 24 kHz -> 8 kHz keeps one sample in three.
	pcm := make([]byte, 24*2)
	for i := 0; i < 24; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(i*100)))
	}

	out, err := ResamplePCM16(pcm, 24000, 8000)
	require.NoError(t, err)
	assert.Len(t, out, 8*2)

	first := int16(binary.LittleEndian.Uint16(out))
	second := int16(binary.LittleEndian.Uint16(out[2:]))
	assert.Equal(t, int16(0), first)
	assert.Equal(t, int16(300), second)
}

func TestResamplePCM16SameRateIsIdentity(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	out, err := ResamplePCM16(pcm, 16000, 16000)
	require.NoError(t, err)
	assert.Equal(t, pcm, out)
}

func TestResamplePCM16Validation(t *testing.T) {
	_, err := ResamplePCM16([]byte{0x01}, 24000, 8000)
	assert.Error(t, err)

	_, err = ResamplePCM16([]byte{0x01, 0x02}, 0, 8000)
	assert.Error(t, err)
}
