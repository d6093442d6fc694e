package core

import "fmt"

type AudioEncodingFormat int

const (
	WAV  AudioEncodingFormat = iota // RIFF/WAVE container with 16-bit PCM.
	MP3                             // MPEG-1 Audio Layer III.
	PCM                             // Raw 16-bit little-endian PCM.
	ULAW                            // µ-law (ITU-T G.711), 8 kHz telephony.
)

func (f AudioEncodingFormat) String() string {
	switch f {
	case WAV:
		return "wav"
	case MP3:
		return "mp3"
	case PCM:
		return "pcm"
	case ULAW:
		return "ulaw"
	default:
		return "unknown"
	}
}

// ParseAudioEncodingFormat maps a config value like "wav" to its format.
func ParseAudioEncodingFormat(s string) (AudioEncodingFormat, error) {
	switch s {
	case "wav", "":
		return WAV, nil
	case "mp3":
		return MP3, nil
	case "pcm":
		return PCM, nil
	case "ulaw":
		return ULAW, nil
	default:
		return WAV, fmt.Errorf("unknown audio encoding format %q", s)
	}
}
