package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

const WAVHeaderSize = 44

// EncodeWAV wraps raw samples in a standard PCM WAV container at the fixed
// capture format (16 kHz mono s16le).
func EncodeWAV(pcm []int16) []byte {
	dataSize := len(pcm) * 2
	buf := make([]byte, WAVHeaderSize+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(WAVHeaderSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], Channels)
	binary.LittleEndian.PutUint32(buf[24:28], SampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], SampleRate*Channels*2) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], Channels*2)            // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16)                    // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range pcm {
		binary.LittleEndian.PutUint16(buf[WAVHeaderSize+i*2:], uint16(s))
	}
	return buf
}

// WriteWAV writes samples to path as a WAV file.
func WriteWAV(path string, pcm []int16) error {
	if err := os.WriteFile(path, EncodeWAV(pcm), 0644); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}
	return nil
}
