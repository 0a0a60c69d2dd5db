package mod

import (
    "encoding/binary"
    "fmt"
    "io"

    "github.com/kazzmir/modplayer/common"

    "github.com/go-audio/audio"
    "github.com/go-audio/wav"
)

// WriteWave renders milliseconds of the prepared song into a PCM wave file with the
// player's sample rate, bit depth and channel count
func (player *Player) WriteWave(writer io.WriteSeeker, milliseconds int) error {
    if milliseconds < 0 {
        return fmt.Errorf("%w: duration %vms", common.ErrInvalidParameter, milliseconds)
    }

    player.lock.Lock()
    prepared := player.song != nil
    sampleRate := player.sampleRate
    bits := player.bitsPerSample
    channels := player.layout.Channels()
    player.lock.Unlock()

    if !prepared {
        return ErrNotPrepared
    }

    encoder := wav.NewEncoder(writer, sampleRate, bits, channels, 1)

    frameSize := bits / 8 * channels
    totalFrames := int(int64(sampleRate) * int64(milliseconds) / 1000)
    chunkFrames := max(sampleRate / 8, 1)

    raw := make([]byte, chunkFrames * frameSize)
    buffer := &audio.IntBuffer{
        Format: &audio.Format{
            NumChannels: channels,
            SampleRate: sampleRate,
        },
        Data: make([]int, chunkFrames * channels),
        SourceBitDepth: bits,
    }

    for written := 0; written < totalFrames; {
        frames := min(chunkFrames, totalFrames - written)
        count, err := player.Read(raw[:frames * frameSize])
        if err != nil {
            return err
        }

        samples := count * 8 / bits
        buffer.Data = buffer.Data[:samples]
        for i := range samples {
            if bits == 8 {
                buffer.Data[i] = int(raw[i])
            } else {
                buffer.Data[i] = int(int16(binary.LittleEndian.Uint16(raw[i * 2:])))
            }
        }

        err = encoder.Write(buffer)
        if err != nil {
            return err
        }

        written += frames
    }

    return encoder.Close()
}
