package mod

import (
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"

    "github.com/go-audio/audio"
    "github.com/go-audio/wav"
)

const instrumentSampleRate = 22050

// instrument names end up in file names
func fileSafeName(name string) string {
    name = strings.Map(func(r rune) rune {
        switch {
            case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
                return r
        }
        return '_'
    }, strings.TrimSpace(name))

    if name == "" {
        return "untitled"
    }
    return name
}

// ExportInstruments writes every instrument that has sample data into directory as an
// 8-bit mono wave file named <instrument>-instrumentNN.wav. Returns the written paths.
func ExportInstruments(song *Song, directory string) ([]string, error) {
    err := os.MkdirAll(directory, 0755)
    if err != nil {
        return nil, err
    }

    var paths []string
    for i := 1; i < len(song.Instruments); i++ {
        instrument := &song.Instruments[i]
        if !instrument.HasData() {
            continue
        }

        path := filepath.Join(directory, fmt.Sprintf("%v-instrument%02d.wav", fileSafeName(instrument.Name), i))
        err := writeInstrument(path, instrument)
        if err != nil {
            return paths, fmt.Errorf("instrument %v: %w", i, err)
        }

        log.Printf("Wrote instrument %v to %v", i, path)
        paths = append(paths, path)
    }

    return paths, nil
}

func writeInstrument(path string, instrument *Instrument) error {
    file, err := os.Create(path)
    if err != nil {
        return err
    }
    defer file.Close()

    encoder := wav.NewEncoder(file, instrumentSampleRate, 8, 1, 1)

    buffer := &audio.IntBuffer{
        Format: &audio.Format{
            NumChannels: 1,
            SampleRate: instrumentSampleRate,
        },
        Data: make([]int, instrument.Length),
        SourceBitDepth: 8,
    }

    // wave files store 8-bit samples unsigned
    for i := range instrument.Length {
        buffer.Data[i] = int(int8(instrument.Data[i])) + 128
    }

    err = encoder.Write(buffer)
    if err != nil {
        return err
    }

    return encoder.Close()
}
