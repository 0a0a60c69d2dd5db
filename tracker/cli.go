package main

import (
    "fmt"
    "io"
    "log"
    "time"

    "github.com/kazzmir/modplayer/equalizer"
    "github.com/kazzmir/modplayer/mod"

    "github.com/ebitengine/oto/v3"
)

// OtoDevice plays the player through the system audio output
type OtoDevice struct {
    context *oto.Context
    player *oto.Player
    bufferSize int
}

// MakeOtoDevice opens the audio output. oto allows one context per process.
func MakeOtoDevice(sampleRate int, channels int, bitsPerSample int) (*OtoDevice, error) {
    var options oto.NewContextOptions
    options.SampleRate = sampleRate
    options.ChannelCount = channels
    options.Format = oto.FormatSignedInt16LE
    if bitsPerSample == 8 {
        options.Format = oto.FormatUnsignedInt8
    }

    context, ready, err := oto.NewContext(&options)
    if err != nil {
        return nil, err
    }

    log.Printf("Waiting for audio context to be ready...")
    <-ready

    return &OtoDevice{
        context: context,
        // 50ms
        bufferSize: sampleRate * channels * bitsPerSample / 8 / 20,
    }, nil
}

func (device *OtoDevice) Start(reader io.Reader) error {
    device.player = device.context.NewPlayer(reader)
    device.player.SetBufferSize(device.bufferSize)
    device.player.Play()
    return device.player.Err()
}

func (device *OtoDevice) Stop() error {
    if device.player == nil {
        return nil
    }
    err := device.player.Close()
    device.player = nil
    return err
}

// runConsole plays until the user quits, reading keys from the terminal
func runConsole(player *mod.Player, eq *equalizer.Equalizer) error {
    device, err := MakeOtoDevice(player.SampleRate(), player.Layout().Channels(), player.BitsPerSample())
    if err != nil {
        return err
    }

    err = player.SetDevice(device)
    if err != nil {
        return err
    }

    keyboard, err := MakeKeyboard()
    if err != nil {
        return fmt.Errorf("live playback needs a terminal: %w", err)
    }
    defer keyboard.Restore()

    err = player.Play()
    if err != nil {
        return err
    }
    defer player.Stop()

    bands := 0
    if eq != nil {
        bands = eq.Bands()
    }
    printKeyHelp(bands)

    controls := Controls{
        Player: player,
        Equalizer: eq,
        OnChange: printStatus,
    }

    ticker := time.NewTicker(100 * time.Millisecond)
    defer ticker.Stop()

    lastOrder, lastRow := -1, -1
    for {
        select {
            case key, ok := <-keyboard.Keys:
                if !ok || !controls.HandleKey(key) {
                    fmt.Print("\r\n")
                    return nil
                }
            case <-ticker.C:
                order := player.CurrentOrder()
                row := player.CurrentRow()
                if order != lastOrder || row != lastRow {
                    fmt.Printf("\rorder %3d/%-3d pattern %02X row %02X speed %d bpm %3d ", order, player.SongLength(), player.CurrentPattern(), row, player.Speed(), player.BPM())
                    lastOrder = order
                    lastRow = row
                }
        }
    }
}
