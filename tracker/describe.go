package main

import (
    "fmt"
    "strings"

    "github.com/kazzmir/modplayer/equalizer"
    "github.com/kazzmir/modplayer/mod"

    "github.com/fatih/color"
)

func describeSong(song *mod.Song) {
    keyColor := color.New(color.FgCyan, color.Bold)
    valueColor := color.New(color.FgWhite)

    song.Describe(func(key string, value string) {
        if value == "" {
            return
        }
        fmt.Printf("%v %v\n", keyColor.Sprintf("%-14v", key + ":"), valueColor.Sprint(value))
    })
}

func printKeyHelp(bands int) {
    help := color.New(color.FgYellow)
    bands = min(bands, len(bandUpKeys))

    help.Printf("Keys: %v raise band, %v lower band, %v reset band\r\n", bandUpKeys[:bands], bandDownKeys[:bands], bandResetKeys[:bands])
    help.Printf("      space equalizer on/off, < > previous/next order, m mute, esc quit\r\n")
}

func equalizerStatus(eq *equalizer.Equalizer) string {
    if eq == nil {
        return "equalizer: none"
    }

    var out strings.Builder
    if eq.IsActive() {
        out.WriteString("equalizer on: ")
    } else {
        out.WriteString("equalizer off:")
    }

    for band, frequency := range eq.Frequencies() {
        gain, _ := eq.BandGain(band)
        if frequency >= 1000 {
            fmt.Fprintf(&out, " %.1fk=%+.0f", frequency / 1000, gain)
        } else {
            fmt.Fprintf(&out, " %.0f=%+.0f", frequency, gain)
        }
    }

    return out.String()
}

func printStatus(message string) {
    fmt.Printf("\r\n%v\r\n", color.GreenString(message))
}
