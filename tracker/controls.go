package main

import (
    "log"
    "strings"

    "github.com/kazzmir/modplayer/equalizer"
    "github.com/kazzmir/modplayer/mod"
)

const (
    // one key per equalizer band, band 0 is the first key of each row
    bandUpKeys = "1234567890"
    bandDownKeys = "qwertyuiop"
    bandResetKeys = "asdfghjkl;"

    gainStep = 1.0

    keyEscape = 27
    keyControlC = 3
)

// Controls turns key presses into player and equalizer changes. Both the console and
// the window use it.
type Controls struct {
    Player *mod.Player
    Equalizer *equalizer.Equalizer
    // called after something that should be shown changed
    OnChange func(message string)
}

func (controls *Controls) notify(message string) {
    if controls.OnChange != nil {
        controls.OnChange(message)
    }
}

func (controls *Controls) adjustBand(band int, delta float64, reset bool) {
    if controls.Equalizer == nil || band >= controls.Equalizer.Bands() {
        return
    }

    gain, err := controls.Equalizer.BandGain(band)
    if err != nil {
        return
    }

    if reset {
        gain = 0
    } else {
        gain = min(max(gain + delta, -equalizer.MaxGain), equalizer.MaxGain)
    }

    err = controls.Equalizer.SetBandGain(band, gain)
    if err != nil {
        log.Printf("Unable to set band %v: %v", band, err)
        return
    }

    controls.notify(equalizerStatus(controls.Equalizer))
}

func (controls *Controls) jump(delta int) {
    length := controls.Player.SongLength()
    if length == 0 {
        return
    }

    order := (controls.Player.CurrentOrder() + delta + length) % length
    err := controls.Player.JumpToOrder(order)
    if err != nil {
        log.Printf("Unable to jump to order %v: %v", order, err)
    }
}

// HandleKey applies the action bound to key. Returns false if the key asks to quit.
func (controls *Controls) HandleKey(key rune) bool {
    if band := strings.IndexRune(bandUpKeys, key); band >= 0 {
        controls.adjustBand(band, gainStep, false)
        return true
    }
    if band := strings.IndexRune(bandDownKeys, key); band >= 0 {
        controls.adjustBand(band, -gainStep, false)
        return true
    }
    if band := strings.IndexRune(bandResetKeys, key); band >= 0 {
        controls.adjustBand(band, 0, true)
        return true
    }

    switch key {
        case keyEscape, keyControlC, 'x':
            return false
        case ' ':
            if controls.Equalizer != nil {
                controls.Equalizer.SetActive(!controls.Equalizer.IsActive())
                controls.notify(equalizerStatus(controls.Equalizer))
            }
        case '<', ',':
            controls.jump(-1)
        case '>', '.':
            controls.jump(1)
        case 'm':
            mute := !controls.Player.IsMuted(0)
            controls.Player.MuteAll(mute)
            if mute {
                controls.notify("all tracks muted")
            } else {
                controls.notify("all tracks playing")
            }
    }

    return true
}
