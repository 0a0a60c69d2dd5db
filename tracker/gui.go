package main

import (
    "image/color"
    "io"
    "time"

    "github.com/kazzmir/modplayer/common"
    "github.com/kazzmir/modplayer/equalizer"
    "github.com/kazzmir/modplayer/mod"

    "github.com/hajimehoshi/ebiten/v2"
    "github.com/hajimehoshi/ebiten/v2/audio"
    "github.com/hajimehoshi/ebiten/v2/inpututil"
    "github.com/hajimehoshi/ebiten/v2/vector"

    "github.com/ebitenui/ebitenui"
)

const scopeHeight = 120

// EbitenDevice plays the player through ebiten's audio context, which wants signed
// 16-bit stereo
type EbitenDevice struct {
    Context *audio.Context
    player *audio.Player
}

func (device *EbitenDevice) Start(reader io.Reader) error {
    player, err := device.Context.NewPlayer(reader)
    if err != nil {
        return err
    }
    player.SetBufferSize(time.Second / 10)
    player.Play()
    device.player = player
    return nil
}

func (device *EbitenDevice) Stop() error {
    if device.player == nil {
        return nil
    }
    err := device.player.Close()
    device.player = nil
    return err
}

var keyRunes = map[ebiten.Key]rune{
    ebiten.KeyEscape: keyEscape,
    ebiten.KeySpace: ' ',
    ebiten.KeyComma: ',',
    ebiten.KeyPeriod: '.',
    ebiten.KeyArrowLeft: ',',
    ebiten.KeyArrowRight: '.',
    ebiten.KeyM: 'm',
    ebiten.KeyDigit1: '1', ebiten.KeyDigit2: '2', ebiten.KeyDigit3: '3', ebiten.KeyDigit4: '4', ebiten.KeyDigit5: '5',
    ebiten.KeyDigit6: '6', ebiten.KeyDigit7: '7', ebiten.KeyDigit8: '8', ebiten.KeyDigit9: '9', ebiten.KeyDigit0: '0',
    ebiten.KeyQ: 'q', ebiten.KeyW: 'w', ebiten.KeyE: 'e', ebiten.KeyR: 'r', ebiten.KeyT: 't',
    ebiten.KeyY: 'y', ebiten.KeyU: 'u', ebiten.KeyI: 'i', ebiten.KeyO: 'o', ebiten.KeyP: 'p',
    ebiten.KeyA: 'a', ebiten.KeyS: 's', ebiten.KeyD: 'd', ebiten.KeyF: 'f', ebiten.KeyG: 'g',
    ebiten.KeyH: 'h', ebiten.KeyJ: 'j', ebiten.KeyK: 'k', ebiten.KeyL: 'l', ebiten.KeySemicolon: ';',
}

type Tracker struct {
    Player *mod.Player
    Controls Controls
    Scope *common.AudioBuffer
    UI *ebitenui.UI
    Hooks UIHooks

    scopeData []float32
    lastOrder int
    lastRow int
    lastSpeed int
    lastBPM int
    lastMuted bool
}

func (tracker *Tracker) Update() error {
    keys := inpututil.AppendJustPressedKeys(nil)
    for _, key := range keys {
        value, ok := keyRunes[key]
        if ok && !tracker.Controls.HandleKey(value) {
            return ebiten.Termination
        }
    }

    player := tracker.Player

    order := player.CurrentOrder()
    muted := player.IsMuted(0)
    if order != tracker.lastOrder || muted != tracker.lastMuted {
        tracker.lastOrder = order
        tracker.lastMuted = muted
        tracker.Hooks.UpdateOrder(order, player.CurrentPattern())
    }

    row := player.CurrentRow()
    if row != tracker.lastRow {
        tracker.lastRow = row
        tracker.Hooks.UpdateRow(row)
    }

    speed := player.Speed()
    bpm := player.BPM()
    if speed != tracker.lastSpeed || bpm != tracker.lastBPM {
        tracker.lastSpeed = speed
        tracker.lastBPM = bpm
        tracker.Hooks.UpdateSpeed(speed, bpm)
    }

    tracker.UI.Update()
    return nil
}

// draw the newest output samples along the bottom of the window
func (tracker *Tracker) drawScope(screen *ebiten.Image) {
    bounds := screen.Bounds()
    width := bounds.Dx()
    if width < 2 {
        return
    }

    if len(tracker.scopeData) != width {
        tracker.scopeData = make([]float32, width)
    }
    count := tracker.Scope.Peek(tracker.scopeData)

    top := float32(bounds.Dy() - scopeHeight)
    middle := top + scopeHeight / 2
    vector.DrawFilledRect(screen, 0, top, float32(width), scopeHeight, color.NRGBA{R: 16, G: 16, B: 16, A: 255}, false)

    lineColor := color.NRGBA{R: 80, G: 220, B: 80, A: 255}
    for x := 1; x < count; x++ {
        y0 := middle - tracker.scopeData[x - 1] * scopeHeight / 2
        y1 := middle - tracker.scopeData[x] * scopeHeight / 2
        vector.StrokeLine(screen, float32(x - 1), y0, float32(x), y1, 1, lineColor, true)
    }
}

func (tracker *Tracker) Draw(screen *ebiten.Image) {
    tracker.UI.Draw(screen)
    tracker.drawScope(screen)
}

func (tracker *Tracker) Layout(outsideWidth, outsideHeight int) (int, int) {
    return outsideWidth, outsideHeight
}

// runGui plays the song in a window showing the pattern and an oscilloscope
func runGui(player *mod.Player, eq *equalizer.Equalizer) error {
    ebiten.SetTPS(60)
    ebiten.SetWindowSize(1024, 768)
    ebiten.SetWindowTitle("Mod Player")
    ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

    scope := common.MakeAudioBuffer(player.SampleRate() / 10)
    player.SetScope(scope)
    defer player.SetScope(nil)

    err := player.SetDevice(&EbitenDevice{Context: audio.NewContext(player.SampleRate())})
    if err != nil {
        return err
    }

    ui, hooks, err := makeUI(player, equalizerStatus(eq))
    if err != nil {
        return err
    }

    tracker := &Tracker{
        Player: player,
        Controls: Controls{
            Player: player,
            Equalizer: eq,
            OnChange: hooks.UpdateStatus,
        },
        Scope: scope,
        UI: ui,
        Hooks: hooks,
        lastOrder: player.CurrentOrder(),
        lastRow: -1,
    }

    err = player.Play()
    if err != nil {
        return err
    }
    defer player.Stop()

    err = ebiten.RunGame(tracker)
    if err == ebiten.Termination {
        return nil
    }
    return err
}
