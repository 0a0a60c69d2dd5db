package mod

import (
    "errors"
    "fmt"
    "io"
    "log"
    "sync"

    "github.com/kazzmir/modplayer/common"
)

var ErrNotPrepared = errors.New("player has no song prepared")
var ErrNoDevice = errors.New("player has no output device")

const (
    DefaultSpeed = 6
    DefaultBPM = 125
    DefaultMasterVolume = 64
)

type Layout int

const (
    LayoutMono Layout = iota
    LayoutStereo
    // stereo where each side also gets some of the other
    LayoutStereoPan
    // stereo where each side gets the other delayed by about 23ms
    LayoutSurround
)

func (layout Layout) Channels() int {
    if layout == LayoutMono {
        return 1
    }
    return 2
}

func (layout Layout) String() string {
    switch layout {
        case LayoutMono: return "mono"
        case LayoutStereo: return "stereo"
        case LayoutStereoPan: return "pan"
        case LayoutSurround: return "surround"
    }
    return fmt.Sprintf("layout %d", int(layout))
}

func ParseLayout(name string) (Layout, error) {
    for _, layout := range []Layout{LayoutMono, LayoutStereo, LayoutStereoPan, LayoutSurround} {
        if layout.String() == name {
            return layout, nil
        }
    }
    return LayoutMono, fmt.Errorf("%w: unknown layout '%v'", common.ErrInvalidParameter, name)
}

// Device plays whatever it reads from the player
type Device interface {
    Start(reader io.Reader) error
    Stop() error
}

// Equalizer filters the left/right accumulation buffers before they are converted
type Equalizer interface {
    Process(left []int, right []int)
}

// Player renders a song to PCM. Read is driven by the audio device while the control
// methods can be called from any goroutine. Every method takes the same lock, so a
// control change is seen between two reads and never in the middle of one.
type Player struct {
    lock sync.Mutex

    // separate from lock so stopping a device never waits for a read to finish
    deviceLock sync.Mutex
    device Device
    playing bool

    song *Song
    sampleRate int
    bitsPerSample int
    layout Layout
    masterVolume int
    stereoPan int
    interpolate bool

    volumes *VolumeTable
    channels []Channel
    muted []bool
    // fine-tune per instrument, starts as the song's and is changed by E5x
    fineTunes []int
    unknownEffects map[Effect]bool

    order int
    row int
    tick int
    speed int
    bpm int
    tickSamplesLeft int
    patternDelay int

    // position of the row that is sounding
    playingOrder int
    playingRow int
    currentRow *Row

    equalizer Equalizer
    scope *common.AudioBuffer

    left []int
    right []int
    scopeData []float32
    surroundLeft []int
    surroundRight []int
}

func MakePlayer() *Player {
    return &Player{
        masterVolume: DefaultMasterVolume,
        speed: DefaultSpeed,
        bpm: DefaultBPM,
    }
}

// PrepareToPlay resets all playback state for song. Nothing is kept from a previous
// song except the device, equalizer, scope, pan and interpolation settings.
func (player *Player) PrepareToPlay(song *Song, sampleRate int, bitsPerSample int, layout Layout, masterVolume int) error {
    if song == nil {
        return fmt.Errorf("%w: no song", common.ErrInvalidParameter)
    }
    err := song.Validate()
    if err != nil {
        return err
    }
    if sampleRate <= 0 {
        return fmt.Errorf("%w: sample rate %v", common.ErrInvalidParameter, sampleRate)
    }
    if bitsPerSample != 8 && bitsPerSample != 16 {
        return fmt.Errorf("%w: %v bits per sample", common.ErrInvalidParameter, bitsPerSample)
    }
    if layout < LayoutMono || layout > LayoutSurround {
        return fmt.Errorf("%w: %v", common.ErrInvalidParameter, layout)
    }
    if masterVolume < 0 || masterVolume > MaxVolume {
        return fmt.Errorf("%w: master volume %v", common.ErrInvalidParameter, masterVolume)
    }

    player.lock.Lock()
    defer player.lock.Unlock()

    player.song = song
    player.sampleRate = sampleRate
    player.bitsPerSample = bitsPerSample
    player.layout = layout
    player.masterVolume = masterVolume
    player.volumes = MakeVolumeTable(masterVolume)

    player.channels = make([]Channel, song.Tracks)
    for i := range player.channels {
        player.channels[i] = MakeChannel()
    }
    player.muted = make([]bool, song.Tracks)

    player.fineTunes = make([]int, len(song.Instruments))
    for i, instrument := range song.Instruments {
        player.fineTunes[i] = instrument.FineTune
    }
    player.unknownEffects = make(map[Effect]bool)

    player.order = 0
    player.row = 0
    player.tick = 0
    player.speed = DefaultSpeed
    player.bpm = DefaultBPM
    player.tickSamplesLeft = 0
    player.patternDelay = 0
    player.playingOrder = 0
    player.playingRow = 0
    player.currentRow = nil

    // about 23ms
    delay := sampleRate / 44
    player.surroundLeft = make([]int, delay)
    player.surroundRight = make([]int, delay)

    // the scope keeps showing the previous song otherwise
    if player.scope != nil {
        player.scope.Clear()
    }

    return nil
}

// SamplesPerTick is the number of frames one tick lasts at the current tempo
func (player *Player) SamplesPerTick() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.samplesPerTick()
}

func (player *Player) samplesPerTick() int {
    return max(player.sampleRate / (player.bpm * 2 / 5), 1)
}

func (player *Player) frameSize() int {
    return player.bitsPerSample / 8 * player.layout.Channels()
}

// FrameSize is the number of bytes of one output frame, 0 before PrepareToPlay
func (player *Player) FrameSize() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    if player.song == nil {
        return 0
    }
    return player.frameSize()
}

// grow the scratch buffers, after warm up reads do not allocate
func (player *Player) reserve(frames int) {
    if cap(player.left) < frames {
        player.left = make([]int, frames)
        player.right = make([]int, frames)
        player.scopeData = make([]float32, frames)
    }
}

// Read fills data with as many whole frames as fit and advances the song by that
// many samples
func (player *Player) Read(data []byte) (int, error) {
    player.lock.Lock()
    defer player.lock.Unlock()

    if player.song == nil {
        return 0, ErrNotPrepared
    }

    frameSize := player.frameSize()
    frames := len(data) / frameSize
    if frames == 0 {
        return 0, nil
    }

    player.reserve(frames)
    left := player.left[:frames]
    right := player.right[:frames]

    position := 0
    for position < frames {
        if player.tickSamplesLeft == 0 {
            player.nextTick()
        }

        count := min(player.tickSamplesLeft, frames - position)
        player.tickSamplesLeft -= count
        player.mix(left[position:position + count], right[position:position + count])
        position += count
    }

    if player.equalizer != nil {
        player.equalizer.Process(left, right)
    }

    player.writeOutput(left, right, data[:frames * frameSize])

    if player.scope != nil {
        scope := player.scopeData[:frames]
        for i := range frames {
            scope[i] = float32(left[i] + right[i]) / 65536
        }
        player.scope.Write(scope)
    }

    return frames * frameSize, nil
}

func (player *Player) nextTick() {
    player.tickSamplesLeft = player.samplesPerTick()

    if player.tick == 0 {
        if player.patternDelay > 0 {
            player.patternDelay -= 1
        } else {
            player.processRow()
        }
    } else {
        player.processTick()
    }

    player.tick += 1
    if player.tick >= player.speed {
        player.tick = 0
    }
}

// Play starts the device with the player as its source. Does nothing if already playing.
func (player *Player) Play() error {
    player.deviceLock.Lock()
    defer player.deviceLock.Unlock()

    if player.playing {
        return nil
    }

    if player.device == nil {
        return ErrNoDevice
    }

    player.lock.Lock()
    prepared := player.song != nil
    player.lock.Unlock()
    if !prepared {
        return ErrNotPrepared
    }

    err := player.device.Start(player)
    if err != nil {
        return err
    }

    player.playing = true
    return nil
}

// Stop halts the device. Safe to call when not playing.
func (player *Player) Stop() error {
    player.deviceLock.Lock()
    defer player.deviceLock.Unlock()

    if !player.playing {
        return nil
    }

    player.playing = false
    return player.device.Stop()
}

func (player *Player) IsPlaying() bool {
    player.deviceLock.Lock()
    defer player.deviceLock.Unlock()
    return player.playing
}

// SetDevice replaces the output device, stopping the current one first
func (player *Player) SetDevice(device Device) error {
    err := player.Stop()

    player.deviceLock.Lock()
    player.device = device
    player.deviceLock.Unlock()

    return err
}

// SetStereoPan sets how much of each side is blended into the other in LayoutStereoPan,
// 0 disables the blend
func (player *Player) SetStereoPan(pan int) error {
    if pan < 0 || pan > 100 {
        return fmt.Errorf("%w: stereo pan %v", common.ErrInvalidParameter, pan)
    }

    player.lock.Lock()
    defer player.lock.Unlock()
    player.stereoPan = pan
    return nil
}

func (player *Player) StereoPan() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.stereoPan
}

func (player *Player) MuteTrack(track int, mute bool) error {
    player.lock.Lock()
    defer player.lock.Unlock()

    if track < 0 || track >= len(player.muted) {
        return fmt.Errorf("%w: track %v of %v", common.ErrInvalidParameter, track, len(player.muted))
    }

    player.muted[track] = mute
    return nil
}

func (player *Player) MuteAll(mute bool) {
    player.lock.Lock()
    defer player.lock.Unlock()

    for i := range player.muted {
        player.muted[i] = mute
    }
}

func (player *Player) IsMuted(track int) bool {
    player.lock.Lock()
    defer player.lock.Unlock()

    if track < 0 || track >= len(player.muted) {
        return false
    }
    return player.muted[track]
}

// JumpToOrder continues playback at the first row of order
func (player *Player) JumpToOrder(order int) error {
    player.lock.Lock()
    defer player.lock.Unlock()

    if player.song == nil {
        return ErrNotPrepared
    }
    if order < 0 || order >= player.song.SongLength {
        return fmt.Errorf("%w: order %v of %v", common.ErrInvalidParameter, order, player.song.SongLength)
    }

    player.order = order
    player.row = 0
    player.tick = 0
    player.tickSamplesLeft = 0
    player.patternDelay = 0
    player.playingOrder = order
    player.playingRow = 0
    return nil
}

func (player *Player) SetMasterVolume(volume int) error {
    if volume < 0 || volume > MaxVolume {
        return fmt.Errorf("%w: master volume %v", common.ErrInvalidParameter, volume)
    }

    // build outside the lock, reads only wait for the swap
    volumes := MakeVolumeTable(volume)

    player.lock.Lock()
    defer player.lock.Unlock()
    player.masterVolume = volume
    player.volumes = volumes
    return nil
}

func (player *Player) MasterVolume() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.masterVolume
}

// SetInterpolation switches the mixer between nearest sample and linear interpolation
func (player *Player) SetInterpolation(enabled bool) {
    player.lock.Lock()
    defer player.lock.Unlock()
    player.interpolate = enabled
}

// SetEqualizer installs a filter run on every read, nil removes it
func (player *Player) SetEqualizer(equalizer Equalizer) {
    player.lock.Lock()
    defer player.lock.Unlock()
    player.equalizer = equalizer
}

// SetScope makes every read also write its mono output, in -1..1, to scope
func (player *Player) SetScope(scope *common.AudioBuffer) {
    player.lock.Lock()
    defer player.lock.Unlock()
    player.scope = scope
}

func (player *Player) SampleRate() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.sampleRate
}

func (player *Player) BitsPerSample() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.bitsPerSample
}

func (player *Player) Layout() Layout {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.layout
}

func (player *Player) Song() *Song {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.song
}

func (player *Player) Name() string {
    player.lock.Lock()
    defer player.lock.Unlock()
    if player.song == nil {
        return ""
    }
    return player.song.Name
}

func (player *Player) CurrentOrder() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.playingOrder
}

func (player *Player) CurrentRow() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.playingRow
}

// CurrentPattern is the pattern of the order being played
func (player *Player) CurrentPattern() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    if player.song == nil {
        return 0
    }
    return player.song.Orders[player.playingOrder]
}

func (player *Player) Speed() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.speed
}

func (player *Player) BPM() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    return player.bpm
}

func (player *Player) SongLength() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    if player.song == nil {
        return 0
    }
    return player.song.SongLength
}

func (player *Player) ChannelCount() int {
    player.lock.Lock()
    defer player.lock.Unlock()
    return len(player.channels)
}

// ChannelState returns a copy of the playback state of track
func (player *Player) ChannelState(track int) (Channel, error) {
    player.lock.Lock()
    defer player.lock.Unlock()

    if track < 0 || track >= len(player.channels) {
        return Channel{}, fmt.Errorf("%w: track %v of %v", common.ErrInvalidParameter, track, len(player.channels))
    }
    return player.channels[track], nil
}

// RowNoteInfo describes the note at track and row of the pattern being played
func (player *Player) RowNoteInfo(track int, row int) common.NoteInfo {
    player.lock.Lock()
    defer player.lock.Unlock()

    if player.song == nil {
        return &Note{Period: -1, PitchIndex: -1}
    }

    pattern := &player.song.Patterns[player.song.Orders[player.playingOrder]]
    if row < 0 || row >= len(pattern.Rows) || track < 0 || track >= len(pattern.Rows[row].Notes) {
        return &Note{Period: -1, PitchIndex: -1}
    }

    note := pattern.Rows[row].Notes[track]
    return &note
}

// log an unknown effect the first time it shows up
func (player *Player) warnUnknownEffect(note *Note, track int) {
    if player.unknownEffects[note.EffectNumber] {
        return
    }
    player.unknownEffects[note.EffectNumber] = true
    log.Printf("Warning: unknown effect %X with parameter %02X at pattern %v row %v track %v", uint8(note.EffectNumber), note.EffectParameter, player.song.Orders[player.playingOrder], player.playingRow, track)
}
