package mod

import (
    "bytes"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "testing"

    "github.com/kazzmir/modplayer/common"

    "github.com/go-audio/wav"
)

type fakeDevice struct {
    starts int
    stops int
    reader io.Reader
    err error
}

func (device *fakeDevice) Start(reader io.Reader) error {
    if device.err != nil {
        return device.err
    }
    device.starts += 1
    device.reader = reader
    return nil
}

func (device *fakeDevice) Stop() error {
    device.stops += 1
    return nil
}

// zeroes the left side
type muteLeft struct {
    calls int
}

func (equalizer *muteLeft) Process(left []int, right []int) {
    equalizer.calls += 1
    clear(left)
}

// one note of instrument 1 on each given track, then silence
func noteSong(tracks ...int) *Song {
    song := makeTestSong(4, 2)
    for _, track := range tracks {
        setNote(song, 0, 0, track, testNote(noteC2, 1, EffectArpeggio, 0))
    }
    return song
}

func readFrames(t *testing.T, player *Player, frames int) []byte {
    data := make([]byte, frames * player.FrameSize())
    count, err := player.Read(data)
    if err != nil {
        t.Fatalf("Read: %v", err)
    }
    if count != len(data) {
        t.Fatalf("Read returned %v bytes, want %v", count, len(data))
    }
    return data
}

func sides(values []int) ([]int, []int) {
    var left, right []int
    for i := 0; i + 1 < len(values); i += 2 {
        left = append(left, values[i])
        right = append(right, values[i + 1])
    }
    return left, right
}

func allZero(values []int) bool {
    for _, value := range values {
        if value != 0 {
            return false
        }
    }
    return true
}

func TestReadRouting(t *testing.T) {
    tests := []struct {
        name string
        tracks []int
        left bool
        right bool
    }{
        {"track 0", []int{0}, true, false},
        {"track 1", []int{1}, false, true},
        {"track 2", []int{2}, false, true},
        {"track 3", []int{3}, true, false},
        {"none", nil, false, false},
    }

    for _, test := range tests {
        t.Run(test.name, func(t *testing.T) {
            player := preparedPlayer(noteSong(test.tracks...), 44100, 16, LayoutStereo)
            frames := player.SamplesPerTick() * player.Speed()
            left, right := sides(decode16(readFrames(t, player, frames)))

            if allZero(left) == test.left {
                t.Errorf("left side sounding = %v, want %v", !allZero(left), test.left)
            }
            if allZero(right) == test.right {
                t.Errorf("right side sounding = %v, want %v", !allZero(right), test.right)
            }
        })
    }
}

// routing of a module decoded from ProTracker bytes, one track sounding at a time
func TestLoadedRouting(t *testing.T) {
    for track, left := range []bool{true, false, false, true} {
        t.Run(fmt.Sprintf("track %v", track), func(t *testing.T) {
            module := makeTestModule("M.K.", 4)
            module.instruments[1] = testInstrument{name: "square", data: squareWave(256, 16), volume: 64, loopStart: 0, loopLength: 256}
            module.set(0, 0, track, testCell{period: 428, instrument: 1})

            song, err := LoadBytes(module.bytes())
            if err != nil {
                t.Fatalf("LoadBytes: %v", err)
            }

            player := preparedPlayer(song, 44100, 16, LayoutStereo)
            frames := player.SamplesPerTick() * player.Speed()
            leftSide, rightSide := sides(decode16(readFrames(t, player, frames)))
            if allZero(leftSide) == left || allZero(rightSide) != left {
                t.Errorf("left sounding %v right sounding %v, want left %v", !allZero(leftSide), !allZero(rightSide), left)
            }

            for other := range 4 {
                channel, err := player.ChannelState(other)
                if err != nil {
                    t.Fatal(err)
                }
                if other == track {
                    if channel.Instrument != 1 || channel.Position == 0 {
                        t.Errorf("track %v is not playing: %+v", other, channel)
                    }
                } else if channel.Instrument != 0 || channel.Position != 0 {
                    t.Errorf("silent track %v is playing: %+v", other, channel)
                }
            }

            // muting the one sounding track leaves nothing
            muted := preparedPlayer(song, 44100, 16, LayoutStereo)
            err = muted.MuteTrack(track, true)
            if err != nil {
                t.Fatal(err)
            }
            if !allZero(decode16(readFrames(t, muted, frames))) {
                t.Errorf("output with track %v muted is not silent", track)
            }
        })
    }
}

func TestReadWholeFrames(t *testing.T) {
    player := preparedPlayer(noteSong(0), 44100, 16, LayoutStereo)
    if player.FrameSize() != 4 {
        t.Fatalf("frame size %v, want 4", player.FrameSize())
    }

    count, err := player.Read(make([]byte, 7))
    if err != nil || count != 4 {
        t.Errorf("Read(7) = %v %v, want 4", count, err)
    }

    count, err = player.Read(make([]byte, 3))
    if err != nil || count != 0 {
        t.Errorf("Read(3) = %v %v, want 0", count, err)
    }

    mono8 := preparedPlayer(noteSong(0), 44100, 8, LayoutMono)
    count, err = mono8.Read(make([]byte, 11))
    if err != nil || count != 11 {
        t.Errorf("8-bit mono Read(11) = %v %v, want 11", count, err)
    }
}

func TestReadAdvancesSong(t *testing.T) {
    player := preparedPlayer(noteSong(0), 44100, 16, LayoutStereo)
    rowFrames := player.SamplesPerTick() * DefaultSpeed

    readFrames(t, player, rowFrames * 10 + 1)
    if player.CurrentRow() != 10 || player.CurrentOrder() != 0 {
        t.Errorf("order %v row %v, want order 0 row 10", player.CurrentOrder(), player.CurrentRow())
    }

    readFrames(t, player, rowFrames * 64)
    if player.CurrentRow() != 10 || player.CurrentOrder() != 1 || player.CurrentPattern() != 1 {
        t.Errorf("order %v row %v, want order 1 row 10", player.CurrentOrder(), player.CurrentRow())
    }

    // the song starts over after the last order
    readFrames(t, player, rowFrames * 64)
    if player.CurrentRow() != 10 || player.CurrentOrder() != 0 {
        t.Errorf("order %v row %v, want order 0 row 10", player.CurrentOrder(), player.CurrentRow())
    }
}

func TestReadDeterministic(t *testing.T) {
    for _, layout := range []Layout{LayoutMono, LayoutStereo, LayoutStereoPan, LayoutSurround} {
        t.Run(layout.String(), func(t *testing.T) {
            song := noteSong(0, 1, 2)
            setNote(song, 0, 4, 1, testNote(noteC2 + 7, 1, EffectVibrato, 0x46))
            setNote(song, 0, 5, 2, testNote(noteC2 + 3, 1, EffectPortamentoUp, 0x02))

            whole := preparedPlayer(song, 22050, 16, layout)
            whole.SetStereoPan(40)
            expected := readFrames(t, whole, 10000)

            chunked := preparedPlayer(song, 22050, 16, layout)
            chunked.SetStereoPan(40)
            var got []byte
            for _, frames := range []int{1000, 37, 1, 2962, 6000} {
                got = append(got, readFrames(t, chunked, frames)...)
            }

            if !bytes.Equal(got, expected) {
                t.Errorf("chunked reads differ from a single read")
            }

            // preparing again starts over
            err := whole.PrepareToPlay(song, 22050, 16, layout, DefaultMasterVolume)
            if err != nil {
                t.Fatal(err)
            }
            if !bytes.Equal(readFrames(t, whole, 10000), expected) {
                t.Errorf("second render differs")
            }
        })
    }
}

func TestReadNotPrepared(t *testing.T) {
    player := MakePlayer()
    _, err := player.Read(make([]byte, 100))
    if !errors.Is(err, ErrNotPrepared) {
        t.Errorf("err = %v, want %v", err, ErrNotPrepared)
    }
    if player.FrameSize() != 0 {
        t.Errorf("frame size %v before prepare", player.FrameSize())
    }
}

func TestPrepareErrors(t *testing.T) {
    broken := makeTestSong(4, 1)
    broken.Orders[0] = 5

    tests := []struct {
        name string
        song *Song
        rate int
        bits int
        layout Layout
        volume int
    }{
        {"no song", nil, 44100, 16, LayoutStereo, 64},
        {"broken song", broken, 44100, 16, LayoutStereo, 64},
        {"rate", makeTestSong(4, 1), 0, 16, LayoutStereo, 64},
        {"bits", makeTestSong(4, 1), 44100, 24, LayoutStereo, 64},
        {"layout", makeTestSong(4, 1), 44100, 16, Layout(9), 64},
        {"volume", makeTestSong(4, 1), 44100, 16, LayoutStereo, 65},
    }

    for _, test := range tests {
        t.Run(test.name, func(t *testing.T) {
            err := MakePlayer().PrepareToPlay(test.song, test.rate, test.bits, test.layout, test.volume)
            if !errors.Is(err, common.ErrInvalidParameter) {
                t.Errorf("err = %v, want %v", err, common.ErrInvalidParameter)
            }
        })
    }
}

func TestPlayStop(t *testing.T) {
    player := MakePlayer()

    err := player.Play()
    if !errors.Is(err, ErrNoDevice) {
        t.Errorf("Play without a device: %v", err)
    }

    device := &fakeDevice{}
    err = player.SetDevice(device)
    if err != nil {
        t.Fatal(err)
    }

    err = player.Play()
    if !errors.Is(err, ErrNotPrepared) {
        t.Errorf("Play without a song: %v", err)
    }

    err = player.PrepareToPlay(noteSong(0), 44100, 16, LayoutStereo, 64)
    if err != nil {
        t.Fatal(err)
    }

    for range 2 {
        err = player.Play()
        if err != nil {
            t.Fatalf("Play: %v", err)
        }
    }
    if device.starts != 1 || !player.IsPlaying() || device.reader != io.Reader(player) {
        t.Errorf("starts %v playing %v", device.starts, player.IsPlaying())
    }

    for range 2 {
        err = player.Stop()
        if err != nil {
            t.Fatalf("Stop: %v", err)
        }
    }
    if device.stops != 1 || player.IsPlaying() {
        t.Errorf("stops %v playing %v", device.stops, player.IsPlaying())
    }

    // replacing the device stops the old one
    player.Play()
    other := &fakeDevice{}
    player.SetDevice(other)
    if device.stops != 2 || player.IsPlaying() {
        t.Errorf("old device stops %v playing %v", device.stops, player.IsPlaying())
    }

    failing := &fakeDevice{err: errors.New("no audio")}
    player.SetDevice(failing)
    err = player.Play()
    if err == nil || player.IsPlaying() {
        t.Errorf("Play with a failing device: %v playing %v", err, player.IsPlaying())
    }
}

func TestMute(t *testing.T) {
    player := preparedPlayer(noteSong(0, 1), 44100, 16, LayoutStereo)
    frames := player.SamplesPerTick()

    err := player.MuteTrack(0, true)
    if err != nil {
        t.Fatal(err)
    }
    left, right := sides(decode16(readFrames(t, player, frames)))
    if !allZero(left) || allZero(right) {
        t.Errorf("muting track 0 should only silence the left side")
    }
    if !player.IsMuted(0) || player.IsMuted(1) || player.IsMuted(99) {
        t.Errorf("mute flags wrong")
    }

    player.MuteAll(true)
    left, right = sides(decode16(readFrames(t, player, frames)))
    if !allZero(left) || !allZero(right) {
        t.Errorf("everything muted but still sounding")
    }

    player.MuteAll(false)
    left, _ = sides(decode16(readFrames(t, player, frames)))
    if allZero(left) {
        t.Errorf("unmuted track 0 is silent")
    }

    for _, track := range []int{-1, 4} {
        err = player.MuteTrack(track, true)
        if !errors.Is(err, common.ErrInvalidParameter) {
            t.Errorf("MuteTrack(%v) = %v", track, err)
        }
    }
}

func TestJumpToOrder(t *testing.T) {
    song := makeTestSong(4, 3)
    player := preparedPlayer(song, 44100, 16, LayoutStereo)
    readFrames(t, player, player.SamplesPerTick() * 20)

    err := player.JumpToOrder(2)
    if err != nil {
        t.Fatal(err)
    }
    if player.CurrentOrder() != 2 || player.CurrentRow() != 0 {
        t.Errorf("order %v row %v right after the jump", player.CurrentOrder(), player.CurrentRow())
    }

    readFrames(t, player, 1)
    if player.CurrentOrder() != 2 || player.CurrentRow() != 0 || player.CurrentPattern() != 2 {
        t.Errorf("order %v row %v after the jump", player.CurrentOrder(), player.CurrentRow())
    }

    for _, order := range []int{-1, 3} {
        err = player.JumpToOrder(order)
        if !errors.Is(err, common.ErrInvalidParameter) {
            t.Errorf("JumpToOrder(%v) = %v", order, err)
        }
    }

    err = MakePlayer().JumpToOrder(0)
    if !errors.Is(err, ErrNotPrepared) {
        t.Errorf("JumpToOrder without a song = %v", err)
    }
}

func TestMasterVolume(t *testing.T) {
    player := preparedPlayer(noteSong(0), 44100, 16, LayoutStereo)

    err := player.SetMasterVolume(0)
    if err != nil {
        t.Fatal(err)
    }
    if player.MasterVolume() != 0 {
        t.Errorf("master volume %v", player.MasterVolume())
    }

    values := decode16(readFrames(t, player, 1000))
    if !allZero(values) {
        t.Errorf("master volume 0 is not silent")
    }

    for _, volume := range []int{-1, 65} {
        err = player.SetMasterVolume(volume)
        if !errors.Is(err, common.ErrInvalidParameter) {
            t.Errorf("SetMasterVolume(%v) = %v", volume, err)
        }
    }

    err = player.SetStereoPan(101)
    if !errors.Is(err, common.ErrInvalidParameter) {
        t.Errorf("SetStereoPan(101) = %v", err)
    }
}

func TestEqualizerHook(t *testing.T) {
    player := preparedPlayer(noteSong(0, 1), 44100, 16, LayoutStereo)
    equalizer := &muteLeft{}
    player.SetEqualizer(equalizer)

    left, right := sides(decode16(readFrames(t, player, 500)))
    if equalizer.calls != 1 || !allZero(left) || allZero(right) {
        t.Errorf("equalizer calls %v", equalizer.calls)
    }

    player.SetEqualizer(nil)
    left, _ = sides(decode16(readFrames(t, player, 500)))
    if allZero(left) {
        t.Errorf("left side still filtered")
    }
}

func TestScope(t *testing.T) {
    player := preparedPlayer(noteSong(0), 44100, 16, LayoutStereo)
    scope := common.MakeAudioBuffer(300)
    player.SetScope(scope)

    samples := make([]float32, 1000)
    readFrames(t, player, 100)
    if count := scope.Peek(samples); count != 100 {
        t.Errorf("scope has %v samples, want 100", count)
    }

    readFrames(t, player, 1000)
    if count := scope.Peek(samples); count != 300 {
        t.Errorf("scope has %v samples, want 300", count)
    }
    for i, sample := range samples[:300] {
        if sample < -1 || sample > 1 {
            t.Fatalf("sample %v = %v out of range", i, sample)
        }
    }

    // a new song starts with an empty scope
    err := player.PrepareToPlay(noteSong(1), 44100, 16, LayoutStereo, DefaultMasterVolume)
    if err != nil {
        t.Fatal(err)
    }
    if count := scope.Peek(samples); count != 0 {
        t.Errorf("scope kept %v samples of the previous song", count)
    }
    readFrames(t, player, 50)
    if count := scope.Peek(samples); count != 50 {
        t.Errorf("scope has %v samples, want 50", count)
    }
}

func TestChannelState(t *testing.T) {
    player := preparedPlayer(noteSong(2), 44100, 16, LayoutStereo)
    readFrames(t, player, 10)

    channel, err := player.ChannelState(2)
    if err != nil {
        t.Fatal(err)
    }
    if channel.Instrument != 1 || channel.Period != 428 || channel.Position == 0 {
        t.Errorf("channel %+v", channel)
    }

    _, err = player.ChannelState(4)
    if !errors.Is(err, common.ErrInvalidParameter) {
        t.Errorf("ChannelState(4) = %v", err)
    }

    info := player.RowNoteInfo(2, 0)
    if info.GetName() != "C-2" || info.GetSampleName() != "01" {
        t.Errorf("note %v %v", info.GetName(), info.GetSampleName())
    }
    if player.RowNoteInfo(9, 0).GetName() != "..." {
        t.Errorf("out of range note should be blank")
    }
}

func TestConcurrentControl(t *testing.T) {
    player := preparedPlayer(noteSong(0, 1, 2, 3), 22050, 16, LayoutSurround)

    var wait sync.WaitGroup
    wait.Add(1)
    go func() {
        defer wait.Done()
        data := make([]byte, 512 * 4)
        for range 200 {
            _, err := player.Read(data)
            if err != nil {
                t.Errorf("Read: %v", err)
                return
            }
        }
    }()

    for worker := range 4 {
        wait.Add(1)
        go func() {
            defer wait.Done()
            for i := range 100 {
                player.SetMasterVolume((i * 7) % 65)
                player.SetStereoPan(i % 101)
                player.MuteTrack(worker, i % 2 == 0)
                player.SetInterpolation(i % 3 == 0)
                player.JumpToOrder(i % 2)
                player.CurrentRow()
                player.ChannelState(worker)
            }
        }()
    }

    wait.Wait()
}

func TestWriteWave(t *testing.T) {
    tests := []struct {
        bits int
        layout Layout
    }{
        {16, LayoutStereo},
        {16, LayoutMono},
        {8, LayoutStereo},
    }

    for _, test := range tests {
        t.Run(fmt.Sprintf("%v bit %v", test.bits, test.layout), func(t *testing.T) {
            song := noteSong(0, 1)
            player := preparedPlayer(song, 8000, test.bits, test.layout)

            file, err := os.CreateTemp(t.TempDir(), "song-*.wav")
            if err != nil {
                t.Fatal(err)
            }
            defer file.Close()

            err = player.WriteWave(file, 1500)
            if err != nil {
                t.Fatalf("WriteWave: %v", err)
            }

            _, err = file.Seek(0, io.SeekStart)
            if err != nil {
                t.Fatal(err)
            }

            decoder := wav.NewDecoder(file)
            buffer, err := decoder.FullPCMBuffer()
            if err != nil {
                t.Fatalf("decode: %v", err)
            }

            if int(decoder.SampleRate) != 8000 || int(decoder.BitDepth) != test.bits || int(decoder.NumChans) != test.layout.Channels() {
                t.Errorf("format %v Hz %v bits %v channels", decoder.SampleRate, decoder.BitDepth, decoder.NumChans)
            }

            frames := 8000 * 1500 / 1000
            if len(buffer.Data) != frames * test.layout.Channels() {
                t.Errorf("%v samples, want %v", len(buffer.Data), frames * test.layout.Channels())
            }

            if test.bits == 16 {
                expected := decode16(readFrames(t, preparedPlayer(song, 8000, test.bits, test.layout), frames))
                for i := range min(len(buffer.Data), len(expected)) {
                    if buffer.Data[i] != expected[i] {
                        t.Fatalf("sample %v = %v, want %v", i, buffer.Data[i], expected[i])
                    }
                }
            }
        })
    }
}

func TestWriteWaveErrors(t *testing.T) {
    file, err := os.CreateTemp(t.TempDir(), "song-*.wav")
    if err != nil {
        t.Fatal(err)
    }
    defer file.Close()

    err = MakePlayer().WriteWave(file, 100)
    if !errors.Is(err, ErrNotPrepared) {
        t.Errorf("WriteWave without a song = %v", err)
    }

    player := preparedPlayer(noteSong(0), 8000, 16, LayoutStereo)
    err = player.WriteWave(file, -1)
    if !errors.Is(err, common.ErrInvalidParameter) {
        t.Errorf("WriteWave(-1) = %v", err)
    }
}

func TestExportInstruments(t *testing.T) {
    song := makeTestSong(4, 1)
    song.Instruments[1].Name = "lead / synth"
    song.Instruments[7] = MakeInstrument("", []byte{0, 0x7f, 0x80, 0xff}, 0, 64, 0, 0)

    directory := filepath.Join(t.TempDir(), "instruments")
    paths, err := ExportInstruments(song, directory)
    if err != nil {
        t.Fatal(err)
    }

    want := []string{
        filepath.Join(directory, "lead___synth-instrument01.wav"),
        filepath.Join(directory, "untitled-instrument07.wav"),
    }
    if strings.Join(paths, ",") != strings.Join(want, ",") {
        t.Fatalf("paths %v, want %v", paths, want)
    }

    file, err := os.Open(paths[1])
    if err != nil {
        t.Fatal(err)
    }
    defer file.Close()

    decoder := wav.NewDecoder(file)
    buffer, err := decoder.FullPCMBuffer()
    if err != nil {
        t.Fatal(err)
    }
    if int(decoder.SampleRate) != 22050 || int(decoder.BitDepth) != 8 || int(decoder.NumChans) != 1 {
        t.Errorf("format %v Hz %v bits %v channels", decoder.SampleRate, decoder.BitDepth, decoder.NumChans)
    }
    if len(buffer.Data) != 4 {
        t.Errorf("%v samples, want 4", len(buffer.Data))
    }
}

func TestLayoutNames(t *testing.T) {
    for _, layout := range []Layout{LayoutMono, LayoutStereo, LayoutStereoPan, LayoutSurround} {
        parsed, err := ParseLayout(layout.String())
        if err != nil || parsed != layout {
            t.Errorf("ParseLayout(%v) = %v %v", layout, parsed, err)
        }
    }

    _, err := ParseLayout("quad")
    if !errors.Is(err, common.ErrInvalidParameter) {
        t.Errorf("ParseLayout(quad) = %v", err)
    }
}
