package mod

import (
    "encoding/binary"
)

// helpers that build modules in memory, both as raw ProTracker bytes for the loaders
// and as ready Song values for the player

type testCell struct {
    period int
    instrument int
    effect Effect
    parameter uint8
}

type testInstrument struct {
    name string
    data []byte
    fineTune int
    volume int
    loopStart int
    loopLength int
}

type testModule struct {
    title string
    mark string
    tracks int
    songLength int
    orders []int
    // pattern -> row -> track
    cells map[[3]int]testCell
    instruments map[int]testInstrument
}

func makeTestModule(mark string, tracks int) *testModule {
    return &testModule{
        title: "test song",
        mark: mark,
        tracks: tracks,
        songLength: 1,
        orders: []int{0},
        cells: make(map[[3]int]testCell),
        instruments: make(map[int]testInstrument),
    }
}

func (module *testModule) set(pattern int, row int, track int, cell testCell) {
    module.cells[[3]int{pattern, row, track}] = cell
}

func (module *testModule) patternCount() int {
    count := 1
    for _, order := range module.orders {
        count = max(count, order + 1)
    }
    return count
}

func putWord(data []byte, value int) {
    binary.BigEndian.PutUint16(data, uint16(value / 2))
}

// bytes writes the module in the 31 instrument layout with a signature at 1080
func (module *testModule) bytes() []byte {
    data := make([]byte, headerLength)
    copy(data, module.title)

    for i := 1; i < instrumentSlots; i++ {
        header := data[titleLength + (i - 1) * 30:]
        instrument, ok := module.instruments[i]
        if !ok {
            continue
        }
        copy(header[:22], instrument.name)
        putWord(header[22:], len(instrument.data))
        header[24] = byte(instrument.fineTune & 0xf)
        header[25] = byte(instrument.volume)
        putWord(header[26:], instrument.loopStart)
        putWord(header[28:], instrument.loopLength)
    }

    data[950] = byte(module.songLength)
    data[951] = 127
    for i, order := range module.orders {
        data[952 + i] = byte(order)
    }
    copy(data[markOffset:], module.mark)

    for pattern := range module.patternCount() {
        for row := range RowsPerPattern {
            for track := range module.tracks {
                cell := module.cells[[3]int{pattern, row, track}]
                data = append(data,
                    byte(cell.instrument & 0xf0) | byte(cell.period >> 8 & 0xf),
                    byte(cell.period),
                    byte(cell.instrument & 0xf) << 4 | byte(cell.effect & 0xf),
                    cell.parameter)
            }
        }
    }

    for i := 1; i < instrumentSlots; i++ {
        data = append(data, module.instruments[i].data...)
    }

    return data
}

// makeTestSong builds a song with blank patterns and a single looping square wave
// instrument in slot 1
func makeTestSong(tracks int, patterns int) *Song {
    song := &Song{
        Format: "ProTracker",
        Mark: "M.K.",
        Name: "test",
        Tracks: tracks,
        RowsPerPattern: RowsPerPattern,
        InstrumentCount: instrumentSlots - 1,
        OrderCount: orderCount,
        SongLength: patterns,
        Orders: make([]int, orderCount),
        Patterns: make([]Pattern, patterns),
        Instruments: make([]Instrument, instrumentSlots),
    }

    for i := range patterns {
        song.Orders[i] = i
        song.Patterns[i].Rows = make([]Row, RowsPerPattern)
        for row := range song.Patterns[i].Rows {
            notes := make([]Note, tracks)
            for track := range notes {
                notes[track] = BlankNote()
            }
            song.Patterns[i].Rows[row].Notes = notes
        }
    }

    song.Instruments[1] = MakeInstrument("square", squareWave(256, 16), 0, 64, 0, 256)

    return song
}

// length bytes alternating between +100 and -100 every half period
func squareWave(length int, period int) []byte {
    data := make([]byte, length)
    for i := range data {
        if i % period < period / 2 {
            data[i] = 100
        } else {
            data[i] = byte(0x100 - 100)
        }
    }
    return data
}

// note plays pitchIndex with an instrument and effect
func testNote(pitchIndex int, instrument int, effect Effect, parameter uint8) Note {
    note := Note{
        Period: -1,
        PitchIndex: -1,
        SampleNumber: instrument,
        EffectNumber: effect,
        EffectParameter: parameter,
    }
    if pitchIndex >= 0 {
        note.PitchIndex = pitchIndex
        note.Period = pitchTable[pitchIndex]
    }
    return note
}

func setNote(song *Song, pattern int, row int, track int, note Note) {
    song.Patterns[pattern].Rows[row].Notes[track] = note
}

// pitch index of C-2, period 428
var noteC2 = baseFineTuneOffset + 24

func preparedPlayer(song *Song, sampleRate int, bits int, layout Layout) *Player {
    player := MakePlayer()
    err := player.PrepareToPlay(song, sampleRate, bits, layout, DefaultMasterVolume)
    if err != nil {
        panic(err)
    }
    return player
}
