package mod

import (
    "fmt"
    "strings"

    "github.com/kazzmir/modplayer/common"
)

const RowsPerPattern = 64

// Note is one cell of a pattern
type Note struct {
    // raw tracker period, -1 when the cell has no note
    Period int
    // index into the pitch table including the fine-tune 0 block offset, -1 when there is no note
    PitchIndex int
    // 1 based, 0 means keep the current instrument
    SampleNumber int
    EffectNumber Effect
    EffectParameter uint8
}

// high nibble of the effect parameter
func (note *Note) X() int {
    return int(note.EffectParameter >> 4)
}

// low nibble of the effect parameter
func (note *Note) Y() int {
    return int(note.EffectParameter & 0xf)
}

func (note *Note) HasNote() bool {
    return note.Period >= 0
}

func (note *Note) Extended() ExtendedEffect {
    return ExtendedEffect(note.EffectParameter >> 4)
}

func (note *Note) GetName() string {
    if note.PitchIndex < 0 {
        return "..."
    }
    return NoteName(note.PitchIndex)
}

func (note *Note) GetSampleName() string {
    if note.SampleNumber > 0 {
        return fmt.Sprintf("%02d", note.SampleNumber)
    }
    return ".."
}

func (note *Note) GetEffectName() string {
    if note.EffectNumber > 0 || note.EffectParameter > 0 {
        return fmt.Sprintf("%X%02X", uint8(note.EffectNumber), note.EffectParameter)
    }

    return "..."
}

func (note Note) String() string {
    return fmt.Sprintf("%v %v %v", note.GetName(), note.GetSampleName(), note.GetEffectName())
}

// an empty cell
func BlankNote() Note {
    return Note{Period: -1, PitchIndex: -1}
}

var _ common.NoteInfo = &Note{}

type Row struct {
    Notes []Note
}

type Pattern struct {
    Rows []Row
}

// Instrument is a single sample. Data holds Length signed 8-bit samples followed by
// one copy of the last sample so interpolation can read one past the end.
type Instrument struct {
    Name string
    Length int
    FineTune int
    Volume int
    LoopStart int
    LoopLength int
    LoopEnd int
    Data []byte
}

// MakeInstrument copies the sample bytes, appends the pad byte and clamps the loop end
func MakeInstrument(name string, data []byte, fineTune int, volume int, loopStart int, loopLength int) Instrument {
    instrument := Instrument{
        Name: name,
        Length: len(data),
        FineTune: fineTune,
        Volume: volume,
        LoopStart: loopStart,
        LoopLength: loopLength,
        LoopEnd: min(loopStart + loopLength, len(data)),
    }

    // a loop starting past the end of the sample can never be reached
    if loopStart >= len(data) {
        instrument.LoopStart = 0
        instrument.LoopLength = 0
        instrument.LoopEnd = 0
    }

    if len(data) > 0 {
        instrument.Data = make([]byte, len(data) + 1)
        copy(instrument.Data, data)
        instrument.Data[len(data)] = data[len(data) - 1]
    }

    return instrument
}

func (instrument *Instrument) HasData() bool {
    return instrument.Length > 0 && len(instrument.Data) > instrument.Length
}

// Song is the decoded module. It is not modified by playback.
type Song struct {
    // ProTracker, FastTracker, StarTracker, Octalyzer or UNIC
    Format string
    // the 4 byte signature, empty for UNIC files without one
    Mark string
    Name string
    Tracks int
    RowsPerPattern int
    // number of instruments, Instruments has one more entry because slot 0 is unused
    InstrumentCount int
    // capacity of the order table, 128 for every supported format
    OrderCount int
    // number of orders that are played
    SongLength int
    Orders []int
    Patterns []Pattern
    Instruments []Instrument
}

// Validate checks the structural invariants the player relies on
func (song *Song) Validate() error {
    if song.Tracks <= 0 {
        return fmt.Errorf("%w: song has %v tracks", common.ErrInvalidParameter, song.Tracks)
    }
    if song.RowsPerPattern <= 0 {
        return fmt.Errorf("%w: song has %v rows per pattern", common.ErrInvalidParameter, song.RowsPerPattern)
    }
    if song.SongLength <= 0 || song.SongLength > len(song.Orders) {
        return fmt.Errorf("%w: song length %v with %v orders", common.ErrInvalidParameter, song.SongLength, len(song.Orders))
    }
    if len(song.Instruments) == 0 {
        return fmt.Errorf("%w: song has no instrument table", common.ErrInvalidParameter)
    }

    for i := range song.SongLength {
        if song.Orders[i] < 0 || song.Orders[i] >= len(song.Patterns) {
            return fmt.Errorf("%w: order %v refers to pattern %v of %v", common.ErrInvalidParameter, i, song.Orders[i], len(song.Patterns))
        }
    }

    for p, pattern := range song.Patterns {
        if len(pattern.Rows) != song.RowsPerPattern {
            return fmt.Errorf("%w: pattern %v has %v rows, want %v", common.ErrInvalidParameter, p, len(pattern.Rows), song.RowsPerPattern)
        }
        for r, row := range pattern.Rows {
            if len(row.Notes) != song.Tracks {
                return fmt.Errorf("%w: pattern %v row %v has %v notes, want %v", common.ErrInvalidParameter, p, r, len(row.Notes), song.Tracks)
            }
        }
    }

    return nil
}

// Describe reports the title, format and instrument names as key/value pairs
func (song *Song) Describe(callback func(key string, value string)) {
    if callback == nil {
        return
    }

    callback("Title", song.Name)
    callback("Mark", song.Mark)
    callback("Format", song.Format)
    callback("Tracks", fmt.Sprintf("%v", song.Tracks))
    callback("Length", fmt.Sprintf("%v orders, %v patterns", song.SongLength, len(song.Patterns)))
    for i := 1; i < len(song.Instruments); i++ {
        callback(fmt.Sprintf("Instrument %02X", i), song.Instruments[i].Name)
    }
}

// remove trailing padding and control bytes from fixed size name fields
func cleanName(raw []byte) string {
    name := strings.TrimRight(string(raw), "\x00 ")
    return strings.Map(func(r rune) rune {
        if r < 0x20 || r > 0x7e {
            return ' '
        }
        return r
    }, name)
}
