package mod

import (
    "bytes"
    "encoding/binary"
    "fmt"
    "io"
    "log"

    "github.com/kazzmir/modplayer/common"
)

const (
    titleLength = 20
    instrumentSlots = 32
    orderCount = 128
    // offset of the 4 byte signature
    markOffset = 0x438
    // title + 31 instrument headers + song length + restart + orders + signature
    headerLength = markOffset + 4
)

// Loader decodes one family of module formats
type Loader interface {
    Name() string
    CanHandle(data []byte) bool
    Load(data []byte) (*Song, error)
}

// tried in order, UNIC goes last because it has no signature to check
var Loaders = []Loader{
    &markLoader{
        format: "ProTracker",
        tracks: map[string]int{"M.K.": 4, "M!K!": 4},
    },
    &markLoader{
        format: "FastTracker",
        tracks: map[string]int{"4CHN": 4, "6CHN": 6, "8CHN": 8, "12CH": 12, "12CN": 12, "16CN": 16, "32CN": 32},
    },
    &markLoader{
        format: "StarTracker",
        tracks: map[string]int{"FLT4": 4, "FLT8": 8},
    },
    &markLoader{
        format: "Octalyzer",
        tracks: map[string]int{"OKTA": 8, "CD81": 8},
    },
    &unicLoader{},
}

// Load reads the whole module from reader and decodes it
func Load(reader io.Reader) (*Song, error) {
    data, err := io.ReadAll(reader)
    if err != nil {
        return nil, err
    }

    return LoadBytes(data)
}

// LoadBytes picks the first loader that recognises the data
func LoadBytes(data []byte) (*Song, error) {
    for _, loader := range Loaders {
        if loader.CanHandle(data) {
            song, err := loader.Load(data)
            if err != nil {
                return nil, fmt.Errorf("%v: %w", loader.Name(), err)
            }
            return song, nil
        }
    }

    return nil, common.ErrFormatNotSupported
}

// 16 bit big endian word holding half the real value
func readAmigaWord(data []byte, offset int) int {
    return int(binary.BigEndian.Uint16(data[offset:])) * 2
}

func needBytes(data []byte, offset int, need int, what string) error {
    if offset < 0 || need < 0 || offset + need > len(data) {
        return &common.MalformedDataError{
            What: what,
            Offset: offset,
            Need: need,
            Have: max(len(data) - offset, 0),
        }
    }
    return nil
}

// orders are followed by the number of patterns actually stored: one more than the
// highest pattern referenced anywhere in the 128 entry table
func readOrders(data []byte, offset int) ([]int, int) {
    orders := make([]int, orderCount)
    patterns := 0
    for i := range orderCount {
        orders[i] = int(data[offset + i])
        patterns = max(patterns, orders[i] + 1)
    }
    return orders, patterns
}

// song length byte, 0 or more than 128 are seen in the wild
func clampSongLength(length int) int {
    if length <= 0 {
        return 1
    }
    return min(length, orderCount)
}

// attach the sample bytes that follow the patterns to the instrument headers
func readSampleData(data []byte, offset int, instruments []Instrument) error {
    for i := 1; i < len(instruments); i++ {
        header := &instruments[i]
        if header.Length == 0 {
            continue
        }

        err := needBytes(data, offset, header.Length, fmt.Sprintf("sample data of instrument %v", i))
        if err != nil {
            return err
        }

        *header = MakeInstrument(header.Name, data[offset:offset + header.Length], header.FineTune, header.Volume, header.LoopStart, header.LoopLength)
        offset += header.Length
    }

    return nil
}

func makeSong(format string, mark string, name string, tracks int) *Song {
    return &Song{
        Format: format,
        Mark: mark,
        Name: name,
        Tracks: tracks,
        RowsPerPattern: RowsPerPattern,
        InstrumentCount: instrumentSlots - 1,
        OrderCount: orderCount,
    }
}

// markLoader handles the 31 instrument layout shared by every format with a signature
// at offset 1080. Only the signature and the track count differ between them.
type markLoader struct {
    format string
    tracks map[string]int
}

func (loader *markLoader) Name() string {
    return loader.format
}

func (loader *markLoader) CanHandle(data []byte) bool {
    if len(data) < headerLength {
        return false
    }

    _, ok := loader.tracks[string(data[markOffset:markOffset + 4])]
    return ok
}

func (loader *markLoader) Load(data []byte) (*Song, error) {
    if !loader.CanHandle(data) {
        return nil, common.ErrFormatNotSupported
    }

    mark := string(data[markOffset:markOffset + 4])
    tracks := loader.tracks[mark]
    song := makeSong(loader.format, mark, cleanName(data[:titleLength]), tracks)

    log.Printf("Detected %v module '%v' (%v) with %v tracks", loader.format, song.Name, mark, tracks)

    offset := titleLength
    song.Instruments = make([]Instrument, instrumentSlots)
    for i := 1; i < instrumentSlots; i++ {
        song.Instruments[i] = Instrument{
            Name: cleanName(data[offset:offset + 22]),
            Length: readAmigaWord(data, offset + 22),
            FineTune: foldFineTune(int(data[offset + 24])),
            Volume: min(int(data[offset + 25]), 64),
            LoopStart: readAmigaWord(data, offset + 26),
            LoopLength: readAmigaWord(data, offset + 28),
        }
        offset += 30
    }

    song.SongLength = clampSongLength(int(data[offset]))
    // skip the restart byte
    offset += 2

    var patternCount int
    song.Orders, patternCount = readOrders(data, offset)
    offset += orderCount
    // skip the signature
    offset += 4

    patternSize := RowsPerPattern * tracks * 4
    err := needBytes(data, offset, patternCount * patternSize, fmt.Sprintf("%v patterns", patternCount))
    if err != nil {
        return nil, err
    }

    song.Patterns = make([]Pattern, patternCount)
    for p := range song.Patterns {
        song.Patterns[p].Rows = make([]Row, RowsPerPattern)
        for r := range song.Patterns[p].Rows {
            notes := make([]Note, tracks)
            for track := range notes {
                notes[track] = decodeNote(data[offset:offset + 4])
                offset += 4
            }
            song.Patterns[p].Rows[r].Notes = notes
        }
    }

    err = readSampleData(data, offset, song.Instruments)
    if err != nil {
        return nil, err
    }

    return song, nil
}

// four bytes: instrument high nibble + period, period low byte, instrument low nibble + effect, parameter
func decodeNote(cell []byte) Note {
    note := BlankNote()

    period := int(cell[0] & 0x0f) << 8 | int(cell[1])
    if period != 0 {
        note.Period = period
        note.PitchIndex = PitchIndex(period)
    }

    note.SampleNumber = int(cell[0] & 0xf0) | int(cell[2] >> 4)
    note.EffectNumber = Effect(cell[2] & 0x0f)
    note.EffectParameter = cell[3]

    return note
}

// unicLoader reads UNIC Tracker (Laxity/Kefrens) modules. Their instrument headers hold
// a signed fine-tune word instead of the name tail and notes take 3 bytes holding an
// index into the note table rather than a period.
type unicLoader struct {
}

func (loader *unicLoader) Name() string {
    return "UNIC"
}

// UNIC files carry no signature so only accept data whose header is plausible
func (loader *unicLoader) CanHandle(data []byte) bool {
    if len(data) < headerLength {
        return false
    }

    offset := titleLength
    for range instrumentSlots - 1 {
        if data[offset + 25] > 64 {
            return false
        }
        offset += 30
    }

    length := int(data[offset])
    if length == 0 || length > orderCount {
        return false
    }

    for _, order := range data[offset + 2:offset + 2 + orderCount] {
        if order >= 64 {
            return false
        }
    }

    return true
}

func (loader *unicLoader) Load(data []byte) (*Song, error) {
    if !loader.CanHandle(data) {
        return nil, common.ErrFormatNotSupported
    }

    song := makeSong("UNIC", "", cleanName(data[:titleLength]), 4)

    offset := titleLength
    song.Instruments = make([]Instrument, instrumentSlots)
    for i := 1; i < instrumentSlots; i++ {
        fineTune := -int(int16(binary.BigEndian.Uint16(data[offset + 20:])))
        song.Instruments[i] = Instrument{
            Name: cleanName(data[offset:offset + 20]),
            FineTune: min(max(fineTune, -8), 7),
            Length: readAmigaWord(data, offset + 22),
            Volume: int(data[offset + 25]),
            LoopStart: readAmigaWord(data, offset + 26),
            LoopLength: readAmigaWord(data, offset + 28),
        }
        offset += 30
    }

    song.SongLength = clampSongLength(int(data[offset]))
    offset += 2

    var patternCount int
    song.Orders, patternCount = readOrders(data, offset)
    offset += orderCount

    // UNIC v1 stores an id where the signature would be, v2 starts the patterns right away.
    // LoadBytes hands M.K. files to the ProTracker loader, so only a direct Load sees that id here.
    id := data[offset:offset + 4]
    if bytes.Equal(id, []byte("M.K.")) || bytes.Equal(id, []byte("UNIC")) || bytes.Equal(id, []byte{0, 0, 0, 0}) {
        song.Mark = string(bytes.TrimRight(id, "\x00"))
        offset += 4
    }

    patternSize := RowsPerPattern * song.Tracks * 3
    err := needBytes(data, offset, patternCount * patternSize, fmt.Sprintf("%v patterns", patternCount))
    if err != nil {
        return nil, err
    }

    log.Printf("Detected UNIC module '%v' with %v patterns", song.Name, patternCount)

    song.Patterns = make([]Pattern, patternCount)
    for p := range song.Patterns {
        song.Patterns[p].Rows = make([]Row, RowsPerPattern)
        for r := range song.Patterns[p].Rows {
            notes := make([]Note, song.Tracks)
            for track := range notes {
                notes[track] = decodeUnicNote(data[offset:offset + 3])
                offset += 3
            }
            song.Patterns[p].Rows[r].Notes = notes
        }
    }

    err = readSampleData(data, offset, song.Instruments)
    if err != nil {
        return nil, err
    }

    return song, nil
}

// three bytes: instrument bit 4 + note index, instrument low nibble + effect, parameter.
// note index 1 is C-1
func decodeUnicNote(cell []byte) Note {
    note := BlankNote()

    index := int(cell[0] & 0x3f)
    if index > 0 && 11 + index < notesPerFineTune {
        note.PitchIndex = baseFineTuneOffset + 11 + index
        note.Period = pitchTable[note.PitchIndex]
    }

    note.SampleNumber = int(cell[0] & 0x40) >> 2 | int(cell[1] >> 4)
    note.EffectNumber = Effect(cell[1] & 0x0f)
    note.EffectParameter = cell[2]

    return note
}
