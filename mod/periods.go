package mod

import (
    "fmt"
    "math"
)

const (
    // C-0 .. B-6
    notesPerFineTune = 84
    fineTuneBlocks = 16
    // fine-tune block of a note's pitch index, so negative fine-tunes can be added
    baseFineTuneOffset = 8 * notesPerFineTune

    // PAL Amiga clock used to turn a period into a playback rate
    amigaClock = 7027730.742134
)

// the periods every protracker module is written with, C-1 .. B-3 at fine-tune 0
var protrackerPeriods = [36]int{
    856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453,
    428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,
    214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,
}

var noteNames = [12]string{
    "C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-",
}

// pitchTable holds 16 fine-tune blocks of 84 periods, block (fineTune+8) starting at
// (fineTune+8)*84. Each fine-tune step is an eighth of a semitone.
var pitchTable = makePitchTable()

func makePitchTable() []int {
    table := make([]int, fineTuneBlocks * notesPerFineTune)
    for block := range fineTuneBlocks {
        fineTune := block - 8
        for note := range notesPerFineTune {
            steps := float64(note) + float64(fineTune) / 8
            table[block * notesPerFineTune + note] = int(math.Round(1712 / math.Pow(2, steps / 12)))
        }
    }

    // the tracker values differ from the equal tempered ones by a period here and there,
    // and file periods have to resolve exactly
    for i, period := range protrackerPeriods {
        table[baseFineTuneOffset + 12 + i] = period
    }

    return table
}

// PitchIndex finds the fine-tune 0 note closest to the given period. Returns -1 for
// periods <= 0.
func PitchIndex(period int) int {
    if period <= 0 {
        return -1
    }

    best := 0
    bestDistance := math.MaxInt
    for note := range notesPerFineTune {
        distance := pitchTable[baseFineTuneOffset + note] - period
        if distance < 0 {
            distance = -distance
        }
        if distance < bestDistance {
            best = note
            bestDistance = distance
        }
    }

    return baseFineTuneOffset + best
}

// TunedPeriod looks up pitchTable[pitchIndex + semitones + fineTune*84]. The note is
// kept inside its block and the fine-tune inside -8..7.
func TunedPeriod(pitchIndex int, semitones int, fineTune int) int {
    if pitchIndex < 0 {
        return 0
    }

    note := min(max((pitchIndex % notesPerFineTune) + semitones, 0), notesPerFineTune - 1)
    block := min(max(pitchIndex / notesPerFineTune + fineTune, 0), fineTuneBlocks - 1)
    return pitchTable[block * notesPerFineTune + note]
}

// PeriodToFrequency converts an Amiga period into the sample playback rate in Hz
func PeriodToFrequency(period int) float64 {
    if period <= 0 {
        return 0
    }
    return amigaClock / float64(period * 2)
}

// NoteName gives the tracker name of a pitch index, such as C-2
func NoteName(pitchIndex int) string {
    if pitchIndex < 0 {
        return "..."
    }
    note := pitchIndex % notesPerFineTune
    return fmt.Sprintf("%v%d", noteNames[note % 12], note / 12)
}
