// Package equalizer implements a cascade of peaking filters with bands spaced
// logarithmically between 20Hz and 20kHz. It works on the integer accumulation
// buffers of the mod player.
package equalizer

import (
    "fmt"
    "math"
    "sync"

    "github.com/kazzmir/modplayer/common"

    "gonum.org/v1/gonum/floats"
)

const (
    LowFrequency = 20.0
    HighFrequency = 20000.0
    MaxGain = 24.0
    // bandwidth of each band
    quality = 0.7
)

type filterState struct {
    x1, x2 float64
    y1, y2 float64
}

// biquad coefficients normalized by a0
type coefficients struct {
    b0, b1, b2 float64
    a1, a2 float64
}

func (filter *coefficients) transform(state *filterState, x float64) float64 {
    y := filter.b0 * x + filter.b1 * state.x1 + filter.b2 * state.x2 - filter.a1 * state.y1 - filter.a2 * state.y2
    state.x2 = state.x1
    state.x1 = x
    state.y2 = state.y1
    state.y1 = y
    return y
}

// peaking filter from the audio EQ cookbook
func makePeaking(sampleRate int, frequency float64, gain float64) coefficients {
    a := math.Pow(10, gain / 40)
    w0 := 2 * math.Pi * frequency / float64(sampleRate)
    alpha := math.Sin(w0) / (2 * quality)
    cos := math.Cos(w0)

    a0 := 1 + alpha / a
    return coefficients{
        b0: (1 + alpha * a) / a0,
        b1: -2 * cos / a0,
        b2: (1 - alpha * a) / a0,
        a1: -2 * cos / a0,
        a2: (1 - alpha / a) / a0,
    }
}

type band struct {
    frequency float64
    gain float64
    filter coefficients
    // each side has its own history
    left filterState
    right filterState
}

type Equalizer struct {
    lock sync.Mutex
    sampleRate int
    active bool
    bands []band
}

// BandFrequencies returns count centre frequencies evenly spaced on a log scale from
// 20Hz to 20kHz
func BandFrequencies(count int) []float64 {
    if count <= 0 {
        return nil
    }
    if count == 1 {
        return []float64{LowFrequency}
    }
    return floats.LogSpan(make([]float64, count), LowFrequency, HighFrequency)
}

// MakeEqualizer creates an active equalizer with all bands at 0dB
func MakeEqualizer(sampleRate int, bands int) (*Equalizer, error) {
    if sampleRate <= 0 {
        return nil, fmt.Errorf("%w: sample rate %v", common.ErrInvalidParameter, sampleRate)
    }
    if bands <= 0 {
        return nil, fmt.Errorf("%w: %v bands", common.ErrInvalidParameter, bands)
    }

    equalizer := &Equalizer{
        sampleRate: sampleRate,
        active: true,
    }

    // a centre above nyquist makes the filter unstable
    nyquist := float64(sampleRate) * 0.45
    for _, frequency := range BandFrequencies(bands) {
        frequency = min(frequency, nyquist)
        equalizer.bands = append(equalizer.bands, band{
            frequency: frequency,
            filter: makePeaking(sampleRate, frequency, 0),
        })
    }

    return equalizer, nil
}

func (equalizer *Equalizer) Bands() int {
    equalizer.lock.Lock()
    defer equalizer.lock.Unlock()
    return len(equalizer.bands)
}

func (equalizer *Equalizer) Frequencies() []float64 {
    equalizer.lock.Lock()
    defer equalizer.lock.Unlock()

    out := make([]float64, len(equalizer.bands))
    for i := range equalizer.bands {
        out[i] = equalizer.bands[i].frequency
    }
    return out
}

// SetBandGain sets the boost or cut of one band in dB, within -24..24
func (equalizer *Equalizer) SetBandGain(index int, gain float64) error {
    if gain < -MaxGain || gain > MaxGain || math.IsNaN(gain) {
        return fmt.Errorf("%w: gain %vdB", common.ErrInvalidParameter, gain)
    }

    equalizer.lock.Lock()
    defer equalizer.lock.Unlock()

    if index < 0 || index >= len(equalizer.bands) {
        return fmt.Errorf("%w: band %v of %v", common.ErrInvalidParameter, index, len(equalizer.bands))
    }

    band := &equalizer.bands[index]
    // a flat band was skipped, its history is stale
    if band.gain == 0 {
        band.left = filterState{}
        band.right = filterState{}
    }
    band.gain = gain
    band.filter = makePeaking(equalizer.sampleRate, band.frequency, gain)
    return nil
}

func (equalizer *Equalizer) BandGain(index int) (float64, error) {
    equalizer.lock.Lock()
    defer equalizer.lock.Unlock()

    if index < 0 || index >= len(equalizer.bands) {
        return 0, fmt.Errorf("%w: band %v of %v", common.ErrInvalidParameter, index, len(equalizer.bands))
    }
    return equalizer.bands[index].gain, nil
}

// SetActive turns filtering on or off. Turning it on starts from silent filter history.
func (equalizer *Equalizer) SetActive(active bool) {
    equalizer.lock.Lock()
    defer equalizer.lock.Unlock()

    if active && !equalizer.active {
        for i := range equalizer.bands {
            equalizer.bands[i].left = filterState{}
            equalizer.bands[i].right = filterState{}
        }
    }
    equalizer.active = active
}

func (equalizer *Equalizer) IsActive() bool {
    equalizer.lock.Lock()
    defer equalizer.lock.Unlock()
    return equalizer.active
}

// Process filters the buffers in place. Bands at 0dB are skipped, so a flat
// equalizer leaves the samples untouched.
func (equalizer *Equalizer) Process(left []int, right []int) {
    equalizer.lock.Lock()
    defer equalizer.lock.Unlock()

    if !equalizer.active {
        return
    }

    for i := range equalizer.bands {
        band := &equalizer.bands[i]
        if band.gain == 0 {
            continue
        }

        for j := range left {
            left[j] = int(math.Round(band.filter.transform(&band.left, float64(left[j]))))
        }
        for j := range right {
            right[j] = int(math.Round(band.filter.transform(&band.right, float64(right[j]))))
        }
    }
}
