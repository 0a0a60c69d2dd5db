package mod

const (
    FractionalBits = 10
    fractionMask = 1 << FractionalBits - 1
)

// SamplePosition is a position inside an instrument's sample data in 1/1024ths of a
// sample. The integer part is Sample() and the phase between two samples is Fraction().
type SamplePosition int

func MakeSamplePosition(sample int) SamplePosition {
    return SamplePosition(sample << FractionalBits)
}

func (position SamplePosition) Sample() int {
    return int(position >> FractionalBits)
}

func (position SamplePosition) Fraction() int {
    return int(position & fractionMask)
}

type Waveform int

const (
    WaveformSine Waveform = 0
    WaveformRampDown Waveform = 1
    WaveformSquare Waveform = 2
    // set on top of a waveform to keep the phase when a new note starts
    WaveformNoRetrigger Waveform = 4
)

// half a period of a sine, amplitude 255
var sineTable = [32]int{
    0, 24, 49, 74, 97, 120, 141, 161, 180, 197, 212, 224, 235, 244, 250, 253,
    255, 253, 250, 244, 235, 224, 212, 197, 180, 161, 141, 120, 97, 74, 49, 24,
}

// Oscillator is the low frequency wave behind vibrato and tremolo. One period is 64
// steps and Speed steps are taken per tick.
type Oscillator struct {
    Speed int
    Depth int
    Waveform Waveform
    position int
}

func (oscillator *Oscillator) Update() {
    oscillator.position = (oscillator.position + oscillator.Speed) & 63
}

// restart the wave for a new note unless the waveform asks to keep going
func (oscillator *Oscillator) Retrigger() {
    if oscillator.Waveform & WaveformNoRetrigger == 0 {
        oscillator.position = 0
    }
}

// current value of the wave in -255..255
func (oscillator *Oscillator) Value() int {
    position := oscillator.position & 63
    switch oscillator.Waveform & 3 {
        case WaveformRampDown:
            return 255 - position * 8
        case WaveformSquare:
            if position < 32 {
                return 255
            }
            return -255
        default:
            value := sineTable[position & 31]
            if position >= 32 {
                return -value
            }
            return value
    }
}

// Apply offsets value by the wave scaled by the depth, divisor is 128 for vibrato
// (periods) and 64 for tremolo (volume)
func (oscillator *Oscillator) Apply(value int, divisor int) int {
    return value + oscillator.Value() * oscillator.Depth / divisor
}

// Channel is the playback state of one track
type Channel struct {
    // 0 when nothing was played on this track yet
    Instrument int
    Position SamplePosition

    // fine-tune 0 pitch index of the last note
    PitchIndex int
    // period with the instrument fine-tune and slides applied
    Period int
    Frequency float64

    Volume int
    // volume actually mixed, differs from Volume during tremolo and delayed notes
    MixVolume int

    PortamentoTarget int
    PortamentoSpeed int

    Vibrato Oscillator
    Tremolo Oscillator

    // recorded for display, not mixed
    Pan int

    LoopRow int
    // -1 when no pattern loop is running
    LoopCount int
}

func MakeChannel() Channel {
    return Channel{
        PitchIndex: -1,
        LoopCount: -1,
    }
}

func (channel *Channel) SetPeriod(period int) {
    channel.Period = period
    channel.Frequency = PeriodToFrequency(period)
}

// volume slides move in steps of 2
func (channel *Channel) SlideVolume(amount int) {
    channel.Volume = clampVolume(channel.Volume + amount * 2)
    channel.MixVolume = channel.Volume
}

// move the period towards the portamento target without overshooting it
func (channel *Channel) DoPortamento() {
    target := channel.PortamentoTarget
    if target <= 0 || channel.Period == target {
        return
    }

    if channel.Period < target {
        channel.SetPeriod(min(channel.Period + channel.PortamentoSpeed, target))
    } else {
        channel.SetPeriod(max(channel.Period - channel.PortamentoSpeed, target))
    }
}

// vibrato only changes the frequency, the base period stays put
func (channel *Channel) DoVibrato() {
    if channel.Vibrato.Speed == 0 {
        return
    }

    period := channel.Vibrato.Apply(channel.Period, 128)
    if period > 0 {
        channel.Frequency = PeriodToFrequency(period)
    }
    channel.Vibrato.Update()
}

func (channel *Channel) DoTremolo() {
    if channel.Tremolo.Speed == 0 {
        return
    }

    channel.MixVolume = clampVolume(channel.Tremolo.Apply(channel.Volume, 64))
    channel.Tremolo.Update()
}
