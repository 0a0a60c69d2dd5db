package mod

import (
    "fmt"
)

// Effect is the effect column of a note. Every value a 4 bit field can hold is named;
// anything larger only comes from songs built in code and is treated as a no-op.
type Effect uint8

const (
    EffectArpeggio Effect = 0x0
    EffectPortamentoUp Effect = 0x1
    EffectPortamentoDown Effect = 0x2
    EffectTonePortamento Effect = 0x3
    EffectVibrato Effect = 0x4
    EffectTonePortamentoAndVolumeSlide Effect = 0x5
    EffectVibratoAndVolumeSlide Effect = 0x6
    EffectTremolo Effect = 0x7
    EffectPan Effect = 0x8
    EffectSampleOffset Effect = 0x9
    EffectVolumeSlide Effect = 0xa
    EffectPatternJump Effect = 0xb
    EffectSetVolume Effect = 0xc
    EffectPatternBreak Effect = 0xd
    EffectExtra Effect = 0xe
    EffectSetSpeed Effect = 0xf
)

// ExtendedEffect is the high nibble of the parameter of EffectExtra
type ExtendedEffect uint8

const (
    ExtraSetFilter ExtendedEffect = 0x0
    ExtraFinePortamentoUp ExtendedEffect = 0x1
    ExtraFinePortamentoDown ExtendedEffect = 0x2
    ExtraGlissando ExtendedEffect = 0x3
    ExtraVibratoWaveform ExtendedEffect = 0x4
    ExtraSetFineTune ExtendedEffect = 0x5
    ExtraPatternLoop ExtendedEffect = 0x6
    ExtraTremoloWaveform ExtendedEffect = 0x7
    ExtraPan ExtendedEffect = 0x8
    ExtraRetrigger ExtendedEffect = 0x9
    ExtraFineVolumeSlideUp ExtendedEffect = 0xa
    ExtraFineVolumeSlideDown ExtendedEffect = 0xb
    ExtraNoteCut ExtendedEffect = 0xc
    ExtraNoteDelay ExtendedEffect = 0xd
    ExtraPatternDelay ExtendedEffect = 0xe
    ExtraInvertLoop ExtendedEffect = 0xf
)

var effectNames = [...]string{
    "arpeggio", "portamento up", "portamento down", "tone portamento", "vibrato",
    "tone portamento + volume slide", "vibrato + volume slide", "tremolo", "pan",
    "sample offset", "volume slide", "pattern jump", "set volume", "pattern break",
    "extra", "set speed",
}

func (effect Effect) Known() bool {
    return effect <= EffectSetSpeed
}

// tone portamento keeps the sounding pitch and glides to the note instead of restarting
func (effect Effect) IsTonePortamento() bool {
    return effect == EffectTonePortamento || effect == EffectTonePortamentoAndVolumeSlide
}

func (effect Effect) String() string {
    if effect.Known() {
        return effectNames[effect]
    }
    return fmt.Sprintf("unknown effect %X", uint8(effect))
}

// fold a 4 bit fine-tune nibble into -8..7
func foldFineTune(value int) int {
    value &= 0xf
    if value > 7 {
        value -= 16
    }
    return value
}
