package mod

// processTick applies the continuous effects of the current row for a tick after the first
func (player *Player) processTick() {
    if player.currentRow == nil {
        return
    }

    for track := range player.channels {
        player.processTickNote(&player.channels[track], &player.currentRow.Notes[track])
    }
}

func (player *Player) processTickNote(channel *Channel, note *Note) {
    switch note.EffectNumber {
        case EffectArpeggio:
            if note.EffectParameter == 0 || channel.PitchIndex < 0 {
                return
            }

            period := channel.Period
            switch player.tick % 3 {
                case 1:
                    period = TunedPeriod(channel.PitchIndex, note.X(), player.fineTune(channel.Instrument))
                case 2:
                    period = TunedPeriod(channel.PitchIndex, note.Y(), player.fineTune(channel.Instrument))
            }
            channel.Frequency = PeriodToFrequency(period)
        case EffectPortamentoUp:
            channel.SetPeriod(channel.Period - int(note.EffectParameter))
        case EffectPortamentoDown:
            channel.SetPeriod(channel.Period + int(note.EffectParameter))
        case EffectTonePortamento:
            channel.DoPortamento()
        case EffectVibrato:
            channel.DoVibrato()
        case EffectTonePortamentoAndVolumeSlide:
            channel.DoPortamento()
            channel.SlideVolume(note.X() - note.Y())
        case EffectVibratoAndVolumeSlide:
            channel.DoVibrato()
            channel.SlideVolume(note.X() - note.Y())
        case EffectTremolo:
            channel.DoTremolo()
        case EffectVolumeSlide:
            channel.SlideVolume(note.X() - note.Y())
        case EffectExtra:
            player.processTickExtended(channel, note)
        case EffectPan, EffectSampleOffset, EffectPatternJump, EffectSetVolume, EffectPatternBreak, EffectSetSpeed:
            // only act on the first tick of the row
    }
}

func (player *Player) processTickExtended(channel *Channel, note *Note) {
    switch note.Extended() {
        case ExtraRetrigger:
            if note.Y() > 0 && player.tick % note.Y() == 0 {
                channel.Position = 0
            }
        case ExtraNoteCut:
            if player.tick == note.Y() {
                channel.Volume = 0
                channel.MixVolume = 0
                channel.Position = 0
            }
        case ExtraNoteDelay:
            if player.tick == note.Y() {
                channel.MixVolume = channel.Volume
                channel.Position = 0
            }
    }
}
