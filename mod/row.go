package mod

// where the song continues after the current row, collected from the navigation
// effects of all tracks
type rowJump struct {
    // -1 when no track asked for it
    jumpOrder int
    breakRow int
    loopRow int
}

func (player *Player) followingOrder(order int) int {
    order += 1
    if order >= player.song.SongLength {
        return 0
    }
    return order
}

func (player *Player) fineTune(instrument int) int {
    if instrument <= 0 || instrument >= len(player.fineTunes) {
        return 0
    }
    return player.fineTunes[instrument]
}

// processRow plays the row at the current order and row and moves both forward
func (player *Player) processRow() {
    song := player.song

    player.playingOrder = player.order
    player.playingRow = player.row
    player.currentRow = &song.Patterns[song.Orders[player.order]].Rows[player.row]

    jump := rowJump{jumpOrder: -1, breakRow: -1, loopRow: -1}
    for track := range player.channels {
        player.processRowNote(track, &player.currentRow.Notes[track], &jump)
    }

    switch {
        case jump.loopRow >= 0:
            player.order = player.playingOrder
            player.row = jump.loopRow
        case jump.jumpOrder >= 0:
            player.order = jump.jumpOrder
            player.row = max(jump.breakRow, 0)
        case jump.breakRow >= 0:
            player.order = player.followingOrder(player.playingOrder)
            player.row = jump.breakRow
        default:
            player.row = player.playingRow + 1
            if player.row >= song.RowsPerPattern {
                player.row = 0
                player.order = player.followingOrder(player.playingOrder)
            }
    }
}

func (player *Player) processRowNote(track int, note *Note, jump *rowJump) {
    channel := &player.channels[track]
    effect := note.EffectNumber
    song := player.song

    // tremolo only lasts for its own row
    channel.MixVolume = channel.Volume

    if note.SampleNumber > 0 && note.SampleNumber < len(song.Instruments) {
        channel.Instrument = note.SampleNumber
        channel.Volume = song.Instruments[note.SampleNumber].Volume
        channel.MixVolume = channel.Volume
        if !effect.IsTonePortamento() {
            channel.Position = 0
        }
    }

    if note.HasNote() && note.PitchIndex >= 0 {
        period := TunedPeriod(note.PitchIndex, 0, player.fineTune(channel.Instrument))
        if effect.IsTonePortamento() {
            channel.PortamentoTarget = period
        } else {
            channel.Position = 0
            channel.PitchIndex = note.PitchIndex
            channel.Period = period
        }

        channel.Vibrato.Retrigger()
        channel.Tremolo.Retrigger()
    }

    switch effect {
        case EffectArpeggio, EffectPortamentoUp, EffectPortamentoDown, EffectVolumeSlide,
             EffectTonePortamentoAndVolumeSlide, EffectVibratoAndVolumeSlide:
            // applied on the following ticks
        case EffectTonePortamento:
            if note.EffectParameter > 0 {
                channel.PortamentoSpeed = int(note.EffectParameter)
            }
        case EffectVibrato:
            if note.X() > 0 {
                channel.Vibrato.Speed = note.X()
            }
            if note.Y() > 0 {
                channel.Vibrato.Depth = note.Y()
            }
        case EffectTremolo:
            if note.X() > 0 {
                channel.Tremolo.Speed = note.X()
            }
            if note.Y() > 0 {
                channel.Tremolo.Depth = note.Y()
            }
        case EffectPan:
            // 0xa4 is surround in some trackers, treat it as far right
            if note.EffectParameter == 0xa4 {
                channel.Pan = 15
            } else {
                channel.Pan = note.X()
            }
        case EffectSampleOffset:
            channel.Position = SamplePosition(int(note.EffectParameter) << (FractionalBits + 8))
        case EffectPatternJump:
            order := int(note.EffectParameter)
            if order >= song.SongLength {
                order = 0
            }
            jump.jumpOrder = order
        case EffectSetVolume:
            channel.Volume = clampVolume(int(note.EffectParameter))
            channel.MixVolume = channel.Volume
        case EffectPatternBreak:
            row := note.X() * 10 + note.Y()
            if row > song.RowsPerPattern - 1 {
                row = 0
            }
            jump.breakRow = row
        case EffectExtra:
            player.processRowExtended(track, note, jump)
        case EffectSetSpeed:
            parameter := int(note.EffectParameter)
            if parameter >= 0x20 {
                player.bpm = parameter
            } else if parameter > 0 {
                player.speed = parameter
            }
        default:
            player.warnUnknownEffect(note, track)
    }

    if channel.Period > 0 {
        channel.Frequency = PeriodToFrequency(channel.Period)
    }
}

func (player *Player) processRowExtended(track int, note *Note, jump *rowJump) {
    channel := &player.channels[track]

    switch note.Extended() {
        case ExtraSetFilter, ExtraGlissando, ExtraInvertLoop:
            // amiga hardware features with no effect on the mix
        case ExtraRetrigger:
            // applied on the following ticks
        case ExtraFinePortamentoUp:
            channel.Period -= note.Y()
        case ExtraFinePortamentoDown:
            channel.Period += note.Y()
        case ExtraVibratoWaveform:
            channel.Vibrato.Waveform = Waveform(note.Y())
        case ExtraTremoloWaveform:
            channel.Tremolo.Waveform = Waveform(note.Y())
        case ExtraSetFineTune:
            if channel.Instrument > 0 && channel.Instrument < len(player.fineTunes) {
                player.fineTunes[channel.Instrument] = foldFineTune(note.Y())
                if note.HasNote() && note.PitchIndex >= 0 && !note.EffectNumber.IsTonePortamento() {
                    channel.Period = TunedPeriod(channel.PitchIndex, 0, player.fineTunes[channel.Instrument])
                }
            }
        case ExtraPatternLoop:
            if note.Y() == 0 {
                channel.LoopRow = player.playingRow
            } else {
                if channel.LoopCount < 0 {
                    channel.LoopCount = note.Y()
                }

                if channel.LoopCount > 0 {
                    channel.LoopCount -= 1
                    jump.loopRow = channel.LoopRow
                } else {
                    channel.LoopCount = -1
                }
            }
        case ExtraPan:
            channel.Pan = note.Y()
        case ExtraFineVolumeSlideUp:
            channel.SlideVolume(note.Y())
        case ExtraFineVolumeSlideDown:
            channel.SlideVolume(-note.Y())
        case ExtraNoteCut:
            // the tick pass never sees tick 0
            if note.Y() == 0 {
                channel.Volume = 0
                channel.MixVolume = 0
            }
        case ExtraNoteDelay:
            if note.Y() > 0 {
                channel.MixVolume = 0
            }
        case ExtraPatternDelay:
            player.patternDelay = note.Y()
    }
}
