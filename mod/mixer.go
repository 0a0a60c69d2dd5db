package mod

// Loops reports whether the instrument repeats its loop section. A loop of one
// word is how trackers store "no loop".
func (instrument *Instrument) Loops() bool {
    return instrument.LoopLength > 2 && instrument.LoopEnd > instrument.LoopStart
}

// tracks 0 and 3 of every group of four go left, 1 and 2 go right
func isLeftTrack(track int) bool {
    position := track & 3
    return position == 0 || position == 3
}

// how far the sample position moves per output frame for a channel playing at frequency
func positionStep(frequency float64, sampleRate int) SamplePosition {
    return SamplePosition(frequency * (1 << FractionalBits) / float64(sampleRate))
}

// mix renders every sounding channel into left and right, both cleared first
func (player *Player) mix(left []int, right []int) {
    clear(left)
    clear(right)

    for track := range player.channels {
        if player.muted[track] {
            continue
        }

        out := right
        if isLeftTrack(track) {
            out = left
        }

        player.mixChannel(&player.channels[track], out)
    }
}

func (player *Player) mixChannel(channel *Channel, out []int) {
    instruments := player.song.Instruments
    if channel.Instrument <= 0 || channel.Instrument >= len(instruments) {
        return
    }

    instrument := &instruments[channel.Instrument]
    if !instrument.HasData() || channel.Frequency <= 0 {
        return
    }

    step := positionStep(channel.Frequency, player.sampleRate)
    if step <= 0 {
        return
    }

    volumes := &player.volumes[clampVolume(channel.MixVolume)]
    data := instrument.Data
    looping := instrument.Loops()
    length := MakeSamplePosition(instrument.Length)
    loopStart := MakeSamplePosition(instrument.LoopStart)
    loopEnd := MakeSamplePosition(instrument.LoopEnd)

    position := channel.Position
    mixed := 0
    for mixed < len(out) {
        var count int
        if looping {
            if position >= loopEnd {
                position = loopStart
            }
            // frames until the position crosses the loop end
            count = min(len(out) - mixed, int((loopEnd - position - 1) / step) + 1)
        } else {
            if position >= length {
                break
            }
            count = min(len(out) - mixed, int((length - position - 1) / step) + 1)
        }

        chunk := out[mixed:mixed + count]
        if player.interpolate {
            for i := range chunk {
                index := position.Sample()
                fraction := position.Fraction()
                first := volumes[data[index]]
                second := volumes[data[index + 1]]
                chunk[i] += (first * (1 << FractionalBits - fraction) + second * fraction) >> FractionalBits
                position += step
            }
        } else {
            for i := range chunk {
                chunk[i] += volumes[data[position.Sample()]]
                position += step
            }
        }

        mixed += count
    }

    if looping && position >= loopEnd {
        position = loopStart
    }

    channel.Position = position
}
