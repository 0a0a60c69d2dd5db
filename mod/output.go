package mod

import (
    "encoding/binary"
)

// conversion from the accumulation buffers to output samples for one bit depth
type sampleFormat struct {
    shift int
    bias int
    low int
    high int
}

var (
    // unsigned 8 bit
    format8 = sampleFormat{shift: 8, bias: 128, low: 0, high: 255}
    // signed 16 bit little endian
    format16 = sampleFormat{shift: 0, bias: 0, low: -32768, high: 32767}
)

func (format *sampleFormat) convert(value int) int {
    return min(max((value >> format.shift) + format.bias, format.low), format.high)
}

// writeOutput converts the mixed frames into data in the prepared layout and bit depth
func (player *Player) writeOutput(left []int, right []int, data []byte) {
    format := format16
    if player.bitsPerSample == 8 {
        format = format8
    }

    write := func(index int, value int) {
        if player.bitsPerSample == 8 {
            data[index] = byte(value)
        } else {
            binary.LittleEndian.PutUint16(data[index * 2:], uint16(int16(value)))
        }
    }

    switch player.layout {
        case LayoutMono:
            for i := range left {
                write(i, format.convert(left[i] + right[i]))
            }
        case LayoutStereo:
            for i := range left {
                write(i * 2, format.convert(left[i]))
                write(i * 2 + 1, format.convert(right[i]))
            }
        case LayoutStereoPan:
            pan := player.stereoPan
            for i := range left {
                leftValue := left[i]
                rightValue := right[i]
                if pan > 0 {
                    leftValue += right[i] * 100 / (pan + 100)
                    rightValue += left[i] * 100 / (pan + 100)
                }
                write(i * 2, format.convert(leftValue))
                write(i * 2 + 1, format.convert(rightValue))
            }
        case LayoutSurround:
            player.writeSurround(left, right, &format, write)
    }
}

// writeSurround adds to each side the other side as it was delay frames earlier. The
// frames from before this read come from the tail kept by the previous read.
func (player *Player) writeSurround(left []int, right []int, format *sampleFormat, write func(int, int)) {
    delay := len(player.surroundLeft)
    frames := len(left)

    delayed := func(history []int, current []int, i int) int {
        if i < delay {
            return history[i]
        }
        return current[i - delay]
    }

    for i := range frames {
        write(i * 2, format.convert(left[i] + delayed(player.surroundRight, right, i)))
        write(i * 2 + 1, format.convert(right[i] + delayed(player.surroundLeft, left, i)))
    }

    // keep the last delay frames for the next read
    if delay == 0 {
        return
    }
    if frames >= delay {
        copy(player.surroundLeft, left[frames - delay:])
        copy(player.surroundRight, right[frames - delay:])
    } else {
        copy(player.surroundLeft, player.surroundLeft[frames:])
        copy(player.surroundLeft[delay - frames:], left)
        copy(player.surroundRight, player.surroundRight[frames:])
        copy(player.surroundRight[delay - frames:], right)
    }
}
