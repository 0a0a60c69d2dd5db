package common

import (
    "sync"
)

// AudioBuffer is a fixed size ring of mono float samples. The player writes the
// folded output of every read into it and a display peeks at the newest samples.
// When full, writes overwrite the oldest samples.
type AudioBuffer struct {
    Buffer []float32
    lock sync.Mutex

    end int
    count int
}

// Clear drops every sample, the storage is kept
func (buffer *AudioBuffer) Clear() {
    buffer.lock.Lock()
    defer buffer.lock.Unlock()

    buffer.end = 0
    buffer.count = 0
}

// copy the newest len(data) samples, oldest first, without consuming them.
// returns the number of samples copied
func (buffer *AudioBuffer) Peek(data []float32) int {
    buffer.lock.Lock()
    defer buffer.lock.Unlock()

    amount := min(len(data), buffer.count)
    if amount == 0 {
        return 0
    }

    size := len(buffer.Buffer)
    position := (buffer.end - amount + size) % size
    copied := 0
    for copied < amount {
        limit := min(amount - copied, size - position)
        copy(data[copied:], buffer.Buffer[position:position + limit])
        copied += limit
        position = (position + limit) % size
    }

    return copied
}

func (buffer *AudioBuffer) Write(data []float32) {
    buffer.lock.Lock()
    defer buffer.lock.Unlock()

    size := len(buffer.Buffer)
    if size == 0 {
        return
    }

    // only the tail can survive
    if len(data) > size {
        data = data[len(data) - size:]
    }

    written := 0
    for written < len(data) {
        limit := min(len(data) - written, size - buffer.end)
        copy(buffer.Buffer[buffer.end:], data[written:written + limit])
        buffer.end = (buffer.end + limit) % size
        written += limit
    }

    buffer.count += len(data)
    buffer.count = min(buffer.count, size)
}

func MakeAudioBuffer(bufferSize int) *AudioBuffer {
    return &AudioBuffer{
        Buffer: make([]float32, bufferSize),
    }
}
