package main

import (
    "os"

    "golang.org/x/term"
)

// Keyboard reads single key presses from a terminal put in raw mode
type Keyboard struct {
    fd int
    oldState *term.State
    Keys chan rune
}

// MakeKeyboard switches stdin to raw mode. Returns an error if stdin is not a terminal.
func MakeKeyboard() (*Keyboard, error) {
    fd := int(os.Stdin.Fd())
    oldState, err := term.MakeRaw(fd)
    if err != nil {
        return nil, err
    }

    keyboard := &Keyboard{
        fd: fd,
        oldState: oldState,
        Keys: make(chan rune, 16),
    }

    go keyboard.read()

    return keyboard, nil
}

// the goroutine stays blocked in Read until the process exits
func (keyboard *Keyboard) read() {
    buffer := make([]byte, 1)
    for {
        count, err := os.Stdin.Read(buffer)
        if err != nil {
            close(keyboard.Keys)
            return
        }
        if count > 0 {
            keyboard.Keys <- rune(buffer[0])
        }
    }
}

func (keyboard *Keyboard) Restore() error {
    if keyboard.oldState == nil {
        return nil
    }
    err := term.Restore(keyboard.fd, keyboard.oldState)
    keyboard.oldState = nil
    return err
}
