package common

import (
    "errors"
    "fmt"
)

// returned when none of the loaders recognise the module data
var ErrFormatNotSupported = errors.New("format not supported")

// matched by errors.Is for any *MalformedDataError
var ErrMalformedData = errors.New("malformed module data")

// returned (wrapped) by control calls given an out of range argument
var ErrInvalidParameter = errors.New("invalid parameter")

// MalformedDataError reports a declared length that would read past the end of the module data
type MalformedDataError struct {
    What string
    Offset int
    Need int
    Have int
}

func (err *MalformedDataError) Error() string {
    return fmt.Sprintf("malformed module data: %v at offset %v needs %v bytes but only %v are available", err.What, err.Offset, err.Need, err.Have)
}

func (err *MalformedDataError) Is(target error) bool {
    return target == ErrMalformedData
}
