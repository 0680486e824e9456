package xpayments

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a required string argument that is empty.
	// It is returned before any network activity takes place.
	ErrInvalidArgument = errors.New("xpayments: required argument is empty")

	// ErrUnicodeProcessing reports header or signature input that is not
	// valid UTF-8 and therefore cannot be encoded for the wire.
	ErrUnicodeProcessing = errors.New("xpayments: input is not valid UTF-8")
)

// JSONProcessingError reports a response body that is not valid JSON. It
// carries the decoder's message for diagnostics.
type JSONProcessingError struct {
	Message string
}

func (e *JSONProcessingError) Error() string {
	return fmt.Sprintf("xpayments: decoding response JSON: %s", e.Message)
}

func requiredArg(name, value string) error {
	if len(value) == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, name)
	}
	return nil
}
