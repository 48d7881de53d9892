// Package qr renders tracking URLs as PNG QR codes.
package qr

import (
	"fmt"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// Defaults used by NewEncoder: low error correction and 10 pixels per module.
// The library always surrounds the symbol with a 4-module quiet zone.
const (
	DefaultLevel      = qrcode.Low
	DefaultModuleSize = 10
)

// EncodingError means the payload does not fit in any QR version.
type EncodingError struct {
	PayloadLength int
	Err           error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode %d-byte QR payload: %v", e.PayloadLength, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Encoder produces black-on-white PNG QR codes, choosing the smallest
// version that fits the payload.
type Encoder struct {
	Level      qrcode.RecoveryLevel
	ModuleSize int
}

// NewEncoder returns an Encoder with the default level and module size.
func NewEncoder() *Encoder {
	return &Encoder{Level: DefaultLevel, ModuleSize: DefaultModuleSize}
}

// Encode returns the PNG bytes of a QR code carrying payload.
func (e *Encoder) Encode(payload string) ([]byte, error) {
	code, err := qrcode.New(payload, e.Level)
	if err != nil {
		return nil, &EncodingError{PayloadLength: len(payload), Err: err}
	}
	code.ForegroundColor = color.Black
	code.BackgroundColor = color.White

	// A negative size asks for ModuleSize pixels per module instead of a
	// fixed image width.
	png, err := code.PNG(-e.moduleSize())
	if err != nil {
		return nil, &EncodingError{PayloadLength: len(payload), Err: err}
	}
	return png, nil
}

func (e *Encoder) moduleSize() int {
	if e.ModuleSize <= 0 {
		return DefaultModuleSize
	}
	return e.ModuleSize
}
