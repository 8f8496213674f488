package sighash

import (
	"errors"
	"fmt"
)

// Flag is the signature scope bitmask serialized at the tail of the preimage
// and appended as the final byte of an encoded signature.
type Flag uint32

const (
	// All commits the signature to every output.
	All Flag = 0x01
	// None commits the signature to no output.
	None Flag = 0x02
	// Single commits the signature to the output at the same index as the
	// signed input.
	Single Flag = 0x03
	// ForkID marks the post-fork replay-protected signing algorithm. It is
	// always set.
	ForkID Flag = 0x40
	// AnyoneCanPay uncommits every input but the signed one.
	AnyoneCanPay Flag = 0x80

	baseMask Flag = 0x1f
)

// Base strips the modifier bits, leaving one of All, None or Single.
func (f Flag) Base() Flag { return f & baseMask }

// HasAnyoneCanPay reports whether the ANYONECANPAY modifier is set.
func (f Flag) HasAnyoneCanPay() bool { return f&AnyoneCanPay != 0 }

// SignOutputs selects which outputs a signature commits to. The zero value is
// deliberately invalid so callers choosing a scope do so explicitly; the
// unlockers map it to their documented default.
type SignOutputs uint8

const (
	SignUnspecified SignOutputs = iota
	SignAll
	SignNone
	SignSingle
)

// ErrScopeConfiguration is returned when a scope selection cannot be parsed.
var ErrScopeConfiguration = errors.New("invalid signature scope")

func (s SignOutputs) String() string {
	switch s {
	case SignNone:
		return "none"
	case SignSingle:
		return "single"
	default:
		return "all"
	}
}

// ParseSignOutputs parses the string form used by CLI flags and adapters.
func ParseSignOutputs(s string) (SignOutputs, error) {
	switch s {
	case "all":
		return SignAll, nil
	case "none":
		return SignNone, nil
	case "single":
		return SignSingle, nil
	default:
		return SignUnspecified, fmt.Errorf("%w: unknown selection %q", ErrScopeConfiguration, s)
	}
}

// Resolve maps an output selection and the anyone-can-pay modifier to the
// wire-level scope bitmask. ForkID is always included. The function is total:
// an unspecified selection resolves like SignAll.
func Resolve(outputs SignOutputs, anyoneCanPay bool) Flag {
	scope := All
	switch outputs {
	case SignNone:
		scope = None
	case SignSingle:
		scope = Single
	}
	scope |= ForkID
	if anyoneCanPay {
		scope |= AnyoneCanPay
	}
	return scope
}
