package srp6

import (
	"errors"
	"math/big"
	"slices"
)

var (
	ErrOverflow = errors.New("srp6: value does not fit in the requested width")
	ErrNegative = errors.New("srp6: negative values cannot be encoded")
)

// BytesToInt interprets b as an unsigned little-endian integer. An empty
// buffer decodes to zero.
func BytesToInt(b []byte) *big.Int {
	be := slices.Clone(b)
	slices.Reverse(be)
	return new(big.Int).SetBytes(be)
}

// IntToBytes encodes v as exactly width little-endian bytes, zero padded on
// the high end.
func IntToBytes(v *big.Int, width int) ([]byte, error) {
	if v.Sign() < 0 {
		return nil, ErrNegative
	}
	if (v.BitLen()+7)/8 > width {
		return nil, ErrOverflow
	}

	out := make([]byte, width)
	v.FillBytes(out)
	slices.Reverse(out)
	return out, nil
}
