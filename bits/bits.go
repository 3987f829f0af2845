// Package bits provides range-checked single-bit operations on machine words.
//
// All positional operations validate the bit position against the machine
// word width and report ErrBitRange when it is out of range. The whole-word
// tests (TestBitAll, TestBitAny, TestBitNone) never fail.
package bits

import "github.com/pkg/errors"

// WordBits is the number of bits in a machine word.
const WordBits = 32

// ErrBitRange indicates a bit position outside [0, WordBits).
var ErrBitRange = errors.New("bit position out of range")

// CheckBitInRange reports whether pos names a valid bit of a machine word.
func CheckBitInRange(pos uint) bool {
	return pos < WordBits
}

// TestBit reports whether bit pos of n is set.
func TestBit(n uint32, pos uint) (bool, error) {
	if !CheckBitInRange(pos) {
		return false, errors.Wrapf(ErrBitRange, "test bit %d", pos)
	}
	return n&(1<<pos) != 0, nil
}

// SetBit returns n with bit pos set.
func SetBit(n uint32, pos uint) (uint32, error) {
	if !CheckBitInRange(pos) {
		return n, errors.Wrapf(ErrBitRange, "set bit %d", pos)
	}
	return n | 1<<pos, nil
}

// ResetBit returns n with bit pos cleared.
func ResetBit(n uint32, pos uint) (uint32, error) {
	if !CheckBitInRange(pos) {
		return n, errors.Wrapf(ErrBitRange, "reset bit %d", pos)
	}
	return n &^ (1 << pos), nil
}

// FlipBit returns n with bit pos inverted.
func FlipBit(n uint32, pos uint) (uint32, error) {
	if !CheckBitInRange(pos) {
		return n, errors.Wrapf(ErrBitRange, "flip bit %d", pos)
	}
	return n ^ 1<<pos, nil
}

// TestBitAll reports whether every bit of n is set.
func TestBitAll(n uint32) bool {
	return n == ^uint32(0)
}

// TestBitAllN reports whether the lowest k+1 bits of n are all set.
// k = WordBits-1 degenerates to the whole-word test; the mask is built in
// 64-bit arithmetic so that case cannot overflow the shift.
func TestBitAllN(n uint32, k uint) (bool, error) {
	if !CheckBitInRange(k) {
		return false, errors.Wrapf(ErrBitRange, "test low bits through %d", k)
	}
	mask := uint32(uint64(1)<<(k+1) - 1)
	return n&mask == mask, nil
}

// TestBitAny reports whether any bit of n is set.
func TestBitAny(n uint32) bool {
	return n != 0
}

// TestBitAnyN reports whether any of the lowest k+1 bits of n is set.
func TestBitAnyN(n uint32, k uint) (bool, error) {
	if !CheckBitInRange(k) {
		return false, errors.Wrapf(ErrBitRange, "test low bits through %d", k)
	}
	mask := uint32(uint64(1)<<(k+1) - 1)
	return n&mask != 0, nil
}

// TestBitNone reports whether no bit of n is set.
func TestBitNone(n uint32) bool {
	return n == 0
}

// TestBitNoneN reports whether none of the lowest k+1 bits of n is set.
func TestBitNoneN(n uint32, k uint) (bool, error) {
	any, err := TestBitAnyN(n, k)
	return !any, err
}

// Promote widens n for multiplication. Products are computed in 64-bit
// arithmetic and truncated back to a machine word, which keeps the
// multiply well-defined on overflow.
func Promote(n uint32) uint64 {
	return uint64(n)
}
