package domain

import (
	"errors"
	"math/bits"
)

// Arithmetic errors.
var (
	ErrMathOverflow   = errors.New("arithmetic overflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// MulDiv computes a*b/den with a 128-bit intermediate.
// Truncates toward zero. Returns ErrMathOverflow if the quotient
// does not fit in 64 bits.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrDivisionByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrMathOverflow
	}
	q, _ := bits.Div64(hi, lo, den)
	return q, nil
}

// SafeAdd returns a+b or ErrMathOverflow.
func SafeAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

// SafeSub returns a-b or ErrMathOverflow if b > a.
func SafeSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrMathOverflow
	}
	return a - b, nil
}
