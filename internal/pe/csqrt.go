package pe

import "math/cmplx"

// Csqrt is the principal complex square root with the result's imaginary
// part forced non-negative. Waves exp(i k r sqrt(n2)) then decay with range
// instead of growing, including for negative real n2 (evanescent spectrum).
func Csqrt(x complex128) complex128 {
	s := cmplx.Sqrt(x)
	if imag(s) < 0 {
		return -s
	}
	return s
}
