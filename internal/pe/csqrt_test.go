package pe

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestCsqrtNonNegativeImaginary(t *testing.T) {
	inputs := []complex128{
		4,
		-4,
		complex(-4, math.Copysign(0, -1)),
		complex(1, 0.1),
		complex(1, -0.1),
		complex(-1, -1e-3),
		complex(0.5, 2),
		0,
	}

	for _, x := range inputs {
		s := Csqrt(x)
		if imag(s) < 0 {
			t.Errorf("Csqrt(%v)=%v has negative imaginary part", x, s)
		}
		if cmplx.Abs(s*s-x) > 1e-12 {
			t.Errorf("Csqrt(%v)^2=%v", x, s*s)
		}
	}
}

func TestCsqrtEvanescentDecays(t *testing.T) {
	// exp(i k r sqrt(n2)) must not grow for n2 < 0
	s := Csqrt(-0.25)
	v := cmplx.Exp(1i * complex(100, 0) * s)
	if cmplx.Abs(v) > 1 {
		t.Errorf("evanescent wave grows: |v|=%f", cmplx.Abs(v))
	}
}
