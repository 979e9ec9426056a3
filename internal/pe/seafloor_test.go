package pe

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
)

func TestSeafloorRequiresFrequency(t *testing.T) {
	g := NewWithT(t)

	sf := DefaultSeafloor()
	_, err := sf.N2(1500)
	g.Expect(errors.Is(err, ErrFrequencyNotSet)).To(BeTrue())

	sf.SetFrequency(100)
	n2, err := sf.N2(1500)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(imag(n2)).To(BeNumerically(">", 0))
	g.Expect(real(n2)).To(BeNumerically("~", math.Pow(1500.0/1700.0, 2), 1e-3))
}

func TestSeafloorLossless(t *testing.T) {
	g := NewWithT(t)

	sf := &Seafloor{C: 1600, Density: 1.2, Loss: 0}
	sf.SetFrequency(50)
	n2, err := sf.N2(1500)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(imag(n2)).To(BeZero())
	g.Expect(real(n2)).To(BeNumerically("~", math.Pow(1500.0/1600.0, 2), 1e-12))
}

func TestSeafloorInvalidLoss(t *testing.T) {
	g := NewWithT(t)

	_, err := bottomN2(1500, 1700, -1, 100)
	g.Expect(errors.Is(err, ErrInvalidBottomLoss)).To(BeTrue())

	_, err = bottomN2(1500, 1700, 1e6, 100)
	g.Expect(errors.Is(err, ErrInvalidBottomLoss)).To(BeTrue())
}
