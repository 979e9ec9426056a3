package tl

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTL(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transmission Loss Suite")
}
