package stability

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStability(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Stability Suite")
}
