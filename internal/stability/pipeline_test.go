package stability

import (
	"errors"
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/gridmodes/internal/config"
	"github.com/san-kum/gridmodes/internal/linsys"
)

var _ = Describe("Analyze", func() {
	Context("droop inverter against an infinite bus", func() {
		var res *Result

		BeforeEach(func() {
			var err error
			res, err = Analyze(*config.GetPreset("droop-infinite-bus"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("converges", func() {
			Expect(res.Converged).To(BeTrue())
			Expect(res.OperatingPoint.ResidualNorm).To(BeNumerically("<", 1e-6))
		})

		It("keeps all 13 inverter states", func() {
			r, c := res.Asys.Dims()
			Expect(r).To(Equal(13))
			Expect(c).To(Equal(13))
			Expect(res.FullStates).To(Equal(13))
			Expect(res.Removed).To(Equal(linsys.Variable{}))
			Expect(res.Variables).To(HaveLen(13))
		})

		It("is small-signal stable", func() {
			Expect(res.MaxRealPart).To(BeNumerically("<", 0))
			Expect(res.Stable).To(BeTrue())
		})

		It("reports consistent modes", func() {
			Expect(res.Modes).NotTo(BeEmpty())
			for _, m := range res.Modes {
				lambda := res.Eigenvalues[m.Index]
				Expect(m.Imag).To(BeNumerically(">=", 0))
				Expect(m.DampingRatio).To(BeNumerically("~", -real(lambda)/cmplx.Abs(lambda), 1e-12))
				Expect(m.FrequencyHz).To(BeNumerically("~", math.Abs(imag(lambda))/(2*math.Pi), 1e-12))
				for _, p := range m.Participation {
					Expect(p.Magnitude).To(BeNumerically(">=", 0.01))
					Expect(p.Owner).To(Equal("inv1"))
				}
			}
		})
	})

	Context("two droop inverters sharing a load", func() {
		It("removes the first inverter's angle", func() {
			res, err := Analyze(*config.GetPreset("two-droop-load"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())

			Expect(res.FullStates).To(Equal(26))
			r, c := res.Asys.Dims()
			Expect(r).To(Equal(25))
			Expect(c).To(Equal(25))
			Expect(res.Variables).To(HaveLen(25))
			Expect(res.Removed).To(Equal(linsys.Variable{Name: "delta", Component: "inv1"}))
			Expect(res.Variables).To(ContainElement(linsys.Variable{Name: "delta", Component: "inv2"}))
			Expect(res.Variables).NotTo(ContainElement(linsys.Variable{Name: "delta", Component: "inv1"}))
		})
	})

	Context("grid-following units against an infinite bus", func() {
		It("is stable for a bare inverter", func() {
			res, err := Analyze(*config.GetPreset("gfl-infinite-bus"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(res.MaxRealPart).To(BeNumerically("<", 0))
		})

		It("is stable under a plant controller", func() {
			res, err := Analyze(*config.GetPreset("gfl-plant-grid"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())
			Expect(res.MaxRealPart).To(BeNumerically("<", 0))
		})
	})

	Context("participation threshold", func() {
		It("keeps every state when the threshold is zero", func() {
			c := config.GetPreset("droop-infinite-bus")
			c.Threshold = 0

			res, err := Analyze(*c)
			Expect(err).NotTo(HaveOccurred())
			n, _ := res.Asys.Dims()
			for _, m := range res.Modes {
				Expect(m.Participation).To(HaveLen(n))
			}
		})

		It("falls back to the default for a negative threshold", func() {
			c := config.GetPreset("droop-infinite-bus")
			c.Threshold = -1

			res, err := Analyze(*c)
			Expect(err).NotTo(HaveOccurred())
			for _, m := range res.Modes {
				for _, p := range m.Participation {
					Expect(p.Magnitude).To(BeNumerically(">=", config.DefaultThreshold))
				}
			}
		})
	})

	DescribeTable("every preset solves its power flow and is stable",
		func(name string) {
			c := config.GetPreset(name)
			Expect(c).NotTo(BeNil())

			res, err := Analyze(*c)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue())

			top, err := Build(*c)
			Expect(err).NotTo(HaveOccurred())
			f := make([]float64, top.Dim())
			top.Residual(f, res.OperatingPoint.Solution)
			Expect(floats.Norm(f, math.Inf(1))).To(BeNumerically("<", 1e-5))

			n, _ := res.Asys.Dims()
			Expect(res.Variables).To(HaveLen(n))
			Expect(res.SteadyState).To(HaveLen(res.FullStates))
			if res.Removed.Name != "" {
				Expect(n).To(Equal(res.FullStates - 1))
			} else {
				Expect(n).To(Equal(res.FullStates))
			}

			Expect(res.MaxRealPart).To(BeNumerically("<", 0))
			Expect(res.Stable).To(BeTrue())
		},
		presetEntries(),
	)

	It("is idempotent", func() {
		c := config.GetPreset("droop-sg")
		a, err := Analyze(*c)
		Expect(err).NotTo(HaveOccurred())
		b, err := Analyze(*c)
		Expect(err).NotTo(HaveOccurred())

		Expect(mat.Equal(a.Asys, b.Asys)).To(BeTrue())
		Expect(a.SteadyState).To(Equal(b.SteadyState))
		Expect(a.Eigenvalues).To(Equal(b.Eigenvalues))
		Expect(a.Variables).To(Equal(b.Variables))
	})

	Describe("configuration errors", func() {
		It("reports a missing parameter", func() {
			c := config.GetPreset("droop-infinite-bus")
			delete(c.Component("inv1").Params, "KpC")

			_, err := Analyze(*c)
			Expect(err).To(MatchError(linsys.ErrMissingParameter))
			var mpe *linsys.MissingParameterError
			Expect(errors.As(err, &mpe)).To(BeTrue())
			Expect(mpe.Key).To(Equal("KpC"))
		})

		It("rejects an unknown device class", func() {
			c := config.GetPreset("two-droop-load")
			c.Component("load1").Class = "motor"

			_, err := Analyze(*c)
			Expect(err).To(MatchError(linsys.ErrUnknownClass))
		})

		It("rejects a stiff device that is not the reference", func() {
			c := config.GetPreset("droop-infinite-bus")
			c.Reference = "inv1"

			_, err := Analyze(*c)
			Expect(err).To(MatchError(linsys.ErrTopology))
		})
	})
})

func presetEntries() []TableEntry {
	var entries []TableEntry
	for _, name := range config.ListPresets() {
		entries = append(entries, Entry(name, name))
	}
	return entries
}
