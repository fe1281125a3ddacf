package device

import (
	"math/cmplx"

	"github.com/san-kum/gridmodes/internal/linsys"
)

const (
	glDelta = iota
	glXPLL
	glP
	glQ
	glXP
	glXQ
	glFilter
)

var gflNames = append([]string{"delta", "x_pll", "P", "Q", "x_p", "x_q"}, filterNames...)

// GFL is a grid-following inverter. A PLL on the capacitor q-voltage
// tracks the grid angle and PI loops on low-pass filtered P and Q set the
// filter-current references.
type GFL struct {
	label string
	wb    float64

	pset, qset   float64
	wset         float64
	kpPLL, kiPLL float64
	wc           float64
	kpP, kiP     float64
	kpQ, kiQ     float64

	f filter
}

func NewGFL(label string, p linsys.ParameterSet, wbase float64) (*GFL, error) {
	r := p.Reader(label)
	g := &GFL{
		label: label,
		wb:    wbase,
		pset:  r.Float("Pset"),
		qset:  r.Float("Qset"),
		wset:  r.Float("wset"),
		kpPLL: r.Float("KpPLL"),
		kiPLL: r.Float("KiPLL"),
		wc:    r.Float("wc"),
		kpP:   r.Float("KpP"),
		kiP:   r.Float("KiP"),
		kpQ:   r.Float("KpQ"),
		kiQ:   r.Float("KiQ"),
		f:     readFilter(r, wbase),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GFL) Label() string          { return g.label }
func (g *GFL) Class() Class           { return ClassGFL }
func (g *GFL) Connection() Connection { return Source }
func (g *GFL) States() []string       { return gflNames }
func (g *GFL) fixedVoltage() bool     { return false }

func (g *GFL) Derive(dx, x []float64, v [2]float64, wcom float64) {
	g.deriveWith(dx, x, v, wcom, 0, 0)
}

func (g *GFL) deriveWith(dx, x []float64, v [2]float64, wcom, offP, offQ float64) {
	s := x[glFilter:]
	w := g.Frequency(x)
	vbd, vbq := localDQ(v[0], v[1], x[glDelta])
	p, q := power(s)

	eP := g.pset + offP - x[glP]
	eQ := g.qset + offQ - x[glQ]
	ildRef := g.kpP*eP + g.kiP*x[glXP]
	ilqRef := -(g.kpQ*eQ + g.kiQ*x[glXQ])

	dx[glDelta] = g.wb * (w - wcom)
	dx[glXPLL] = s[fVoQ]
	dx[glP] = g.wc * (p - x[glP])
	dx[glQ] = g.wc * (q - x[glQ])
	dx[glXP] = eP
	dx[glXQ] = eQ
	g.f.derive(dx[glFilter:], s, ildRef, ilqRef, w, vbd, vbq)
}

// Frequency is the PLL estimate.
func (g *GFL) Frequency(x []float64) float64 {
	return g.wset + g.kpPLL*x[glFilter+fVoQ] + g.kiPLL*x[glXPLL]
}

func (g *GFL) frequencyWith(x []float64, _ float64) float64 { return g.Frequency(x) }

func (g *GFL) Output(x []float64) [2]float64 {
	D, Q := globalDQ(x[glFilter+fIoD], x[glFilter+fIoQ], x[glDelta])
	return [2]float64{D, Q}
}

func (g *GFL) Residual(t Terminal) complex128 {
	vc := g.f.capacitor(t)
	return vc*cmplx.Conj(t.I) - complex(g.pset, g.qset)
}

func (g *GFL) ReferenceResidual(t Terminal) float64 {
	return imag(g.f.capacitor(t))
}

func (g *GFL) InitialCurrent(v complex128) complex128 {
	return cmplx.Conj(complex(g.pset, g.qset) / v)
}

func (g *GFL) SteadyState(t Terminal) ([]float64, error) {
	vc := g.f.capacitor(t)
	delta := cmplx.Phase(vc)

	x := make([]float64, len(gflNames))
	x[glDelta] = delta
	x[glXPLL] = (t.W - g.wset) / g.kiPLL
	g.f.steady(x[glFilter:], toLocal(vc, delta), toLocal(t.I, delta), t.W)
	x[glP], x[glQ] = power(x[glFilter:])
	x[glXP] = x[glFilter+fIlD] / g.kiP
	x[glXQ] = -x[glFilter+fIlQ] / g.kiQ
	return x, nil
}

func (g *GFL) offsets(t Terminal) (float64, float64) {
	vc := g.f.capacitor(t)
	s := vc * cmplx.Conj(t.I)
	return real(s) - g.pset, imag(s) - g.qset
}
