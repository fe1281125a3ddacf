package device

import (
	"math/cmplx"

	"github.com/san-kum/gridmodes/internal/linsys"
)

const (
	vmDelta = iota
	vmW
	vmQ
	vmPhiD
	vmPhiQ
	vmFilter
)

var vsmNames = append([]string{"delta", "w", "Q", "phi_d", "phi_q"}, filterNames...)

// VSM is a virtual synchronous machine: a synthetic swing equation on the
// instantaneous capacitor power replaces the P-f droop.
type VSM struct {
	label string
	wb    float64

	pset, qset float64
	wset, vset float64
	h, dp      float64
	mq, wc     float64

	vl voltageLoop
	f  filter
}

func NewVSM(label string, p linsys.ParameterSet, wbase float64) (*VSM, error) {
	r := p.Reader(label)
	m := &VSM{
		label: label,
		wb:    wbase,
		pset:  r.Float("Pset"),
		qset:  r.Float("Qset"),
		wset:  r.Float("wset"),
		vset:  r.Float("Vset"),
		h:     r.Float("H"),
		dp:    r.Float("Dp"),
		mq:    r.Float("mq"),
		wc:    r.Float("wc"),
		vl:    voltageLoop{kpv: r.Float("KpV"), kiv: r.Float("KiV")},
		f:     readFilter(r, wbase),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *VSM) Label() string          { return m.label }
func (m *VSM) Class() Class           { return ClassVSM }
func (m *VSM) Connection() Connection { return Source }
func (m *VSM) States() []string       { return vsmNames }
func (m *VSM) fixedVoltage() bool     { return linsys.IsFixed(m.mq) }

func (m *VSM) Derive(dx, x []float64, v [2]float64, wcom float64) {
	m.deriveWith(dx, x, v, wcom, 0, 0)
}

func (m *VSM) deriveWith(dx, x []float64, v [2]float64, wcom, offP, offQ float64) {
	s := x[vmFilter:]
	w := x[vmW]
	vbd, vbq := localDQ(v[0], v[1], x[vmDelta])
	p, q := power(s)

	vref := droopVoltage(m.vset, m.mq, x[vmQ], m.qset+offQ)
	ildRef, ilqRef, ed, eq := m.vl.refs(&m.f, x[vmPhiD], x[vmPhiQ], vref, 0, s)

	dx[vmDelta] = m.wb * (w - wcom)
	dx[vmW] = (m.pset + offP - p - m.dp*(w-m.wset)) / (2 * m.h)
	dx[vmQ] = m.wc * (q - x[vmQ])
	dx[vmPhiD] = ed
	dx[vmPhiQ] = eq
	m.f.derive(dx[vmFilter:], s, ildRef, ilqRef, w, vbd, vbq)
}

func (m *VSM) Frequency(x []float64) float64 { return x[vmW] }

func (m *VSM) frequencyWith(x []float64, _ float64) float64 { return x[vmW] }

func (m *VSM) Output(x []float64) [2]float64 {
	D, Q := globalDQ(x[vmFilter+fIoD], x[vmFilter+fIoQ], x[vmDelta])
	return [2]float64{D, Q}
}

func (m *VSM) Residual(t Terminal) complex128 {
	vc := m.f.capacitor(t)
	s := vc * cmplx.Conj(t.I)
	fp := real(s) - (m.pset - m.dp*(t.W-m.wset))
	fv := cmplx.Abs(vc) - droopVoltage(m.vset, m.mq, imag(s), m.qset)
	return complex(fp, fv)
}

func (m *VSM) ReferenceResidual(t Terminal) float64 {
	return imag(m.f.capacitor(t))
}

func (m *VSM) InitialCurrent(v complex128) complex128 {
	return cmplx.Conj(complex(m.pset, m.qset) / v)
}

func (m *VSM) SteadyState(t Terminal) ([]float64, error) {
	vc := m.f.capacitor(t)
	delta := cmplx.Phase(vc)
	s := vc * cmplx.Conj(t.I)

	x := make([]float64, len(vsmNames))
	x[vmDelta] = delta
	x[vmW] = t.W
	x[vmQ] = imag(s)
	m.f.steady(x[vmFilter:], toLocal(vc, delta), toLocal(t.I, delta), t.W)
	x[vmPhiD], x[vmPhiQ] = m.vl.steady(&m.f, x[vmFilter:])
	return x, nil
}

func (m *VSM) offsets(t Terminal) (float64, float64) {
	vc := m.f.capacitor(t)
	s := vc * cmplx.Conj(t.I)
	offP := real(s) + m.dp*(t.W-m.wset) - m.pset
	offQ := reactiveOffset(m.vset, m.mq, imag(s), m.qset, cmplx.Abs(vc))
	return offP, offQ
}
