package device

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/gridmodes/internal/linsys"
)

const (
	sgDelta = iota
	sgW
	sgEq1
	sgEd1
	sgEq2
	sgEd2
	sgId
	sgIq
	sgVm
	sgVR
	sgEfd
	sgRf
	sgPv
	sgPm
	sgStates
)

var sgNames = []string{"delta", "w", "eq1", "ed1", "eq2", "ed2", "i_d", "i_q", "v_m", "v_r", "e_fd", "r_f", "p_v", "p_m"}

// SG is a two-axis synchronous machine with subtransient circuits, a DC1A
// style exciter with rate feedback and a governor-turbine pair. The
// stator current through X''d is a state; X''q equals X''d.
type SG struct {
	label string
	wb    float64

	pset, vset, wset float64
	h, d             float64
	xd, xq           float64
	xd1, xq1, xd2    float64
	td01, tq01       float64
	td02, tq02       float64
	ra               float64
	tr               float64
	ka, ta           float64
	ke, te           float64
	kf, tf           float64
	rg, tg, tt       float64

	// vref is the exciter reference that holds the terminal voltage at
	// vset; it is fixed by SteadyState.
	vref float64
}

func NewSG(label string, p linsys.ParameterSet, wbase float64) (*SG, error) {
	r := p.Reader(label)
	m := &SG{
		label: label,
		wb:    wbase,
		pset:  r.Float("Pset"),
		vset:  r.Float("Vset"),
		wset:  r.Float("wset"),
		h:     r.Float("H"),
		d:     r.Float("D"),
		xd:    r.Float("Xd"),
		xq:    r.Float("Xq"),
		xd1:   r.Float("Xd1"),
		xq1:   r.Float("Xq1"),
		xd2:   r.Float("Xd2"),
		td01:  r.Float("Td01"),
		tq01:  r.Float("Tq01"),
		td02:  r.Float("Td02"),
		tq02:  r.Float("Tq02"),
		ra:    r.Float("Ra"),
		tr:    r.Float("Tr"),
		ka:    r.Float("KA"),
		ta:    r.Float("TA"),
		ke:    r.Float("KE"),
		te:    r.Float("TE"),
		kf:    r.Float("KF"),
		tf:    r.Float("TF"),
		rg:    r.Float("Rg"),
		tg:    r.Float("Tg"),
		tt:    r.Float("Tt"),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	m.vref = m.vset
	return m, nil
}

func (m *SG) Label() string          { return m.label }
func (m *SG) Class() Class           { return ClassSG }
func (m *SG) Connection() Connection { return Source }
func (m *SG) States() []string       { return sgNames }

func (m *SG) Derive(dx, x []float64, v [2]float64, wcom float64) {
	w := x[sgW]
	id, iq := x[sgId], x[sgIq]
	ed2, eq2 := x[sgEd2], x[sgEq2]
	efd := x[sgEfd]
	vbd, vbq := localDQ(v[0], v[1], x[sgDelta])
	te := ed2*id + eq2*iq

	dx[sgDelta] = m.wb * (w - wcom)
	dx[sgW] = (x[sgPm] - te - m.d*(w-1)) / (2 * m.h)
	dx[sgEq1] = (efd - x[sgEq1] - (m.xd-m.xd1)*id) / m.td01
	dx[sgEd1] = (-x[sgEd1] + (m.xq-m.xq1)*iq) / m.tq01
	dx[sgEq2] = (x[sgEq1] - eq2 - (m.xd1-m.xd2)*id) / m.td02
	dx[sgEd2] = (x[sgEd1] - ed2 + (m.xq1-m.xd2)*iq) / m.tq02
	dx[sgId] = m.wb/m.xd2*(ed2-vbd-m.ra*id) + m.wb*w*iq
	dx[sgIq] = m.wb/m.xd2*(eq2-vbq-m.ra*iq) - m.wb*w*id
	dx[sgVm] = (math.Hypot(v[0], v[1]) - x[sgVm]) / m.tr
	dx[sgVR] = (m.ka*(m.vref-x[sgVm]-x[sgRf]) - x[sgVR]) / m.ta
	dx[sgEfd] = (x[sgVR] - m.ke*efd) / m.te
	dx[sgRf] = (m.kf/m.tf*efd - x[sgRf]) / m.tf
	dx[sgPv] = (m.pset - (w-m.wset)/m.rg - x[sgPv]) / m.tg
	dx[sgPm] = (x[sgPv] - x[sgPm]) / m.tt
}

func (m *SG) Frequency(x []float64) float64 { return x[sgW] }

// RegulatesVoltage reports that the exciter holds the terminal magnitude
// at Vset.
func (m *SG) RegulatesVoltage() bool { return true }

func (m *SG) Output(x []float64) [2]float64 {
	D, Q := globalDQ(x[sgId], x[sgIq], x[sgDelta])
	return [2]float64{D, Q}
}

// internal returns the voltage behind the q-axis reactance; the q axis
// lines up with it in steady state.
func (m *SG) internal(t Terminal) complex128 {
	xqe := m.xq + (t.W-1)*m.xd2
	return t.V + complex(m.ra, xqe)*t.I
}

func (m *SG) Residual(t Terminal) complex128 {
	i2 := real(t.I)*real(t.I) + imag(t.I)*imag(t.I)
	pe := real(t.V*cmplx.Conj(t.I)) + m.ra*i2
	fp := pe + m.d*(t.W-1) - (m.pset - (t.W-m.wset)/m.rg)
	fv := cmplx.Abs(t.V) - m.vset
	return complex(fp, fv)
}

func (m *SG) ReferenceResidual(t Terminal) float64 {
	return real(m.internal(t))
}

func (m *SG) InitialCurrent(v complex128) complex128 {
	return cmplx.Conj(complex(m.pset, 0) / v)
}

func (m *SG) SteadyState(t Terminal) ([]float64, error) {
	delta := cmplx.Phase(m.internal(t)) - math.Pi/2
	vb := toLocal(t.V, delta)
	i := toLocal(t.I, delta)
	vd, vq := real(vb), imag(vb)
	id, iq := real(i), imag(i)

	x := make([]float64, sgStates)
	x[sgDelta] = delta
	x[sgW] = t.W
	x[sgId], x[sgIq] = id, iq
	x[sgEq2] = vq + m.ra*iq + t.W*m.xd2*id
	x[sgEd2] = vd + m.ra*id - t.W*m.xd2*iq
	x[sgEd1] = (m.xq - m.xq1) * iq
	x[sgEq1] = x[sgEq2] + (m.xd1-m.xd2)*id
	x[sgEfd] = x[sgEq1] + (m.xd-m.xd1)*id

	te := x[sgEd2]*id + x[sgEq2]*iq
	x[sgPm] = te + m.d*(t.W-1)
	x[sgPv] = x[sgPm]

	x[sgVm] = cmplx.Abs(t.V)
	x[sgRf] = m.kf / m.tf * x[sgEfd]
	x[sgVR] = m.ke * x[sgEfd]
	m.vref = x[sgVm] + x[sgRf] + x[sgVR]/m.ka
	return x, nil
}
