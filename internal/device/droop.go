package device

import (
	"math/cmplx"

	"github.com/san-kum/gridmodes/internal/linsys"
)

// unit is an inverter that a plant controller can steer by shifting its
// active and reactive set-points.
type unit interface {
	Former
	deriveWith(dx, x []float64, v [2]float64, wcom, offP, offQ float64)
	frequencyWith(x []float64, offP float64) float64
	offsets(t Terminal) (offP, offQ float64)
	fixedVoltage() bool
}

const (
	drDelta = iota
	drP
	drQ
	drPhiD
	drPhiQ
	drFilter
)

var droopNames = append([]string{"delta", "P", "Q", "phi_d", "phi_q"}, filterNames...)

// Droop is a grid-forming inverter with P-f and Q-V droop, low-pass
// filtered power measurement, cascaded voltage and current PI loops and an
// LCL output filter.
type Droop struct {
	label string
	wb    float64

	pset, qset float64
	wset, vset float64
	mp, mq     float64
	wc         float64

	vl voltageLoop
	f  filter
}

func NewDroop(label string, p linsys.ParameterSet, wbase float64) (*Droop, error) {
	r := p.Reader(label)
	d := &Droop{
		label: label,
		wb:    wbase,
		pset:  r.Float("Pset"),
		qset:  r.Float("Qset"),
		wset:  r.Float("wset"),
		vset:  r.Float("Vset"),
		mp:    r.Float("mp"),
		mq:    r.Float("mq"),
		wc:    r.Float("wc"),
		vl:    voltageLoop{kpv: r.Float("KpV"), kiv: r.Float("KiV")},
		f:     readFilter(r, wbase),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Droop) Label() string          { return d.label }
func (d *Droop) Class() Class           { return ClassDroop }
func (d *Droop) Connection() Connection { return Source }
func (d *Droop) States() []string       { return droopNames }
func (d *Droop) fixedVoltage() bool     { return linsys.IsFixed(d.mq) }

func (d *Droop) Derive(dx, x []float64, v [2]float64, wcom float64) {
	d.deriveWith(dx, x, v, wcom, 0, 0)
}

func (d *Droop) deriveWith(dx, x []float64, v [2]float64, wcom, offP, offQ float64) {
	s := x[drFilter:]
	w := d.frequencyWith(x, offP)
	vbd, vbq := localDQ(v[0], v[1], x[drDelta])
	p, q := power(s)

	vref := droopVoltage(d.vset, d.mq, x[drQ], d.qset+offQ)
	ildRef, ilqRef, ed, eq := d.vl.refs(&d.f, x[drPhiD], x[drPhiQ], vref, 0, s)

	dx[drDelta] = d.wb * (w - wcom)
	dx[drP] = d.wc * (p - x[drP])
	dx[drQ] = d.wc * (q - x[drQ])
	dx[drPhiD] = ed
	dx[drPhiQ] = eq
	d.f.derive(dx[drFilter:], s, ildRef, ilqRef, w, vbd, vbq)
}

func (d *Droop) Frequency(x []float64) float64 {
	return d.frequencyWith(x, 0)
}

func (d *Droop) frequencyWith(x []float64, offP float64) float64 {
	return d.wset - d.mp*(x[drP]-d.pset-offP)
}

func (d *Droop) Output(x []float64) [2]float64 {
	D, Q := globalDQ(x[drFilter+fIoD], x[drFilter+fIoQ], x[drDelta])
	return [2]float64{D, Q}
}

func (d *Droop) Residual(t Terminal) complex128 {
	vc := d.f.capacitor(t)
	s := vc * cmplx.Conj(t.I)
	fw := t.W - (d.wset - d.mp*(real(s)-d.pset))
	fv := cmplx.Abs(vc) - droopVoltage(d.vset, d.mq, imag(s), d.qset)
	return complex(fw, fv)
}

func (d *Droop) ReferenceResidual(t Terminal) float64 {
	return imag(d.f.capacitor(t))
}

func (d *Droop) InitialCurrent(v complex128) complex128 {
	return cmplx.Conj(complex(d.pset, d.qset) / v)
}

func (d *Droop) SteadyState(t Terminal) ([]float64, error) {
	vc := d.f.capacitor(t)
	delta := cmplx.Phase(vc)
	s := vc * cmplx.Conj(t.I)

	x := make([]float64, len(droopNames))
	x[drDelta] = delta
	x[drP] = real(s)
	x[drQ] = imag(s)
	d.f.steady(x[drFilter:], toLocal(vc, delta), toLocal(t.I, delta), t.W)
	x[drPhiD], x[drPhiQ] = d.vl.steady(&d.f, x[drFilter:])
	return x, nil
}

func (d *Droop) offsets(t Terminal) (float64, float64) {
	vc := d.f.capacitor(t)
	s := vc * cmplx.Conj(t.I)
	offP := real(s) - d.pset - (d.wset-t.W)/d.mp
	offQ := reactiveOffset(d.vset, d.mq, imag(s), d.qset, cmplx.Abs(vc))
	return offP, offQ
}

const (
	fdDelta = iota
	fdQ
	fdPhiD
	fdPhiQ
	fdFilter
)

var fastDroopNames = append([]string{"delta", "Q", "phi_d", "phi_q"}, filterNames...)

// FastDroop is a droop inverter whose P-f law acts on the instantaneous
// capacitor power. Only the reactive channel keeps a measurement filter.
type FastDroop struct {
	d Droop
}

func NewFastDroop(label string, p linsys.ParameterSet, wbase float64) (*FastDroop, error) {
	d, err := NewDroop(label, p, wbase)
	if err != nil {
		return nil, err
	}
	return &FastDroop{d: *d}, nil
}

func (f *FastDroop) Label() string          { return f.d.label }
func (f *FastDroop) Class() Class           { return ClassDroopFast }
func (f *FastDroop) Connection() Connection { return Source }
func (f *FastDroop) States() []string       { return fastDroopNames }

func (f *FastDroop) Derive(dx, x []float64, v [2]float64, wcom float64) {
	d := &f.d
	s := x[fdFilter:]
	w := f.Frequency(x)
	vbd, vbq := localDQ(v[0], v[1], x[fdDelta])
	_, q := power(s)

	vref := droopVoltage(d.vset, d.mq, x[fdQ], d.qset)
	ildRef, ilqRef, ed, eq := d.vl.refs(&d.f, x[fdPhiD], x[fdPhiQ], vref, 0, s)

	dx[fdDelta] = d.wb * (w - wcom)
	dx[fdQ] = d.wc * (q - x[fdQ])
	dx[fdPhiD] = ed
	dx[fdPhiQ] = eq
	d.f.derive(dx[fdFilter:], s, ildRef, ilqRef, w, vbd, vbq)
}

func (f *FastDroop) Frequency(x []float64) float64 {
	p, _ := power(x[fdFilter:])
	return f.d.wset - f.d.mp*(p-f.d.pset)
}

func (f *FastDroop) Output(x []float64) [2]float64 {
	D, Q := globalDQ(x[fdFilter+fIoD], x[fdFilter+fIoQ], x[fdDelta])
	return [2]float64{D, Q}
}

func (f *FastDroop) Residual(t Terminal) complex128       { return f.d.Residual(t) }
func (f *FastDroop) ReferenceResidual(t Terminal) float64 { return f.d.ReferenceResidual(t) }
func (f *FastDroop) InitialCurrent(v complex128) complex128 {
	return f.d.InitialCurrent(v)
}

func (f *FastDroop) SteadyState(t Terminal) ([]float64, error) {
	d := &f.d
	vc := d.f.capacitor(t)
	delta := cmplx.Phase(vc)

	x := make([]float64, len(fastDroopNames))
	x[fdDelta] = delta
	x[fdQ] = imag(vc * cmplx.Conj(t.I))
	d.f.steady(x[fdFilter:], toLocal(vc, delta), toLocal(t.I, delta), t.W)
	x[fdPhiD], x[fdPhiQ] = d.vl.steady(&d.f, x[fdFilter:])
	return x, nil
}

// SimpleDroop is an ideal droop-controlled voltage source behind its
// coupling impedance.
type SimpleDroop struct {
	label string
	wb    float64

	pset, qset float64
	wset, vset float64
	mp, mq     float64
	rc, lc     float64
	wc         float64
}

var simpleDroopNames = []string{"delta", "P", "Q", "io_d", "io_q"}

func NewSimpleDroop(label string, p linsys.ParameterSet, wbase float64) (*SimpleDroop, error) {
	r := p.Reader(label)
	d := &SimpleDroop{
		label: label,
		wb:    wbase,
		pset:  r.Float("Pset"),
		qset:  r.Float("Qset"),
		wset:  r.Float("wset"),
		vset:  r.Float("Vset"),
		mp:    r.Float("mp"),
		mq:    r.Float("mq"),
		rc:    r.Float("Rc"),
		lc:    r.Float("Lc"),
		wc:    r.Float("wc"),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *SimpleDroop) Label() string          { return d.label }
func (d *SimpleDroop) Class() Class           { return ClassSimpleDroop }
func (d *SimpleDroop) Connection() Connection { return Source }
func (d *SimpleDroop) States() []string       { return simpleDroopNames }

func (d *SimpleDroop) Derive(dx, x []float64, v [2]float64, wcom float64) {
	delta, P, Q, iod, ioq := x[0], x[1], x[2], x[3], x[4]
	w := d.Frequency(x)
	vref := droopVoltage(d.vset, d.mq, Q, d.qset)
	vbd, vbq := localDQ(v[0], v[1], delta)

	dx[0] = d.wb * (w - wcom)
	dx[1] = d.wc * (vref*iod - P)
	dx[2] = d.wc * (-vref*ioq - Q)
	dx[3] = d.wb/d.lc*(vref-vbd-d.rc*iod) + d.wb*w*ioq
	dx[4] = d.wb/d.lc*(-vbq-d.rc*ioq) - d.wb*w*iod
}

func (d *SimpleDroop) Frequency(x []float64) float64 {
	return d.wset - d.mp*(x[1]-d.pset)
}

func (d *SimpleDroop) Output(x []float64) [2]float64 {
	D, Q := globalDQ(x[3], x[4], x[0])
	return [2]float64{D, Q}
}

func (d *SimpleDroop) source(t Terminal) complex128 {
	return t.V + complex(d.rc, 0)*t.I + iw(t.W, d.lc)*t.I
}

func (d *SimpleDroop) Residual(t Terminal) complex128 {
	vo := d.source(t)
	s := vo * cmplx.Conj(t.I)
	fw := t.W - (d.wset - d.mp*(real(s)-d.pset))
	fv := cmplx.Abs(vo) - droopVoltage(d.vset, d.mq, imag(s), d.qset)
	return complex(fw, fv)
}

func (d *SimpleDroop) ReferenceResidual(t Terminal) float64 {
	return imag(d.source(t))
}

func (d *SimpleDroop) InitialCurrent(v complex128) complex128 {
	return cmplx.Conj(complex(d.pset, d.qset) / v)
}

func (d *SimpleDroop) SteadyState(t Terminal) ([]float64, error) {
	vo := d.source(t)
	delta := cmplx.Phase(vo)
	s := vo * cmplx.Conj(t.I)
	io := toLocal(t.I, delta)
	return []float64{delta, real(s), imag(s), real(io), imag(io)}, nil
}
