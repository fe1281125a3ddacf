package device

import (
	"fmt"
	"math/cmplx"

	"github.com/san-kum/gridmodes/internal/linsys"
)

const (
	plPm = iota
	plQm
	plXP
	plXQ
	plZP1
	plZP2
	plZQ1
	plZQ2
	plantStates
)

var plantNames = []string{"P_pcc", "Q_pcc", "x_pp", "x_qp", "zp_1", "zp_2", "zq_1", "zq_2"}

// Plant wraps an inverter with a plant-level controller. The controller
// measures power at the point of common coupling, drives it toward
// Pplant/Qplant with PI loops, and sends the commands through a
// second-order Pade delay. The delayed commands shift the unit's set-points.
type Plant struct {
	class Class
	unit  unit
	names []string
	n     int

	pplant, qplant float64
	kpPP, kiPP     float64
	kpQP, kiQP     float64
	wcp            float64
	a0, a1         float64
}

func NewPlant(class Class, u unit, p linsys.ParameterSet) (*Plant, error) {
	if u.fixedVoltage() {
		return nil, fmt.Errorf("device %s: plant reactive loop needs a finite mq: %w", u.Label(), linsys.ErrIllPosed)
	}
	r := p.Reader(u.Label())
	pl := &Plant{
		class:  class,
		unit:   u,
		n:      len(u.States()),
		pplant: r.Float("Pplant"),
		qplant: r.Float("Qplant"),
		kpPP:   r.Float("KpPP"),
		kiPP:   r.Float("KiPP"),
		kpQP:   r.Float("KpQP"),
		kiQP:   r.Float("KiQP"),
		wcp:    r.Float("wcp"),
	}
	td := r.Float("Tdelay")
	if err := r.Err(); err != nil {
		return nil, err
	}
	if td <= 0 {
		return nil, fmt.Errorf("device %s: Tdelay must be positive, got %g: %w", u.Label(), td, linsys.ErrIllPosed)
	}
	pl.a0 = 12 / (td * td)
	pl.a1 = 6 / td
	pl.names = append(append([]string{}, u.States()...), plantNames...)
	return pl, nil
}

func (p *Plant) Label() string          { return p.unit.Label() }
func (p *Plant) Class() Class           { return p.class }
func (p *Plant) Connection() Connection { return Source }
func (p *Plant) States() []string       { return p.names }

// commands returns the delayed plant set-point offsets.
func (p *Plant) commands(z []float64) (yP, yQ float64) {
	uP := p.kpPP*(p.pplant-z[plPm]) + p.kiPP*z[plXP]
	uQ := p.kpQP*(p.qplant-z[plQm]) + p.kiQP*z[plXQ]
	return uP - 2*p.a1*z[plZP2], uQ - 2*p.a1*z[plZQ2]
}

func (p *Plant) Derive(dx, x []float64, v [2]float64, wcom float64) {
	ux, z := x[:p.n], x[p.n:]
	dz := dx[p.n:]

	i := p.unit.Output(ux)
	ppcc := v[0]*i[0] + v[1]*i[1]
	qpcc := v[1]*i[0] - v[0]*i[1]

	eP := p.pplant - z[plPm]
	eQ := p.qplant - z[plQm]
	uP := p.kpPP*eP + p.kiPP*z[plXP]
	uQ := p.kpQP*eQ + p.kiQP*z[plXQ]
	yP, yQ := p.commands(z)

	p.unit.deriveWith(dx[:p.n], ux, v, wcom, yP, yQ)

	dz[plPm] = p.wcp * (ppcc - z[plPm])
	dz[plQm] = p.wcp * (qpcc - z[plQm])
	dz[plXP] = eP
	dz[plXQ] = eQ
	dz[plZP1] = z[plZP2]
	dz[plZP2] = -p.a0*z[plZP1] - p.a1*z[plZP2] + uP
	dz[plZQ1] = z[plZQ2]
	dz[plZQ2] = -p.a0*z[plZQ1] - p.a1*z[plZQ2] + uQ
}

func (p *Plant) Frequency(x []float64) float64 {
	yP, _ := p.commands(x[p.n:])
	return p.unit.frequencyWith(x[:p.n], yP)
}

func (p *Plant) Output(x []float64) [2]float64 {
	return p.unit.Output(x[:p.n])
}

func (p *Plant) Residual(t Terminal) complex128 {
	return t.V*cmplx.Conj(t.I) - complex(p.pplant, p.qplant)
}

func (p *Plant) ReferenceResidual(t Terminal) float64 {
	return p.unit.ReferenceResidual(t)
}

func (p *Plant) InitialCurrent(v complex128) complex128 {
	return cmplx.Conj(complex(p.pplant, p.qplant) / v)
}

func (p *Plant) SteadyState(t Terminal) ([]float64, error) {
	ux, err := p.unit.SteadyState(t)
	if err != nil {
		return nil, err
	}
	offP, offQ := p.unit.offsets(t)
	s := t.V * cmplx.Conj(t.I)

	x := make([]float64, p.n+plantStates)
	copy(x, ux)
	z := x[p.n:]
	z[plPm] = real(s)
	z[plQm] = imag(s)
	z[plXP] = (offP - p.kpPP*(p.pplant-real(s))) / p.kiPP
	z[plXQ] = (offQ - p.kpQP*(p.qplant-imag(s))) / p.kiQP
	z[plZP1] = offP / p.a0
	z[plZQ1] = offQ / p.a0
	return x, nil
}
