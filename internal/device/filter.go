package device

import (
	"github.com/san-kum/gridmodes/internal/linsys"
)

// Offsets of the filter block inside an inverter state vector.
const (
	fGammaD = iota
	fGammaQ
	fIlD
	fIlQ
	fVoD
	fVoQ
	fIoD
	fIoQ
	filterStates
)

var filterNames = []string{"gamma_d", "gamma_q", "il_d", "il_q", "vo_d", "vo_q", "io_d", "io_q"}

// filter is the LCL output stage of an inverter together with its
// filter-current PI controller. Rd sits in series with Cf.
type filter struct {
	wb       float64
	rt, lt   float64
	rd, cf   float64
	rc, lc   float64
	kpc, kic float64
}

func readFilter(r *linsys.Reader, wbase float64) filter {
	return filter{
		wb:  wbase,
		rt:  r.Float("Rt"),
		lt:  r.Float("Lt"),
		rd:  r.Float("Rd"),
		cf:  r.Float("Cf"),
		rc:  r.Float("Rc"),
		lc:  r.Float("Lc"),
		kpc: r.Float("KpC"),
		kic: r.Float("KiC"),
	}
}

// derive evaluates the filter block. The frame rotates at w; vbd and vbq
// are the bus voltage in that frame.
func (f *filter) derive(ds, s []float64, ildRef, ilqRef, w, vbd, vbq float64) {
	ild, ilq := s[fIlD], s[fIlQ]
	vod, voq := s[fVoD], s[fVoQ]
	iod, ioq := s[fIoD], s[fIoQ]

	vid := f.kpc*(ildRef-ild) + f.kic*s[fGammaD] - f.lt*ilq + vod
	viq := f.kpc*(ilqRef-ilq) + f.kic*s[fGammaQ] + f.lt*ild + voq

	vnd := vod + f.rd*(ild-iod)
	vnq := voq + f.rd*(ilq-ioq)

	ds[fGammaD] = ildRef - ild
	ds[fGammaQ] = ilqRef - ilq
	ds[fIlD] = f.wb/f.lt*(vid-vnd-f.rt*ild) + f.wb*w*ilq
	ds[fIlQ] = f.wb/f.lt*(viq-vnq-f.rt*ilq) - f.wb*w*ild
	ds[fVoD] = f.wb/f.cf*(ild-iod) + f.wb*w*voq
	ds[fVoQ] = f.wb/f.cf*(ilq-ioq) - f.wb*w*vod
	ds[fIoD] = f.wb/f.lc*(vnd-vbd-f.rc*iod) + f.wb*w*ioq
	ds[fIoQ] = f.wb/f.lc*(vnq-vbq-f.rc*ioq) - f.wb*w*iod
}

// capacitor returns the filter capacitor voltage for a terminal solution.
func (f *filter) capacitor(t Terminal) complex128 {
	vn := t.V + complex(f.rc, 0)*t.I + iw(t.W, f.lc)*t.I
	return vn / (1 + iw(t.W, f.rd*f.cf))
}

// steady fills the filter block from the local capacitor voltage and
// output current at frequency w.
func (f *filter) steady(s []float64, vc, io complex128, w float64) {
	il := io + iw(w, f.cf)*vc
	vn := vc + complex(f.rd, 0)*(il-io)
	vi := vn + complex(f.rt, 0)*il + iw(w, f.lt)*il

	s[fGammaD] = (real(vi) + f.lt*imag(il) - real(vc)) / f.kic
	s[fGammaQ] = (imag(vi) - f.lt*real(il) - imag(vc)) / f.kic
	s[fIlD], s[fIlQ] = real(il), imag(il)
	s[fVoD], s[fVoQ] = real(vc), imag(vc)
	s[fIoD], s[fIoQ] = real(io), imag(io)
}

// power returns p and q measured at the capacitor.
func power(s []float64) (p, q float64) {
	vod, voq := s[fVoD], s[fVoQ]
	iod, ioq := s[fIoD], s[fIoQ]
	return vod*iod + voq*ioq, voq*iod - vod*ioq
}

// voltageLoop is the capacitor-voltage PI of grid-forming units.
type voltageLoop struct {
	kpv, kiv float64
}

// refs returns the filter-current references and the voltage errors.
func (v *voltageLoop) refs(f *filter, phid, phiq, vodRef, voqRef float64, s []float64) (ildRef, ilqRef, ed, eq float64) {
	ed = vodRef - s[fVoD]
	eq = voqRef - s[fVoQ]
	ildRef = v.kpv*ed + v.kiv*phid - f.cf*s[fVoQ] + s[fIoD]
	ilqRef = v.kpv*eq + v.kiv*phiq + f.cf*s[fVoD] + s[fIoQ]
	return
}

// steady returns the integrator states that hold the filter block s.
func (v *voltageLoop) steady(f *filter, s []float64) (phid, phiq float64) {
	phid = (s[fIlD] - s[fIoD] + f.cf*s[fVoQ]) / v.kiv
	phiq = (s[fIlQ] - s[fIoQ] - f.cf*s[fVoD]) / v.kiv
	return
}

// droopVoltage is the reactive droop law; +Inf gain holds vset.
func droopVoltage(vset, mq, q, qset float64) float64 {
	if linsys.IsFixed(mq) {
		return vset
	}
	return vset - mq*(q-qset)
}

// reactiveOffset returns the set-point shift that makes the droop law hold
// at capacitor magnitude vmag and reactive power q.
func reactiveOffset(vset, mq, q, qset, vmag float64) float64 {
	return q - qset - (vset-vmag)/mq
}
