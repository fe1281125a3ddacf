package device

import (
	"math"
	"math/cmplx"
)

// toLocal rotates a global D-Q phasor into the frame at angle delta.
func toLocal(z complex128, delta float64) complex128 {
	return z * cmplx.Rect(1, -delta)
}

// localDQ rotates global components into the frame at angle delta.
func localDQ(D, Q, delta float64) (d, q float64) {
	s, c := math.Sincos(delta)
	return D*c + Q*s, -D*s + Q*c
}

// globalDQ rotates local components back to the global frame.
func globalDQ(d, q, delta float64) (D, Q float64) {
	s, c := math.Sincos(delta)
	return d*c - q*s, d*s + q*c
}

func iw(w, x float64) complex128 {
	return complex(0, w*x)
}
