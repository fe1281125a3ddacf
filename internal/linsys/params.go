package linsys

import (
	"math"
	"sort"
)

// ParameterSet maps parameter names to values. One reactive droop gain
// may be +Inf, meaning the unit holds its voltage fixed.
type ParameterSet map[string]float64

// Clone returns an independent copy.
func (p ParameterSet) Clone() ParameterSet {
	c := make(ParameterSet, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Get looks up a required key.
func (p ParameterSet) Get(component, key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, &MissingParameterError{Component: component, Key: key}
	}
	return v, nil
}

// Keys returns the parameter names in sorted order.
func (p ParameterSet) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reader returns a lookup helper that records the first missing key.
func (p ParameterSet) Reader(component string) *Reader {
	return &Reader{params: p, component: component}
}

// Reader reads many keys and reports the first failure once, so model
// constructors can read all their fields before checking an error.
type Reader struct {
	params    ParameterSet
	component string
	err       error
}

// Float returns the value for key, or 0 after recording a missing key.
func (r *Reader) Float(key string) float64 {
	v, err := r.params.Get(r.component, key)
	if err != nil && r.err == nil {
		r.err = err
	}
	return v
}

// Optional returns the value for key or def when absent.
func (r *Reader) Optional(key string, def float64) float64 {
	if v, ok := r.params[key]; ok {
		return v
	}
	return def
}

// Err returns the first lookup failure.
func (r *Reader) Err() error {
	return r.err
}

// IsFixed reports whether a droop gain selects fixed-voltage operation.
func IsFixed(gain float64) bool {
	return math.IsInf(gain, 1)
}
