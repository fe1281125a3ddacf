package network

import (
	"github.com/san-kum/gridmodes/internal/device"
	"github.com/san-kum/gridmodes/internal/linsys"
)

// DefaultRx is the virtual shunt resistance used when none is given.
const DefaultRx = 1000.0

// Component places a device model in the network. Shunt devices use Bus;
// series devices use From and To.
type Component struct {
	Model device.Model
	Bus   string
	From  string
	To    string
}

type Topology struct {
	Components []Component
	Buses      []string
	Reference  int
	Rx         float64

	busIndex map[string]int
	// stiffBus is the bus held by a stiff device, or -1.
	stiffBus int
}

// stiff is a device that fixes its bus voltage.
type stiff interface {
	Voltage() complex128
}

// regulator is a shunt device that holds its terminal voltage magnitude.
// It cannot share a bus with a stiff device.
type regulator interface {
	RegulatesVoltage() bool
}

// NewTopology validates the component list and indexes its buses.
func NewTopology(comps []Component, reference string, rx float64) (*Topology, error) {
	if len(comps) == 0 {
		return nil, linsys.Topologyf("no components")
	}
	if rx <= 0 {
		rx = DefaultRx
	}

	t := &Topology{
		Components: comps,
		Reference:  -1,
		Rx:         rx,
		busIndex:   make(map[string]int),
		stiffBus:   -1,
	}

	seen := make(map[string]bool, len(comps))
	stiffCount := 0
	for k, c := range comps {
		if c.Model == nil {
			return nil, linsys.Topologyf("component %d has no model", k)
		}
		label := c.Model.Label()
		if seen[label] {
			return nil, linsys.Topologyf("duplicate component label %q", label)
		}
		seen[label] = true
		if label == reference {
			t.Reference = k
		}

		switch c.Model.Connection() {
		case device.Series:
			if c.From == "" || c.To == "" {
				return nil, linsys.Topologyf("%s: series device needs from and to buses", label)
			}
			if c.From == c.To {
				return nil, linsys.Topologyf("%s: from and to are both %q", label, c.From)
			}
			t.addBus(c.From)
			t.addBus(c.To)
		default:
			if c.Bus == "" {
				return nil, linsys.Topologyf("%s: shunt device needs a bus", label)
			}
			t.addBus(c.Bus)
		}

		if c.Model.Connection() == device.Stiff {
			if _, ok := c.Model.(stiff); !ok {
				return nil, linsys.Topologyf("%s: stiff device does not expose its voltage", label)
			}
			stiffCount++
			t.stiffBus = t.busIndex[c.Bus]
		}
	}

	if t.Reference < 0 {
		return nil, linsys.Topologyf("reference %q is not a component", reference)
	}
	ref := comps[t.Reference].Model
	if _, ok := ref.(device.Former); !ok {
		return nil, linsys.Topologyf("reference %s (%s) cannot set the network frequency", reference, ref.Class())
	}
	if stiffCount > 1 {
		return nil, linsys.Topologyf("%d stiff devices, at most one is allowed", stiffCount)
	}
	if stiffCount == 1 && ref.Connection() != device.Stiff {
		return nil, linsys.Topologyf("the stiff device must be the reference, not %s", reference)
	}
	if t.stiffBus >= 0 {
		for _, c := range comps {
			r, ok := c.Model.(regulator)
			if !ok || !r.RegulatesVoltage() || c.Model.Connection() == device.Series {
				continue
			}
			if t.busIndex[c.Bus] == t.stiffBus {
				return nil, linsys.Topologyf("%s regulates voltage on stiff bus %q", c.Model.Label(), c.Bus)
			}
		}
	}
	return t, nil
}

func (t *Topology) addBus(name string) {
	if _, ok := t.busIndex[name]; ok {
		return
	}
	t.busIndex[name] = len(t.Buses)
	t.Buses = append(t.Buses, name)
}

// Dim is the number of power-flow unknowns.
func (t *Topology) Dim() int {
	return 1 + 2*len(t.Buses) + 2*len(t.Components)
}

// States is the total number of dynamic states before reduction.
func (t *Topology) States() int {
	n := 0
	for _, c := range t.Components {
		n += len(c.Model.States())
	}
	return n
}

// ReferenceModel returns the reference device.
func (t *Topology) ReferenceModel() device.Former {
	return t.Components[t.Reference].Model.(device.Former)
}

// tap is a signed connection of a component to a bus.
type tap struct {
	bus  int
	sign float64
}

// incidence returns the buses a component reads its input voltage from:
// +1 at a shunt device's bus and a line's from-bus, -1 at a line's to-bus.
func (t *Topology) incidence(k int) []tap {
	c := t.Components[k]
	if c.Model.Connection() == device.Series {
		return []tap{{t.busIndex[c.From], 1}, {t.busIndex[c.To], -1}}
	}
	return []tap{{t.busIndex[c.Bus], 1}}
}

// injection returns the buses a component's output current flows into:
// +1 for sources and a line's to-end, -1 for loads and a line's from-end.
func (t *Topology) injection(k int) []tap {
	c := t.Components[k]
	switch c.Model.Connection() {
	case device.Series:
		return []tap{{t.busIndex[c.From], -1}, {t.busIndex[c.To], 1}}
	case device.Sink:
		return []tap{{t.busIndex[c.Bus], -1}}
	default:
		return []tap{{t.busIndex[c.Bus], 1}}
	}
}
