package device

import (
	"fmt"
	"sort"

	"github.com/san-kum/gridmodes/internal/linsys"
)

type Class string

const (
	ClassDroop       Class = "droop"
	ClassDroopFast   Class = "droop_fast"
	ClassSimpleDroop Class = "simple_droop"
	ClassVSM         Class = "vsm"
	ClassGFL         Class = "gfl"
	ClassDroopPlant  Class = "droop_plant"
	ClassVSMPlant    Class = "vsm_plant"
	ClassGFLPlant    Class = "gfl_plant"
	ClassSG          Class = "sg"
	ClassLine        Class = "line"
	ClassLoad        Class = "load"
	ClassInfiniteBus Class = "infinite_bus"
)

// Connection describes how a device attaches to the network.
type Connection int

const (
	// Source injects its output current into one bus.
	Source Connection = iota
	// Sink draws its output current from one bus.
	Sink
	// Series carries its output current from one bus to another.
	Series
	// Stiff holds its bus voltage and the system frequency fixed.
	Stiff
)

// Terminal is a solved power-flow point seen from one device, in the
// global D-Q frame. For series devices V is the from-bus minus the to-bus
// voltage.
type Terminal struct {
	V complex128
	I complex128
	W float64
}

type Model interface {
	Label() string
	Class() Class
	Connection() Connection
	States() []string

	// Derive writes dx/dt for global input voltage v and centre-of-inertia
	// frequency wcom.
	Derive(dx, x []float64, v [2]float64, wcom float64)

	// Output returns the global D-Q output current.
	Output(x []float64) [2]float64

	// Residual is zero when t satisfies the device's steady-state
	// equations; real and imaginary parts are the two equations.
	Residual(t Terminal) complex128

	// InitialCurrent is the canonical power-flow guess at voltage v.
	InitialCurrent(v complex128) complex128

	// SteadyState rebuilds the state vector at a solved terminal.
	SteadyState(t Terminal) ([]float64, error)
}

// Former is implemented by devices that can act as the angle and
// frequency reference of a network.
type Former interface {
	Model

	// Frequency returns the per-unit frequency the device imposes.
	Frequency(x []float64) float64

	// ReferenceResidual is zero when the device angle is zero.
	ReferenceResidual(t Terminal) float64
}

type constructor func(label string, p linsys.ParameterSet, wbase float64) (Model, error)

var registry = map[Class]constructor{
	ClassDroop:       func(l string, p linsys.ParameterSet, wb float64) (Model, error) { return NewDroop(l, p, wb) },
	ClassDroopFast:   func(l string, p linsys.ParameterSet, wb float64) (Model, error) { return NewFastDroop(l, p, wb) },
	ClassSimpleDroop: func(l string, p linsys.ParameterSet, wb float64) (Model, error) { return NewSimpleDroop(l, p, wb) },
	ClassVSM:         func(l string, p linsys.ParameterSet, wb float64) (Model, error) { return NewVSM(l, p, wb) },
	ClassGFL:         func(l string, p linsys.ParameterSet, wb float64) (Model, error) { return NewGFL(l, p, wb) },
	ClassDroopPlant:  newPlantOf(ClassDroopPlant),
	ClassVSMPlant:    newPlantOf(ClassVSMPlant),
	ClassGFLPlant:    newPlantOf(ClassGFLPlant),
	ClassSG:          func(l string, p linsys.ParameterSet, wb float64) (Model, error) { return NewSG(l, p, wb) },
	ClassLine:        func(l string, p linsys.ParameterSet, wb float64) (Model, error) { return NewLine(l, p, wb) },
	ClassLoad:        func(l string, p linsys.ParameterSet, wb float64) (Model, error) { return NewLoad(l, p, wb) },
	ClassInfiniteBus: func(l string, p linsys.ParameterSet, wb float64) (Model, error) { return NewInfiniteBus(l, p) },
}

// New builds the model of the given class.
func New(class Class, label string, p linsys.ParameterSet, wbase float64) (Model, error) {
	fn, ok := registry[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", linsys.ErrUnknownClass, class)
	}
	return fn(label, p, wbase)
}

// Classes lists the registered device classes.
func Classes() []Class {
	names := make([]Class, 0, len(registry))
	for c := range registry {
		names = append(names, c)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func newPlantOf(class Class) constructor {
	return func(label string, p linsys.ParameterSet, wb float64) (Model, error) {
		var (
			u   unit
			err error
		)
		switch class {
		case ClassDroopPlant:
			u, err = NewDroop(label, p, wb)
		case ClassVSMPlant:
			u, err = NewVSM(label, p, wb)
		default:
			u, err = NewGFL(label, p, wb)
		}
		if err != nil {
			return nil, err
		}
		return NewPlant(class, u, p)
	}
}
