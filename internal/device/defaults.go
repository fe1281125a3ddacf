package device

import (
	"math"

	"github.com/san-kum/gridmodes/internal/linsys"
)

// DefaultWBase is the 60 Hz base angular frequency in rad/s.
const DefaultWBase = 2 * math.Pi * 60

var filterDefaults = linsys.ParameterSet{
	"Rt": 0.02, "Lt": 0.10, "Rd": 0.0, "Cf": 0.05, "Rc": 0.04, "Lc": 0.20,
	"KpC": 4.8, "KiC": 24.0,
}

var plantDefaults = linsys.ParameterSet{
	"Pplant": 0.5, "Qplant": 0.0,
	"KpPP": 0.1, "KiPP": 2.0,
	"KpQP": 0.1, "KiQP": 2.0,
	"wcp": 2 * math.Pi * 2, "Tdelay": 0.05,
}

var defaults = map[Class]linsys.ParameterSet{
	ClassDroop: merge(filterDefaults, linsys.ParameterSet{
		"Pset": 1.0, "Qset": 0.0, "wset": 1.0, "Vset": 1.0,
		"mp": 0.05, "mq": 0.05, "KpV": 1.8, "KiV": 16.0,
		"wc": 2 * math.Pi * 5,
	}),
	ClassSimpleDroop: {
		"Pset": 0.5, "Qset": 0.0, "wset": 1.0, "Vset": 1.0,
		"mp": 0.05, "mq": 0.05, "Rc": 0.04, "Lc": 0.20,
		"wc": 2 * math.Pi * 5,
	},
	ClassVSM: merge(filterDefaults, linsys.ParameterSet{
		"Pset": 0.5, "Qset": 0.0, "wset": 1.0, "Vset": 1.0,
		"H": 2.0, "Dp": 20.0, "mq": 0.05, "KpV": 1.8, "KiV": 16.0,
		"wc": 2 * math.Pi * 5,
	}),
	ClassGFL: merge(filterDefaults, linsys.ParameterSet{
		"Pset": 0.5, "Qset": 0.0, "wset": 1.0,
		"KpPLL": 0.2, "KiPLL": 8.0, "wc": 2 * math.Pi * 5,
		"KpP": 0.5, "KiP": 20.0, "KpQ": 0.5, "KiQ": 20.0,
	}),
	ClassSG: {
		"Pset": 0.5, "Vset": 1.0, "wset": 1.0, "H": 3.5, "D": 2.0,
		"Xd": 1.8, "Xq": 1.7, "Xd1": 0.3, "Xq1": 0.55, "Xd2": 0.25,
		"Td01": 8.0, "Tq01": 0.4, "Td02": 0.03, "Tq02": 0.05, "Ra": 0.003,
		"Tr": 0.02, "KA": 20.0, "TA": 0.2, "KE": 1.0, "TE": 0.314,
		"KF": 0.063, "TF": 0.35, "Rg": 0.05, "Tg": 0.2, "Tt": 0.3,
	},
	ClassLine:        {"R": 0.02, "L": 0.10},
	ClassLoad:        {"R": 2.0, "L": 0.5},
	ClassInfiniteBus: {"Vset": 1.0, "wset": 1.0},
}

func init() {
	defaults[ClassDroopFast] = defaults[ClassDroop].Clone()
	defaults[ClassDroopPlant] = merge(defaults[ClassDroop], plantDefaults)
	defaults[ClassVSMPlant] = merge(defaults[ClassVSM], plantDefaults)
	defaults[ClassGFLPlant] = merge(defaults[ClassGFL], plantDefaults)
}

// Defaults returns a fresh copy of the typical parameters for a class, or
// nil for an unknown class.
func Defaults(class Class) linsys.ParameterSet {
	p, ok := defaults[class]
	if !ok {
		return nil
	}
	return p.Clone()
}

func merge(sets ...linsys.ParameterSet) linsys.ParameterSet {
	out := linsys.ParameterSet{}
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}
