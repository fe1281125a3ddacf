package config

import (
	"math"
	"sort"

	"github.com/san-kum/gridmodes/internal/device"
)

func shunt(label string, class device.Class, bus string, overrides map[string]float64) ComponentConfig {
	return ComponentConfig{Label: label, Class: string(class), Bus: bus, Params: params(class, overrides)}
}

func series(label, from, to string, overrides map[string]float64) ComponentConfig {
	return ComponentConfig{Label: label, Class: string(device.ClassLine), From: from, To: to, Params: params(device.ClassLine, overrides)}
}

func params(class device.Class, overrides map[string]float64) map[string]float64 {
	p := map[string]float64(device.Defaults(class))
	for k, v := range overrides {
		p[k] = v
	}
	return p
}

func newCase(name, reference string, comps ...ComponentConfig) *Case {
	return &Case{
		Name:       name,
		WBase:      DefaultWBase,
		Rx:         DefaultRx,
		Threshold:  DefaultThreshold,
		Reference:  reference,
		Components: comps,
	}
}

var heavyLoad = map[string]float64{"R": 1.0, "L": 0.3}

// Presets holds the built-in topologies by name.
var Presets = map[string]*Case{
	"droop-infinite-bus": newCase("droop-infinite-bus", "grid",
		shunt("inv1", device.ClassDroop, "b1", nil),
		shunt("grid", device.ClassInfiniteBus, "b1", nil),
	),
	"two-droop-load": newCase("two-droop-load", "inv1",
		shunt("inv1", device.ClassDroopFast, "b1", map[string]float64{"Pset": 0.5}),
		shunt("inv2", device.ClassDroopFast, "b1", map[string]float64{"Pset": 0.5}),
		shunt("load1", device.ClassLoad, "b1", nil),
	),
	"gfl-infinite-bus": newCase("gfl-infinite-bus", "grid",
		shunt("gfl1", device.ClassGFL, "b1", nil),
		shunt("grid", device.ClassInfiniteBus, "b1", nil),
	),
	"gfl-plant-grid": newCase("gfl-plant-grid", "grid",
		shunt("plant1", device.ClassGFLPlant, "b1", nil),
		series("line1", "b1", "b2", nil),
		shunt("grid", device.ClassInfiniteBus, "b2", nil),
	),
	"droop-fixed-voltage": newCase("droop-fixed-voltage", "inv1",
		shunt("inv1", device.ClassDroop, "b1", map[string]float64{"Pset": 0.5, "mq": math.Inf(1)}),
		shunt("load1", device.ClassLoad, "b1", nil),
	),
	"droop-line-line-load": newCase("droop-line-line-load", "inv1",
		shunt("inv1", device.ClassDroop, "b1", map[string]float64{"Pset": 0.5}),
		series("line1", "b1", "b2", nil),
		series("line2", "b2", "b3", nil),
		shunt("load1", device.ClassLoad, "b3", nil),
	),
	"droop-sg": newCase("droop-sg", "inv1",
		shunt("inv1", device.ClassDroop, "b1", map[string]float64{"Pset": 0.5}),
		series("line1", "b1", "b3", nil),
		shunt("sg1", device.ClassSG, "b2", nil),
		series("line2", "b2", "b3", nil),
		shunt("load1", device.ClassLoad, "b3", heavyLoad),
	),
	"vsm-sg": newCase("vsm-sg", "vsm1",
		shunt("vsm1", device.ClassVSM, "b1", nil),
		series("line1", "b1", "b3", nil),
		shunt("sg1", device.ClassSG, "b2", nil),
		series("line2", "b2", "b3", nil),
		shunt("load1", device.ClassLoad, "b3", heavyLoad),
	),
	"gfl-sg": newCase("gfl-sg", "sg1",
		shunt("gfl1", device.ClassGFL, "b1", nil),
		series("line1", "b1", "b3", nil),
		shunt("sg1", device.ClassSG, "b2", nil),
		series("line2", "b2", "b3", nil),
		shunt("load1", device.ClassLoad, "b3", heavyLoad),
	),
	"plant-vs-plant": newCase("plant-vs-plant", "grid",
		shunt("plant1", device.ClassDroopPlant, "b1", map[string]float64{"Pset": 0.5}),
		series("line1", "b1", "b3", nil),
		shunt("plant2", device.ClassGFLPlant, "b2", nil),
		series("line2", "b2", "b3", nil),
		shunt("grid", device.ClassInfiniteBus, "b3", nil),
	),
	"vsm-plant-grid": newCase("vsm-plant-grid", "grid",
		shunt("plant1", device.ClassVSMPlant, "b1", nil),
		series("line1", "b1", "b2", nil),
		shunt("grid", device.ClassInfiniteBus, "b2", nil),
	),
	"simple-droop-pair": newCase("simple-droop-pair", "sd1",
		shunt("sd1", device.ClassSimpleDroop, "b1", nil),
		series("line1", "b1", "b2", nil),
		shunt("sd2", device.ClassSimpleDroop, "b2", nil),
		shunt("load1", device.ClassLoad, "b2", heavyLoad),
	),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Case {
	c, ok := Presets[name]
	if !ok {
		return nil
	}
	return c.Clone()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
