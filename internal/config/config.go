package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWBase     = 2 * math.Pi * 60
	DefaultRx        = 1000.0
	DefaultThreshold = 0.01
)

// ComponentConfig places one device in a case. Shunt devices set Bus,
// lines set From and To.
type ComponentConfig struct {
	Label  string             `yaml:"label"`
	Class  string             `yaml:"class"`
	Bus    string             `yaml:"bus,omitempty"`
	From   string             `yaml:"from,omitempty"`
	To     string             `yaml:"to,omitempty"`
	Params map[string]float64 `yaml:"params"`
}

// Case is one analysis request: a topology, its parameters and the
// participation threshold.
type Case struct {
	Name       string            `yaml:"name"`
	WBase      float64           `yaml:"wbase"`
	Rx         float64           `yaml:"rx"`
	Threshold  float64           `yaml:"threshold"`
	Reference  string            `yaml:"reference"`
	Components []ComponentConfig `yaml:"components"`
}

// DefaultCase returns the droop inverter against an infinite bus.
func DefaultCase() *Case {
	return GetPreset("droop-infinite-bus")
}

func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &Case{
		WBase:     DefaultWBase,
		Rx:        DefaultRx,
		Threshold: DefaultThreshold,
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Case) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy so that runs never share parameter maps.
func (c *Case) Clone() *Case {
	out := *c
	out.Components = make([]ComponentConfig, len(c.Components))
	for i, comp := range c.Components {
		comp.Params = make(map[string]float64, len(c.Components[i].Params))
		for k, v := range c.Components[i].Params {
			comp.Params[k] = v
		}
		out.Components[i] = comp
	}
	return &out
}

// Component returns the component with the given label, or nil.
func (c *Case) Component(label string) *ComponentConfig {
	for i := range c.Components {
		if c.Components[i].Label == label {
			return &c.Components[i]
		}
	}
	return nil
}

// Set overrides one parameter of one component.
func (c *Case) Set(label, key string, value float64) error {
	comp := c.Component(label)
	if comp == nil {
		return fmt.Errorf("config: case %q has no component %q", c.Name, label)
	}
	if comp.Params == nil {
		comp.Params = make(map[string]float64)
	}
	comp.Params[key] = value
	return nil
}
