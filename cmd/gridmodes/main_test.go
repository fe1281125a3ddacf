package main

import (
	"testing"
)

func TestParseAxis(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
		comp    string
		key     string
		n       int
	}{
		{"inv1.mp=0.01:0.05:5", false, "inv1", "mp", 5},
		{"sg1.KA=10:200:3", false, "sg1", "KA", 3},
		{"inv1.mp", true, "", "", 0},
		{"mp=0:1:3", true, "", "", 0},
		{"inv1.mp=0:1", true, "", "", 0},
		{"inv1.mp=a:1:3", true, "", "", 0},
		{"inv1.mp=0:1:x", true, "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ax, err := parseAxis(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ax.Component != tt.comp || ax.Key != tt.key || len(ax.Values) != tt.n {
				t.Errorf("axis = %+v", ax)
			}
		})
	}
}

func TestLoadCase(t *testing.T) {
	c, err := loadCase(nil)
	if err != nil || c.Name != "droop-infinite-bus" {
		t.Errorf("default case = %v, %v", c, err)
	}
	if _, err := loadCase([]string{"nope"}); err == nil {
		t.Error("expected error for unknown case")
	}
	c, err = loadCase([]string{"vsm-sg"})
	if err != nil || c.Name != "vsm-sg" {
		t.Errorf("preset = %v, %v", c, err)
	}
}
