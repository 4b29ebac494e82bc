package config

import (
	"math"
	"sort"
)

var Presets = map[string]*Config{
	// Packet energy just below the barrier top.
	"tunneling": derive(func(c *Config) {}),
	"reflection": derive(func(c *Config) {
		c.Barrier.Height = 40
		c.Barrier.Width = 1.5
	}),
	"transmission": derive(func(c *Config) {
		c.Barrier.Height = 5
	}),
	"free": derive(func(c *Config) {
		c.Barrier.Height = 0
		c.Barrier.Width = 0
	}),
	"rough": derive(func(c *Config) {
		c.Barrier.Width = 2
		c.Barrier.Height = 12
		c.Barrier.Roughness = 0.3
		c.Barrier.Seed = 7
		c.Packet.K0 = 6
	}),
	// k*a = pi above an 8 high barrier.
	"resonance": derive(func(c *Config) {
		c.Barrier.Height = 8
		c.Barrier.Width = math.Pi / 3
		c.Packet.Sigma = 3
	}),
}

func derive(mod func(*Config)) *Config {
	c := DefaultConfig()
	mod(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
