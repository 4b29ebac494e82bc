package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/qtunnel/internal/quantum"
	"github.com/san-kum/qtunnel/internal/sim"
)

const (
	DefaultPoints      = 1024
	DefaultLength      = 50.0
	DefaultDt          = 0.0005
	DefaultSteps       = 6000
	DefaultSampleEvery = 100
	DefaultTheme       = "default"
	DefaultSpeed       = 10
)

type Config struct {
	Grid     GridConfig     `yaml:"grid"`
	Time     TimeConfig     `yaml:"time"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Packet   PacketConfig   `yaml:"packet"`
	Barrier  BarrierConfig  `yaml:"barrier"`
	Absorber AbsorberConfig `yaml:"absorber"`
	Display  DisplayConfig  `yaml:"display"`
}

type GridConfig struct {
	Points  int     `yaml:"points"`
	Spacing float64 `yaml:"spacing"`
	Start   float64 `yaml:"start"`
}

type TimeConfig struct {
	Dt          float64 `yaml:"dt"`
	Steps       int     `yaml:"steps"`
	SampleEvery int     `yaml:"sample_every"`
}

type PhysicsConfig struct {
	Hbar float64 `yaml:"hbar"`
	Mass float64 `yaml:"mass"`
}

type PacketConfig struct {
	K0    float64 `yaml:"k0"`
	X0    float64 `yaml:"x0"`
	Sigma float64 `yaml:"sigma"`
}

type BarrierConfig struct {
	Height    float64 `yaml:"height"`
	Width     float64 `yaml:"width"`
	Position  float64 `yaml:"position"`
	Roughness float64 `yaml:"roughness"`
	Seed      int64   `yaml:"seed"`
}

type AbsorberConfig struct {
	Width    int     `yaml:"width"`
	Strength float64 `yaml:"strength"`
}

type DisplayConfig struct {
	Theme string `yaml:"theme"`
	Speed int    `yaml:"speed"` // steps per frame in the live view
}

func DefaultConfig() *Config {
	p := quantum.DefaultParams()
	return &Config{
		Grid: GridConfig{
			Points:  DefaultPoints,
			Spacing: DefaultLength / DefaultPoints,
			Start:   -DefaultLength / 2,
		},
		Time: TimeConfig{
			Dt:          DefaultDt,
			Steps:       DefaultSteps,
			SampleEvery: DefaultSampleEvery,
		},
		Physics: PhysicsConfig{Hbar: p.Hbar, Mass: p.Mass},
		Packet:  PacketConfig{K0: p.K0, X0: p.X0, Sigma: p.Sigma},
		Barrier: BarrierConfig{
			Height:   p.BarrierHeight,
			Width:    p.BarrierWidth,
			Position: p.BarrierPos,
		},
		Absorber: AbsorberConfig{Width: p.AbsorbWidth, Strength: p.AbsorbStrength},
		Display:  DisplayConfig{Theme: DefaultTheme, Speed: DefaultSpeed},
	}
}

// Load reads a YAML file over the defaults, so partial files are fine.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the file layout into solver parameters.
func (c *Config) Params() quantum.Params {
	return quantum.Params{
		NX:             c.Grid.Points,
		DX:             c.Grid.Spacing,
		DT:             c.Time.Dt,
		Hbar:           c.Physics.Hbar,
		Mass:           c.Physics.Mass,
		XStart:         c.Grid.Start,
		K0:             c.Packet.K0,
		X0:             c.Packet.X0,
		Sigma:          c.Packet.Sigma,
		BarrierHeight:  c.Barrier.Height,
		BarrierWidth:   c.Barrier.Width,
		BarrierPos:     c.Barrier.Position,
		AbsorbWidth:    c.Absorber.Width,
		AbsorbStrength: c.Absorber.Strength,
		Roughness:      c.Barrier.Roughness,
		Seed:           c.Barrier.Seed,
	}
}

// SetParams writes solver parameters back into the file layout.
func (c *Config) SetParams(p quantum.Params) {
	c.Grid = GridConfig{Points: p.NX, Spacing: p.DX, Start: p.XStart}
	c.Time.Dt = p.DT
	c.Physics = PhysicsConfig{Hbar: p.Hbar, Mass: p.Mass}
	c.Packet = PacketConfig{K0: p.K0, X0: p.X0, Sigma: p.Sigma}
	c.Barrier = BarrierConfig{
		Height:    p.BarrierHeight,
		Width:     p.BarrierWidth,
		Position:  p.BarrierPos,
		Roughness: p.Roughness,
		Seed:      p.Seed,
	}
	c.Absorber = AbsorberConfig{Width: p.AbsorbWidth, Strength: p.AbsorbStrength}
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Steps:         c.Time.Steps,
		SampleEvery:   c.Time.SampleEvery,
		ValidateState: true,
	}
}

func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.Time.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", quantum.ErrParameterBounds, c.Time.Steps)
	}
	if c.Time.SampleEvery <= 0 {
		return fmt.Errorf("%w: sample_every must be positive, got %d", quantum.ErrParameterBounds, c.Time.SampleEvery)
	}
	return nil
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
