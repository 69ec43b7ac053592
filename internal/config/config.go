package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ticktimer/internal/expr"
)

// File represents one timer preset YAML file.
type File struct {
	Name      string         `yaml:"name"`
	Variables map[string]any `yaml:"variables"`
	Timers    []TimerDef     `yaml:"timers"`
}

// TimerDef declares one timer preset.
type TimerDef struct {
	Name            string       `yaml:"name"`
	InitialValue    float64      `yaml:"initial_value"`
	IntervalSeconds float64      `yaml:"interval_seconds"`
	CountDown       bool         `yaml:"count_down"`
	Duration        int          `yaml:"duration"`
	Triggers        []TriggerDef `yaml:"triggers,omitempty"`
}

// Interval converts the configured seconds into a duration.
func (d TimerDef) Interval() time.Duration {
	return time.Duration(d.IntervalSeconds * float64(time.Second))
}

// TriggerDef pairs a condition with an action taken the first time the
// condition holds during a run.
type TriggerDef struct {
	Name   string     `yaml:"name"`
	Action string     `yaml:"action"`
	When   *expr.Node `yaml:"when,omitempty"`
}

// Load reads and validates one preset file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return &file, nil
}
