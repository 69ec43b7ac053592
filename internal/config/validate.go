package config

import (
	"fmt"
	"strings"

	"ticktimer/internal/expr"
)

// Trigger actions understood by the runner.
const (
	ActionLog   = "log"
	ActionPause = "pause"
)

var knownActions = map[string]struct{}{
	ActionLog:   {},
	ActionPause: {},
}

func (f *File) validate() error {
	if len(f.Timers) == 0 {
		return fmt.Errorf("preset file declares no timers")
	}
	seen := map[string]struct{}{}
	for i := range f.Timers {
		def := &f.Timers[i]
		if err := def.validate(f.Variables); err != nil {
			return fmt.Errorf("timer %d: %w", i, err)
		}
		if _, dup := seen[def.Name]; dup {
			return fmt.Errorf("timer name '%s' declared more than once", def.Name)
		}
		seen[def.Name] = struct{}{}
	}
	return nil
}

func (d *TimerDef) validate(vars map[string]any) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("timer name missing")
	}
	if d.IntervalSeconds <= 0 {
		return fmt.Errorf("timer '%s': interval_seconds must be positive, got %v", d.Name, d.IntervalSeconds)
	}
	if d.Duration < 0 {
		return fmt.Errorf("timer '%s': duration must be >= 0, got %d", d.Name, d.Duration)
	}
	names := map[string]struct{}{}
	for i := range d.Triggers {
		trg := &d.Triggers[i]
		if err := trg.validate(vars); err != nil {
			return fmt.Errorf("timer '%s' trigger %d: %w", d.Name, i, err)
		}
		if _, dup := names[trg.Name]; dup {
			return fmt.Errorf("timer '%s': trigger name '%s' declared more than once", d.Name, trg.Name)
		}
		names[trg.Name] = struct{}{}
	}
	return nil
}

func (t *TriggerDef) validate(vars map[string]any) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("trigger name missing")
	}
	t.Action = strings.ToLower(strings.TrimSpace(t.Action))
	if _, ok := knownActions[t.Action]; !ok {
		return fmt.Errorf("unknown trigger action '%s'", t.Action)
	}
	// Compile now so a bad condition fails at load, not mid-run.
	if _, err := expr.Compile(t.When, vars); err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	return nil
}
