package timer

// Field names understood by Lookup. Keep in sync with the known-field
// list in internal/expr.
const (
	FieldCurrentValue = "current_value"
	FieldTickCount    = "tick_count"
	FieldInitialValue = "initial_value"
	FieldRunning      = "running"
)

// Lookup exposes timer state by field name, the contract used when the
// timer's value is plugged into a generic expression-evaluation
// context. Unknown names report absence instead of failing. The
// running flag is reported as 0 or 1.
func (t *TickTimer) Lookup(name string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch name {
	case FieldCurrentValue:
		return t.current, true
	case FieldTickCount:
		return float64(t.tickCount), true
	case FieldInitialValue:
		return t.opts.InitialValue, true
	case FieldRunning:
		if t.running {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
