package expr

import (
	"testing"

	"gopkg.in/yaml.v3"
)

// mapSource is a fixed-field Source for tests.
type mapSource map[string]float64

func (m mapSource) Lookup(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

func compileString(t *testing.T, doc string, vars map[string]any) Condition {
	t.Helper()
	var node Node
	if err := yaml.Unmarshal([]byte(doc), &node); err != nil {
		t.Fatalf("unmarshal condition: %v", err)
	}
	cond, err := Compile(&node, vars)
	if err != nil {
		t.Fatalf("compile condition: %v", err)
	}
	return cond
}

func TestCompileNilNodeIsAlwaysTrue(t *testing.T) {
	cond, err := Compile(nil, nil)
	if err != nil {
		t.Fatalf("compile nil: %v", err)
	}
	if !cond.Eval(nil) {
		t.Error("expected nil condition to evaluate true")
	}
}

func TestValueConditionBounds(t *testing.T) {
	src := mapSource{"current_value": 5}

	cases := []struct {
		doc  string
		want bool
	}{
		{"value: {field: current_value, lt: 6}", true},
		{"value: {field: current_value, lt: 5}", false},
		{"value: {field: current_value, lte: 5}", true},
		{"value: {field: current_value, gt: 4}", true},
		{"value: {field: current_value, gt: 5}", false},
		{"value: {field: current_value, gte: 5}", true},
		{"value: {field: current_value, eq: 5}", true},
		{"value: {field: current_value, eq: 4}", false},
		{"value: {field: current_value, gt: 0, lt: 10}", true},
		{"value: {field: current_value, gt: 0, lt: 5}", false},
	}
	for _, c := range cases {
		cond := compileString(t, c.doc, nil)
		if got := cond.Eval(src); got != c.want {
			t.Errorf("%s: expected %v, got %v", c.doc, c.want, got)
		}
	}
}

func TestAbsentFieldEvaluatesFalse(t *testing.T) {
	cond := compileString(t, "value: {field: tick_count, gte: 0}", nil)
	if cond.Eval(mapSource{}) {
		t.Error("expected absent field to evaluate false")
	}
	if cond.Eval(nil) {
		t.Error("expected nil source to evaluate false")
	}
}

func TestCombinators(t *testing.T) {
	src := mapSource{"current_value": 5, "running": 1}

	all := compileString(t, `
all:
  - value: {field: current_value, gt: 0}
  - value: {field: running, eq: 1}
`, nil)
	if !all.Eval(src) {
		t.Error("expected all to hold")
	}

	anyC := compileString(t, `
any:
  - value: {field: current_value, gt: 100}
  - value: {field: running, eq: 1}
`, nil)
	if !anyC.Eval(src) {
		t.Error("expected any to hold")
	}

	not := compileString(t, `
not:
  value: {field: running, eq: 1}
`, nil)
	if not.Eval(src) {
		t.Error("expected not to fail")
	}

	// Bare sequences behave as an implicit all.
	seq := compileString(t, `
- value: {field: current_value, gt: 0}
- value: {field: current_value, lt: 10}
`, nil)
	if !seq.Eval(src) {
		t.Error("expected implicit all to hold")
	}
}

func TestScalarAndLiteralConditions(t *testing.T) {
	if !compileString(t, "true", nil).Eval(nil) {
		t.Error("expected scalar true")
	}
	if compileString(t, "false", nil).Eval(mapSource{}) {
		t.Error("expected scalar false")
	}
}

func TestVariableResolution(t *testing.T) {
	vars := map[string]any{"floor": 3}
	cond := compileString(t, `value: {field: current_value, lte: "${floor}"}`, vars)

	if !cond.Eval(mapSource{"current_value": 2}) {
		t.Error("expected 2 <= floor(3)")
	}
	if cond.Eval(mapSource{"current_value": 4}) {
		t.Error("expected 4 > floor(3)")
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []string{
		"value: {field: no_such_field, gt: 0}",
		"value: {field: current_value}",
		"value: {gt: 0}",
		"bogus_condition: {}",
		`value: {field: current_value, lte: "${missing}"}`,
	}
	for _, doc := range cases {
		var node Node
		if err := yaml.Unmarshal([]byte(doc), &node); err != nil {
			t.Fatalf("unmarshal %s: %v", doc, err)
		}
		if _, err := Compile(&node, nil); err == nil {
			t.Errorf("expected compile error for %s", doc)
		}
	}
}
