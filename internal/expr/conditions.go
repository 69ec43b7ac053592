package expr

// Source is the minimal field-lookup contract a value provider exposes
// to conditions: named numeric fields, with absence reported as a
// second return instead of an error.
type Source interface {
	Lookup(name string) (float64, bool)
}

// Condition evaluates to true/false against a Source.
type Condition interface {
	Eval(src Source) bool
}

// Always true/false conditions.
type trueCondition struct{}

func (trueCondition) Eval(Source) bool { return true }

type falseCondition struct{}

func (falseCondition) Eval(Source) bool { return false }

// anyCondition is logical OR.
type anyCondition struct {
	children []Condition
}

func (c anyCondition) Eval(src Source) bool {
	for _, child := range c.children {
		if child.Eval(src) {
			return true
		}
	}
	return false
}

// allCondition is logical AND.
type allCondition struct {
	children []Condition
}

func (c allCondition) Eval(src Source) bool {
	for _, child := range c.children {
		if !child.Eval(src) {
			return false
		}
	}
	return true
}

// notCondition negates a child.
type notCondition struct {
	child Condition
}

func (c notCondition) Eval(src Source) bool {
	if c.child == nil {
		return true
	}
	return !c.child.Eval(src)
}

// valueCondition compares a named lookup against bounds. A nil source
// or an absent field evaluates to false rather than failing.
type valueCondition struct {
	field string
	lt    *float64
	lte   *float64
	gt    *float64
	gte   *float64
	eq    *float64
}

func (c valueCondition) Eval(src Source) bool {
	if src == nil {
		return false
	}
	v, ok := src.Lookup(c.field)
	if !ok {
		return false
	}
	if c.lt != nil && !(v < *c.lt) {
		return false
	}
	if c.lte != nil && !(v <= *c.lte) {
		return false
	}
	if c.gt != nil && !(v > *c.gt) {
		return false
	}
	if c.gte != nil && !(v >= *c.gte) {
		return false
	}
	if c.eq != nil && v != *c.eq {
		return false
	}
	return true
}
