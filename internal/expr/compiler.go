package expr

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Compile turns a captured condition tree into an evaluatable
// Condition. A nil node compiles to the always-true condition.
// Variables resolve `${name}` scalar references.
func Compile(node *Node, vars map[string]any) (Condition, error) {
	if node == nil || node.Raw() == nil {
		return trueCondition{}, nil
	}
	return parseConditionNode(node.Raw(), vars)
}

func parseConditionNode(node *yaml.Node, vars map[string]any) (Condition, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return parseConditionMapping(node, vars)
	case yaml.SequenceNode:
		// Treat bare sequences as implicit "all"
		children, err := parseConditionSequence(node, vars)
		if err != nil {
			return nil, err
		}
		return allCondition{children: children}, nil
	case yaml.ScalarNode:
		var boolVal bool
		if err := node.Decode(&boolVal); err == nil {
			if boolVal {
				return trueCondition{}, nil
			}
			return falseCondition{}, nil
		}
		return nil, fmt.Errorf("unsupported scalar condition: %s", node.Value)
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", node.Kind)
	}
}

func parseConditionMapping(node *yaml.Node, vars map[string]any) (Condition, error) {
	if len(node.Content)%2 != 0 || len(node.Content) == 0 {
		return nil, fmt.Errorf("condition mapping must have key/value pairs")
	}
	if len(node.Content) != 2 {
		return nil, fmt.Errorf("condition mapping must have exactly one entry")
	}

	key := node.Content[0].Value
	val := node.Content[1]

	switch key {
	case "all":
		children, err := parseConditionSequence(val, vars)
		if err != nil {
			return nil, fmt.Errorf("all: %w", err)
		}
		return allCondition{children: children}, nil
	case "any":
		children, err := parseConditionSequence(val, vars)
		if err != nil {
			return nil, fmt.Errorf("any: %w", err)
		}
		return anyCondition{children: children}, nil
	case "not":
		child, err := parseConditionNode(val, vars)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return notCondition{child: child}, nil
	case "true":
		return trueCondition{}, nil
	case "false":
		return falseCondition{}, nil
	case "value":
		params, err := nodeToMap(val)
		if err != nil {
			return nil, err
		}
		fieldRaw, err := stringField(params, "field", true, vars)
		if err != nil {
			return nil, err
		}
		field, err := validateFieldName(fieldRaw)
		if err != nil {
			return nil, err
		}
		cond := valueCondition{field: field}
		if cond.lt, err = floatField(params, "lt", vars); err != nil {
			return nil, err
		}
		if cond.lte, err = floatField(params, "lte", vars); err != nil {
			return nil, err
		}
		if cond.gt, err = floatField(params, "gt", vars); err != nil {
			return nil, err
		}
		if cond.gte, err = floatField(params, "gte", vars); err != nil {
			return nil, err
		}
		if cond.eq, err = floatField(params, "eq", vars); err != nil {
			return nil, err
		}
		if cond.lt == nil && cond.lte == nil && cond.gt == nil && cond.gte == nil && cond.eq == nil {
			return nil, fmt.Errorf("value condition on '%s' needs at least one bound", field)
		}
		return cond, nil
	default:
		return nil, fmt.Errorf("unknown condition '%s'", key)
	}
}

func parseConditionSequence(node *yaml.Node, vars map[string]any) ([]Condition, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected sequence, got %d", node.Kind)
	}
	children := make([]Condition, 0, len(node.Content))
	for idx, childNode := range node.Content {
		child, err := parseConditionNode(childNode, vars)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", idx, err)
		}
		children = append(children, child)
	}
	return children, nil
}

func nodeToMap(node *yaml.Node) (map[string]*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected mapping node, got %d", node.Kind)
	}
	result := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		result[key] = node.Content[i+1]
	}
	return result, nil
}

func stringField(fields map[string]*yaml.Node, key string, required bool, vars map[string]any) (string, error) {
	node, ok := fields[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing field '%s'", key)
		}
		return "", nil
	}
	val, err := resolveScalar(node, vars)
	if err != nil {
		return "", err
	}
	switch v := val.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

func floatField(fields map[string]*yaml.Node, key string, vars map[string]any) (*float64, error) {
	node, ok := fields[key]
	if !ok {
		return nil, nil
	}
	val, err := resolveScalar(node, vars)
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	case int64:
		f := float64(v)
		return &f, nil
	case uint64:
		f := float64(v)
		return &f, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, err
		}
		return &parsed, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to float for key '%s'", v, key)
	}
}

func resolveScalar(node *yaml.Node, vars map[string]any) (interface{}, error) {
	if node == nil {
		return nil, fmt.Errorf("nil scalar")
	}
	var out interface{}
	if err := node.Decode(&out); err != nil {
		return nil, err
	}
	if str, ok := out.(string); ok {
		str = strings.TrimSpace(str)
		if strings.HasPrefix(str, "${") && strings.HasSuffix(str, "}") {
			name := strings.TrimSpace(str[2 : len(str)-1])
			if vars == nil {
				return nil, fmt.Errorf("variable '%s' not defined", name)
			}
			val, ok := vars[name]
			if !ok {
				return nil, fmt.Errorf("variable '%s' not defined", name)
			}
			return val, nil
		}
	}
	return out, nil
}
