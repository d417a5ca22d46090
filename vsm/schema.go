package vsm

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type kind int

const (
	kindObject kind = iota
	kindArray
	kindString
	kindNumber
	kindInteger
)

func (k kind) String() string {
	switch k {
	case kindObject:
		return "object"
	case kindArray:
		return "array"
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindInteger:
		return "integer"
	}
	return "unknown"
}

// node is one level of the document shape. Objects are closed: keys not in
// props are reported.
type node struct {
	kind      kind
	props     map[string]*node
	required  []string
	items     *node
	minItems  int
	minLength int
	enum      map[string]bool
	min, max  *float64
	uniqueKey string // array of objects: this property must not repeat
}

func object(required []string, props map[string]*node) *node {
	return &node{kind: kindObject, props: props, required: required}
}

func arrayOf(items *node) *node { return &node{kind: kindArray, items: items} }

func str() *node { return &node{kind: kindString} }

func nonEmptyStr() *node { return &node{kind: kindString, minLength: 1} }

func enumOf(values map[string]bool) *node { return &node{kind: kindString, enum: values} }

func stringList() *node { return arrayOf(str()) }

func bounded(k kind, min, max *float64) *node { return &node{kind: k, min: min, max: max} }

func limit(v float64) *float64 { return &v }

var documentShape = buildShape()

func buildShape() *node {
	units := arrayOf(object([]string{"name", "purpose"}, map[string]*node{
		"name":     nonEmptyStr(),
		"purpose":  nonEmptyStr(),
		"autonomy": str(),
		"tools":    stringList(),
		"model":    str(),
		"weight":   bounded(kindInteger, limit(1), limit(10)),
	}))
	units.minItems = 1
	units.uniqueKey = "name"

	system := object([]string{"name", "identity", "system_1"}, map[string]*node{
		"name":    nonEmptyStr(),
		"runtime": enumOf(ValidRuntimes),
		"identity": object([]string{"purpose"}, map[string]*node{
			"purpose":                   str(),
			"values":                    stringList(),
			"never_do":                  stringList(),
			"decisions_requiring_human": stringList(),
		}),
		"system_1": units,
		"system_2": object(nil, map[string]*node{
			"coordination_rules": arrayOf(object([]string{"trigger", "action"}, map[string]*node{
				"trigger": nonEmptyStr(),
				"action":  nonEmptyStr(),
				"scope":   str(),
			})),
		}),
		"system_3": object(nil, map[string]*node{
			"reporting_rhythm":    str(),
			"resource_allocation": str(),
		}),
		"system_3_star": object(nil, map[string]*node{
			"schedule": str(),
			"checks": arrayOf(object([]string{"name", "target", "method"}, map[string]*node{
				"name":   nonEmptyStr(),
				"target": nonEmptyStr(),
				"method": nonEmptyStr(),
			})),
			"on_failure": str(),
		}),
		"system_4": object(nil, map[string]*node{
			"monitoring": object(nil, map[string]*node{
				"competitors": stringList(),
				"technology":  stringList(),
				"regulation":  stringList(),
			}),
		}),
		"budget": object(nil, map[string]*node{
			"monthly_usd": bounded(kindNumber, limit(0), nil),
			"strategy":    enumOf(ValidStrategies),
			"alerts": arrayOf(object([]string{"at_percent", "action"}, map[string]*node{
				"at_percent": bounded(kindInteger, limit(1), limit(100)),
				"action":     enumOf(ValidAlertActions),
			})),
		}),
		"model_routing": object(nil, routingShape()),
		"human_in_the_loop": object(nil, map[string]*node{
			"notification_channel": enumOf(ValidChannels),
			"approval_required":    stringList(),
			"review_required":      stringList(),
			"emergency_alerts":     stringList(),
		}),
		"persistence": object(nil, map[string]*node{
			"strategy": enumOf(ValidPersistenceStrategies),
			"path":     str(),
		}),
	})

	return object([]string{"viable_system"}, map[string]*node{"viable_system": system})
}

func routingShape() map[string]*node {
	props := map[string]*node{"provider_preference": enumOf(ValidProviders)}
	for _, role := range RoleKeys {
		props[string(role)] = str()
	}
	return props
}

// Validate checks doc against the organization document shape and returns
// every violation, sorted. An empty result means the document is valid.
// Cross-field business rules are not checked here, except that unit names
// must be unique.
func Validate(doc map[string]any) []string {
	var errs []string
	if doc == nil {
		doc = map[string]any{}
	}
	documentShape.check("config", doc, &errs)
	sort.Strings(errs)
	return errs
}

func (n *node) check(path string, v any, errs *[]string) {
	report := func(format string, args ...any) {
		*errs = append(*errs, path+": "+fmt.Sprintf(format, args...))
	}

	switch n.kind {
	case kindObject:
		m, ok := v.(map[string]any)
		if !ok {
			report("expected object, got %s", typeName(v))
			return
		}
		for _, key := range n.required {
			if _, ok := m[key]; !ok {
				report("'%s' is a required property", key)
			}
		}
		for _, key := range sortedKeys(m) {
			child, ok := n.props[key]
			if !ok {
				report("additional property '%s' is not allowed", key)
				continue
			}
			child.check(path+"."+key, m[key], errs)
		}

	case kindArray:
		items, ok := v.([]any)
		if !ok {
			report("expected array, got %s", typeName(v))
			return
		}
		if len(items) < n.minItems {
			report("should have at least %d item(s)", n.minItems)
		}
		seen := map[string]bool{}
		for i, item := range items {
			n.items.check(fmt.Sprintf("%s[%d]", path, i), item, errs)
			if n.uniqueKey == "" {
				continue
			}
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			key, ok := obj[n.uniqueKey].(string)
			if !ok || key == "" {
				continue
			}
			if seen[key] {
				report("duplicate %s '%s'", n.uniqueKey, key)
			}
			seen[key] = true
		}

	case kindString:
		s, ok := v.(string)
		if !ok {
			report("expected string, got %s", typeName(v))
			return
		}
		if len(s) < n.minLength {
			report("should be non-empty")
		}
		if n.enum != nil && !n.enum[s] {
			report("'%s' is not one of [%s]", s, strings.Join(sortedKeys(n.enum), ", "))
		}

	case kindNumber, kindInteger:
		num, ok := toFloat(v)
		if !ok || (n.kind == kindInteger && num != math.Trunc(num)) {
			report("expected %s, got %s", n.kind, typeName(v))
			return
		}
		if n.min != nil && num < *n.min {
			report("%v is less than the minimum of %v", num, *n.min)
		}
		if n.max != nil && num > *n.max {
			report("%v is greater than the maximum of %v", num, *n.max)
		}
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func typeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64:
		return "integer"
	case float64:
		if t == math.Trunc(t) {
			return "integer"
		}
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
