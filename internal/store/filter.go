package store

import (
	"fmt"

	"github.com/digitalhippo/hippo-backend/internal/models"
)

type Operator string

const (
	Equals Operator = "equals"
	In     Operator = "in"
)

// Condition is one structural predicate, {field: {operator: value}}.
type Condition struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// Filter is a conjunction of conditions. The zero value matches everything.
type Filter []Condition

func Where(field string, op Operator, value interface{}) Condition {
	return Condition{Field: field, Operator: op, Value: value}
}

func ByID(id string) Filter {
	return Filter{Where("id", Equals, id)}
}

func (f Filter) And(conds ...Condition) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}

func (f Filter) Fields() []string {
	fields := make([]string, 0, len(f))
	for _, c := range f {
		fields = append(fields, c.Field)
	}
	return fields
}

// Matches evaluates the filter against a record's fields. Relationship lists
// match equals when they contain the value and in when they overlap.
func (f Filter) Matches(fields models.JSONB) bool {
	for _, c := range f {
		if !c.matches(fields[c.Field]) {
			return false
		}
	}
	return true
}

func (c Condition) matches(actual interface{}) bool {
	have := scalars(actual)
	switch c.Operator {
	case Equals:
		want := scalarKey(c.Value)
		for _, h := range have {
			if h == want {
				return true
			}
		}
		return false
	case In:
		set := make(map[string]struct{})
		for _, v := range listValues(c.Value) {
			set[scalarKey(v)] = struct{}{}
		}
		for _, h := range have {
			if _, ok := set[h]; ok {
				return true
			}
		}
		return false
	}
	return false
}

func scalars(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}, []string, models.RefList:
		ids := models.RefsFrom(t)
		return ids
	case nil:
		return []string{""}
	default:
		return []string{scalarKey(v)}
	}
}

func listValues(v interface{}) []interface{} {
	switch t := v.(type) {
	case []interface{}:
		return t
	case []string:
		out := make([]interface{}, 0, len(t))
		for _, s := range t {
			out = append(out, s)
		}
		return out
	case models.RefList:
		return listValues(t.IDs())
	default:
		return []interface{}{v}
	}
}

func scalarKey(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case models.Ref:
		return string(t)
	case map[string]interface{}, models.JSONB:
		return models.RefFrom(t)
	case int:
		return fmt.Sprint(float64(t))
	case int64:
		return fmt.Sprint(float64(t))
	default:
		return fmt.Sprint(t)
	}
}

func stringValues(v interface{}) []string {
	vals := listValues(v)
	out := make([]string, 0, len(vals))
	for _, x := range vals {
		out = append(out, scalarKey(x))
	}
	return out
}
