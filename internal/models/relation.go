// internal/models/relation.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// Ref is a relationship value. On input it accepts either a bare id or an
// expanded record carrying an "id"; it is always stored and emitted as the id.
type Ref string

func (r *Ref) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	id, ok := refID(raw)
	if !ok && raw != nil {
		return fmt.Errorf("invalid relationship value: %s", string(b))
	}
	*r = Ref(id)
	return nil
}

func (r Ref) Value() (driver.Value, error) {
	if r == "" {
		return nil, nil
	}
	return string(r), nil
}

func (r *Ref) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*r = ""
	case string:
		*r = Ref(v)
	case []byte:
		*r = Ref(v)
	default:
		return fmt.Errorf("cannot scan %T into Ref", value)
	}
	return nil
}

// RefList is a has-many relationship stored as a postgres text[] column.
type RefList []Ref

func (l *RefList) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ids := RefsFrom(raw)
	out := make(RefList, 0, len(ids))
	for _, id := range ids {
		out = append(out, Ref(id))
	}
	*l = out
	return nil
}

func (l RefList) Value() (driver.Value, error) {
	return pq.StringArray(l.IDs()).Value()
}

func (l *RefList) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return err
	}
	out := make(RefList, 0, len(arr))
	for _, id := range arr {
		out = append(out, Ref(id))
	}
	*l = out
	return nil
}

func (l RefList) IDs() []string {
	ids := make([]string, 0, len(l))
	for _, r := range l {
		ids = append(ids, string(r))
	}
	return ids
}

// RefsFrom normalizes a raw relationship value (id, expanded object, or a
// list of either) into ids. Empty and unrecognised entries are skipped.
func RefsFrom(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, 0, len(t))
		for _, id := range t {
			if id != "" {
				out = append(out, id)
			}
		}
		return out
	case RefList:
		return t.IDs()
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if id, ok := refID(item); ok && id != "" {
				out = append(out, id)
			}
		}
		return out
	default:
		if id, ok := refID(v); ok && id != "" {
			return []string{id}
		}
		return nil
	}
}

// RefFrom is RefsFrom for a has-one relationship.
func RefFrom(v interface{}) string {
	ids := RefsFrom(v)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func refID(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case Ref:
		return string(t), true
	case map[string]interface{}:
		id, ok := t["id"].(string)
		return id, ok
	case JSONB:
		id, ok := t["id"].(string)
		return id, ok
	case fmt.Stringer:
		return t.String(), true
	}
	return "", false
}

// UniqueAppend returns the stable de-duplicated union of ids and extra,
// keeping first-seen order.
func UniqueAppend(ids []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(ids)+len(extra))
	out := make([]string, 0, len(ids)+len(extra))
	for _, list := range [][]string{ids, extra} {
		for _, id := range list {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
