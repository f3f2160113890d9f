// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// JSONB type for PostgreSQL, also the untyped payload shape flowing through
// the access and hook pipeline.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Clone returns a shallow copy. Nested slices are copied so hooks can append
// without aliasing the caller's payload.
func (j JSONB) Clone() JSONB {
	if j == nil {
		return JSONB{}
	}
	out := make(JSONB, len(j))
	for k, v := range j {
		switch t := v.(type) {
		case []interface{}:
			out[k] = append([]interface{}(nil), t...)
		case []string:
			out[k] = append([]string(nil), t...)
		default:
			out[k] = v
		}
	}
	return out
}

// Merge returns base overlaid with patch.
func Merge(base, patch JSONB) JSONB {
	out := base.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// String returns the string value of key, or "" when absent or not a string.
func (j JSONB) String(key string) string {
	if s, ok := j[key].(string); ok {
		return s
	}
	return ""
}

// Number returns key as a float64, accepting the numeric shapes produced by
// encoding/json, gorm scans and Go literals.
func (j JSONB) Number(key string) (float64, bool) {
	switch n := j[key].(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	}
	return 0, false
}

// Enums
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalDenied   ApprovalStatus = "denied"
)

// Collection is the slug of a record collection.
type Collection string

const (
	CollectionUsers        Collection = "users"
	CollectionProducts     Collection = "products"
	CollectionOrders       Collection = "orders"
	CollectionProductFiles Collection = "product_files"
)

func (c Collection) Valid() bool {
	switch c {
	case CollectionUsers, CollectionProducts, CollectionOrders, CollectionProductFiles:
		return true
	}
	return false
}

func (b *BaseModel) PrimaryKey() uuid.UUID {
	return b.ID
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
