// internal/models/order.go
package models

type Order struct {
	BaseModel
	IsPaid   bool    `json:"_isPaid" gorm:"column:is_paid;not null;default:false"`
	User     Ref     `json:"user" gorm:"column:user_id;type:uuid;not null;index" validate:"required"`
	Products RefList `json:"products" gorm:"type:text[]" validate:"required,min=1"`
}
