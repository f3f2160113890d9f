// internal/models/product.go
package models

type Product struct {
	BaseModel
	User            Ref            `json:"user" gorm:"column:user_id;type:uuid;index"`
	Name            string         `json:"name" gorm:"size:255;not null" validate:"required,max=255"`
	Description     string         `json:"description" gorm:"type:text"`
	Price           *float64       `json:"price" gorm:"type:decimal(10,2);not null" validate:"required,min=0,max=1000"`
	Category        string         `json:"category" gorm:"size:100;index" validate:"required,product_category"`
	ProductFiles    Ref            `json:"product_files" gorm:"column:product_files_id;type:uuid" validate:"required"`
	ApprovedForSale ApprovalStatus `json:"approvedForSale" gorm:"type:varchar(20);default:'pending';index" validate:"omitempty,oneof=pending approved denied"`
	PriceID         string         `json:"priceId,omitempty" gorm:"size:255"`
	StripeID        string         `json:"stripeId,omitempty" gorm:"size:255;index"`
}
