// internal/models/product_file.go
package models

type ProductFile struct {
	BaseModel
	User       Ref    `json:"user" gorm:"column:user_id;type:uuid;index"`
	Filename   string `json:"filename" gorm:"size:255;not null" validate:"required,max=255"`
	MimeType   string `json:"mimeType" gorm:"size:100"`
	Filesize   int64  `json:"filesize"`
	URL        string `json:"url" gorm:"type:text"`
	StorageKey string `json:"storageKey" gorm:"size:512"`
}
