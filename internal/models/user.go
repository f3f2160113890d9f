// internal/models/user.go
package models

import (
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Email        string  `json:"email" gorm:"uniqueIndex;size:255;not null" validate:"required,email,max=255"`
	PasswordHash string  `json:"passwordHash,omitempty" gorm:"size:255;not null"`
	Role         Role    `json:"role" gorm:"type:varchar(20);not null;default:'user'" validate:"required,oneof=admin user"`
	Products     RefList `json:"products" gorm:"type:text[]"`
	ProductFiles RefList `json:"product_files" gorm:"type:text[]"`

	Verified          bool   `json:"_verified" gorm:"not null;default:false"`
	VerificationToken string `json:"_verificationToken,omitempty" gorm:"size:64;index"`
}

func (u *User) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}
