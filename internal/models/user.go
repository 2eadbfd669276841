package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	Password     string `gorm:"not null" json:"-"`
	Name         string `gorm:"not null"`
	Verified     bool   `gorm:"default:false"`
	VerifiedAt   *time.Time
	TokenVersion int `gorm:"default:1"`
}
