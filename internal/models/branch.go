package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// Branch is a physical restaurant location that orders are scoped to
type Branch struct {
	gorm.Model
	NameEn   string `gorm:"not null" json:"nameEn"`
	NameUr   string `json:"nameUr"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"isActive"`
}

// BrandConfig is a runtime key/value setting stored in the database
type BrandConfig struct {
	ConfigKey   string `gorm:"primary_key"`
	ConfigValue string
	Description string
	UpdatedAt   time.Time
}
