package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// License is a time-bounded authorization bound to one server identity
type License struct {
	gorm.Model
	LicenseKey   string      `gorm:"unique_index;not null"`
	LicenseType  LicenseType `gorm:"not null"`
	DurationDays int         `gorm:"not null"`
	ActivatedAt  *time.Time
	ExpiresAt    *time.Time
	IsActive     bool
	MachineID    string `gorm:"index"`
	ClientName   string
	ClientEmail  string
	Notes        string `gorm:"type:text"`
}

// SystemActivation records the activation state of one server identity
type SystemActivation struct {
	gorm.Model
	MachineID           string `gorm:"unique_index;not null"`
	FirstActivationDate time.Time
	LicenseKey          string
	IsActive            bool
	LastCheckDate       time.Time
}

// LicenseType represents the duration class of a license
type LicenseType string

const (
	LicenseTrial      LicenseType = "TRIAL"
	LicenseMonthly    LicenseType = "MONTHLY"
	LicenseQuarterly  LicenseType = "QUARTERLY"
	LicenseSemiAnnual LicenseType = "SEMI_ANNUAL"
	LicenseAnnual     LicenseType = "ANNUAL"
	LicenseLifetime   LicenseType = "LIFETIME"
)

var licenseDurations = map[LicenseType]int{
	LicenseTrial:      30,
	LicenseMonthly:    30,
	LicenseQuarterly:  90,
	LicenseSemiAnnual: 180,
	LicenseAnnual:     365,
	LicenseLifetime:   0,
}

// Valid reports whether t is a known license type
func (t LicenseType) Valid() bool {
	_, ok := licenseDurations[t]
	return ok
}

// DurationDays returns the number of days a license of this type grants.
// LIFETIME returns 0 and never expires.
func (t LicenseType) DurationDays() int {
	return licenseDurations[t]
}

// IsExpired reports whether the license has passed its expiry at now
func (l *License) IsExpired(now time.Time) bool {
	if l.ExpiresAt == nil || l.LicenseType == LicenseLifetime {
		return false
	}
	return now.After(*l.ExpiresAt)
}

// IsValid reports whether the license is active, activated and unexpired
func (l *License) IsValid(now time.Time) bool {
	return l.IsActive && !l.IsExpired(now) && l.ActivatedAt != nil
}
