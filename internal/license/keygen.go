package license

import (
	"crypto/rand"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fastfood/internal/core"
	"fastfood/internal/models"
)

// keyAlphabet omits I, O, 0 and 1. Its length of 32 keeps byte&31 unbiased.
const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const maxKeyAttempts = 5

// CreateRequest describes a license to issue
type CreateRequest struct {
	LicenseType models.LicenseType `json:"licenseType" binding:"required"`
	ClientName  string             `json:"clientName"`
	ClientEmail string             `json:"clientEmail"`
	Notes       string             `json:"notes"`
}

// GenerateKey returns a random key formatted XXXX-XXXX-XXXX-XXXX
func GenerateKey() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	var b strings.Builder
	for i, r := range raw {
		if i > 0 && i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(keyAlphabet[r&31])
	}
	return b.String(), nil
}

// CreateLicense issues an unbound license with a fresh key
func (s *Service) CreateLicense(req CreateRequest) (*models.License, error) {
	if !req.LicenseType.Valid() {
		return nil, fmt.Errorf("unknown license type %q: %w", req.LicenseType, core.ErrInvalidOperation)
	}

	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		key, err := GenerateKey()
		if err != nil {
			return nil, err
		}

		var count int
		if err := s.db.Model(&models.License{}).Where("license_key = ?", key).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}

		lic := &models.License{
			LicenseKey:   key,
			LicenseType:  req.LicenseType,
			DurationDays: req.LicenseType.DurationDays(),
			IsActive:     true,
			ClientName:   req.ClientName,
			ClientEmail:  req.ClientEmail,
			Notes:        req.Notes,
		}
		if err := s.db.Create(lic).Error; err != nil {
			return nil, fmt.Errorf("failed to create license: %w", err)
		}
		s.logger.Info("license created",
			zap.String("license_key", key),
			zap.String("type", string(req.LicenseType)),
			zap.String("client", req.ClientName))
		return lic, nil
	}
	return nil, fmt.Errorf("could not generate a unique license key: %w", core.ErrConflict)
}
