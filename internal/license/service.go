package license

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"

	"fastfood/internal/core"
	"fastfood/internal/database"
	"fastfood/internal/models"
	"fastfood/internal/monitoring"
)

const day = 24 * time.Hour

// warningDays are the days-remaining values on which renewal is nagged
var warningDays = map[int64]bool{15: true, 10: true, 5: true, 4: true, 3: true, 2: true, 1: true, 0: true}

// Status is the license state of this server as shown to clients
type Status struct {
	IsActivated       bool       `json:"isActivated"`
	IsValid           bool       `json:"isValid"`
	LicenseType       string     `json:"licenseType,omitempty"`
	ActivatedAt       *time.Time `json:"activatedAt,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	DaysRemaining     int64      `json:"daysRemaining"`
	Message           string     `json:"message"`
	MachineID         string     `json:"machineId"`
	ShouldShowWarning bool       `json:"shouldShowWarning"`
	WarningMessage    string     `json:"warningMessage,omitempty"`
}

// Service activates, extends and checks the node-locked license
type Service struct {
	db       *gorm.DB
	identity *Identity
	clock    core.Clock
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewService creates a new license service
func NewService(db *gorm.DB, identity *Identity, clock core.Clock, logger *zap.Logger, metrics *monitoring.Metrics) *Service {
	return &Service{db: db, identity: identity, clock: clock, logger: logger, metrics: metrics}
}

// MachineID returns the identity of this server
func (s *Service) MachineID() (string, error) {
	return s.identity.MachineID()
}

// Activate binds licenseKey to this server. The first key activates the
// server; later keys extend the current license by their duration, counted
// from the later of now and the current expiry.
func (s *Service) Activate(licenseKey string) (*Status, error) {
	key := strings.ToUpper(strings.TrimSpace(licenseKey))
	if key == "" {
		return nil, fmt.Errorf("license key is required: %w", core.ErrValidation)
	}
	machineID, err := s.identity.MachineID()
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()

		var lic models.License
		if err := database.ForUpdate(tx).Where("license_key = ?", key).First(&lic).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return fmt.Errorf("invalid license key: %w", core.ErrNotFound)
			}
			return err
		}
		if lic.MachineID != "" && lic.MachineID != machineID {
			return fmt.Errorf("license is already activated on another server: %w", core.ErrConflict)
		}
		if lic.MachineID == machineID && lic.ActivatedAt != nil {
			return fmt.Errorf("license is already activated on this server: %w", core.ErrConflict)
		}

		current, err := primary(database.ForUpdate(tx), machineID)
		if err != nil {
			return err
		}
		if current != nil && current.ID == lic.ID {
			current = nil
		}

		if current != nil {
			extend(current, &lic, now)
			if err := tx.Save(current).Error; err != nil {
				return fmt.Errorf("failed to extend license: %w", err)
			}
			lic.ExpiresAt = current.ExpiresAt
			s.logger.Info("license extended",
				zap.String("license_key", key),
				zap.String("machine_id", machineID),
				zap.Int("days_added", lic.DurationDays),
				zap.Timep("expires_at", current.ExpiresAt))
		} else {
			lic.ExpiresAt = expiryFrom(&lic, now)
			s.logger.Info("license activated",
				zap.String("license_key", key),
				zap.String("machine_id", machineID),
				zap.Timep("expires_at", lic.ExpiresAt))
		}

		lic.MachineID = machineID
		lic.ActivatedAt = &now
		lic.IsActive = true
		if err := tx.Save(&lic).Error; err != nil {
			return fmt.Errorf("failed to bind license: %w", err)
		}

		return upsertActivation(tx, machineID, key, now)
	})
	if err != nil {
		return nil, err
	}
	return s.Status()
}

// extend pushes the current license's expiry out by the incoming key's
// duration. A LIFETIME key makes the current license lifetime; a lifetime
// license stays lifetime.
func extend(current, incoming *models.License, now time.Time) {
	switch {
	case incoming.LicenseType == models.LicenseLifetime:
		current.LicenseType = models.LicenseLifetime
		current.ExpiresAt = nil
	case current.LicenseType == models.LicenseLifetime:
	default:
		base := now
		if current.ExpiresAt != nil && current.ExpiresAt.After(now) {
			base = *current.ExpiresAt
		}
		expires := base.AddDate(0, 0, incoming.DurationDays)
		current.ExpiresAt = &expires
	}
	current.IsActive = true
}

func expiryFrom(lic *models.License, now time.Time) *time.Time {
	if lic.LicenseType == models.LicenseLifetime {
		return nil
	}
	expires := now.AddDate(0, 0, lic.DurationDays)
	return &expires
}

func upsertActivation(tx *gorm.DB, machineID, key string, now time.Time) error {
	var activation models.SystemActivation
	err := database.ForUpdate(tx).Where("machine_id = ?", machineID).First(&activation).Error
	switch {
	case err == nil:
		return tx.Model(&activation).Updates(map[string]interface{}{
			"is_active":       true,
			"license_key":     key,
			"last_check_date": now,
		}).Error
	case gorm.IsRecordNotFoundError(err):
		return tx.Create(&models.SystemActivation{
			MachineID:           machineID,
			FirstActivationDate: now,
			LicenseKey:          key,
			IsActive:            true,
			LastCheckDate:       now,
		}).Error
	default:
		return err
	}
}

// primary returns the license the server runs under: the earliest activated
// active license bound to machineID, or nil.
func primary(db *gorm.DB, machineID string) (*models.License, error) {
	var lic models.License
	err := db.Where("machine_id = ? AND is_active = ?", machineID, true).
		Order("activated_at asc, id asc").First(&lic).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load license: %w", err)
	}
	return &lic, nil
}

func (s *Service) activation(machineID string) (*models.SystemActivation, error) {
	var activation models.SystemActivation
	err := s.db.Where("machine_id = ?", machineID).First(&activation).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load system activation: %w", err)
	}
	return &activation, nil
}

// CheckValidity reports whether this server holds a valid license and
// records the check time on its activation.
func (s *Service) CheckValidity() (bool, error) {
	valid, err := s.checkValidity()
	if err != nil {
		return false, err
	}
	s.metrics.LicenseChecked(valid)
	return valid, nil
}

func (s *Service) checkValidity() (bool, error) {
	machineID, err := s.identity.MachineID()
	if err != nil {
		return false, err
	}
	activation, err := s.activation(machineID)
	if err != nil {
		return false, err
	}
	if activation == nil || !activation.IsActive {
		return false, nil
	}

	now := s.clock.Now()
	if err := s.db.Model(activation).Update("last_check_date", now).Error; err != nil {
		return false, fmt.Errorf("failed to record license check: %w", err)
	}

	lic, err := primary(s.db, machineID)
	if err != nil || lic == nil {
		return false, err
	}
	if !lic.IsValid(now) {
		s.logger.Warn("license invalid",
			zap.String("machine_id", machineID),
			zap.Timep("expires_at", lic.ExpiresAt),
			zap.Bool("active", lic.IsActive))
		return false, nil
	}
	return true, nil
}

// Status derives the client-facing license state, including the renewal
// warning.
func (s *Service) Status() (*Status, error) {
	machineID, err := s.identity.MachineID()
	if err != nil {
		return nil, err
	}
	activation, err := s.activation(machineID)
	if err != nil {
		return nil, err
	}
	if activation == nil {
		return &Status{
			MachineID: machineID,
			Message:   "System not activated. Please activate with a valid license key.",
		}, nil
	}

	lic, err := primary(s.db, machineID)
	if err != nil {
		return nil, err
	}
	if lic == nil {
		return &Status{
			IsActivated: true,
			MachineID:   machineID,
			Message:     "No active license found. Please activate with a valid license key.",
		}, nil
	}

	return buildStatus(lic, machineID, s.clock.Now()), nil
}

func buildStatus(lic *models.License, machineID string, now time.Time) *Status {
	expired := lic.IsExpired(now)
	valid := lic.IsValid(now)
	lifetime := lic.LicenseType == models.LicenseLifetime

	st := &Status{
		IsActivated: lic.ActivatedAt != nil,
		IsValid:     valid,
		LicenseType: string(lic.LicenseType),
		ActivatedAt: lic.ActivatedAt,
		ExpiresAt:   lic.ExpiresAt,
		MachineID:   machineID,
	}

	if valid && lic.ExpiresAt != nil {
		st.DaysRemaining = int64(lic.ExpiresAt.Sub(now) / day)
	}

	switch {
	case expired:
		st.Message = fmt.Sprintf("License expired on %s. Please renew your license.", formatTime(lic.ExpiresAt))
	case !lic.IsActive:
		st.Message = "License is inactive. Please contact support."
	case lic.ActivatedAt == nil:
		st.Message = "License not activated yet. Please activate with a valid license key."
	case lifetime || lic.ExpiresAt == nil:
		st.Message = "License valid. Lifetime license - never expires."
	default:
		st.Message = fmt.Sprintf("License valid. %d days remaining. Expires on %s", st.DaysRemaining, formatTime(lic.ExpiresAt))
	}

	if valid && !lifetime && lic.ExpiresAt != nil && warningDays[st.DaysRemaining] {
		st.ShouldShowWarning = true
		if st.DaysRemaining == 0 {
			st.WarningMessage = "Warning: Your license expires today! Please renew immediately."
		} else {
			st.WarningMessage = fmt.Sprintf("Warning: Your license will expire in %d day(s). Please renew your license before expiration.", st.DaysRemaining)
		}
	}
	return st
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format("2006-01-02 15:04")
}
