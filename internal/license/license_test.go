package license

import (
	"regexp"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fastfood/internal/core"
	"fastfood/internal/dbtest"
	"fastfood/internal/models"
	"fastfood/internal/monitoring"
)

const testMachine = "till-01"

type fixture struct {
	db    *gorm.DB
	clock *core.FixedClock
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	clock := &core.FixedClock{T: dbtest.Epoch}
	identity := NewIdentity(db, testMachine, nil, zap.NewNop())
	return &fixture{db: db, clock: clock, svc: NewService(db, identity, clock, zap.NewNop(), monitoring.NewMetrics())}
}

func (f *fixture) key(t *testing.T, kind models.LicenseType) string {
	t.Helper()
	lic, err := f.svc.CreateLicense(CreateRequest{LicenseType: kind, ClientName: "Cafe"})
	require.NoError(t, err)
	return lic.LicenseKey
}

func days(n int) time.Time {
	return dbtest.Epoch.AddDate(0, 0, n)
}

func TestFirstActivation(t *testing.T) {
	f := newFixture(t)
	key := f.key(t, models.LicenseTrial)

	st, err := f.svc.Activate(key)
	require.NoError(t, err)
	assert.True(t, st.IsActivated)
	assert.True(t, st.IsValid)
	assert.Equal(t, "TRIAL", st.LicenseType)
	assert.Equal(t, testMachine, st.MachineID)
	require.NotNil(t, st.ExpiresAt)
	assert.True(t, days(30).Equal(*st.ExpiresAt))
	assert.Equal(t, int64(30), st.DaysRemaining)
	assert.False(t, st.ShouldShowWarning)
	assert.Contains(t, st.Message, "30 days remaining")

	var activation models.SystemActivation
	require.NoError(t, f.db.Where("machine_id = ?", testMachine).First(&activation).Error)
	assert.Equal(t, key, activation.LicenseKey)
	assert.True(t, activation.IsActive)
}

func TestActivationExtendsFromCurrentExpiry(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Activate(f.key(t, models.LicenseTrial))
	require.NoError(t, err)

	f.clock.Advance(10 * day)
	second := f.key(t, models.LicenseMonthly)
	st, err := f.svc.Activate(second)
	require.NoError(t, err)
	require.NotNil(t, st.ExpiresAt)
	assert.True(t, days(60).Equal(*st.ExpiresAt), "got %s", st.ExpiresAt)
	assert.Equal(t, int64(50), st.DaysRemaining)
	assert.Equal(t, "TRIAL", st.LicenseType)

	var consumed models.License
	require.NoError(t, f.db.Where("license_key = ?", second).First(&consumed).Error)
	assert.Equal(t, testMachine, consumed.MachineID)
	require.NotNil(t, consumed.ExpiresAt)
	assert.True(t, days(60).Equal(*consumed.ExpiresAt))
}

func TestActivationExtendsFromNowWhenExpired(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Activate(f.key(t, models.LicenseTrial))
	require.NoError(t, err)

	f.clock.Advance(45 * day)
	valid, err := f.svc.CheckValidity()
	require.NoError(t, err)
	assert.False(t, valid)

	st, err := f.svc.Activate(f.key(t, models.LicenseQuarterly))
	require.NoError(t, err)
	assert.True(t, st.IsValid)
	require.NotNil(t, st.ExpiresAt)
	assert.True(t, days(45+90).Equal(*st.ExpiresAt))
}

func TestLifetimeActivation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Activate(f.key(t, models.LicenseMonthly))
	require.NoError(t, err)

	st, err := f.svc.Activate(f.key(t, models.LicenseLifetime))
	require.NoError(t, err)
	assert.Nil(t, st.ExpiresAt)
	assert.Equal(t, "LIFETIME", st.LicenseType)
	assert.Equal(t, "License valid. Lifetime license - never expires.", st.Message)

	// a later timed key does not downgrade a lifetime license
	_, err = f.svc.Activate(f.key(t, models.LicenseAnnual))
	require.NoError(t, err)

	f.clock.Advance(5000 * day)
	valid, err := f.svc.CheckValidity()
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestActivationErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Activate("NOPE-NOPE-NOPE-NOPE")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Contains(t, err.Error(), "invalid license key")

	_, err = f.svc.Activate("  ")
	assert.ErrorIs(t, err, core.ErrValidation)

	foreign := f.key(t, models.LicenseAnnual)
	require.NoError(t, f.db.Model(&models.License{}).Where("license_key = ?", foreign).
		Update("machine_id", "other-server").Error)
	_, err = f.svc.Activate(foreign)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Contains(t, err.Error(), "already activated on another server")

	key := f.key(t, models.LicenseTrial)
	_, err = f.svc.Activate(key)
	require.NoError(t, err)
	_, err = f.svc.Activate(key)
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestCheckValidityRecordsCheck(t *testing.T) {
	f := newFixture(t)

	valid, err := f.svc.CheckValidity()
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = f.svc.Activate(f.key(t, models.LicenseTrial))
	require.NoError(t, err)

	f.clock.Advance(3 * time.Hour)
	valid, err = f.svc.CheckValidity()
	require.NoError(t, err)
	assert.True(t, valid)

	var activation models.SystemActivation
	require.NoError(t, f.db.Where("machine_id = ?", testMachine).First(&activation).Error)
	assert.True(t, f.clock.T.Equal(activation.LastCheckDate))
}

func TestStatusBeforeActivation(t *testing.T) {
	f := newFixture(t)

	st, err := f.svc.Status()
	require.NoError(t, err)
	assert.False(t, st.IsActivated)
	assert.False(t, st.IsValid)
	assert.Equal(t, testMachine, st.MachineID)
	assert.Contains(t, st.Message, "System not activated")
}

func TestStatusNoActiveLicense(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Activate(f.key(t, models.LicenseTrial))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.License{}).Where("machine_id = ?", testMachine).
		Update("is_active", false).Error)

	st, err := f.svc.Status()
	require.NoError(t, err)
	assert.True(t, st.IsActivated)
	assert.False(t, st.IsValid)
	assert.Contains(t, st.Message, "No active license found")
}

func TestStatusWarnings(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		warn    bool
		days    int64
		message string
	}{
		{14 * day, false, 16, ""},
		{15 * day, true, 15, "Warning: Your license will expire in 15 day(s). Please renew your license before expiration."},
		{16 * day, false, 14, ""},
		{25 * day, true, 5, "Warning: Your license will expire in 5 day(s). Please renew your license before expiration."},
		{29*day + time.Hour, true, 0, "Warning: Your license expires today! Please renew immediately."},
	}

	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Activate(f.key(t, models.LicenseTrial))
			require.NoError(t, err)

			f.clock.Advance(tt.elapsed)
			st, err := f.svc.Status()
			require.NoError(t, err)
			assert.True(t, st.IsValid)
			assert.Equal(t, tt.days, st.DaysRemaining)
			assert.Equal(t, tt.warn, st.ShouldShowWarning)
			assert.Equal(t, tt.message, st.WarningMessage)
		})
	}
}

func TestStatusExpired(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Activate(f.key(t, models.LicenseTrial))
	require.NoError(t, err)

	f.clock.Advance(31 * day)
	st, err := f.svc.Status()
	require.NoError(t, err)
	assert.True(t, st.IsActivated)
	assert.False(t, st.IsValid)
	assert.Equal(t, int64(0), st.DaysRemaining)
	assert.False(t, st.ShouldShowWarning)
	assert.Contains(t, st.Message, "License expired on")
}

func TestGenerateKey(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-HJ-NP-Z2-9]{4}(-[A-HJ-NP-Z2-9]{4}){3}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		key, err := GenerateKey()
		require.NoError(t, err)
		assert.Regexp(t, pattern, key)
		seen[key] = true
	}
	assert.Len(t, seen, 50)
}

func TestCreateLicense(t *testing.T) {
	f := newFixture(t)

	lic, err := f.svc.CreateLicense(CreateRequest{LicenseType: models.LicenseSemiAnnual, ClientName: "Cafe", ClientEmail: "owner@cafe.pk"})
	require.NoError(t, err)
	assert.Equal(t, 180, lic.DurationDays)
	assert.True(t, lic.IsActive)
	assert.Empty(t, lic.MachineID)
	assert.Nil(t, lic.ActivatedAt)

	_, err = f.svc.CreateLicense(CreateRequest{LicenseType: "FOREVER"})
	assert.ErrorIs(t, err, core.ErrInvalidOperation)
}
