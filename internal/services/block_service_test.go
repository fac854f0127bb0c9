package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hirewire/warden/internal/models"
)

func setupBlockTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.BlockEntry{})
	assert.NoError(t, err)

	return db
}

func TestBlockService_BlockAndIsBlocked(t *testing.T) {
	svc := NewBlockService(setupBlockTestDB(t))

	entry, err := svc.Block(models.BlockTypeIP, "5.6.7.8", "abuse", 1)
	assert.NoError(t, err)
	assert.True(t, entry.Active)
	assert.Equal(t, "abuse", entry.Reason)

	blocked, err := svc.IsBlocked(models.BlockTypeIP, "5.6.7.8")
	assert.NoError(t, err)
	assert.True(t, blocked)

	// A user quarantine for the same value does not trip the IP check.
	blocked, err = svc.IsBlocked(models.BlockTypeUser, "5.6.7.8")
	assert.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlockService_LazyExpiry(t *testing.T) {
	svc := NewBlockService(setupBlockTestDB(t))

	now := time.Now()
	svc.now = func() time.Time { return now }

	_, err := svc.Block(models.BlockTypeIP, "5.6.7.8", "abuse", 1)
	assert.NoError(t, err)

	blocked, err := svc.IsBlocked(models.BlockTypeIP, "5.6.7.8")
	assert.NoError(t, err)
	assert.True(t, blocked)

	// 61 minutes later the entry no longer blocks, no unblock call needed.
	now = now.Add(61 * time.Minute)
	blocked, err = svc.IsBlocked(models.BlockTypeIP, "5.6.7.8")
	assert.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlockService_UnblockImmediate(t *testing.T) {
	svc := NewBlockService(setupBlockTestDB(t))

	_, err := svc.Block(models.BlockTypeIP, "1.2.3.4", "spam", 48)
	assert.NoError(t, err)
	_, err = svc.Block(models.BlockTypeIP, "1.2.3.4", "spam again", 48)
	assert.NoError(t, err)

	count, err := svc.Unblock("1.2.3.4")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count, "all active entries deactivate")

	blocked, err := svc.IsBlocked(models.BlockTypeIP, "1.2.3.4")
	assert.NoError(t, err)
	assert.False(t, blocked)

	// Entries survive for audit.
	entries, err := svc.List(false, 0)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBlockService_UnblockNonBlockedIsNoop(t *testing.T) {
	svc := NewBlockService(setupBlockTestDB(t))

	count, err := svc.Unblock("203.0.113.1")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestBlockService_CountActiveAndSweep(t *testing.T) {
	svc := NewBlockService(setupBlockTestDB(t))
	now := time.Now()
	svc.now = func() time.Time { return now }

	_, err := svc.Block(models.BlockTypeIP, "1.1.1.1", "", 1)
	assert.NoError(t, err)
	_, err = svc.Block(models.BlockTypeUser, "user-7", "fraud", 2)
	assert.NoError(t, err)

	ips, err := svc.CountActive(models.BlockTypeIP)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), ips)

	now = now.Add(90 * time.Minute)
	deactivated, err := svc.DeactivateExpired()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), deactivated)

	users, err := svc.CountActive(models.BlockTypeUser)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), users, "unexpired quarantine stays active")
}

func TestBlockService_Validation(t *testing.T) {
	svc := NewBlockService(setupBlockTestDB(t))

	_, err := svc.Block(models.BlockTypeIP, "", "x", 1)
	assert.ErrorIs(t, err, ErrBlockValueEmpty)

	_, err = svc.Block(models.BlockTypeIP, "1.2.3.4", "x", 0)
	assert.ErrorIs(t, err, ErrBlockDuration)
}
