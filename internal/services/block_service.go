package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hirewire/warden/internal/models"
)

var (
	// ErrBlockValueEmpty is returned when a block target is missing.
	ErrBlockValueEmpty = errors.New("block value must not be empty")
	// ErrBlockDuration is returned for non-positive block durations.
	ErrBlockDuration = errors.New("block duration must be positive")
)

// BlockService is the durable registry of IP blocks and user quarantines.
// Reads happen on every request; writes only on admin actions.
type BlockService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBlockService returns a BlockService using the provided DB.
func NewBlockService(db *gorm.DB) *BlockService {
	return &BlockService{db: db, now: time.Now}
}

// Block creates a new active entry expiring after durationHours. Multiple
// active entries for the same target may coexist; any one unexpired entry is
// enough for IsBlocked.
func (s *BlockService) Block(blockType models.BlockType, value, reason string, durationHours int) (*models.BlockEntry, error) {
	if value == "" {
		return nil, ErrBlockValueEmpty
	}
	if durationHours <= 0 {
		return nil, ErrBlockDuration
	}

	entry := &models.BlockEntry{
		UUID:      uuid.NewString(),
		Type:      blockType,
		Value:     value,
		Reason:    reason,
		Active:    true,
		ExpiresAt: s.now().Add(time.Duration(durationHours) * time.Hour),
	}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Unblock deactivates every active entry matching the value, regardless of
// type. Unblocking a value with no active entries is a no-op success.
func (s *BlockService) Unblock(value string) (int64, error) {
	if value == "" {
		return 0, ErrBlockValueEmpty
	}

	res := s.db.Model(&models.BlockEntry{}).
		Where("value = ? AND active = ?", value, true).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// IsBlocked reports whether an active, unexpired entry exists for the target.
// Expired entries count as inactive even when never explicitly deactivated.
func (s *BlockService) IsBlocked(blockType models.BlockType, value string) (bool, error) {
	var count int64
	err := s.db.Model(&models.BlockEntry{}).
		Where("type = ? AND value = ? AND active = ? AND expires_at > ?", blockType, value, true, s.now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns block entries newest-first. With activeOnly set, expired and
// deactivated entries are filtered out.
func (s *BlockService) List(activeOnly bool, limit int) ([]models.BlockEntry, error) {
	var entries []models.BlockEntry
	q := s.db.Order("created_at desc")
	if activeOnly {
		q = q.Where("active = ? AND expires_at > ?", true, s.now())
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountActive counts unexpired active entries of one type. Feeds the
// dashboard's blocked-IP and suspicious-user figures.
func (s *BlockService) CountActive(blockType models.BlockType) (int64, error) {
	var count int64
	err := s.db.Model(&models.BlockEntry{}).
		Where("type = ? AND active = ? AND expires_at > ?", blockType, true, s.now()).
		Count(&count).Error
	return count, err
}

// DeactivateExpired flips active off on entries past their expiry. The
// registry works correctly without it (expiry is checked lazily); the sweep
// just keeps the table's active flags honest for audit queries.
func (s *BlockService) DeactivateExpired() (int64, error) {
	res := s.db.Model(&models.BlockEntry{}).
		Where("active = ? AND expires_at <= ?", true, s.now()).
		Update("active", false)
	return res.RowsAffected, res.Error
}
