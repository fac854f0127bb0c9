package models

import (
	"time"
)

// BlockType distinguishes IP blocks from user quarantines.
type BlockType string

const (
	BlockTypeIP   BlockType = "ip_address"
	BlockTypeUser BlockType = "user_id"
)

// BlockEntry is one admin-issued block with an expiry. Unblocking flips
// Active to false instead of deleting so the entry remains for audit.
type BlockEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex"`
	Type      BlockType `json:"type" gorm:"index:idx_block_lookup"`
	Value     string    `json:"value" gorm:"index:idx_block_lookup"`
	Reason    string    `json:"reason"`
	Active    bool      `json:"active" gorm:"index:idx_block_lookup"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InEffect reports whether the entry currently denies access. Entries past
// their expiry count as inactive even when Active was never flipped.
func (b *BlockEntry) InEffect(now time.Time) bool {
	return b.Active && b.ExpiresAt.After(now)
}
