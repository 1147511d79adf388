package model

import (
	"time"

	"gorm.io/gorm"
)

type SyncStatus string

const (
	StatusSuccess SyncStatus = "SUCCESS"
	StatusFailed  SyncStatus = "FAILED"
)

type History struct {
	gorm.Model
	FolderID string     `gorm:"index;not null" json:"folder_id"`
	Status   SyncStatus `gorm:"not null" json:"status"`
	Kind     ChangeKind `gorm:"not null" json:"kind"`
	Event    string     `gorm:"not null" json:"event"`
	Source   string     `gorm:"not null" json:"source"`
	Target   string     `gorm:"not null" json:"target"`
	Result   string     `gorm:"not null" json:"result"`
	ErrMsg   string     `json:"err_msg,omitempty"`
	SyncedAt time.Time  `gorm:"index;not null" json:"synced_at"`
}
