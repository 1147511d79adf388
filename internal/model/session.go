package model

import (
	"fmt"
	"time"
)

// MirrorSession is the immutable configuration of one mirroring engine.
type MirrorSession struct {
	SourceRoot    string
	TargetRoot    string
	IncludeHidden bool
}

func (s MirrorSession) String() string {
	return fmt.Sprintf("%s --> %s", s.SourceRoot, s.TargetRoot)
}

// PairedFolder is the persisted form of a mirror session plus its options.
type PairedFolder struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Alias         string    `gorm:"uniqueIndex;not null" json:"alias"`
	Source        string    `gorm:"not null" json:"source"`
	Target        string    `gorm:"not null" json:"target"`
	IncludeHidden bool      `gorm:"not null;default:false" json:"include_hidden"`
	BufferSize    int       `gorm:"not null" json:"buffer_size"`
	Autostart     bool      `gorm:"not null;default:false" json:"autostart"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (f PairedFolder) Session() MirrorSession {
	return MirrorSession{
		SourceRoot:    f.Source,
		TargetRoot:    f.Target,
		IncludeHidden: f.IncludeHidden,
	}
}
