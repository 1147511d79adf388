package model

import "time"

type SessionSnapshot struct {
	FolderID  string     `json:"folder_id"`
	Alias     string     `json:"alias"`
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Running   bool       `json:"running"`
	StartedAt time.Time  `json:"started_at"`
	Synced    int        `json:"synced"`
	Failed    int        `json:"failed"`
	LastEvent *time.Time `json:"last_event"`
}
