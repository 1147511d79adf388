package repository

import (
	"mirrorsync/internal/db"
	"mirrorsync/internal/model"

	"gorm.io/gorm"
)

type HistoryRepository struct{}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) Save(folderID string, report model.Report) error {
	status := model.StatusSuccess
	errMsg := ""
	if report.Err != nil {
		status = model.StatusFailed
		errMsg = report.Err.Error()
	}

	history := model.History{
		FolderID: folderID,
		Status:   status,
		Kind:     report.Kind,
		Event:    report.Event,
		Source:   report.Source,
		Target:   report.Target,
		Result:   report.Result,
		ErrMsg:   errMsg,
		SyncedAt: report.At,
	}

	return db.DB.Create(&history).Error
}

// Prune keeps only the newest keep entries of a folder.
func (r *HistoryRepository) Prune(folderID string, keep int) error {
	newest := db.DB.Model(&model.History{}).
		Select("id").
		Where("folder_id = ?", folderID).
		Order("id desc").
		Limit(keep)

	return db.DB.Unscoped().
		Where("folder_id = ? AND id NOT IN (?)", folderID, newest).
		Delete(&model.History{}).Error
}

type Stats struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
}

func (r *HistoryRepository) GetStats(folderID string) (Stats, error) {
	var stats Stats

	scoped := func() *gorm.DB {
		query := db.DB.Model(&model.History{})
		if folderID != "" {
			query = query.Where("folder_id = ?", folderID)
		}
		return query
	}

	if err := scoped().Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := scoped().Where("status = ?", model.StatusSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	stats.Failed = stats.Total - stats.Success
	return stats, nil
}

// GetRecent returns the newest limit entries, optionally for one folder.
func (r *HistoryRepository) GetRecent(limit int, folderID string) ([]model.History, error) {
	var histories []model.History

	query := db.DB.Order("synced_at desc").Order("id desc").Limit(limit)
	if folderID != "" {
		query = query.Where("folder_id = ?", folderID)
	}

	return histories, query.Find(&histories).Error
}

func (r *HistoryRepository) GetFailed(folderID string) ([]model.History, error) {
	var histories []model.History

	query := db.DB.Where("status = ?", model.StatusFailed).Order("synced_at desc")
	if folderID != "" {
		query = query.Where("folder_id = ?", folderID)
	}

	return histories, query.Find(&histories).Error
}
