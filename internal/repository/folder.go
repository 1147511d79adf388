package repository

import (
	"errors"
	"fmt"
	"path/filepath"

	"mirrorsync/internal/db"
	"mirrorsync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrFolderNotFound = errors.New("paired folder not found")

type PairedFolderRepository struct{}

func NewPairedFolderRepository() *PairedFolderRepository {
	return &PairedFolderRepository{}
}

// Add persists folder under a fresh id. An empty alias defaults to the base
// names of both sides, "src --> dst".
func (r *PairedFolderRepository) Add(folder model.PairedFolder) (model.PairedFolder, error) {
	folder.ID = uuid.NewString()
	if folder.Alias == "" {
		folder.Alias = fmt.Sprintf("%s --> %s", filepath.Base(folder.Source), filepath.Base(folder.Target))
	}

	if err := db.DB.Create(&folder).Error; err != nil {
		return model.PairedFolder{}, fmt.Errorf("failed to add folder %q: %w", folder.Alias, err)
	}

	return folder, nil
}

func (r *PairedFolderRepository) GetAll() ([]model.PairedFolder, error) {
	var folders []model.PairedFolder
	return folders, db.DB.Order("created_at asc").Find(&folders).Error
}

func (r *PairedFolderRepository) GetAutostart() ([]model.PairedFolder, error) {
	var folders []model.PairedFolder
	return folders, db.DB.Where("autostart = ?", true).Order("created_at asc").Find(&folders).Error
}

// Find looks a folder up by id first, then by alias.
func (r *PairedFolderRepository) Find(ref string) (model.PairedFolder, error) {
	var folder model.PairedFolder

	err := db.DB.Where("id = ?", ref).Or("alias = ?", ref).First(&folder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return folder, fmt.Errorf("%w: %s", ErrFolderNotFound, ref)
	}

	return folder, err
}

func (r *PairedFolderRepository) Update(folder model.PairedFolder) error {
	result := db.DB.Model(&model.PairedFolder{}).
		Where("id = ?", folder.ID).
		Updates(map[string]any{
			"alias":          folder.Alias,
			"include_hidden": folder.IncludeHidden,
			"buffer_size":    folder.BufferSize,
			"autostart":      folder.Autostart,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrFolderNotFound, folder.ID)
	}

	return nil
}

// Delete removes the folder and its history.
func (r *PairedFolderRepository) Delete(id string) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&model.PairedFolder{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrFolderNotFound, id)
		}

		return tx.Unscoped().Where("folder_id = ?", id).Delete(&model.History{}).Error
	})
}
