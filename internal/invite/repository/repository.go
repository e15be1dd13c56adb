package repository

import (
	"context"
	"errors"

	invitedomain "github.com/ZRnown/commissionBot/internal/invite/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() invitedomain.Repository {
	return &repo{}
}

func (r *repo) InsertRecord(ctx context.Context, db *gorm.DB, rec *invitedomain.Record) error {
	return db.WithContext(ctx).Create(rec).Error
}

func (r *repo) LatestByOwner(ctx context.Context, db *gorm.DB, ownerID int64) (*invitedomain.Record, error) {
	var rec invitedomain.Record
	err := db.WithContext(ctx).
		Where("owner_id = ? AND active = ?", ownerID, true).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// OwnerByCode resolves an invite code to its owner using the most recent
// active record for that code. Zero when the code was never recorded or
// every record for it has been deactivated.
func (r *repo) OwnerByCode(ctx context.Context, db *gorm.DB, code string) (int64, error) {
	var rec invitedomain.Record
	err := db.WithContext(ctx).
		Where("code = ? AND active = ?", code, true).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return rec.OwnerID, nil
}

func (r *repo) DeactivateByOwner(ctx context.Context, db *gorm.DB, ownerID int64) error {
	return db.WithContext(ctx).Model(&invitedomain.Record{}).
		Where("owner_id = ?", ownerID).
		Update("active", false).Error
}

func (r *repo) SetLink(ctx context.Context, db *gorm.DB, ownerID int64, url string) error {
	link := invitedomain.Link{OwnerID: ownerID, URL: url}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"link"}),
	}).Create(&link).Error
}

func (r *repo) LinkByOwner(ctx context.Context, db *gorm.DB, ownerID int64) (string, error) {
	var link invitedomain.Link
	err := db.WithContext(ctx).First(&link, "owner_id = ?", ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return link.URL, nil
}
