package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
)

type CatalogueRepository struct {
	db *gorm.DB
}

func NewCatalogueRepository(db *gorm.DB) *CatalogueRepository {
	return &CatalogueRepository{db: db}
}

type catalogueRow struct {
	ID                  uuid.UUID
	Title               string
	ClientID            uuid.UUID
	OrderID             *uuid.UUID
	CustomMessage       string
	InclusionConfig     []byte
	Status              string
	IsContentRestricted bool
	ShareToken          *string
	CreatedAt           time.Time
}

type catalogueItemRow struct {
	ID                 uuid.UUID
	CatalogueID        uuid.UUID
	CandidateID        uuid.UUID
	FullName           string
	City               string
	Province           string
	ContactEmail       string
	ContactPhone       string
	Summary            string
	Experience         string
	SituationalAnswers string
	CVURL              string
	VideoURL           string
}

func (row catalogueRow) toModel() (model.Catalogue, error) {
	var inclusion model.InclusionConfig
	if len(row.InclusionConfig) > 0 {
		if err := json.Unmarshal(row.InclusionConfig, &inclusion); err != nil {
			return model.Catalogue{}, err
		}
	}
	return model.Catalogue{
		ID:                  row.ID,
		Title:               row.Title,
		ClientID:            row.ClientID,
		OrderID:             row.OrderID,
		CustomMessage:       row.CustomMessage,
		Inclusion:           inclusion,
		Status:              model.CatalogueStatus(row.Status),
		IsContentRestricted: row.IsContentRestricted,
		ShareToken:          row.ShareToken,
		CreatedAt:           row.CreatedAt,
	}, nil
}

func (row catalogueItemRow) toModel() model.CatalogueItem {
	return model.CatalogueItem{
		ID:          row.ID,
		CatalogueID: row.CatalogueID,
		Snapshot: model.CandidateSnapshot{
			CandidateID:        row.CandidateID,
			FullName:           row.FullName,
			City:               row.City,
			Province:           row.Province,
			ContactEmail:       row.ContactEmail,
			ContactPhone:       row.ContactPhone,
			Summary:            row.Summary,
			Experience:         row.Experience,
			SituationalAnswers: row.SituationalAnswers,
			CVURL:              row.CVURL,
			VideoURL:           row.VideoURL,
		},
	}
}

// Create inserts the catalogue and its item snapshots in one transaction.
func (r *CatalogueRepository) Create(ctx context.Context, catalogue *model.Catalogue) error {
	inclusion, err := json.Marshal(catalogue.Inclusion)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row catalogueRow
		err := tx.Raw(`
			INSERT INTO catalogues (title, client_id, order_id, custom_message, inclusion_config, status, is_content_restricted, share_token)
			VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
			RETURNING id, title, client_id, order_id, custom_message, inclusion_config, status, is_content_restricted, share_token, created_at
		`, catalogue.Title, catalogue.ClientID, catalogue.OrderID, catalogue.CustomMessage,
			inclusion, catalogue.Status, catalogue.IsContentRestricted).Scan(&row).Error
		if err != nil {
			return err
		}

		catalogue.ID = row.ID
		catalogue.CreatedAt = row.CreatedAt

		for i := range catalogue.Items {
			item := &catalogue.Items[i]
			item.CatalogueID = row.ID
			snapshot := item.Snapshot
			var itemRow catalogueItemRow
			err := tx.Raw(`
				INSERT INTO catalogue_items (catalogue_id, candidate_id, full_name, city, province, contact_email, contact_phone, summary, experience, situational_answers, cv_url, video_url)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				RETURNING id
			`, row.ID, snapshot.CandidateID, snapshot.FullName, snapshot.City, snapshot.Province,
				snapshot.ContactEmail, snapshot.ContactPhone, snapshot.Summary, snapshot.Experience,
				snapshot.SituationalAnswers, snapshot.CVURL, snapshot.VideoURL).Scan(&itemRow).Error
			if err != nil {
				return err
			}
			item.ID = itemRow.ID
		}
		return nil
	})
}

func (r *CatalogueRepository) Get(ctx context.Context, id uuid.UUID) (*model.Catalogue, error) {
	var row catalogueRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, title, client_id, order_id, custom_message, inclusion_config, status, is_content_restricted, share_token, created_at
		FROM catalogues
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withItems(ctx, row)
}

func (r *CatalogueRepository) GetByShareToken(ctx context.Context, token string) (*model.Catalogue, error) {
	var row catalogueRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, title, client_id, order_id, custom_message, inclusion_config, status, is_content_restricted, share_token, created_at
		FROM catalogues
		WHERE share_token = ?
		LIMIT 1
	`, token).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withItems(ctx, row)
}

func (r *CatalogueRepository) withItems(ctx context.Context, row catalogueRow) (*model.Catalogue, error) {
	catalogue, err := row.toModel()
	if err != nil {
		return nil, err
	}

	var itemRows []catalogueItemRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, catalogue_id, candidate_id, full_name, city, province, contact_email, contact_phone, summary, experience, situational_answers, cv_url, video_url
		FROM catalogue_items
		WHERE catalogue_id = ?
		ORDER BY full_name ASC
	`, row.ID).Scan(&itemRows).Error; err != nil {
		return nil, err
	}
	for _, itemRow := range itemRows {
		catalogue.Items = append(catalogue.Items, itemRow.toModel())
	}
	return &catalogue, nil
}

// SetShareToken stores the token only if none exists yet; tokens are issued
// once and never rotated.
func (r *CatalogueRepository) SetShareToken(ctx context.Context, id uuid.UUID, token string) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE catalogues
		SET share_token = ?
		WHERE id = ? AND share_token IS NULL
	`, token, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatus commits the transition only if the row still holds the status
// the caller validated against; a concurrent writer leaves RowsAffected at 0.
func (r *CatalogueRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.CatalogueStatus) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE catalogues
		SET status = ?
		WHERE id = ? AND status = ?
	`, to, id, from)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}
