package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
)

type PricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) Get(ctx context.Context, city, province string) (*model.PricingEntry, error) {
	var row struct {
		City           string
		Province       string
		EvaluatedPrice float64
		CVOnlyPrice    float64
		UpdatedAt      time.Time
	}
	if err := r.db.WithContext(ctx).Raw(`
		SELECT city, province, evaluated_price, cv_only_price, updated_at
		FROM pricing_entries
		WHERE city = ? AND province = ?
		LIMIT 1
	`, city, province).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.City == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.PricingEntry{
		City:     row.City,
		Province: row.Province,
		Tariff: model.Tariff{
			EvaluatedPrice: row.EvaluatedPrice,
			CVOnlyPrice:    row.CVOnlyPrice,
		},
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (r *PricingRepository) Upsert(ctx context.Context, entry model.PricingEntry) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO pricing_entries (city, province, evaluated_price, cv_only_price, updated_at)
		VALUES (?, ?, ?, ?, NOW())
		ON CONFLICT (city, province) DO UPDATE
		SET evaluated_price = EXCLUDED.evaluated_price,
			cv_only_price = EXCLUDED.cv_only_price,
			updated_at = NOW()
	`, entry.City, entry.Province, entry.Tariff.EvaluatedPrice, entry.Tariff.CVOnlyPrice).Error
}
