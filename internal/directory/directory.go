// Package directory is the in-database implementation of the candidate
// directory the marketplace consumes. The services depend only on the
// interfaces declared in internal/service; deployments backed by a remote
// directory swap this package out at wiring time.
package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
)

type Directory struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// CountEligible returns the supply for one key: active candidates in the city
// meeting the tier's eligibility. EVALUATED requires a completed evaluation,
// CV_ONLY only a stored CV. Archived and delivered candidates never count.
func (d *Directory) CountEligible(ctx context.Context, city, province string, tier model.Tier) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM candidates
		WHERE city = ? AND province = ? AND status = 'ACTIVE'
	`
	switch tier {
	case model.TierEvaluated:
		query += " AND has_evaluation = TRUE"
	case model.TierCVOnly:
		query += " AND cv_url IS NOT NULL AND cv_url <> ''"
	default:
		return 0, fmt.Errorf("unknown tier %q", tier)
	}

	var count int
	if err := d.db.WithContext(ctx).Raw(query, city, province).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type candidateRow struct {
	ID                 uuid.UUID
	FirstName          string
	LastName           string
	Email              *string
	Phone              *string
	City               string
	Province           string
	Summary            *string
	Experience         *string
	SituationalAnswers *string
	CVURL              *string
	VideoURL           *string
}

// ResolveSnapshot reads one candidate and builds the catalogue snapshot,
// keeping only the sections the inclusion config asks for.
func (d *Directory) ResolveSnapshot(ctx context.Context, id uuid.UUID, include model.InclusionConfig) (*model.CandidateSnapshot, error) {
	var row candidateRow
	if err := d.db.WithContext(ctx).Raw(`
		SELECT id, first_name, last_name, email, phone, city, province,
			summary, experience, situational_answers, cv_url, video_url
		FROM candidates
		WHERE id = ? AND status <> 'ARCHIVED'
		LIMIT 1
	`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	snapshot := &model.CandidateSnapshot{
		CandidateID: row.ID,
		FullName:    row.FirstName + " " + row.LastName,
		City:        row.City,
		Province:    row.Province,
	}
	if include.IncludeFullDetails {
		snapshot.ContactEmail = deref(row.Email)
		snapshot.ContactPhone = deref(row.Phone)
	}
	if include.IncludeSummary {
		snapshot.Summary = deref(row.Summary)
	}
	if include.IncludeExperience {
		snapshot.Experience = deref(row.Experience)
	}
	if include.IncludeSituationalAnswers {
		snapshot.SituationalAnswers = deref(row.SituationalAnswers)
	}
	if include.IncludeCV {
		snapshot.CVURL = deref(row.CVURL)
	}
	if include.IncludeVideo {
		snapshot.VideoURL = deref(row.VideoURL)
	}
	return snapshot, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
