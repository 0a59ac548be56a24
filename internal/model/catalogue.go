package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Catalogue statuses keep the French labels used across the back office.
type CatalogueStatus string

const (
	CatalogueStatusBrouillon CatalogueStatus = "BROUILLON"
	CatalogueStatusGenere    CatalogueStatus = "GENERE"
	CatalogueStatusEnvoye    CatalogueStatus = "ENVOYE"
	CatalogueStatusAccepte   CatalogueStatus = "ACCEPTE"
	CatalogueStatusRefuse    CatalogueStatus = "REFUSE"
)

var catalogueTransitions = map[CatalogueStatus][]CatalogueStatus{
	CatalogueStatusBrouillon: {CatalogueStatusGenere},
	CatalogueStatusGenere:    {CatalogueStatusEnvoye},
	CatalogueStatusEnvoye:    {CatalogueStatusAccepte, CatalogueStatusRefuse},
	// ACCEPTE and REFUSE are terminal
}

func ParseCatalogueStatus(raw string) (CatalogueStatus, error) {
	s := CatalogueStatus(raw)
	switch s {
	case CatalogueStatusBrouillon, CatalogueStatusGenere, CatalogueStatusEnvoye,
		CatalogueStatusAccepte, CatalogueStatusRefuse:
		return s, nil
	}
	return "", fmt.Errorf("unknown catalogue status %q", raw)
}

func CatalogueCanTransition(from, to CatalogueStatus) bool {
	allowed, ok := catalogueTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// InclusionConfig selects which optional sections are resolved into the
// catalogue snapshot at generation time. A section left out here is never
// stored, so no later rendering path can recover it.
type InclusionConfig struct {
	IncludeSummary            bool `json:"includeSummary"`
	IncludeFullDetails        bool `json:"includeFullDetails"`
	IncludeVideo              bool `json:"includeVideo"`
	IncludeExperience         bool `json:"includeExperience"`
	IncludeSituationalAnswers bool `json:"includeSituationalAnswers"`
	IncludeCV                 bool `json:"includeCV"`
}

// Catalogue is an immutable deliverable: a titled list of candidate snapshots
// for one client, optionally shareable outside the organization through an
// opaque token.
type Catalogue struct {
	ID            uuid.UUID
	Title         string
	ClientID      uuid.UUID
	OrderID       *uuid.UUID // originating order, when fulfilling one
	Items         []CatalogueItem
	CustomMessage string
	Inclusion     InclusionConfig
	Status        CatalogueStatus
	// IsContentRestricted is decided once at generation time and never
	// changes for the life of the share token.
	IsContentRestricted bool
	ShareToken          *string
	CreatedAt           time.Time
}

// CandidateSnapshot is the view of a candidate resolved at generation time,
// already filtered by the inclusion config. Excluded sections are empty.
type CandidateSnapshot struct {
	CandidateID        uuid.UUID `json:"candidateId"`
	FullName           string    `json:"fullName"`
	City               string    `json:"city"`
	Province           string    `json:"province"`
	ContactEmail       string    `json:"contactEmail,omitempty"`
	ContactPhone       string    `json:"contactPhone,omitempty"`
	Summary            string    `json:"summary,omitempty"`
	Experience         string    `json:"experience,omitempty"`
	SituationalAnswers string    `json:"situationalAnswers,omitempty"`
	CVURL              string    `json:"cvUrl,omitempty"`
	VideoURL           string    `json:"videoUrl,omitempty"`
}

type CatalogueItem struct {
	ID          uuid.UUID
	CatalogueID uuid.UUID
	Snapshot    CandidateSnapshot
}

// View returns the snapshot as exposed to a reader. This is the single gate
// for content restriction: when restricted, contact details, video, CV and
// experience detail are suppressed here and nowhere else.
func (i CatalogueItem) View(restricted bool) CandidateSnapshot {
	s := i.Snapshot
	if restricted {
		s.ContactEmail = ""
		s.ContactPhone = ""
		s.VideoURL = ""
		s.CVURL = ""
		s.Experience = ""
	}
	return s
}
