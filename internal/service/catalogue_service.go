package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
	"github.com/Nicksoucy/talentsecure-sub001/internal/repository"
)

type CatalogueStore interface {
	Create(ctx context.Context, catalogue *model.Catalogue) error
	Get(ctx context.Context, id uuid.UUID) (*model.Catalogue, error)
	GetByShareToken(ctx context.Context, token string) (*model.Catalogue, error)
	SetShareToken(ctx context.Context, id uuid.UUID, token string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.CatalogueStatus) error
}

// CataloguePDF renders a catalogue as a PDF document.
type CataloguePDF interface {
	Generate(catalogue model.Catalogue) ([]byte, error)
}

type CatalogueService struct {
	store        CatalogueStore
	directory    CandidateDirectory
	pdf          CataloguePDF
	shareBaseURL string
}

func NewCatalogueService(store CatalogueStore, directory CandidateDirectory, pdf CataloguePDF, shareBaseURL string) *CatalogueService {
	return &CatalogueService{
		store:        store,
		directory:    directory,
		pdf:          pdf,
		shareBaseURL: strings.TrimRight(shareBaseURL, "/"),
	}
}

type GenerateCatalogueInput struct {
	Title         string
	ClientID      uuid.UUID
	OrderID       *uuid.UUID
	CandidateIDs  []uuid.UUID
	Inclusion     model.InclusionConfig
	CustomMessage string
	// Restricted is decided by the business rule in force at generation
	// time (e.g. trial access) and is immutable afterwards.
	Restricted bool
}

// Generate resolves a snapshot for every candidate and produces an immutable
// catalogue in status GENERE. Any unresolvable candidate fails the whole
// generation; partial catalogues are never produced.
func (s *CatalogueService) Generate(ctx context.Context, principal model.Principal, input GenerateCatalogueInput) (*model.Catalogue, error) {
	if !principal.IsStaff() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.ClientID == uuid.Nil {
		return nil, fmt.Errorf("%w: client id is required", ErrValidation)
	}
	if len(input.CandidateIDs) == 0 {
		return nil, ErrEmptySelection
	}

	items := make([]model.CatalogueItem, 0, len(input.CandidateIDs))
	for _, candidateID := range input.CandidateIDs {
		snapshot, err := s.directory.ResolveSnapshot(ctx, candidateID, input.Inclusion)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, candidateID)
			}
			return nil, fmt.Errorf("%w: candidate directory: %v", ErrUpstreamUnavailable, err)
		}
		items = append(items, model.CatalogueItem{Snapshot: *snapshot})
	}

	catalogue := &model.Catalogue{
		Title:               strings.TrimSpace(input.Title),
		ClientID:            input.ClientID,
		OrderID:             input.OrderID,
		Items:               items,
		CustomMessage:       input.CustomMessage,
		Inclusion:           input.Inclusion,
		Status:              model.CatalogueStatusGenere,
		IsContentRestricted: input.Restricted,
	}
	if err := s.store.Create(ctx, catalogue); err != nil {
		return nil, err
	}
	return catalogue, nil
}

func (s *CatalogueService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Catalogue, error) {
	if !principal.IsStaff() {
		return nil, ErrPermissionDenied
	}
	catalogue, err := s.store.Get(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return catalogue, nil
}

// ShareResult carries the opaque token plus the public link composed from the
// configured share base URL.
type ShareResult struct {
	Token string
	URL   string
}

// Share issues the catalogue's opaque token, generating it on first call and
// returning the same token afterwards. Tokens are never reused or rotated.
func (s *CatalogueService) Share(ctx context.Context, principal model.Principal, id uuid.UUID) (*ShareResult, error) {
	catalogue, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if catalogue.ShareToken != nil {
		return s.shareResult(*catalogue.ShareToken), nil
	}

	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	if err := s.store.SetShareToken(ctx, id, token); err != nil {
		if err == gorm.ErrRecordNotFound {
			// Raced with another share call; re-read the stored token.
			stored, getErr := s.store.Get(ctx, id)
			if getErr == nil && stored.ShareToken != nil {
				return s.shareResult(*stored.ShareToken), nil
			}
		}
		return nil, err
	}
	return s.shareResult(token), nil
}

func (s *CatalogueService) shareResult(token string) *ShareResult {
	return &ShareResult{
		Token: token,
		URL:   fmt.Sprintf("%s/catalogues/share/%s", s.shareBaseURL, token),
	}
}

// SharedCatalogue is the external view served through a share token. Item
// snapshots pass through the restriction gate exactly once, here.
type SharedCatalogue struct {
	Title               string                    `json:"title"`
	CustomMessage       string                    `json:"customMessage,omitempty"`
	IsContentRestricted bool                      `json:"isContentRestricted"`
	Items               []model.CandidateSnapshot `json:"items"`
	CreatedAt           time.Time                 `json:"createdAt"`
}

// Resolve maps a share token to its catalogue. Unknown tokens are a plain
// NOT_FOUND; no detail leaks about whether the catalogue exists.
func (s *CatalogueService) Resolve(ctx context.Context, token string) (*SharedCatalogue, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	catalogue, err := s.store.GetByShareToken(ctx, token)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	shared := &SharedCatalogue{
		Title:               catalogue.Title,
		CustomMessage:       catalogue.CustomMessage,
		IsContentRestricted: catalogue.IsContentRestricted,
		Items:               make([]model.CandidateSnapshot, 0, len(catalogue.Items)),
		CreatedAt:           catalogue.CreatedAt,
	}
	for _, item := range catalogue.Items {
		shared.Items = append(shared.Items, item.View(catalogue.IsContentRestricted))
	}
	return shared, nil
}

// UpdateStatus advances the catalogue lifecycle (sent, accepted, refused).
func (s *CatalogueService) UpdateStatus(ctx context.Context, principal model.Principal, id uuid.UUID, target model.CatalogueStatus) (*model.Catalogue, error) {
	catalogue, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if !model.CatalogueCanTransition(catalogue.Status, target) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, catalogue.Status, target)
	}
	if err := s.store.UpdateStatus(ctx, id, catalogue.Status, target); err != nil {
		if err == repository.ErrVersionConflict {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}
	catalogue.Status = target
	return catalogue, nil
}

type RenderResult struct {
	FileName string
	Content  []byte
}

// RenderPDF produces the deliverable document from the stored snapshot. The
// inclusion config was applied at generation time, so excluded sections can
// never surface here.
func (s *CatalogueService) RenderPDF(ctx context.Context, principal model.Principal, id uuid.UUID) (*RenderResult, error) {
	catalogue, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Generate(*catalogue)
	if err != nil {
		return nil, err
	}
	return &RenderResult{
		FileName: fmt.Sprintf("catalogue-%s.pdf", sanitizeFileName(catalogue.Title)),
		Content:  content,
	}, nil
}

func newShareToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
