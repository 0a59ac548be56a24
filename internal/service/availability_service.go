package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nicksoucy/talentsecure-sub001/internal/config"
	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
)

// CandidateDirectory is the external candidate pool consumed by the
// marketplace. The default implementation lives in internal/directory.
type CandidateDirectory interface {
	CountEligible(ctx context.Context, city, province string, tier model.Tier) (int, error)
	ResolveSnapshot(ctx context.Context, id uuid.UUID, include model.InclusionConfig) (*model.CandidateSnapshot, error)
}

// ReservationLedger reads the live reservation count for a supply key. It is
// always computed from order state, never from a cached counter.
type ReservationLedger interface {
	Reserved(ctx context.Context, key model.SupplyKey) (int, error)
}

type PricingStore interface {
	Get(ctx context.Context, city, province string) (*model.PricingEntry, error)
	Upsert(ctx context.Context, entry model.PricingEntry) error
}

type AvailabilityService struct {
	directory CandidateDirectory
	ledger    ReservationLedger
}

func NewAvailabilityService(directory CandidateDirectory, ledger ReservationLedger) *AvailabilityService {
	return &AvailabilityService{directory: directory, ledger: ledger}
}

// Supply reads the eligible-candidate count for one key. A directory failure
// is surfaced as ErrUpstreamUnavailable, never as zero supply.
func (s *AvailabilityService) Supply(ctx context.Context, key model.SupplyKey) (int, error) {
	count, err := s.directory.CountEligible(ctx, key.City, key.Province, key.Tier)
	if err != nil {
		return 0, fmt.Errorf("%w: candidate directory: %v", ErrUpstreamUnavailable, err)
	}
	return count, nil
}

// Available computes supply minus reserved, floored at zero. The figure is
// advisory: it can change between a read and a later submission, which is why
// submission re-validates atomically.
func (s *AvailabilityService) Available(ctx context.Context, key model.SupplyKey) (int, error) {
	supply, err := s.Supply(ctx, key)
	if err != nil {
		return 0, err
	}
	reserved, err := s.ledger.Reserved(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%w: reservation ledger: %v", ErrUpstreamUnavailable, err)
	}
	available := supply - reserved
	if available < 0 {
		available = 0
	}
	return available, nil
}

// ForCity returns the live availability of both tiers for one city.
func (s *AvailabilityService) ForCity(ctx context.Context, city, province string) (*model.Availability, error) {
	if city == "" || province == "" {
		return nil, fmt.Errorf("%w: city and province are required", ErrValidation)
	}

	evaluated, err := s.Available(ctx, model.SupplyKey{City: city, Province: province, Tier: model.TierEvaluated})
	if err != nil {
		return nil, err
	}
	cvOnly, err := s.Available(ctx, model.SupplyKey{City: city, Province: province, Tier: model.TierCVOnly})
	if err != nil {
		return nil, err
	}
	return &model.Availability{
		City:      city,
		Province:  province,
		Evaluated: evaluated,
		CVOnly:    cvOnly,
	}, nil
}

type PricingService struct {
	store    PricingStore
	defaults model.Tariff
}

func NewPricingService(store PricingStore, cfg *config.Config) *PricingService {
	return &PricingService{
		store: store,
		defaults: model.Tariff{
			EvaluatedPrice: cfg.Pricing.DefaultEvaluatedPrice,
			CVOnlyPrice:    cfg.Pricing.DefaultCVOnlyPrice,
		},
	}
}

// Tariff resolves the per-unit prices for a city, falling back to the default
// tariff when no entry exists. Only a store failure is an error.
func (s *PricingService) Tariff(ctx context.Context, city, province string) (model.Tariff, error) {
	if city == "" || province == "" {
		return model.Tariff{}, fmt.Errorf("%w: city and province are required", ErrValidation)
	}

	entry, err := s.store.Get(ctx, city, province)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return s.defaults, nil
		}
		return model.Tariff{}, fmt.Errorf("%w: pricing store: %v", ErrUpstreamUnavailable, err)
	}
	return entry.Tariff, nil
}

// SetEntry upserts a city's pricing entry. Existing order lines keep the
// prices snapshotted when they were added.
func (s *PricingService) SetEntry(ctx context.Context, principal model.Principal, entry model.PricingEntry) error {
	if !principal.IsStaff() {
		return ErrPermissionDenied
	}
	if entry.City == "" || entry.Province == "" {
		return fmt.Errorf("%w: city and province are required", ErrValidation)
	}
	if entry.Tariff.EvaluatedPrice <= 0 || entry.Tariff.CVOnlyPrice <= 0 {
		return fmt.Errorf("%w: prices must be positive", ErrValidation)
	}
	if err := s.store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("%w: pricing store: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}
