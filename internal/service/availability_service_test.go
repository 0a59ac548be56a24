package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
	"github.com/Nicksoucy/talentsecure-sub001/internal/service"
)

func TestAvailable_FloorsAtZero(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 2
	ctx := context.Background()

	// Reserve 2, then shrink the pool: a candidate left the platform.
	order := draftWithLine(t, env, clientA, lavalEvaluated, 2)
	if _, err := env.orders.Submit(ctx, clientA, order.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	env.directory.mu.Lock()
	env.directory.supply[lavalEvaluated] = 1
	env.directory.mu.Unlock()

	available, err := env.availability.Available(ctx, lavalEvaluated)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if available != 0 {
		t.Errorf("available = %d, want 0 (never negative)", available)
	}
}

func TestAvailable_UnknownKeyIsZeroNotError(t *testing.T) {
	env := newTestEnv()
	key := model.SupplyKey{City: "Sept-Iles", Province: "QC", Tier: model.TierEvaluated}
	available, err := env.availability.Available(context.Background(), key)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if available != 0 {
		t.Errorf("available = %d, want 0", available)
	}
}

func TestAvailable_DirectoryFailureIsUpstreamUnavailable(t *testing.T) {
	env := newTestEnv()
	env.directory.err = errors.New("connection refused")

	_, err := env.availability.Available(context.Background(), lavalEvaluated)
	if !errors.Is(err, service.ErrUpstreamUnavailable) {
		t.Errorf("Available with directory down error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestForCity_ReportsBothTiers(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 4
	env.directory.supply[model.SupplyKey{City: "Laval", Province: "QC", Tier: model.TierCVOnly}] = 7

	availability, err := env.availability.ForCity(context.Background(), "Laval", "QC")
	if err != nil {
		t.Fatalf("ForCity: %v", err)
	}
	if availability.Evaluated != 4 || availability.CVOnly != 7 {
		t.Errorf("availability = %+v, want evaluated 4 cvOnly 7", availability)
	}
}

func TestForCity_RequiresCityAndProvince(t *testing.T) {
	env := newTestEnv()
	if _, err := env.availability.ForCity(context.Background(), "", "QC"); !errors.Is(err, service.ErrValidation) {
		t.Errorf("ForCity without city error = %v, want ErrValidation", err)
	}
	if _, err := env.availability.ForCity(context.Background(), "Laval", ""); !errors.Is(err, service.ErrValidation) {
		t.Errorf("ForCity without province error = %v, want ErrValidation", err)
	}
}

func TestSetEntry_ValidationAndPermission(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	valid := model.PricingEntry{
		City: "Laval", Province: "QC",
		Tariff: model.Tariff{EvaluatedPrice: 900, CVOnlyPrice: 250},
	}
	if err := env.pricing.SetEntry(ctx, clientA, valid); !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("client SetEntry error = %v, want ErrPermissionDenied", err)
	}

	broken := valid
	broken.Tariff.CVOnlyPrice = 0
	if err := env.pricing.SetEntry(ctx, staff, broken); !errors.Is(err, service.ErrValidation) {
		t.Errorf("SetEntry with zero price error = %v, want ErrValidation", err)
	}
	missing := valid
	missing.City = ""
	if err := env.pricing.SetEntry(ctx, staff, missing); !errors.Is(err, service.ErrValidation) {
		t.Errorf("SetEntry without city error = %v, want ErrValidation", err)
	}

	if err := env.pricing.SetEntry(ctx, staff, valid); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}
	tariff, err := env.pricing.Tariff(ctx, "Laval", "QC")
	if err != nil {
		t.Fatalf("Tariff: %v", err)
	}
	if tariff.EvaluatedPrice != 900 || tariff.CVOnlyPrice != 250 {
		t.Errorf("tariff = %+v, want 900/250", tariff)
	}
}

func TestTariff_ForTier(t *testing.T) {
	tariff := model.Tariff{EvaluatedPrice: 1100, CVOnlyPrice: 350}
	if got := tariff.For(model.TierEvaluated); got != 1100 {
		t.Errorf("For(EVALUATED) = %v, want 1100", got)
	}
	if got := tariff.For(model.TierCVOnly); got != 350 {
		t.Errorf("For(CV_ONLY) = %v, want 350", got)
	}
}
