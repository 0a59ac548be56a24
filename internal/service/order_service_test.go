package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nicksoucy/talentsecure-sub001/internal/config"
	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
	"github.com/Nicksoucy/talentsecure-sub001/internal/repository"
	"github.com/Nicksoucy/talentsecure-sub001/internal/service"
)

// ── fakes ──────────────────────────────────────────────────────────────────

// fakeOrderStore keeps orders in memory. Submit holds the store lock across
// the whole check-and-reserve sequence, mirroring the per-key serialization
// the SQL advisory locks provide.
type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*model.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[uuid.UUID]*model.Order)}
}

func copyOrder(o *model.Order) *model.Order {
	dup := *o
	dup.Lines = append([]model.OrderLine(nil), o.Lines...)
	return &dup
}

func (f *fakeOrderStore) Create(_ context.Context, order *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = uuid.New()
	f.orders[order.ID] = copyOrder(order)
	return nil
}

func (f *fakeOrderStore) Get(_ context.Context, id uuid.UUID) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return copyOrder(stored), nil
}

func (f *fakeOrderStore) List(_ context.Context, clientID *uuid.UUID, status *model.OrderStatus) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.Order
	for _, stored := range f.orders {
		if clientID != nil && stored.ClientID != *clientID {
			continue
		}
		if status != nil && stored.Status != *status {
			continue
		}
		result = append(result, *copyOrder(stored))
	}
	return result, nil
}

func (f *fakeOrderStore) SaveDraft(_ context.Context, order *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != order.Version || stored.Status != model.OrderStatusDraft {
		return repository.ErrVersionConflict
	}
	order.Version++
	f.orders[order.ID] = copyOrder(order)
	return nil
}

func (f *fakeOrderStore) Submit(ctx context.Context, order *model.Order, supply func(ctx context.Context, key model.SupplyKey) (int, error)) ([]model.Shortfall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.ID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	var shortfalls []model.Shortfall
	for key, requested := range order.RequestedByKey() {
		total, err := supply(ctx, key)
		if err != nil {
			return nil, err
		}
		available := total - f.reservedLocked(key)
		if available < 0 {
			available = 0
		}
		if requested > available {
			shortfalls = append(shortfalls, model.Shortfall{Key: key, Requested: requested, Available: available})
		}
	}
	if len(shortfalls) > 0 {
		return shortfalls, nil
	}

	if stored.Version != order.Version || stored.Status != model.OrderStatusDraft {
		return nil, repository.ErrVersionConflict
	}
	stored.Status = model.OrderStatusSubmitted
	stored.Version++
	order.Status = model.OrderStatusSubmitted
	order.Version++
	return nil, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, order *model.Order, target model.OrderStatus, adminNotes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != order.Version {
		return repository.ErrVersionConflict
	}
	stored.Status = target
	stored.AdminNotes = adminNotes
	stored.Version++
	order.Status = target
	order.AdminNotes = adminNotes
	order.Version++
	return nil
}

func (f *fakeOrderStore) Reserved(_ context.Context, key model.SupplyKey) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservedLocked(key), nil
}

func (f *fakeOrderStore) reservedLocked(key model.SupplyKey) int {
	reserved := 0
	for _, stored := range f.orders {
		if !stored.Status.IsReserving() {
			continue
		}
		for _, line := range stored.Lines {
			if line.Key() == key {
				reserved += line.Quantity
			}
		}
	}
	return reserved
}

type fakeDirectory struct {
	mu         sync.Mutex
	supply     map[model.SupplyKey]int
	candidates map[uuid.UUID]model.CandidateSnapshot
	err        error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		supply:     make(map[model.SupplyKey]int),
		candidates: make(map[uuid.UUID]model.CandidateSnapshot),
	}
}

func (f *fakeDirectory) CountEligible(_ context.Context, city, province string, tier model.Tier) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.supply[model.SupplyKey{City: city, Province: province, Tier: tier}], nil
}

func (f *fakeDirectory) ResolveSnapshot(_ context.Context, id uuid.UUID, include model.InclusionConfig) (*model.CandidateSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	full, ok := f.candidates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	snapshot := full
	if !include.IncludeFullDetails {
		snapshot.ContactEmail = ""
		snapshot.ContactPhone = ""
	}
	if !include.IncludeSummary {
		snapshot.Summary = ""
	}
	if !include.IncludeExperience {
		snapshot.Experience = ""
	}
	if !include.IncludeSituationalAnswers {
		snapshot.SituationalAnswers = ""
	}
	if !include.IncludeCV {
		snapshot.CVURL = ""
	}
	if !include.IncludeVideo {
		snapshot.VideoURL = ""
	}
	return &snapshot, nil
}

type fakePricingStore struct {
	mu      sync.Mutex
	entries map[string]model.PricingEntry
	err     error
}

func newFakePricingStore() *fakePricingStore {
	return &fakePricingStore{entries: make(map[string]model.PricingEntry)}
}

func (f *fakePricingStore) Get(_ context.Context, city, province string) (*model.PricingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	entry, ok := f.entries[city+"|"+province]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &entry, nil
}

func (f *fakePricingStore) Upsert(_ context.Context, entry model.PricingEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries[entry.City+"|"+entry.Province] = entry
	return nil
}

type fakeExporter struct{}

func (fakeExporter) Generate(orders []model.Order) ([]byte, error) {
	return []byte("xlsx"), nil
}

// ── helpers ────────────────────────────────────────────────────────────────

var (
	lavalEvaluated = model.SupplyKey{City: "Laval", Province: "QC", Tier: model.TierEvaluated}

	clientA = model.Principal{UserID: uuid.New(), ClientID: uuid.New(), Role: model.RoleClient}
	clientB = model.Principal{UserID: uuid.New(), ClientID: uuid.New(), Role: model.RoleClient}
	staff   = model.Principal{UserID: uuid.New(), Role: model.RoleStaff}
)

func testConfig() *config.Config {
	return &config.Config{
		Pricing: config.PricingConfig{
			DefaultEvaluatedPrice: 1200,
			DefaultCVOnlyPrice:    400,
		},
	}
}

type testEnv struct {
	store        *fakeOrderStore
	directory    *fakeDirectory
	pricingStore *fakePricingStore
	pricing      *service.PricingService
	availability *service.AvailabilityService
	orders       *service.OrderService
}

func newTestEnv() *testEnv {
	store := newFakeOrderStore()
	dir := newFakeDirectory()
	pricingStore := newFakePricingStore()
	pricing := service.NewPricingService(pricingStore, testConfig())
	availability := service.NewAvailabilityService(dir, store)
	orders := service.NewOrderService(store, pricing, availability, fakeExporter{})
	return &testEnv{
		store:        store,
		directory:    dir,
		pricingStore: pricingStore,
		pricing:      pricing,
		availability: availability,
		orders:       orders,
	}
}

func draftWithLine(t *testing.T, env *testEnv, principal model.Principal, key model.SupplyKey, quantity int) *model.Order {
	t.Helper()
	order, err := env.orders.Create(context.Background(), principal)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	result, err := env.orders.AddItem(context.Background(), principal, order.ID, service.AddItemInput{
		City:     key.City,
		Province: key.Province,
		Tier:     key.Tier,
		Quantity: quantity,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	return result.Order
}

// ── the Laval scenario ─────────────────────────────────────────────────────

func TestSubmit_OversellScenario(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 3
	ctx := context.Background()

	orderA := draftWithLine(t, env, clientA, lavalEvaluated, 2)
	orderB := draftWithLine(t, env, clientB, lavalEvaluated, 2)

	// A submits first and reserves 2 of 3.
	if _, err := env.orders.Submit(ctx, clientA, orderA.ID); err != nil {
		t.Fatalf("A's submit should succeed: %v", err)
	}
	available, err := env.availability.Available(ctx, lavalEvaluated)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if available != 1 {
		t.Fatalf("available after A = %d, want 1", available)
	}

	// B's 2 units no longer fit.
	_, err = env.orders.Submit(ctx, clientB, orderB.ID)
	var availabilityErr *service.AvailabilityError
	if !errors.As(err, &availabilityErr) {
		t.Fatalf("B's submit should fail with AvailabilityError, got %v", err)
	}
	if !errors.Is(err, service.ErrInsufficientAvailability) {
		t.Error("AvailabilityError should unwrap to ErrInsufficientAvailability")
	}
	if len(availabilityErr.Shortfalls) != 1 {
		t.Fatalf("expected 1 shortfall, got %d", len(availabilityErr.Shortfalls))
	}
	shortfall := availabilityErr.Shortfalls[0]
	if shortfall.Key != lavalEvaluated || shortfall.Requested != 2 || shortfall.Available != 1 {
		t.Errorf("shortfall = %+v, want key %s requested 2 available 1", shortfall, lavalEvaluated)
	}
	if shortfall.Missing() != 1 {
		t.Errorf("shortfall.Missing() = %d, want 1", shortfall.Missing())
	}

	// B stays DRAFT, nothing reserved.
	orderB, err = env.orders.Get(ctx, clientB, orderB.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if orderB.Status != model.OrderStatusDraft {
		t.Fatalf("B's order should remain DRAFT, got %s", orderB.Status)
	}

	// B reduces to 1 and resubmits.
	quantity := 1
	orderB, err = env.orders.UpdateItem(ctx, clientB, orderB.ID, orderB.Lines[0].ID, service.UpdateItemInput{Quantity: &quantity})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if _, err := env.orders.Submit(ctx, clientB, orderB.ID); err != nil {
		t.Fatalf("B's resubmit should succeed: %v", err)
	}

	available, err = env.availability.Available(ctx, lavalEvaluated)
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if available != 0 {
		t.Errorf("available after both submits = %d, want 0", available)
	}
	reserved, _ := env.store.Reserved(ctx, lavalEvaluated)
	if reserved != 3 {
		t.Errorf("reserved = %d, want 3", reserved)
	}
}

// ── oversell property under concurrency ────────────────────────────────────

func TestSubmit_ConcurrentNeverOversells(t *testing.T) {
	env := newTestEnv()
	const supply = 5
	const submitters = 12
	env.directory.supply[lavalEvaluated] = supply
	ctx := context.Background()

	type submission struct {
		principal model.Principal
		orderID   uuid.UUID
	}
	submissions := make([]submission, 0, submitters)
	for i := 0; i < submitters; i++ {
		principal := model.Principal{UserID: uuid.New(), ClientID: uuid.New(), Role: model.RoleClient}
		order := draftWithLine(t, env, principal, lavalEvaluated, 1)
		submissions = append(submissions, submission{principal: principal, orderID: order.ID})
	}

	var wg sync.WaitGroup
	results := make([]error, submitters)
	for i, sub := range submissions {
		wg.Add(1)
		go func(i int, sub submission) {
			defer wg.Done()
			_, err := env.orders.Submit(ctx, sub.principal, sub.orderID)
			results[i] = err
		}(i, sub)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, service.ErrInsufficientAvailability):
		default:
			t.Fatalf("unexpected submit error: %v", err)
		}
	}
	if succeeded != supply {
		t.Errorf("%d submissions succeeded, want exactly %d", succeeded, supply)
	}

	reserved, _ := env.store.Reserved(ctx, lavalEvaluated)
	if reserved != supply {
		t.Errorf("reserved = %d, want %d", reserved, supply)
	}
}

// ── cancellation ───────────────────────────────────────────────────────────

func TestCancel_ReleasesReservationImmediately(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 3
	ctx := context.Background()

	orderA := draftWithLine(t, env, clientA, lavalEvaluated, 2)
	orderB := draftWithLine(t, env, clientB, lavalEvaluated, 1)
	if _, err := env.orders.Submit(ctx, clientA, orderA.ID); err != nil {
		t.Fatalf("Submit A: %v", err)
	}
	if _, err := env.orders.Submit(ctx, clientB, orderB.ID); err != nil {
		t.Fatalf("Submit B: %v", err)
	}

	before, _ := env.availability.Available(ctx, lavalEvaluated)
	if before != 0 {
		t.Fatalf("available before cancel = %d, want 0", before)
	}

	if _, err := env.orders.Cancel(ctx, clientA, orderA.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	after, _ := env.availability.Available(ctx, lavalEvaluated)
	if after != 2 {
		t.Errorf("available after cancel = %d, want 2 (released exactly A's quantity)", after)
	}

	// B's order is untouched.
	orderB, err := env.orders.Get(ctx, clientB, orderB.ID)
	if err != nil {
		t.Fatalf("Get B: %v", err)
	}
	if orderB.Status != model.OrderStatusSubmitted {
		t.Errorf("B's status = %s, want SUBMITTED", orderB.Status)
	}
}

// ── price snapshots and totals ─────────────────────────────────────────────

func TestAddItem_PriceSnapshotSurvivesTariffChange(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 10
	ctx := context.Background()

	if err := env.pricing.SetEntry(ctx, staff, model.PricingEntry{
		City: "Laval", Province: "QC",
		Tariff: model.Tariff{EvaluatedPrice: 1000, CVOnlyPrice: 300},
	}); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}

	order := draftWithLine(t, env, clientA, lavalEvaluated, 2)
	if order.Lines[0].UnitPrice != 1000 {
		t.Fatalf("unit price = %v, want 1000", order.Lines[0].UnitPrice)
	}

	// Tariff changes after the line was added.
	if err := env.pricing.SetEntry(ctx, staff, model.PricingEntry{
		City: "Laval", Province: "QC",
		Tariff: model.Tariff{EvaluatedPrice: 1500, CVOnlyPrice: 300},
	}); err != nil {
		t.Fatalf("SetEntry: %v", err)
	}

	// Existing line keeps its snapshot, even across a quantity update.
	quantity := 3
	order, err := env.orders.UpdateItem(ctx, clientA, order.ID, order.Lines[0].ID, service.UpdateItemInput{Quantity: &quantity})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if order.Lines[0].UnitPrice != 1000 {
		t.Errorf("unit price after tariff change = %v, want 1000", order.Lines[0].UnitPrice)
	}
	if order.Lines[0].TotalPrice != 3000 {
		t.Errorf("line total = %v, want 3000", order.Lines[0].TotalPrice)
	}

	// A new line sees the new tariff.
	result, err := env.orders.AddItem(ctx, clientA, order.ID, service.AddItemInput{
		City: "Laval", Province: "QC", Tier: model.TierEvaluated, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	order = result.Order
	if order.Lines[1].UnitPrice != 1500 {
		t.Errorf("new line unit price = %v, want 1500", order.Lines[1].UnitPrice)
	}
	if order.TotalAmount != 4500 {
		t.Errorf("order total = %v, want 4500", order.TotalAmount)
	}
}

func TestPricing_DefaultTariffOnMiss(t *testing.T) {
	env := newTestEnv()
	tariff, err := env.pricing.Tariff(context.Background(), "Rimouski", "QC")
	if err != nil {
		t.Fatalf("Tariff: %v", err)
	}
	if tariff.EvaluatedPrice != 1200 || tariff.CVOnlyPrice != 400 {
		t.Errorf("default tariff = %+v, want 1200/400", tariff)
	}
}

func TestOrderTotal_TracksEveryMutation(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 10
	ctx := context.Background()

	order := draftWithLine(t, env, clientA, lavalEvaluated, 2)
	checkTotal := func(o *model.Order) {
		t.Helper()
		sum := 0.0
		for _, line := range o.Lines {
			sum += line.TotalPrice
		}
		if o.TotalAmount != sum {
			t.Errorf("totalAmount = %v, want sum of line totals %v", o.TotalAmount, sum)
		}
	}
	checkTotal(order)

	result, err := env.orders.AddItem(ctx, clientA, order.ID, service.AddItemInput{
		City: "Laval", Province: "QC", Tier: model.TierCVOnly, Quantity: 5,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	checkTotal(result.Order)

	quantity := 1
	order, err = env.orders.UpdateItem(ctx, clientA, result.Order.ID, result.Order.Lines[0].ID, service.UpdateItemInput{Quantity: &quantity})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	checkTotal(order)

	order, err = env.orders.RemoveItem(ctx, clientA, order.ID, order.Lines[0].ID)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	checkTotal(order)
}

// ── validation and permissions ─────────────────────────────────────────────

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order, err := env.orders.Create(ctx, clientA)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, quantity := range []int{0, -3} {
		_, err := env.orders.AddItem(ctx, clientA, order.ID, service.AddItemInput{
			City: "Laval", Province: "QC", Tier: model.TierEvaluated, Quantity: quantity,
		})
		if !errors.Is(err, service.ErrValidation) {
			t.Errorf("AddItem(quantity=%d) error = %v, want ErrValidation", quantity, err)
		}
	}
}

func TestAddItem_AdvisoryWarningDoesNotBlock(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 1
	ctx := context.Background()

	order, err := env.orders.Create(ctx, clientA)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	result, err := env.orders.AddItem(ctx, clientA, order.ID, service.AddItemInput{
		City: "Laval", Province: "QC", Tier: model.TierEvaluated, Quantity: 4,
	})
	if err != nil {
		t.Fatalf("AddItem should not block on availability: %v", err)
	}
	if result.Advisory == nil {
		t.Fatal("expected an advisory shortfall")
	}
	if result.Advisory.Requested != 4 || result.Advisory.Available != 1 {
		t.Errorf("advisory = %+v, want requested 4 available 1", result.Advisory)
	}
}

func TestSubmit_RejectsEmptyOrder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	order, err := env.orders.Create(ctx, clientA)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.orders.Submit(ctx, clientA, order.ID); !errors.Is(err, service.ErrValidation) {
		t.Errorf("Submit(empty) error = %v, want ErrValidation", err)
	}
}

func TestSubmit_OnlyOwnerMaySubmit(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 5
	ctx := context.Background()

	order := draftWithLine(t, env, clientA, lavalEvaluated, 1)
	if _, err := env.orders.Submit(ctx, clientB, order.ID); !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("Submit by another client error = %v, want ErrPermissionDenied", err)
	}
	if _, err := env.orders.Submit(ctx, staff, order.ID); !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("Submit by staff error = %v, want ErrPermissionDenied", err)
	}
}

func TestAdvanceStatus_StaffOnlyAndTableDriven(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 5
	ctx := context.Background()

	order := draftWithLine(t, env, clientA, lavalEvaluated, 1)
	if _, err := env.orders.Submit(ctx, clientA, order.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := env.orders.AdvanceStatus(ctx, clientA, order.ID, model.OrderStatusApproved, ""); !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("client AdvanceStatus error = %v, want ErrPermissionDenied", err)
	}

	// Illegal jump straight to DELIVERED.
	if _, err := env.orders.AdvanceStatus(ctx, staff, order.ID, model.OrderStatusDelivered, ""); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("SUBMITTED → DELIVERED error = %v, want ErrInvalidTransition", err)
	}
	got, err := env.orders.Get(ctx, staff, order.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.OrderStatusSubmitted {
		t.Errorf("status after rejected transition = %s, want SUBMITTED", got.Status)
	}

	// The legal path runs through.
	for _, target := range []model.OrderStatus{model.OrderStatusApproved, model.OrderStatusPaid, model.OrderStatusDelivered} {
		if _, err := env.orders.AdvanceStatus(ctx, staff, order.ID, target, "ok"); err != nil {
			t.Fatalf("AdvanceStatus(%s): %v", target, err)
		}
	}

	// Terminal: nothing leaves DELIVERED.
	if _, err := env.orders.AdvanceStatus(ctx, staff, order.ID, model.OrderStatusApproved, ""); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("DELIVERED → APPROVED error = %v, want ErrInvalidTransition", err)
	}
	if _, err := env.orders.Cancel(ctx, staff, order.ID); !errors.Is(err, service.ErrInvalidTransition) {
		t.Errorf("Cancel(DELIVERED) error = %v, want ErrInvalidTransition", err)
	}
}

func TestAdvanceStatus_CannotSubmitWithoutReservationCheck(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 1
	ctx := context.Background()

	// Quantity far above supply: only the check-and-reserve path may decide.
	order := draftWithLine(t, env, clientA, lavalEvaluated, 10)

	_, err := env.orders.AdvanceStatus(ctx, staff, order.ID, model.OrderStatusSubmitted, "")
	if !errors.Is(err, service.ErrInvalidTransition) {
		t.Fatalf("staff AdvanceStatus(DRAFT → SUBMITTED) error = %v, want ErrInvalidTransition", err)
	}

	got, err := env.orders.Get(ctx, staff, order.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.OrderStatusDraft {
		t.Errorf("status = %s, want DRAFT", got.Status)
	}
	reserved, _ := env.store.Reserved(ctx, lavalEvaluated)
	if reserved != 0 {
		t.Errorf("reserved = %d, want 0: nothing may be reserved outside the submit path", reserved)
	}
}

// staleGetStore simulates a lost update: every read hands back a version one
// behind what the store actually holds.
type staleGetStore struct {
	*fakeOrderStore
}

func (s staleGetStore) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.fakeOrderStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Version--
	return order, nil
}

func TestUpdateItem_StaleVersionIsConcurrentModification(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 5
	ctx := context.Background()

	order := draftWithLine(t, env, clientA, lavalEvaluated, 1)

	staleOrders := service.NewOrderService(staleGetStore{env.store}, env.pricing, env.availability, fakeExporter{})
	quantity := 2
	_, err := staleOrders.UpdateItem(ctx, clientA, order.ID, order.Lines[0].ID, service.UpdateItemInput{Quantity: &quantity})
	if !errors.Is(err, service.ErrConcurrentModification) {
		t.Errorf("UpdateItem with stale version error = %v, want ErrConcurrentModification", err)
	}
}

func TestSubmit_UpstreamFailureIsNotZeroSupply(t *testing.T) {
	env := newTestEnv()
	env.directory.supply[lavalEvaluated] = 5
	ctx := context.Background()

	order := draftWithLine(t, env, clientA, lavalEvaluated, 1)
	env.directory.mu.Lock()
	env.directory.err = errors.New("directory down")
	env.directory.mu.Unlock()

	_, err := env.orders.Submit(ctx, clientA, order.ID)
	if !errors.Is(err, service.ErrUpstreamUnavailable) {
		t.Errorf("Submit with directory down error = %v, want ErrUpstreamUnavailable", err)
	}
	if errors.Is(err, service.ErrInsufficientAvailability) {
		t.Error("a directory failure must not be reported as an availability shortfall")
	}
}

func TestExport_StaffOnly(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.orders.Export(ctx, clientA, nil); !errors.Is(err, service.ErrPermissionDenied) {
		t.Errorf("client Export error = %v, want ErrPermissionDenied", err)
	}
	result, err := env.orders.Export(ctx, staff, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(result.Content) == 0 || result.FileName == "" {
		t.Error("export should produce a named file with content")
	}
}
