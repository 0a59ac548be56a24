package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
	"github.com/Nicksoucy/talentsecure-sub001/internal/repository"
)

// OrderStore persists the order aggregate. Submit must execute its
// availability check and the DRAFT→SUBMITTED transition atomically,
// serialized per supply key against concurrent submissions.
type OrderStore interface {
	Create(ctx context.Context, order *model.Order) error
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, clientID *uuid.UUID, status *model.OrderStatus) ([]model.Order, error)
	SaveDraft(ctx context.Context, order *model.Order) error
	Submit(ctx context.Context, order *model.Order, supply func(ctx context.Context, key model.SupplyKey) (int, error)) ([]model.Shortfall, error)
	UpdateStatus(ctx context.Context, order *model.Order, target model.OrderStatus, adminNotes string) error
}

// OrderBookExporter renders the staff order-book export.
type OrderBookExporter interface {
	Generate(orders []model.Order) ([]byte, error)
}

type OrderService struct {
	store        OrderStore
	pricing      *PricingService
	availability *AvailabilityService
	exporter     OrderBookExporter
}

func NewOrderService(store OrderStore, pricing *PricingService, availability *AvailabilityService, exporter OrderBookExporter) *OrderService {
	return &OrderService{
		store:        store,
		pricing:      pricing,
		availability: availability,
		exporter:     exporter,
	}
}

func (s *OrderService) Create(ctx context.Context, principal model.Principal) (*model.Order, error) {
	if !principal.IsClient() {
		return nil, ErrPermissionDenied
	}
	if principal.ClientID == uuid.Nil {
		return nil, fmt.Errorf("%w: client id is required", ErrValidation)
	}

	order := &model.Order{
		ClientID: principal.ClientID,
		Status:   model.OrderStatusDraft,
	}
	if err := s.store.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Order, error) {
	order, err := s.store.Get(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.IsStaff() && !principal.Owns(order) {
		return nil, ErrPermissionDenied
	}
	return order, nil
}

// List returns the caller's orders; staff see every client's, optionally
// filtered by status.
func (s *OrderService) List(ctx context.Context, principal model.Principal, status *model.OrderStatus) ([]model.Order, error) {
	if principal.IsStaff() {
		return s.store.List(ctx, nil, status)
	}
	clientID := principal.ClientID
	return s.store.List(ctx, &clientID, status)
}

type AddItemInput struct {
	City     string
	Province string
	Tier     model.Tier
	Quantity int
	Notes    string
}

// AddItemResult reports the updated order plus an advisory shortfall when the
// requested quantity already exceeds live availability. The warning never
// blocks: only submission checks availability authoritatively.
type AddItemResult struct {
	Order    *model.Order
	Advisory *model.Shortfall
}

func (s *OrderService) AddItem(ctx context.Context, principal model.Principal, orderID uuid.UUID, input AddItemInput) (*AddItemResult, error) {
	order, err := s.Get(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusDraft {
		return nil, fmt.Errorf("%w: items can only be added in DRAFT", ErrValidation)
	}
	if input.City == "" || input.Province == "" {
		return nil, fmt.Errorf("%w: city and province are required", ErrValidation)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	tariff, err := s.pricing.Tariff(ctx, input.City, input.Province)
	if err != nil {
		return nil, err
	}

	line := model.OrderLine{
		ID:        uuid.New(),
		OrderID:   order.ID,
		City:      input.City,
		Province:  input.Province,
		Tier:      input.Tier,
		Quantity:  input.Quantity,
		UnitPrice: tariff.For(input.Tier),
		Notes:     input.Notes,
	}
	order.Lines = append(order.Lines, line)
	order.RecomputeTotal()

	if err := s.saveDraft(ctx, order); err != nil {
		return nil, err
	}

	result := &AddItemResult{Order: order}
	key := line.Key()
	if available, err := s.availability.Available(ctx, key); err == nil {
		requested := order.RequestedByKey()[key]
		if requested > available {
			result.Advisory = &model.Shortfall{Key: key, Requested: requested, Available: available}
		}
	}
	return result, nil
}

type UpdateItemInput struct {
	Quantity *int
	Notes    *string
}

// UpdateItem changes a line's quantity or notes. The unit price stays as
// snapshotted when the line was added; a tariff change never reprices an
// existing line.
func (s *OrderService) UpdateItem(ctx context.Context, principal model.Principal, orderID, lineID uuid.UUID, input UpdateItemInput) (*model.Order, error) {
	order, err := s.Get(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusDraft {
		return nil, fmt.Errorf("%w: items can only be updated in DRAFT", ErrValidation)
	}

	line := order.Line(lineID)
	if line == nil {
		return nil, ErrNotFound
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		line.Quantity = *input.Quantity
	}
	if input.Notes != nil {
		line.Notes = *input.Notes
	}
	order.RecomputeTotal()

	if err := s.saveDraft(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) RemoveItem(ctx context.Context, principal model.Principal, orderID, lineID uuid.UUID) (*model.Order, error) {
	order, err := s.Get(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusDraft {
		return nil, fmt.Errorf("%w: items can only be removed in DRAFT", ErrValidation)
	}

	kept := order.Lines[:0]
	found := false
	for _, line := range order.Lines {
		if line.ID == lineID {
			found = true
			continue
		}
		kept = append(kept, line)
	}
	if !found {
		return nil, ErrNotFound
	}
	order.Lines = kept
	order.RecomputeTotal()

	if err := s.saveDraft(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Submit moves a DRAFT order to SUBMITTED, reserving its units. The store
// re-checks availability and commits the transition in one atomic unit; on a
// shortfall the order stays DRAFT and nothing is reserved.
func (s *OrderService) Submit(ctx context.Context, principal model.Principal, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.Get(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	if !principal.Owns(order) {
		return nil, ErrPermissionDenied
	}
	if order.Status != model.OrderStatusDraft {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, order.Status, model.OrderStatusSubmitted)
	}
	if len(order.Lines) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrValidation)
	}

	shortfalls, err := s.store.Submit(ctx, order, s.availability.Supply)
	if err != nil {
		if err == repository.ErrVersionConflict {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}
	if len(shortfalls) > 0 {
		return nil, &AvailabilityError{Shortfalls: shortfalls}
	}
	return order, nil
}

// AdvanceStatus applies a staff transition (approval, payment confirmation,
// delivery). Client-driven transitions go through Submit and Cancel.
func (s *OrderService) AdvanceStatus(ctx context.Context, principal model.Principal, orderID uuid.UUID, target model.OrderStatus, adminNotes string) (*model.Order, error) {
	if !principal.IsStaff() {
		return nil, ErrPermissionDenied
	}
	// Submission reserves units and must run through Submit's atomic
	// availability check; it is never a plain status write.
	if target == model.OrderStatusSubmitted {
		return nil, fmt.Errorf("%w: %s requires a submission", ErrInvalidTransition, target)
	}

	order, err := s.Get(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(order.Status, target) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, order.Status, target)
	}

	notes := order.AdminNotes
	if adminNotes != "" {
		notes = adminNotes
	}
	if err := s.store.UpdateStatus(ctx, order, target, notes); err != nil {
		if err == repository.ErrVersionConflict {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}
	return order, nil
}

// Cancel releases the order's reservation immediately: the ledger is computed
// from status, so the very next availability read reflects the freed units.
func (s *OrderService) Cancel(ctx context.Context, principal model.Principal, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.Get(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}
	if !principal.IsStaff() && !principal.Owns(order) {
		return nil, ErrPermissionDenied
	}
	if !model.CanTransition(order.Status, model.OrderStatusCancelled) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, order.Status, model.OrderStatusCancelled)
	}

	if err := s.store.UpdateStatus(ctx, order, model.OrderStatusCancelled, order.AdminNotes); err != nil {
		if err == repository.ErrVersionConflict {
			return nil, ErrConcurrentModification
		}
		return nil, err
	}
	return order, nil
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// Export renders the order book as a spreadsheet for back-office reporting.
func (s *OrderService) Export(ctx context.Context, principal model.Principal, status *model.OrderStatus) (*ExportResult, error) {
	if !principal.IsStaff() {
		return nil, ErrPermissionDenied
	}

	orders, err := s.store.List(ctx, nil, status)
	if err != nil {
		return nil, err
	}
	content, err := s.exporter.Generate(orders)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102"))
	if status != nil {
		name = fmt.Sprintf("orders-%s-%s.xlsx", *status, time.Now().Format("20060102"))
	}
	return &ExportResult{FileName: name, Content: content}, nil
}

func (s *OrderService) saveDraft(ctx context.Context, order *model.Order) error {
	if err := s.store.SaveDraft(ctx, order); err != nil {
		if err == repository.ErrVersionConflict {
			return ErrConcurrentModification
		}
		return err
	}
	return nil
}
