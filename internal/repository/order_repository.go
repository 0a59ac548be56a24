package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nicksoucy/talentsecure-sub001/internal/model"
)

// ErrVersionConflict is returned when a version-checked write finds the order
// already modified by another session.
var ErrVersionConflict = errors.New("order version conflict")

// errShortfall forces a rollback of the submit transaction; the shortfall
// list is reported separately.
var errShortfall = errors.New("availability shortfall")

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	var row orderRow
	if err := r.db.WithContext(ctx).Raw(`
		INSERT INTO orders (client_id, status, total_amount, admin_notes, version)
		VALUES (?, ?, 0, '', 0)
		RETURNING id, client_id, status, total_amount, admin_notes, version, created_at, updated_at
	`, order.ClientID, order.Status).Scan(&row).Error; err != nil {
		return err
	}
	*order = row.toModel()
	return nil
}

type orderRow struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	Status      string
	TotalAmount float64
	AdminNotes  string
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type lineRow struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	City       string
	Province   string
	Tier       string
	Quantity   int
	UnitPrice  float64
	TotalPrice float64
	Notes      string
}

func (row orderRow) toModel() model.Order {
	return model.Order{
		ID:          row.ID,
		ClientID:    row.ClientID,
		Status:      model.OrderStatus(row.Status),
		TotalAmount: row.TotalAmount,
		AdminNotes:  row.AdminNotes,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (row lineRow) toModel() model.OrderLine {
	return model.OrderLine{
		ID:         row.ID,
		OrderID:    row.OrderID,
		City:       row.City,
		Province:   row.Province,
		Tier:       model.Tier(row.Tier),
		Quantity:   row.Quantity,
		UnitPrice:  row.UnitPrice,
		TotalPrice: row.TotalPrice,
		Notes:      row.Notes,
	}
}

func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var row orderRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, client_id, status, total_amount, admin_notes, version, created_at, updated_at
		FROM orders
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	order := row.toModel()
	lines, err := r.linesFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	order.Lines = lines[id]
	return &order, nil
}

func (r *OrderRepository) List(ctx context.Context, clientID *uuid.UUID, status *model.OrderStatus) ([]model.Order, error) {
	query := `
		SELECT id, client_id, status, total_amount, admin_notes, version, created_at, updated_at
		FROM orders
		WHERE 1=1
	`
	args := []interface{}{}
	if clientID != nil {
		query += " AND client_id = ?"
		args = append(args, *clientID)
	}
	if status != nil {
		query += " AND status = ?"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	var rows []orderRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	orders := make([]model.Order, 0, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toModel())
		ids = append(ids, row.ID)
	}
	if len(ids) == 0 {
		return orders, nil
	}

	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return orders, nil
}

func (r *OrderRepository) linesFor(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.OrderLine, error) {
	var rows []lineRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, order_id, city, province, tier, quantity, unit_price, total_price, notes
		FROM order_lines
		WHERE order_id = ANY(?)
		ORDER BY city, province, tier
	`, orderIDs).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID][]model.OrderLine, len(orderIDs))
	for _, row := range rows {
		result[row.OrderID] = append(result[row.OrderID], row.toModel())
	}
	return result, nil
}

// SaveDraft persists the full line set and total of a DRAFT order. The write
// is version-checked: a stale version means another session changed the order
// first and the caller must re-read.
func (r *OrderRepository) SaveDraft(ctx context.Context, order *model.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE orders
			SET total_amount = ?, version = version + 1, updated_at = NOW()
			WHERE id = ? AND version = ? AND status = 'DRAFT'
		`, order.TotalAmount, order.ID, order.Version)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if err := tx.Exec(`DELETE FROM order_lines WHERE order_id = ?`, order.ID).Error; err != nil {
			return err
		}
		for _, line := range order.Lines {
			if err := tx.Exec(`
				INSERT INTO order_lines (id, order_id, city, province, tier, quantity, unit_price, total_price, notes)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, line.ID, order.ID, line.City, line.Province, line.Tier,
				line.Quantity, line.UnitPrice, line.TotalPrice, line.Notes).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	order.Version++
	return nil
}

// Submit runs the check-and-reserve sequence atomically. Every distinct
// supply key of the order is locked with a transaction-scoped advisory lock
// (keys sorted to avoid deadlocks between multi-key orders), reserved units
// are recomputed live from order state, supply is read under the lock, and
// the DRAFT→SUBMITTED transition commits in the same transaction. Concurrent
// submissions for the same key serialize on the lock; disjoint keys do not
// block each other.
func (r *OrderRepository) Submit(
	ctx context.Context,
	order *model.Order,
	supply func(ctx context.Context, key model.SupplyKey) (int, error),
) ([]model.Shortfall, error) {
	requested := order.RequestedByKey()
	keys := make([]model.SupplyKey, 0, len(requested))
	for key := range requested {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	var shortfalls []model.Shortfall
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range keys {
			if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, key.String()).Error; err != nil {
				return err
			}
		}

		for _, key := range keys {
			reserved, err := reservedInTx(tx, key)
			if err != nil {
				return err
			}
			total, err := supply(ctx, key)
			if err != nil {
				return err
			}
			available := total - reserved
			if available < 0 {
				available = 0
			}
			if requested[key] > available {
				shortfalls = append(shortfalls, model.Shortfall{
					Key:       key,
					Requested: requested[key],
					Available: available,
				})
			}
		}
		if len(shortfalls) > 0 {
			return errShortfall
		}

		result := tx.Exec(`
			UPDATE orders
			SET status = 'SUBMITTED', version = version + 1, updated_at = NOW()
			WHERE id = ? AND version = ? AND status = 'DRAFT'
		`, order.ID, order.Version)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}
		return nil
	})
	if errors.Is(err, errShortfall) {
		return shortfalls, nil
	}
	if err != nil {
		return nil, err
	}

	order.Status = model.OrderStatusSubmitted
	order.Version++
	return nil, nil
}

// UpdateStatus applies an already-validated transition with a version check.
func (r *OrderRepository) UpdateStatus(ctx context.Context, order *model.Order, target model.OrderStatus, adminNotes string) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET status = ?, admin_notes = ?, version = version + 1, updated_at = NOW()
		WHERE id = ? AND version = ?
	`, target, adminNotes, order.ID, order.Version)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	order.Status = target
	order.AdminNotes = adminNotes
	order.Version++
	return nil
}

// Reserved is the live ledger read: the sum of line quantities across orders
// in a reserving status for the given key. Never cached.
func (r *OrderRepository) Reserved(ctx context.Context, key model.SupplyKey) (int, error) {
	return reservedInTx(r.db.WithContext(ctx), key)
}

func reservedInTx(tx *gorm.DB, key model.SupplyKey) (int, error) {
	var reserved int
	err := tx.Raw(`
		SELECT COALESCE(SUM(l.quantity), 0)
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE l.city = ? AND l.province = ? AND l.tier = ?
			AND o.status IN ('SUBMITTED', 'APPROVED', 'PAID')
	`, key.City, key.Province, key.Tier).Scan(&reserved).Error
	if err != nil {
		return 0, err
	}
	return reserved, nil
}
