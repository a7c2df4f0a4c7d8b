package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"service-dispatch/internal/domain"
)

// OrderRepo represents the dispatch view of checkout orders.
type OrderRepo struct{ db *pgxpool.Pool }

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo { return &OrderRepo{db: db} }

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var (
		o     domain.Order
		items []byte
	)
	err := row.Scan(&o.OrderID, &o.CustomerName, &o.CustomerAddress,
		&o.CustomerPhone, &o.TotalAmount, &items, &o.DeliveryStatus, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
	}
	return &o, nil
}

// Get - returns order by its ID.
func (r *OrderRepo) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `
        SELECT order_id, customer_name, customer_address, customer_phone,
               total_amount, items, delivery_status, created_at
        FROM orders WHERE order_id = $1
    `, orderID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %q: %w", orderID, err)
	}
	return o, nil
}

// Upsert inserts an order received from checkout, or refreshes its customer
// fields when it already exists. Delivery status of an existing row is never
// touched here; only the dispatch engine moves it.
func (r *OrderRepo) Upsert(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	_, err = r.db.Exec(ctx, `
        INSERT INTO orders(order_id, customer_name, customer_address, customer_phone,
                           total_amount, items, delivery_status, created_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (order_id) DO UPDATE SET
            customer_name    = EXCLUDED.customer_name,
            customer_address = EXCLUDED.customer_address,
            customer_phone   = EXCLUDED.customer_phone,
            total_amount     = EXCLUDED.total_amount,
            items            = EXCLUDED.items
    `, o.OrderID, o.CustomerName, o.CustomerAddress, o.CustomerPhone,
		o.TotalAmount, items, string(o.DeliveryStatus), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert order %q: %w", o.OrderID, err)
	}
	return nil
}

// ListUnassigned returns orders eligible for dispatch, oldest first.
// Offset/limit make the sequence restartable for pollers.
func (r *OrderRepo) ListUnassigned(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `
        SELECT order_id, customer_name, customer_address, customer_phone,
               total_amount, items, delivery_status, created_at
        FROM orders
        WHERE delivery_status = $1
        ORDER BY created_at, order_id
        LIMIT $2 OFFSET $3
    `, string(domain.DeliveryUnassigned), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list unassigned orders: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// SetDeliveryStatus moves an order's delivery status outside a dispatch
// transaction. Used by the order-events worker, not by the engine.
func (r *OrderRepo) SetDeliveryStatus(ctx context.Context, orderID string, status domain.DeliveryStatus) (bool, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE orders SET delivery_status = $2 WHERE order_id = $1`,
		orderID, string(status))
	if err != nil {
		return false, fmt.Errorf("set order %q delivery status: %w", orderID, err)
	}
	return ct.RowsAffected() > 0, nil
}
