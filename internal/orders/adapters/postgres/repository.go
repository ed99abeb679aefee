package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/dualwrite/internal/database"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository persists orders and their line items. Every statement runs on the
// transaction carried by ctx when there is one.
type Repository struct {
	pool *pgxpool.Pool
	tx   *database.TxManager
}

func NewRepository(pool *pgxpool.Pool, tx *database.TxManager) *Repository {
	return &Repository{pool: pool, tx: tx}
}

func (r *Repository) Save(ctx context.Context, order domain.Order) error {
	// Order row and items must land together even when the caller has no transaction.
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		db := database.ExecutorFrom(ctx, r.pool)

		_, err := db.Exec(ctx, `
			INSERT INTO orders (id, customer_id, status, total, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			order.ID(),
			order.CustomerID(),
			string(order.Status()),
			order.Total().String(),
			order.CreatedAt(),
			order.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range order.Items() {
			_, err := db.Exec(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, unit_price)
				VALUES ($1, $2, $3, $4)
			`,
				order.ID(),
				item.ProductID(),
				item.Quantity(),
				item.UnitPrice().String(),
			)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}

		return nil
	})
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (domain.Order, bool, error) {
	db := database.ExecutorFrom(ctx, r.pool)

	row, err := scanOrderRow(db.QueryRow(ctx, `
		SELECT id, customer_id, status, total::text, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, false, nil
		}
		return domain.Order{}, false, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, db, []uuid.UUID{id})
	if err != nil {
		return domain.Order{}, false, err
	}

	order, err := row.toDomain(items[id])
	if err != nil {
		return domain.Order{}, false, err
	}
	return order, true, nil
}

func (r *Repository) Update(ctx context.Context, order domain.Order) error {
	db := database.ExecutorFrom(ctx, r.pool)

	result, err := db.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`, string(order.Status()), order.UpdatedAt(), order.ID())
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}

	return nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	db := database.ExecutorFrom(ctx, r.pool)
	filter = filter.Normalize()

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	rows, err := db.Query(ctx, `
		SELECT id, customer_id, status, total::text, created_at, updated_at
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, statusFilter, filter.PageSize, filter.Offset())
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	var heads []orderRow
	for rows.Next() {
		row, err := scanOrderRow(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		heads = append(heads, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if len(heads) == 0 {
		return []domain.Order{}, nil
	}

	ids := make([]uuid.UUID, 0, len(heads))
	for _, h := range heads {
		ids = append(ids, h.id)
	}
	items, err := r.loadItems(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(heads))
	for _, h := range heads {
		order, err := h.toDomain(items[h.id])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (r *Repository) loadItems(ctx context.Context, db database.Executor, orderIDs []uuid.UUID) (map[uuid.UUID][]domain.OrderItem, error) {
	rows, err := db.Query(ctx, `
		SELECT order_id, product_id, quantity, unit_price::text
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			orderID   uuid.UUID
			productID uuid.UUID
			quantity  int
			unitPrice string
		)
		if err := rows.Scan(&orderID, &productID, &quantity, &unitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		price, err := decimal.NewFromString(unitPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: order %s has unit price %q", domain.ErrCorruptOrder, orderID, unitPrice)
		}
		items[orderID] = append(items[orderID], domain.ReconstituteItem(productID, quantity, price))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

type orderRow struct {
	id         uuid.UUID
	customerID uuid.UUID
	status     string
	total      string
	createdAt  time.Time
	updatedAt  time.Time
}

func scanOrderRow(row pgx.Row) (orderRow, error) {
	var o orderRow
	err := row.Scan(&o.id, &o.customerID, &o.status, &o.total, &o.createdAt, &o.updatedAt)
	return o, err
}

func (o orderRow) toDomain(items []domain.OrderItem) (domain.Order, error) {
	status, err := domain.ParseOrderStatus(o.status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrCorruptOrder, err)
	}
	total, err := decimal.NewFromString(o.total)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: order %s has total %q", domain.ErrCorruptOrder, o.id, o.total)
	}
	return domain.Reconstitute(o.id, o.customerID, status, items, total, o.createdAt, o.updatedAt)
}
