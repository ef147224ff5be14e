package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrOrderNotFound = errors.New("order not found")

type Repo struct{ DB *pgxpool.Pool }

// CreateIfAbsent inserts the order and its item snapshots in one
// transaction, keyed by the gateway payment id. Duplicate deliveries race
// on the unique constraint: the loser sees the conflict, reads the winner's
// row and reports created=false. No locks, no local retry.
func (r *Repo) CreateIfAbsent(ctx context.Context, o Order, items []OrderItem) (orderID int64, created bool, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (guest_email, total_price, payment_id, payment_status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING id`,
		o.GuestEmail, o.TotalPrice, o.PaymentID, o.PaymentStatus,
	).Scan(&orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already persisted by an earlier (or concurrent) delivery.
		err = r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE payment_id=$1`, o.PaymentID).Scan(&orderID)
		if err != nil {
			return 0, false, err
		}
		return orderID, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, product_title, product_price, full_pdf_url, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			orderID, it.ProductID, it.ProductTitle, it.ProductPrice, it.FullPDFURL, it.Quantity)
		if err != nil {
			return 0, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, err
	}
	return orderID, true, nil
}

// ItemsWithAssets joins item snapshots back to the catalog for the current
// download links. Products deleted since purchase keep their snapshot title
// with empty URLs.
func (r *Repo) ItemsWithAssets(ctx context.Context, orderID int64) ([]ItemAssets, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT oi.product_title,
		       COALESCE(p.full_pdf_with_answers_url, ''),
		       COALESCE(p.full_pdf_without_answers_url, '')
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemAssets
	for rows.Next() {
		var ia ItemAssets
		if err := rows.Scan(&ia.Title, &ia.WithAnswersURL, &ia.WithoutAnswersURL); err != nil {
			return nil, err
		}
		out = append(out, ia)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, guest_email, total_price, payment_id, payment_status, created_at
		FROM orders WHERE id=$1`, id,
	).Scan(&o.ID, &o.GuestEmail, &o.TotalPrice, &o.PaymentID, &o.PaymentStatus, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) ListByEmail(ctx context.Context, email string) ([]OrderWithItems, error) {
	return r.list(ctx, `WHERE o.guest_email=$1`, email)
}

func (r *Repo) ListAll(ctx context.Context) ([]OrderWithItems, error) {
	return r.list(ctx, ``)
}

func (r *Repo) list(ctx context.Context, where string, args ...any) ([]OrderWithItems, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.guest_email, o.total_price, o.payment_id, o.payment_status, o.created_at,
		       COALESCE(oi.id, 0), COALESCE(oi.product_id, 0), COALESCE(oi.product_title, ''),
		       COALESCE(oi.product_price, 0), COALESCE(oi.full_pdf_url, ''), COALESCE(oi.quantity, 0)
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		`+where+`
		ORDER BY o.created_at DESC, oi.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderWithItems
	index := map[int64]int{}
	for rows.Next() {
		var o Order
		var it OrderItem
		if err := rows.Scan(&o.ID, &o.GuestEmail, &o.TotalPrice, &o.PaymentID, &o.PaymentStatus, &o.CreatedAt,
			&it.ID, &it.ProductID, &it.ProductTitle, &it.ProductPrice, &it.FullPDFURL, &it.Quantity); err != nil {
			return nil, err
		}
		i, ok := index[o.ID]
		if !ok {
			out = append(out, OrderWithItems{Order: o})
			i = len(out) - 1
			index[o.ID] = i
		}
		if it.ID != 0 {
			it.OrderID = o.ID
			out[i].Items = append(out[i].Items, it)
		}
	}
	return out, rows.Err()
}
