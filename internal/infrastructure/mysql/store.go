package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/application/placement"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/order"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/stock"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Store is the MySQL-backed placement store. The lock mode decides how the
// stock row is protected for the duration of a placement transaction.
type Store struct {
	db   *sqlx.DB
	mode placement.LockMode
}

func NewStore(db *sqlx.DB, mode placement.LockMode) *Store {
	if mode == "" {
		mode = placement.LockPessimistic
	}
	return &Store{db: db, mode: mode}
}

// Open connects to MySQL with parseTime enabled so TIMESTAMP columns scan into time.Time.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect mysql")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func (s *Store) WithinPlacement(ctx context.Context, fn func(tx placement.Tx) error) error {
	dbtx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin placement tx")
	}

	t := &tx{tx: dbtx, mode: s.mode}
	if err := fn(t); err != nil {
		_ = dbtx.Rollback()
		return err
	}
	if err := dbtx.Commit(); err != nil {
		return errors.Wrap(err, "commit placement tx")
	}
	return nil
}

type tx struct {
	tx   *sqlx.Tx
	mode placement.LockMode
}

type pricedOptionRow struct {
	ID          string          `db:"id"`
	ProductID   string          `db:"product_id"`
	Name        string          `db:"name"`
	Quantity    int             `db:"quantity"`
	Version     int64           `db:"version"`
	UpdatedAt   time.Time       `db:"updated_at"`
	ProductName string          `db:"product_name"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
}

const pricedOptionQuery = `
SELECT o.id, o.product_id, o.name, o.quantity, o.version, o.updated_at,
       p.name AS product_name, p.price AS unit_price
FROM stock_option o
JOIN product p ON p.id = o.product_id
WHERE o.id = ?`

func (t *tx) LockOption(ctx context.Context, optionID string) (*placement.PricedOption, error) {
	query := pricedOptionQuery
	if t.mode == placement.LockPessimistic {
		query += " FOR UPDATE"
	}

	var row pricedOptionRow
	if err := t.tx.GetContext(ctx, &row, query, optionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stock.ErrNotFound
		}
		return nil, errors.Wrap(err, "lock stock option")
	}

	return &placement.PricedOption{
		Option: &stock.Option{
			ID:        row.ID,
			ProductID: row.ProductID,
			Name:      row.Name,
			Quantity:  row.Quantity,
			Version:   row.Version,
			UpdatedAt: row.UpdatedAt,
		},
		ProductName: row.ProductName,
		UnitPrice:   row.UnitPrice,
	}, nil
}

func (t *tx) SaveStock(ctx context.Context, opt *stock.Option) error {
	if t.mode == placement.LockOptimistic {
		// Conditional write: a competitor that committed first leaves the row
		// at a newer version and this update matches nothing.
		res, err := t.tx.ExecContext(ctx,
			`UPDATE stock_option SET quantity = ?, version = ?, updated_at = ? WHERE id = ? AND version = ?`,
			opt.Quantity, opt.Version, opt.UpdatedAt, opt.ID, opt.Version-1,
		)
		if err != nil {
			return errors.Wrap(err, "save stock (optimistic)")
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "save stock rows affected")
		}
		if affected == 0 {
			return stock.ErrConcurrentModification
		}
		return nil
	}

	_, err := t.tx.ExecContext(ctx,
		`UPDATE stock_option SET quantity = ?, version = ?, updated_at = ? WHERE id = ?`,
		opt.Quantity, opt.Version, opt.UpdatedAt, opt.ID,
	)
	return errors.Wrap(err, "save stock")
}

func (t *tx) InsertOrder(ctx context.Context, o *order.Order) error {
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO orders (id, buyer_id, created_at, status, total_amount) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.BuyerID, o.CreatedAt, o.Status, o.TotalAmount,
	); err != nil {
		return errors.Wrap(err, "insert order")
	}

	for _, item := range o.Items {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO order_item (id, order_id, option_id_snapshot, product_name, option_name, unit_price, quantity)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.OrderID, item.OptionID, item.ProductName, item.OptionName, item.UnitPrice, item.Quantity,
		); err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}

	p := o.Payment
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO payment (id, order_id, amount, currency, status, external_id, failure_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OrderID, p.Amount, p.Currency, p.Status, p.ExternalID, p.FailureReason,
	); err != nil {
		return errors.Wrap(err, "insert payment")
	}
	return nil
}

func (t *tx) RemoveCartLine(ctx context.Context, buyerID, optionID string) error {
	// Zero affected rows is fine; cart cleanup is an idempotent no-op.
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM cart_line WHERE buyer_id = ? AND option_id = ?`,
		buyerID, optionID,
	)
	return errors.Wrap(err, "remove cart line")
}

type orderRow struct {
	ID          string    `db:"id"`
	BuyerID     string    `db:"buyer_id"`
	CreatedAt   time.Time `db:"created_at"`
	Status      string    `db:"status"`
	TotalAmount int64     `db:"total_amount"`
}

type itemRow struct {
	ID          string          `db:"id"`
	OrderID     string          `db:"order_id"`
	OptionID    string          `db:"option_id_snapshot"`
	ProductName string          `db:"product_name"`
	OptionName  string          `db:"option_name"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Quantity    int             `db:"quantity"`
}

type paymentRow struct {
	ID            string         `db:"id"`
	OrderID       string         `db:"order_id"`
	Amount        int64          `db:"amount"`
	Currency      string         `db:"currency"`
	Status        string         `db:"status"`
	ExternalID    string         `db:"external_id"`
	FailureReason sql.NullString `db:"failure_reason"`
}

func (s *Store) FindOrder(ctx context.Context, orderID string) (*order.Order, error) {
	var oRow orderRow
	if err := s.db.GetContext(ctx, &oRow, `SELECT id, buyer_id, created_at, status, total_amount FROM orders WHERE id = ?`, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}

	var iRows []itemRow
	if err := s.db.SelectContext(ctx, &iRows,
		`SELECT id, order_id, option_id_snapshot, product_name, option_name, unit_price, quantity FROM order_item WHERE order_id = ?`,
		orderID,
	); err != nil {
		return nil, errors.Wrap(err, "find order items")
	}

	var pRow paymentRow
	if err := s.db.GetContext(ctx, &pRow,
		`SELECT id, order_id, amount, currency, status, external_id, failure_reason FROM payment WHERE order_id = ?`,
		orderID,
	); err != nil {
		return nil, errors.Wrap(err, "find payment")
	}

	result := &order.Order{
		ID:          oRow.ID,
		BuyerID:     oRow.BuyerID,
		CreatedAt:   oRow.CreatedAt,
		Status:      order.Status(oRow.Status),
		TotalAmount: oRow.TotalAmount,
		Payment: order.Payment{
			ID:            pRow.ID,
			OrderID:       pRow.OrderID,
			Amount:        pRow.Amount,
			Currency:      pRow.Currency,
			Status:        order.PaymentStatus(pRow.Status),
			ExternalID:    pRow.ExternalID,
			FailureReason: pRow.FailureReason.String,
		},
	}
	for _, i := range iRows {
		result.Items = append(result.Items, order.Item{
			ID:          i.ID,
			OrderID:     i.OrderID,
			OptionID:    i.OptionID,
			ProductName: i.ProductName,
			OptionName:  i.OptionName,
			UnitPrice:   i.UnitPrice,
			Quantity:    i.Quantity,
		})
	}
	return result, nil
}
