package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/gudang"
	"github.com/ariefcatur/go-retail-gudang/internal/postgres"
	"github.com/jackc/pgx/v5"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

const headerColumns = `id_transaksi, customer_id, total_harga, metode_bayar, status, bayar, kembali, tanggal`

type Repo struct{ DB postgres.DB }

type scanner interface {
	Scan(dest ...any) error
}

func scanHeader(row scanner) (Header, error) {
	var h Header
	var st string
	err := row.Scan(&h.ID, &h.Customer, &h.Total, &h.Method, &st, &h.Paid, &h.Change, &h.CreatedAt)
	h.Status = Status(st)
	return h, err
}

// Open creates an OPEN transaction with total 0.
func (r *Repo) Open(ctx context.Context, customer, method string) (int64, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		customer = DefaultCustomer
	}
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO transaksi (customer_id, total_harga, metode_bayar, status)
		VALUES ($1, 0, $2, 'OPEN')
		RETURNING id_transaksi`, customer, NormalizeMethod(method)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("open transaksi: %w", err)
	}
	return id, nil
}

// lockHeader locks the header row for the rest of tx and checks that it
// may move to next. For item edits next is StatusOpen itself.
func lockHeader(ctx context.Context, tx pgx.Tx, id int64, next Status) (Header, error) {
	h, err := scanHeader(tx.QueryRow(ctx, `SELECT `+headerColumns+` FROM transaksi WHERE id_transaksi = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Header{}, apperr.NotFound("transaction %d not found", id)
	}
	if err != nil {
		return Header{}, fmt.Errorf("lock transaksi %d: %w", id, err)
	}
	if next == StatusOpen && h.Status == StatusOpen {
		return h, nil
	}
	if !CanTransition(h.Status, next) {
		return Header{}, apperr.Conflict("transaction %d is %s, not OPEN", id, h.Status)
	}
	return h, nil
}

func (r *Repo) AddItem(ctx context.Context, id int64, in AddItemInput) error {
	in.SKU = strings.TrimSpace(in.SKU)
	if in.SKU == "" || in.Qty <= 0 {
		return apperr.InvalidArgument("sku and qty > 0 are required")
	}
	if in.Price != nil && *in.Price < 0 {
		return apperr.InvalidArgument("price must not be negative")
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := lockHeader(ctx, tx, id, StatusOpen); err != nil {
		return err
	}

	var price int64
	err = tx.QueryRow(ctx, `SELECT harga_jual FROM barang WHERE id_barang = $1`, in.SKU).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("sku %s not found", in.SKU)
	}
	if err != nil {
		return fmt.Errorf("price %s: %w", in.SKU, err)
	}
	if in.Price != nil {
		price = *in.Price
	}

	// An existing line keeps its snapshotted unit price.
	if _, err := tx.Exec(ctx, `
		INSERT INTO keranjang (id_transaksi, id_barang, jumlah, harga_satuan, total_harga)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id_transaksi, id_barang) DO UPDATE
		SET jumlah = keranjang.jumlah + EXCLUDED.jumlah,
		    total_harga = (keranjang.jumlah + EXCLUDED.jumlah) * keranjang.harga_satuan`,
		id, in.SKU, in.Qty, price, int64(in.Qty)*price); err != nil {
		return fmt.Errorf("add item %s: %w", in.SKU, err)
	}
	return tx.Commit(ctx)
}

// UpdateItem sets the absolute quantity of a line; qty <= 0 removes it.
func (r *Repo) UpdateItem(ctx context.Context, id int64, sku string, qty int) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := lockHeader(ctx, tx, id, StatusOpen); err != nil {
		return err
	}

	var n int64
	if qty <= 0 {
		ct, err := tx.Exec(ctx, `DELETE FROM keranjang WHERE id_transaksi = $1 AND id_barang = $2`, id, sku)
		if err != nil {
			return fmt.Errorf("delete item %s: %w", sku, err)
		}
		n = ct.RowsAffected()
	} else {
		ct, err := tx.Exec(ctx, `
			UPDATE keranjang
			SET jumlah = $3, total_harga = $3::bigint * harga_satuan
			WHERE id_transaksi = $1 AND id_barang = $2`, id, sku, qty)
		if err != nil {
			return fmt.Errorf("update item %s: %w", sku, err)
		}
		n = ct.RowsAffected()
	}
	if n == 0 {
		return apperr.NotFound("sku %s is not in transaction %d", sku, id)
	}
	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, id int64) (Header, error) {
	h, err := scanHeader(r.DB.QueryRow(ctx, `SELECT `+headerColumns+` FROM transaksi WHERE id_transaksi = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Header{}, apperr.NotFound("transaction %d not found", id)
	}
	if err != nil {
		return Header{}, fmt.Errorf("get transaksi %d: %w", id, err)
	}
	return h, nil
}

// Detail returns the header, its lines with live SKU name and stock,
// and the computed breakdown.
func (r *Repo) Detail(ctx context.Context, id int64) (Detail, error) {
	h, err := r.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	rows, err := r.DB.Query(ctx, `
		SELECT k.id_barang, b.nama_barang, k.jumlah, k.harga_satuan, k.total_harga, b.quantity
		FROM keranjang k
		JOIN barang b ON b.id_barang = k.id_barang
		WHERE k.id_transaksi = $1
		ORDER BY k.id_keranjang`, id)
	if err != nil {
		return Detail{}, fmt.Errorf("lines %d: %w", id, err)
	}
	lines, err := scanLines(rows)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Header: h, Items: lines, Calc: Compute(lines)}, nil
}

func scanLines(rows pgx.Rows) ([]Line, error) {
	defer rows.Close()
	out := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.SKU, &l.Name, &l.Qty, &l.UnitPrice, &l.Subtotal, &l.Stock); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Pay checks stock, debits every line and marks the header PAID in one
// transaction. The header and the referenced SKU rows stay locked until
// commit, and the lines are locked in SKU order so concurrent payments
// sharing SKUs cannot deadlock.
func (r *Repo) Pay(ctx context.Context, id int64, in PayInput) (Receipt, error) {
	if in.Tendered < 0 {
		return Receipt{}, apperr.InvalidArgument("amount_tendered must not be negative")
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Receipt{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	h, err := lockHeader(ctx, tx, id, StatusPaid)
	if err != nil {
		return Receipt{}, err
	}
	method := h.Method
	if strings.TrimSpace(in.Method) != "" {
		method = NormalizeMethod(in.Method)
	}

	rows, err := tx.Query(ctx, `
		SELECT k.id_barang, b.nama_barang, k.jumlah, k.harga_satuan, k.total_harga, b.quantity
		FROM keranjang k
		JOIN barang b ON b.id_barang = k.id_barang
		WHERE k.id_transaksi = $1
		ORDER BY k.id_barang
		FOR UPDATE OF b`, id)
	if err != nil {
		return Receipt{}, fmt.Errorf("pay lines %d: %w", id, err)
	}
	lines, err := scanLines(rows)
	if err != nil {
		return Receipt{}, err
	}
	if len(lines) == 0 {
		return Receipt{}, apperr.InvalidArgument("transaction %d has no items", id)
	}

	var short []apperr.Shortfall
	for _, l := range lines {
		if l.Stock < l.Qty {
			short = append(short, apperr.Shortfall{SKU: l.SKU, Available: l.Stock, Required: l.Qty})
		}
	}
	if len(short) > 0 {
		return Receipt{}, apperr.StockInsufficient(short)
	}

	calc := Compute(lines)
	if in.Tendered < calc.Total {
		return Receipt{}, apperr.InsufficientPayment(calc.Total)
	}
	change := in.Tendered - calc.Total

	for _, l := range lines {
		if err := gudang.Debit(ctx, tx, l.SKU, l.Qty); err != nil {
			return Receipt{}, err
		}
	}

	ct, err := tx.Exec(ctx, `
		UPDATE transaksi
		SET total_harga = $2, metode_bayar = $3, status = 'PAID', bayar = $4, kembali = $5
		WHERE id_transaksi = $1 AND status = 'OPEN'`, id, calc.Total, method, in.Tendered, change)
	if err != nil {
		return Receipt{}, fmt.Errorf("mark paid %d: %w", id, err)
	}
	if ct.RowsAffected() != 1 {
		return Receipt{}, apperr.Conflict("transaction %d is no longer OPEN", id)
	}
	if err := tx.Commit(ctx); err != nil {
		return Receipt{}, fmt.Errorf("commit pay %d: %w", id, err)
	}

	return Receipt{
		TransactionID: id,
		Method:        method,
		Subtotal:      calc.Subtotal,
		Tax:           calc.Tax,
		Total:         calc.Total,
		Tendered:      in.Tendered,
		Change:        change,
		Items:         lines,
	}, nil
}

// Void cancels an OPEN transaction. Nothing was debited while OPEN, so
// there is no inventory effect.
func (r *Repo) Void(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `UPDATE transaksi SET status = 'VOID' WHERE id_transaksi = $1 AND status = 'OPEN'`, id)
	if err != nil {
		return fmt.Errorf("void %d: %w", id, err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	h, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return apperr.Conflict("only OPEN transactions can be voided (transaction %d is %s)", id, h.Status)
}

// List returns headers newest first. Q matches the id or the customer.
func (r *Repo) List(ctx context.Context, f ListFilter) ([]Header, error) {
	var conds []string
	var args []any
	if st, ok := ParseStatus(strings.ToUpper(strings.TrimSpace(f.Status))); ok {
		args = append(args, string(st))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Q); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("(CAST(id_transaksi AS TEXT) LIKE $%[1]d OR customer_id ILIKE $%[1]d)", len(args)))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	args = append(args, limit)

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM transaksi %s
		ORDER BY tanggal DESC, id_transaksi DESC
		LIMIT $%d`, headerColumns, where, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("list transaksi: %w", err)
	}
	defer rows.Close()

	out := []Header{}
	for rows.Next() {
		h, err := scanHeader(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaksi: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
