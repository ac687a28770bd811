package gudang

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const itemColumns = `id_barang, nama_barang, id_supplier, quantity, harga_jual, harga_supplier, berat, updated_at`

// Querier is what Credit and Debit need from the caller's transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct{ DB postgres.DB }

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (Item, error) {
	var it Item
	err := row.Scan(&it.SKU, &it.Name, &it.SupplierID, &it.Quantity, &it.SellPrice, &it.SupplierPrice, &it.WeightGrams, &it.UpdatedAt)
	return it, err
}

// likePattern escapes LIKE metacharacters so q is matched literally.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// List returns SKUs ordered by name. A non-empty q matches the SKU id or
// name by case-insensitive substring.
func (r *Repo) List(ctx context.Context, q string) ([]Item, error) {
	q = strings.TrimSpace(q)
	rows, err := r.DB.Query(ctx, `
		SELECT `+itemColumns+`
		FROM barang
		WHERE ($1 = '' OR id_barang ILIKE $2 OR nama_barang ILIKE $2)
		ORDER BY nama_barang`, q, likePattern(q))
	if err != nil {
		return nil, fmt.Errorf("list barang: %w", err)
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan barang: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, sku string) (Item, error) {
	it, err := scanItem(r.DB.QueryRow(ctx, `SELECT `+itemColumns+` FROM barang WHERE id_barang = $1`, sku))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, apperr.NotFound("sku %s not found", sku)
	}
	if err != nil {
		return Item{}, fmt.Errorf("get barang %s: %w", sku, err)
	}
	return it, nil
}

func (r *Repo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(quantity), 0), COUNT(*) FILTER (WHERE quantity < $1)
		FROM barang`, LowStockThreshold).Scan(&s.TotalProducts, &s.TotalStock, &s.LowStock)
	if err != nil {
		return Stats{}, fmt.Errorf("barang stats: %w", err)
	}
	return s, nil
}

// Restock adds in.Qty to the SKU in a single conditional statement.
func (r *Repo) Restock(ctx context.Context, in RestockInput) (Item, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	if in.SKU == "" || in.Qty <= 0 {
		return Item{}, apperr.InvalidArgument("sku and qty > 0 are required")
	}
	if in.SellPrice != nil && *in.SellPrice < 0 {
		return Item{}, apperr.InvalidArgument("sell_price must not be negative")
	}
	it, err := scanItem(r.DB.QueryRow(ctx, `
		UPDATE barang
		SET quantity = quantity + $2,
		    harga_jual = COALESCE($3, harga_jual),
		    updated_at = NOW()
		WHERE id_barang = $1
		RETURNING `+itemColumns, in.SKU, in.Qty, in.SellPrice))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, apperr.NotFound("sku %s not found", in.SKU)
	}
	if err != nil {
		return Item{}, fmt.Errorf("restock %s: %w", in.SKU, err)
	}
	return it, nil
}

// Patch updates only the supplied fields.
func (r *Repo) Patch(ctx context.Context, sku string, in PatchInput) (Item, error) {
	if in.empty() {
		return Item{}, apperr.InvalidArgument("no fields to update")
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return Item{}, apperr.InvalidArgument("stock must not be negative")
	}
	if (in.SellPrice != nil && *in.SellPrice < 0) || (in.SupplierPrice != nil && *in.SupplierPrice < 0) {
		return Item{}, apperr.InvalidArgument("prices must not be negative")
	}

	sets := make([]string, 0, 7)
	args := []any{sku}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.Name != nil {
		add("nama_barang", *in.Name)
	}
	if in.SupplierID != nil {
		add("id_supplier", *in.SupplierID)
	}
	if in.SellPrice != nil {
		add("harga_jual", *in.SellPrice)
	}
	if in.SupplierPrice != nil {
		add("harga_supplier", *in.SupplierPrice)
	}
	if in.Quantity != nil {
		add("quantity", *in.Quantity)
	}
	if in.WeightGrams != nil {
		add("berat", *in.WeightGrams)
	}
	sets = append(sets, "updated_at = NOW()")

	it, err := scanItem(r.DB.QueryRow(ctx,
		`UPDATE barang SET `+strings.Join(sets, ", ")+` WHERE id_barang = $1 RETURNING `+itemColumns, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, apperr.NotFound("sku %s not found", sku)
	}
	if err != nil {
		return Item{}, fmt.Errorf("patch %s: %w", sku, err)
	}
	return it, nil
}

// Credit adds qty to the SKU inside the caller's transaction.
func Credit(ctx context.Context, q Querier, sku string, qty int) error {
	ct, err := q.Exec(ctx, `
		UPDATE barang SET quantity = quantity + $2, updated_at = NOW()
		WHERE id_barang = $1`, sku, qty)
	if err != nil {
		return fmt.Errorf("credit %s: %w", sku, err)
	}
	if ct.RowsAffected() != 1 {
		return apperr.NotFound("sku %s not found", sku)
	}
	return nil
}

// Debit subtracts qty from the SKU inside the caller's transaction. The
// update only applies while quantity >= qty, so stock never goes
// negative even when a caller's earlier sufficiency check is stale.
func Debit(ctx context.Context, q Querier, sku string, qty int) error {
	ct, err := q.Exec(ctx, `
		UPDATE barang SET quantity = quantity - $2, updated_at = NOW()
		WHERE id_barang = $1 AND quantity >= $2`, sku, qty)
	if err != nil {
		return fmt.Errorf("debit %s: %w", sku, err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var available int
	err = q.QueryRow(ctx, `SELECT quantity FROM barang WHERE id_barang = $1`, sku).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("sku %s not found", sku)
	}
	if err != nil {
		return fmt.Errorf("debit %s: %w", sku, err)
	}
	return apperr.StockInsufficient([]apperr.Shortfall{{SKU: sku, Available: available, Required: qty}})
}
