package tracking

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/gudang"
	"github.com/ariefcatur/go-retail-gudang/internal/postgres"
	"github.com/jackc/pgx/v5"
)

const recordColumns = `no_resi, id_barang, nama_barang, qty, supplier, distributor, status, updated_at`

type Repo struct{ DB postgres.DB }

// IngestEvent upserts one tracking row per item and credits the ledger
// for every item whose stored status moves into DELIVERED. Replays of a
// DELIVERED event find DELIVERED already stored and credit nothing.
func (r *Repo) IngestEvent(ctx context.Context, ev Event) (Result, error) {
	ev.ShipmentNo = strings.TrimSpace(ev.ShipmentNo)
	if ev.ShipmentNo == "" {
		return Result{Ignored: true, Credited: []Credit{}}, nil
	}
	status := NormalizeStatus(ev.Status)
	if status == "" {
		return Result{}, apperr.InvalidArgument("status is required")
	}
	for _, it := range ev.Items {
		if strings.TrimSpace(it.SKU) == "" || it.Qty <= 0 {
			return Result{}, apperr.InvalidArgument("every item needs a sku and qty > 0")
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res := Result{ShipmentNo: ev.ShipmentNo, Status: status, Credited: []Credit{}}
	for _, it := range ev.Items {
		sku := strings.TrimSpace(it.SKU)

		// The placeholder row makes a concurrent first event for the same
		// key wait on the unique index, then on the row lock below.
		if _, err := tx.Exec(ctx, `
			INSERT INTO resi (no_resi, id_barang, status)
			VALUES ($1, $2, '')
			ON CONFLICT (no_resi, id_barang) DO NOTHING`, ev.ShipmentNo, sku); err != nil {
			return Result{}, fmt.Errorf("reserve resi %s/%s: %w", ev.ShipmentNo, sku, err)
		}
		var prior string
		if err := tx.QueryRow(ctx, `
			SELECT status FROM resi WHERE no_resi = $1 AND id_barang = $2 FOR UPDATE`,
			ev.ShipmentNo, sku).Scan(&prior); err != nil {
			return Result{}, fmt.Errorf("lock resi %s/%s: %w", ev.ShipmentNo, sku, err)
		}
		// DELIVERED is terminal: a late or out-of-order event cannot move the
		// key back out of it and open the way to a second credit.
		effective := status
		if prior == StatusDelivered {
			effective = StatusDelivered
		}
		if _, err := tx.Exec(ctx, `
			UPDATE resi
			SET nama_barang = $3, qty = $4, supplier = $5, distributor = $6, status = $7,
			    updated_at = COALESCE($8, NOW())
			WHERE no_resi = $1 AND id_barang = $2`,
			ev.ShipmentNo, sku, it.Name, it.Qty, ev.Supplier, ev.Distributor, effective, ev.OccurredAt); err != nil {
			return Result{}, fmt.Errorf("update resi %s/%s: %w", ev.ShipmentNo, sku, err)
		}

		if effective == StatusDelivered && prior != StatusDelivered {
			if err := gudang.Credit(ctx, tx, sku, it.Qty); err != nil {
				return Result{}, err
			}
			res.Credited = append(res.Credited, Credit{SKU: sku, Qty: it.Qty})
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit resi %s: %w", ev.ShipmentNo, err)
	}
	return res, nil
}

// ListActive returns rows not yet DELIVERED, newest first.
func (r *Repo) ListActive(ctx context.Context) ([]Record, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+recordColumns+`
		FROM resi
		WHERE status <> $1
		ORDER BY updated_at DESC`, StatusDelivered)
	if err != nil {
		return nil, fmt.Errorf("list active resi: %w", err)
	}
	return scanRecords(rows)
}

// GetByShipment returns every row of one shipment, newest first.
func (r *Repo) GetByShipment(ctx context.Context, shipmentNo string) ([]Record, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+recordColumns+`
		FROM resi
		WHERE no_resi = $1
		ORDER BY updated_at DESC`, shipmentNo)
	if err != nil {
		return nil, fmt.Errorf("get resi %s: %w", shipmentNo, err)
	}
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ShipmentNo, &rec.SKU, &rec.Name, &rec.Qty, &rec.Supplier, &rec.Distributor, &rec.Status, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan resi: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkDelivered moves every non-delivered row of a shipment to DELIVERED
// and credits each row's quantity. Rows already DELIVERED are untouched.
func (r *Repo) MarkDelivered(ctx context.Context, shipmentNo string) (Result, error) {
	shipmentNo = strings.TrimSpace(shipmentNo)
	if shipmentNo == "" {
		return Result{}, apperr.InvalidArgument("shipment_no is required")
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var n int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM resi WHERE no_resi = $1`, shipmentNo).Scan(&n); err != nil {
		return Result{}, fmt.Errorf("count resi %s: %w", shipmentNo, err)
	}
	if n == 0 {
		return Result{}, apperr.NotFound("shipment %s not found", shipmentNo)
	}

	rows, err := tx.Query(ctx, `
		UPDATE resi SET status = $2, updated_at = NOW()
		WHERE no_resi = $1 AND status <> $2
		RETURNING id_barang, qty`, shipmentNo, StatusDelivered)
	if err != nil {
		return Result{}, fmt.Errorf("deliver resi %s: %w", shipmentNo, err)
	}
	credits := []Credit{}
	for rows.Next() {
		var c Credit
		if err := rows.Scan(&c.SKU, &c.Qty); err != nil {
			rows.Close()
			return Result{}, fmt.Errorf("scan delivered resi: %w", err)
		}
		credits = append(credits, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Result{}, err
	}

	for _, c := range credits {
		if err := gudang.Credit(ctx, tx, c.SKU, c.Qty); err != nil {
			return Result{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit deliver %s: %w", shipmentNo, err)
	}
	return Result{ShipmentNo: shipmentNo, Status: StatusDelivered, Credited: credits}, nil
}
