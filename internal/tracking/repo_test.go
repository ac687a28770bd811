package tracking

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/pashagolub/pgxmock/v3"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func verify(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// expectItem queues the per-item statements of IngestEvent. stored is
// the status persisted after the event.
func expectItem(mock pgxmock.PgxPoolIface, shipment, sku string, qty int, prior, stored string, credit bool) {
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (no_resi, id_barang) DO NOTHING")).
		WithArgs(shipment, sku).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM resi WHERE no_resi = $1 AND id_barang = $2 FOR UPDATE")).
		WithArgs(shipment, sku).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(prior))
	mock.ExpectExec("UPDATE resi").
		WithArgs(shipment, sku, "Apel", qty, "Supplier Satu", "JNE", stored, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if credit {
		mock.ExpectExec(regexp.QuoteMeta("quantity = quantity + $2")).
			WithArgs(sku, qty).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	}
}

func event(status string) Event {
	return Event{
		ShipmentNo:  "R1",
		Status:      status,
		Items:       []EventItem{{SKU: "A1", Name: "Apel", Qty: 5}},
		Supplier:    "Supplier Satu",
		Distributor: "JNE",
	}
}

func TestIngestCreditsOnceAcrossReplays(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}
	ctx := context.Background()

	mock.ExpectBegin()
	expectItem(mock, "R1", "A1", 5, "", "IN_TRANSIT", false)
	mock.ExpectCommit()

	mock.ExpectBegin()
	expectItem(mock, "R1", "A1", 5, "IN_TRANSIT", StatusDelivered, true)
	mock.ExpectCommit()

	mock.ExpectBegin()
	expectItem(mock, "R1", "A1", 5, StatusDelivered, StatusDelivered, false)
	mock.ExpectCommit()

	res, err := repo.IngestEvent(ctx, event("in transit"))
	if err != nil || len(res.Credited) != 0 || res.Status != "IN_TRANSIT" {
		t.Fatalf("first event = %+v, %v", res, err)
	}
	res, err = repo.IngestEvent(ctx, event("DELIVERED"))
	if err != nil || len(res.Credited) != 1 || res.Credited[0] != (Credit{SKU: "A1", Qty: 5}) {
		t.Fatalf("delivered event = %+v, %v", res, err)
	}
	res, err = repo.IngestEvent(ctx, event("delivered"))
	if err != nil || len(res.Credited) != 0 {
		t.Fatalf("replayed event = %+v, %v", res, err)
	}
	verify(t, mock)
}

func TestIngestFirstEventDeliveredCredits(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	expectItem(mock, "R2", "A1", 5, "", StatusDelivered, true)
	mock.ExpectCommit()

	ev := event(StatusDelivered)
	ev.ShipmentNo = "R2"
	res, err := (&Repo{DB: mock}).IngestEvent(context.Background(), ev)
	if err != nil || len(res.Credited) != 1 {
		t.Fatalf("res = %+v, %v", res, err)
	}
	verify(t, mock)
}

func TestIngestDeliveredIsTerminal(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	expectItem(mock, "R1", "A1", 5, StatusDelivered, StatusDelivered, false)
	mock.ExpectCommit()

	res, err := (&Repo{DB: mock}).IngestEvent(context.Background(), event("IN_TRANSIT"))
	if err != nil || len(res.Credited) != 0 {
		t.Fatalf("res = %+v, %v", res, err)
	}
	verify(t, mock)
}

func TestIngestIgnoresEmptyShipment(t *testing.T) {
	mock := newMock(t)
	ev := event(StatusDelivered)
	ev.ShipmentNo = "  "
	res, err := (&Repo{DB: mock}).IngestEvent(context.Background(), ev)
	if err != nil || !res.Ignored {
		t.Fatalf("res = %+v, %v", res, err)
	}
	verify(t, mock)
}

func TestIngestValidation(t *testing.T) {
	mock := newMock(t)
	repo := &Repo{DB: mock}
	bad := []Event{
		{ShipmentNo: "R1", Status: ""},
		{ShipmentNo: "R1", Status: "DELIVERED", Items: []EventItem{{SKU: "", Qty: 1}}},
		{ShipmentNo: "R1", Status: "DELIVERED", Items: []EventItem{{SKU: "A1", Qty: 0}}},
	}
	for _, ev := range bad {
		if _, err := repo.IngestEvent(context.Background(), ev); !apperr.Is(err, apperr.KindInvalidArgument) {
			t.Errorf("IngestEvent(%+v) err = %v", ev, err)
		}
	}
	verify(t, mock)
}

func TestIngestUnknownSKURollsBack(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO resi").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT status FROM resi").WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(""))
	mock.ExpectExec("UPDATE resi").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE barang").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := (&Repo{DB: mock}).IngestEvent(context.Background(), event(StatusDelivered))
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	verify(t, mock)
}

var recordCols = []string{"no_resi", "id_barang", "nama_barang", "qty", "supplier", "distributor", "status", "updated_at"}

func TestListActive(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status <> $1")).
		WithArgs(StatusDelivered).
		WillReturnRows(pgxmock.NewRows(recordCols).
			AddRow("R3", "B2", "Beras", 2, "S", "JNE", "IN_TRANSIT", time.Now()))

	recs, err := (&Repo{DB: mock}).ListActive(context.Background())
	if err != nil || len(recs) != 1 || recs[0].ShipmentNo != "R3" {
		t.Fatalf("recs = %+v, %v", recs, err)
	}
	verify(t, mock)
}

func TestGetByShipment(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE no_resi = $1")).
		WithArgs("R1").
		WillReturnRows(pgxmock.NewRows(recordCols).
			AddRow("R1", "A1", "Apel", 5, "S", "JNE", StatusDelivered, now).
			AddRow("R1", "B2", "Beras", 1, "S", "JNE", "IN_TRANSIT", now.Add(-time.Hour)))

	recs, err := (&Repo{DB: mock}).GetByShipment(context.Background(), "R1")
	if err != nil || len(recs) != 2 {
		t.Fatalf("recs = %+v, %v", recs, err)
	}
	verify(t, mock)
}

func TestMarkDeliveredCreditsPendingRowsOnly(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM resi")).
		WithArgs("R1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta("RETURNING id_barang, qty")).
		WithArgs("R1", StatusDelivered).
		WillReturnRows(pgxmock.NewRows([]string{"id_barang", "qty"}).AddRow("B2", 1))
	mock.ExpectExec(regexp.QuoteMeta("quantity = quantity + $2")).
		WithArgs("B2", 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	res, err := (&Repo{DB: mock}).MarkDelivered(context.Background(), "R1")
	if err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	if len(res.Credited) != 1 || res.Credited[0] != (Credit{SKU: "B2", Qty: 1}) {
		t.Errorf("credited = %+v", res.Credited)
	}
	verify(t, mock)
}

func TestMarkDeliveredUnknownShipment(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectRollback()

	if _, err := (&Repo{DB: mock}).MarkDelivered(context.Background(), "NOPE"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	verify(t, mock)
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{"delivered": "DELIVERED", " in transit ": "IN_TRANSIT", "out-for-delivery": "OUT_FOR_DELIVERY", "": ""}
	for in, want := range cases {
		if got := NormalizeStatus(in); got != want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
