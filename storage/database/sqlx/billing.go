package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/billing"
)

const invoiceColumns = `id, student_id, amount_cents, status, issued_at, due_at, paid_at`

type dbInvoice struct {
	ID          string    `db:"id"`
	StudentID   string    `db:"student_id"`
	AmountCents int64     `db:"amount_cents"`
	Status      string    `db:"status"`
	IssuedAt    time.Time `db:"issued_at"`
	DueAt       time.Time `db:"due_at"`
	PaidAt      null.Time `db:"paid_at"`
}

func (i dbInvoice) toCore() billing.Invoice {
	return billing.Invoice{
		ID:          i.ID,
		StudentID:   i.StudentID,
		AmountCents: i.AmountCents,
		Status:      billing.InvoiceStatus(i.Status),
		IssuedAt:    i.IssuedAt,
		DueAt:       i.DueAt,
		PaidAt:      i.PaidAt.Time,
	}
}

type invoiceRepository struct {
	exec core.DBExecutor
}

var _ billing.Repository = (*invoiceRepository)(nil) // interface compliance check

func NewInvoiceRepository(db *sqlx.DB) *invoiceRepository {
	return &invoiceRepository{exec: db}
}

func (repo invoiceRepository) getInvoices(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) ([]billing.Invoice, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dbInvoices []dbInvoice
	if err = sqlx.StructScan(rows, &dbInvoices); err != nil {
		return nil, err
	}
	invoices := make([]billing.Invoice, 0, len(dbInvoices))
	for _, i := range dbInvoices {
		invoices = append(invoices, i.toCore())
	}
	return invoices, nil
}

func (repo invoiceRepository) CreateInvoice(ctx context.Context, inv billing.Invoice, exec ...core.DBExecutor) (billing.Invoice, error) {
	inv.ID = uuid.New().String()
	query := `INSERT INTO invoice (` + invoiceColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		inv.ID, inv.StudentID, inv.AmountCents, string(inv.Status),
		inv.IssuedAt.UTC(), inv.DueAt.UTC(),
		null.NewTime(inv.PaidAt.UTC(), !inv.PaidAt.IsZero()),
	)
	if err != nil {
		return billing.Invoice{}, errors.Wrap(err, "inserting invoice")
	}
	return inv, nil
}

func (repo invoiceRepository) GetInvoiceByID(ctx context.Context, id string, exec ...core.DBExecutor) (billing.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoice WHERE id = $1`
	invoices, err := repo.getInvoices(ctx, getExec(repo.exec, exec), query, id)
	if err != nil {
		return billing.Invoice{}, errors.Wrap(err, "getting invoice")
	}
	if len(invoices) == 0 {
		return billing.Invoice{}, billing.ErrNotFound
	}
	return invoices[0], nil
}

func (repo invoiceRepository) QueryInvoices(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]billing.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoice`
	var args []interface{}
	if studentID != "" {
		query += ` WHERE student_id = $1`
		args = append(args, studentID)
	}
	query += ` ORDER BY issued_at DESC, id DESC`

	invoices, err := repo.getInvoices(ctx, getExec(repo.exec, exec), query, args...)
	return invoices, errors.Wrap(err, "querying invoices")
}

func (repo invoiceRepository) UpdateInvoice(ctx context.Context, inv billing.Invoice, exec ...core.DBExecutor) (billing.Invoice, error) {
	query := `UPDATE invoice SET amount_cents = $2, status = $3, due_at = $4, paid_at = $5 WHERE id = $1`
	res, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		inv.ID, inv.AmountCents, string(inv.Status),
		inv.DueAt.UTC(),
		null.NewTime(inv.PaidAt.UTC(), !inv.PaidAt.IsZero()),
	)
	if err != nil {
		return billing.Invoice{}, errors.Wrap(err, "updating invoice")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return billing.Invoice{}, billing.ErrNotFound
	}
	return repo.GetInvoiceByID(ctx, inv.ID, exec...)
}
