package billing

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound    = errors.New("invoice not found")
	ErrAlreadyPaid = errors.New("invoice has already been paid")
)

type (
	Repository interface {
		CreateInvoice(ctx context.Context, inv Invoice, exec ...core.DBExecutor) (Invoice, error)
		GetInvoiceByID(ctx context.Context, id string, exec ...core.DBExecutor) (Invoice, error)
		// QueryInvoices returns newest first; studentID narrows to one student.
		QueryInvoices(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]Invoice, error)
		UpdateInvoice(ctx context.Context, inv Invoice, exec ...core.DBExecutor) (Invoice, error)
	}

	Service struct {
		repo Repository
		conf *core.Config
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, conf: conf}
}

func (svc *Service) Issue(ctx context.Context, ni NewInvoice) (Invoice, error) {
	now := time.Now().UTC()
	dueAt := ni.DueAt
	if dueAt.IsZero() {
		dueAt = now.Add(svc.conf.InvoiceDueDelta)
	}
	inv := Invoice{
		StudentID:   ni.StudentID,
		AmountCents: ni.AmountCents,
		Status:      InvoicePending,
		IssuedAt:    now,
		DueAt:       dueAt,
	}
	return svc.repo.CreateInvoice(ctx, inv)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Invoice, error) {
	inv, err := svc.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	inv.Status = inv.EffectiveStatus(time.Now().UTC())
	return inv, nil
}

// Query returns all invoices, narrowed to one student when studentID is set.
func (svc *Service) Query(ctx context.Context, studentID string) ([]Invoice, error) {
	invs, err := svc.repo.QueryInvoices(ctx, studentID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range invs {
		invs[i].Status = invs[i].EffectiveStatus(now)
	}
	return invs, nil
}

func (svc *Service) MarkPaid(ctx context.Context, id string) (Invoice, error) {
	inv, err := svc.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Status == InvoicePaid {
		return Invoice{}, ErrAlreadyPaid
	}
	inv.Status = InvoicePaid
	inv.PaidAt = time.Now().UTC()
	return svc.repo.UpdateInvoice(ctx, inv)
}
