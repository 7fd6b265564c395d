package billing

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
)

// InvoiceStatus is the payment state of an Invoice. Overdue is derived from
// the due date at read time and never stored.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

type Invoice struct {
	ID          string        `json:"id"`
	StudentID   string        `json:"student_id"`
	AmountCents int64         `json:"amount_cents"`
	Status      InvoiceStatus `json:"status"`
	IssuedAt    time.Time     `json:"issued_at"` // UTC
	DueAt       time.Time     `json:"due_at"`    // UTC
	PaidAt      time.Time     `json:"paid_at,omitempty"`
}

// EffectiveStatus derives the status at t: an unpaid invoice past its due
// date is overdue.
func (inv Invoice) EffectiveStatus(t time.Time) InvoiceStatus {
	if inv.Status == InvoicePending && t.After(inv.DueAt) {
		return InvoiceOverdue
	}
	return inv.Status
}

// NewInvoice contains information needed to issue a new Invoice.
type NewInvoice struct {
	StudentID   string    `json:"student_id" validate:"required"`
	AmountCents int64     `json:"amount_cents" validate:"required,min=1"`
	DueAt       time.Time `json:"due_at"`
}

func (ni NewInvoice) Validate(ctx context.Context, validate *validator.Validate) error {
	return validate.StructCtx(ctx, ni)
}
