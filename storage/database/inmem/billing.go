package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/billing"
)

type invoiceRepository struct {
	db *invoiceTable
}

func NewInvoiceRepository(db *DB) billing.Repository {
	return &invoiceRepository{db: db.invoice}
}

func (repo *invoiceRepository) CreateInvoice(ctx context.Context, inv billing.Invoice, exec ...core.DBExecutor) (billing.Invoice, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	inv.ID = uuid.NewString()
	repo.db.table[inv.ID] = &inv
	return inv, nil
}

func (repo *invoiceRepository) GetInvoiceByID(ctx context.Context, id string, exec ...core.DBExecutor) (billing.Invoice, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if inv, ok := repo.db.table[id]; ok {
		return *inv, nil
	}
	return billing.Invoice{}, billing.ErrNotFound
}

func (repo *invoiceRepository) QueryInvoices(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]billing.Invoice, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	invs := make([]billing.Invoice, 0, len(repo.db.table))
	for _, inv := range repo.db.table {
		if studentID == "" || inv.StudentID == studentID {
			invs = append(invs, *inv)
		}
	}
	sort.Slice(invs, func(i, j int) bool {
		if invs[i].IssuedAt.Equal(invs[j].IssuedAt) {
			return invs[i].ID > invs[j].ID
		}
		return invs[i].IssuedAt.After(invs[j].IssuedAt)
	})
	return invs, nil
}

func (repo *invoiceRepository) UpdateInvoice(ctx context.Context, inv billing.Invoice, exec ...core.DBExecutor) (billing.Invoice, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[inv.ID]; !ok {
		return billing.Invoice{}, billing.ErrNotFound
	}
	repo.db.table[inv.ID] = &inv
	return inv, nil
}
