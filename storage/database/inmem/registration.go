package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/registration"
)

type applicationRepository struct {
	db *applicationTable
}

func NewApplicationRepository(db *DB) registration.Repository {
	return &applicationRepository{db: db.application}
}

func (repo *applicationRepository) query() []registration.Application {
	apps := make([]registration.Application, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		apps = append(apps, *a)
	}
	return apps
}

func (repo *applicationRepository) CreateApplication(ctx context.Context, app registration.Application, exec ...core.DBExecutor) (registration.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	app.ID = uuid.NewString()
	repo.db.table[app.ID] = &app
	return app, nil
}

func (repo *applicationRepository) GetApplicationByID(ctx context.Context, id string, exec ...core.DBExecutor) (registration.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if app, ok := repo.db.table[id]; ok {
		return *app, nil
	}
	return registration.Application{}, registration.ErrNotFound
}

func (repo *applicationRepository) QueryApplications(ctx context.Context, filter *registration.QueryFilter, exec ...core.DBExecutor) ([]registration.Application, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := repo.query()
	if filter != nil && !filter.IsEmpty() {
		matched := apps[:0]
		for _, app := range apps {
			if filter.Matches(app) {
				matched = append(matched, app)
			}
		}
		apps = matched
	}
	// newest first, descending id breaking ties
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ID > apps[j].ID
		}
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
	return apps, nil
}

func (repo *applicationRepository) PendingApplicationExists(ctx context.Context, email string, exec ...core.DBExecutor) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, app := range repo.db.table {
		if app.IsPending() && strings.EqualFold(app.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (repo *applicationRepository) UpdateApplicationStatus(
	ctx context.Context,
	id string,
	status registration.Status,
	reviewedBy string,
	reviewedAt time.Time,
	notes string,
	exec ...core.DBExecutor,
) (registration.Application, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	app, ok := repo.db.table[id]
	if !ok {
		return registration.Application{}, registration.ErrNotFound
	}
	if !app.IsPending() {
		return registration.Application{}, registration.ErrInvalidTransition
	}
	app.Status = status
	app.ReviewedBy = reviewedBy
	app.ReviewedAt = reviewedAt
	app.Notes = notes
	return *app, nil
}
