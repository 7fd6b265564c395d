package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/announcement"
)

type announcementRepository struct {
	db *announcementTable
}

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{db: db.announcement}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ann.ID = uuid.NewString()
	repo.db.table[ann.ID] = &ann
	return ann, nil
}

func (repo *announcementRepository) GetAnnouncementByID(ctx context.Context, id string, exec ...core.DBExecutor) (announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ann, ok := repo.db.table[id]; ok {
		return *ann, nil
	}
	return announcement.Announcement{}, announcement.ErrNotFound
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, exec ...core.DBExecutor) ([]announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	anns := make([]announcement.Announcement, 0, len(repo.db.table))
	for _, ann := range repo.db.table {
		anns = append(anns, *ann)
	}
	sort.Slice(anns, func(i, j int) bool {
		if anns[i].CreatedAt.Equal(anns[j].CreatedAt) {
			return anns[i].ID > anns[j].ID
		}
		return anns[i].CreatedAt.After(anns[j].CreatedAt)
	})
	return anns, nil
}

func (repo *announcementRepository) DeleteAnnouncementsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
