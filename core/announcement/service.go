package announcement

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var ErrNotFound = errors.New("announcement not found")

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, ann Announcement, exec ...core.DBExecutor) (Announcement, error)
		GetAnnouncementByID(ctx context.Context, id string, exec ...core.DBExecutor) (Announcement, error)
		// QueryAnnouncements returns newest first.
		QueryAnnouncements(ctx context.Context, exec ...core.DBExecutor) ([]Announcement, error)
		DeleteAnnouncementsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, na NewAnnouncement, authorID string) (Announcement, error) {
	ann := Announcement{
		Title:     na.Title,
		Content:   na.Content,
		Priority:  na.Priority,
		Audience:  na.Audience,
		ProgramID: na.ProgramID,
		AuthorID:  authorID,
		StartsAt:  na.StartsAt,
		EndsAt:    na.EndsAt,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateAnnouncement(ctx, ann)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncementByID(ctx, id)
}

// QueryAll returns every announcement regardless of audience; admin only.
func (svc *Service) QueryAll(ctx context.Context) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx)
}

// QueryVisible returns live announcements whose audience includes the role.
func (svc *Service) QueryVisible(ctx context.Context, role user.Role) ([]Announcement, error) {
	anns, err := svc.repo.QueryAnnouncements(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	visible := make([]Announcement, 0, len(anns))
	for _, ann := range anns {
		if ann.Audience.VisibleTo(role) && ann.Live(now) {
			visible = append(visible, ann)
		}
	}
	return visible, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAnnouncementsByID(ctx, ids)
}
