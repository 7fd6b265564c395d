package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/announcement"
)

const announcementColumns = `id, title, content, priority, audience, program_id, author_id, starts_at, ends_at, created_at`

type dbAnnouncement struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	Content   string      `db:"content"`
	Priority  string      `db:"priority"`
	Audience  string      `db:"audience"`
	ProgramID null.String `db:"program_id"`
	AuthorID  null.String `db:"author_id"`
	StartsAt  null.Time   `db:"starts_at"`
	EndsAt    null.Time   `db:"ends_at"`
	CreatedAt time.Time   `db:"created_at"`
}

func (a dbAnnouncement) toCore() announcement.Announcement {
	return announcement.Announcement{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		Priority:  announcement.Priority(a.Priority),
		Audience:  announcement.Audience(a.Audience),
		ProgramID: a.ProgramID.String,
		AuthorID:  a.AuthorID.String,
		StartsAt:  a.StartsAt.Time,
		EndsAt:    a.EndsAt.Time,
		CreatedAt: a.CreatedAt,
	}
}

type announcementRepository struct {
	exec core.DBExecutor
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) *announcementRepository {
	return &announcementRepository{exec: db}
}

func (repo announcementRepository) getAnnouncements(ctx context.Context, exec core.DBExecutor, query string, args ...interface{}) ([]announcement.Announcement, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dbAnns []dbAnnouncement
	if err = sqlx.StructScan(rows, &dbAnns); err != nil {
		return nil, err
	}
	anns := make([]announcement.Announcement, 0, len(dbAnns))
	for _, a := range dbAnns {
		anns = append(anns, a.toCore())
	}
	return anns, nil
}

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	ann.ID = uuid.New().String()
	query := `INSERT INTO announcement (` + announcementColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		ann.ID, ann.Title, ann.Content,
		string(ann.Priority), string(ann.Audience),
		null.NewString(ann.ProgramID, ann.ProgramID != ""),
		null.NewString(ann.AuthorID, ann.AuthorID != ""),
		null.NewTime(ann.StartsAt.UTC(), !ann.StartsAt.IsZero()),
		null.NewTime(ann.EndsAt.UTC(), !ann.EndsAt.IsZero()),
		ann.CreatedAt.UTC(),
	)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return ann, nil
}

func (repo announcementRepository) GetAnnouncementByID(ctx context.Context, id string, exec ...core.DBExecutor) (announcement.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcement WHERE id = $1`
	anns, err := repo.getAnnouncements(ctx, getExec(repo.exec, exec), query, id)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "getting announcement")
	}
	if len(anns) == 0 {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	return anns[0], nil
}

func (repo announcementRepository) QueryAnnouncements(ctx context.Context, exec ...core.DBExecutor) ([]announcement.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcement ORDER BY created_at DESC, id DESC`
	anns, err := repo.getAnnouncements(ctx, getExec(repo.exec, exec), query)
	return anns, errors.Wrap(err, "querying announcements")
}

func (repo announcementRepository) DeleteAnnouncementsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM announcement WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = getExec(repo.exec, exec).ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, q), args...)
	return errors.Wrap(err, "deleting announcements")
}
