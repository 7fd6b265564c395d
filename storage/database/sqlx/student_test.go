package sqlxrepos_test

import (
	"context"
	"strings"
	"testing"

	"github.com/trezcool/darasa/core/student"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

func TestStudentBadDateOfBirth(t *testing.T) {
	ctx := context.Background()
	repo := sqlxrepos.NewStudentRepository(nil)
	std := student.Student{UserID: "u-1", DateOfBirth: "14/05/2002"}

	if _, err := repo.CreateStudent(ctx, std); err == nil || !strings.Contains(err.Error(), "parsing date of birth") {
		t.Errorf("CreateStudent() err = %v; expected a date parse failure", err)
	}
	if _, err := repo.UpdateStudent(ctx, std); err == nil || !strings.Contains(err.Error(), "parsing date of birth") {
		t.Errorf("UpdateStudent() err = %v; expected a date parse failure", err)
	}
}
