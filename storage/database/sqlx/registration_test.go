package sqlxrepos_test

import (
	"context"
	"strings"
	"testing"

	"github.com/trezcool/darasa/core/registration"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

func TestCreateApplicationBadDateOfBirth(t *testing.T) {
	// the parse failure must surface before the insert runs; a malformed
	// date is never silently stored as NULL
	repo := sqlxrepos.NewApplicationRepository(nil)
	_, err := repo.CreateApplication(context.Background(), registration.Application{
		Email:       "amina@test.cd",
		DateOfBirth: "14/05/2002",
	})
	if err == nil || !strings.Contains(err.Error(), "parsing date of birth") {
		t.Errorf("CreateApplication() err = %v; expected a date parse failure", err)
	}
}
