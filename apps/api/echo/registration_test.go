package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/registration"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

func (env *testEnv) submitApplication(t *testing.T, email, programID string) registration.Application {
	t.Helper()

	body := marshallObj(t, registration.NewApplication{
		Email:           email,
		FirstName:       "Kwame",
		LastName:        "Ilunga",
		Password:        "[a4FKkfPNN3",
		PasswordConfirm: "[a4FKkfPNN3",
		Role:            user.RoleStudent,
		ProgramID:       programID,
	})
	req, rec := newRequest(http.MethodPost, "/v1/registrations", body)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submitApplication() failed: code = %v; body = %s", rec.Code, rec.Body.String())
	}

	var app registration.Application
	if err := json.Unmarshal(rec.Body.Bytes(), &app); err != nil {
		t.Fatalf("submitApplication() failed: %v", err)
	}
	return app
}

func TestRegistrationAPI_submit(t *testing.T) {
	env := setup(t)
	prg := testutil.CreateProgram(t, env.prgRepo, "Informatique", 30)

	app := env.submitApplication(t, "kwame@test.cd", prg.ID)
	if app.ID == "" {
		t.Error("expected an ID to be set")
	}
	if app.Status != registration.StatusPending {
		t.Errorf("Status = %v, want %v", app.Status, registration.StatusPending)
	}

	tests := []httpTest{
		{
			name:     "missing fields",
			body:     marshallObj(t, registration.NewApplication{Email: "a@test.cd"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate pending email",
			body: marshallObj(t, registration.NewApplication{
				Email:           "kwame@test.cd",
				FirstName:       "Kwame",
				LastName:        "Ilunga",
				Password:        "[a4FKkfPNN3",
				PasswordConfirm: "[a4FKkfPNN3",
				Role:            user.RoleStudent,
				ProgramID:       prg.ID,
			}),
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: registration.ErrDuplicateEmail.Error()}),
		},
		{
			name: "unknown program",
			body: marshallObj(t, registration.NewApplication{
				Email:           "aisha@test.cd",
				FirstName:       "Aisha",
				LastName:        "Kalala",
				Password:        "[a4FKkfPNN3",
				PasswordConfirm: "[a4FKkfPNN3",
				Role:            user.RoleStudent,
				ProgramID:       "deadbeef",
			}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/registrations", tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestRegistrationAPI_adminOnly(t *testing.T) {
	env := setup(t)
	prg := testutil.CreateProgram(t, env.prgRepo, "Informatique", 30)
	app := env.submitApplication(t, "kwame@test.cd", prg.ID)

	admin := testutil.CreateUser(t, env.usrRepo, "Ada", "Mwamba", "admin@darasa.cd", "LePassword243", user.RoleAdmin, true)
	std := testutil.CreateUser(t, env.usrRepo, "Kali", "Mutombo", "kali@darasa.cd", "LePassword243", user.RoleStudent, true)
	adminToken := env.getToken(t, admin)
	stdToken := env.getToken(t, std)

	tests := []httpTest{
		{
			name:     "list: anonymous",
			method:   http.MethodGet,
			path:     "/v1/registrations",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "list: student forbidden",
			method:   http.MethodGet,
			path:     "/v1/registrations",
			token:    stdToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "list: admin",
			method:   http.MethodGet,
			path:     "/v1/registrations",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "retrieve: unknown id",
			method:   http.MethodGet,
			path:     "/v1/registrations/deadbeef",
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: registration.ErrNotFound.Error()}),
		},
		{
			name:     "approve: student forbidden",
			method:   http.MethodPost,
			path:     fmt.Sprintf("/v1/registrations/%s/approve", app.ID),
			token:    stdToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "approve: admin",
			method:   http.MethodPost,
			path:     fmt.Sprintf("/v1/registrations/%s/approve", app.ID),
			body:     marshallObj(t, ReviewRequest{Notes: "karibu"}),
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "approve: already decided",
			method:   http.MethodPost,
			path:     fmt.Sprintf("/v1/registrations/%s/approve", app.ID),
			token:    adminToken,
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: registration.ErrInvalidTransition.Error()}),
		},
		{
			name:     "reject: already decided",
			method:   http.MethodPost,
			path:     fmt.Sprintf("/v1/registrations/%s/reject", app.ID),
			token:    adminToken,
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: registration.ErrInvalidTransition.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the approval must have provisioned the identity and the extension
	ctx := context.Background()
	usr, err := env.usrRepo.GetUserByEmail(ctx, "kwame@test.cd")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed: %v", err)
	}
	if usr.Role != user.RoleStudent {
		t.Errorf("Role = %v, want %v", usr.Role, user.RoleStudent)
	}
	if _, err = env.stdRepo.GetStudentByUserID(ctx, usr.ID); err != nil {
		t.Errorf("GetStudentByUserID() failed: %v", err)
	}
	if reviewed, err := env.appRepo.GetApplicationByID(ctx, app.ID); err != nil {
		t.Errorf("GetApplicationByID() failed: %v", err)
	} else {
		if reviewed.Status != registration.StatusApproved {
			t.Errorf("Status = %v, want %v", reviewed.Status, registration.StatusApproved)
		}
		if reviewed.ReviewedBy != admin.ID {
			t.Errorf("ReviewedBy = %v, want %v", reviewed.ReviewedBy, admin.ID)
		}
		if reviewed.Notes != "karibu" {
			t.Errorf("Notes = %v, want %v", reviewed.Notes, "karibu")
		}
	}
}
