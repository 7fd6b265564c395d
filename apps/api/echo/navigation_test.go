package echoapi

import (
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/navigation"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

func TestNavigationAPI(t *testing.T) {
	env := setup(t)

	admin := testutil.CreateUser(t, env.usrRepo, "Ada", "Mwamba", "admin@darasa.cd", "LePassword243", user.RoleAdmin, true)
	std := testutil.CreateUser(t, env.usrRepo, "Kali", "Mutombo", "kali@darasa.cd", "LePassword243", user.RoleStudent, true)
	adminToken := env.getToken(t, admin)
	stdToken := env.getToken(t, std)

	tests := []httpTest{
		{
			name:     "routes: anonymous",
			path:     "/v1/navigation",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "routes: admin",
			path:     "/v1/navigation",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, navigation.Routes(user.RoleAdmin)),
		},
		{
			name:     "routes: student",
			path:     "/v1/navigation",
			token:    stdToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, navigation.Routes(user.RoleStudent)),
		},
		{
			name:     "resolve: admin keeps finance",
			path:     "/v1/navigation/resolve?path=/finance",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, navigation.Resolution{Path: "/finance"}),
		},
		{
			name:     "resolve: student redirected off finance",
			path:     "/v1/navigation/resolve?path=/finance",
			token:    stdToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, navigation.Resolution{Path: navigation.DashboardPath, Redirect: true}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
