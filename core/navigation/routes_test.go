package navigation_test

import (
	"testing"

	"github.com/trezcool/darasa/core/navigation"
	"github.com/trezcool/darasa/core/user"
)

func TestRoutes(t *testing.T) {
	tests := []struct {
		name  string
		role  user.Role
		paths []string
	}{
		{
			name: "admin",
			role: user.RoleAdmin,
			paths: []string{
				"/dashboard", "/registrations", "/students", "/programs",
				"/attendance", "/finance", "/announcements", "/settings",
			},
		},
		{
			name:  "teacher",
			role:  user.RoleTeacher,
			paths: []string{"/dashboard", "/quizzes", "/students", "/announcements", "/settings"},
		},
		{
			name:  "student",
			role:  user.RoleStudent,
			paths: []string{"/dashboard", "/grades", "/invoices", "/announcements", "/settings"},
		},
		{
			name: "unknown role",
			role: user.Role("principal"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes := navigation.Routes(tt.role)
			if len(routes) != len(tt.paths) {
				t.Fatalf("Routes(%q) returned %d routes; expected %d", tt.role, len(routes), len(tt.paths))
			}
			for i, r := range routes {
				if r.Path != tt.paths[i] {
					t.Errorf("Routes(%q)[%d].Path = %q; expected %q", tt.role, i, r.Path, tt.paths[i])
				}
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		role     user.Role
		path     string
		expected navigation.Resolution
	}{
		{"admin allowed", user.RoleAdmin, "/finance", navigation.Resolution{Path: "/finance"}},
		{"admin nested path", user.RoleAdmin, "/students/42/profile", navigation.Resolution{Path: "/students"}},
		{"admin trailing slash", user.RoleAdmin, "/programs/", navigation.Resolution{Path: "/programs"}},
		{"student denied admin view", user.RoleStudent, "/finance", navigation.Resolution{Path: "/dashboard", Redirect: true}},
		{"teacher denied student view", user.RoleTeacher, "/invoices", navigation.Resolution{Path: "/dashboard", Redirect: true}},
		{"student allowed", user.RoleStudent, "/invoices", navigation.Resolution{Path: "/invoices"}},
		{"unknown path", user.RoleTeacher, "/bogus", navigation.Resolution{Path: "/dashboard", Redirect: true}},
		{"root path", user.RoleAdmin, "/", navigation.Resolution{Path: "/dashboard"}},
		{"anonymous", user.Role(""), "/dashboard", navigation.Resolution{Path: "/login", Redirect: true}},
		{"unknown role", user.Role("principal"), "/dashboard", navigation.Resolution{Path: "/login", Redirect: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := navigation.Resolve(tt.role, tt.path); res != tt.expected {
				t.Errorf("Resolve(%q, %q) = %+v; expected %+v", tt.role, tt.path, res, tt.expected)
			}
		})
	}
}
