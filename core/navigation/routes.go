// Package navigation maps each account role to the set of dashboard views it
// may open. Resolution is pure: no stored state, no side effects.
package navigation

import (
	"strings"

	"github.com/trezcool/darasa/core/user"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Route is a navigable view within a role's portal.
type Route struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

var (
	adminRoutes = []Route{
		{Path: DashboardPath, Name: "Dashboard"},
		{Path: "/registrations", Name: "Registrations"},
		{Path: "/students", Name: "Students"},
		{Path: "/programs", Name: "Programs"},
		{Path: "/attendance", Name: "Attendance"},
		{Path: "/finance", Name: "Finance"},
		{Path: "/announcements", Name: "Announcements"},
		{Path: "/settings", Name: "Settings"},
	}
	teacherRoutes = []Route{
		{Path: DashboardPath, Name: "Dashboard"},
		{Path: "/quizzes", Name: "Quizzes"},
		{Path: "/students", Name: "Students"},
		{Path: "/announcements", Name: "Announcements"},
		{Path: "/settings", Name: "Settings"},
	}
	studentRoutes = []Route{
		{Path: DashboardPath, Name: "Dashboard"},
		{Path: "/grades", Name: "Grades"},
		{Path: "/invoices", Name: "Invoices"},
		{Path: "/announcements", Name: "Announcements"},
		{Path: "/settings", Name: "Settings"},
	}
)

// Routes returns the nav menu for a role. Unknown roles get no routes.
func Routes(role user.Role) []Route {
	var src []Route
	switch role {
	case user.RoleAdmin:
		src = adminRoutes
	case user.RoleTeacher:
		src = teacherRoutes
	case user.RoleStudent:
		src = studentRoutes
	default:
		return nil
	}
	routes := make([]Route, len(src))
	copy(routes, src)
	return routes
}

// Resolution is the outcome of resolving a requested path for a role.
type Resolution struct {
	Path     string `json:"path"`
	Redirect bool   `json:"redirect"`
}

// Resolve decides which view a role lands on for a requested path.
// A path outside the role's table redirects to the role's dashboard; an
// unknown or anonymous role redirects to login. Only the first path segment
// is significant.
func Resolve(role user.Role, path string) Resolution {
	if !role.IsValid() {
		return Resolution{Path: LoginPath, Redirect: true}
	}
	base := basePath(path)
	for _, r := range Routes(role) {
		if r.Path == base {
			return Resolution{Path: r.Path}
		}
	}
	return Resolution{Path: DashboardPath, Redirect: true}
}

func basePath(path string) string {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return DashboardPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if idx := strings.Index(path[1:], "/"); idx >= 0 {
		path = path[:idx+1]
	}
	return path
}
