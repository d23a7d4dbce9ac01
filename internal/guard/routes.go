package guard

import (
	"net/url"

	"github.com/quicktech-sms/portal/types"
)

// Route is a logical navigation target.
type Route string

const (
	RouteHome      Route = "/"
	RouteLogin     Route = "/login"
	RouteRegister  Route = "/register"
	RouteDashboard Route = "/dashboard"
	RouteProfile   Route = "/profile"
	RouteStudents  Route = "/students"
)

// StudentRoute is the roster detail route for id.
func StudentRoute(id string) Route {
	return RouteStudents + "/" + Route(url.PathEscape(id))
}

// LandingFor is where an authenticated user lands by default.
func LandingFor(role types.Role) Route {
	if role == types.RoleAdmin {
		return RouteStudents
	}
	return RouteDashboard
}

// MenuItem is one entry of the navigation menu.
type MenuItem struct {
	Label string
	Route Route
}

// Menu returns the navigation entries visible to role.
func Menu(role types.Role) []MenuItem {
	items := []MenuItem{{Label: "Dashboard", Route: RouteDashboard}}
	if role == types.RoleAdmin {
		items = append(items, MenuItem{Label: "Students", Route: RouteStudents})
	}
	return append(items, MenuItem{Label: "Profile", Route: RouteProfile})
}
