// Package access classifies request paths into zones and decides whether a
// caller may reach them.
package access

import (
	"strings"

	"github.com/noah-isme/osms-api/internal/models"
)

// Zone groups pages by the role they are intended for.
type Zone string

const (
	ZonePublic  Zone = "public"
	ZoneAuth    Zone = "auth"
	ZoneAdmin   Zone = "admin"
	ZoneFaculty Zone = "faculty"
	ZoneStudent Zone = "student"
)

// LoginPath is where unauthenticated callers are sent.
const LoginPath = "/auth/login"

var zonePrefixes = []struct {
	prefix string
	zone   Zone
}{
	{"/auth", ZoneAuth},
	{"/admin", ZoneAdmin},
	{"/faculty", ZoneFaculty},
	{"/student", ZoneStudent},
}

// Classify maps a request path to its zone. Prefixes match whole segments,
// so "/students" is public while "/student/grades" is in the student zone.
func Classify(path string) Zone {
	for _, p := range zonePrefixes {
		if hasSegmentPrefix(path, p.prefix) {
			return p.zone
		}
	}
	return ZonePublic
}

// Protected reports whether the zone requires an authenticated caller.
func (z Zone) Protected() bool {
	switch z {
	case ZoneAdmin, ZoneFaculty, ZoneStudent:
		return true
	default:
		return false
	}
}

// IsLogout reports whether the path is a sign out endpoint.
func IsLogout(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if segment == "logout" || segment == "signout" {
			return true
		}
	}
	return false
}

// ZoneForRole returns the zone a role belongs to.
func ZoneForRole(role models.UserRole) Zone {
	switch role {
	case models.RoleAdmin:
		return ZoneAdmin
	case models.RoleFaculty:
		return ZoneFaculty
	default:
		return ZoneStudent
	}
}

// ZoneRoot returns the path prefix of a role's zone.
func ZoneRoot(role models.UserRole) string {
	return "/" + string(ZoneForRole(role))
}

// DashboardPath returns the landing page of a role.
func DashboardPath(role models.UserRole) string {
	return ZoneRoot(role) + "/dashboard"
}

// LandingPath returns target when it is a local path inside the role's own
// zone, and the role's dashboard otherwise.
func LandingPath(target string, role models.UserRole) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return DashboardPath(role)
	}
	path := target
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if Classify(path) != ZoneForRole(role) {
		return DashboardPath(role)
	}
	return target
}

func hasSegmentPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || rest[0] == '/'
}
