package access

import (
	"net/url"

	"github.com/noah-isme/osms-api/internal/models"
)

// BackendNotConfiguredMessage is shown on the login page when the backend is unavailable.
const BackendNotConfiguredMessage = "Please configure the backend URL and key in your .env file"

// Outcome is what the gate does with a request.
type Outcome int

const (
	Continue Outcome = iota
	Redirect
)

// Input is everything the gate knows about a request.
type Input struct {
	Path          string
	Configured    bool
	Authenticated bool
	// Role is the effective role; only meaningful when Authenticated.
	Role models.UserRole
}

// Decision is the gate's verdict for a request.
type Decision struct {
	Outcome  Outcome
	Location string
	Reason   string
}

// Decide applies the zone rules to a request.
func Decide(in Input) Decision {
	zone := Classify(in.Path)

	if !in.Configured {
		if zone.Protected() {
			return redirect(LoginPath+"?"+url.Values{"error": {BackendNotConfiguredMessage}}.Encode(), "backend_unconfigured")
		}
		return Decision{Outcome: Continue}
	}

	if !in.Authenticated {
		if zone.Protected() {
			return redirect(LoginPath+"?"+url.Values{"redirect": {in.Path}}.Encode(), "unauthenticated")
		}
		return Decision{Outcome: Continue}
	}

	if zone == ZoneAuth && !IsLogout(in.Path) {
		return redirect(DashboardPath(in.Role), "already_authenticated")
	}

	if zone.Protected() && zone != ZoneForRole(in.Role) {
		return redirect(DashboardPath(in.Role), "wrong_zone")
	}

	return Decision{Outcome: Continue}
}

// NeedsRole reports whether Decide will consult the caller's role for path.
func NeedsRole(path string) bool {
	zone := Classify(path)
	return zone.Protected() || (zone == ZoneAuth && !IsLogout(path))
}

func redirect(location, reason string) Decision {
	return Decision{Outcome: Redirect, Location: location, Reason: reason}
}
