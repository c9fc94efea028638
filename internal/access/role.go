package access

import (
	"strings"

	"github.com/noah-isme/osms-api/internal/models"
)

// OverrideSet holds emails that always resolve to the admin role.
type OverrideSet map[string]struct{}

// NewOverrideSet normalises the configured override emails.
func NewOverrideSet(emails []string) OverrideSet {
	set := make(OverrideSet, len(emails))
	for _, email := range emails {
		email = normaliseEmail(email)
		if email != "" {
			set[email] = struct{}{}
		}
	}
	return set
}

// Contains reports whether email is an override address, ignoring case.
func (s OverrideSet) Contains(email string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[normaliseEmail(email)]
	return ok
}

// ResolveEffectiveRole returns the role a caller acts as. Override emails are
// always admin; otherwise the stored role is used, falling back to student
// when it is missing or unknown.
func ResolveEffectiveRole(stored string, email string, overrides OverrideSet) models.UserRole {
	if overrides.Contains(email) {
		return models.RoleAdmin
	}
	role := models.UserRole(strings.ToLower(strings.TrimSpace(stored)))
	if role.Valid() {
		return role
	}
	return models.RoleStudent
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
