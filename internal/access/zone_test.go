package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/osms-api/internal/models"
)

func TestClassify(t *testing.T) {
	cases := map[string]Zone{
		"/":                     ZonePublic,
		"/about":                ZonePublic,
		"/students":             ZonePublic,
		"/administrator":        ZonePublic,
		"/auth":                 ZoneAuth,
		"/auth/login":           ZoneAuth,
		"/auth/callback":        ZoneAuth,
		"/admin":                ZoneAdmin,
		"/admin/students/add":   ZoneAdmin,
		"/faculty/attendance":   ZoneFaculty,
		"/student/grades":       ZoneStudent,
		"/student":              ZoneStudent,
		"/faculty-handbook.pdf": ZonePublic,
	}
	for path, want := range cases {
		assert.Equal(t, want, Classify(path), path)
	}
}

func TestProtected(t *testing.T) {
	assert.True(t, ZoneAdmin.Protected())
	assert.True(t, ZoneFaculty.Protected())
	assert.True(t, ZoneStudent.Protected())
	assert.False(t, ZoneAuth.Protected())
	assert.False(t, ZonePublic.Protected())
}

func TestIsLogout(t *testing.T) {
	assert.True(t, IsLogout("/auth/logout"))
	assert.True(t, IsLogout("/auth/signout"))
	assert.False(t, IsLogout("/auth/login"))
	assert.False(t, IsLogout("/auth/logouts"))
}

func TestDashboardPaths(t *testing.T) {
	assert.Equal(t, "/admin/dashboard", DashboardPath(models.RoleAdmin))
	assert.Equal(t, "/faculty/dashboard", DashboardPath(models.RoleFaculty))
	assert.Equal(t, "/student/dashboard", DashboardPath(models.RoleStudent))
	assert.Equal(t, "/student", ZoneRoot(models.UserRole("")))
}

func TestLandingPath(t *testing.T) {
	cases := []struct {
		target string
		role   models.UserRole
		want   string
	}{
		{"/faculty/grades?course=c1", models.RoleFaculty, "/faculty/grades?course=c1"},
		{"/admin/students", models.RoleFaculty, "/faculty/dashboard"},
		{"", models.RoleStudent, "/student/dashboard"},
		{"//evil.example/student", models.RoleStudent, "/student/dashboard"},
		{"https://evil.example/student", models.RoleStudent, "/student/dashboard"},
		{"/auth/login", models.RoleAdmin, "/admin/dashboard"},
		{"/students", models.RoleStudent, "/student/dashboard"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LandingPath(tc.target, tc.role), tc.target)
	}
}
