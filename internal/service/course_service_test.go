package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
	"github.com/noah-isme/osms-api/internal/repository"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type fakeCourseStore struct {
	courses   map[string]models.CourseDetail
	created   []models.Course
	createErr error
}

func newFakeCourseStore(courses ...models.CourseDetail) *fakeCourseStore {
	store := &fakeCourseStore{courses: map[string]models.CourseDetail{}}
	for _, c := range courses {
		store.courses[c.ID] = c
	}
	return store
}

func (f *fakeCourseStore) List(context.Context, models.ListParams) ([]models.CourseDetail, int, error) {
	rows := make([]models.CourseDetail, 0, len(f.courses))
	for _, c := range f.courses {
		rows = append(rows, c)
	}
	return rows, len(rows), nil
}

func (f *fakeCourseStore) FindByID(_ context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := f.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseStore) ListByFaculty(_ context.Context, facultyID string) ([]models.CourseDetail, error) {
	var rows []models.CourseDetail
	for _, c := range f.courses {
		if c.FacultyID != nil && *c.FacultyID == facultyID {
			rows = append(rows, c)
		}
	}
	return rows, nil
}

func (f *fakeCourseStore) ListByStudent(context.Context, string) ([]models.CourseDetail, error) {
	return nil, nil
}

func (f *fakeCourseStore) Create(_ context.Context, course *models.Course) error {
	if f.createErr != nil {
		return f.createErr
	}
	course.ID = "c-" + course.Code
	f.created = append(f.created, *course)
	return nil
}

type fakeRoster struct {
	entries []models.CourseRosterEntry
}

func (f *fakeRoster) Roster(context.Context, string) ([]models.CourseRosterEntry, error) {
	return f.entries, nil
}

func strPtr(s string) *string { return &s }

func TestCourseServiceCreateDefaultsCapacity(t *testing.T) {
	store := newFakeCourseStore()
	cache := newFakeCacheRepo()
	svc := NewCourseService(store, &fakeRoster{}, NewCacheService(cache, nil, time.Minute, zap.NewNop(), true), nil, nil, zap.NewNop())

	course, err := svc.Create(context.Background(), "admin-1", CreateCourseRequest{
		Code: "CS201", Name: "Algorithms", Credits: 4, Department: "Computer Science", Semester: 3, Year: 2024,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMaxStudents, course.MaxStudents)
	assert.Equal(t, models.CourseStatusActive, course.Status)
	assert.Nil(t, course.FacultyID)
	assert.Contains(t, cache.patterns, "osms:view:/admin/courses*")
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	store := newFakeCourseStore()
	store.createErr = repository.ErrDuplicate
	svc := NewCourseService(store, &fakeRoster{}, nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), "admin-1", CreateCourseRequest{
		Code: "CS201", Name: "Algorithms", Credits: 4, Department: "CS", Semester: 3, Year: 2024, MaxStudents: 30,
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCourseServiceRosterChecksOwnership(t *testing.T) {
	store := newFakeCourseStore(models.CourseDetail{Course: models.Course{ID: "c1", FacultyID: strPtr("f1")}})
	roster := &fakeRoster{entries: []models.CourseRosterEntry{{StudentID: "s1"}}}
	svc := NewCourseService(store, roster, nil, nil, nil, zap.NewNop())

	entries, err := svc.Roster(context.Background(), "f1", "c1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.Roster(context.Background(), "f2", "c1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)

	_, err = svc.Roster(context.Background(), "", "c1")
	assert.NoError(t, err)
}

func TestCourseServiceListForFaculty(t *testing.T) {
	store := newFakeCourseStore(
		models.CourseDetail{Course: models.Course{ID: "c1", FacultyID: strPtr("f1")}},
		models.CourseDetail{Course: models.Course{ID: "c2"}},
	)
	svc := NewCourseService(store, &fakeRoster{}, nil, nil, nil, zap.NewNop())

	courses, err := svc.ListForFaculty(context.Background(), "f1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "c1", courses[0].ID)
}
