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
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
)

type fakeEnrollmentStore struct {
	enrollments map[string]*models.Enrollment
	enrolled    int
	updates     map[string]models.EnrollmentStatus
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{enrollments: map[string]*models.Enrollment{}, updates: map[string]models.EnrollmentStatus{}}
}

func (f *fakeEnrollmentStore) Create(_ context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = "e-" + enrollment.StudentID + "-" + enrollment.CourseID
	f.enrollments[enrollment.StudentID+"/"+enrollment.CourseID] = enrollment
	return nil
}

func (f *fakeEnrollmentStore) Find(_ context.Context, studentID, courseID string) (*models.Enrollment, error) {
	if e, ok := f.enrollments[studentID+"/"+courseID]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentStore) UpdateStatus(_ context.Context, id string, status models.EnrollmentStatus) error {
	f.updates[id] = status
	return nil
}

func (f *fakeEnrollmentStore) CountEnrolled(context.Context, string) (int, error) {
	return f.enrolled, nil
}

func newEnrollmentFixture(course models.CourseDetail) (*EnrollmentService, *fakeEnrollmentStore) {
	students := newFakeStudentStore()
	students.students["s1"] = models.StudentDetail{Student: models.Student{ID: "s1", EnrollmentNumber: "UU202400001"}}
	store := newFakeEnrollmentStore()
	svc := NewEnrollmentService(store, students, newFakeCourseStore(course), nil, nil, nil, zap.NewNop())
	return svc, store
}

func activeCourse(max int) models.CourseDetail {
	return models.CourseDetail{Course: models.Course{ID: "c1", Code: "CS201", Status: models.CourseStatusActive, MaxStudents: max}}
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	svc, store := newEnrollmentFixture(activeCourse(60))

	enrollment, err := svc.Enroll(context.Background(), "admin-1", EnrollStudentRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.Len(t, store.enrollments, 1)

	_, err = svc.Enroll(context.Background(), "admin-1", EnrollStudentRequest{StudentID: "s1", CourseID: "c1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestEnrollmentServiceRejectsFullCourse(t *testing.T) {
	svc, store := newEnrollmentFixture(activeCourse(2))
	store.enrolled = 2

	_, err := svc.Enroll(context.Background(), "admin-1", EnrollStudentRequest{StudentID: "s1", CourseID: "c1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "course is full", appErr.Message)
}

func TestEnrollmentServiceRejectsInactiveCourse(t *testing.T) {
	course := activeCourse(60)
	course.Status = models.CourseStatusArchived
	svc, _ := newEnrollmentFixture(course)

	_, err := svc.Enroll(context.Background(), "admin-1", EnrollStudentRequest{StudentID: "s1", CourseID: "c1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestEnrollmentServiceReactivatesDropped(t *testing.T) {
	svc, store := newEnrollmentFixture(activeCourse(60))
	store.enrollments["s1/c1"] = &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusDropped}

	enrollment, err := svc.Enroll(context.Background(), "admin-1", EnrollStudentRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "e1", enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusEnrolled, store.updates["e1"])
}

func TestEnrollmentServiceDropInvalidatesStudentSummaries(t *testing.T) {
	students := newFakeStudentStore()
	store := newFakeEnrollmentStore()
	store.enrollments["s1/c1"] = &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusEnrolled}
	cacheRepo := newFakeCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	require.NoError(t, cache.Set(context.Background(), ViewKey("/student/grades", "u1"), 1, 0))
	require.NoError(t, cache.Set(context.Background(), ViewKey("/student/attendance", "u1"), 1, 0))
	svc := NewEnrollmentService(store, students, newFakeCourseStore(activeCourse(60)), cache, nil, nil, zap.NewNop())

	require.NoError(t, svc.Drop(context.Background(), "admin-1", "s1", "c1"))
	assert.Contains(t, cacheRepo.patterns, ViewKeyPrefix+"/student/grades*")
	assert.Contains(t, cacheRepo.patterns, ViewKeyPrefix+"/student/attendance*")
	assert.Empty(t, cacheRepo.keys())
}

func TestEnrollmentServiceDrop(t *testing.T) {
	svc, store := newEnrollmentFixture(activeCourse(60))
	store.enrollments["s1/c1"] = &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusEnrolled}

	require.NoError(t, svc.Drop(context.Background(), "admin-1", "s1", "c1"))
	assert.Equal(t, models.EnrollmentStatusDropped, store.updates["e1"])

	err := svc.Drop(context.Background(), "admin-1", "s1", "c2")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
