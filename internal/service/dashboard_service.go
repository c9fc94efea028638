package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/osms-api/internal/models"
)

type headCounter interface {
	Count(ctx context.Context) (int, error)
}

type activeCourseCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type studentLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

type facultyLookup interface {
	FindByUserID(ctx context.Context, userID string) (*models.FacultyDetail, error)
}

type courseLister interface {
	ListByFaculty(ctx context.Context, facultyID string) ([]models.CourseDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CourseDetail, error)
}

type facultyStudentCounter interface {
	CountStudentsForFaculty(ctx context.Context, facultyID string) (int, error)
}

type activityFeed interface {
	Recent(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

type announcementFeed interface {
	ListForAudience(ctx context.Context, role models.UserRole, department string, limit int) ([]models.Announcement, error)
}

type attendanceSummarizer interface {
	SummaryForStudent(ctx context.Context, studentID string) (*models.AttendanceReport, error)
}

type gradeSummarizer interface {
	SummaryForStudent(ctx context.Context, studentID string) (*models.GradeReport, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL          time.Duration
	ActivityLimit     int
	AnnouncementLimit int
}

// DashboardService composes the per role dashboard payloads.
type DashboardService struct {
	students      headCounter
	faculty       headCounter
	courses       activeCourseCounter
	courseLists   courseLister
	studentLookup studentLookup
	facultyLookup facultyLookup
	roster        facultyStudentCounter
	activity      activityFeed
	announcements announcementFeed
	attendance    attendanceSummarizer
	grades        gradeSummarizer
	cache         *CacheService
	logger        *zap.Logger
	cfg           DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Students      headCounter
	Faculty       headCounter
	Courses       activeCourseCounter
	CourseLists   courseLister
	StudentLookup studentLookup
	FacultyLookup facultyLookup
	Roster        facultyStudentCounter
	Activity      activityFeed
	Announcements announcementFeed
	Attendance    attendanceSummarizer
	Grades        gradeSummarizer
	Cache         *CacheService
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.ActivityLimit <= 0 {
		cfg.ActivityLimit = models.DefaultActivityLimit
	}
	if cfg.AnnouncementLimit <= 0 {
		cfg.AnnouncementLimit = DefaultFeedLimit
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:      params.Students,
		faculty:       params.Faculty,
		courses:       params.Courses,
		courseLists:   params.CourseLists,
		studentLookup: params.StudentLookup,
		facultyLookup: params.FacultyLookup,
		roster:        params.Roster,
		activity:      params.Activity,
		announcements: params.Announcements,
		attendance:    params.Attendance,
		grades:        params.Grades,
		cache:         params.Cache,
		logger:        logger,
		cfg:           cfg,
	}
}

// Admin returns institution counters and indicates cache utilisation.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	summary, hit, err := readThrough(ctx, s.cache, ViewKey(viewAdminDashboard, ""), s.cfg.CacheTTL, s.composeAdmin)
	if err != nil {
		return nil, false, internalError(err, "failed to load admin dashboard")
	}
	return summary, hit, nil
}

func (s *DashboardService) composeAdmin(ctx context.Context) (*models.AdminDashboard, error) {
	students, err := s.students.Count(ctx)
	if err != nil {
		return nil, err
	}
	faculty, err := s.faculty.Count(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.activity.Recent(ctx, s.cfg.ActivityLimit)
	if err != nil {
		return nil, err
	}
	announcements, err := s.announcements.ListForAudience(ctx, models.RoleAdmin, "", s.cfg.AnnouncementLimit)
	if err != nil {
		return nil, err
	}
	// no approval workflow exists, so pending approvals stay at zero
	return &models.AdminDashboard{
		TotalStudents:    students,
		TotalFaculty:     faculty,
		ActiveCourses:    courses,
		PendingApprovals: 0,
		RecentActivity:   recent,
		Announcements:    announcements,
	}, nil
}

// Faculty returns the teaching load of the faculty member owning userID.
func (s *DashboardService) Faculty(ctx context.Context, userID string) (*models.FacultyDashboard, bool, error) {
	member, err := s.facultyLookup.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, lookupError(err, "Faculty profile not found", "failed to load faculty profile")
	}
	summary, hit, err := readThrough(ctx, s.cache, ViewKey(viewFacultyDashboard, userID), s.cfg.CacheTTL, func(ctx context.Context) (*models.FacultyDashboard, error) {
		courses, err := s.courseLists.ListByFaculty(ctx, member.ID)
		if err != nil {
			return nil, err
		}
		students, err := s.roster.CountStudentsForFaculty(ctx, member.ID)
		if err != nil {
			return nil, err
		}
		announcements, err := s.announcements.ListForAudience(ctx, models.RoleFaculty, member.Department, s.cfg.AnnouncementLimit)
		if err != nil {
			return nil, err
		}
		if courses == nil {
			courses = []models.CourseDetail{}
		}
		return &models.FacultyDashboard{
			FullName:      member.User.FullName,
			CourseCount:   len(courses),
			StudentCount:  students,
			Courses:       courses,
			Announcements: announcements,
		}, nil
	})
	if err != nil {
		return nil, false, internalError(err, "failed to load faculty dashboard")
	}
	return summary, hit, nil
}

// Student returns the standing of the student owning userID.
func (s *DashboardService) Student(ctx context.Context, userID string) (*models.StudentDashboard, bool, error) {
	student, err := s.studentLookup.FindByUserID(ctx, userID)
	if err != nil {
		return nil, false, lookupError(err, "Student profile not found", "failed to load student profile")
	}
	summary, hit, err := readThrough(ctx, s.cache, ViewKey(viewStudentDashboard, userID), s.cfg.CacheTTL, func(ctx context.Context) (*models.StudentDashboard, error) {
		courses, err := s.courseLists.ListByStudent(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		attendance, err := s.attendance.SummaryForStudent(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		grades, err := s.grades.SummaryForStudent(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		announcements, err := s.announcements.ListForAudience(ctx, models.RoleStudent, student.Department, s.cfg.AnnouncementLimit)
		if err != nil {
			return nil, err
		}
		credits := 0
		for _, c := range courses {
			credits += c.Credits
		}
		return &models.StudentDashboard{
			FullName:             student.User.FullName,
			EnrollmentNumber:     student.EnrollmentNumber,
			EnrolledCourses:      len(courses),
			TotalCredits:         credits,
			AttendancePercentage: attendance.Overall,
			CGPA:                 grades.CGPA,
			Announcements:        announcements,
		}, nil
	})
	if err != nil {
		return nil, false, internalError(err, "failed to load student dashboard")
	}
	return summary, hit, nil
}
