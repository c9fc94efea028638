package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/osms-api/internal/middleware"
	"github.com/noah-isme/osms-api/internal/models"
	appErrors "github.com/noah-isme/osms-api/pkg/errors"
	"github.com/noah-isme/osms-api/pkg/response"
)

type facultyProfiles interface {
	GetByUser(ctx context.Context, userID string) (*models.FacultyDetail, error)
}

type studentProfiles interface {
	GetByUser(ctx context.Context, userID string) (*models.StudentProfile, error)
}

// requireCaller writes 401 and returns nil when the gate attached no caller.
func requireCaller(c *gin.Context) *models.Caller {
	caller := middleware.CallerFromContext(c)
	if caller == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return caller
}

func callerID(c *gin.Context) string {
	if caller := middleware.CallerFromContext(c); caller != nil {
		return caller.ID
	}
	return ""
}

// currentFaculty resolves the faculty record of the signed in caller.
func currentFaculty(c *gin.Context, profiles facultyProfiles) (*models.FacultyDetail, bool) {
	caller := requireCaller(c)
	if caller == nil {
		return nil, false
	}
	faculty, err := profiles.GetByUser(c.Request.Context(), caller.ID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return faculty, true
}

// currentStudent resolves the student record of the signed in caller.
func currentStudent(c *gin.Context, profiles studentProfiles) (*models.StudentProfile, bool) {
	caller := requireCaller(c)
	if caller == nil {
		return nil, false
	}
	student, err := profiles.GetByUser(c.Request.Context(), caller.ID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return student, true
}

func bindListParams(c *gin.Context) (models.ListParams, bool) {
	var params models.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		invalidPayload(c, err, "invalid query parameters")
		return params, false
	}
	return params, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		invalidPayload(c, err, "invalid payload")
		return false
	}
	return true
}

func invalidPayload(c *gin.Context, err error, message string) {
	response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
}
