package admin

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/middleware"
	"github.com/codeatlas/codeatlas/internal/pkg/logger"
)

// ExportUsers handles GET /admin/users/export. The stored password hash is
// never part of an export.
func (p *Panel) ExportUsers(c *gin.Context) {
	users, _, err := p.repos.UserRepository.Browse(c.Request.Context(), repositories.PageQuery{})
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	if exportFormat(c) == "json" {
		c.JSON(http.StatusOK, users)
		return
	}

	header := []string{"id", "username", "email", "first_name", "last_name", "created_at", "updated_at"}
	writeCSV(c, "users", header, len(users), func(i int) []string {
		u := users[i]
		return []string{
			strconv.FormatInt(u.ID, 10),
			u.Username,
			u.Email,
			derefString(u.FirstName),
			derefString(u.LastName),
			formatTime(u.CreatedAt),
			formatTime(u.UpdatedAt),
		}
	})
}

// ExportCourses handles GET /admin/courses/export
func (p *Panel) ExportCourses(c *gin.Context) {
	courses, _, err := p.repos.CourseRepository.Browse(c.Request.Context(), repositories.PageQuery{})
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	if exportFormat(c) == "json" {
		c.JSON(http.StatusOK, courses)
		return
	}

	header := []string{"id", "title", "description", "created_at", "updated_at"}
	writeCSV(c, "courses", header, len(courses), func(i int) []string {
		course := courses[i]
		return []string{
			strconv.FormatInt(course.ID, 10),
			course.Title,
			derefString(course.Description),
			formatTime(course.CreatedAt),
			formatTime(course.UpdatedAt),
		}
	})
}

// ExportEnrollments handles GET /admin/enrollments/export
func (p *Panel) ExportEnrollments(c *gin.Context) {
	enrollments, _, err := p.repos.EnrollmentRepository.Browse(c.Request.Context(), repositories.PageQuery{})
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	if exportFormat(c) == "json" {
		c.JSON(http.StatusOK, enrollments)
		return
	}

	header := []string{"id", "user_id", "course_id", "enrolled_at"}
	writeCSV(c, "enrollments", header, len(enrollments), func(i int) []string {
		e := enrollments[i]
		return []string{
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.UserID, 10),
			strconv.FormatInt(e.CourseID, 10),
			formatTime(e.EnrolledAt),
		}
	})
}

func exportFormat(c *gin.Context) string {
	if c.DefaultQuery("format", "csv") == "json" {
		return "json"
	}
	return "csv"
}

// writeCSV streams a CSV attachment with one row per record.
func writeCSV(c *gin.Context, name string, header []string, count int, row func(i int) []string) {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(header); err != nil {
		logger.Error().Err(err).Str("export", name).Msg("Error writing CSV header")
		return
	}
	for i := 0; i < count; i++ {
		if err := w.Write(row(i)); err != nil {
			logger.Error().Err(err).Str("export", name).Msg("Error writing CSV row")
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		logger.Error().Err(err).Str("export", name).Msg("Error flushing CSV export")
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
