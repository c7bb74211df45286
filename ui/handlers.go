package ui

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pgocasting/ipatrollersys-sub002/domain/core"
	"github.com/pgocasting/ipatrollersys-sub002/domain/report"
	"github.com/pgocasting/ipatrollersys-sub002/internal/datetime"
	"github.com/pgocasting/ipatrollersys-sub002/internal/dedup"
	"github.com/pgocasting/ipatrollersys-sub002/internal/errors"
	"github.com/pgocasting/ipatrollersys-sub002/internal/importer"
	"github.com/pgocasting/ipatrollersys-sub002/ports"
	"github.com/pgocasting/ipatrollersys-sub002/ui/middleware"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func busyError(operation string) error {
	return errors.Busy(operation)
}

// classify maps an error onto an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.GetCode(err) == errors.CodeBusy:
		return http.StatusConflict, errors.CodeBusy
	case errors.GetCode(err) == errors.CodeTargetMissing, core.IsWriteBackError(err):
		return http.StatusConflict, errors.CodeTargetMissing
	case core.IsNotFoundError(err):
		return http.StatusNotFound, errors.CodeNotFound
	case stderrors.Is(err, core.ErrNotConfirmed):
		return http.StatusPreconditionRequired, "NOT_CONFIRMED"
	case core.IsImportError(err), errors.GetCode(err) == errors.CodeImportFormat:
		return http.StatusBadRequest, errors.CodeImportFormat
	case errors.GetCode(err) == errors.CodeInvalidInput:
		return http.StatusBadRequest, errors.CodeInvalidInput
	case errors.GetCode(err) == errors.CodeSourceUnavailable:
		return http.StatusBadGateway, errors.CodeSourceUnavailable
	case errors.GetCode(err) == errors.CodeDatabaseError:
		return http.StatusServiceUnavailable, errors.CodeDatabaseError
	}
	return http.StatusInternalServerError, errors.CodeInternalError
}

func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	c.JSON(status, errorResponse{Success: false, Error: err.Error(), Code: code})
}

// parseMonth accepts a month number, a month name or any phrase
// DetectMonth understands.
func parseMonth(s string, now time.Time) (time.Month, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n), true
		}
		return 0, false
	}
	m := datetime.DetectMonth(s, now)
	if m == datetime.MonthUndetermined {
		return 0, false
	}
	return m, true
}

func (s *Server) handleListReports(c *gin.Context) {
	records := s.service.Records()
	if raw := c.Query("month"); raw != "" {
		month, ok := parseMonth(raw, time.Now())
		if !ok {
			writeError(c, errors.InvalidInput("unrecognised month: "+raw))
			return
		}
		records = s.service.FilterByMonth(month)
	}
	if dept := strings.TrimSpace(c.Query("department")); dept != "" {
		filtered := records[:0:0]
		for _, r := range records {
			if strings.EqualFold(r.Department, dept) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if records == nil {
		records = []report.CanonicalRecord{}
	}
	s.service.LogAccess(middleware.ActorFrom(c), len(records))
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"count":   len(records),
		"summary": s.service.Summary(),
	})
}

func (s *Server) handleReload(c *gin.Context) {
	s.exclusive(c, "reload", func() {
		summary, err := s.service.ReloadBy(c.Request.Context(), middleware.ActorFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}

func (s *Server) handlePlanDuplicates(c *gin.Context) {
	groups := s.service.PlanDuplicates(middleware.ActorFrom(c))
	if groups == nil {
		groups = []dedup.Group{}
	}
	c.JSON(http.StatusOK, gin.H{
		"groups":   groups,
		"removals": dedup.Removals(groups),
	})
}

func (s *Server) handleRemoveDuplicates(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	confirmer := dedup.ConfirmFunc(func(_ context.Context, _ []dedup.Group) bool { return confirmed })
	s.exclusive(c, "duplicate removal", func() {
		out, err := s.service.RemoveDuplicates(c.Request.Context(), confirmer, middleware.ActorFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		errs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			errs = append(errs, e.Error())
		}
		c.JSON(http.StatusOK, gin.H{
			"success": out.Failed == 0,
			"deleted": out.Deleted,
			"failed":  out.Failed,
			"removed": out.Removed,
			"errors":  errs,
		})
	})
}

func (s *Server) handleImport(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		writeError(c, errors.InvalidInput("multipart field \"file\" is required"))
		return
	}
	if header.Size > s.maxUpload {
		writeError(c, errors.InvalidInput("file exceeds the upload limit"))
		return
	}
	f, err := header.Open()
	if err != nil {
		writeError(c, errors.Wrap(err, "failed to open upload"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.maxUpload))
	if err != nil {
		writeError(c, errors.Wrap(err, "failed to read upload"))
		return
	}

	req := importer.Request{
		Data:       data,
		Filename:   header.Filename,
		Department: c.PostForm("department"),
		Actor:      middleware.ActorFrom(c),
	}
	s.exclusive(c, "import", func() {
		out, err := s.service.Import(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})
}

func (s *Server) handleUpdateReport(c *gin.Context) {
	id := c.Param("id")
	var patch report.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, errors.InvalidInput("invalid patch body: "+err.Error()))
		return
	}
	s.exclusive(c, "update", func() {
		if err := s.service.Update(c.Request.Context(), id, patch, middleware.ActorFrom(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ports.Ok(id))
	})
}

func (s *Server) handleDeleteReport(c *gin.Context) {
	id := c.Param("id")
	s.exclusive(c, "delete", func() {
		if err := s.service.Delete(c.Request.Context(), id, middleware.ActorFrom(c)); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ports.Ok(id))
	})
}
