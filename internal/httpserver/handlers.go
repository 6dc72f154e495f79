package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yardops/internal/domain"
	"yardops/internal/drag"
	"yardops/internal/service/grouping"
	"yardops/internal/service/ledger"
	"yardops/internal/service/schedule"
)

const defaultNotificationLimit = 20

type handlers struct {
	deps   Deps
	logger *zap.SugaredLogger
}

type dragStateResponse[E, T comparable] struct {
	State  string `json:"state"`
	Entity E      `json:"entity"`
	Target T      `json:"target"`
}

func dragState[E, T comparable](s drag.Snapshot[E, T]) dragStateResponse[E, T] {
	return dragStateResponse[E, T]{State: s.State.String(), Entity: s.Entity, Target: s.Target}
}

func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

// parseDate treats an empty value as the zero date.
func parseDate(field, raw string) (domain.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, domain.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

// bindOptional accepts an empty body.
func bindOptional(c *gin.Context, v any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(v)
}

// customers

func (h *handlers) listCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": h.deps.Customers.Snapshot()})
}

func (h *handlers) removeFromGroup(c *gin.Context) {
	if err := h.deps.Groups.RemoveFromGroup(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// groups

func (h *handlers) listGroups(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Groups.Summaries())
}

func (h *handlers) createGroup(c *gin.Context) {
	var form grouping.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}
	g, err := h.deps.Groups.CreateGroup(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *handlers) updateGroup(c *gin.Context) {
	var form grouping.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}
	g, err := h.deps.Groups.UpdateGroup(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *handlers) deleteGroup(c *gin.Context) {
	if err := h.deps.Groups.DeleteGroup(c.Request.Context(), c.Param("id"), confirmed(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignRequest struct {
	CustomerID string `json:"customerId" binding:"required"`
}

func (h *handlers) assignToGroup(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.deps.Groups.AssignToGroup(c.Request.Context(), req.CustomerID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type groupDragRequest struct {
	CustomerID string `json:"customerId"`
	GroupID    string `json:"groupId"`
}

func (h *handlers) groupDragState(c *gin.Context) {
	c.JSON(http.StatusOK, dragState(h.deps.Groups.DragState()))
}

func (h *handlers) groupDragStart(c *gin.Context) {
	var req groupDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.deps.Groups.BeginDrag(req.CustomerID); err != nil {
		writeError(c, err)
		return
	}
	h.groupDragState(c)
}

func (h *handlers) groupDragHover(c *gin.Context) {
	var req groupDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.deps.Groups.HoverGroup(req.GroupID); err != nil {
		writeError(c, err)
		return
	}
	h.groupDragState(c)
}

func (h *handlers) groupDragLeave(c *gin.Context) {
	if err := h.deps.Groups.LeaveGroup(); err != nil {
		writeError(c, err)
		return
	}
	h.groupDragState(c)
}

// groupDragDrop drops on the body's group, or on the hovered one when the
// body names none.
func (h *handlers) groupDragDrop(c *gin.Context) {
	var req groupDragRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.deps.Groups.Drop(c.Request.Context(), req.GroupID); err != nil {
		writeError(c, err)
		return
	}
	h.groupDragState(c)
}

func (h *handlers) groupDragCancel(c *gin.Context) {
	h.deps.Groups.CancelDrag()
	h.groupDragState(c)
}

// schedule

func (h *handlers) calendar(c *gin.Context) {
	if raw := c.Query("month"); raw != "" {
		month, err := schedule.ParseMonth(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		h.deps.Schedule.SetMonth(month)
	}
	c.JSON(http.StatusOK, h.deps.Schedule.Calendar())
}

func (h *handlers) nextMonth(c *gin.Context) {
	h.deps.Schedule.NextMonth()
	c.JSON(http.StatusOK, h.deps.Schedule.Calendar())
}

func (h *handlers) prevMonth(c *gin.Context) {
	h.deps.Schedule.PrevMonth()
	c.JSON(http.StatusOK, h.deps.Schedule.Calendar())
}

type scheduleDragRequest struct {
	JobID string `json:"jobId"`
	Date  string `json:"date"`
}

func (h *handlers) scheduleDragState(c *gin.Context) {
	c.JSON(http.StatusOK, dragState(h.deps.Schedule.DragState()))
}

func (h *handlers) scheduleDragStart(c *gin.Context) {
	var req scheduleDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.deps.Schedule.BeginDrag(req.JobID); err != nil {
		writeError(c, err)
		return
	}
	h.scheduleDragState(c)
}

func (h *handlers) scheduleDragOver(c *gin.Context) {
	var req scheduleDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err == nil && date.IsZero() {
		err = domain.NewValidationError("date", "is required")
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.deps.Schedule.DragOver(date); err != nil {
		writeError(c, err)
		return
	}
	h.scheduleDragState(c)
}

func (h *handlers) scheduleDragLeave(c *gin.Context) {
	if err := h.deps.Schedule.DragLeave(); err != nil {
		writeError(c, err)
		return
	}
	h.scheduleDragState(c)
}

func (h *handlers) scheduleDragDrop(c *gin.Context) {
	var req scheduleDragRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.deps.Schedule.Drop(c.Request.Context(), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) scheduleDragCancel(c *gin.Context) {
	h.deps.Schedule.CancelDrag()
	h.scheduleDragState(c)
}

// jobs

func (h *handlers) listJobs(c *gin.Context) {
	entries, err := h.deps.Ledger.List(ledger.Query{Text: c.Query("q"), Status: c.Query("status")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": entries, "count": len(entries)})
}

func (h *handlers) createJob(c *gin.Context) {
	var form ledger.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.deps.Ledger.Create(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *handlers) updateJob(c *gin.Context) {
	var form ledger.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.deps.Ledger.Update(c.Request.Context(), c.Param("id"), form)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *handlers) deleteJob(c *gin.Context) {
	if err := h.deps.Ledger.Delete(c.Request.Context(), c.Param("id"), confirmed(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type rescheduleRequest struct {
	Date string `json:"date"`
}

func (h *handlers) rescheduleJob(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.deps.Schedule.Reschedule(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// dashboard

func (h *handlers) insights(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Insights.Latest())
}

func (h *handlers) notifications(c *gin.Context) {
	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, domain.NewValidationError("limit", "must be a positive integer"))
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"results": h.deps.Notifications.Recent(limit)})
}

func (h *handlers) refresh(c *gin.Context) {
	if err := h.deps.Stores.RefreshAll(c.Request.Context()); err != nil {
		h.logger.Warnw("manual refresh failed", "error", err)
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
