package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-authgate/screenpair/internal/middleware"
	"github.com/go-authgate/screenpair/internal/models"
	"github.com/go-authgate/screenpair/internal/services"
	"github.com/go-authgate/screenpair/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	// queryValueTrue represents the string "true" used in query parameters
	queryValueTrue = "true"
)

// AuditHandler handles audit log operations
type AuditHandler struct {
	auditService *services.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// ListAuditLogs handles GET /api/admin/audit-logs
//
//	@Summary		List audit logs
//	@Description	Paginated audit log with optional filters (admin only)
//	@Tags			Audit
//	@Produce		json
//	@Security		SessionAuth
//	@Param			page	query	int	false	"Page number"	default(1)
//	@Param			page_size	query	int	false	"Page size"	default(20)
//	@Param			event_type	query	string	false	"Event type"
//	@Param			actor_user_id	query	string	false	"Actor user ID"
//	@Param			resource_type	query	string	false	"Resource type"
//	@Param			resource_id	query	string	false	"Resource ID"
//	@Param			severity	query	string	false	"Severity (INFO, WARNING, ERROR, CRITICAL)"
//	@Param			success	query	bool	false	"Filter by outcome"
//	@Param			actor_ip	query	string	false	"Actor IP address"
//	@Param			search	query	string	false	"Free text search"
//	@Param			start_time	query	string	false	"Start time (RFC3339)"
//	@Param			end_time	query	string	false	"End time (RFC3339)"
//	@Success		200	{object}	object{logs=[]models.AuditLog,pagination=store.PaginationResult}	"Audit logs"
//	@Failure		401	{object}	object{error=string,error_description=string}	"Login required"
//	@Failure		403	{object}	object{error=string,error_description=string}	"Admin access required"
//	@Failure		500	{object}	object{error=string,error_description=string}	"Internal server error"
//	@Router			/api/admin/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(store.DefaultPageSize)))
	params := store.NewPaginationParams(page, pageSize)

	filters := store.AuditLogFilters{
		EventType:    models.EventType(c.Query("event_type")),
		ActorUserID:  c.Query("actor_user_id"),
		ResourceType: models.ResourceType(c.Query("resource_type")),
		ResourceID:   c.Query("resource_id"),
		Severity:     models.EventSeverity(c.Query("severity")),
		ActorIP:      c.Query("actor_ip"),
		Search:       c.Query("search"),
	}

	if successStr := c.Query("success"); successStr != "" {
		success := successStr == queryValueTrue
		filters.Success = &success
	}

	if startTimeStr := c.Query("start_time"); startTimeStr != "" {
		if t, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			filters.StartTime = t.UTC()
		}
	}
	if endTimeStr := c.Query("end_time"); endTimeStr != "" {
		if t, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			filters.EndTime = t.UTC()
		}
	}

	logs, pagination, err := h.auditService.GetAuditLogs(c.Request.Context(), params, filters)
	if err != nil {
		respondServerError(c, err, "Failed to retrieve audit logs")
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:   models.EventAuditLogView,
		Severity:    models.SeverityInfo,
		ActorUserID: c.GetString(middleware.ContextUserID),
		Action:      "Viewed audit logs",
		Details: models.AuditDetails{
			"page":      params.Page,
			"page_size": params.PageSize,
			"filters":   filters,
		},
		Success:       true,
		RequestPath:   c.Request.URL.Path,
		RequestMethod: c.Request.Method,
		UserAgent:     c.Request.UserAgent(),
	})

	c.JSON(http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": pagination,
	})
}
