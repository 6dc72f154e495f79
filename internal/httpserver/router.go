package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yardops/internal/domain"
	"yardops/internal/drag"
	"yardops/internal/logging"
	"yardops/internal/metrics"
	"yardops/internal/notify"
	"yardops/internal/service/grouping"
	"yardops/internal/service/insights"
	"yardops/internal/service/ledger"
	"yardops/internal/service/schedule"
)

type ScheduleBoard interface {
	Calendar() schedule.Calendar
	SetMonth(d domain.Date) domain.Date
	NextMonth() domain.Date
	PrevMonth() domain.Date
	Reschedule(ctx context.Context, jobID string, target domain.Date) (*schedule.RescheduleResult, error)
	BeginDrag(jobID string) error
	DragOver(date domain.Date) error
	DragLeave() error
	Drop(ctx context.Context, target domain.Date) (*schedule.RescheduleResult, error)
	CancelDrag()
	DragState() drag.Snapshot[string, domain.Date]
}

type GroupBoard interface {
	Summaries() grouping.Board
	CreateGroup(ctx context.Context, form grouping.Form) (*domain.CustomerGroup, error)
	UpdateGroup(ctx context.Context, id string, form grouping.Form) (*domain.CustomerGroup, error)
	DeleteGroup(ctx context.Context, groupID string, confirmed bool) error
	AssignToGroup(ctx context.Context, customerID, groupID string) error
	RemoveFromGroup(ctx context.Context, customerID string) error
	BeginDrag(customerID string) error
	HoverGroup(groupID string) error
	LeaveGroup() error
	Drop(ctx context.Context, groupID string) error
	CancelDrag()
	DragState() drag.Snapshot[string, string]
}

type JobLedger interface {
	List(q ledger.Query) ([]ledger.Entry, error)
	Create(ctx context.Context, f ledger.Form) (*domain.Job, error)
	Update(ctx context.Context, id string, f ledger.Form) (*domain.Job, error)
	Delete(ctx context.Context, id string, confirmed bool) error
}

type InsightsSource interface {
	Latest() insights.Report
}

type NotificationFeed interface {
	Recent(n int) []notify.Notification
}

type CustomerSource interface {
	Snapshot() []domain.Customer
}

type Refresher interface {
	RefreshAll(ctx context.Context) error
	Ready() bool
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Schedule      ScheduleBoard
	Groups        GroupBoard
	Ledger        JobLedger
	Insights      InsightsSource
	Notifications NotificationFeed
	Customers     CustomerSource
	Stores        Refresher
	DB            Pinger
	Metrics       *metrics.Metrics
}

// Options tune the middleware stack.
type Options struct {
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.SugaredLogger, deps Deps, opts Options) (*gin.Engine, error) {
	logger = logging.OrDiscard(logger)
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(logger))
	if deps.Metrics != nil {
		router.Use(instrument(deps.Metrics))
	}
	if len(opts.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(opts.CORSAllowedOrigins)))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Stores, deps.DB))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	h := &handlers{deps: deps, logger: logger}

	api := router.Group("/api")
	api.Use(limitMutations(newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst)))

	api.GET("/customers", h.listCustomers)
	api.DELETE("/customers/:id/group", h.removeFromGroup)

	api.GET("/groups", h.listGroups)
	api.POST("/groups", h.createGroup)
	api.PUT("/groups/:id", h.updateGroup)
	api.DELETE("/groups/:id", h.deleteGroup)
	api.POST("/groups/:id/members", h.assignToGroup)
	api.GET("/groups/drag", h.groupDragState)
	api.POST("/groups/drag/start", h.groupDragStart)
	api.POST("/groups/drag/hover", h.groupDragHover)
	api.POST("/groups/drag/leave", h.groupDragLeave)
	api.POST("/groups/drag/drop", h.groupDragDrop)
	api.POST("/groups/drag/cancel", h.groupDragCancel)

	api.GET("/schedule", h.calendar)
	api.POST("/schedule/month/next", h.nextMonth)
	api.POST("/schedule/month/prev", h.prevMonth)
	api.GET("/schedule/drag", h.scheduleDragState)
	api.POST("/schedule/drag/start", h.scheduleDragStart)
	api.POST("/schedule/drag/over", h.scheduleDragOver)
	api.POST("/schedule/drag/leave", h.scheduleDragLeave)
	api.POST("/schedule/drag/drop", h.scheduleDragDrop)
	api.POST("/schedule/drag/cancel", h.scheduleDragCancel)

	api.GET("/jobs", h.listJobs)
	api.POST("/jobs", h.createJob)
	api.PUT("/jobs/:id", h.updateJob)
	api.DELETE("/jobs/:id", h.deleteJob)
	api.POST("/jobs/:id/reschedule", h.rescheduleJob)

	api.GET("/insights", h.insights)
	api.GET("/notifications", h.notifications)
	api.POST("/refresh", h.refresh)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return router, nil
}
