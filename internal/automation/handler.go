package automation

import (
	"context"
	"net/http"
	"time"

	"agency_portal_backend/platform/httpkit"
	"agency_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes scheduler control and report scheduling over HTTP.
type Handler struct {
	scheduler *Scheduler
	reports   *ReportEngine
	val       *validator.Validator
}

func NewHandler(scheduler *Scheduler, reports *ReportEngine, val *validator.Validator) *Handler {
	return &Handler{scheduler: scheduler, reports: reports, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/start", h.Start)
	rg.POST("/stop", h.Stop)
	rg.GET("/state", h.State)
	rg.POST("/run", h.Run)
	rg.GET("/reports", h.ListReports)
	rg.POST("/reports", h.ScheduleReport)
}

func (h *Handler) Start(c *gin.Context) {
	// Detached from the request context: the loop must outlive this call.
	h.scheduler.Start(context.Background())
	h.State(c)
}

func (h *Handler) Stop(c *gin.Context) {
	h.scheduler.Stop()
	h.State(c)
}

func (h *Handler) State(c *gin.Context) {
	state, err := h.scheduler.State(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, state)
}

// Run triggers one cycle immediately, outside the ticker cadence.
func (h *Handler) Run(c *gin.Context) {
	h.scheduler.RunTick(c.Request.Context())
	h.State(c)
}

func (h *Handler) ListReports(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, reports)
}

type scheduleReportRequest struct {
	Name      string     `json:"name" validate:"required,min=2,max=120"`
	Frequency Frequency  `json:"frequency" validate:"required,oneof=daily weekly monthly quarterly"`
	FirstRun  *time.Time `json:"firstRun,omitempty"`
}

func (h *Handler) ScheduleReport(c *gin.Context) {
	var req scheduleReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	firstRun := time.Now().UTC()
	if req.FirstRun != nil {
		firstRun = req.FirstRun.UTC()
	}

	def, err := h.reports.Schedule(c.Request.Context(), req.Name, req.Frequency, firstRun)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, def)
}
