// Package automation module wiring and route registration.
package automation

import (
	apphttp "agency_portal_backend/internal/http"
	"agency_portal_backend/platform/validator"
)

// Module is the automation bounded context module implementing http.Module.
type Module struct {
	handler   *Handler
	scheduler *Scheduler
	reports   *ReportEngine
}

// NewModule wires the scheduler and report engine into an HTTP module.
func NewModule(scheduler *Scheduler, reports *ReportEngine, val *validator.Validator) *Module {
	return &Module{
		handler:   NewHandler(scheduler, reports, val),
		scheduler: scheduler,
		reports:   reports,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "automation"
}

// Scheduler returns the scheduler for lifecycle control from main.
func (m *Module) Scheduler() *Scheduler {
	return m.scheduler
}

// RegisterRoutes mounts automation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/automation")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
