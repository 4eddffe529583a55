// Package leads provides the lead lifecycle bounded context module.
// This file defines the module that encapsulates all leads setup and route
// registration.
package leads

import (
	"agency_portal_backend/internal/conversion"
	"agency_portal_backend/internal/events"
	apphttp "agency_portal_backend/internal/http"
	"agency_portal_backend/internal/leads/handler"
	"agency_portal_backend/internal/leads/scoring"
	"agency_portal_backend/internal/leads/service"
	"agency_portal_backend/internal/leads/sla"
	"agency_portal_backend/internal/store"
	"agency_portal_backend/platform/logger"
	"agency_portal_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	engine  *conversion.Engine
}

// Defaults are the configuration-derived fallbacks for scoring and SLA.
type Defaults = service.Defaults

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(st store.LeadStore, directory conversion.Directory, eventBus events.Bus, val *validator.Validator, defaults Defaults, log *logger.Logger) *Module {
	svc := service.New(st, eventBus, defaults, log)
	engine := conversion.NewEngine(svc, directory, log)
	h := handler.New(svc, engine, val)

	return &Module{
		handler: h,
		service: svc,
		engine:  engine,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead lifecycle service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// ConversionEngine returns the conversion engine for external use.
func (m *Module) ConversionEngine() *conversion.Engine {
	return m.engine
}

// RegisterRoutes mounts leads routes on the provided router context.
// All leads routes require authentication.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

// DefaultsFromConfig assembles service defaults from raw configuration values.
func DefaultsFromConfig(weights scoring.Weights, targets sla.Targets, autoArchiveDays int) Defaults {
	return Defaults{
		Weights:         weights,
		Targets:         targets,
		AutoArchiveDays: autoArchiveDays,
	}
}
