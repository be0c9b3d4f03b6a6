// Package module wires audit into the API using modkit
package module

import (
	"net/http"

	modkit "brigade/internal/modkit"
	"brigade/internal/modkit/httpkit"
	ahttp "brigade/internal/services/audit/http"

	"brigade/internal/services/audit/domain"
	"brigade/internal/services/audit/service"
)

// Ports exposes the audit surface for cross-module wiring
type Ports struct {
	Service domain.ServicePort
}

// Module implements the audit module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     Ports
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc domain.ServicePort
}

// New constructs the audit module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("audit"),
		modkit.WithPrefix("/audit"),
	}, opts...)...)

	svc := service.New(deps.PG)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{Service: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		ahttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// ServicePorts returns the typed ports for direct wiring
func (m *Module) ServicePorts() Ports { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }
