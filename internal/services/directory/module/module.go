// Package module wires the org directory into the API using modkit
package module

import (
	"net/http"

	modkit "brigade/internal/modkit"
	"brigade/internal/modkit/httpkit"

	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/directory/domain"
	dhttp "brigade/internal/services/directory/http"
	"brigade/internal/services/directory/service"
)

// Ports declares the injected cross-module ports
type Ports struct {
	Audit adomain.RecorderPort
}

// Exposed is the surface other modules consume
type Exposed struct {
	Service domain.ServicePort
}

// Module implements the directory module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	exposed   Exposed
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc domain.ServicePort
}

// New constructs the directory module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("directory"),
		modkit.WithPrefix("/directory"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Audit == nil {
		panic("directory module requires Audit port")
	}

	svc := service.New(deps.PG, injected.Audit)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.exposed = Exposed{Service: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		dhttp.Register(r, m.svc)
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
func (m *Module) Ports() any { return m.exposed }

// ServicePorts returns the typed surface for direct wiring
func (m *Module) ServicePorts() Exposed { return m.exposed }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }
