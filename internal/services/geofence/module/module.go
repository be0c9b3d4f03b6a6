// Package module wires the geofence gate into the API using modkit
package module

import (
	"net/http"

	modkit "brigade/internal/modkit"
	"brigade/internal/modkit/httpkit"

	adomain "brigade/internal/services/audit/domain"
	"brigade/internal/services/geofence/domain"
	ghttp "brigade/internal/services/geofence/http"
	"brigade/internal/services/geofence/service"
)

// Ports declares the injected cross-module ports
type Ports struct {
	Audit adomain.RecorderPort
}

// Exposed is the surface other modules consume
type Exposed struct {
	Service domain.ServicePort
}

// Module implements the geofence module
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

// New constructs the geofence module. deps.CH may be nil; the analytics
// mirror is best effort
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("geofence"),
		modkit.WithPrefix("/geofence"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Audit == nil {
		panic("geofence module requires Audit port")
	}

	svc := service.New(deps.PG, injected.Audit, deps.CH)

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
		ghttp.Register(r, m.svc)
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
