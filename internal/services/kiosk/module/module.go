// Package module wires kiosk devices into the API using modkit. The
// admin surface mounts like any other module; the tablet-facing surface
// mounts separately via MountPublic so it can sit outside bearer auth
package module

import (
	"net/http"

	modkit "brigade/internal/modkit"
	"brigade/internal/modkit/httpkit"

	adomain "brigade/internal/services/audit/domain"
	ddomain "brigade/internal/services/directory/domain"
	"brigade/internal/services/kiosk/domain"
	khttp "brigade/internal/services/kiosk/http"
	"brigade/internal/services/kiosk/service"
	pdomain "brigade/internal/services/policy/domain"
	rldomain "brigade/internal/services/ratelimit/domain"
	tcdomain "brigade/internal/services/timeclock/domain"
)

// Ports declares the injected cross-module ports
type Ports struct {
	Audit     adomain.RecorderPort
	Policy    pdomain.ServicePort
	Limiter   rldomain.ServicePort
	Directory ddomain.ServicePort
	Timeclock tcdomain.ServicePort
}

// Exposed is the surface other modules consume
type Exposed struct {
	Service domain.ServicePort
}

// Module implements the kiosk module
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

// New constructs the kiosk module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("kiosk"),
		modkit.WithPrefix("/kiosk"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Limiter == nil || injected.Directory == nil || injected.Timeclock == nil {
		panic("kiosk module requires Limiter, Directory and Timeclock ports")
	}

	// KIOSK_VERIFY=false skips device secret checks for local rigs only
	svc := service.New(
		deps.PG,
		injected.Audit,
		injected.Policy,
		injected.Limiter,
		injected.Directory,
		injected.Timeclock,
		service.WithSecretVerification(deps.Cfg.MayBool("KIOSK_VERIFY", true)),
	)

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
		khttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the bearer-protected admin routes
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

// MountPublic mounts the tablet-facing routes; callers place this outside
// the bearer group, typically under /public/kiosk
func (m *Module) MountPublic(r httpkit.Router) {
	khttp.RegisterPublic(r, m.svc)
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.exposed }

// ServicePorts returns the typed surface for direct wiring
func (m *Module) ServicePorts() Exposed { return m.exposed }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }
