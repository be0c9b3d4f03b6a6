// Package api provides the HTTP API for the application
package api

import (
	"brigade/internal/platform/config"
	"brigade/internal/platform/logger"
	phttp "brigade/internal/platform/net/http"
	"brigade/internal/platform/store"

	"brigade/internal/modkit"
	"brigade/internal/modkit/httpkit"
	"brigade/internal/modkit/module"
	"brigade/internal/modkit/swaggerkit"

	auditmod "brigade/internal/services/audit/module"
	compliancemod "brigade/internal/services/compliance/module"
	directorymod "brigade/internal/services/directory/module"
	exportmod "brigade/internal/services/export/module"
	geofencemod "brigade/internal/services/geofence/module"
	kioskmod "brigade/internal/services/kiosk/module"
	payrollmod "brigade/internal/services/payroll/module"
	policymod "brigade/internal/services/policy/module"
	ratelimitsvc "brigade/internal/services/ratelimit/service"
	reportingmod "brigade/internal/services/reporting/module"
	schedulingmod "brigade/internal/services/scheduling/module"
	timeclockmod "brigade/internal/services/timeclock/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}

	// audit first; everything else records through it
	audit := auditmod.New(deps)
	auditPort := audit.ServicePorts().Service

	policy := policymod.New(deps, modkit.WithPorts(policymod.Ports{
		Audit: auditPort,
	}))
	policyPort := policy.ServicePorts().Service

	directory := directorymod.New(deps, modkit.WithPorts(directorymod.Ports{
		Audit: auditPort,
	}))

	// the rate limiter is headless: no routes, exercised through kiosk
	limiter := ratelimitsvc.New(deps.PG)

	geofence := geofencemod.New(deps, modkit.WithPorts(geofencemod.Ports{
		Audit: auditPort,
	}))

	scheduling := schedulingmod.New(deps, modkit.WithPorts(schedulingmod.Ports{
		Audit:  auditPort,
		Policy: policyPort,
	}))

	timeclock := timeclockmod.New(deps, modkit.WithPorts(timeclockmod.Ports{
		Audit:    auditPort,
		Policy:   policyPort,
		Geofence: geofence.ServicePorts().Service,
	}))

	kiosk := kioskmod.New(deps, modkit.WithPorts(kioskmod.Ports{
		Audit:     auditPort,
		Policy:    policyPort,
		Limiter:   limiter,
		Directory: directory.ServicePorts().Service,
		Timeclock: timeclock.ServicePorts().Service,
	}))

	compliance := compliancemod.New(deps, modkit.WithPorts(compliancemod.Ports{
		Audit:  auditPort,
		Policy: policyPort,
	}))

	payroll := payrollmod.New(deps, modkit.WithPorts(payrollmod.Ports{
		Audit:  auditPort,
		Policy: policyPort,
	}))

	export := exportmod.New(deps, modkit.WithPorts(exportmod.Ports{
		Audit: auditPort,
	}))

	reporting := reportingmod.New(deps)

	mods := []module.Module{
		audit,
		policy,
		directory,
		geofence,
		scheduling,
		timeclock,
		kiosk,
		compliance,
		payroll,
		export,
		reporting,
	}

	bearer := httpkit.BearerPort([]byte(opt.Config.MustString("JWT_SECRET")))

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		// tablet-facing surface: device secret + session header, no bearer
		api.Route("/public/kiosk", func(pub httpkit.Router) {
			kiosk.MountPublic(pub)
		})

		httpkit.Protected(api, bearer, func(auth httpkit.Router) {
			for _, m := range mods {
				// register each module's ports under its own name (for cross-module lookups)
				module.Register(m.Name(), m.Ports())

				// mount module routes under its Prefix()
				m.MountRoutes(auth)
			}
		})
	})
}
