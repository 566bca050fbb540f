package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
)

type opsRoute struct {
	path   string
	handle httprouter.Handle
}

// opsRoutes lists the internal endpoints. Profiling ones are
// only part of it when enabled in the configuration.
func (api *APIHandler) opsRoutes() []opsRoute {
	routes := []opsRoute{
		{"/ops/configs", api.GetConfigs},
		{"/ops/stats", api.GetStatistics},
		{"/ops/maintenance", api.Maintenance},
		{"/ops/metrics", api.GetMetrics},
		{"/ops/debug/vars", GetMemStats},
		{"/ops/debug/gc", api.RunGC},
		{"/ops/debug/fos", api.FreeOSMemory},
	}
	if !api.config.ProfilerEndpointsEnable {
		return routes
	}

	routes = append(routes,
		opsRoute{"/ops/debug/pprof/", api.OpsHandlerWrapper(http.HandlerFunc(pprof.Index))},
		opsRoute{"/ops/debug/pprof/profile", api.GetCPUProfile},
		opsRoute{"/ops/debug/pprof/trace", api.GetTraceProfile},
		opsRoute{"/ops/debug/pprof/symbol", api.GetSymbol},
		opsRoute{"/ops/debug/pprof/cmdline", api.GetCmdLine},
	)
	for _, profile := range []string{"heap", "allocs", "goroutine", "threadcreate", "block", "mutex"} {
		routes = append(routes, opsRoute{"/ops/debug/pprof/" + profile, api.OpsHandlerWrapper(pprof.Handler(profile))})
	}
	return routes
}

// SetupOpsRoutes injects internal operations related endpoints behind the ops chain.
func (api *APIHandler) SetupOpsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	for _, route := range api.opsRoutes() {
		router.GET(route.path, m.ops(route.handle))
	}
	return router
}
