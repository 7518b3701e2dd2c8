// Package api serves instance management over HTTP.
//
// Routes:
//
//	GET  /api/v1/instances              list instances
//	GET  /api/v1/instances/:name        one instance
//	GET  /api/v1/instances/:name/logs   log history as text (?tail=N)
//	POST /api/v1/instances/start        {"names": [...]}
//	POST /api/v1/instances/stop         {"names": [...]}
//	POST /api/v1/instances/restart      {"names": [...]}
//	GET  /metrics                       Prometheus exposition
//
// Lifecycle routes answer 200 when every name reached its target state and
// 502 when at least one failed; the body always carries one result per name.
package api
