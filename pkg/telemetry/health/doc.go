// Package health provides liveness and readiness endpoints for the
// apcore runtime.
//
// Liveness reports that the process is up. Readiness runs registered
// component checks (event log reachability, rule table population) and
// degrades when any of them fail, so an orchestrator can hold traffic
// until the world is serviceable.
package health
