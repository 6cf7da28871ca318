package router

import (
	"fmt"
	"strings"
)

// NoRouteError reports a request classification with no registered target.
type NoRouteError struct {
	Classification string
}

// Error implements the error interface.
func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route registered for classification %q", e.Classification)
}

// RoutingCycleError reports a registration that would create a cycle between
// nested routers. Path lists the router names along the detected cycle.
type RoutingCycleError struct {
	Classification string
	Path           []string
}

// Error implements the error interface.
func (e *RoutingCycleError) Error() string {
	return fmt.Sprintf("registering classification %q would create a routing cycle: %s",
		e.Classification, strings.Join(e.Path, " -> "))
}
