// Package planner holds the scheduling engine of the route network: it expands route
// templates into dated occurrences, assigns aircraft and crews to them, and classifies
// the health of already scheduled flights. It performs no I/O; callers load the
// committed history and persist the results.
package planner
