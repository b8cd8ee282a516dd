/*
Package observability provides Prometheus metrics for the funnel.

Metrics are fed from the same event and cue streams the engines already emit:
wrap an event handler with Metrics.ObserveEvent (or compose several with FanOut)
and a cue sink with Metrics.CueSink. All Metrics methods are safe on a nil receiver,
so callers never need to guard optional instrumentation.
*/
package observability
