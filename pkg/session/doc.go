/*
Package session serializes access to a visitor's funnel flags.

Flags are written at well-defined completion points, but a visitor can still fire
concurrent requests (a double-tapped button, two tabs, several replicas behind a
load balancer). The Manager wraps a ports.FlagStore with per-id refcounted locks
and an optional distributed lock, so read-then-write sequences stay consistent.
*/
package session
