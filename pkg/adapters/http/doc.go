/*
Package http exposes the funnel over a JSON API with a Server-Sent Events stream.

A visitor is identified by two cookies: a long-lived visitor cookie bound to the
local flag scope and a browser-session cookie bound to the session scope. Each
visitor has at most one mounted engine (a conversation or the customization
wizard); mounting another page disposes the previous engine and cancels its timers.
Engine events, cues and state diffs are pushed to the visitor's /api/events stream.
*/
package http
