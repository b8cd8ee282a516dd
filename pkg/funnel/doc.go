/*
Package funnel sequences the linear funnel stages and guards page access.

	entry -> contact -> conversation-before -> customization -> conversation-after -> offer

Guard is a pure function from the visitor's flags and a requested page to a
Decision: render the page (with the script variant to play) or redirect to an
earlier page. Missing prerequisites are never errors, they are redirects.

Controller performs the side effects around the guard: loading both flag scopes,
writing exactly one flag per completed stage, and posting captured leads to the
collector without blocking the caller.
*/
package funnel
