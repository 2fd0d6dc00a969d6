// Package api exposes the HTTP control surface: plan inspection and the
// start, stop, continue, interrupt, forceComplete and restart commands.
package api
