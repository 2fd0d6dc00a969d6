// Package uninstall builds the plan that tears a deployed service down:
// kill its tasks, release its reserved resources, clean up TLS artifacts,
// and deregister the service from the cluster.
package uninstall
