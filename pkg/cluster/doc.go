// Package cluster provides driver implementations for launching and killing
// tasks. The local driver simulates a cluster in-process for development and
// for running uninstalls against state stores whose cluster is gone.
package cluster
