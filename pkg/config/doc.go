// Package config loads and validates the YAML service spec: the pods a
// service runs and the declarative plan definitions that drive deployment.
// A file watcher supports hot reload of the spec.
package config
