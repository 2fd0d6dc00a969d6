// Package deploy builds deployment plans from a service spec: one phase per
// declared plan phase, one launch step per pod instance.
package deploy
