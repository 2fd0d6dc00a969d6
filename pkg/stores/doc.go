// Package stores provides the persistent state store backing individual
// plan steps: the registered framework id, known task records with their
// reserved resource ids, resource unreservation tombstones, and free-form
// service properties. The plan engine itself never persists status; on
// restart, step construction reads this store to rebuild what has already
// been done.
package stores
