// Package coordinator drives work across multiple plans. Each scheduling
// cycle it selects candidate steps from every plan manager in priority
// order, starts them, and keeps plans from touching the same asset at once.
package coordinator
