// Package strategy provides the built-in deployment strategies: serial,
// which works through children one at a time in declaration order, and
// parallel, which makes every incomplete child available at once. Both carry
// their own interrupted flag, independent of any child's, and yield no
// candidates at all while interrupted.
package strategy
