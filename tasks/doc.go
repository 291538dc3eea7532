// Package tasks implements owner scoped task tracking: creation, filtered
// and paginated listing, updates that keep completion time consistent with
// status, deletion and per owner statistics.
package tasks
