package ui

import "sync/atomic"

// Stats counts the outcome of a library refresh.
type Stats struct {
	Checked atomic.Int64
	Updated atomic.Int64
	Failed  atomic.Int64
}
