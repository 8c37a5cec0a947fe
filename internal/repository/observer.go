package repository

import "time"

// QueryObserver receives the latency of timed queries, labelled by repository operation.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

func observeSince(o QueryObserver, label string, start time.Time) {
	if o == nil {
		return
	}
	o.ObserveDBQuery(label, time.Since(start))
}
