package domain

import "time"

// RequestRecord is one observation of an inbound request, kept for
// rate-limit accounting. Records are written before the threshold check so
// the request that trips the limit counts itself.
type RequestRecord struct {
	Addr       string
	Endpoint   string
	ObservedAt time.Time
}
