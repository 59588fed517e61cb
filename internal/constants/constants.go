// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort        = "8080"
	DefaultDBPath      = "versecache.db"
	DefaultProviderURL = "http://127.0.0.1:8000"
	DefaultProbeURL    = "http://127.0.0.1:8000/ping"
)

// Scheduling and retry policy
const (
	DefaultConcurrency  = 3
	DefaultMaxRetries   = 3
	DefaultPollInterval = 2 * time.Second
	DefaultRetryBase    = 1 * time.Second
	TaskRetention       = 24 * time.Hour
)

// Connection monitor
const (
	TransportPollInterval = 30 * time.Second
	QualityCheckInterval  = 10 * time.Second
	ProbeTimeout          = 5 * time.Second
	MaxProbeFailures      = 3
)

// Quality tier latency thresholds
const (
	LatencyExcellent = 100 * time.Millisecond
	LatencyGood      = 300 * time.Millisecond
	LatencyFair      = 1000 * time.Millisecond
)

// Remote content client
const (
	DefaultHTTPTimeout = 10 * time.Second
	DefaultCacheTTL    = 5 * time.Minute
	MinRequestInterval = 100 * time.Millisecond
	DefaultRetryCount  = 3
	MaxSearchResults   = 50
)

// Sync reconciler
const (
	DefaultSyncInterval = 24 * time.Hour
	SyncItemDelay       = 100 * time.Millisecond
	StaleContentAge     = 7 * 24 * time.Hour
)

// Storage
const (
	VerseBatchSize        = 100
	DefaultCleanupAgeDays = 30
	DefaultCleanupAccess  = 1000
)

// Event hub
const (
	SubscriberBuffer = 64
)
