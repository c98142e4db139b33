package app

import (
	"os"
	"strconv"
	"sync"
	"time"
)

const testModeEnv = "PRINTDESK_TEST_MODE"

// Version is stamped at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

var (
	startedAt    = time.Now()
	testModeOnce sync.Once
	testMode     bool
)

// InTestMode reports whether PRINTDESK_TEST_MODE is set, in which case the
// binary skips dialing Redis and serving.
func InTestMode() bool {
	testModeOnce.Do(func() {
		testMode, _ = strconv.ParseBool(os.Getenv(testModeEnv))
	})
	return testMode
}

// Health is the /healthz payload.
type Health struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Env           string `json:"env"`
	OrderSyncMode string `json:"order_sync_mode"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// HealthReport describes the running process.
func HealthReport(cfg *Config, now time.Time) Health {
	h := Health{
		Status:        "ok",
		Version:       Version,
		UptimeSeconds: int64(now.Sub(startedAt).Seconds()),
	}
	if cfg != nil {
		h.Env = cfg.AppEnv
		h.OrderSyncMode = cfg.OrderSyncMode
	}
	return h
}
