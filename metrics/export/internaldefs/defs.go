package internaldefs

import (
	authgate "github.com/MrEthical07/authgate"
)

type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful login attempts."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed login attempts."},
	{ID: authgate.MetricRefreshSuccess, Name: "authgate_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: authgate.MetricRefreshFailure, Name: "authgate_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: authgate.MetricReplayDetected, Name: "authgate_replay_detected_total", Help: "Refresh tokens presented after being consumed."},
	{ID: authgate.MetricSessionCreated, Name: "authgate_session_created_total", Help: "Created sessions."},
	{ID: authgate.MetricSessionsPurged, Name: "authgate_sessions_purged_total", Help: "Full or per-device session purges."},
	{ID: authgate.MetricSessionEvicted, Name: "authgate_session_evicted_total", Help: "Oldest-session evictions under the session cap."},
	{ID: authgate.MetricLogout, Name: "authgate_logout_total", Help: "Single-session logout operations."},
	{ID: authgate.MetricLogoutAll, Name: "authgate_logout_all_total", Help: "Logout-all operations."},
	{ID: authgate.MetricRegisterSuccess, Name: "authgate_register_success_total", Help: "Successful registrations."},
	{ID: authgate.MetricRegisterDuplicate, Name: "authgate_register_duplicate_total", Help: "Registrations rejected as duplicate."},
}

var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricValidateLatency, Name: "authgate_validate_latency_seconds", Help: "Access token validation latency histogram."},
}

var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width
// shared by all exporters.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus and OTel expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
