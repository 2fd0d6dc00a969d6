package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"otlp without endpoint", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "otlp"
		}, true},
		{"bad sampling rate", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "stdout"
			c.Tracing.SamplingRate = 2.0
		}, true},
		{"stdout exporter valid", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "stdout"
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestDisabledMetricsAreNoOp(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create disabled metrics: %v", err)
	}

	// None of these may panic.
	m.RecordCycle(time.Second)
	m.RecordCandidates("deploy", 3)
	m.RecordStepStarted("deploy", "node")
	m.RecordTaskUpdate()
	m.SetPlanComplete("deploy", true)
	m.RecordCommand("continue", "ok")

	if m.Handler() != nil {
		t.Error("disabled metrics should have no handler")
	}
}

func TestMetricsHandlerServesExposition(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: true, Namespace: "planwheel"})
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	m.RecordStepStarted("deploy", "node")
	m.RecordCommand("interrupt", "noop")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics handler, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected non-empty metrics exposition")
	}
}

func TestParseLogLevel(t *testing.T) {
	if parseLogLevel("debug").String() != "debug" {
		t.Error("expected debug level")
	}
	if parseLogLevel("bogus").String() != "info" {
		t.Error("expected unknown level to default to info")
	}
}
