package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

const validSpec = `
name: data-service
pods:
  - name: node
    count: 3
    command: ./server
    env:
      CLUSTER_SIZE: "3"
  - name: proxy
    count: 1
    command: ./proxy
plans:
  - name: deploy
    strategy: serial
    phases:
      - name: node-deploy
        strategy: parallel
        pod: node
      - name: proxy-deploy
        pod: proxy
tls:
  namespace: data-service/tls
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "service.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write spec file: %v", err)
	}
	return path
}

func TestLoadValidSpec(t *testing.T) {
	loader := NewLoader(zerolog.Nop())

	spec, err := loader.Load(writeSpec(t, validSpec))
	if err != nil {
		t.Fatalf("failed to load spec: %v", err)
	}

	if spec.Name != "data-service" {
		t.Errorf("expected service name data-service, got %q", spec.Name)
	}
	if len(spec.Pods) != 2 || len(spec.Plans) != 1 {
		t.Errorf("unexpected spec shape: %d pods, %d plans", len(spec.Pods), len(spec.Plans))
	}

	pod, ok := spec.Pod("node")
	if !ok || pod.Count != 3 {
		t.Errorf("expected node pod with count 3, got %+v (ok=%v)", pod, ok)
	}
	if _, ok := spec.Plan("deploy"); !ok {
		t.Error("expected deploy plan")
	}
	if spec.TLS == nil || spec.TLS.Namespace != "data-service/tls" {
		t.Errorf("unexpected tls spec: %+v", spec.TLS)
	}

	// The second phase has no explicit strategy; builders default to serial.
	if got := spec.Plans[0].Phases[1].Strategy; got != "" {
		t.Errorf("expected empty strategy for proxy-deploy, got %q", got)
	}
}

func TestValidateRejectsBadSpecs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServiceSpec)
		wantErr string
	}{
		{
			name:    "missing name",
			mutate:  func(s *ServiceSpec) { s.Name = "" },
			wantErr: "validation failed",
		},
		{
			name:    "zero pod count",
			mutate:  func(s *ServiceSpec) { s.Pods[0].Count = 0 },
			wantErr: "validation failed",
		},
		{
			name:    "bad strategy",
			mutate:  func(s *ServiceSpec) { s.Plans[0].Strategy = "random" },
			wantErr: "validation failed",
		},
		{
			name:    "duplicate pod",
			mutate:  func(s *ServiceSpec) { s.Pods[1].Name = "node" },
			wantErr: "duplicate pod name",
		},
		{
			name:    "unknown pod reference",
			mutate:  func(s *ServiceSpec) { s.Plans[0].Phases[0].Pod = "ghost" },
			wantErr: "unknown pod",
		},
		{
			name:    "no deploy plan",
			mutate:  func(s *ServiceSpec) { s.Plans[0].Name = "upgrade" },
			wantErr: "deploy",
		},
	}

	loader := NewLoader(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := loader.Load(writeSpec(t, validSpec))
			if err != nil {
				t.Fatalf("failed to load base spec: %v", err)
			}
			tt.mutate(spec)

			err = spec.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	loader := NewLoader(zerolog.Nop())

	if _, err := loader.Load(writeSpec(t, "name: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error for missing file")
	}
}
