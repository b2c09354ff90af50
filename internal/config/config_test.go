package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_PassesValidation(t *testing.T) {
	t.Parallel()
	req := Default()
	require.NoError(t, req.Validate())

	assert.Equal(t, "dev", req.Environment)
	assert.Equal(t, "us-east-1", req.Region)
	assert.Equal(t, "t3a.medium", req.InstanceType)
	assert.Equal(t, 5985, req.WinRMPort)
	assert.Equal(t, PollPolicy{MaxAttempts: 20, Interval: 30 * time.Second}, req.Probe)
	assert.Equal(t, req.Probe, req.Credential, "credential poll mirrors the readiness ceiling by default")
	assert.Equal(t, RetryPolicy{MaxRetries: 2, Backoff: 30 * time.Second}, req.Configure)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"empty environment", func(r *Request) { r.Environment = "" }},
		{"empty region", func(r *Request) { r.Region = "" }},
		{"empty instance type", func(r *Request) { r.InstanceType = "" }},
		{"zero port", func(r *Request) { r.WinRMPort = 0 }},
		{"port out of range", func(r *Request) { r.WinRMPort = 70000 }},
		{"zero probe attempts", func(r *Request) { r.Probe.MaxAttempts = 0 }},
		{"zero probe interval", func(r *Request) { r.Probe.Interval = 0 }},
		{"zero credential attempts", func(r *Request) { r.Credential.MaxAttempts = 0 }},
		{"zero credential interval", func(r *Request) { r.Credential.Interval = 0 }},
		{"negative retries", func(r *Request) { r.Configure.MaxRetries = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := Default()
			tt.mutate(req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestLoadFile_LayersOverDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dc-deploy.yaml")
	content := `environment: prod
region: eu-central-1
use_elastic_ip: true
probe:
  max_attempts: 10
  interval: 15s
configure:
  max_retries: 1
  backoff: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	req, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", req.Environment)
	assert.Equal(t, "eu-central-1", req.Region)
	assert.True(t, req.UseElasticIP)
	assert.Equal(t, PollPolicy{MaxAttempts: 10, Interval: 15 * time.Second}, req.Probe)
	assert.Equal(t, RetryPolicy{MaxRetries: 1, Backoff: 10 * time.Second}, req.Configure)

	// Untouched fields keep their defaults.
	assert.Equal(t, "t3a.medium", req.InstanceType)
	assert.Equal(t, 5985, req.WinRMPort)
	assert.Equal(t, PollPolicy{MaxAttempts: 20, Interval: 30 * time.Second}, req.Credential)
}

func TestLoadFile_UnknownKeyRejected(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dc-deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enviroment: prod\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFile_InvalidValuesRejected(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dc-deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("winrm_port: -1\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadFile_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
