//nolint:testpackage // exercising defaulting and override internals
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
tracking:
  hmac_secret: test-secret
  base_url: https://track.example.com
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Service.Name != defaultServiceName {
		t.Errorf("service name = %q, want %q", cfg.Service.Name, defaultServiceName)
	}
	if cfg.Service.Port != defaultServicePort {
		t.Errorf("port = %d, want %d", cfg.Service.Port, defaultServicePort)
	}
	if cfg.Pipeline.ItemCap != defaultItemCap {
		t.Errorf("item cap = %d, want %d", cfg.Pipeline.ItemCap, defaultItemCap)
	}
	if cfg.Pipeline.GenerationCap != defaultGenerationCap {
		t.Errorf("generation cap = %d, want %d", cfg.Pipeline.GenerationCap, defaultGenerationCap)
	}
	if cfg.Tracking.SignatureLength != defaultSigLength {
		t.Errorf("signature length = %d, want %d", cfg.Tracking.SignatureLength, defaultSigLength)
	}
	if cfg.Tracking.InboxScanInterval != defaultInboxScanMinutes*time.Minute {
		t.Errorf("inbox scan interval = %v", cfg.Tracking.InboxScanInterval)
	}
	if cfg.Redis.Channel != defaultRedisChannel {
		t.Errorf("redis channel = %q", cfg.Redis.Channel)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig+`
pipeline:
  item_cap: 50
  generation_cap: 2
  rank_threshold: 20
providers:
  intelligence:
    base_url: http://intel:9000
    api_key: k1
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Pipeline.ItemCap != 50 {
		t.Errorf("item cap = %d, want 50", cfg.Pipeline.ItemCap)
	}
	if cfg.Pipeline.GenerationCap != 2 {
		t.Errorf("generation cap = %d, want 2", cfg.Pipeline.GenerationCap)
	}
	if cfg.Pipeline.RankThreshold != 20 {
		t.Errorf("rank threshold = %d, want 20", cfg.Pipeline.RankThreshold)
	}
	if !cfg.Providers.Intelligence.Enabled() {
		t.Error("intelligence provider should be enabled")
	}
	if cfg.Providers.CMS.Enabled() {
		t.Error("cms provider should be disabled without a base url")
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	t.Setenv("CAMPAIGN_ENGINE_PORT", "9999")
	t.Setenv("CAMPAIGN_TRACKING_SECRET", "env-secret")

	cfg, err := Load(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Service.Port != 9999 {
		t.Errorf("port = %d, want env override 9999", cfg.Service.Port)
	}
	if cfg.Tracking.HMACSecret != "env-secret" {
		t.Errorf("hmac secret = %q, want env override", cfg.Tracking.HMACSecret)
	}
}

func TestValidateRequiresTrackingSecret(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, `
tracking:
  base_url: https://track.example.com
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if validateErr := cfg.Validate(); validateErr == nil {
		t.Error("Validate should fail without tracking.hmac_secret")
	}
}

func TestValidateRequiresBaseURL(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, `
tracking:
  hmac_secret: s
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if validateErr := cfg.Validate(); validateErr == nil {
		t.Error("Validate should fail without tracking.base_url")
	}
}

func TestDSNAndMigrateURL(t *testing.T) {
	db := DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p",
		Database: "campaigns", SSLMode: "disable",
	}

	wantDSN := "host=db port=5433 user=u password=p dbname=campaigns sslmode=disable"
	if got := db.DSN(); got != wantDSN {
		t.Errorf("DSN = %q, want %q", got, wantDSN)
	}

	wantURL := "postgres://u:p@db:5433/campaigns?sslmode=disable"
	if got := db.MigrateURL(); got != wantURL {
		t.Errorf("MigrateURL = %q, want %q", got, wantURL)
	}
}
