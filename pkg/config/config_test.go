package config

import "testing"

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv(envDataDir, "")
	t.Setenv(envTopNCacheSize, "")
	t.Setenv(envMetricsEnabled, "")
	t.Setenv(envMetricsAddr, "")

	cfg := LoadFromEnv()
	if cfg.DataDir != defaultDataDir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, defaultDataDir)
	}
	if cfg.TopNCacheSize != defaultTopNCacheSize {
		t.Errorf("TopNCacheSize = %d, want %d", cfg.TopNCacheSize, defaultTopNCacheSize)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv(envDataDir, "/srv/wikidata")
	t.Setenv(envTopNCacheSize, "512")
	t.Setenv(envMetricsEnabled, "true")
	t.Setenv(envMetricsAddr, ":1234")

	cfg := LoadFromEnv()
	if cfg.DataDir != "/srv/wikidata" {
		t.Errorf("DataDir = %q, want /srv/wikidata", cfg.DataDir)
	}
	if cfg.TopNCacheSize != 512 {
		t.Errorf("TopNCacheSize = %d, want 512", cfg.TopNCacheSize)
	}
	if !cfg.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true")
	}
	if cfg.MetricsAddr != ":1234" {
		t.Errorf("MetricsAddr = %q, want :1234", cfg.MetricsAddr)
	}
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	cfg := Config{DataDir: "", TopNCacheSize: 1}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted an empty DataDir")
	}
}

func TestValidateRejectsNonPositiveCacheSize(t *testing.T) {
	cfg := Config{DataDir: "data", TopNCacheSize: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted a zero TopNCacheSize")
	}
}

func TestValidateRejectsMetricsEnabledWithoutAddr(t *testing.T) {
	cfg := Config{DataDir: "data", TopNCacheSize: 1, MetricsEnabled: true, MetricsAddr: ""}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted MetricsEnabled with an empty MetricsAddr")
	}
}
