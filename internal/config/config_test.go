package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.ExcerptMaxChars != def.ExcerptMaxChars {
		t.Errorf("ExcerptMaxChars = %d, want %d", cfg.ExcerptMaxChars, def.ExcerptMaxChars)
	}
	if cfg.RenderMaxDepth != 64 {
		t.Errorf("RenderMaxDepth = %d, want 64", cfg.RenderMaxDepth)
	}
	if cfg.PurgeSchedule != "@daily" {
		t.Errorf("PurgeSchedule = %q, want @daily", cfg.PurgeSchedule)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{"excerpt_max_chars": 80, "listen_addr": ":9000"}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ExcerptMaxChars != 80 {
		t.Errorf("ExcerptMaxChars = %d, want 80", cfg.ExcerptMaxChars)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want :9000", cfg.ListenAddr)
	}
	if cfg.TitleMaxChars != DefaultConfig().TitleMaxChars {
		t.Errorf("TitleMaxChars = %d, want default", cfg.TitleMaxChars)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DotenvAndEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{"excerpt_max_chars": 80}`)
	writeFile(t, filepath.Join(tmpDir, ".env"), "CLINICBOARD_EXCERPT_MAX_CHARS=100\nCLINICBOARD_LOG_LEVEL=debug\n")
	t.Setenv("CLINICBOARD_LOG_LEVEL", "warn")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ExcerptMaxChars != 100 {
		t.Errorf("ExcerptMaxChars = %d, want 100 (.env beats config.json)", cfg.ExcerptMaxChars)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (process env beats .env)", cfg.LogLevel)
	}
}

func TestLoad_InvalidEnvInt(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("CLINICBOARD_RENDER_MAX_DEPTH", "deep")

	if _, err := Load(tmpDir); err == nil {
		t.Fatal("Load() expected error for non-numeric override")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CLINICBOARD_PURGE_AFTER_DAYS":   "30",
		"CLINICBOARD_ALLOW_UNSAFE_PATHS": "true",
		"CLINICBOARD_DISABLED_TOOLS":     "notice_purge, notice_import ,",
		"CLINICBOARD_PURGE_SCHEDULE":     " 0 4 * * * ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	cfg.DisabledTools = []string{"notice_purge"}
	if err := ApplyEnv(cfg, lookup); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.PurgeAfterDays != 30 {
		t.Errorf("PurgeAfterDays = %d, want 30", cfg.PurgeAfterDays)
	}
	if !cfg.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should be true")
	}
	if len(cfg.DisabledTools) != 2 || cfg.DisabledTools[1] != "notice_import" {
		t.Errorf("DisabledTools = %v, want [notice_purge notice_import]", cfg.DisabledTools)
	}
	if cfg.PurgeSchedule != "0 4 * * *" {
		t.Errorf("PurgeSchedule = %q", cfg.PurgeSchedule)
	}
}

func TestApplyEnv_NegativeRejected(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "CLINICBOARD_NOTICE_MAX_BYTES" {
			return "-1", true
		}
		return "", false
	}
	if err := ApplyEnv(DefaultConfig(), lookup); err == nil {
		t.Fatal("expected error for negative value")
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{ExcerptMaxChars: 150, DBMaxOpenConns: 5, LogLevel: "info"}
	overlay := &Config{ExcerptMaxChars: 90} // DBMaxOpenConns is 0 (zero value)

	result := Merge(base, overlay)

	if result.ExcerptMaxChars != 90 {
		t.Errorf("ExcerptMaxChars = %d, want 90 (overlay)", result.ExcerptMaxChars)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
	if result.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", result.LogLevel)
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	base := &Config{AllowUnsafePaths: true}
	overlay := &Config{AllowUnsafePaths: false}

	result := Merge(base, overlay)

	if !result.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should be true (base OR overlay)")
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"notice_purge", "notice_delete"}}
	overlay := &Config{DisabledTools: []string{"notice_delete", "notice_import"}}

	result := Merge(base, overlay)

	if len(result.DisabledTools) != 3 {
		t.Fatalf("DisabledTools length = %d, want 3 (merged, deduped)", len(result.DisabledTools))
	}
	for i, want := range []string{"notice_purge", "notice_delete", "notice_import"} {
		if result.DisabledTools[i] != want {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, result.DisabledTools[i], want)
		}
	}
}

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"
	if err := ConfigureLogging(cfg, &buf); err != nil {
		t.Fatalf("ConfigureLogging() error = %v", err)
	}

	logrus.Info("hidden")
	logrus.WithField("notice_id", "x").Warn("shown")

	out := buf.String()
	if bytes.Contains([]byte(out), []byte("hidden")) {
		t.Errorf("info line should be filtered: %s", out)
	}
	if !bytes.Contains([]byte(out), []byte(`"notice_id":"x"`)) {
		t.Errorf("expected json field in output: %s", out)
	}

	cfg.LogFormat = "xml"
	if err := ConfigureLogging(cfg, &buf); err == nil {
		t.Error("expected error for unknown format")
	}
	cfg.LogFormat = "text"
	cfg.LogLevel = "loud"
	if err := ConfigureLogging(cfg, &buf); err == nil {
		t.Error("expected error for unknown level")
	}
}
