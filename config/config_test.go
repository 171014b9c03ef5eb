package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Mining.Threads != 1 {
		t.Errorf("default threads = %d, want 1", cfg.Mining.Threads)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q, want info", cfg.Log.Level)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero threads", func(c *Config) { c.Mining.Threads = 0 }},
		{"too many threads", func(c *Config) { c.Mining.Threads = MaxMiningThreads + 1 }},
		{"negative timeout", func(c *Config) { c.Mining.Timeout = -time.Second }},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate should reject")
			}
		})
	}

	if err := Validate(nil); err == nil {
		t.Error("Validate(nil) should reject")
	}
}

func writeConf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "powledger.conf")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConf(t, `# comment
mining.threads = 4
mining.timeout = "30s"

log.level = 'debug'
log.json = yes
`)
	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if values["mining.threads"] != "4" {
		t.Errorf("mining.threads = %q", values["mining.threads"])
	}
	if values["mining.timeout"] != "30s" {
		t.Errorf("quotes not stripped: %q", values["mining.timeout"])
	}

	cfg := Default()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if cfg.Mining.Threads != 4 || cfg.Mining.Timeout != 30*time.Second {
		t.Errorf("mining = %+v", cfg.Mining)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "nope.conf"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("missing file values = %v", values)
	}
}

func TestLoadFile_BadLine(t *testing.T) {
	path := writeConf(t, "mining.threads 4\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("line without '=' should fail")
	}
}

func TestApplyFileConfig_BadValue(t *testing.T) {
	cfg := Default()
	if err := ApplyFileConfig(cfg, map[string]string{"mining.threads": "many"}); err == nil {
		t.Error("non-numeric threads should fail")
	}
	if err := ApplyFileConfig(cfg, map[string]string{"mining.timeout": "soon"}); err == nil {
		t.Error("bad duration should fail")
	}
	if err := ApplyFileConfig(cfg, map[string]string{"unknown.key": "x"}); err != nil {
		t.Errorf("unknown keys should be ignored: %v", err)
	}
}

func TestWriteDefaultConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powledger.conf")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	def := Default()
	if cfg.Mining != def.Mining || cfg.Log != def.Log {
		t.Errorf("written defaults = %+v, want %+v", cfg, def)
	}
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"--threads=8", "--timeout=2s", "--log-level=warn", "--log-json"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if f.Threads != 8 || f.Timeout != 2*time.Second || f.LogLevel != "warn" {
		t.Errorf("flags = %+v", f)
	}
	if !f.SetTimeout || !f.SetLogJSON {
		t.Error("explicit flags not recorded")
	}

	cfg := Default()
	ApplyFlags(cfg, f)
	if cfg.Mining.Threads != 8 || cfg.Mining.Timeout != 2*time.Second {
		t.Errorf("mining = %+v", cfg.Mining)
	}
	if cfg.Log.Level != "warn" || !cfg.Log.JSON {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	if _, err := ParseFlags([]string{"--no-such-flag"}); err == nil {
		t.Error("unknown flag should fail")
	}
	if _, err := ParseFlags([]string{"extra", "--threads=2"}); err == nil {
		t.Error("flag after positional argument should fail")
	}

	f, err := ParseFlags([]string{"-h"})
	if err != nil {
		t.Fatalf("ParseFlags(-h): %v", err)
	}
	if !f.Help {
		t.Error("-h should set Help")
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConf(t, "mining.threads = 4\nlog.level = debug\n")

	cfg, _, err := Load([]string{"--config", path, "--threads=2"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mining.Threads != 2 {
		t.Errorf("flag should override file: threads = %d", cfg.Mining.Threads)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("file should override default: level = %q", cfg.Log.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	if _, _, err := Load([]string{"--log-level=loud"}); err == nil {
		t.Error("invalid log level should fail Load")
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	if !strings.Contains(buf.String(), "--threads") {
		t.Error("usage should document --threads")
	}
}

func TestGenesisConstants(t *testing.T) {
	if len(GenesisHash) != 64 || len(GenesisPrevHash) != 64 {
		t.Fatal("genesis hashes must be 64 hex characters")
	}
	if !strings.HasPrefix(GenesisHash, strings.Repeat("0", Difficulty)) {
		t.Error("genesis hash must carry the difficulty prefix")
	}
	if GenesisPrevHash != strings.Repeat("0", 64) {
		t.Error("genesis prev hash must be the all-zero sentinel")
	}
}
