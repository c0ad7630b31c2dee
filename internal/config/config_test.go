package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Simulado.QuestionChunkSize != 10 {
		t.Errorf("chunk size = %d, want 10", cfg.Simulado.QuestionChunkSize)
	}
	if cfg.Simulado.SecondsPerQuestion != 160 {
		t.Errorf("seconds per question = %d, want 160", cfg.Simulado.SecondsPerQuestion)
	}
	if cfg.Simulado.WriteTimeout != 15*time.Second {
		t.Errorf("write timeout = %v", cfg.Simulado.WriteTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_URI", "redis://cache:6380")
	t.Setenv("SIMULADO_QUESTION_CHUNK_SIZE", "5")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Redis.URI != "cache:6380" {
		t.Errorf("redis uri = %q, want prefix stripped", cfg.Redis.URI)
	}
	if cfg.Simulado.QuestionChunkSize != 5 {
		t.Errorf("chunk size = %d, want 5", cfg.Simulado.QuestionChunkSize)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "server:\n  mode: debug\nsimulado:\n  mirror_interval: 12\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Mode != "debug" {
		t.Errorf("mode = %q, want debug", cfg.Server.Mode)
	}
	if cfg.Simulado.MirrorInterval != 12 {
		t.Errorf("mirror interval = %d, want 12", cfg.Simulado.MirrorInterval)
	}
}
