package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg == nil {
		t.Fatal("Config should not be nil")
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got %s", cfg.LogLevel)
	}
	if cfg.LLMModel != "gpt-4o" {
		t.Errorf("Expected default model 'gpt-4o', got %s", cfg.LLMModel)
	}
	if cfg.Namespace != "devops-ai" {
		t.Errorf("Expected default namespace 'devops-ai', got %s", cfg.Namespace)
	}
	if cfg.AWSRegion != "eu-north-1" {
		t.Errorf("Expected default region 'eu-north-1', got %s", cfg.AWSRegion)
	}
	if cfg.ShutdownTimeoutSec != 15 {
		t.Errorf("Expected default shutdown timeout 15, got %d", cfg.ShutdownTimeoutSec)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Setenv("OPSFORGE_PORT", "9000")
	os.Setenv("OPSFORGE_LLM_MODEL", "gpt-4-turbo")
	os.Setenv("OPSFORGE_NAMESPACE", "staging")
	defer func() {
		os.Unsetenv("OPSFORGE_PORT")
		os.Unsetenv("OPSFORGE_LLM_MODEL")
		os.Unsetenv("OPSFORGE_NAMESPACE")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Expected port 9000 from env, got %d", cfg.Port)
	}
	if cfg.LLMModel != "gpt-4-turbo" {
		t.Errorf("Expected model 'gpt-4-turbo' from env, got %s", cfg.LLMModel)
	}
	if cfg.Namespace != "staging" {
		t.Errorf("Expected namespace 'staging' from env, got %s", cfg.Namespace)
	}
}
