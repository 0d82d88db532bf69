package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testDefaults = ConfigSettings{MaxArticles: 5, Timeout: 30}

func writeSourceFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	writeSourceFile(t, tempDir, "lenta.yml", `
url: "https://lenta.ru/rss"
text_field: "summary"

settings:
  enabled: true
  order: 2
  max_articles: 10
  timeout: 15

filters:
  - field: "title"
    includes:
      - "наука"
    excludes:
      - "реклама"
`)

	configCache := NewConfigCache(tempDir, testDefaults)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 source config, got %d", configCache.GetConfigCount())
	}

	sourceConfig, err := configCache.GetConfig("lenta")
	if err != nil {
		t.Fatal(err)
	}

	if sourceConfig.Name != "lenta" {
		t.Errorf("Expected name 'lenta', got '%s'", sourceConfig.Name)
	}
	if sourceConfig.URL != "https://lenta.ru/rss" {
		t.Errorf("Expected URL 'https://lenta.ru/rss', got '%s'", sourceConfig.URL)
	}
	if sourceConfig.TextField != "summary" {
		t.Errorf("Expected text field 'summary', got '%s'", sourceConfig.TextField)
	}
	if sourceConfig.Settings.MaxArticles != 10 {
		t.Errorf("Expected max articles 10, got %d", sourceConfig.Settings.MaxArticles)
	}
	if sourceConfig.GetTimeout() != 15*time.Second {
		t.Errorf("Expected timeout 15s, got %v", sourceConfig.GetTimeout())
	}
	if len(sourceConfig.Filters) != 1 {
		t.Errorf("Expected 1 filter, got %d", len(sourceConfig.Filters))
	}
}

func TestConfigCacheAppliesDefaults(t *testing.T) {
	tempDir := t.TempDir()

	writeSourceFile(t, tempDir, "ria.yml", `
url: "https://ria.ru/"
settings:
  enabled: true
`)

	configCache := NewConfigCache(tempDir, testDefaults)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	sourceConfig, err := configCache.GetConfig("ria")
	if err != nil {
		t.Fatal(err)
	}

	if sourceConfig.TextField != DefaultTextField {
		t.Errorf("Expected text field '%s', got '%s'", DefaultTextField, sourceConfig.TextField)
	}
	if sourceConfig.Settings.MaxArticles != 5 {
		t.Errorf("Expected default max articles 5, got %d", sourceConfig.Settings.MaxArticles)
	}
	if sourceConfig.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", sourceConfig.Settings.Timeout)
	}
}

func TestConfigCacheInvalidConfigs(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		errorMsg string
	}{
		{
			name:     "missing url",
			content:  "settings:\n  enabled: true\n",
			errorMsg: "source URL is required",
		},
		{
			name:     "invalid text field",
			content:  "url: \"https://example.com\"\ntext_field: \"body\"\n",
			errorMsg: "invalid text field",
		},
		{
			name:     "negative max articles",
			content:  "url: \"https://example.com\"\nsettings:\n  max_articles: -1\n",
			errorMsg: "max articles must be non-negative",
		},
		{
			name:     "invalid filter field",
			content:  "url: \"https://example.com\"\nfilters:\n  - field: \"author\"\n    includes: [\"x\"]\n",
			errorMsg: "invalid filter field",
		},
		{
			name:     "empty filter",
			content:  "url: \"https://example.com\"\nfilters:\n  - field: \"title\"\n",
			errorMsg: "at least one include or exclude rule",
		},
		{
			name:     "malformed yaml",
			content:  "url: [unclosed\n",
			errorMsg: "failed to parse YAML",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeSourceFile(t, tempDir, "broken.yml", tc.content)

			configCache := NewConfigCache(tempDir, testDefaults)
			err := configCache.Run()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.errorMsg) {
				t.Errorf("Expected error containing '%s', got '%s'", tc.errorMsg, err.Error())
			}
		})
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache(filepath.Join(t.TempDir(), "missing"), testDefaults)
	if err := configCache.Run(); err != nil {
		t.Errorf("Expected no error for missing directory, got: %v", err)
	}
	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 source configs, got %d", configCache.GetConfigCount())
	}
}

func TestConfigCacheGetEnabledConfigsOrder(t *testing.T) {
	tempDir := t.TempDir()

	writeSourceFile(t, tempDir, "b.yml", "url: \"https://b.example.com\"\nsettings:\n  enabled: true\n  order: 1\n")
	writeSourceFile(t, tempDir, "a.yml", "url: \"https://a.example.com\"\nsettings:\n  enabled: true\n  order: 1\n")
	writeSourceFile(t, tempDir, "c.yml", "url: \"https://c.example.com\"\nsettings:\n  enabled: true\n  order: 0\n")
	writeSourceFile(t, tempDir, "d.yml", "url: \"https://d.example.com\"\nsettings:\n  enabled: false\n")

	configCache := NewConfigCache(tempDir, testDefaults)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	enabled := configCache.GetEnabledConfigs()
	var names []string
	for _, c := range enabled {
		names = append(names, c.Name)
	}

	expected := "c,a,b"
	if strings.Join(names, ",") != expected {
		t.Errorf("Expected order %s, got %s", expected, strings.Join(names, ","))
	}
}

func TestConfigCacheGetConfigNotFound(t *testing.T) {
	configCache := NewConfigCache(t.TempDir(), testDefaults)

	_, err := configCache.GetConfig("nope")
	if err == nil {
		t.Error("Expected error for unknown source, got nil")
	}
}
