package main

import (
	"strings"
	"testing"
)

func TestConfigCmd(t *testing.T) {
	project := isolate(t)
	writeProjectConfig(t, project, "log_level: debug\nlearnings:\n  threshold: 0.8\n")

	out, err := runCLI(t, "", "config", "--json")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	result := decodeJSON(t, out)
	cfg, _ := result["config"].(map[string]any)
	if cfg["log_level"] != "debug" {
		t.Errorf("log_level = %v, want debug", cfg["log_level"])
	}
	lc, _ := cfg["learnings"].(map[string]any)
	if lc["threshold"] != 0.8 {
		t.Errorf("learnings.threshold = %v, want 0.8", lc["threshold"])
	}
	sources, _ := result["sources"].([]any)
	if len(sources) != 1 || !strings.HasSuffix(sources[0].(string), "config.yaml") {
		t.Errorf("sources = %v, want the project file", sources)
	}

	out, err = runCLI(t, "", "config")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	if !strings.Contains(out, "log_level: debug") {
		t.Errorf("human output missing merged value:\n%s", out)
	}
}
