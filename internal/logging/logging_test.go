package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: WarnLevel, Output: &buf})

	logger.Debug("debug message", nil)
	logger.Info("info message", nil)
	logger.Warn("warn message", nil)
	logger.Error("error message", nil)

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn should be filtered, got: %s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("warn and error should be logged, got: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: DebugLevel, Output: &buf})

	logger.Info("ingest complete", map[string]interface{}{
		"entity_code": "09011112",
		"changes":     3,
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["message"] != "ingest complete" {
		t.Errorf("message = %v, want 'ingest complete'", entry["message"])
	}
	fields, ok := entry["fields"].(map[string]interface{})
	if !ok {
		t.Fatal("fields missing from JSON entry")
	}
	if fields["entity_code"] != "09011112" {
		t.Errorf("fields.entity_code = %v, want 09011112", fields["entity_code"])
	}
}

func TestComponentTag(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: InfoLevel, Output: &buf})

	store := logger.Component("store")
	store.Info("opened", nil)

	if !strings.Contains(buf.String(), "(store)") {
		t.Errorf("expected component tag in output, got: %s", buf.String())
	}
}

func TestHumanFormatFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: InfoLevel, Output: &buf})

	logger.Info("diff computed", map[string]interface{}{"total_changes": 2})

	out := buf.String()
	if !strings.Contains(out, "diff computed") {
		t.Errorf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, "total_changes=2") {
		t.Errorf("expected field in output, got: %s", out)
	}
}
