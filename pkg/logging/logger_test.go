package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Debug("hidden")
	log.WithField("address", "3a4b1e34").Info("stored")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "stored" || entry["address"] != "3a4b1e34" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewDebugText(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)

	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.GetLevel())
	}
	log.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug entry missing from %q", buf.String())
	}
}
