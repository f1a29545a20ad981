package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, true, "seed apply", []string{"admin seeded"}, nil)

	var report Report
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Status != "ok" || report.Title != "seed apply" || report.Error != "" {
		t.Fatalf("unexpected report: %+v", report)
	}

	buf.Reset()
	WriteReport(&buf, false, "migrate up", nil, errors.New("dial failed"))
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Status != "failed" || report.Error != "dial failed" {
		t.Fatalf("unexpected report: %+v", report)
	}
}
