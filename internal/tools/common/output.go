package common

import (
	"encoding/json"
	"io"
	"os"
)

// Report is the machine-readable result a memberctl subcommand prints
// in --ci mode. Status is "ok" or "failed" rather than a bare bool so
// pipeline greps stay readable.
type Report struct {
	Status  string   `json:"status"`
	Title   string   `json:"title"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func PrintReport(ok bool, title string, details []string, err error) {
	WriteReport(os.Stdout, ok, title, details, err)
}

func WriteReport(w io.Writer, ok bool, title string, details []string, err error) {
	report := Report{Status: "ok", Title: title, Details: details}
	if !ok {
		report.Status = "failed"
	}
	if err != nil {
		report.Error = err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
