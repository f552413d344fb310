package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRunRequiresURL(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"run"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected missing --url to fail")
	}
}

func TestRunAllPrintsDashboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze-all" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{
			"product": {"name": "Acme Kettle"},
			"reviewers": [{"id": 1, "name": "Ada"}],
			"reviews": [{"id": 1, "bot_id": 1, "rating": 5, "title": "Great"}],
			"analysis": {"average_rating": 5, "rating_distribution": [0,0,0,0,1], "positive_points": ["fast"]}
		}`)
	}))
	defer srv.Close()

	t.Setenv("LOG_LEVEL", "error")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--all", "--url", "https://shop.example/kettle", "--api-url", srv.URL})
	t.Cleanup(func() {
		runAll = false
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Dashboard: Acme Kettle", "Average 5.0", "fast"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}
