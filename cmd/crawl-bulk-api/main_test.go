package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/bulk-crawler/internal/testutil"
)

func TestRun_MissingAPIKey(t *testing.T) {
	mock := testutil.NewMockBulkAPI()
	defer mock.Close()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := run(context.Background(), []string{"--endpoint", mock.URL()}, strings.NewReader("h1\n"), stdout, stderr)

	if code != exitConfig {
		t.Errorf("exit code = %d, want %d", code, exitConfig)
	}
	if !strings.Contains(stderr.String(), "--api_key is required") {
		t.Errorf("stderr = %q, want missing key message", stderr.String())
	}
	if !strings.Contains(stderr.String(), "Usage") {
		t.Errorf("stderr = %q, want usage", stderr.String())
	}
	if mock.CallCount() != 0 {
		t.Errorf("CallCount() = %d, want no network activity", mock.CallCount())
	}
}

func TestRun_Help(t *testing.T) {
	stderr := &bytes.Buffer{}
	code := run(context.Background(), []string{"--help"}, strings.NewReader(""), &bytes.Buffer{}, stderr)

	if code != exitOK {
		t.Errorf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stderr.String(), "--api_key") {
		t.Errorf("usage does not list --api_key: %q", stderr.String())
	}
}

func TestRun_EndToEnd(t *testing.T) {
	mock := testutil.NewMockBulkAPI()
	defer mock.Close()
	mock.SetFailPath("/hotels/h2/seal.json?lang=en", 404)

	metricsFile := filepath.Join(t.TempDir(), "bulk.prom")
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	args := []string{
		"--api_key", "secret",
		"--endpoint", mock.URL(),
		"--widgets", "seal",
		"--languages", "en",
		"--metrics_file", metricsFile,
	}

	code := run(context.Background(), args, strings.NewReader("h1\nh2\n"), stdout, stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d; stderr: %s", code, exitOK, stderr.String())
	}

	if got, want := stdout.String(), "Ok: /hotels/h1/seal.json?lang=en\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if !strings.Contains(stderr.String(), "Crawling widgets seal in languages en") {
		t.Errorf("stderr missing start line: %s", stderr.String())
	}
	if !strings.Contains(stderr.String(), "failed with error 404") {
		t.Errorf("stderr missing request failure: %s", stderr.String())
	}

	calls := mock.Calls()
	if len(calls) != 1 || calls[0].Key != "secret" || len(calls[0].RequestList) != 2 {
		t.Errorf("calls = %+v", calls)
	}

	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), "bulk_widget_requests_total") {
		t.Errorf("metrics file missing crawl counters:\n%s", data)
	}
}

func TestRun_TransportFault(t *testing.T) {
	mock := testutil.NewMockBulkAPI()
	defer mock.Close()
	mock.EnqueueRaw(502, "not json")

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	args := []string{"--api_key", "secret", "--endpoint", mock.URL()}

	code := run(context.Background(), args, strings.NewReader("h1\n"), stdout, stderr)
	if code != exitFault {
		t.Errorf("exit code = %d, want %d", code, exitFault)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Crawl aborted") {
		t.Errorf("stderr missing abort: %s", stderr.String())
	}
}

func TestRun_BatchFailureStillExitsZero(t *testing.T) {
	mock := testutil.NewMockBulkAPI()
	defer mock.Close()
	mock.EnqueueBatchError(401)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	args := []string{"--api_key", "wrong", "--endpoint", mock.URL()}

	code := run(context.Background(), args, strings.NewReader("h1\n"), stdout, stderr)
	if code != exitOK {
		t.Errorf("exit code = %d, want %d", code, exitOK)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Bulk request failed with error 401") {
		t.Errorf("stderr missing batch failure: %s", stderr.String())
	}
}

func TestRun_ConnectionFaultLoggedOnce(t *testing.T) {
	mock := testutil.NewMockBulkAPI()
	endpoint := mock.URL()
	mock.Close()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	args := []string{"--api_key", "secret", "--endpoint", endpoint}

	code := run(context.Background(), args, strings.NewReader("h1\n"), stdout, stderr)
	if code != exitFault {
		t.Errorf("exit code = %d, want %d", code, exitFault)
	}
	if n := strings.Count(stderr.String(), `"level":"error"`); n != 1 {
		t.Errorf("error events = %d, want 1; stderr: %s", n, stderr.String())
	}
	if !strings.Contains(stderr.String(), "batch 1") {
		t.Errorf("stderr does not name the failed batch: %s", stderr.String())
	}
}
