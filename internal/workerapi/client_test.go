package workerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Mathiasric/snaptosize-app/internal/catalog"
	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/infra"
)

func newTestClient(t *testing.T, ts *httptest.Server, opts Options) *Client {
	t.Helper()
	opts.BaseURL = ts.URL + "/"
	client, err := NewClient(opts)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "  "})
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestUploadSendsBytesAndHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "image/png" {
			t.Fatalf("content type = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("authorization = %q", got)
		}
		if r.Header.Get("x-request-id") == "" {
			t.Fatalf("missing x-request-id")
		}
		body, _ := io.ReadAll(r.Body)
		if !bytes.Equal(body, []byte{1, 2, 3}) {
			t.Fatalf("body = %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"image_key": "img-1"})
	}))
	defer ts.Close()

	client := newTestClient(t, ts, Options{Token: "tok"})
	key, err := client.Upload(context.Background(), "image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if key != "img-1" {
		t.Fatalf("key = %q, want img-1", key)
	}
}

func TestUploadWithoutTokenOmitsAuthorization(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("authorization = %q, want empty", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/octet-stream" {
			t.Fatalf("content type = %q", got)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts, Options{})
	if _, err := client.Upload(context.Background(), "", nil); !errors.Is(err, ErrNoImageKey) {
		t.Fatalf("err = %v, want ErrNoImageKey", err)
	}
}

func TestEnqueueErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantQuota bool
		wantMsg   string
	}{
		{name: "quota", status: http.StatusPaymentRequired, body: `{"error":"limit"}`, wantQuota: true, wantMsg: `HTTP 402: {"error":"limit"}`},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantMsg: "HTTP 500: boom"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			client := newTestClient(t, ts, Options{})
			_, err := client.Enqueue(context.Background(), EnqueueRequest{ImageKey: "k", Group: "2x3"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := errors.Is(err, domain.ErrQuotaExceeded); got != tc.wantQuota {
				t.Fatalf("errors.Is(quota) = %v, want %v", got, tc.wantQuota)
			}
			if err.Error() != tc.wantMsg {
				t.Fatalf("message = %q, want %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestEnqueueMissingJobID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts, Options{})
	if _, err := client.Enqueue(context.Background(), EnqueueRequest{ImageKey: "k", Group: "iso"}); !errors.Is(err, ErrNoJobID) {
		t.Fatalf("err = %v, want ErrNoJobID", err)
	}
}

func TestEnqueueSingleBody(t *testing.T) {
	var got map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"job_id":"job-7"}`))
	}))
	defer ts.Close()

	client := newTestClient(t, ts, Options{})
	out := domain.SingleOutput(catalog.Group2x3, catalog.Square, "12x12")
	id, err := client.Enqueue(context.Background(), NewEnqueueRequest("img", out))
	if err != nil || id != "job-7" {
		t.Fatalf("Enqueue = %q, %v", id, err)
	}
	want := map[string]string{"image_key": "img", "group": "SQUARE", "mode": "single", "orientation": "Square", "size": "12x12"}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("body[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestEnqueueGroupBodyHasNoSingleFields(t *testing.T) {
	req := NewEnqueueRequest("img", domain.GroupOutput(catalog.Group4x5))
	raw, _ := json.Marshal(req)
	if string(raw) != `{"image_key":"img","group":"4x5"}` {
		t.Fatalf("body = %s", raw)
	}
}

func TestRoutes(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		_, _ = w.Write([]byte(`{"status":"running"}`))
	}))
	defer ts.Close()

	direct := newTestClient(t, ts, Options{})
	gateway := newTestClient(t, ts, Options{Routes: &GatewayRoutes})
	if _, err := direct.Status(context.Background(), "a b"); err != nil {
		t.Fatalf("direct status: %v", err)
	}
	if _, err := gateway.Status(context.Background(), "a b"); err != nil {
		t.Fatalf("gateway status: %v", err)
	}
	if paths[0] != "/status/a%20b" || paths[1] != "/api/status?job_id=a+b" {
		t.Fatalf("paths = %v", paths)
	}
	if got := gateway.DownloadURL("j1"); got != ts.URL+"/api/download?job_id=j1" {
		t.Fatalf("DownloadURL = %q", got)
	}
}

func TestDownloadDefaults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "")
		_, _ = w.Write([]byte("PK"))
	}))
	defer ts.Close()

	client := newTestClient(t, ts, Options{})
	dl, err := client.Download(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	defer dl.Body.Close()
	if dl.Filename != "job-1.zip" {
		t.Fatalf("Filename = %q", dl.Filename)
	}
	data, _ := io.ReadAll(dl.Body)
	if string(data) != "PK" {
		t.Fatalf("body = %q", data)
	}
}

func TestDownloadUsesDisposition(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Disposition", `attachment; filename="print-12x18.jpg"`)
		_, _ = w.Write([]byte("jpg"))
	}))
	defer ts.Close()

	client := newTestClient(t, ts, Options{})
	dl, err := client.Download(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	defer dl.Body.Close()
	if dl.Filename != "print-12x18.jpg" || dl.ContentType != "image/jpeg" {
		t.Fatalf("download = %+v", dl)
	}
}

func TestForwardLogsWorkerCall(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-request-id", "worker-rid")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	var buf bytes.Buffer
	logger := infra.Logger(zerolog.New(&buf))
	client := newTestClient(t, ts, Options{Logger: &logger, UserID: "u1"})
	resp, err := client.Forward(context.Background(), Call{Method: http.MethodGet, Path: "/status/j1", JobID: "j1", Endpoint: "/api/status"})
	if err != nil {
		t.Fatalf("Forward error: %v", err)
	}
	resp.Body.Close()

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line not JSON: %q", buf.String())
	}
	checks := map[string]any{
		"event":       "worker_call",
		"endpoint":    "/api/status",
		"worker_path": "/status/j1",
		"request_id":  "worker-rid",
		"user_id":     "u1",
		"job_id":      "j1",
		"status":      float64(http.StatusAccepted),
	}
	for k, v := range checks {
		if line[k] != v {
			t.Fatalf("log[%s] = %v, want %v (line %s)", k, line[k], v, strings.TrimSpace(buf.String()))
		}
	}
	if _, ok := line["ms"]; !ok {
		t.Fatalf("log missing ms")
	}
}
