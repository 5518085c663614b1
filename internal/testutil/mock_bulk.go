// Package testutil provides testing utilities for the Bulk API client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// BulkCall is one recorded Bulk API call.
type BulkCall struct {
	RequestList []string
	Key         string
	ContentType string
	UserAgent   string
}

// MockBulkAPI is a configurable mock Bulk API server for testing.
//
// By default every call succeeds with code 200 and one code-200 entry per
// requested path. Handlers queued with Enqueue are used once each, in order,
// before falling back to the default.
type MockBulkAPI struct {
	server *httptest.Server
	mu     sync.Mutex
	queue  []func(w http.ResponseWriter, list []string)

	failPaths map[string]int
	calls     []BulkCall
}

// NewMockBulkAPI creates and starts a mock Bulk API server.
func NewMockBulkAPI() *MockBulkAPI {
	mock := &MockBulkAPI{
		failPaths: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var list []string
		if err := json.Unmarshal([]byte(r.PostForm.Get("request_list")), &list); err != nil {
			WriteBulk(w, http.StatusBadRequest, nil)
			return
		}

		mock.mu.Lock()
		mock.calls = append(mock.calls, BulkCall{
			RequestList: list,
			Key:         r.PostForm.Get("key"),
			ContentType: r.Header.Get("Content-Type"),
			UserAgent:   r.Header.Get("User-Agent"),
		})
		var handler func(w http.ResponseWriter, list []string)
		if len(mock.queue) > 0 {
			handler = mock.queue[0]
			mock.queue = mock.queue[1:]
		}
		mock.mu.Unlock()

		if handler != nil {
			handler(w, list)
			return
		}
		mock.defaultHandler(w, list)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockBulkAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBulkAPI) Close() {
	m.server.Close()
}

// Enqueue adds a one-shot handler for the next unhandled call.
func (m *MockBulkAPI) Enqueue(handler func(w http.ResponseWriter, list []string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, handler)
}

// SetFailPath makes the default handler answer path with code.
func (m *MockBulkAPI) SetFailPath(path string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPaths[path] = code
}

// EnqueueBatchError makes the next call fail at batch level with code.
func (m *MockBulkAPI) EnqueueBatchError(code int) {
	m.Enqueue(func(w http.ResponseWriter, _ []string) {
		WriteBulk(w, code, nil)
	})
}

// EnqueueCodes makes the next call answer with exactly the given per-request codes.
func (m *MockBulkAPI) EnqueueCodes(codes ...int) {
	m.Enqueue(func(w http.ResponseWriter, _ []string) {
		WriteBulk(w, http.StatusOK, codes)
	})
}

// EnqueueRaw makes the next call answer with a raw body.
func (m *MockBulkAPI) EnqueueRaw(status int, body string) {
	m.Enqueue(func(w http.ResponseWriter, _ []string) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
}

// Calls returns a copy of all recorded calls.
func (m *MockBulkAPI) Calls() []BulkCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BulkCall(nil), m.calls...)
}

// CallCount returns the number of calls made to the server.
func (m *MockBulkAPI) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockBulkAPI) defaultHandler(w http.ResponseWriter, list []string) {
	m.mu.Lock()
	codes := make([]int, len(list))
	for i, path := range list {
		codes[i] = http.StatusOK
		if code, ok := m.failPaths[path]; ok {
			codes[i] = code
		}
	}
	m.mu.Unlock()

	WriteBulk(w, http.StatusOK, codes)
}

// WriteBulk writes a Bulk API style body with the outer code and one entry per
// per-request code. Entries carry a small payload next to their meta.
func WriteBulk(w http.ResponseWriter, code int, codes []int) {
	type meta struct {
		Code int `json:"code"`
	}
	type entry struct {
		Meta     meta           `json:"meta"`
		Response map[string]any `json:"response"`
	}

	body := struct {
		Meta     meta `json:"meta"`
		Response struct {
			ResponseList []entry `json:"response_list"`
		} `json:"response"`
	}{Meta: meta{Code: code}}

	body.Response.ResponseList = make([]entry, 0, len(codes))
	for i, c := range codes {
		body.Response.ResponseList = append(body.Response.ResponseList, entry{
			Meta:     meta{Code: c},
			Response: map[string]any{"index": i},
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}
