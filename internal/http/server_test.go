package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"farmstead/internal/core"
	"farmstead/internal/query"
	"farmstead/internal/services"
	"farmstead/internal/store/memory"
)

var testNow = time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	st := memory.New(memory.DefaultSeed(), memory.WithClock(func() time.Time { return testNow }))
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	srv := NewServer("127.0.0.1:0", st, nil, opts...)
	t.Cleanup(func() { srv.rateLimiter.stop(); srv.cacheManager.Stop() })
	return srv
}

func doRequest(srv *Server, method, target string, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rec := doRequest(srv, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestFarmCRUDRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/farms", `{
		"name": "Hilltop Orchard",
		"location": "Hood River, OR",
		"totalArea": 25,
		"areaUnit": "acres"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[core.Farm](t, rec)
	if created.ID != 3 {
		t.Fatalf("id = %d, want 3", created.ID)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("createdAt not stamped")
	}

	rec = doRequest(srv, http.MethodGet, fmt.Sprintf("/api/farms/%d", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}

	rec = doRequest(srv, http.MethodPatch, fmt.Sprintf("/api/farms/%d", created.ID), `{"location": "Mosier, OR"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch = %d, body %s", rec.Code, rec.Body.String())
	}
	patched := decodeBody[core.Farm](t, rec)
	if patched.Location != "Mosier, OR" {
		t.Errorf("location = %q", patched.Location)
	}
	if patched.Name != "Hilltop Orchard" {
		t.Errorf("patch clobbered name: %q", patched.Name)
	}

	rec = doRequest(srv, http.MethodDelete, fmt.Sprintf("/api/farms/%d", created.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = doRequest(srv, http.MethodGet, fmt.Sprintf("/api/farms/%d", created.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete = %d", rec.Code)
	}
}

func TestDeleteFarmCascadesToCrops(t *testing.T) {
	srv := newTestServer(t)

	if rec := doRequest(srv, http.MethodDelete, "/api/farms/1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}

	rec := doRequest(srv, http.MethodGet, "/api/crops?farmId=1", "")
	crops := decodeBody[[]core.Crop](t, rec)
	if len(crops) != 0 {
		t.Fatalf("crops for deleted farm = %d, want 0", len(crops))
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown farm", http.MethodGet, "/api/farms/999", "", http.StatusNotFound},
		{"non-numeric id", http.MethodGet, "/api/farms/abc", "", http.StatusUnprocessableEntity},
		{"malformed body", http.MethodPost, "/api/farms", `{"name":`, http.StatusUnprocessableEntity},
		{"validation failure", http.MethodPost, "/api/farms", `{"name":""}`, http.StatusUnprocessableEntity},
		{"unknown task", http.MethodPatch, "/api/tasks/999", `{"title":"x"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestValidationResponseCarriesFieldDetail(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/farms", `{"name":"", "totalArea": -1}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[struct {
		Error  string            `json:"error"`
		Errors map[string]string `json:"errors"`
	}](t, rec)
	if body.Errors["name"] == "" {
		t.Errorf("missing name detail: %v", body.Errors)
	}
	if body.Errors["totalArea"] == "" {
		t.Errorf("missing totalArea detail: %v", body.Errors)
	}
}

func TestListTasks_OverdueFirst(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/tasks", "")
	tasks := decodeBody[[]core.Task](t, rec)
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(tasks))
	}
	// task 1 is past due at the fixed clock, task 2 is not
	if tasks[0].ID != 1 || tasks[1].ID != 2 {
		t.Fatalf("order = [%d %d], want [1 2]", tasks[0].ID, tasks[1].ID)
	}
}

func TestListTransactions_NewestFirst(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/transactions", "")
	txs := decodeBody[[]core.Transaction](t, rec)
	var ids []int64
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	want := []int64{2, 3, 1}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestTodaysTasks(t *testing.T) {
	srv := newTestServer(t, WithClock(func() time.Time {
		return time.Date(2025, 8, 28, 9, 0, 0, 0, time.UTC)
	}))

	rec := doRequest(srv, http.MethodGet, "/api/tasks/today", "")
	tasks := decodeBody[[]core.Task](t, rec)
	if len(tasks) != 1 || tasks[0].ID != 1 {
		t.Fatalf("todays tasks = %+v, want task 1", tasks)
	}
}

func TestTaskStats(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/tasks/stats", "")
	stats := decodeBody[query.TaskStatistics](t, rec)
	if stats.Total != 2 || stats.Pending != 2 || stats.Overdue != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestTransactionSummary(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/transactions/summary", "")
	sum := decodeBody[query.FinancialSummary](t, rec)
	if sum.TotalIncome.Cents != 1092000 || sum.TransactionCount != 3 {
		t.Fatalf("summary = %+v", sum)
	}

	rec = doRequest(srv, http.MethodGet, "/api/transactions/summary?year=2025&month=8", "")
	monthly := decodeBody[query.FinancialSummary](t, rec)
	if monthly.TotalIncome.Cents != 312000 || monthly.TransactionCount != 1 {
		t.Fatalf("monthly = %+v", monthly)
	}

	rec = doRequest(srv, http.MethodGet, "/api/transactions/summary?farmId=2", "")
	scoped := decodeBody[query.FinancialSummary](t, rec)
	if scoped.TotalIncome.Cents != 780000 || scoped.TransactionCount != 1 {
		t.Fatalf("scoped = %+v", scoped)
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	d := decodeBody[services.Dashboard](t, rec)
	if len(d.Farms) != 2 {
		t.Errorf("farms = %d, want 2", len(d.Farms))
	}
	if d.ActiveCrops != 3 {
		t.Errorf("active crops = %d, want 3", d.ActiveCrops)
	}
	if d.Summary.TransactionCount != 3 {
		t.Errorf("summary count = %d, want 3", d.Summary.TransactionCount)
	}
}

func TestActiveCropCount(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/farms/2/active-crops", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[map[string]int](t, rec)
	if body["activeCropCount"] != 1 {
		t.Fatalf("count = %d, want 1", body["activeCropCount"])
	}

	if rec := doRequest(srv, http.MethodGet, "/api/farms/999/active-crops", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown farm = %d, want 404", rec.Code)
	}
}

func TestListCrops_Filter(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/crops?farmId=1", "")
	crops := decodeBody[[]core.Crop](t, rec)
	if len(crops) != 2 {
		t.Fatalf("farm 1 crops = %d, want 2", len(crops))
	}

	rec = doRequest(srv, http.MethodGet, "/api/crops?farmId=1&name=Tomatoes", "")
	crops = decodeBody[[]core.Crop](t, rec)
	if len(crops) != 1 || crops[0].ID != 1 {
		t.Fatalf("filtered crops = %+v", crops)
	}
}

func TestMutationInvalidatesCachedStats(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/tasks/stats", "")
	before := decodeBody[query.TaskStatistics](t, rec)

	rec = doRequest(srv, http.MethodPost, "/api/tasks", `{
		"farmId": 1,
		"title": "Mow headlands",
		"dueDate": "2025-09-10T08:00:00Z",
		"priority": "Low",
		"status": "Pending"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(srv, http.MethodGet, "/api/tasks/stats", "")
	after := decodeBody[query.TaskStatistics](t, rec)
	if after.Total != before.Total+1 {
		t.Fatalf("total = %d, want %d", after.Total, before.Total+1)
	}
}

func TestTaskStatusPatchStampsCompletedAt(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodPatch, "/api/tasks/1", `{"status": "Completed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch = %d, body %s", rec.Code, rec.Body.String())
	}
	task := decodeBody[core.Task](t, rec)
	if task.CompletedAt == nil || !task.CompletedAt.Equal(testNow) {
		t.Fatalf("completedAt = %v, want %v", task.CompletedAt, testNow)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/farms", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv := newTestServer(t)

	var last int
	for i := 0; i < 61; i++ {
		rec := doRequest(srv, http.MethodDelete, "/api/tasks/999", "")
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("61st mutation = %d, want 429", last)
	}

	// reads are never limited
	if rec := doRequest(srv, http.MethodGet, "/api/tasks", ""); rec.Code != http.StatusOK {
		t.Fatalf("read after limit = %d, want 200", rec.Code)
	}
}

func TestUpsertTransactionKeepsPathID(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"farmId": 1,
		"type": "Expense",
		"category": "Utilities",
		"amount": 82.00,
		"description": "Well pump electricity",
		"date": "2025-08-22"
	}`
	rec := doRequest(srv, http.MethodPut, "/api/transactions/40", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("put = %d, body %s", rec.Code, rec.Body.String())
	}
	stored := decodeBody[core.Transaction](t, rec)
	if stored.ID != 40 {
		t.Fatalf("id = %d, want 40", stored.ID)
	}

	// A second put to the same id replaces the record instead of adding one.
	rec = doRequest(srv, http.MethodPut, "/api/transactions/40", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("second put = %d", rec.Code)
	}
	rec = doRequest(srv, http.MethodGet, "/api/transactions", "")
	txs := decodeBody[[]core.Transaction](t, rec)
	if len(txs) != 4 {
		t.Fatalf("transactions = %d, want 4", len(txs))
	}
}

func TestEmptyListSerializesAsArray(t *testing.T) {
	srv := newTestServer(t)

	for id := 1; id <= 3; id++ {
		if rec := doRequest(srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", id), ""); rec.Code != http.StatusNoContent {
			t.Fatalf("delete %d = %d", id, rec.Code)
		}
	}

	rec := doRequest(srv, http.MethodGet, "/api/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q, want []", got)
	}
}

func TestTaskPatchNullClearsCropReference(t *testing.T) {
	srv := newTestServer(t)

	// A patch that never names cropId leaves the reference alone.
	rec := doRequest(srv, http.MethodPatch, "/api/tasks/1", `{"title": "Irrigate and check emitters"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch = %d, body %s", rec.Code, rec.Body.String())
	}
	task := decodeBody[core.Task](t, rec)
	if task.CropID == nil {
		t.Fatal("absent cropId cleared the reference")
	}

	rec = doRequest(srv, http.MethodPatch, "/api/tasks/1", `{"cropId": null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch null = %d, body %s", rec.Code, rec.Body.String())
	}
	task = decodeBody[core.Task](t, rec)
	if task.CropID != nil {
		t.Fatalf("cropId = %d, want cleared", *task.CropID)
	}

	rec = doRequest(srv, http.MethodPatch, "/api/tasks/1", `{"cropId": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch reattach = %d", rec.Code)
	}
	task = decodeBody[core.Task](t, rec)
	if task.CropID == nil || *task.CropID != 2 {
		t.Fatalf("cropId = %v, want 2", task.CropID)
	}
}

func TestUnknownQueryFieldMatchesNothing(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/crops?farmId=two", "")
	crops := decodeBody[[]core.Crop](t, rec)
	if len(crops) != 0 {
		t.Fatalf("crops = %d, want 0", len(crops))
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
}
