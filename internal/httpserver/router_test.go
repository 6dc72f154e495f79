package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"yardops/internal/domain"
	"yardops/internal/gateway/memory"
	"yardops/internal/metrics"
	"yardops/internal/notify"
	"yardops/internal/service/grouping"
	"yardops/internal/service/insights"
	"yardops/internal/service/ledger"
	"yardops/internal/service/schedule"
	"yardops/internal/store"
)

var today = domain.MustParseDate("2024-05-10")

type fixture struct {
	mem    *memory.Gateway
	stores *store.Stores
	feed   *notify.Feed
	router *gin.Engine
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := memory.New()
	grp := mem.PutGroup(domain.CustomerGroup{ID: "g1", Name: "North", Color: "#4caf50", CustomerIDs: []string{"c1"}})
	mem.PutCustomer(domain.Customer{ID: "c1", Name: "Alice", Address: "1 Elm St", Price: 50, GroupID: &grp.ID})
	mem.PutCustomer(domain.Customer{ID: "c2", Name: "Bob", Address: "2 Oak St", Price: 40})
	mem.PutJob(domain.Job{ID: "j1", CustomerID: "c2", Date: domain.MustParseDate("2024-05-15"), Status: domain.JobScheduled})
	mem.PutJob(domain.Job{ID: "j2", CustomerID: "c1", Date: domain.MustParseDate("2024-05-08"), Status: domain.JobCompleted, TotalTime: domain.IntPtr(60)})

	m := metrics.New()
	stores := store.New(mem, nil)
	feed := notify.NewFeed(notify.DefaultHistory, nil, m)
	clock := func() domain.Date { return today }
	engine := insights.NewEngine(stores, m, nil).WithClock(clock)

	deps := Deps{
		Schedule:      schedule.New(mem, stores, feed, nil).WithClock(clock),
		Groups:        grouping.New(mem, stores, feed, nil),
		Ledger:        ledger.New(mem, stores, feed, nil),
		Insights:      engine,
		Notifications: feed,
		Customers:     stores.Customers,
		Stores:        stores,
		Metrics:       m,
	}
	router, err := buildRouter(nil, deps, opts)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &fixture{mem: mem, stores: stores, feed: feed, router: router}
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	if err := f.stores.RefreshAll(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	f := newFixture(t, Options{})

	if rec := f.do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before load, got %d", rec.Code)
	}
	f.load(t)
	if rec := f.do(http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after load, got %d", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	f := newFixture(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc" {
		t.Fatalf("expected request id echoed, got %q", got)
	}

	rec = f.do(http.MethodGet, "/healthz", "")
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestRescheduleJob(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	rec := f.do(http.MethodPost, "/api/jobs/j1/reschedule", `{"date":"2024-05-20"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res schedule.RescheduleResult
	decode(t, rec, &res)
	if res.NoOp || res.Job.Date != domain.MustParseDate("2024-05-20") {
		t.Fatalf("unexpected result %+v", res)
	}
	if j, _ := f.stores.Jobs.Get("j1"); j.Date != domain.MustParseDate("2024-05-20") {
		t.Fatalf("store not updated: %+v", j)
	}

	rec = f.do(http.MethodGet, "/api/notifications?limit=1", "")
	var body struct {
		Results []struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"results"`
	}
	decode(t, rec, &body)
	if len(body.Results) != 1 || body.Results[0].Kind != "success" || !strings.HasPrefix(body.Results[0].Message, "Moved") {
		t.Fatalf("unexpected notifications %+v", body.Results)
	}
}

func TestRescheduleJob_Errors(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "malformed body", path: "/api/jobs/j1/reschedule", body: `{`, want: http.StatusBadRequest},
		{name: "bad date", path: "/api/jobs/j1/reschedule", body: `{"date":"05/20/2024"}`, want: http.StatusUnprocessableEntity},
		{name: "missing date", path: "/api/jobs/j1/reschedule", body: `{}`, want: http.StatusUnprocessableEntity},
		{name: "unknown job", path: "/api/jobs/nope/reschedule", body: `{"date":"2024-05-20"}`, want: http.StatusNotFound},
		{name: "completed job", path: "/api/jobs/j2/reschedule", body: `{"date":"2024-05-20"}`, want: http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := f.do(http.MethodPost, tc.path, tc.body); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGatewayFailureMapsToBadGateway(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)
	f.mem.FailOn("updateJob", errors.New("connection reset"))

	rec := f.do(http.MethodPost, "/api/jobs/j1/reschedule", `{"date":"2024-05-20"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("backend detail leaked into response: %s", rec.Body.String())
	}
	if j, _ := f.stores.Jobs.Get("j1"); j.Date != domain.MustParseDate("2024-05-15") {
		t.Fatalf("store changed on failure: %+v", j)
	}
	if last, ok := f.feed.Last(); !ok || last.Kind != notify.Failure {
		t.Fatalf("expected failure notification, got %+v", last)
	}
}

func TestScheduleDragFlow(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	if rec := f.do(http.MethodPost, "/api/schedule/drag/drop", ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 without active drag, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/api/schedule/drag/start", `{"jobId":"j1"}`); rec.Code != http.StatusOK {
		t.Fatalf("start: %d %s", rec.Code, rec.Body.String())
	}
	rec := f.do(http.MethodPost, "/api/schedule/drag/over", `{"date":"2024-05-22"}`)
	var state map[string]any
	decode(t, rec, &state)
	if state["state"] != "hovering" || state["entity"] != "j1" || state["target"] != "2024-05-22" {
		t.Fatalf("unexpected drag state %v", state)
	}

	rec = f.do(http.MethodPost, "/api/schedule/drag/drop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("drop: %d %s", rec.Code, rec.Body.String())
	}
	if j, _ := f.stores.Jobs.Get("j1"); j.Date != domain.MustParseDate("2024-05-22") {
		t.Fatalf("job not moved: %+v", j)
	}

	rec = f.do(http.MethodGet, "/api/schedule/drag", "")
	decode(t, rec, &state)
	if state["state"] != "idle" {
		t.Fatalf("expected idle after drop, got %v", state)
	}
}

func TestCalendar(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	rec := f.do(http.MethodGet, "/api/schedule?month=2024-06", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cal schedule.Calendar
	decode(t, rec, &cal)
	if cal.Label != "June 2024" || len(cal.Cells) != schedule.GridDays {
		t.Fatalf("unexpected calendar %s with %d cells", cal.Label, len(cal.Cells))
	}

	rec = f.do(http.MethodPost, "/api/schedule/month/prev", "")
	decode(t, rec, &cal)
	if cal.Label != "May 2024" {
		t.Fatalf("expected May 2024, got %s", cal.Label)
	}

	if rec := f.do(http.MethodGet, "/api/schedule?month=2024-13", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestDeleteGroupRequiresConfirmation(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	rec := f.do(http.MethodDelete, "/api/groups/g1", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body errorResponse
	decode(t, rec, &body)
	if !strings.Contains(body.Confirm, "1 customer(s)") {
		t.Fatalf("unexpected prompt %q", body.Confirm)
	}
	if got := f.mem.MutationCalls(); len(got) != 0 {
		t.Fatalf("expected no writes, got %v", got)
	}

	if rec := f.do(http.MethodDelete, "/api/groups/g1?confirm=true", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if c, _ := f.stores.Customers.Get("c1"); c.GroupID != nil {
		t.Fatalf("expected c1 ungrouped, got %v", *c.GroupID)
	}
}

func TestGroupLifecycle(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	rec := f.do(http.MethodPost, "/api/groups", `{"name":"  ","workTimeMinutes":90}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for blank name, got %d", rec.Code)
	}

	rec = f.do(http.MethodPost, "/api/groups", `{"name":"South","workTimeMinutes":90}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.CustomerGroup
	decode(t, rec, &created)

	rec = f.do(http.MethodPost, "/api/groups/"+created.ID+"/members", `{"customerId":"c1"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("assign: %d %s", rec.Code, rec.Body.String())
	}
	if c, _ := f.stores.Customers.Get("c1"); c.GroupID == nil || *c.GroupID != created.ID {
		t.Fatalf("customer not moved: %+v", c)
	}

	rec = f.do(http.MethodGet, "/api/groups", "")
	var board grouping.Board
	decode(t, rec, &board)
	if len(board.Groups) != 2 || len(board.Unassigned) != 1 {
		t.Fatalf("unexpected board %+v", board)
	}

	if rec := f.do(http.MethodDelete, "/api/customers/c1/group", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("remove: %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(http.MethodDelete, "/api/customers/c1/group", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 removing ungrouped customer, got %d", rec.Code)
	}
}

func TestGroupDragDropOnHoveredGroup(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	f.do(http.MethodPost, "/api/groups/drag/start", `{"customerId":"c2"}`)
	f.do(http.MethodPost, "/api/groups/drag/hover", `{"groupId":"g1"}`)
	if rec := f.do(http.MethodPost, "/api/groups/drag/drop", ""); rec.Code != http.StatusOK {
		t.Fatalf("drop: %d %s", rec.Code, rec.Body.String())
	}
	if c, _ := f.stores.Customers.Get("c2"); c.GroupID == nil || *c.GroupID != "g1" {
		t.Fatalf("expected c2 in g1, got %+v", c)
	}
}

func TestJobLedgerEndpoints(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	rec := f.do(http.MethodPost, "/api/jobs", `{"customerId":"c2","date":"2024-05-09","totalTime":"75","mowTime":"40","driveTime":"abc"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var job domain.Job
	decode(t, rec, &job)
	if job.Status != domain.JobCompleted || job.TotalTime == nil || *job.TotalTime != 75 || job.DriveTime != nil {
		t.Fatalf("unexpected job %+v", job)
	}

	rec = f.do(http.MethodGet, "/api/jobs?q=oak", "")
	var list struct {
		Results []ledger.Entry `json:"results"`
		Count   int            `json:"count"`
	}
	decode(t, rec, &list)
	if list.Count != 1 || list.Results[0].Job.ID != job.ID {
		t.Fatalf("unexpected search results %+v", list)
	}

	if rec := f.do(http.MethodPost, "/api/jobs", `{"customerId":"c2","date":"yesterday"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	if rec := f.do(http.MethodDelete, "/api/jobs/"+job.ID, ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 without confirm, got %d", rec.Code)
	}
	if rec := f.do(http.MethodDelete, "/api/jobs/"+job.ID+"?confirm=1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok := f.stores.Jobs.Get(job.ID); ok {
		t.Fatalf("job still in store")
	}
}

func TestInsightsEndpoint(t *testing.T) {
	f := newFixture(t, Options{})
	f.load(t)

	rec := f.do(http.MethodGet, "/api/insights", "")
	var report struct {
		Empty bool `json:"empty"`
		KPIs  struct {
			HourlyRate float64 `json:"hourlyRate"`
		} `json:"kpis"`
	}
	decode(t, rec, &report)
	if report.Empty || report.KPIs.HourlyRate != 50 {
		t.Fatalf("unexpected report %s", rec.Body.String())
	}
}

func TestRefreshFailureIsReported(t *testing.T) {
	f := newFixture(t, Options{})
	f.mem.FailOn("listJobs", errors.New("timeout"))
	if rec := f.do(http.MethodPost, "/api/refresh", ""); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	f.mem.Heal()
	if rec := f.do(http.MethodPost, "/api/refresh", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	f := newFixture(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	if rec := f.do(http.MethodPost, "/api/schedule/drag/cancel", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected first call allowed, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/api/schedule/drag/cancel", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/schedule/drag", ""); rec.Code != http.StatusOK {
		t.Fatalf("reads should not be limited, got %d", rec.Code)
	}
}

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	l := newClientLimiter(0.001, 1)
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	if !l.Allow("10.0.0.1") || l.Allow("10.0.0.1") {
		t.Fatalf("expected one token per client")
	}
	now = now.Add(limiterIdleTTL / 2)
	if !l.Allow("10.0.0.2") {
		t.Fatalf("expected a fresh bucket for a new client")
	}
	if l.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", l.Len())
	}

	now = now.Add(limiterIdleTTL / 2)
	l.Allow("10.0.0.2")
	if l.Len() != 1 {
		t.Fatalf("expected the idle client to be evicted, got %d buckets", l.Len())
	}
	if !l.Allow("10.0.0.1") {
		t.Fatalf("evicted client should start with a full bucket")
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, Options{CORSAllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/jobs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestMetricsRecordsRoutes(t *testing.T) {
	f := newFixture(t, Options{})
	f.do(http.MethodGet, "/healthz", "")

	rec := f.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `yardops_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Fatalf("expected healthz counter in output")
	}
}
