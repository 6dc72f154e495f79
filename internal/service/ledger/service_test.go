package ledger

import (
	"context"
	"errors"
	"testing"

	"yardops/internal/domain"
	"yardops/internal/gateway"
	"yardops/internal/gateway/memory"
	"yardops/internal/notify"
	"yardops/internal/store"
)

type fixture struct {
	mem    *memory.Gateway
	stores *store.Stores
	feed   *notify.Feed
	svc    *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := memory.New()
	stores := store.New(mem, nil)
	feed := notify.NewFeed(10, nil, nil)
	return fixture{mem: mem, stores: stores, feed: feed, svc: New(mem, stores, feed, nil)}
}

func (f fixture) load(t *testing.T) {
	t.Helper()
	if err := f.stores.RefreshAll(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	f.mem.ResetCalls()
}

func date(s string) domain.Date { return domain.MustParseDate(s) }

func TestList_DefaultsToCompletedMostRecentFirst(t *testing.T) {
	f := newFixture(t)
	alice := f.mem.PutCustomer(domain.Customer{Name: "Alice Smith", Address: "1 Elm St"})
	bob := f.mem.PutCustomer(domain.Customer{Name: "Bob Jones", Address: "9 Oak Ave"})
	older := f.mem.PutJob(domain.Job{CustomerID: alice.ID, Date: date("2024-05-01"), Status: domain.JobCompleted})
	newer := f.mem.PutJob(domain.Job{CustomerID: bob.ID, Date: date("2024-05-08"), Status: domain.JobCompleted})
	f.mem.PutJob(domain.Job{CustomerID: bob.ID, Date: date("2024-05-20"), Status: domain.JobScheduled})
	f.load(t)

	entries, err := f.svc.List(Query{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].Job.ID != newer.ID || entries[1].Job.ID != older.ID {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[0].CustomerName != "Bob Jones" {
		t.Fatalf("expected customer name resolved, got %q", entries[0].CustomerName)
	}

	all, _ := f.svc.List(Query{Status: StatusAll})
	if len(all) != 3 {
		t.Fatalf("expected 3 jobs with all statuses, got %d", len(all))
	}
	if _, err := f.svc.List(Query{Status: "done"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestList_SearchesNameAddressAndDate(t *testing.T) {
	f := newFixture(t)
	alice := f.mem.PutCustomer(domain.Customer{Name: "Alice Smith", Address: "1 Elm St"})
	bob := f.mem.PutCustomer(domain.Customer{Name: "Bob Jones", Address: "9 Oak Ave"})
	f.mem.PutJob(domain.Job{CustomerID: alice.ID, Date: date("2024-05-01"), Status: domain.JobCompleted})
	f.mem.PutJob(domain.Job{CustomerID: bob.ID, Date: date("2024-06-08"), Status: domain.JobCompleted})
	f.load(t)

	tests := []struct {
		q    string
		want int
	}{
		{q: "alice", want: 1},
		{q: "OAK", want: 1},
		{q: "2024-06", want: 1},
		{q: "2024", want: 2},
		{q: "nobody", want: 0},
	}
	for _, tc := range tests {
		got, err := f.svc.List(Query{Text: tc.q})
		if err != nil {
			t.Fatalf("list %q: %v", tc.q, err)
		}
		if len(got) != tc.want {
			t.Fatalf("query %q: expected %d, got %d", tc.q, tc.want, len(got))
		}
	}
}

func TestParseForm(t *testing.T) {
	f := newFixture(t)
	c := f.mem.PutCustomer(domain.Customer{Name: "Alice"})
	f.load(t)

	job, err := f.svc.ParseForm(Form{
		CustomerID: c.ID,
		Date:       "2024-05-07",
		TotalTime:  "55",
		MowTime:    "30",
		TrimTime:   "",
		EdgeTime:   "abc",
		BlowTime:   "45.5",
		DriveTime:  " 12 ",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if job.Status != domain.JobCompleted {
		t.Fatalf("expected completed default, got %s", job.Status)
	}
	if *job.TotalTime != 55 || *job.MowTime != 30 || job.TrimTime != nil || job.EdgeTime != nil || *job.BlowTime != 46 || *job.DriveTime != 12 {
		t.Fatalf("unexpected durations %+v", job)
	}

	invalid := []struct {
		form  Form
		field string
	}{
		{form: Form{Date: "2024-05-07"}, field: "customerId"},
		{form: Form{CustomerID: c.ID}, field: "date"},
		{form: Form{CustomerID: c.ID, Date: "May 7"}, field: "date"},
		{form: Form{CustomerID: "ghost", Date: "2024-05-07"}, field: "customerId"},
		{form: Form{CustomerID: c.ID, Date: "2024-05-07", ScheduledTime: "25:00"}, field: "scheduledTime"},
	}
	for _, tc := range invalid {
		_, err := f.svc.ParseForm(tc.form)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) || ve.Field != tc.field {
			t.Fatalf("expected validation error on %s, got %v", tc.field, err)
		}
	}
}

func TestParseMinutes(t *testing.T) {
	whole := func(v int) *int { return &v }
	tests := []struct {
		in   string
		want *int
	}{
		{in: "30", want: whole(30)},
		{in: "30.0", want: whole(30)},
		{in: "45.5", want: whole(46)},
		{in: " 0 ", want: whole(0)},
		{in: ""},
		{in: "abc"},
		{in: "-5"},
		{in: "NaN"},
		{in: "Inf"},
	}
	for _, tc := range tests {
		got := ParseMinutes(tc.in)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("ParseMinutes(%q) = %d, want absent", tc.in, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Errorf("ParseMinutes(%q) = %v, want %d", tc.in, got, *tc.want)
		}
	}
}

func TestCreate_ValidationIssuesNoGatewayCall(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	if _, err := f.svc.Create(context.Background(), Form{}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if calls := f.mem.MutationCalls(); len(calls) != 0 {
		t.Fatalf("expected no writes, got %v", calls)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	c := f.mem.PutCustomer(domain.Customer{Name: "Alice"})
	f.load(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, Form{CustomerID: c.ID, Date: "2024-05-07", TotalTime: "60"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := f.stores.Jobs.Get(created.ID); !ok {
		t.Fatalf("created job not in store")
	}

	updated, err := f.svc.Update(ctx, created.ID, Form{CustomerID: c.ID, Date: "2024-05-08", TotalTime: "75", Notes: "gate code 1234"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID || updated.Date != date("2024-05-08") || *updated.TotalTime != 75 {
		t.Fatalf("unexpected update %+v", updated)
	}

	err = f.svc.Delete(ctx, created.ID, false)
	var ce *domain.ConfirmationRequiredError
	if !errors.As(err, &ce) || ce.Prompt != "Delete the job for Alice on 2024-05-08?" {
		t.Fatalf("expected confirmation prompt, got %v", err)
	}
	if err := f.svc.Delete(ctx, created.ID, true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := f.stores.Jobs.Get(created.ID); ok {
		t.Fatalf("deleted job still in store")
	}
	if n, _ := f.feed.Last(); n.Message != "Deleted job for Alice on 2024-05-08" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestDelete_GatewayFailureNotifies(t *testing.T) {
	f := newFixture(t)
	c := f.mem.PutCustomer(domain.Customer{Name: "Alice"})
	j := f.mem.PutJob(domain.Job{CustomerID: c.ID, Date: date("2024-05-07"), Status: domain.JobCompleted})
	f.load(t)
	f.mem.FailOn("deleteJob", errors.New("offline"))

	if err := f.svc.Delete(context.Background(), j.ID, true); !gateway.IsGatewayError(err) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if _, ok := f.stores.Jobs.Get(j.ID); !ok {
		t.Fatalf("job removed from store on failure")
	}
	if n, _ := f.feed.Last(); n.Kind != notify.Failure {
		t.Fatalf("expected failure notification")
	}
}

func TestUnknownJobNotifiesFailure(t *testing.T) {
	f := newFixture(t)
	c := f.mem.PutCustomer(domain.Customer{Name: "Alice"})
	f.load(t)
	ctx := context.Background()

	if _, err := f.svc.Update(ctx, "ghost", Form{CustomerID: c.ID, Date: "2024-05-07"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if err := f.svc.Delete(ctx, "ghost", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
	if f.feed.Len() != 2 {
		t.Fatalf("expected one notification per operation, got %d", f.feed.Len())
	}
	if n, _ := f.feed.Last(); n.Kind != notify.Failure {
		t.Fatalf("expected failure notification, got %+v", n)
	}
}

func TestBreakdownOf(t *testing.T) {
	j := domain.Job{
		TotalTime: domain.IntPtr(60),
		MowTime:   domain.IntPtr(30),
		TrimTime:  domain.IntPtr(10),
		DriveTime: domain.IntPtr(15),
	}
	b := BreakdownOf(j)
	if b.TaskSum != 40 || b.Unaccounted == nil || *b.Unaccounted != 20 || b.WorkMinutes != 60 || b.DriveMinutes != 15 {
		t.Fatalf("unexpected breakdown %+v", b)
	}

	noTotal := BreakdownOf(domain.Job{MowTime: domain.IntPtr(25)})
	if noTotal.Unaccounted != nil || noTotal.WorkMinutes != 25 {
		t.Fatalf("unexpected breakdown without total %+v", noTotal)
	}
}
