package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate_RoundTripsCanonicalForm(t *testing.T) {
	d, err := ParseDate("2024-03-09")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Year != 2024 || d.Month != time.March || d.Day != 9 {
		t.Fatalf("unexpected date %+v", d)
	}
	if d.String() != "2024-03-09" {
		t.Fatalf("expected canonical form, got %s", d.String())
	}
}

func TestParseDate_RejectsTimestamps(t *testing.T) {
	if _, err := ParseDate("2024-03-09T10:00:00Z"); err == nil {
		t.Fatalf("expected error for timestamp input")
	}
}

func TestDateOf_IgnoresZoneOffset(t *testing.T) {
	loc := time.FixedZone("UTC-10", -10*3600)
	ts := time.Date(2024, time.May, 1, 23, 30, 0, 0, loc)
	if got := DateOf(ts).String(); got != "2024-05-01" {
		t.Fatalf("expected 2024-05-01, got %s", got)
	}
}

func TestDate_Arithmetic(t *testing.T) {
	d := MustParseDate("2024-02-27")
	if got := d.AddDays(3).String(); got != "2024-03-01" {
		t.Fatalf("leap year add: got %s", got)
	}
	if got := d.DaysUntil(MustParseDate("2024-03-05")); got != 7 {
		t.Fatalf("days until: got %d", got)
	}
	if got := MustParseDate("2024-03-05").DaysUntil(d); got != -7 {
		t.Fatalf("negative days until: got %d", got)
	}
	if !d.Before(d.AddDays(1)) || d.After(d) || d.Compare(d) != 0 {
		t.Fatalf("comparison mismatch")
	}
	if d.Weekday() != time.Tuesday {
		t.Fatalf("expected Tuesday, got %s", d.Weekday())
	}
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		D   Date  `json:"d"`
		Opt *Date `json:"opt,omitempty"`
	}
	in := wrapper{D: MustParseDate("2024-06-01")}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"d":"2024-06-01"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var out wrapper
	if err := json.Unmarshal([]byte(`{"d":"2024-06-02","opt":"2024-07-01"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.D.String() != "2024-06-02" || out.Opt == nil || out.Opt.String() != "2024-07-01" {
		t.Fatalf("unexpected decode %+v", out)
	}
}

func TestJobStatus_Draggable(t *testing.T) {
	cases := map[JobStatus]bool{
		JobScheduled:  true,
		JobInProgress: true,
		JobCompleted:  false,
	}
	for status, want := range cases {
		if got := status.Draggable(); got != want {
			t.Fatalf("%s: expected draggable=%v", status, want)
		}
	}
}

func TestJobStatus_JSON(t *testing.T) {
	var s JobStatus
	if err := json.Unmarshal([]byte(`"in-progress"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != JobInProgress {
		t.Fatalf("expected in-progress, got %s", s)
	}
	if err := json.Unmarshal([]byte(`"done"`), &s); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestCustomerGroup_EffectiveWorkTime(t *testing.T) {
	g := CustomerGroup{CustomerIDs: []string{"a", "b", "c"}}
	if got := g.EffectiveWorkTime(); got != 180 {
		t.Fatalf("fallback: expected 180, got %d", got)
	}
	g.WorkTimeMinutes = 95
	if got := g.EffectiveWorkTime(); got != 95 {
		t.Fatalf("override: expected 95, got %d", got)
	}
}
