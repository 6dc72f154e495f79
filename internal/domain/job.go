package domain

import (
	"encoding/json"
	"fmt"
)

// JobStatus is the closed set of job states.
type JobStatus int

const (
	JobScheduled JobStatus = iota + 1
	JobInProgress
	JobCompleted
)

// ParseJobStatus maps the wire form to a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	switch s {
	case "scheduled":
		return JobScheduled, nil
	case "in-progress":
		return JobInProgress, nil
	case "completed":
		return JobCompleted, nil
	default:
		return 0, fmt.Errorf("unknown job status %q", s)
	}
}

func (s JobStatus) String() string {
	switch s {
	case JobScheduled:
		return "scheduled"
	case JobInProgress:
		return "in-progress"
	case JobCompleted:
		return "completed"
	default:
		return fmt.Sprintf("JobStatus(%d)", int(s))
	}
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobScheduled, JobInProgress, JobCompleted:
		return true
	default:
		return false
	}
}

// Draggable reports whether a job in this state may be rescheduled on the board.
// Finished jobs are immutable.
func (s JobStatus) Draggable() bool {
	switch s {
	case JobScheduled, JobInProgress:
		return true
	case JobCompleted:
		return false
	default:
		return false
	}
}

func (s JobStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal invalid job status %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *JobStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseJobStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Job is a single visit to a customer. Durations are minutes.
type Job struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customerId"`
	Date          Date      `json:"date"`
	Status        JobStatus `json:"status"`
	ScheduledTime string    `json:"scheduledTime,omitempty"`
	TotalTime     *int      `json:"totalTime,omitempty"`
	MowTime       *int      `json:"mowTime,omitempty"`
	TrimTime      *int      `json:"trimTime,omitempty"`
	EdgeTime      *int      `json:"edgeTime,omitempty"`
	BlowTime      *int      `json:"blowTime,omitempty"`
	DriveTime     *int      `json:"driveTime,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// Clone returns a copy that shares no pointers with j.
func (j Job) Clone() Job {
	out := j
	out.TotalTime = cloneInt(j.TotalTime)
	out.MowTime = cloneInt(j.MowTime)
	out.TrimTime = cloneInt(j.TrimTime)
	out.EdgeTime = cloneInt(j.EdgeTime)
	out.BlowTime = cloneInt(j.BlowTime)
	out.DriveTime = cloneInt(j.DriveTime)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// IntPtr is a helper for optional minute fields.
func IntPtr(v int) *int {
	return &v
}
