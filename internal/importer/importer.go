package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"yardops/internal/domain"
	"yardops/internal/logging"
	"yardops/internal/service/ledger"
)

// JobCreator records one job from its text form.
type JobCreator interface {
	Create(ctx context.Context, f ledger.Form) (*domain.Job, error)
}

// CustomerLookup lists the customers rows may refer to.
type CustomerLookup interface {
	Snapshot() []domain.Customer
}

// RowError is a row that failed validation and was skipped.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Result summarizes a run.
type Result struct {
	Imported int
	Rejected []RowError
}

// CSVImporter reads a job history export and records each row through the
// ledger. Rows that fail validation are reported and skipped; any other
// error stops the run.
type CSVImporter struct {
	reader    *csv.Reader
	jobs      JobCreator
	customers CustomerLookup
	logger    *zap.SugaredLogger
}

func NewCSVImporter(r io.Reader, jobs JobCreator, customers CustomerLookup, logger *zap.SugaredLogger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // exports may drop trailing empty columns
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:    csvr,
		jobs:      jobs,
		customers: customers,
		logger:    logging.OrDiscard(logger),
	}
}

// Run imports every data row after the header.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result

	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["customer"]; !ok {
		return res, errors.New("missing required column \"customer\"")
	}
	if _, ok := index["date"]; !ok {
		return res, errors.New("missing required column \"date\"")
	}
	resolve := i.resolver()

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		line, _ := i.reader.FieldPos(0)
		if blank(record) {
			continue
		}

		form := parseRow(record, index)
		form.CustomerID = resolve(form.CustomerID)

		job, err := i.jobs.Create(ctx, form)
		if err != nil {
			if domain.IsValidation(err) {
				res.Rejected = append(res.Rejected, RowError{Line: line, Err: err})
				i.logger.Warnw("row rejected", "line", line, "error", err)
				continue
			}
			return res, fmt.Errorf("line %d: %w", line, err)
		}
		res.Imported++
		i.logger.Debugw("row imported", "line", line, "job_id", job.ID)
	}

	i.logger.Infow("import finished", "imported", res.Imported, "rejected", len(res.Rejected))
	return res, nil
}

// resolver maps a customer column value to an id. Values that match an id
// pass through; otherwise a case-insensitive name match is tried.
func (i *CSVImporter) resolver() func(string) string {
	byID := make(map[string]struct{})
	byName := make(map[string]string)
	if i.customers != nil {
		for _, c := range i.customers.Snapshot() {
			byID[c.ID] = struct{}{}
			byName[strings.ToLower(strings.TrimSpace(c.Name))] = c.ID
		}
	}
	return func(v string) string {
		if _, ok := byID[v]; ok {
			return v
		}
		if id, ok := byName[strings.ToLower(v)]; ok {
			return id
		}
		return v
	}
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) ledger.Form {
	return ledger.Form{
		CustomerID:    pick(record, index, "customer"),
		Date:          pick(record, index, "date"),
		Status:        pick(record, index, "status"),
		ScheduledTime: pick(record, index, "scheduledtime"),
		TotalTime:     pick(record, index, "totaltime"),
		MowTime:       pick(record, index, "mowtime"),
		TrimTime:      pick(record, index, "trimtime"),
		EdgeTime:      pick(record, index, "edgetime"),
		BlowTime:      pick(record, index, "blowtime"),
		DriveTime:     pick(record, index, "drivetime"),
		Notes:         pick(record, index, "notes"),
	}
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
