// Package seed builds a small demo dataset and writes it to PostgreSQL or the
// in-memory gateway.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"yardops/internal/domain"
	"yardops/internal/gateway/memory"
	"yardops/internal/repository/pgutil"
)

// Data is one consistent demo dataset: group membership is mirrored on both
// sides and every customer's next service date is their earliest upcoming job.
type Data struct {
	Groups    []domain.CustomerGroup
	Customers []domain.Customer
	Jobs      []domain.Job
	Equipment []domain.Equipment
}

// stable ids keep Apply idempotent across runs.
func id(kind string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "yardops:seed:%s:%d", kind, n)).String()
}

type customerSeed struct {
	name    string
	address string
	price   float64
	sqft    int
	group   int // 1-based index into groups, 0 for none
}

type visit struct {
	customer int
	daysAgo  int
	mow      int
	trim     int
	edge     int
	blow     int
	drive    int
}

// Dataset returns demo data laid out around today.
func Dataset(today domain.Date) Data {
	groups := []domain.CustomerGroup{
		{ID: id("group", 1), Name: "Maple Heights", WorkTimeMinutes: 0, Color: "#2196f3", Notes: "Tuesday round"},
		{ID: id("group", 2), Name: "Riverside", WorkTimeMinutes: 180, Color: "#ff9800", Notes: "Park on Mill Rd"},
	}
	customers := []customerSeed{
		{name: "Alice Moreno", address: "14 Maple Ave", price: 45, sqft: 5200, group: 1},
		{name: "Ben Okafor", address: "22 Maple Ave", price: 40, sqft: 4100, group: 1},
		{name: "Carla Jensen", address: "3 Birch Ct", price: 65, sqft: 9000, group: 1},
		{name: "Dev Patel", address: "81 River Rd", price: 55, sqft: 7300, group: 2},
		{name: "Erin Walsh", address: "90 River Rd", price: 30, sqft: 6800, group: 2},
		{name: "Frank Li", address: "7 Hilltop Ln", price: 80, sqft: 12000},
	}
	visits := []visit{
		{customer: 1, daysAgo: 1, mow: 25, trim: 8, edge: 5, blow: 4, drive: 12},
		{customer: 2, daysAgo: 1, mow: 22, trim: 6, edge: 4, blow: 3, drive: 5},
		{customer: 3, daysAgo: 2, mow: 38, trim: 12, edge: 8, blow: 5, drive: 15},
		{customer: 4, daysAgo: 3, mow: 30, trim: 10, edge: 6, blow: 4, drive: 20},
		{customer: 5, daysAgo: 3, mow: 34, trim: 12, edge: 7, blow: 5, drive: 6},
		{customer: 6, daysAgo: 5, mow: 45, trim: 15, edge: 10, blow: 6, drive: 25},
		{customer: 1, daysAgo: 8, mow: 24, trim: 8, edge: 5, blow: 4, drive: 12},
		{customer: 3, daysAgo: 9, mow: 40, trim: 12, edge: 8, blow: 5, drive: 15},
		{customer: 4, daysAgo: 10, mow: 28, trim: 10, edge: 6, blow: 4, drive: 18},
		{customer: 5, daysAgo: 16, mow: 36, trim: 12, edge: 7, blow: 5, drive: 8},
		{customer: 6, daysAgo: 19, mow: 44, trim: 14, edge: 10, blow: 6, drive: 22},
		{customer: 2, daysAgo: 22, mow: 21, trim: 6, edge: 4, blow: 3, drive: 6},
	}

	var data Data
	data.Groups = groups
	for i, cs := range customers {
		c := domain.Customer{
			ID:            id("customer", i+1),
			Name:          cs.name,
			Address:       cs.address,
			Price:         cs.price,
			SquareFootage: cs.sqft,
		}
		if cs.group > 0 {
			g := &data.Groups[cs.group-1]
			gid := g.ID
			c.GroupID = &gid
			g.CustomerIDs = append(g.CustomerIDs, c.ID)
		}
		data.Customers = append(data.Customers, c)
	}

	for n, v := range visits {
		mow, trim, edge, blow, drive := v.mow, v.trim, v.edge, v.blow, v.drive
		total := mow + trim + edge + blow + drive
		data.Jobs = append(data.Jobs, domain.Job{
			ID:         id("job", n+1),
			CustomerID: data.Customers[v.customer-1].ID,
			Date:       today.AddDays(-v.daysAgo),
			Status:     domain.JobCompleted,
			TotalTime:  &total,
			MowTime:    &mow,
			TrimTime:   &trim,
			EdgeTime:   &edge,
			BlowTime:   &blow,
			DriveTime:  &drive,
		})
	}

	// One upcoming visit per customer, spread over the next two weeks.
	for i := range data.Customers {
		c := &data.Customers[i]
		next := today.AddDays(2 + i*2)
		c.NextServiceDate = &next
		data.Jobs = append(data.Jobs, domain.Job{
			ID:            id("job", 100+i),
			CustomerID:    c.ID,
			Date:          next,
			Status:        domain.JobScheduled,
			ScheduledTime: fmt.Sprintf("%02d:00", 8+i),
		})
	}

	soon := today.AddDays(4)
	later := today.AddDays(40)
	data.Equipment = []domain.Equipment{
		{ID: id("equipment", 1), Name: "Zero-turn mower", NextMaintenanceDate: &soon, HoursUsed: 212.5, AlertThreshold: 250},
		{ID: id("equipment", 2), Name: "String trimmer", NextMaintenanceDate: &later, HoursUsed: 96, AlertThreshold: 80},
		{ID: id("equipment", 3), Name: "Backpack blower", NextMaintenanceDate: &later, HoursUsed: 40, AlertThreshold: 150},
	}
	return data
}

// Load writes data straight into the in-memory gateway.
func Load(mem *memory.Gateway, data Data) {
	for _, g := range data.Groups {
		mem.PutGroup(g)
	}
	for _, c := range data.Customers {
		mem.PutCustomer(c)
	}
	for _, j := range data.Jobs {
		mem.PutJob(j)
	}
	for _, e := range data.Equipment {
		mem.PutEquipment(e)
	}
}

// Apply upserts data in one transaction. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool, data Data) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, g := range data.Groups {
			if err := upsertGroup(ctx, tx, g); err != nil {
				return fmt.Errorf("upsert group %s: %w", g.Name, err)
			}
		}
		for _, c := range data.Customers {
			if err := upsertCustomer(ctx, tx, c); err != nil {
				return fmt.Errorf("upsert customer %s: %w", c.Name, err)
			}
		}
		for _, g := range data.Groups {
			for _, cid := range g.CustomerIDs {
				if err := addMember(ctx, tx, g.ID, cid); err != nil {
					return fmt.Errorf("add member %s to %s: %w", cid, g.Name, err)
				}
			}
		}
		for _, j := range data.Jobs {
			if err := upsertJob(ctx, tx, j); err != nil {
				return fmt.Errorf("upsert job %s: %w", j.ID, err)
			}
		}
		for _, e := range data.Equipment {
			if err := upsertEquipment(ctx, tx, e); err != nil {
				return fmt.Errorf("upsert equipment %s: %w", e.Name, err)
			}
		}
		return nil
	})
}

func upsertGroup(ctx context.Context, tx pgx.Tx, g domain.CustomerGroup) error {
	const q = `
INSERT INTO customer_groups (id, name, work_time_minutes, color, notes)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    work_time_minutes = EXCLUDED.work_time_minutes,
    color = EXCLUDED.color,
    notes = EXCLUDED.notes
`
	_, err := tx.Exec(ctx, q, g.ID, g.Name, g.WorkTimeMinutes, g.Color, g.Notes)
	return err
}

func upsertCustomer(ctx context.Context, tx pgx.Tx, c domain.Customer) error {
	const q = `
INSERT INTO customers (id, name, address, price, square_footage, next_service_date, group_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    address = EXCLUDED.address,
    price = EXCLUDED.price,
    square_footage = EXCLUDED.square_footage,
    next_service_date = EXCLUDED.next_service_date,
    group_id = EXCLUDED.group_id
`
	_, err := tx.Exec(ctx, q, c.ID, c.Name, c.Address, c.Price, c.SquareFootage, pgutil.DateParam(c.NextServiceDate), c.GroupID)
	return err
}

func addMember(ctx context.Context, tx pgx.Tx, groupID, customerID string) error {
	const q = `
INSERT INTO customer_group_members (group_id, customer_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`
	_, err := tx.Exec(ctx, q, groupID, customerID)
	return err
}

func upsertJob(ctx context.Context, tx pgx.Tx, j domain.Job) error {
	const q = `
INSERT INTO jobs (id, customer_id, date, status, scheduled_time, total_time, mow_time, trim_time, edge_time, blow_time, drive_time, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE
SET date = EXCLUDED.date,
    status = EXCLUDED.status,
    scheduled_time = EXCLUDED.scheduled_time,
    total_time = EXCLUDED.total_time,
    mow_time = EXCLUDED.mow_time,
    trim_time = EXCLUDED.trim_time,
    edge_time = EXCLUDED.edge_time,
    blow_time = EXCLUDED.blow_time,
    drive_time = EXCLUDED.drive_time,
    notes = EXCLUDED.notes
`
	_, err := tx.Exec(ctx, q, j.ID, j.CustomerID, j.Date.Time(), j.Status.String(), j.ScheduledTime,
		j.TotalTime, j.MowTime, j.TrimTime, j.EdgeTime, j.BlowTime, j.DriveTime, j.Notes)
	return err
}

func upsertEquipment(ctx context.Context, tx pgx.Tx, e domain.Equipment) error {
	const q = `
INSERT INTO equipment (id, name, next_maintenance_date, hours_used, alert_threshold)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    next_maintenance_date = EXCLUDED.next_maintenance_date,
    hours_used = EXCLUDED.hours_used,
    alert_threshold = EXCLUDED.alert_threshold
`
	_, err := tx.Exec(ctx, q, e.ID, e.Name, pgutil.DateParam(e.NextMaintenanceDate), e.HoursUsed, e.AlertThreshold)
	return err
}
