package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yardops/internal/app"
	"yardops/internal/config"
	"yardops/internal/domain"
	"yardops/internal/importer"
	"yardops/internal/logging"
	"yardops/internal/service/insights"
	"yardops/internal/service/schedule"
)

const loadTimeout = 30 * time.Second

// withApp builds and loads the application for one command run.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, logger *zap.SugaredLogger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	if err := a.Load(loadCtx); err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	return fn(ctx, a, logger)
}

// NewImportCommand creates the job history import command
func NewImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import job history from a CSV file",
		Long: "Import job history from a CSV file with a header row. Required columns: customer (id or name), date. " +
			"Optional: status, scheduledTime, totalTime, mowTime, trimTime, edgeTime, blowTime, driveTime, notes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			return withApp(cmd, func(ctx context.Context, a *app.App, logger *zap.SugaredLogger) error {
				res, err := importer.NewCSVImporter(f, a.Ledger, a.Stores.Customers, logger).Run(ctx)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "imported %d job(s)\n", res.Imported)
				for _, rej := range res.Rejected {
					fmt.Fprintf(out, "skipped %v\n", rej)
				}
				return err
			})
		},
	}
	cmd.Flags().String("file", "", "Path to the job history CSV (required)")
	return cmd
}

// NewInsightsCommand creates the business insights report command
func NewInsightsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Print KPIs and advisory insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			rawDate, _ := cmd.Flags().GetString("date")
			today := domain.Today()
			if rawDate != "" {
				d, err := domain.ParseDate(rawDate)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				today = d
			}

			return withApp(cmd, func(_ context.Context, a *app.App, _ *zap.SugaredLogger) error {
				report := insights.Compute(
					a.Stores.Customers.Snapshot(),
					a.Stores.Jobs.Snapshot(),
					a.Stores.Equipment.Snapshot(),
					today,
				)
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(report)
				}
				writeReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	cmd.Flags().Bool("json", false, "Print the full report as JSON")
	cmd.Flags().String("date", "", "Evaluate as of this date (YYYY-MM-DD), default today")
	return cmd
}

// NewCalendarCommand creates the month calendar command
func NewCalendarCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print the schedule for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawMonth, _ := cmd.Flags().GetString("month")

			return withApp(cmd, func(_ context.Context, a *app.App, _ *zap.SugaredLogger) error {
				if rawMonth != "" {
					month, err := schedule.ParseMonth(rawMonth)
					if err != nil {
						return err
					}
					a.Schedule.SetMonth(month)
				}
				names := make(map[string]string)
				for _, c := range a.Stores.Customers.Snapshot() {
					names[c.ID] = c.Name
				}
				writeCalendar(cmd.OutOrStdout(), a.Schedule.Calendar(), names)
				return nil
			})
		},
	}
	cmd.Flags().String("month", "", "Month to show (YYYY-MM), default current month")
	return cmd
}

func writeReport(w io.Writer, r insights.Report) {
	if r.Empty {
		fmt.Fprintln(w, "No completed jobs yet. Log some work to see insights.")
		return
	}
	k := r.KPIs
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Completed jobs\t%d\n", k.CompletedJobs)
	fmt.Fprintf(tw, "Revenue\t$%.2f\n", k.TotalRevenue)
	fmt.Fprintf(tw, "Work hours\t%.1f\n", k.TotalWorkHours)
	fmt.Fprintf(tw, "Hourly rate\t$%.2f\n", k.HourlyRate)
	fmt.Fprintf(tw, "Drive time\t%.1f%%\n", k.DriveTimePercentage)
	fmt.Fprintf(tw, "Hours, last 7 days\t%.1f\n", k.WeeklyWorkHours)
	_ = tw.Flush()

	if len(r.Insights) > 0 {
		fmt.Fprintln(w)
		for _, in := range r.Insights {
			fmt.Fprintf(w, "[%s] %s: %s\n", in.Tone, in.Title, in.Message)
		}
	}
	if len(r.EquipmentAlerts) > 0 {
		fmt.Fprintln(w)
		for _, a := range r.EquipmentAlerts {
			var reasons []string
			if a.DueSoon && a.DaysUntil != nil {
				reasons = append(reasons, fmt.Sprintf("service due in %d day(s)", *a.DaysUntil))
			}
			if a.OverHours {
				reasons = append(reasons, fmt.Sprintf("%.1f of %.1f hours", a.Equipment.HoursUsed, a.Equipment.AlertThreshold))
			}
			fmt.Fprintf(w, "maintenance: %s (%s)\n", a.Equipment.Name, strings.Join(reasons, ", "))
		}
	}
}

func writeCalendar(w io.Writer, cal schedule.Calendar, names map[string]string) {
	fmt.Fprintln(w, cal.Label)
	fmt.Fprintln(w, " Su  Mo  Tu  We  Th  Fr  Sa")
	for i, cell := range cal.Cells {
		mark := " "
		switch {
		case cell.IsToday:
			mark = "<"
		case len(cell.Jobs) > 0:
			mark = "*"
		}
		if cell.InMonth {
			fmt.Fprintf(w, " %2d%s", cell.Date.Day, mark)
		} else {
			fmt.Fprint(w, "    ")
		}
		if i%7 == 6 {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, cell := range cal.Cells {
		if !cell.InMonth {
			continue
		}
		for _, j := range cell.Jobs {
			name := names[j.CustomerID]
			if name == "" {
				name = j.CustomerID
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cell.Date, j.ScheduledTime, name, j.Status)
		}
	}
	_ = tw.Flush()
}
