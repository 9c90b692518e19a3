package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/reminders"
)

type listFlags struct {
	page     int
	pageSize int
	search   string
	sortBy   string
	desc     bool
	statuses []string
	vehicle  string
	program  string
}

func (f listFlags) params() (reminders.QueryParams, error) {
	params := reminders.QueryParams{
		PageNumber:     f.page,
		PageSize:       f.pageSize,
		Search:         f.search,
		SortBy:         f.sortBy,
		SortDescending: f.desc,
	}
	for _, s := range f.statuses {
		status, ok := models.ParseReminderStatus(s)
		if !ok {
			return params, fmt.Errorf("unknown status %q", s)
		}
		params.Statuses = append(params.Statuses, status)
	}
	if f.vehicle != "" {
		id, err := primitive.ObjectIDFromHex(f.vehicle)
		if err != nil {
			return params, fmt.Errorf("invalid vehicle id %q", f.vehicle)
		}
		params.VehicleID = &id
	}
	if f.program != "" {
		id, err := primitive.ObjectIDFromHex(f.program)
		if err != nil {
			return params, fmt.Errorf("invalid program id %q", f.program)
		}
		params.ProgramID = &id
	}
	return params, nil
}

func (c *cli) remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Compute service reminders",
	}

	var f listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List reminders, most urgent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := f.params()
			if err != nil {
				return err
			}
			engine, closeFn, err := c.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			page, err := engine.Query(cmd.Context(), params)
			if err != nil {
				return err
			}
			if c.asJSON {
				return writeJSON(c.out, page)
			}
			renderPage(c.out, page)
			return nil
		},
	}
	list.Flags().IntVar(&f.page, "page", 1, "page number")
	list.Flags().IntVar(&f.pageSize, "page-size", reminders.DefaultPageSize, "reminders per page")
	list.Flags().StringVar(&f.search, "search", "", "match vehicle, program, schedule or task names")
	list.Flags().StringVar(&f.sortBy, "sort-by", reminders.SortDue, "sort field (due, vehicle, program, schedule, status, priority, duedate, duemileage, cost, labourhours)")
	list.Flags().BoolVar(&f.desc, "desc", false, "sort descending")
	list.Flags().StringSliceVar(&f.statuses, "status", nil, "only these statuses (overdue, due-soon, upcoming)")
	list.Flags().StringVar(&f.vehicle, "vehicle", "", "only this vehicle ID")
	list.Flags().StringVar(&f.program, "program", "", "only this program ID")

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Count reminders by status and priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, closeFn, err := c.engine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			s, err := engine.Summary(cmd.Context())
			if err != nil {
				return err
			}
			if c.asJSON {
				return writeJSON(c.out, s)
			}
			renderSummary(c.out, s)
			return nil
		},
	}

	cmd.AddCommand(list, summary)
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func colorStatus(s models.ReminderStatus) string {
	switch s {
	case models.StatusOverdue:
		return red(string(s))
	case models.StatusDueSoon:
		return yellow(string(s))
	default:
		return green(string(s))
	}
}

// dueColumns renders the due date and mileage halves of a reminder, "-" when
// the schedule has no such recurrence.
func dueColumns(r models.ServiceReminder) (string, string) {
	date, mileage := "-", "-"
	if r.DueDate != nil {
		date = r.DueDate.Format("2006-01-02")
		if r.DaysUntilDue != nil {
			date += fmt.Sprintf(" (%+dd)", *r.DaysUntilDue)
		}
	}
	if r.DueMileage != nil {
		mileage = fmt.Sprintf("%.0f", *r.DueMileage)
		if r.MileageVariance != nil {
			mileage += fmt.Sprintf(" (%+.0f)", *r.MileageVariance)
		}
	}
	return date, mileage
}

// renderPage prints one page as a table. Colored columns come last so
// escape codes don't upset the alignment.
func renderPage(w io.Writer, page *models.Page[models.ServiceReminder]) {
	if page.TotalCount == 0 {
		fmt.Fprintln(w, gray("No reminders."))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VEHICLE\tSCHEDULE\t#\tDUE DATE\tDUE MILEAGE\tCOST\tPRIORITY\tSTATUS")
	for _, r := range page.Items {
		date, mileage := dueColumns(r)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%.2f\t%s\t%s\n",
			r.VehicleName, r.ScheduleName, r.OccurrenceNumber, date, mileage,
			r.TotalEstimatedCost, r.Priority, colorStatus(r.Status))
	}
	tw.Flush()
	fmt.Fprintln(w, gray(fmt.Sprintf("Page %d of %d, %d reminders", page.PageNumber, page.TotalPages, page.TotalCount)))
}

func renderSummary(w io.Writer, s *reminders.Summary) {
	fmt.Fprintf(w, "%s %d reminders at %s\n", bold("Summary:"), s.Total, s.EvaluatedAt.Format("2006-01-02 15:04 MST"))
	for _, status := range []models.ReminderStatus{models.StatusOverdue, models.StatusDueSoon, models.StatusUpcoming} {
		fmt.Fprintf(w, "  %-10s %d\n", colorStatus(status), s.ByStatus[status])
	}
	var parts []string
	for _, p := range []models.Priority{models.PriorityCritical, models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(string(p)), s.ByPriority[p]))
	}
	fmt.Fprintln(w, gray("  priority: "+strings.Join(parts, " ")))
}
