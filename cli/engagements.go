// ABOUTME: Engagement CLI commands
// ABOUTME: Create, list, show, edit, status, archive, competitors, sales rep, and delete
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/handlers"
	"github.com/harperreed/pursuit/models"
)

// CreateEngagementCommand creates a new engagement.
func CreateEngagementCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("engagement create", flag.ExitOnError)
	company := fs.String("company", "", "Company name (required)")
	contact := fs.String("contact", "", "Primary contact name")
	email := fs.String("email", "", "Primary contact email")
	phone := fs.String("phone", "", "Primary contact phone")
	industry := fs.String("industry", "", "Industry")
	value := fs.Int64("value", 0, "Deal value in cents")
	start := fs.String("start", "", "Start date (YYYY-MM-DD, default today)")
	competitors := fs.String("competitors", "", "Comma-separated competitor codes")
	other := fs.String("other-competitor", "", "Free-text competitor for OTHER")
	salesRep := fs.String("sales-rep", "", "Sales rep ID")
	_ = fs.Parse(args)

	if *company == "" {
		return fmt.Errorf("--company is required")
	}

	in := engine.NewEngagement{
		Company:         *company,
		ContactName:     *contact,
		ContactEmail:    *email,
		ContactPhone:    *phone,
		Industry:        *industry,
		DealValue:       *value,
		Competitors:     splitList(*competitors),
		OtherCompetitor: *other,
		SalesRepID:      *salesRep,
	}
	if *start != "" {
		d, err := parseDate(*start)
		if err != nil {
			return err
		}
		in.StartDate = d
	}

	vm, err := coord.CreateEngagement(context.Background(), in)
	if err != nil {
		return fmt.Errorf("failed to create engagement: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Engagement created: %s (ID: %s)\n", vm.Company, vm.ID)
	fmt.Fprintf(stdout, "  Phase: %s\n", vm.CurrentPhase)
	if vm.DealValue > 0 {
		fmt.Fprintf(stdout, "  Value: %s\n", formatMoney(vm.DealValue))
	}
	return nil
}

// ListEngagementsCommand lists engagements with derived phase and staleness.
func ListEngagementsCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("engagement list", flag.ExitOnError)
	query := fs.String("query", "", "Match company, contact, or industry")
	phase := fs.String("phase", "", "Filter by current phase")
	status := fs.String("status", "", "Filter by status")
	stale := fs.Bool("stale", false, "Only stale engagements")
	all := fs.Bool("all", false, "Include archived engagements")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	vms := handlers.FilterEngagements(coord.List(), handlers.QueryEngagementsInput{
		Query:           *query,
		Phase:           *phase,
		Status:          *status,
		StaleOnly:       *stale,
		IncludeArchived: *all,
	})
	if len(vms) == 0 {
		fmt.Fprintln(stdout, "No engagements found")
		return nil
	}
	if len(vms) > *limit {
		vms = vms[:*limit]
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPANY\tPHASE\tSTATUS\tVALUE\tIDLE\tUNREAD\tOWNERS\tID")
	_, _ = fmt.Fprintln(w, "-------\t-----\t------\t-----\t----\t------\t------\t--")
	for _, vm := range vms {
		idle := fmt.Sprintf("%dd", vm.DaysSinceActivity)
		if vm.IsStale {
			idle += " ⚠"
		}
		unread := "-"
		if vm.UnreadChanges > 0 {
			unread = fmt.Sprintf("%d", vm.UnreadChanges)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			vm.Company, vm.CurrentPhase, vm.EngagementStatus, formatMoney(vm.DealValue),
			idle, unread, orDash(strings.Join(vm.OwnerNames, ", ")), shortID(vm.ID))
	}
	_ = w.Flush()
	fmt.Fprintf(stdout, "\n%d engagement(s)\n", len(vms))
	return nil
}

// ShowEngagementCommand prints one engagement and records the view.
func ShowEngagementCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("engagement show", flag.ExitOnError)
	noView := fs.Bool("no-view", false, "Don't mark the engagement as viewed")
	_ = fs.Parse(args)

	vm, err := findEngagement(coord, fs.Arg(0))
	if err != nil {
		return err
	}
	printEngagement(vm)

	if !*noView {
		if err := coord.RecordView(context.Background(), vm.ID, ""); err != nil {
			return fmt.Errorf("failed to record view: %w", err)
		}
	}
	return nil
}

func printEngagement(vm *models.EngagementViewModel) {
	fmt.Fprintf(stdout, "%s  (%s)\n", vm.Company, vm.ID)
	fmt.Fprintf(stdout, "  Status:    %s", vm.EngagementStatus)
	if vm.IsArchived {
		fmt.Fprint(stdout, " [archived]")
	}
	fmt.Fprintln(stdout)
	if vm.ClosedReason != "" {
		fmt.Fprintf(stdout, "  Reason:    %s\n", vm.ClosedReason)
	}
	fmt.Fprintf(stdout, "  Phase:     %s\n", vm.CurrentPhase)
	fmt.Fprintf(stdout, "  Contact:   %s %s %s\n", orDash(vm.ContactName), vm.ContactEmail, vm.ContactPhone)
	fmt.Fprintf(stdout, "  Industry:  %s\n", orDash(vm.Industry))
	fmt.Fprintf(stdout, "  Value:     %s\n", formatMoney(vm.DealValue))
	fmt.Fprintf(stdout, "  Sales rep: %s\n", orDash(vm.SalesRepName))
	fmt.Fprintf(stdout, "  Owners:    %s\n", orDash(strings.Join(vm.OwnerNames, ", ")))
	if len(vm.Competitors) > 0 {
		fmt.Fprintf(stdout, "  Competing: %s", strings.Join(vm.Competitors, ", "))
		if vm.OtherCompetitor != "" {
			fmt.Fprintf(stdout, " (%s)", vm.OtherCompetitor)
		}
		fmt.Fprintln(stdout)
	}
	fmt.Fprintf(stdout, "  Last activity: %s (%d business days", vm.LastActivity.Format(dateLayout), vm.DaysSinceActivity)
	if vm.IsStale {
		fmt.Fprint(stdout, ", stale")
	}
	fmt.Fprintln(stdout, ")")
	if vm.UnreadChanges > 0 {
		fmt.Fprintf(stdout, "  Unread changes: %d\n", vm.UnreadChanges)
	}

	fmt.Fprintln(stdout, "\nPhases:")
	for _, p := range vm.PhaseList() {
		line := fmt.Sprintf("  %-8s %s", p.PhaseType, p.Status)
		if p.CompletedDate != nil {
			line += " " + p.CompletedDate.Format(dateLayout)
		}
		if n := len(vm.NotesByPhase[p.PhaseType]); n > 0 {
			line += fmt.Sprintf(" (%d notes)", n)
		}
		fmt.Fprintln(stdout, line)
	}

	if len(vm.Activities) > 0 {
		fmt.Fprintln(stdout, "\nActivities:")
		for _, a := range vm.Activities {
			fmt.Fprintf(stdout, "  %s %-7s %s [%s]\n", a.Date.Format(dateLayout), a.Type, a.Description, shortID(a.ID))
			for _, c := range a.Comments {
				fmt.Fprintf(stdout, "      %s: %s [%s]\n", c.AuthorID, c.Content, shortID(c.ID))
			}
		}
	}

	if len(vm.ChangeLogs) > 0 {
		fmt.Fprintln(stdout, "\nRecent changes:")
		for i, l := range vm.ChangeLogs {
			if i == 10 {
				break
			}
			fmt.Fprintf(stdout, "  %s %s: %s\n", l.CreatedAt.Format("2006-01-02 15:04"), l.UserID, l.Description)
		}
	}
}

// EditEngagementCommand updates engagement details.
func EditEngagementCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("engagement edit", flag.ExitOnError)
	company := fs.String("company", "", "New company name")
	contact := fs.String("contact", "", "New contact name")
	email := fs.String("email", "", "New contact email")
	phone := fs.String("phone", "", "New contact phone")
	industry := fs.String("industry", "", "New industry")
	value := fs.Int64("value", -1, "New deal value in cents")
	_ = fs.Parse(args)

	vm, err := findEngagement(coord, fs.Arg(0))
	if err != nil {
		return err
	}

	var in engine.EngagementDetails
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "company":
			in.Company = company
		case "contact":
			in.ContactName = contact
		case "email":
			in.ContactEmail = email
		case "phone":
			in.ContactPhone = phone
		case "industry":
			in.Industry = industry
		case "value":
			in.DealValue = value
		}
	})

	updated, err := coord.UpdateDetails(context.Background(), vm.ID, in)
	if err != nil {
		return writeError(err)
	}
	fmt.Fprintf(stdout, "✓ Updated %s\n", updated.Company)
	return nil
}

// StatusCommand changes the engagement status.
func StatusCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("engagement status", flag.ExitOnError)
	reason := fs.String("reason", "", "Why the engagement closed")
	_ = fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: engagement status <engagement> <status> [--reason text]")
	}
	vm, err := findEngagement(coord, fs.Arg(0))
	if err != nil {
		return err
	}
	status := models.EngagementStatus(strings.ToUpper(fs.Arg(1)))

	updated, err := coord.ChangeStatus(context.Background(), vm.ID, status, *reason)
	if err != nil {
		return writeError(err)
	}
	fmt.Fprintf(stdout, "✓ %s is now %s\n", updated.Company, updated.EngagementStatus)
	if updated.IsArchived {
		fmt.Fprintln(stdout, "  Archived")
	}
	return nil
}

// ArchiveCommand archives or restores an engagement.
func ArchiveCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("engagement archive", flag.ExitOnError)
	restore := fs.Bool("restore", false, "Restore instead of archive")
	_ = fs.Parse(args)

	vm, err := findEngagement(coord, fs.Arg(0))
	if err != nil {
		return err
	}

	ctx := context.Background()
	if *restore {
		if _, err := coord.Restore(ctx, vm.ID); err != nil {
			return writeError(err)
		}
		fmt.Fprintf(stdout, "✓ Restored %s\n", vm.Company)
		return nil
	}
	if _, err := coord.Archive(ctx, vm.ID); err != nil {
		return writeError(err)
	}
	fmt.Fprintf(stdout, "✓ Archived %s\n", vm.Company)
	return nil
}

// CompetitorsCommand replaces the competitor list.
func CompetitorsCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("engagement competitors", flag.ExitOnError)
	set := fs.String("set", "", "Comma-separated competitor codes (empty clears)")
	other := fs.String("other", "", "Free-text competitor for OTHER")
	_ = fs.Parse(args)

	vm, err := findEngagement(coord, fs.Arg(0))
	if err != nil {
		return err
	}
	updated, err := coord.UpdateCompetitors(context.Background(), vm.ID, splitList(*set), *other)
	if err != nil {
		return writeError(err)
	}
	fmt.Fprintf(stdout, "✓ Competitors for %s: %s\n", updated.Company, orDash(strings.Join(updated.Competitors, ", ")))
	return nil
}

// SalesRepCommand assigns or clears the sales rep.
func SalesRepCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("engagement sales-rep", flag.ExitOnError)
	_ = fs.Parse(args)

	vm, err := findEngagement(coord, fs.Arg(0))
	if err != nil {
		return err
	}
	updated, err := coord.AssignSalesRep(context.Background(), vm.ID, fs.Arg(1))
	if err != nil {
		return writeError(err)
	}
	fmt.Fprintf(stdout, "✓ Sales rep for %s: %s\n", updated.Company, orDash(updated.SalesRepName))
	return nil
}

// DeleteEngagementCommand permanently deletes an engagement and its children.
func DeleteEngagementCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("engagement delete", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm permanent deletion")
	_ = fs.Parse(args)

	vm, err := findEngagement(coord, fs.Arg(0))
	if err != nil {
		return err
	}
	if !*confirm {
		fmt.Fprintf(stdout, "WARNING: This permanently deletes %s and every phase, activity, comment, and note!\n\n", vm.Company)
		fmt.Fprintln(stdout, "To confirm, run:")
		fmt.Fprintf(stdout, "  pursuit engagement delete %s --confirm\n", vm.ID)
		return nil
	}

	audit, err := coord.DeleteEngagement(context.Background(), vm.ID)
	if err != nil {
		return writeError(err)
	}
	fmt.Fprintf(stdout, "✓ Deleted %s (correlation %s)\n", vm.Company, audit.CorrelationID)
	for _, coll := range sortedKeys(audit.Removed) {
		fmt.Fprintf(stdout, "  %-16s %d\n", coll, audit.Removed[coll])
	}
	return nil
}
