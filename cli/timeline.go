// ABOUTME: Phase, activity, comment, and note CLI commands
// ABOUTME: Child records are addressed by ID or the short ID shown by engagement show
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/models"
)

// PhaseCommand sets a phase's status and optionally its notes.
func PhaseCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("phase", flag.ExitOnError)
	notes := fs.String("notes", "", "Replace the phase notes")
	links := fs.String("links", "", "Replace links, as comma-separated title=url pairs")
	_ = fs.Parse(args)

	if fs.NArg() < 3 {
		return fmt.Errorf("usage: phase <engagement> <phase> <status> [--notes text] [--links title=url,...]")
	}
	vm, err := findEngagement(coord, fs.Arg(0))
	if err != nil {
		return err
	}

	upd := engine.PhaseUpdate{Status: models.PhaseStatus(strings.ToUpper(fs.Arg(2)))}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "notes":
			upd.Notes = notes
		case "links":
			parsed := parseLinks(*links)
			upd.Links = &parsed
		}
	})

	phase := models.PhaseType(strings.ToUpper(fs.Arg(1)))
	updated, err := coord.SavePhase(context.Background(), vm.ID, phase, upd)
	if err != nil {
		return writeError(err)
	}
	fmt.Fprintf(stdout, "✓ %s %s: %s\n", updated.Company, phase, updated.Phases[phase].Status)
	fmt.Fprintf(stdout, "  Current phase: %s\n", updated.CurrentPhase)
	return nil
}

func parseLinks(s string) []engine.LinkInput {
	var out []engine.LinkInput
	for _, pair := range splitList(s) {
		title, url, ok := strings.Cut(pair, "=")
		if !ok {
			title, url = pair, pair
		}
		out = append(out, engine.LinkInput{Title: strings.TrimSpace(title), URL: strings.TrimSpace(url)})
	}
	return out
}

// AddActivityCommand logs an activity.
func AddActivityCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("activity add", flag.ExitOnError)
	kind := fs.String("type", models.ActivityNote, "Type (CALL, EMAIL, MEETING, DEMO, NOTE)")
	date := fs.String("date", "", "Date (YYYY-MM-DD, default today)")
	desc := fs.String("desc", "", "Description")
	_ = fs.Parse(args)

	vm, err := findEngagement(coord, fs.Arg(0))
	if err != nil {
		return err
	}
	when := time.Now()
	if *date != "" {
		if when, err = parseDate(*date); err != nil {
			return err
		}
	}

	act, err := coord.AddActivity(context.Background(), vm.ID, engine.NewActivity{
		Type:        strings.ToUpper(*kind),
		Date:        when,
		Description: *desc,
	})
	if err != nil {
		return fmt.Errorf("failed to add activity: %w", err)
	}
	fmt.Fprintf(stdout, "✓ Logged %s on %s for %s (ID: %s)\n", act.Type, act.Date.Format(dateLayout), vm.Company, shortID(act.ID))
	return nil
}

// EditActivityCommand edits an activity.
func EditActivityCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("activity edit", flag.ExitOnError)
	kind := fs.String("type", "", "New type")
	date := fs.String("date", "", "New date (YYYY-MM-DD)")
	desc := fs.String("desc", "", "New description")
	_ = fs.Parse(args)

	vm, act, err := resolveActivity(coord, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	var edit engine.ActivityEdit
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "type":
			t := strings.ToUpper(*kind)
			edit.Type = &t
		case "date":
			d, err := parseDate(*date)
			if err != nil {
				parseErr = err
				return
			}
			edit.Date = &d
		case "desc":
			edit.Description = desc
		}
	})
	if parseErr != nil {
		return parseErr
	}

	if _, err := coord.EditActivity(context.Background(), vm.ID, act.ID, edit); err != nil {
		return writeError(err)
	}
	fmt.Fprintf(stdout, "✓ Updated activity %s\n", shortID(act.ID))
	return nil
}

// DeleteActivityCommand deletes an activity and its comments.
func DeleteActivityCommand(coord *engine.Coordinator, args []string) error {
	fs := flag.NewFlagSet("activity delete", flag.ExitOnError)
	_ = fs.Parse(args)

	vm, act, err := resolveActivity(coord, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	if err := coord.DeleteActivity(context.Background(), vm.ID, act.ID); err != nil {
		return writeError(err)
	}
	fmt.Fprintf(stdout, "✓ Deleted activity %s", shortID(act.ID))
	if n := len(act.Comments); n > 0 {
		fmt.Fprintf(stdout, " and %d comment(s)", n)
	}
	fmt.Fprintln(stdout)
	return nil
}

func resolveActivity(coord *engine.Coordinator, engRef, actRef string) (*models.EngagementViewModel, models.ActivityWithComments, error) {
	vm, err := findEngagement(coord, engRef)
	if err != nil {
		return nil, models.ActivityWithComments{}, err
	}
	if actRef == "" {
		return nil, models.ActivityWithComments{}, fmt.Errorf("activity ID is required")
	}
	for _, a := range vm.Activities {
		if strings.HasPrefix(a.ID, actRef) {
			return vm, a, nil
		}
	}
	return nil, models.ActivityWithComments{}, fmt.Errorf("no activity %q on %s", actRef, vm.Company)
}

// CommentCommand adds, edits, or deletes a comment on an activity.
//
//	comment add <engagement> <activity> <text>
//	comment edit <engagement> <activity> <comment> <text>
//	comment delete <engagement> <activity> <comment>
func CommentCommand(coord *engine.Coordinator, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: comment add|edit|delete <engagement> <activity> ...")
	}
	vm, act, err := resolveActivity(coord, args[1], args[2])
	if err != nil {
		return err
	}
	ctx := context.Background()
	rest := args[3:]

	switch args[0] {
	case "add":
		if len(rest) == 0 {
			return fmt.Errorf("comment text is required")
		}
		c, err := coord.AddComment(ctx, vm.ID, act.ID, strings.Join(rest, " "))
		if err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}
		fmt.Fprintf(stdout, "✓ Comment added (ID: %s)\n", shortID(c.ID))
	case "edit":
		if len(rest) < 2 {
			return fmt.Errorf("usage: comment edit <engagement> <activity> <comment> <text>")
		}
		id, err := commentID(act, rest[0])
		if err != nil {
			return err
		}
		if _, err := coord.EditComment(ctx, vm.ID, act.ID, id, strings.Join(rest[1:], " ")); err != nil {
			return writeError(err)
		}
		fmt.Fprintln(stdout, "✓ Comment updated")
	case "delete":
		if len(rest) < 1 {
			return fmt.Errorf("usage: comment delete <engagement> <activity> <comment>")
		}
		id, err := commentID(act, rest[0])
		if err != nil {
			return err
		}
		if err := coord.DeleteComment(ctx, vm.ID, act.ID, id); err != nil {
			return writeError(err)
		}
		fmt.Fprintln(stdout, "✓ Comment deleted")
	default:
		return fmt.Errorf("unknown comment command: %s", args[0])
	}
	return nil
}

func commentID(act models.ActivityWithComments, ref string) (string, error) {
	for _, c := range act.Comments {
		if strings.HasPrefix(c.ID, ref) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("no comment %q on activity %s", ref, shortID(act.ID))
}

// NoteCommand adds, edits, deletes, or lists phase notes.
//
//	note add <engagement> <phase> <text>
//	note edit <engagement> <note> <text>
//	note delete <engagement> <note>
//	note list <engagement> [phase]
func NoteCommand(coord *engine.Coordinator, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: note add|edit|delete|list <engagement> ...")
	}
	vm, err := findEngagement(coord, args[1])
	if err != nil {
		return err
	}
	ctx := context.Background()
	rest := args[2:]

	switch args[0] {
	case "add":
		if len(rest) < 2 {
			return fmt.Errorf("usage: note add <engagement> <phase> <text>")
		}
		n, err := coord.AddNote(ctx, vm.ID, models.PhaseType(strings.ToUpper(rest[0])), strings.Join(rest[1:], " "))
		if err != nil {
			return fmt.Errorf("failed to add note: %w", err)
		}
		fmt.Fprintf(stdout, "✓ Note added to %s (ID: %s)\n", n.PhaseType, shortID(n.ID))
	case "edit":
		if len(rest) < 2 {
			return fmt.Errorf("usage: note edit <engagement> <note> <text>")
		}
		id, err := noteID(vm, rest[0])
		if err != nil {
			return err
		}
		if _, err := coord.EditNote(ctx, vm.ID, id, strings.Join(rest[1:], " ")); err != nil {
			return writeError(err)
		}
		fmt.Fprintln(stdout, "✓ Note updated")
	case "delete":
		if len(rest) < 1 {
			return fmt.Errorf("usage: note delete <engagement> <note>")
		}
		id, err := noteID(vm, rest[0])
		if err != nil {
			return err
		}
		if err := coord.DeleteNote(ctx, vm.ID, id); err != nil {
			return writeError(err)
		}
		fmt.Fprintln(stdout, "✓ Note deleted")
	case "list":
		for _, t := range models.PhaseTypes {
			if len(rest) > 0 && !strings.EqualFold(rest[0], string(t)) {
				continue
			}
			for _, n := range vm.NotesByPhase[t] {
				fmt.Fprintf(stdout, "%-8s %s %s: %s [%s]\n", t, n.CreatedAt.Format(dateLayout), n.AuthorID, n.Text, shortID(n.ID))
			}
		}
		fmt.Fprintf(stdout, "\n%d note(s)\n", vm.TotalNotesCount)
	default:
		return fmt.Errorf("unknown note command: %s", args[0])
	}
	return nil
}

func noteID(vm *models.EngagementViewModel, ref string) (string, error) {
	for _, notes := range vm.NotesByPhase {
		for _, n := range notes {
			if strings.HasPrefix(n.ID, ref) {
				return n.ID, nil
			}
		}
	}
	return "", fmt.Errorf("no note %q on %s", ref, vm.Company)
}
