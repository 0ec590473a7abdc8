// ABOUTME: Ownership, view tracking, and share link CLI commands
// ABOUTME: Who owns an engagement, who has seen it, and who outside the team can read it
package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/pursuit/engine"
)

// OwnerCommand adds or removes an engagement owner.
//
//	owner add <engagement> <team-member-id>
//	owner remove <engagement> <team-member-id>
func OwnerCommand(coord *engine.Coordinator, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: owner add|remove <engagement> <team-member-id>")
	}
	vm, err := findEngagement(coord, args[1])
	if err != nil {
		return err
	}
	ctx := context.Background()
	member := args[2]

	switch args[0] {
	case "add":
		if _, err := coord.AddOwner(ctx, vm.ID, member); err != nil {
			return fmt.Errorf("failed to add owner: %w", err)
		}
		fmt.Fprintf(stdout, "✓ %s now owns %s\n", member, vm.Company)
	case "remove":
		for _, o := range vm.Owners {
			if o.TeamMemberID != member {
				continue
			}
			if err := coord.RemoveOwner(ctx, vm.ID, o.ID); err != nil {
				return writeError(err)
			}
			fmt.Fprintf(stdout, "✓ Removed %s from %s\n", member, vm.Company)
			return nil
		}
		return fmt.Errorf("%s does not own %s", member, vm.Company)
	default:
		return fmt.Errorf("unknown owner command: %s", args[0])
	}
	return nil
}

// ViewCommand marks an engagement as viewed by the session user.
func ViewCommand(coord *engine.Coordinator, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: view <engagement>")
	}
	vm, err := findEngagement(coord, args[0])
	if err != nil {
		return err
	}
	if err := coord.RecordView(context.Background(), vm.ID, ""); err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	fmt.Fprintf(stdout, "✓ Marked %s as viewed\n", vm.Company)
	return nil
}

// ShareCommand manages read-only share links.
//
//	share create <engagement>
//	share list <engagement>
//	share revoke <engagement> <link-id>
func ShareCommand(coord *engine.Coordinator, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: share create|list|revoke <engagement> ...")
	}
	vm, err := findEngagement(coord, args[1])
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch args[0] {
	case "create":
		link, err := coord.CreateShareLink(ctx, vm.ID)
		if err != nil {
			return fmt.Errorf("failed to create share link: %w", err)
		}
		fmt.Fprintf(stdout, "✓ Share link for %s\n", vm.Company)
		fmt.Fprintf(stdout, "  Token:   %s\n", link.Token)
		fmt.Fprintf(stdout, "  Path:    /share/%s\n", link.Token)
		fmt.Fprintf(stdout, "  Expires: %s\n", link.ExpiresAt.Format("2006-01-02 15:04"))
	case "list":
		links, err := coord.ListShareLinks(ctx, vm.ID)
		if err != nil {
			return fmt.Errorf("failed to list share links: %w", err)
		}
		if len(links) == 0 {
			fmt.Fprintln(stdout, "No share links")
			return nil
		}
		w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tTOKEN\tEXPIRES\tACTIVE\tVIEWS")
		for _, l := range links {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%d\n", shortID(l.ID), l.Token, l.ExpiresAt.Format(dateLayout), l.IsActive, l.ViewCount)
		}
		_ = w.Flush()
	case "revoke":
		if len(args) < 3 {
			return fmt.Errorf("usage: share revoke <engagement> <link-id>")
		}
		links, err := coord.ListShareLinks(ctx, vm.ID)
		if err != nil {
			return fmt.Errorf("failed to list share links: %w", err)
		}
		for _, l := range links {
			if !strings.HasPrefix(l.ID, args[2]) && l.Token != args[2] {
				continue
			}
			if err := coord.RevokeShareLink(ctx, l); err != nil {
				return writeError(err)
			}
			fmt.Fprintf(stdout, "✓ Revoked link %s\n", shortID(l.ID))
			return nil
		}
		return fmt.Errorf("no share link %q on %s", args[2], vm.Company)
	default:
		return fmt.Errorf("unknown share command: %s", args[0])
	}
	return nil
}
