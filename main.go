// ABOUTME: Entry point for the pursuit engagement tracker
// ABOUTME: Routes to the MCP server, CLI commands, TUI, or web server based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/harperreed/pursuit/cli"
	"github.com/harperreed/pursuit/config"
	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/engine"
	"github.com/harperreed/pursuit/tui"
	"github.com/harperreed/pursuit/web"
)

const version = "0.2.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dsn := flag.String("dsn", "", "Store DSN (default from config: sqlite://~/.local/share/pursuit/pursuit.db)")
	flag.StringVar(dsn, "db-path", "", "Alias for --dsn")
	user := flag.String("user", "", "Session user id (default from config)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("pursuit version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	if *dsn != "" {
		cfg.StoreDSN = *dsn
	}
	if *user != "" {
		cfg.UserID = *user
	}
	logger := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "mcp", "tui", "serve", "crm", "viz", "sync", "repair":
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	store, err := db.Open(ctx, cfg.StoreDSN, db.Options{Charm: cfg.Charm()})
	if err != nil {
		logger.Fatal("failed to open store", "dsn", cfg.StoreDSN, "err", err)
	}
	defer func() { _ = store.Close() }()

	// sync manages the store itself and never needs the engagement cache
	if command == "sync" {
		if err := cli.SyncCommand(store, cfg, commandArgs); err != nil {
			logger.Fatal("sync failed", "err", err)
		}
		return
	}

	coord, err := engine.New(engine.Options{
		Store:              store,
		Logger:             logger,
		UserID:             cfg.UserID,
		StaleThresholdDays: cfg.StaleThresholdDays,
		ShareLinkTTL:       cfg.ShareLinkTTL,
		Metrics:            engine.NewMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logger.Fatal("failed to start", "err", err)
	}
	if err := coord.Load(ctx); err != nil {
		logger.Fatal("failed to load engagements", "err", err)
	}
	logger.Debug("store ready", "dsn", cfg.StoreDSN, "user", cfg.UserID, "engagements", len(coord.List()))

	switch command {
	case "mcp":
		if err := cli.MCPCommand(ctx, coord, logger, version); err != nil {
			logger.Fatal("MCP server failed", "err", err)
		}

	case "tui":
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			logger.Fatal("tui requires an interactive terminal")
		}
		if _, err := tea.NewProgram(tui.NewModel(coord), tea.WithAltScreen()).Run(); err != nil {
			logger.Fatal("tui failed", "err", err)
		}

	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		addr := fs.String("addr", cfg.ListenAddr, "Listen address")
		_ = fs.Parse(commandArgs)

		srv, err := web.NewServer(coord, web.Options{Logger: logger.With("component", "web")})
		if err != nil {
			logger.Fatal("failed to build web server", "err", err)
		}
		if err := srv.Start(ctx, *addr); err != nil {
			logger.Fatal("web server failed", "err", err)
		}

	case "repair":
		if err := cli.RepairCommand(ctx, coord, commandArgs); err != nil {
			logger.Fatal("repair failed", "err", err)
		}

	case "crm":
		if len(commandArgs) == 0 {
			fmt.Println("Error: crm requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		if err := runCRM(coord, commandArgs[0], commandArgs[1:]); err != nil {
			logger.Fatal("command failed", "err", err)
		}

	case "viz":
		if len(commandArgs) == 0 {
			fmt.Println("Error: viz requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		if err := runViz(coord, commandArgs); err != nil {
			logger.Fatal("command failed", "err", err)
		}
	}
}

func runCRM(coord *engine.Coordinator, group string, args []string) error {
	switch group {
	case "phase":
		return cli.PhaseCommand(coord, args)
	case "comment":
		return cli.CommentCommand(coord, args)
	case "note":
		return cli.NoteCommand(coord, args)
	case "owner":
		return cli.OwnerCommand(coord, args)
	case "view":
		return cli.ViewCommand(coord, args)
	case "share":
		return cli.ShareCommand(coord, args)
	}

	if len(args) == 0 {
		return unknown("crm " + group)
	}
	sub, rest := args[0], args[1:]

	switch group {
	case "engagement":
		switch sub {
		case "create":
			return cli.CreateEngagementCommand(coord, rest)
		case "list":
			return cli.ListEngagementsCommand(coord, rest)
		case "show":
			return cli.ShowEngagementCommand(coord, rest)
		case "edit":
			return cli.EditEngagementCommand(coord, rest)
		case "status":
			return cli.StatusCommand(coord, rest)
		case "archive":
			return cli.ArchiveCommand(coord, rest)
		case "competitors":
			return cli.CompetitorsCommand(coord, rest)
		case "sales-rep":
			return cli.SalesRepCommand(coord, rest)
		case "delete":
			return cli.DeleteEngagementCommand(coord, rest)
		}
	case "activity":
		switch sub {
		case "add":
			return cli.AddActivityCommand(coord, rest)
		case "edit":
			return cli.EditActivityCommand(coord, rest)
		case "delete":
			return cli.DeleteActivityCommand(coord, rest)
		}
	}
	return unknown("crm " + group + " " + sub)
}

func runViz(coord *engine.Coordinator, args []string) error {
	switch args[0] {
	case "dashboard":
		return cli.VizDashboardCommand(coord, args[1:])
	case "graph":
		if len(args) < 2 {
			return fmt.Errorf("viz graph requires a type (pipeline or engagement)")
		}
		switch args[1] {
		case "pipeline":
			return cli.VizGraphPipelineCommand(coord, args[2:])
		case "engagement":
			return cli.VizGraphEngagementCommand(coord, args[2:])
		}
	}
	return unknown("viz " + args[0])
}

func unknown(cmd string) error {
	printUsage()
	return fmt.Errorf("unknown command: %s", cmd)
}

func printUsage() {
	fmt.Printf(`pursuit v%s - Sales engagement tracker

USAGE:
  pursuit [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --dsn <dsn>            Store DSN: sqlite://path, postgres://..., charm://app, badger://path, memory://
  --user <id>            Session user id

COMMANDS:
  mcp                    Start MCP server for Claude Desktop
  tui                    Interactive pipeline browser
  serve [--addr :8080]   Share pages, dashboard, and /metrics
  crm                    Engagement management commands
  viz                    Visualization commands
  sync                   Charm sync (status, now, wipe, auto on|off)
  repair [engagement]    Backfill missing phases and owners, re-derive stored fields

CRM COMMANDS:
  pursuit crm engagement create --company <name> [--contact] [--email] [--phone] [--industry]
                                [--value <cents>] [--start YYYY-MM-DD] [--competitors A,B] [--sales-rep id]
  pursuit crm engagement list [--query text] [--phase PHASE] [--status STATUS] [--stale] [--all] [--limit n]
  pursuit crm engagement show [--no-view] <engagement>
  pursuit crm engagement edit [--company] [--contact] [--email] [--phone] [--industry] [--value] <engagement>
  pursuit crm engagement status [--reason text] <engagement> <status>
    status: ACTIVE, ON_HOLD, UNRESPONSIVE, WON, LOST, DISQUALIFIED, NO_DECISION
  pursuit crm engagement archive [--restore] <engagement>
  pursuit crm engagement competitors --set A,B [--other text] <engagement>
  pursuit crm engagement sales-rep <engagement> <rep-id>
  pursuit crm engagement delete --confirm <engagement>

  pursuit crm phase [--notes text] [--links title=url,...] <engagement> <phase> <status>
  pursuit crm activity add --type CALL --desc text [--date YYYY-MM-DD] <engagement>
  pursuit crm activity edit [--type] [--desc] [--date] <engagement> <activity>
  pursuit crm activity delete <engagement> <activity>
  pursuit crm comment add|edit|delete <engagement> <activity> ...
  pursuit crm note add|edit|delete|list <engagement> ...
  pursuit crm owner add|remove <engagement> <team-member-id>
  pursuit crm view <engagement>
  pursuit crm share create|list|revoke <engagement> ...

  <engagement> is an id, a unique id prefix, or the company name.
  Note: flags must come before positional arguments

VIZ COMMANDS:
  pursuit viz dashboard
  pursuit viz graph pipeline [--output file]
  pursuit viz graph engagement <engagement> [--output file]

`, version)
}
