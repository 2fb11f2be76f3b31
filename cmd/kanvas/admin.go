package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/kanvasboard/kanvas/internal/adapter/github"
	"github.com/kanvasboard/kanvas/internal/adapter/gitlab"
	"github.com/kanvasboard/kanvas/internal/adapter/postgres"
	"github.com/kanvasboard/kanvas/internal/config"
	"github.com/kanvasboard/kanvas/internal/domain/integration"
	"github.com/kanvasboard/kanvas/internal/port/gitprovider"
	"github.com/kanvasboard/kanvas/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "list-integrations":
		return runAdminListIntegrations(args[1:])
	case "rotate-secret":
		return runAdminRotateSecret(args[1:])
	case "set-token":
		return runAdminSetToken(args[1:])
	case "migration-version":
		return runAdminMigrationVersion(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: kanvas admin <command> [options]

Commands:
  list-integrations   List integrations linked to a board
  rotate-secret       Rotate an integration's webhook secret
  set-token           Replace an integration's provider access token
  migration-version   Print the applied database migration version
  help                Show this help message

Examples:
  kanvas admin list-integrations --board 4f2c...
  kanvas admin rotate-secret --id 9a1b...
  kanvas admin set-token --id 9a1b...
`)
}

func loadAdminDeps() (*service.IntegrationService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	githubClient, err := github.NewClient(cfg.GitHub)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("github client: %w", err)
	}

	svc := service.NewIntegrationService(
		postgres.NewIntegrationStore(pool),
		postgres.NewBoardStore(pool),
		map[integration.Provider]gitprovider.Client{
			integration.ProviderGitHub: githubClient,
			integration.ProviderGitLab: gitlab.NewClient(cfg.GitLab.BaseURL),
		},
		cfg.Server.PublicURL,
	)
	return svc, func() { pool.Close() }, nil
}

func runAdminListIntegrations(args []string) error {
	fs := flag.NewFlagSet("list-integrations", flag.ContinueOnError)
	boardID := fs.String("board", "", "board id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *boardID == "" {
		return fmt.Errorf("--board is required")
	}

	svc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	integs, err := svc.ListForBoard(context.Background(), *boardID)
	if err != nil {
		return fmt.Errorf("list integrations: %w", err)
	}
	if len(integs) == 0 {
		fmt.Println("No integrations found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPROVIDER\tREPO\tHOOK_ID\tAUTO_CREATE\tAUTO_CLOSE")
	for i := range integs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%t\n",
			integs[i].ID, integs[i].Provider, integs[i].Repo(),
			integs[i].RemoteHookID, integs[i].AutoCreateCards, integs[i].AutoCloseCards)
	}
	return w.Flush()
}

func runAdminRotateSecret(args []string) error {
	fs := flag.NewFlagSet("rotate-secret", flag.ContinueOnError)
	id := fs.String("id", "", "integration id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	svc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	integ, err := svc.RotateSecret(context.Background(), *id)
	if err != nil {
		return fmt.Errorf("rotate secret: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Secret rotated for %s (new remote hook id %d)\n", integ.Repo(), integ.RemoteHookID)
	return nil
}

func runAdminSetToken(args []string) error {
	fs := flag.NewFlagSet("set-token", flag.ContinueOnError)
	id := fs.String("id", "", "integration id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	token, err := promptSecret("Access token: ")
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}

	svc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.SetToken(context.Background(), *id, token); err != nil {
		return fmt.Errorf("set token: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Token updated.")
	return nil
}

func runAdminMigrationVersion(args []string) error {
	fs := flag.NewFlagSet("migration-version", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	version, err := postgres.MigrationVersion(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("migration version: %w", err)
	}
	fmt.Println(version)
	return nil
}

// promptSecret reads a value from the terminal without echoing.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
