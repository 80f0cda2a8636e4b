package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sortdesk/mailsift-backend/internal/config"
	"github.com/sortdesk/mailsift-backend/internal/database"
	"github.com/sortdesk/mailsift-backend/internal/gmail"
	"github.com/sortdesk/mailsift-backend/internal/ingest"
	"github.com/sortdesk/mailsift-backend/internal/models"
	"github.com/sortdesk/mailsift-backend/internal/repository"
	"github.com/sortdesk/mailsift-backend/internal/rules"
)

type triageConfig struct {
	ruleFiles []string
	query     string
	fetch     bool
	dryRun    bool
}

func main() {
	tc := parseFlags()
	if err := run(tc); err != nil {
		slog.Error("triage failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func parseFlags() triageConfig {
	ruleFiles := flag.String("rules", "", "comma separated rule files (default: every .json in RULES_DIR)")
	query := flag.String("query", "in:inbox", "Gmail search query for fetching")
	fetch := flag.Bool("fetch", true, "fetch new messages from Gmail before applying rules")
	dryRun := flag.Bool("dry-run", false, "evaluate rules without executing actions")
	flag.Parse()

	var files []string
	if *ruleFiles != "" {
		for _, f := range strings.Split(*ruleFiles, ",") {
			if f = strings.TrimSpace(f); f != "" {
				files = append(files, f)
			}
		}
	}

	return triageConfig{
		ruleFiles: files,
		query:     *query,
		fetch:     *fetch,
		dryRun:    *dryRun,
	}
}

func run(tc triageConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	messageRepo := repository.NewMessageRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)

	var transport rules.Transport = rules.UnavailableTransport{}
	client, err := gmail.Connect(ctx, cfg.GmailAuthDir, logger)
	if err != nil {
		if tc.fetch {
			return fmt.Errorf("connect gmail: %w", err)
		}
		logger.Warn("gmail transport unavailable", slog.Any("error", err))
	} else {
		transport = client
	}

	if tc.fetch {
		ingestSvc := ingest.NewService(messageRepo, logger)
		created, err := ingestSvc.FromGmail(ctx, client, int64(cfg.MaxFetch), tc.query)
		if err != nil {
			return fmt.Errorf("fetch from gmail: %w", err)
		}
		logger.Info("fetch complete", slog.Int("new_messages", created))
	}

	paths, err := resolveRuleFiles(cfg.RulesDir, tc.ruleFiles)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no rule files found in %s", cfg.RulesDir)
	}

	messages, _, err := messageRepo.List(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	if tc.dryRun {
		return dryRun(logger, messages, paths)
	}

	engine := rules.NewEngine(rules.EngineConfig{
		Transport: transport,
		Store:     messageRepo,
		Recorder:  applicationRepo,
		Logger:    logger,
	})

	multi := engine.ApplyFiles(ctx, messages, paths)

	fmt.Printf("messages: %d, rule sets: %d\n", multi.TotalMessages, multi.TotalRuleSets)
	for _, path := range paths {
		stats := multi.RuleSetResults[path]
		fmt.Printf("  %s: processed=%d matched=%d failed=%d\n",
			filepath.Base(path), stats.Processed, stats.Matched, stats.Failed)
	}
	return nil
}

// dryRun evaluates every rule set without touching the transport or the
// application log.
func dryRun(logger *slog.Logger, messages []models.Message, paths []string) error {
	eval := rules.NewEvaluator(logger)
	for _, path := range paths {
		set, err := rules.LoadFile(path, logger)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		matched := 0
		for i := range messages {
			if eval.EvaluateAll(set, &messages[i]) {
				matched++
			}
		}
		fmt.Printf("  %s: would match %d of %d\n", filepath.Base(path), matched, len(messages))
	}
	return nil
}

// resolveRuleFiles turns the -rules flag into absolute paths, defaulting to
// every .json file in the rules directory.
func resolveRuleFiles(dir string, names []string) ([]string, error) {
	if len(names) > 0 {
		paths := make([]string, 0, len(names))
		for _, name := range names {
			if filepath.IsAbs(name) {
				paths = append(paths, name)
				continue
			}
			paths = append(paths, filepath.Join(dir, name))
		}
		return paths, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan rules directory: %w", err)
	}
	return matches, nil
}
