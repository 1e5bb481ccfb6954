// Package main provides the operator CLI for deployment and operations tasks.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/easeaico/project-pet/internal/chatlog"
	"github.com/easeaico/project-pet/internal/config"
	"github.com/easeaico/project-pet/internal/settings"
	"github.com/easeaico/project-pet/internal/storage"
)

const version = "0.1.0"

const opTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		migrateCmd(os.Args[2:])
	case "validate":
		validateCmd()
	case "logs":
		logsCmd(os.Args[2:])
	case "version":
		fmt.Printf("project-pet operator v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`project-pet operator - Deployment and operations CLI

Usage:
  operator <command> [flags]

Commands:
  migrate     Create the settings table and upgrade stored settings to the current version
  validate    Validate environment configuration
  logs        List or clear the pets' conversation logs
  version     Show version information
  help        Show this help message

Examples:
  operator migrate                        # Create tables and upgrade stored settings
  operator migrate --dry-run              # Report what would change
  operator validate                       # Check required env vars and profiles
  operator logs list --family direct      # Print direct talk logs
  operator logs list --limit 20 --text    # Print the newest 20 entries as prompt lines
  operator logs clear --family interPet   # Remove every inter-pet log`)
}

func loadConfigForOperator() config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	return cfg
}

func openStore(ctx context.Context, cfg config.Config) storage.SettingsStore {
	store, err := storage.Open(ctx, storage.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatalf("failed to open settings store: %v", err)
	}
	return store
}

// migrateCmd handles the migrate command.
func migrateCmd(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Show what would be migrated without executing")
	_ = fs.Parse(args)

	cfg := loadConfigForOperator()
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	store := openStore(ctx, cfg)
	defer store.Close()

	if *dryRun {
		fmt.Println("Dry run mode - no changes will be made")
		fmt.Printf("  - Would create the settings table (%s store)\n", cfg.StoreDriver)
	} else {
		fmt.Println("Creating settings table...")
		if err := store.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate store: %v", err)
		}
		fmt.Println("  ✓ Settings table ready")
	}

	raw, err := store.Load(ctx)
	if err != nil {
		if *dryRun {
			fmt.Println("  - No readable settings yet")
			return
		}
		log.Fatalf("failed to read settings: %v", err)
	}
	if raw == nil {
		fmt.Println("  - No stored settings, defaults will be written on first start")
		return
	}

	from := storedVersion(raw)
	legacyLogs := hasLegacyLogs(raw)
	if from == settings.CurrentVersion && !legacyLogs {
		fmt.Printf("  ✓ Settings already at version %d\n", settings.CurrentVersion)
		return
	}
	fmt.Printf("  - Settings version %d -> %d (legacy log lists: %v)\n", from, settings.CurrentVersion, legacyLogs)
	if *dryRun {
		return
	}

	s, err := settings.Decode(raw)
	if err != nil {
		log.Fatalf("failed to decode stored settings: %v", err)
	}
	if err := settings.Save(ctx, store, s); err != nil {
		log.Fatalf("failed to write migrated settings: %v", err)
	}
	fmt.Println("\nMigration completed successfully!")
}

func storedVersion(raw []byte) int {
	var stored struct {
		Version int `json:"version"`
	}
	_ = json.Unmarshal(raw, &stored)
	return stored.Version
}

func hasLegacyLogs(raw []byte) bool {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return false
	}
	if logs, ok := top["logs"]; ok {
		return chatlog.NeedsMigration(logs)
	}
	// Version 0 kept the log families at the top level.
	return chatlog.NeedsMigration(raw)
}

// validateCmd validates configuration.
func validateCmd() {
	cfg := loadConfigForOperator()

	fmt.Println("Validating configuration...")
	fmt.Printf("  provider: %s\n", cfg.Provider)
	fmt.Printf("  model: %s\n", cfg.Model)
	fmt.Printf("  store: %s\n", cfg.StoreDriver)
	fmt.Printf("  http addr: %s\n", cfg.HTTPAddr)

	profiles, err := cfg.ParsedProfiles()
	if err == nil {
		for _, p := range profiles {
			fmt.Printf("  profile %s: %s/%s\n", p.Name, p.Provider, p.Model)
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println("\nConfiguration errors:")
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Printf("  ✗ %s\n", line)
		}
		os.Exit(1)
	}
	fmt.Println("\n✓ Configuration is valid")
}

// logsCmd handles "logs list" and "logs clear".
func logsCmd(args []string) {
	if len(args) < 1 {
		fmt.Println("usage: operator logs <list|clear> [flags]")
		os.Exit(1)
	}
	sub := args[0]

	fs := flag.NewFlagSet("logs "+sub, flag.ExitOnError)
	family := fs.String("family", "", "Log family: direct, reaction or interPet (default all)")
	key := fs.String("key", "", "Only the list under this key (pet name, room id or pair key)")
	limit := fs.Int("limit", 0, "Newest entries to print (list only)")
	text := fs.Bool("text", false, "Print entries as prompt lines (list only)")
	_ = fs.Parse(args[1:])

	fam := chatlog.Family(*family)
	if fam != "" && !knownFamily(fam) {
		log.Fatalf("unknown log family %q", *family)
	}

	cfg := loadConfigForOperator()
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	store := openStore(ctx, cfg)
	defer store.Close()

	s, err := settings.Load(ctx, store)
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	logs := chatlog.NewStore(&s.Logs, func() int { return s.MaxLogs }, nil)

	switch sub {
	case "list":
		entries := logs.Query(chatlog.Filter{Family: fam, Key: *key, Limit: *limit})
		if *text {
			for _, line := range chatlog.FormatAll(entries) {
				fmt.Println(line)
			}
			return
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			log.Fatalf("failed to print logs: %v", err)
		}
	case "clear":
		removed := logs.Clear(fam, *key)
		if removed == 0 {
			fmt.Println("Nothing to clear")
			return
		}
		if err := settings.Save(ctx, store, s); err != nil {
			log.Fatalf("failed to save settings: %v", err)
		}
		fmt.Printf("✓ Removed %d log entries\n", removed)
	default:
		fmt.Printf("unknown logs command: %s\n", sub)
		os.Exit(1)
	}
}

func knownFamily(f chatlog.Family) bool {
	for _, known := range chatlog.Families {
		if known == f {
			return true
		}
	}
	return false
}
