// Command sharelyst-admin inspects and settles groups directly against the
// database, without going through the RPC server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kingpin"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mmynk/sharelyst/internal/config"
	"github.com/mmynk/sharelyst/internal/janitor"
	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/settlement"
	"github.com/mmynk/sharelyst/internal/storage"
	"github.com/mmynk/sharelyst/internal/storage/sqlite"
	"github.com/mmynk/sharelyst/pkg/logging"
)

const commandTimeout = time.Minute

func main() {
	dbPath := kingpin.Flag("db", "Database path (overrides database.path)").String()
	lang := kingpin.Flag("lang", "Language tag for amount formatting").Default("en").String()

	cmdReport := kingpin.Command("report", "Show a group's settlement report")
	reportGroup := cmdReport.Flag("group", "Group ID or 6-digit join code").Required().String()

	cmdSettle := kingpin.Command("settle", "Reset or delete a group")
	settleGroup := cmdSettle.Flag("group", "Group ID or 6-digit join code").Required().String()
	settleAction := cmdSettle.Flag("action", "Settle action").Required().Enum(string(models.ActionReset), string(models.ActionDelete))
	settleVersion := cmdSettle.Flag("expected-version", "Ledger version the settlement was computed against (0 skips the check)").Default("0").Int64()

	cmdSweep := kingpin.Command("sweep", "Delete every group without members")
	cmdMigrate := kingpin.Command("migrate", "Apply pending schema migrations")

	cmd := kingpin.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Setup("")
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	tag, err := language.Parse(*lang)
	if err != nil {
		kingpin.Fatalf("invalid --lang %q: %v", *lang, err)
	}
	p := message.NewPrinter(tag)

	if cmd == cmdMigrate.FullCommand() {
		if err := migrateDB(p, cfg.Database.Path); err != nil {
			kingpin.Fatalf("%v", err)
		}
		return
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		kingpin.Fatalf("%v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	engine := settlement.NewEngine(store)

	switch cmd {
	case cmdReport.FullCommand():
		err = report(ctx, p, store, engine, *reportGroup)
	case cmdSettle.FullCommand():
		err = settle(ctx, p, store, engine, *settleGroup, *settleAction, *settleVersion)
	case cmdSweep.FullCommand():
		var deleted int
		deleted, err = janitor.New(store, engine, nil).Sweep(ctx)
		p.Printf("Deleted %d orphan group(s)\n", deleted)
	}
	if err != nil {
		kingpin.Fatalf("%v", err)
	}
}

// resolveGroup accepts a group ID or a 6-digit join code.
func resolveGroup(ctx context.Context, store storage.GroupStore, ref string) (*models.Group, error) {
	if code, err := strconv.Atoi(ref); err == nil && models.ValidGroupCode(code) {
		return store.GetGroupByCode(ctx, code)
	}
	return store.GetGroup(ctx, ref)
}

func report(ctx context.Context, p *message.Printer, store storage.GroupStore, engine *settlement.Engine, ref string) error {
	group, err := resolveGroup(ctx, store, ref)
	if err != nil {
		return err
	}
	rep, err := engine.ComputeSettlement(ctx, group.ID)
	if err != nil {
		return err
	}
	writeReport(os.Stdout, p, group, rep)
	return nil
}

func settle(ctx context.Context, p *message.Printer, store storage.GroupStore, engine *settlement.Engine, ref, action string, expectedVersion int64) error {
	group, err := resolveGroup(ctx, store, ref)
	if err != nil {
		return err
	}
	result, err := engine.SettleGroup(ctx, group.ID, action, expectedVersion)
	if err != nil {
		return err
	}
	p.Printf("%s: %s\n", group.Name, result.Message)
	return nil
}

func migrateDB(p *message.Printer, dbPath string) error {
	if err := sqlite.Migrate(dbPath); err != nil {
		return err
	}
	version, dirty, err := sqlite.SchemaVersion(dbPath)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}
	p.Printf("Schema at version %d\n", version)
	return nil
}
