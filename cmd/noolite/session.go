package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	_ "github.com/nerrad567/noolite-mqtt/migrations"

	"github.com/nerrad567/noolite-mqtt/internal/bridges/noolite"
	"github.com/nerrad567/noolite-mqtt/internal/discovery"
	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/config"
	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/database"
	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/mqtt"
)

func runDiscover(name string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var cf commonFlags
	cf.register(fs)
	prefix := fs.String("prefix", "", "discovery prefix (overrides discovery.prefix)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	if *prefix != "" {
		cfg.Discovery.Prefix = *prefix
	}
	if len(cfg.Discovery.Devices) == 0 {
		fmt.Fprintln(out, "no devices configured under discovery.devices")
		return nil
	}

	client, err := mqtt.ConnectSession(cfg.MQTT)
	if err != nil {
		return err
	}
	defer client.Close()

	n, err := announce(client, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "published %d discovery configs under %s\n", n, cfg.Discovery.Prefix)
	return nil
}

func announce(pub discovery.Publisher, cfg *config.Config) (int, error) {
	return discovery.NewAnnouncer(pub, cfg.Discovery.Prefix, cfg.MQTT.Prefix).Announce(cfg.Discovery.Devices)
}

func runChannels(ctx context.Context, name string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var cf commonFlags
	cf.register(fs)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := cf.load()
	if err != nil {
		return err
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	records, err := noolite.NewChannelRecorder(db.DB).ListChannels(ctx)
	if err != nil {
		return err
	}
	return printChannels(out, records, *asJSON)
}

func printChannels(out io.Writer, records []noolite.ChannelRecord, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []noolite.ChannelRecord{}
		}
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "no channels recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // column padding
	fmt.Fprintln(tw, "MODE\tCHANNEL\tLAST COMMAND\tMESSAGES\tLAST SEEN")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n",
			r.Mode, r.Channel, r.LastCommand, r.MessageCount, r.LastSeen.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
