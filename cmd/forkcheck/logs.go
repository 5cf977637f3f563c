package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"forkskinny-go/pkg/appdir"
	"forkskinny-go/pkg/log"
)

var logsCommand = &cli.Command{
	Name:        "logs",
	Usage:       "print JSON log entries from the log database",
	UsageText:   "forkcheck logs [-f PATH] [-n NUMBER]",
	Description: "Reads the SQLite log sink written when log_db is configured.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "dbfile",
			Aliases: []string{"f"},
			Usage:   "SQLite log database `PATH` (default: the configured log_db)",
		},
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Usage:   "number of most recent entries `NUMBER`",
			Value:   100,
		},
	},
	Action: logsCmd,
}

func logsCmd(c *cli.Context) error {
	dbFile := c.String("dbfile")
	if dbFile == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		dbFile = cfg.LogDB
	}
	if dbFile == "" {
		return cli.Exit("Error: no log database, set --dbfile or log_db.", exitConfig)
	}
	path, err := appdir.Path(dbFile)
	if err != nil {
		return cli.Exit(err.Error(), exitConfig)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cli.Exit(fmt.Sprintf("Error: Database file not found at '%s'", path), exitConfig)
		}
		return cli.Exit(err.Error(), exitConfig)
	}
	count := c.Int("count")
	if count <= 0 {
		return cli.Exit("Error: --count (-n) must be a positive number.", exitConfig)
	}

	if err := log.Init(path); err != nil {
		return cli.Exit(fmt.Sprintf("Error initializing logger (required for DB access): %v", err), exitConfig)
	}
	defer log.Close()

	results, err := log.GetLastNLogs(count)
	if err != nil {
		if errors.Is(err, log.ErrNotInitialized) {
			return cli.Exit("Internal Error: Logger DB handle became unavailable.", exitConfig)
		}
		return cli.Exit(fmt.Sprintf("Error retrieving logs: %v", err), exitConfig)
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "No log entries found.")
		return nil
	}
	for _, entry := range results {
		fmt.Println(entry.LogData)
	}
	return nil
}
