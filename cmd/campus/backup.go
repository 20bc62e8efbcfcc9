package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/campus/internal/backup"
	"github.com/alfredjeanlab/campus/internal/config"
	"github.com/alfredjeanlab/campus/internal/logging"
)

var backupCmd = &cobra.Command{
	Use:     "backup",
	Short:   "Export every record to the configured backup destinations once",
	GroupID: "system",
	Args:    cobra.NoArgs,
	// Reads the database directly rather than going through the API.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()

		dests := backupDestinations(cfg, logger)
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			dests = append(dests, backup.NewFileDestination(out))
		}
		if len(dests) == 0 {
			return errors.New("no backup destination: pass --out or set CAMPUS_BACKUP_S3_BUCKET or CAMPUS_BACKUP_GIT_REPO")
		}

		st, err := openStore(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := backup.NewScheduler(st, dests, 0, logger).RunOnce(context.Background()); err != nil {
			return err
		}
		for _, d := range dests {
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up to %s\n", d.Name())
		}
		return nil
	},
}

func init() {
	backupCmd.Flags().String("out", "", "also write the export to this file")
}
