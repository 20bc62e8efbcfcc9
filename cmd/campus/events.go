package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/ui"
)

var eventsCmd = &cobra.Command{
	Use:     "events",
	Short:   "Tail change events from the NATS bus",
	GroupID: "live",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("CAMPUS_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemote().NATSURL
		}
		if natsURL == "" {
			return errors.New("no NATS URL: pass --nats, set CAMPUS_NATS_URL or configure one on the active remote")
		}
		subject, _ := cmd.Flags().GetString("subject")

		sub, err := events.NewNATSSubscriber(natsURL)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, unsubscribe, err := sub.Subscribe(subject)
		if err != nil {
			return err
		}
		defer unsubscribe()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case env, ok := <-ch:
				if !ok {
					return nil
				}
				if jsonOutput {
					if err := printJSON(out, env); err != nil {
						return err
					}
					continue
				}
				line := fmt.Sprintf("%s  %s  %s",
					ui.RenderMuted(time.Now().Format("15:04:05")), ui.RenderEvent(env.Event), envelopeRecordID(env))
				if env.ClientToken != "" {
					line += "  " + ui.RenderMuted("token="+env.ClientToken)
				}
				fmt.Fprintln(out, line)
			}
		}
	},
}

func init() {
	eventsCmd.Flags().String("nats", "", "NATS server URL")
	eventsCmd.Flags().String("subject", events.SubjectAll, "NATS subject to subscribe to")
}
