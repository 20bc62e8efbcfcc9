package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/campus/internal/client"
	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/logging"
	"github.com/alfredjeanlab/campus/internal/model"
	"github.com/alfredjeanlab/campus/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch <collection>",
	Short:   "Show a collection and follow its changes live",
	GroupID: "live",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := logging.Discard()
		if verbose {
			if logger, _, err = logging.New("debug", ""); err != nil {
				return err
			}
		}
		feed := client.NewFeed(serverURL, client.WithFeedLogger(logger))
		out := cmd.OutOrStdout()

		switch c {
		case model.CollectionSchools:
			return watchCollection(ctx, out, feed, client.NewSchools(api, feed), c, func(s model.School) string {
				return s.Name
			})
		case model.CollectionAnnouncements:
			return watchCollection(ctx, out, feed, client.NewAnnouncements(api, feed), c, func(a model.Announcement) string {
				return a.Date + "  " + truncate(a.Title, 50)
			})
		default:
			return watchCollection(ctx, out, feed, client.NewInquiries(api, feed), c, func(i model.Inquiry) string {
				return i.Name + " <" + i.Email + ">  " + i.Program
			})
		}
	},
}

// watchCollection prints the current contents of coll and then one line per
// change event until ctx ends or the feed gives up reconnecting.
func watchCollection[T client.Syncable[T]](
	ctx context.Context,
	w io.Writer,
	feed *client.Feed,
	coll *client.Collection[T],
	kind model.Collection,
	describe func(T) string,
) error {
	var mu sync.Mutex
	printf := func(format string, a ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, a...)
	}

	for _, op := range []events.Op{events.OpCreated, events.OpUpdated, events.OpDeleted} {
		defer feed.On(events.EventName(kind, op), func(env events.Envelope) {
			printf("%s  %s  %s\n", ui.RenderMuted(time.Now().Format("15:04:05")), ui.RenderEvent(env.Event), envelopeRecordID(env))
		})()
	}
	defer feed.OnStatus(func(online bool) {
		printf("%s\n", ui.RenderStatus(online))
	})()

	runErr := make(chan error, 1)
	go func() { runErr <- feed.Run(ctx) }()

	if err := coll.Start(ctx); err != nil {
		return err
	}
	defer coll.Stop()

	records := coll.Records()
	for _, r := range records {
		printf("  %s  %s\n", ui.RenderAccent(r.RecordID()), describe(r))
	}
	printf("%s\n", ui.RenderMuted(fmt.Sprintf("%d %s, watching for changes (Ctrl-C to stop)", len(records), kind)))

	return <-runErr
}

func envelopeRecordID(env events.Envelope) string {
	var rec struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &rec); err != nil {
		return ""
	}
	return rec.ID
}

func init() {
	watchCmd.Flags().BoolP("verbose", "v", false, "log realtime connection activity to stderr")
}
