package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/campus/internal/events"
)

// Handler runs the hooks matching each change event it receives.
type Handler struct {
	hooks  []Hook
	logger *slog.Logger
}

// NewHandler creates a handler for the given hooks.
func NewHandler(hooks []Hook, logger *slog.Logger) *Handler {
	return &Handler{hooks: hooks, logger: logger}
}

// HandleEnvelope runs every hook matching env.Event, one after another. Each
// command receives the event data as JSON on stdin and CAMPUS_EVENT,
// CAMPUS_RECORD_ID and CAMPUS_CLIENT_TOKEN in its environment. It returns
// the number of hooks that failed.
func (h *Handler) HandleEnvelope(ctx context.Context, env events.Envelope) int {
	failed := 0
	for _, hook := range h.hooks {
		if !hook.matches(env.Event) {
			continue
		}
		vars := map[string]string{
			"CAMPUS_EVENT":        env.Event,
			"CAMPUS_RECORD_ID":    recordID(env),
			"CAMPUS_CLIENT_TOKEN": env.ClientToken,
		}
		result := Execute(ctx, hook.Command, hook.Timeout, bytes.NewReader(env.Data), vars)
		if result.Err != nil {
			failed++
			h.logger.Warn("hooks: command failed",
				"event", env.Event, "command", hook.Command, "exit_code", result.ExitCode,
				"error", result.Err, "output", result.Output)
			continue
		}
		h.logger.Info("hooks: command executed",
			"event", env.Event, "command", hook.Command, "duration", result.Duration)
	}
	return failed
}

func recordID(env events.Envelope) string {
	var v struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &v)
	return v.ID
}

// StartSubscriber runs hooks for every change event on the bus. It blocks
// until ctx is cancelled or the subscription closes.
func (h *Handler) StartSubscriber(ctx context.Context, sub events.Subscriber) error {
	ch, cancel, err := sub.Subscribe(events.SubjectAll)
	if err != nil {
		return fmt.Errorf("hooks: subscribe: %w", err)
	}
	defer cancel()

	h.logger.Info("hooks: subscriber started", "hooks", len(h.hooks))

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hooks: subscriber stopping")
			return nil
		case env, ok := <-ch:
			if !ok {
				h.logger.Info("hooks: subscription channel closed")
				return nil
			}
			h.HandleEnvelope(ctx, env)
		}
	}
}
