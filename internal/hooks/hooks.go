package hooks

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/model"
)

// AnyEvent matches every change event.
const AnyEvent = "*"

// Hook binds a shell command to an event name.
type Hook struct {
	// Event is a realtime event name such as "inquiry_created", or AnyEvent.
	Event   string        `toml:"event"`
	Command string        `toml:"command"`
	Timeout time.Duration `toml:"timeout"`
}

func (h Hook) matches(event string) bool {
	return h.Event == AnyEvent || h.Event == event
}

type file struct {
	Hooks []Hook `toml:"hook"`
}

// LoadFile reads hook definitions from a TOML file of [[hook]] tables:
//
//	[[hook]]
//	event = "inquiry_created"
//	command = "notify-admissions"
//	timeout = "10s"
func LoadFile(path string) ([]Hook, error) {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("reading hooks file: %w", err)
	}
	for i, h := range f.Hooks {
		if h.Command == "" {
			return nil, fmt.Errorf("hook %d: command is required", i+1)
		}
		if h.Event == "" {
			return nil, fmt.Errorf("hook %d: event is required", i+1)
		}
		if h.Event != AnyEvent && !knownEvent(h.Event) {
			return nil, fmt.Errorf("hook %d: unknown event %q", i+1, h.Event)
		}
	}
	return f.Hooks, nil
}

func knownEvent(name string) bool {
	for _, c := range model.Collections {
		for _, op := range []events.Op{events.OpCreated, events.OpUpdated, events.OpDeleted} {
			if op != events.OpCreated && !c.Mutable() {
				continue
			}
			if events.EventName(c, op) == name {
				return true
			}
		}
	}
	return false
}
