package config

import (
	"github.com/rjeczalik/notify"
)

// Watcher reloads Config from path whenever the file changes on disk,
// delivering the freshly parsed Config on Updates. Only the live-safe
// subset of knobs (synapse, quantizer, exhaustion, retention — not the
// fixed-at-construction arena Sizes) is meant to be applied by a
// caller without restarting the engine; Watcher itself doesn't
// enforce that split, it just delivers whatever Load produces.
type Watcher struct {
	path    string
	events  chan notify.EventInfo
	Updates chan Config
	errs    chan error
}

// WatchFile starts watching path for writes, decoding and delivering a
// new Config on every change. Callers must call Stop when done.
func WatchFile(path string) (*Watcher, error) {
	w := &Watcher{
		path:    path,
		events:  make(chan notify.EventInfo, 4),
		Updates: make(chan Config, 1),
		errs:    make(chan error, 1),
	}
	if err := notify.Watch(path, w.events, notify.Write); err != nil {
		return nil, err
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for range w.events {
		cfg, err := Load(w.path)
		if err != nil {
			select {
			case w.errs <- err:
			default:
			}
			continue
		}
		select {
		case w.Updates <- cfg:
		default:
			// Drop if the consumer hasn't drained the previous update;
			// the next write event will deliver the latest state anyway.
		}
	}
}

// Errs surfaces decode errors encountered during watching.
func (w *Watcher) Errs() <-chan error { return w.errs }

// Stop releases the underlying filesystem watch.
func (w *Watcher) Stop() {
	notify.Stop(w.events)
	close(w.events)
}
