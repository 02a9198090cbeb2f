// Package library is the synchronization engine: it drives a scan pass
// over a root directory, reconciles the results against the catalog and
// reports progress through an ordered event stream.
package library

import (
	"encoding/json"

	"github.com/franz/music-catalog/internal/track"
)

// EventKind discriminates the event stream variants.
type EventKind string

const (
	EventScanStarted  EventKind = "scanStarted"
	EventTrackAdded   EventKind = "trackAdded"
	EventTrackUpdated EventKind = "trackUpdated"
	EventTrackRemoved EventKind = "trackRemoved"
	EventScanFinished EventKind = "scanFinished"
	EventError        EventKind = "error"
)

// Event is one element of the scan event stream. Exactly one
// scanStarted opens the stream and exactly one terminal event
// (scanFinished, or an error that aborted the whole scan) closes it.
// Per-file errors appear in between and do not terminate the stream.
type Event struct {
	Kind EventKind

	// Track carries the full per-file model for trackAdded and
	// trackUpdated.
	Track *track.Track

	// TrackID is the removed catalog row id for trackRemoved.
	TrackID int64

	// Path and Message describe error events. Path is empty when the
	// error is not scoped to a single file.
	Path    string
	Message string
}

// Terminal reports whether this event closes the stream.
func (e Event) Terminal() bool {
	return e.Kind == EventScanFinished || (e.Kind == EventError && e.Path == "")
}

// MarshalJSON encodes the event as the tagged union {event, data}
// consumed by UI shells.
func (e Event) MarshalJSON() ([]byte, error) {
	type envelope struct {
		Event EventKind   `json:"event"`
		Data  interface{} `json:"data,omitempty"`
	}
	env := envelope{Event: e.Kind}

	switch e.Kind {
	case EventTrackAdded, EventTrackUpdated:
		env.Data = e.Track
	case EventTrackRemoved:
		env.Data = e.TrackID
	case EventError:
		data := map[string]string{"message": e.Message}
		if e.Path != "" {
			data["path"] = e.Path
		}
		env.Data = data
	}
	return json.Marshal(env)
}

func scanStarted() Event  { return Event{Kind: EventScanStarted} }
func scanFinished() Event { return Event{Kind: EventScanFinished} }

func trackAdded(t *track.Track) Event   { return Event{Kind: EventTrackAdded, Track: t} }
func trackUpdated(t *track.Track) Event { return Event{Kind: EventTrackUpdated, Track: t} }
func trackRemoved(id int64) Event       { return Event{Kind: EventTrackRemoved, TrackID: id} }

func fileError(path string, err error) Event {
	return Event{Kind: EventError, Path: path, Message: err.Error()}
}

func fatalError(err error) Event {
	return Event{Kind: EventError, Message: err.Error()}
}
