// Package timeline turns an ordered message list into display entries,
// deciding which bubbles carry a timestamp label.
package timeline

import (
	"time"

	"github.com/tOgg1/thinkchat/internal/models"
)

// DefaultGroupWindow is the largest whole-minute gap that still keeps two
// consecutive same-sender messages in one visual group.
const DefaultGroupWindow = time.Minute

// DefaultClockFormat renders labels like "3:04 PM".
const DefaultClockFormat = "3:04 PM"

// Entry is a message plus its display annotation.
type Entry struct {
	Message       models.Message
	ShowTimestamp bool
}

// Annotate annotates msgs using DefaultGroupWindow.
func Annotate(msgs []models.Message) []Entry {
	return AnnotateWithin(msgs, DefaultGroupWindow)
}

// AnnotateWithin marks a message's timestamp as visible when it is the last
// message, when the next message comes from the other side, or when the gap to
// the next message, truncated to whole minutes, exceeds window.
//
// msgs must already be chronological; it is never reordered or modified.
func AnnotateWithin(msgs []models.Message, window time.Duration) []Entry {
	out := make([]Entry, len(msgs))
	for i, msg := range msgs {
		out[i] = Entry{Message: msg, ShowTimestamp: true}
		if i+1 >= len(msgs) {
			continue
		}
		next := msgs[i+1]
		if next.Sender != msg.Sender {
			continue
		}
		if wholeMinutes(next.CreatedAt.Sub(msg.CreatedAt)) > wholeMinutes(window) {
			continue
		}
		out[i].ShowTimestamp = false
	}
	return out
}

// wholeMinutes truncates d toward zero.
func wholeMinutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}

// Label formats ts for display in loc. A nil loc means local time.
func Label(ts time.Time, format string, loc *time.Location) string {
	if format == "" {
		format = DefaultClockFormat
	}
	if loc == nil {
		loc = time.Local
	}
	return ts.In(loc).Format(format)
}

// Group is a run of consecutive entries that render as one block.
type Group struct {
	Sender  models.Sender
	Entries []Entry
}

// Groups splits entries at every visible timestamp, so each group ends with
// exactly one labelled entry.
func Groups(entries []Entry) []Group {
	var out []Group
	var current *Group
	for _, entry := range entries {
		if current == nil {
			out = append(out, Group{Sender: entry.Message.Sender})
			current = &out[len(out)-1]
		}
		current.Entries = append(current.Entries, entry)
		if entry.ShowTimestamp {
			current = nil
		}
	}
	return out
}
