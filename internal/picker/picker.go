// Package picker builds the flat replacement choice list and interprets
// the user's selection. The interactive capability is injected so the
// protocol stays testable with scripted doubles.
package picker

import (
	"errors"
	"fmt"
	"time"

	"github.com/kielbrand/blinkcopy/internal/metadata"
)

// NoneLabel is the sentinel choice that rejects every candidate.
const NoneLabel = "None of these (rig changed)"

// ErrCancelled is returned by a Selector when the user aborts without
// choosing.
var ErrCancelled = errors.New("picker: cancelled")

// Outcome tags the result of one interactive decision.
type Outcome int

// Picker outcomes. Rejected advances the cutoff; Cancelled leaves all
// state untouched for this run.
const (
	Selected Outcome = iota
	Rejected
	Cancelled
)

// Result is the interpreted outcome of one pick. Date is set only for
// Selected.
type Result struct {
	Outcome Outcome
	Date    string
}

// Item is one selectable entry: a candidate date or the None sentinel.
type Item struct {
	Date  string // "" for the sentinel
	Label string
}

// List is the bounded display list handed to a Selector. Items holds
// older candidates ascending, then the sentinel, then newer candidates
// ascending. OlderHidden and NewerHidden count truncated entries.
type List struct {
	Items       []Item
	NoneIndex   int
	OlderHidden int
	NewerHidden int
}

// Selector presents a List and returns the chosen item index, or
// ErrCancelled when the user backs out.
type Selector interface {
	Select(prompt string, list List) (int, error)
}

// BuildItems partitions work already done by the caller: older and newer
// are the candidate dates strictly before and after lightDate, each in
// ascending order. The older block keeps the limit most recent entries,
// the newer block the limit oldest, and the sentinel always sits between
// the two blocks. Dates that fail to parse are dropped.
func BuildItems(lightDate string, older, newer []string, limit int) List {
	light, err := metadata.ParseDate(lightDate)
	if err != nil {
		return List{Items: []Item{{Label: NoneLabel}}}
	}

	var list List

	visibleOlder := older
	if limit > 0 && len(older) > limit {
		list.OlderHidden = len(older) - limit
		visibleOlder = older[len(older)-limit:]
	}
	for _, d := range visibleOlder {
		if item, ok := dateItem(d, light); ok {
			list.Items = append(list.Items, item)
		}
	}

	list.NoneIndex = len(list.Items)
	list.Items = append(list.Items, Item{Label: NoneLabel})

	visibleNewer := newer
	if limit > 0 && len(newer) > limit {
		list.NewerHidden = len(newer) - limit
		visibleNewer = newer[:limit]
	}
	for _, d := range visibleNewer {
		if item, ok := dateItem(d, light); ok {
			list.Items = append(list.Items, item)
		}
	}

	return list
}

func dateItem(date string, light time.Time) (Item, bool) {
	d, err := metadata.ParseDate(date)
	if err != nil {
		return Item{}, false
	}
	return Item{
		Date:  date,
		Label: fmt.Sprintf("%s  %s", date, dayDiffLabel(d, light)),
	}, true
}

// dayDiffLabel describes a candidate date relative to the light date in
// whole days, with a singular noun for exactly one day.
func dayDiffLabel(candidate, light time.Time) string {
	days := int(candidate.Sub(light).Hours() / 24)
	switch {
	case days == 0:
		return "(same day)"
	case days == -1:
		return "(1 day older)"
	case days < 0:
		return fmt.Sprintf("(%d days older)", -days)
	case days == 1:
		return "(1 day newer)"
	default:
		return fmt.Sprintf("(%d days newer)", days)
	}
}

// Pick resolves one flat replacement decision. An empty candidate set
// short-circuits to Rejected without invoking the selector. The sentinel
// maps to Rejected, a date item to Selected, and a selector cancel to
// Cancelled.
func Pick(sel Selector, lightDate, filterLabel string, older, newer []string, limit int) Result {
	if len(older) == 0 && len(newer) == 0 {
		return Result{Outcome: Rejected}
	}

	list := BuildItems(lightDate, older, newer, limit)
	prompt := fmt.Sprintf("No flat dated %s for filter %s. Use a nearby date?", lightDate, filterLabel)

	idx, err := sel.Select(prompt, list)
	if err != nil {
		return Result{Outcome: Cancelled}
	}
	if idx < 0 || idx >= len(list.Items) || idx == list.NoneIndex {
		return Result{Outcome: Rejected}
	}
	return Result{Outcome: Selected, Date: list.Items[idx].Date}
}
