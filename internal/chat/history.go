package chat

import (
	"sort"
	"time"

	"cime-gpt/internal/models"
)

// HistoryGroup is one day of chat history
type HistoryGroup struct {
	Label   string
	Entries []models.ChatHistoryEntry
}

const olderDateLayout = "Jan 2, 2006"

// GroupHistoryByDay buckets entries into Today, Yesterday and one group per older
// date. Today and Yesterday come first, older dates follow newest first, and the
// entries of each group are ordered newest first.
func GroupHistoryByDay(entries []models.ChatHistoryEntry, now time.Time) []HistoryGroup {
	today := dayStart(now)
	yesterday := today.AddDate(0, 0, -1)

	type bucket struct {
		day   time.Time
		group HistoryGroup
	}
	buckets := map[string]*bucket{}

	for _, e := range entries {
		day := dayStart(e.Time())
		label := dayLabel(day, today, yesterday)
		b, ok := buckets[label]
		if !ok {
			b = &bucket{day: day, group: HistoryGroup{Label: label}}
			buckets[label] = b
		}
		b.group.Entries = append(b.group.Entries, e)
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		sort.SliceStable(b.group.Entries, func(i, j int) bool {
			return b.group.Entries[i].Time().After(b.group.Entries[j].Time())
		})
		ordered = append(ordered, b)
	}
	rank := func(label string) int {
		switch label {
		case "Today":
			return 0
		case "Yesterday":
			return 1
		}
		return 2
	}
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := rank(ordered[i].group.Label), rank(ordered[j].group.Label)
		if ri != rj {
			return ri < rj
		}
		return ordered[i].day.After(ordered[j].day)
	})

	groups := make([]HistoryGroup, 0, len(ordered))
	for _, b := range ordered {
		groups = append(groups, b.group)
	}
	return groups
}

// FormatTime renders a history timestamp relative to now, e.g. "Today at 03:04:05 PM"
func FormatTime(timestamp string, now time.Time) string {
	t, err := time.Parse(models.HistoryTimeLayout, timestamp)
	if err != nil {
		return timestamp
	}
	today := dayStart(now)
	label := dayLabel(dayStart(t), today, today.AddDate(0, 0, -1))
	return label + " at " + t.Format("03:04:05 PM")
}

func dayLabel(day, today, yesterday time.Time) string {
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(yesterday):
		return "Yesterday"
	default:
		return day.Format(olderDateLayout)
	}
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
