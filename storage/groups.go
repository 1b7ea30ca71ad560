package storage

import (
	"time"

	"leomaster/models"
)

// Group names a listing selection.
type Group string

const (
	GroupTopic     Group = "topic"      // upcoming, latest date first
	GroupHalfMonth Group = "half_month" // added in the last 15 days
	GroupMonth     Group = "month"      // added in the last 31 days
	GroupAll       Group = "all"
)

const (
	halfMonth = 15 * 24 * time.Hour
	month     = 31 * 24 * time.Hour
)

// Groups lists the groups the gallery pages are served for.
var Groups = []Group{GroupTopic, GroupHalfMonth, GroupMonth, GroupAll}

// Named reports whether g is one of Groups. Other values still select
// every masterclass, ordered by id.
func (g Group) Named() bool {
	for _, n := range Groups {
		if g == n {
			return true
		}
	}
	return false
}

// Match reports whether mc belongs to g at time now.
func (g Group) Match(mc models.Masterclass, now time.Time) bool {
	switch g {
	case GroupTopic:
		return !mc.Date.IsZero() && !mc.Date.Before(now)
	case GroupHalfMonth:
		return !mc.CreationTS.Before(now.Add(-halfMonth))
	case GroupMonth:
		return !mc.CreationTS.Before(now.Add(-month))
	default:
		return true
	}
}

// Less orders two members of g.
func (g Group) Less(a, b models.Masterclass) bool {
	switch g {
	case GroupTopic, GroupAll:
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
	case GroupHalfMonth, GroupMonth:
		if !a.CreationTS.Equal(b.CreationTS) {
			return a.CreationTS.After(b.CreationTS)
		}
	}
	return a.ID < b.ID
}

// clause returns the SQL filter (with its single argument, if any) and
// ordering for g. Column names refer to the masterclasses table as "mc".
func (g Group) clause(now time.Time) (where string, args []any, order string) {
	switch g {
	case GroupTopic:
		return "WHERE mc.date >= $1", []any{now}, "ORDER BY mc.date DESC, mc.id"
	case GroupHalfMonth:
		return "WHERE mc.creation_ts >= $1", []any{now.Add(-halfMonth)}, "ORDER BY mc.creation_ts DESC, mc.id"
	case GroupMonth:
		return "WHERE mc.creation_ts >= $1", []any{now.Add(-month)}, "ORDER BY mc.creation_ts DESC, mc.id"
	case GroupAll:
		return "", nil, "ORDER BY mc.date DESC NULLS LAST, mc.id"
	default:
		return "", nil, "ORDER BY mc.id"
	}
}
