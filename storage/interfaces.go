package storage

import (
	"context"
	"errors"
	"time"

	"leomaster/models"
)

// ErrPageOutOfRange is returned by List for a page past the last one.
var ErrPageOutOfRange = errors.New("invalid page")

// Query selects one page of a group.
type Query struct {
	Group    Group
	Page     int // 1-based
	PageSize int
	Now      time.Time
}

// Result is one page of masterclasses plus the group's total count.
type Result struct {
	Count int
	Items []models.Masterclass
}

// Store defines the interface for masterclass persistence
type Store interface {
	List(ctx context.Context, q Query) (Result, error)
	Upsert(ctx context.Context, items []models.Masterclass) (int, error)
	Close() error
}

// Exporter writes a full set of masterclasses to a file.
type Exporter interface {
	Write(items []models.Masterclass) error
}

// HasNext reports whether a page follows q's page.
func (r Result) HasNext(q Query) bool {
	return q.Page*q.PageSize < r.Count
}

// offset validates q against the group size and returns the row offset.
// Page 1 is always valid, even for an empty group.
func offset(q Query, count int) (int, error) {
	if q.Page < 1 || q.PageSize < 1 {
		return 0, ErrPageOutOfRange
	}
	off := (q.Page - 1) * q.PageSize
	if q.Page > 1 && off >= count {
		return 0, ErrPageOutOfRange
	}
	return off, nil
}
