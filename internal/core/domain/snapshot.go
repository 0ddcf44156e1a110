package domain

import "time"

// DateFormat is the canonical key format for snapshot dates.
const DateFormat = "2006-01-02"

// Counts maps a category to its observed product count.
type Counts map[Category]int

// Total sums all category counts.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Equal reports whether two count maps hold the same values.
func (c Counts) Equal(other Counts) bool {
	if len(c) != len(other) {
		return false
	}
	for cat, n := range c {
		if other[cat] != n {
			return false
		}
	}
	return true
}

// Clone returns a copy of the count map.
func (c Counts) Clone() Counts {
	out := make(Counts, len(c))
	for cat, n := range c {
		out[cat] = n
	}
	return out
}

// Snapshot is one day's category counts for a store.
// There is at most one snapshot per (store, date); re-runs on the same
// day overwrite counts rather than appending.
type Snapshot struct {
	StoreID StoreID   `json:"store_id"`
	Date    string    `json:"date"` // DateFormat
	Counts  Counts    `json:"counts"`
	TakenAt time.Time `json:"taken_at"`
}

// NewSnapshot builds a snapshot keyed to the given day (DateFormat).
func NewSnapshot(storeID StoreID, date string, counts Counts) *Snapshot {
	return &Snapshot{
		StoreID: storeID,
		Date:    date,
		Counts:  counts.Clone(),
		TakenAt: time.Now(),
	}
}

// Total is the snapshot's overall product count.
func (s *Snapshot) Total() int {
	return s.Counts.Total()
}
