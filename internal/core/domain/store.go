package domain

type StoreID string

// FetchMode controls which products are pulled from the Admin API.
type FetchMode string

const (
	// FetchByDate fetches products created on the target date.
	FetchByDate FetchMode = "by_date"
	// FetchActiveOnly fetches every active product regardless of date.
	FetchActiveOnly FetchMode = "active_only"
	// FetchActiveByDate fetches active products created on the target date.
	FetchActiveByDate FetchMode = "active_by_date"
)

// ParseFetchMode normalizes a config value to a FetchMode.
// Unknown values fall back to FetchByDate, matching the tracker default.
func ParseFetchMode(s string) FetchMode {
	switch FetchMode(s) {
	case FetchActiveOnly:
		return FetchActiveOnly
	case FetchActiveByDate:
		return FetchActiveByDate
	default:
		return FetchByDate
	}
}

// IncludesInactive reports whether the mode also returns non-active products.
func (m FetchMode) IncludesInactive() bool {
	return m == FetchByDate
}

// Store identifies one curated shop being paced.
type Store struct {
	ID     StoreID
	Name   string
	Domain string // e.g. "vaama-jewels.myshopify.com"
}
