package domain

import (
	"context"
	"fmt"
)

// Tag is an interest keyword attached to accounts and studies.
// swagger:model Tag
type Tag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Zone is a geographic area attached to accounts and studies.
// swagger:model Zone
type Zone struct {
	ID              string `json:"id"`
	City            string `json:"city"`
	LocalNameOfCity string `json:"local_name_of_city"`
	Province        string `json:"province"`
}

// String renders the zone as city(localNameOfCity)/province.
func (z Zone) String() string {
	return fmt.Sprintf("%s(%s)/%s", z.City, z.LocalNameOfCity, z.Province)
}

// TagIDs returns the ids of tags in order.
func TagIDs(tags []Tag) []string {
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// ZoneIDs returns the ids of zones in order.
func ZoneIDs(zones []Zone) []string {
	ids := make([]string, 0, len(zones))
	for _, z := range zones {
		ids = append(ids, z.ID)
	}
	return ids
}

// TagRepository stores the tag and zone vocabularies and account interests in them.
type TagRepository interface {
	// EnsureTag returns the tag titled title, creating it if needed.
	EnsureTag(ctx context.Context, title string) (*Tag, error)
	ListTags(ctx context.Context) ([]Tag, error)
	ListZones(ctx context.Context) ([]Zone, error)
	// AddAccountTag and AddAccountZone are idempotent; unknown ids give ErrNotFound.
	AddAccountTag(ctx context.Context, accountID, tagID string) error
	RemoveAccountTag(ctx context.Context, accountID, tagID string) error
	AddAccountZone(ctx context.Context, accountID, zoneID string) error
	RemoveAccountZone(ctx context.Context, accountID, zoneID string) error
}
