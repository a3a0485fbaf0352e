// Package tracker is the issue-tracker client: it creates items, discovers the
// relationship vocabulary, links items and lists a project's items.
package tracker

import "context"

// ItemCreator creates top-level and child items.
type ItemCreator interface {
	CreateItem(ctx context.Context, req CreateRequest) (Item, error)
}

// LinkManager discovers relationship types and records relationships.
type LinkManager interface {
	// ListLinkTypes returns the relationship vocabulary in tracker order.
	ListLinkTypes(ctx context.Context) ([]LinkType, error)

	// CreateLink records a typeName relationship from outwardKey to inwardKey.
	CreateLink(ctx context.Context, outwardKey, inwardKey, typeName string) error
}

// ItemLister lists items of a project.
type ItemLister interface {
	ListItems(ctx context.Context, projectKey string, exclude []string) ([]Item, error)
}

// Tracker composes the focused tracker interfaces.
type Tracker interface {
	ItemCreator
	LinkManager
	ItemLister
}

// Compile-time interface verification.
var (
	_ Tracker     = (*Client)(nil)
	_ ItemCreator = (*Client)(nil)
	_ LinkManager = (*Client)(nil)
	_ ItemLister  = (*Client)(nil)
)
