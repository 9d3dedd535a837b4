package kryptos

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Store when an id is unknown.
var ErrNotFound = errors.New("not found")

// Store gives access to the reference data entities refer to by id: assets
// and NFT collections. See package store for implementations.
type Store interface {
	Asset(ctx context.Context, id string) (Asset, error)
	Collection(ctx context.Context, id string) (*NftCollection, error)
}

// ResolveCollections returns a copy of assets where every embedded collection
// snapshot is replaced by the collection the store holds for the same id.
// Assets sharing a collection then share the same pointer. Collections unknown
// to the store keep their snapshot.
func ResolveCollections(ctx context.Context, assets []Asset, s Store) ([]Asset, error) {
	resolved := make([]Asset, len(assets))
	for i, a := range assets {
		resolved[i] = a
		if a.Collection == nil || a.Collection.ID == "" {
			continue
		}
		c, err := s.Collection(ctx, a.Collection.ID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("cannot resolve collection %q of asset %s: %w", a.Collection.ID, a.Key(), err)
		default:
			resolved[i].Collection = c
		}
	}
	return resolved, nil
}

// ResolveAssets looks up each id in the store, in order.
func ResolveAssets(ctx context.Context, ids []string, s Store) ([]Asset, error) {
	assets := make([]Asset, 0, len(ids))
	for _, id := range ids {
		a, err := s.Asset(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve asset %q: %w", id, err)
		}
		assets = append(assets, a)
	}
	return assets, nil
}
