package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/etnz/kryptos"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func punk(inner string) kryptos.Asset {
	return kryptos.Asset{
		TokenID:         "punks-" + inner,
		Symbol:          "PUNK",
		PublicName:      "CryptoPunk #" + inner,
		ChainID:         "ethereum",
		ContractAddress: "0xb47e3cd837dDF8e4c57F05d70Ab865de6e193BBB",
		Standard:        "ERC-721",
		Category:        "collectible",
		Type:            kryptos.AssetNFT,
		ProviderID:      map[string]string{},
		InnerID:         inner,
		Collection: &kryptos.NftCollection{
			ID:            "punks",
			Name:          "CryptoPunks",
			Chains:        []string{"ethereum"},
			TotalQuantity: kryptos.Q(10000),
		},
	}
}

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s, err := NewRedis(context.Background(), client)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestMemory_InternsCollections(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	a := m.PutAsset(punk("1"))
	b := m.PutAsset(punk("2"))
	assert.Same(t, a.Collection, b.Collection, "assets of a collection must share it")

	got, err := m.Asset(ctx, "punks-2")
	require.NoError(t, err)
	assert.Same(t, a.Collection, got.Collection)

	c, err := m.Collection(ctx, "punks")
	require.NoError(t, err)
	assert.Same(t, a.Collection, c)
	assert.Equal(t, 3, m.Len())
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Asset(ctx, "nope")
	assert.ErrorIs(t, err, kryptos.ErrNotFound)
	_, err = m.Collection(ctx, "nope")
	assert.ErrorIs(t, err, kryptos.ErrNotFound)
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := setupRedis(t)

	require.NoError(t, s.PutAsset(ctx, punk("7")))
	assert.True(t, mr.Exists("kryptos:asset:punks-7"))
	assert.True(t, mr.Exists("kryptos:collection:punks"))

	got, err := s.Asset(ctx, "punks-7")
	require.NoError(t, err)
	assert.Equal(t, "7", got.InnerID)
	assert.Equal(t, kryptos.AssetNFT, got.Type)
	require.NotNil(t, got.Collection)
	assert.Equal(t, "CryptoPunks", got.Collection.Name)
	assert.True(t, got.Collection.TotalQuantity.Equal(kryptos.Q(10000)))
}

func TestRedis_CollectionIsReferenceData(t *testing.T) {
	ctx := context.Background()
	s, _ := setupRedis(t)

	require.NoError(t, s.PutCollection(ctx, kryptos.NftCollection{ID: "punks", Name: "Larva Labs Punks", Chains: []string{"ethereum"}}))

	// An asset carrying an older snapshot does not overwrite the stored collection.
	require.NoError(t, s.PutAsset(ctx, punk("3")))

	got, err := s.Asset(ctx, "punks-3")
	require.NoError(t, err)
	require.NotNil(t, got.Collection)
	assert.Equal(t, "Larva Labs Punks", got.Collection.Name)
}

func TestRedis_NotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := setupRedis(t)

	_, err := s.Asset(ctx, "nope")
	assert.ErrorIs(t, err, kryptos.ErrNotFound)
	_, err = s.Collection(ctx, "nope")
	assert.ErrorIs(t, err, kryptos.ErrNotFound)
}

func TestRedis_InvalidValue(t *testing.T) {
	ctx := context.Background()
	s, mr := setupRedis(t)

	require.NoError(t, mr.Set("kryptos:collection:broken", `{"name": "no id"}`))
	_, err := s.Collection(ctx, "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, kryptos.ErrNotFound)
	assert.True(t, kryptos.HasProblem(err, kryptos.MissingField, "collection_id"))
}

func TestResolveCollections(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	shared := m.PutCollection(kryptos.NftCollection{ID: "punks", Name: "CryptoPunks"})

	orphan := punk("9")
	orphan.Collection = &kryptos.NftCollection{ID: "unknown", Name: "Unknown"}
	assets := []kryptos.Asset{punk("1"), punk("2"), orphan, {TokenID: "eth", Symbol: "ETH", Type: kryptos.AssetCrypto}}

	got, err := kryptos.ResolveCollections(ctx, assets, m)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Same(t, shared, got[0].Collection)
	assert.Same(t, shared, got[1].Collection)
	assert.Same(t, orphan.Collection, got[2].Collection, "unknown collections keep their snapshot")
	assert.Nil(t, got[3].Collection)
	assert.NotSame(t, shared, assets[0].Collection, "input must not be modified")
}

func TestResolveAssets(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.PutAsset(punk("1"))

	got, err := kryptos.ResolveAssets(ctx, []string{"punks-1"}, m)
	require.NoError(t, err)
	assert.Equal(t, "1", got[0].InnerID)

	_, err = kryptos.ResolveAssets(ctx, []string{"punks-1", "punks-2"}, m)
	assert.ErrorIs(t, err, kryptos.ErrNotFound)
}
