package kryptos

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NftCollection is reference data about a collection of NFTs. It is shared by
// every Asset of the collection, looked up by ID and never mutated.
//
// Its wire keys are snake_case.
type NftCollection struct {
	ID              string   // collection_id
	Name            string   // name
	Category        *string  // nullable
	Chains          []string // networks where the collection is deployed
	Description     *string  // nullable
	ImageURL        *string  // image_url, nullable
	MarketplaceURLs []string // marketplace_collection_url
	TotalQuantity   Quantity // total_quantity, the supply
}

// Asset identifies a fungible token, a fiat unit or an NFT.
type Asset struct {
	TokenID         string // unique identifier within the system
	Symbol          string // ticker, e.g. ETH
	PublicName      string // display name, e.g. Ethereum
	ChainID         string // network, e.g. polygon
	ContractAddress string
	LogoURL         string
	Standard        string // ERC-20, BEP-20, ERC-721...
	ExplorerURL     string
	Category        string // stablecoin, governance, collectible...
	Type            AssetType
	ProviderID      map[string]string // provider name -> provider's own id

	// NFT only.
	InnerID    string
	Collection *NftCollection
}

// IsNFT reports whether a is an NFT.
func (a Asset) IsNFT() bool { return a.Type == AssetNFT }

// Key returns a stable identity for grouping: the token id, or the chain and
// contract (plus inner id for NFTs) when the token id is empty.
func (a Asset) Key() string {
	if a.TokenID != "" {
		return a.TokenID
	}
	return strings.Join([]string{a.ChainID, strings.ToLower(a.ContractAddress), a.InnerID}, ":")
}

func (c NftCollection) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("collection_id", c.ID)
	w.Append("name", c.Name)
	w.Append("category", c.Category)
	w.Array("chains", c.Chains)
	w.Append("description", c.Description)
	w.Append("image_url", c.ImageURL)
	w.Array("marketplace_collection_url", c.MarketplaceURLs)
	w.Append("total_quantity", c.TotalQuantity)
	return w.MarshalJSON()
}

func (c *NftCollection) UnmarshalJSON(data []byte) (err error) {
	*c, err = decodeWith(data, decodeNftCollection)
	return err
}

func decodeNftCollection(f *fields) NftCollection {
	return NftCollection{
		ID:              f.String("collection_id"),
		Name:            f.String("name"),
		Category:        f.NullString("category"),
		Chains:          f.Strings("chains", true),
		Description:     optionalNullString(f, "description"),
		ImageURL:        f.NullString("image_url"),
		MarketplaceURLs: f.Strings("marketplace_collection_url", true),
		TotalQuantity:   f.Quantity("total_quantity"),
	}
}

// optionalNullString reads a nullable string that older payloads omit.
func optionalNullString(f *fields, key string) *string {
	if _, present := f.raw[key]; !present {
		return nil
	}
	return f.NullString(key)
}

// Validate checks c and returns every problem found.
func (c NftCollection) Validate() error {
	r := newReport()
	c.check(r)
	return r.err()
}

func (c NftCollection) check(r report) {
	if c.ID == "" {
		r.missing("collection_id")
	}
	if c.Name == "" {
		r.missing("name")
	}
	if c.TotalQuantity.IsNegative() {
		r.violationAt("total_quantity", "NegativeSupply", "total supply is %s", c.TotalQuantity)
	}
}

func (a Asset) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("tokenId", a.TokenID)
	w.Append("symbol", a.Symbol)
	w.Append("publicName", a.PublicName)
	w.Append("chainId", a.ChainID)
	w.Optional("contractAddress", a.ContractAddress)
	w.Append("logoUrl", a.LogoURL)
	w.Append("standard", a.Standard)
	w.Append("explorerUrl", a.ExplorerURL)
	w.Append("category", a.Category)
	w.Append("type", a.Type)
	w.Append("providerId", nonNilMap(a.ProviderID))
	w.Optional("innerId", a.InnerID)
	w.Optional("collection", a.Collection)
	return w.MarshalJSON()
}

func (a *Asset) UnmarshalJSON(data []byte) (err error) {
	*a, err = decodeWith(data, decodeAsset)
	return err
}

func decodeAsset(f *fields) Asset {
	return Asset{
		TokenID:         f.String("tokenId"),
		Symbol:          f.String("symbol"),
		PublicName:      f.String("publicName"),
		ChainID:         f.String("chainId"),
		ContractAddress: f.OptString("contractAddress"),
		LogoURL:         f.String("logoUrl"),
		Standard:        f.String("standard"),
		ExplorerURL:     f.String("explorerUrl"),
		Category:        f.String("category"),
		Type:            enumField[AssetType](f, "type", true),
		ProviderID:      f.StringMap("providerId", true),
		InnerID:         f.OptString("innerId"),
		Collection:      optObject(f, "collection", decodeNftCollection),
	}
}

// Validate checks a and returns every problem found.
func (a Asset) Validate() error {
	r := newReport()
	a.check(r)
	return r.err()
}

func (a Asset) check(r report) {
	if a.TokenID == "" {
		r.missing("tokenId")
	}
	if a.Symbol == "" {
		r.missing("symbol")
	}
	checkEnum(r, "type", a.Type)

	switch a.Type {
	case AssetNFT:
		if a.Collection == nil {
			r.violationAt("collection", "NftRequiresCollection", "an nft asset must reference its collection")
		} else {
			a.Collection.check(r.at("collection"))
		}
		if a.InnerID == "" {
			r.violationAt("innerId", "NftRequiresInnerId", "an nft asset must carry its token id within the contract")
		}
	case AssetFiat:
		if a.ContractAddress != "" || a.InnerID != "" || a.Collection != nil {
			r.violation("FiatHasChainFields", "a fiat asset has no contract address, inner id or collection")
		}
	default:
		if a.InnerID != "" || a.Collection != nil {
			r.violation("NftFieldsOnNonNft", "innerId and collection are reserved to nft assets")
		}
	}
	checkAddress(r, "contractAddress", a.ContractAddress)
}

// checkAddress verifies that an EVM looking address (0x prefix) is a valid
// 20-byte hex address. Other chains' address formats are left alone.
func checkAddress(r report, key, address string) {
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return
	}
	if !common.IsHexAddress(address) {
		r.violationAt(key, "InvalidContractAddress", "%q is not a 20-byte hex address", address)
	}
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
