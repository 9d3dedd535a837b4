package kryptos

import (
	"strings"

	"github.com/samber/lo"
)

// SocialLink is a social media profile of a collection.
type SocialLink struct {
	Platform string
	URL      string
}

// Collection is the detailed, marketplace level view of an NFT collection,
// as attached to an NFTBalance. Nullable wire values are pointers.
type Collection struct {
	BannerImageURL  *string // banner_image_url
	Category        *string
	Chains          []string
	CollectionID    string
	Description     *string
	DiscordURL      *string
	OwnerCount      int64
	ExternalURL     *string
	FloorPrice      []PriceModel // one per marketplace
	ImageURL        *string
	MarketplaceURLs []string
	Name            string
	TopBids         []PriceModel
	TotalQuantity   Quantity
	SocialLinks     []SocialLink
}

// LastSale is the last observed sale of an NFT. Every field may be unknown.
type LastSale struct {
	FromAddress     *string
	ToAddress       *string
	Quantity        *Quantity
	QuantityString  *string
	Timestamp       *string
	TransactionHash *string
	MarketplaceID   *string
	MarketplaceName *string
	IsBundleSale    *bool
	PaymentToken    *Asset
	TotalPrice      *PriceModel
}

// NFTBalance is one NFT owned by an account. Amount is above one for ERC-1155
// semi-fungible tokens.
type NFTBalance struct {
	ID              string
	ContractAddress string
	TokenID         string
	Name            string
	Description     string
	ContentType     string
	NftURL          string
	ThumbnailURL    string
	AudioURL        string
	VideoURL        string
	Source          AccountType
	ErcType         string // ERC721, ERC1155
	Amount          Quantity
	Price           PriceModel
	IsNftSpam       bool // a hint, see FilterSpam
	Collection      Collection
	LastSale        *LastSale // nullable
	LastSaleNull    bool      // lastSale was an explicit null
}

// FilterSpam returns the balances keep accepts. keep receives every balance,
// spam flagged or not, so that the decision stays with the caller.
func FilterSpam(balances []NFTBalance, keep func(NFTBalance) bool) []NFTBalance {
	return lo.Filter(balances, func(b NFTBalance, _ int) bool { return keep(b) })
}

// NotSpam is a FilterSpam decision trusting the spam hint.
func NotSpam(b NFTBalance) bool { return !b.IsNftSpam }

func (l SocialLink) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("platform", l.Platform)
	w.Append("url", l.URL)
	return w.MarshalJSON()
}

func (l *SocialLink) UnmarshalJSON(data []byte) (err error) {
	*l, err = decodeWith(data, decodeSocialLink)
	return err
}

func decodeSocialLink(f *fields) SocialLink {
	return SocialLink{Platform: f.String("platform"), URL: f.String("url")}
}

func (c Collection) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("banner_image_url", c.BannerImageURL)
	w.Append("category", c.Category)
	w.Array("chains", c.Chains)
	w.Append("collectionId", c.CollectionID)
	w.Append("description", c.Description)
	w.Append("discordUrl", c.DiscordURL)
	w.Append("ownerCount", c.OwnerCount)
	w.Append("externalUrl", c.ExternalURL)
	w.Array("floorPrice", c.FloorPrice)
	w.Append("imageUrl", c.ImageURL)
	w.Array("marketplaceUrls", c.MarketplaceURLs)
	w.Append("name", c.Name)
	w.Optional("topBids", c.TopBids)
	w.Append("totalQuantity", c.TotalQuantity)
	w.Array("socialLinks", c.SocialLinks)
	return w.MarshalJSON()
}

func (c *Collection) UnmarshalJSON(data []byte) (err error) {
	*c, err = decodeWith(data, decodeCollection)
	return err
}

func decodeCollection(f *fields) Collection {
	return Collection{
		BannerImageURL:  f.NullString("banner_image_url"),
		Category:        f.NullString("category"),
		Chains:          f.Strings("chains", true),
		CollectionID:    f.String("collectionId"),
		Description:     f.NullString("description"),
		DiscordURL:      f.NullString("discordUrl"),
		OwnerCount:      f.Int("ownerCount"),
		ExternalURL:     f.NullString("externalUrl"),
		FloorPrice:      objectList(f, "floorPrice", true, decodePrice),
		ImageURL:        f.NullString("imageUrl"),
		MarketplaceURLs: f.Strings("marketplaceUrls", true),
		Name:            f.String("name"),
		TopBids:         objectList(f, "topBids", false, decodePrice),
		TotalQuantity:   f.Quantity("totalQuantity"),
		SocialLinks:     objectList(f, "socialLinks", true, decodeSocialLink),
	}
}

func (c Collection) check(r report) {
	if c.CollectionID == "" {
		r.missing("collectionId")
	}
	if c.Name == "" {
		r.missing("name")
	}
	if c.OwnerCount < 0 {
		r.violationAt("ownerCount", "NegativeOwnerCount", "owner count is %d", c.OwnerCount)
	}
	if c.TotalQuantity.IsNegative() {
		r.violationAt("totalQuantity", "NegativeSupply", "total supply is %s", c.TotalQuantity)
	}
	for i, p := range c.FloorPrice {
		p.check(r.at("floorPrice").index(i))
	}
	for i, p := range c.TopBids {
		p.check(r.at("topBids").index(i))
	}
}

// Snapshot returns the reference data part of c, as embedded in an Asset.
func (c Collection) Snapshot() NftCollection {
	return NftCollection{
		ID:              c.CollectionID,
		Name:            c.Name,
		Category:        c.Category,
		Chains:          c.Chains,
		Description:     c.Description,
		ImageURL:        c.ImageURL,
		MarketplaceURLs: c.MarketplaceURLs,
		TotalQuantity:   c.TotalQuantity,
	}
}

func (s LastSale) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("fromAddress", s.FromAddress)
	w.Append("toAddress", s.ToAddress)
	w.Append("quantity", s.Quantity)
	w.Append("quantityString", s.QuantityString)
	w.Append("timestamp", s.Timestamp)
	w.Append("transactionHash", s.TransactionHash)
	w.Append("marketplaceId", s.MarketplaceID)
	w.Append("marketplaceName", s.MarketplaceName)
	w.Append("isBundleSale", s.IsBundleSale)
	w.Optional("paymentToken", s.PaymentToken)
	w.Append("totalPrice", s.TotalPrice)
	return w.MarshalJSON()
}

func (s *LastSale) UnmarshalJSON(data []byte) (err error) {
	*s, err = decodeWith(data, decodeLastSale)
	return err
}

func decodeLastSale(f *fields) LastSale {
	return LastSale{
		FromAddress:     f.NullString("fromAddress"),
		ToAddress:       f.NullString("toAddress"),
		Quantity:        f.NullQuantity("quantity"),
		QuantityString:  f.NullString("quantityString"),
		Timestamp:       f.NullString("timestamp"),
		TransactionHash: f.NullString("transactionHash"),
		MarketplaceID:   f.NullString("marketplaceId"),
		MarketplaceName: f.NullString("marketplaceName"),
		IsBundleSale:    f.NullBool("isBundleSale"),
		PaymentToken:    optObject(f, "paymentToken", decodeAsset),
		TotalPrice:      nullObject(f, "totalPrice", decodePrice),
	}
}

func (s LastSale) check(r report) {
	if s.QuantityString != nil {
		q, err := ParseQuantity(*s.QuantityString)
		switch {
		case err != nil:
			r.add(&Problem{Kind: InvalidNumericString, Path: joinPath(r.path, "quantityString"), Name: *s.QuantityString, Detail: "not a decimal number"})
		case s.Quantity != nil && !q.Equal(*s.Quantity):
			r.violationAt("quantityString", "QuantityStringMismatch", "%s differs from quantity %s", *s.QuantityString, s.Quantity)
		}
	}
	if s.PaymentToken != nil {
		s.PaymentToken.check(r.at("paymentToken"))
	}
	checkPrice(r, "totalPrice", s.TotalPrice)
	checkAddress(r, "fromAddress", lo.FromPtr(s.FromAddress))
	checkAddress(r, "toAddress", lo.FromPtr(s.ToAddress))
}

func (b NFTBalance) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", b.ID)
	w.Append("contractAddress", b.ContractAddress)
	w.Append("tokenId", b.TokenID)
	w.Append("name", b.Name)
	w.Append("description", b.Description)
	w.Append("contentType", b.ContentType)
	w.Append("nftUrl", b.NftURL)
	w.Append("thumbnailUrl", b.ThumbnailURL)
	w.Append("audioUrl", b.AudioURL)
	w.Append("videoUrl", b.VideoURL)
	w.Append("source", b.Source)
	w.Append("ercType", b.ErcType)
	w.Append("amount", b.Amount)
	w.Append("price", b.Price)
	w.Append("isNftSpam", b.IsNftSpam)
	w.Append("collection", b.Collection)
	if b.LastSale != nil || b.LastSaleNull {
		w.Append("lastSale", b.LastSale)
	}
	return w.MarshalJSON()
}

func (b *NFTBalance) UnmarshalJSON(data []byte) (err error) {
	*b, err = decodeWith(data, decodeNFTBalance)
	return err
}

func decodeNFTBalance(f *fields) NFTBalance {
	v, present := f.raw["lastSale"]
	return NFTBalance{
		ID:              f.String("id"),
		ContractAddress: f.String("contractAddress"),
		TokenID:         f.String("tokenId"),
		Name:            f.String("name"),
		Description:     f.String("description"),
		ContentType:     f.String("contentType"),
		NftURL:          f.String("nftUrl"),
		ThumbnailURL:    f.String("thumbnailUrl"),
		AudioURL:        f.String("audioUrl"),
		VideoURL:        f.String("videoUrl"),
		Source:          object(f, "source", decodeAccount),
		ErcType:         f.String("ercType"),
		Amount:          f.Quantity("amount"),
		Price:           object(f, "price", decodePrice),
		IsNftSpam:       f.Bool("isNftSpam"),
		Collection:      object(f, "collection", decodeCollection),
		LastSale:        optObject(f, "lastSale", decodeLastSale),
		LastSaleNull:    present && isNull(v),
	}
}

// Validate checks b and returns every problem found.
func (b NFTBalance) Validate() error { return validate(b.check) }

func (b NFTBalance) check(r report) {
	if b.ID == "" {
		r.missing("id")
	}
	if b.TokenID == "" {
		r.missing("tokenId")
	}
	checkAddress(r, "contractAddress", b.ContractAddress)
	b.Source.check(r.at("source"))
	b.Price.check(r.at("price"))
	b.Collection.check(r.at("collection"))
	if !b.Amount.IsPositive() {
		r.violationAt("amount", "NonPositiveAmount", "amount must be positive, got %s", b.Amount)
	}
	if isERC721(b.ErcType) && !b.Amount.Equal(Q(1)) {
		r.violationAt("amount", "ERC721AmountNotOne", "an ERC721 token is unique, amount is %s", b.Amount)
	}
	if b.LastSale != nil {
		b.LastSale.check(r.at("lastSale"))
	}
}

// isERC721 accepts ERC721 and ERC-721, in any case.
func isERC721(ercType string) bool {
	return strings.ReplaceAll(strings.ToUpper(ercType), "-", "") == "ERC721"
}
