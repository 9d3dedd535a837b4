package kryptos

import "slices"

// AssetType classifies an Asset.
type AssetType string

const (
	AssetCrypto AssetType = "crypto"
	AssetNFT    AssetType = "nft"
	AssetFiat   AssetType = "fiat"
)

// TransferType is the direction of an asset movement. It discriminates
// transfers and ledger entries alike.
type TransferType string

const (
	Incoming TransferType = "incoming"
	Outgoing TransferType = "outgoing"
	Fee      TransferType = "fee"
)

// PortfolioCategory is the kind of DeFi activity, and the discriminant of
// DefiPortfolio.
type PortfolioCategory string

const (
	CategoryLending     PortfolioCategory = "lending"     // money markets
	CategoryBorrowing   PortfolioCategory = "borrowing"   // debt positions
	CategoryStaking     PortfolioCategory = "staking"     // proof-of-stake, liquid staking
	CategoryFarming     PortfolioCategory = "farming"     // liquidity mining
	CategoryTrading     PortfolioCategory = "trading"     // DEX and AMM positions
	CategoryDerivatives PortfolioCategory = "derivatives" // options, futures, perpetuals
	CategoryInsurance   PortfolioCategory = "insurance"
	CategoryGovernance  PortfolioCategory = "governance"
	CategoryVesting     PortfolioCategory = "vesting"
	CategoryOther       PortfolioCategory = "other"
)

// DerivativeType is the instrument of a DerivativePosition.
type DerivativeType string

const (
	DerivativeOption    DerivativeType = "option"
	DerivativeFuture    DerivativeType = "future"
	DerivativePerpetual DerivativeType = "perpetual"
	DerivativeSwap      DerivativeType = "swap"
)

// Side is the direction of a derivative position.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// OptionType is the right an option gives.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// InsuranceRole tells whether the owner buys or sells coverage.
type InsuranceRole string

const (
	Buyer  InsuranceRole = "buyer"
	Seller InsuranceRole = "seller"
)

// ImportSource is where a transaction was imported from.
type ImportSource string

const (
	ImportAPI    ImportSource = "API"
	ImportCSV    ImportSource = "CSV"
	ImportManual ImportSource = "Manual"
)

var (
	assetTypes          = []AssetType{AssetCrypto, AssetNFT, AssetFiat}
	transferTypes       = []TransferType{Incoming, Outgoing, Fee}
	portfolioCategories = []PortfolioCategory{CategoryLending, CategoryBorrowing, CategoryStaking, CategoryFarming, CategoryTrading, CategoryDerivatives, CategoryInsurance, CategoryGovernance, CategoryVesting, CategoryOther}
	derivativeTypes     = []DerivativeType{DerivativeOption, DerivativeFuture, DerivativePerpetual, DerivativeSwap}
	sides               = []Side{Long, Short}
	optionTypes         = []OptionType{Call, Put}
	insuranceRoles      = []InsuranceRole{Buyer, Seller}
	importSources       = []ImportSource{ImportAPI, ImportCSV, ImportManual}
)

func (t AssetType) Valid() bool         { return slices.Contains(assetTypes, t) }
func (t TransferType) Valid() bool      { return slices.Contains(transferTypes, t) }
func (c PortfolioCategory) Valid() bool { return slices.Contains(portfolioCategories, c) }
func (t DerivativeType) Valid() bool    { return slices.Contains(derivativeTypes, t) }
func (s Side) Valid() bool              { return slices.Contains(sides, s) }
func (o OptionType) Valid() bool        { return slices.Contains(optionTypes, o) }
func (r InsuranceRole) Valid() bool     { return slices.Contains(insuranceRoles, r) }
func (s ImportSource) Valid() bool      { return slices.Contains(importSources, s) }

// PortfolioCategories returns every category, in declaration order.
func PortfolioCategories() []PortfolioCategory { return slices.Clone(portfolioCategories) }

// enum is any of the closed string sets above.
type enum interface {
	~string
	Valid() bool
}

// checkEnum reports an UnknownVariant problem when v is set but not valid, and
// a MissingField problem when it is empty.
func checkEnum[T enum](r report, key string, v T) {
	switch {
	case v == "":
		r.missing(key)
	case !v.Valid():
		r.add(&Problem{Kind: UnknownVariant, Path: joinPath(r.path, key), Name: string(v)})
	}
}
