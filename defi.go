package kryptos

import (
	"encoding/json"
	"reflect"

	"github.com/samber/lo"
)

// TokenPosition is an amount of a token held in a protocol.
type TokenPosition struct {
	Asset           Asset
	Amount          Quantity
	Value           *PriceModel // value of the whole position
	IsCollateral    *bool
	IsReward        *bool
	UnlockTimestamp *int64
	EntryTimestamp  *int64
	LastUpdated     *int64
}

func (p TokenPosition) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("asset", p.Asset)
	w.Append("amount", p.Amount)
	w.Optional("value", p.Value)
	w.Optional("isCollateral", p.IsCollateral)
	w.Optional("isReward", p.IsReward)
	w.Optional("unlockTimestamp", p.UnlockTimestamp)
	w.Optional("entryTimestamp", p.EntryTimestamp)
	w.Optional("lastUpdated", p.LastUpdated)
	return w.MarshalJSON()
}

func (p *TokenPosition) UnmarshalJSON(data []byte) (err error) {
	*p, err = decodeWith(data, decodeTokenPosition)
	return err
}

func decodeTokenPosition(f *fields) TokenPosition {
	return TokenPosition{
		Asset:           object(f, "asset", decodeAsset),
		Amount:          f.Quantity("amount"),
		Value:           optObject(f, "value", decodePrice),
		IsCollateral:    f.OptBool("isCollateral"),
		IsReward:        f.OptBool("isReward"),
		UnlockTimestamp: f.OptInt("unlockTimestamp"),
		EntryTimestamp:  f.OptInt("entryTimestamp"),
		LastUpdated:     f.OptInt("lastUpdated"),
	}
}

func (p TokenPosition) check(r report) {
	p.Asset.check(r.at("asset"))
	checkNonNegative(r, "amount", p.Amount)
	checkPrice(r, "value", p.Value)
}

func checkPositions(r report, key string, list []TokenPosition) {
	for i, p := range list {
		p.check(r.at(key).index(i))
	}
}

// DefiPortfolio is the category specific content of a DefiHolding. It is one
// of CommonPortfolio, LendingPortfolio, StakingPortfolio, FarmingPortfolio,
// DerivativesPortfolio, InsurancePortfolio or VestingPortfolio.
type DefiPortfolio interface {
	json.Marshaler
	Category() PortfolioCategory
	Validate() error

	check(r report)
}

// PortfolioBase holds the fields every portfolio but vesting carries.
type PortfolioBase struct {
	RewardPositions []TokenPosition
	APY             *float64
	Metadata        json.RawMessage // protocol specific object
}

func (b PortfolioBase) write(w *jsonObjectWriter) {
	w.Optional("rewardPositions", b.RewardPositions)
	w.Optional("apy", b.APY)
	if len(b.Metadata) > 0 {
		w.Append("metadata", b.Metadata)
	}
}

func decodeBase(f *fields) PortfolioBase {
	return PortfolioBase{
		RewardPositions: objectList(f, "rewardPositions", false, decodeTokenPosition),
		APY:             f.OptFloat("apy"),
		Metadata:        f.Raw("metadata"),
	}
}

func (b PortfolioBase) check(r report) {
	checkPositions(r, "rewardPositions", b.RewardPositions)
}

// CommonPortfolio is a portfolio of the other, governance or trading
// categories.
type CommonPortfolio struct {
	Kind PortfolioCategory
	PortfolioBase
	Positions []TokenPosition
}

// LendingPortfolio is a portfolio of the lending or borrowing categories.
type LendingPortfolio struct {
	Kind PortfolioCategory
	PortfolioBase
	SuppliedPositions []TokenPosition
	BorrowedPositions []TokenPosition
	HealthFactor      *float64
	SupplyAPY         *float64
	BorrowAPY         *float64
}

// StakingPortfolio holds staked tokens.
type StakingPortfolio struct {
	PortfolioBase
	StakedPositions  []TokenPosition
	StakingAPY       *float64
	ValidatorAddress string
	ValidatorName    string
	UnlockTimestamp  *int64
	UnbondingPeriod  *int64 // seconds
}

// FarmingPortfolio holds liquidity pool tokens.
type FarmingPortfolio struct {
	PortfolioBase
	LPTokenPositions []TokenPosition
	FarmAPY          *float64
	PoolShare        *Percent
	PoolTokens       []Asset
}

// DerivativesPortfolio holds derivative positions and their collateral.
type DerivativesPortfolio struct {
	PortfolioBase
	DerivativePositions []DerivativePosition
	CollateralPositions []TokenPosition
}

// InsurancePortfolio is coverage bought or sold.
type InsurancePortfolio struct {
	PortfolioBase
	Positions              []TokenPosition
	Role                   InsuranceRole // "type" on the wire
	CoverageAmount         float64
	Premium                float64
	CoveredProtocol        string
	CoverageType           string
	CoverageStartTimestamp int64
	CoverageEndTimestamp   int64
	Claimable              bool
	ClaimAmount            *float64
}

var (
	commonCategories  = []PortfolioCategory{CategoryOther, CategoryGovernance, CategoryTrading}
	lendingCategories = []PortfolioCategory{CategoryLending, CategoryBorrowing}
)

func (p CommonPortfolio) Category() PortfolioCategory    { return p.Kind }
func (p LendingPortfolio) Category() PortfolioCategory   { return p.Kind }
func (StakingPortfolio) Category() PortfolioCategory     { return CategoryStaking }
func (FarmingPortfolio) Category() PortfolioCategory     { return CategoryFarming }
func (DerivativesPortfolio) Category() PortfolioCategory { return CategoryDerivatives }
func (InsurancePortfolio) Category() PortfolioCategory   { return CategoryInsurance }

func (p CommonPortfolio) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("category", p.Kind)
	w.Array("positions", p.Positions)
	p.PortfolioBase.write(&w)
	return w.MarshalJSON()
}

func (p LendingPortfolio) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("category", p.Kind)
	w.Array("suppliedPositions", p.SuppliedPositions)
	w.Array("borrowedPositions", p.BorrowedPositions)
	w.Optional("healthFactor", p.HealthFactor)
	w.Optional("supplyApy", p.SupplyAPY)
	w.Optional("borrowApy", p.BorrowAPY)
	p.PortfolioBase.write(&w)
	return w.MarshalJSON()
}

func (p StakingPortfolio) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("category", CategoryStaking)
	w.Array("stakedPositions", p.StakedPositions)
	w.Optional("stakingApy", p.StakingAPY)
	w.Optional("validatorAddress", p.ValidatorAddress)
	w.Optional("validatorName", p.ValidatorName)
	w.Optional("unlockTimestamp", p.UnlockTimestamp)
	w.Optional("unbondingPeriod", p.UnbondingPeriod)
	p.PortfolioBase.write(&w)
	return w.MarshalJSON()
}

func (p FarmingPortfolio) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("category", CategoryFarming)
	w.Array("lpTokenPositions", p.LPTokenPositions)
	w.Optional("farmApy", p.FarmAPY)
	w.Optional("poolShare", p.PoolShare)
	w.Array("poolTokens", p.PoolTokens)
	p.PortfolioBase.write(&w)
	return w.MarshalJSON()
}

func (p DerivativesPortfolio) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("category", CategoryDerivatives)
	w.Array("derivativePositions", p.DerivativePositions)
	w.Array("collateralPositions", p.CollateralPositions)
	p.PortfolioBase.write(&w)
	return w.MarshalJSON()
}

func (p InsurancePortfolio) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("category", CategoryInsurance)
	w.Array("positions", p.Positions)
	w.Append("type", p.Role)
	w.Append("coverageAmount", p.CoverageAmount)
	w.Append("premium", p.Premium)
	w.Optional("coveredProtocol", p.CoveredProtocol)
	w.Append("coverageType", p.CoverageType)
	w.Append("coverageStartTimestamp", p.CoverageStartTimestamp)
	w.Append("coverageEndTimestamp", p.CoverageEndTimestamp)
	w.Append("claimable", p.Claimable)
	w.Optional("claimAmount", p.ClaimAmount)
	p.PortfolioBase.write(&w)
	return w.MarshalJSON()
}

// DecodePortfolio decodes a portfolio, dispatching on its category. An
// unknown category is an UnknownVariant problem, never a default.
func DecodePortfolio(data []byte) (DefiPortfolio, error) {
	return decodeWith(data, decodePortfolio)
}

func decodePortfolio(f *fields) DefiPortfolio {
	switch c := enumField[PortfolioCategory](f, "category", true); c {
	case CategoryOther, CategoryGovernance, CategoryTrading:
		return CommonPortfolio{
			Kind:          c,
			PortfolioBase: decodeBase(f),
			Positions:     objectList(f, "positions", true, decodeTokenPosition),
		}
	case CategoryLending, CategoryBorrowing:
		return LendingPortfolio{
			Kind:              c,
			PortfolioBase:     decodeBase(f),
			SuppliedPositions: objectList(f, "suppliedPositions", true, decodeTokenPosition),
			BorrowedPositions: objectList(f, "borrowedPositions", true, decodeTokenPosition),
			HealthFactor:      f.OptFloat("healthFactor"),
			SupplyAPY:         f.OptFloat("supplyApy"),
			BorrowAPY:         f.OptFloat("borrowApy"),
		}
	case CategoryStaking:
		return StakingPortfolio{
			PortfolioBase:    decodeBase(f),
			StakedPositions:  objectList(f, "stakedPositions", true, decodeTokenPosition),
			StakingAPY:       f.OptFloat("stakingApy"),
			ValidatorAddress: f.OptString("validatorAddress"),
			ValidatorName:    f.OptString("validatorName"),
			UnlockTimestamp:  f.OptInt("unlockTimestamp"),
			UnbondingPeriod:  f.OptInt("unbondingPeriod"),
		}
	case CategoryFarming:
		var share *Percent
		if x := f.OptFloat("poolShare"); x != nil {
			share = lo.ToPtr(Percent(*x))
		}
		return FarmingPortfolio{
			PortfolioBase:    decodeBase(f),
			LPTokenPositions: objectList(f, "lpTokenPositions", true, decodeTokenPosition),
			FarmAPY:          f.OptFloat("farmApy"),
			PoolShare:        share,
			PoolTokens:       objectList(f, "poolTokens", true, decodeAsset),
		}
	case CategoryDerivatives:
		return DerivativesPortfolio{
			PortfolioBase:       decodeBase(f),
			DerivativePositions: objectList(f, "derivativePositions", true, decodeDerivative),
			CollateralPositions: objectList(f, "collateralPositions", true, decodeTokenPosition),
		}
	case CategoryInsurance:
		return InsurancePortfolio{
			PortfolioBase:          decodeBase(f),
			Positions:              objectList(f, "positions", true, decodeTokenPosition),
			Role:                   enumField[InsuranceRole](f, "type", true),
			CoverageAmount:         f.Float("coverageAmount"),
			Premium:                f.Float("premium"),
			CoveredProtocol:        f.OptString("coveredProtocol"),
			CoverageType:           f.String("coverageType"),
			CoverageStartTimestamp: f.Int("coverageStartTimestamp"),
			CoverageEndTimestamp:   f.Int("coverageEndTimestamp"),
			Claimable:              f.Bool("claimable"),
			ClaimAmount:            f.OptFloat("claimAmount"),
		}
	case CategoryVesting:
		return decodeVesting(f)
	default:
		return nil
	}
}

// expectCategory reads the category of a portfolio decoded as a concrete
// type.
func expectCategory(f *fields, allowed ...PortfolioCategory) PortfolioCategory {
	c := enumField[PortfolioCategory](f, "category", true)
	if c.Valid() && !lo.Contains(allowed, c) {
		f.r.violationAt("category", "CategoryMismatch", "%q is not one of %v", c, allowed)
	}
	return c
}

func (p *CommonPortfolio) UnmarshalJSON(data []byte) (err error) {
	*p, err = decodeConcrete[CommonPortfolio](data, commonCategories...)
	return err
}

func (p *LendingPortfolio) UnmarshalJSON(data []byte) (err error) {
	*p, err = decodeConcrete[LendingPortfolio](data, lendingCategories...)
	return err
}

func (p *StakingPortfolio) UnmarshalJSON(data []byte) (err error) {
	*p, err = decodeConcrete[StakingPortfolio](data, CategoryStaking)
	return err
}

func (p *FarmingPortfolio) UnmarshalJSON(data []byte) (err error) {
	*p, err = decodeConcrete[FarmingPortfolio](data, CategoryFarming)
	return err
}

func (p *DerivativesPortfolio) UnmarshalJSON(data []byte) (err error) {
	*p, err = decodeConcrete[DerivativesPortfolio](data, CategoryDerivatives)
	return err
}

func (p *InsurancePortfolio) UnmarshalJSON(data []byte) (err error) {
	*p, err = decodeConcrete[InsurancePortfolio](data, CategoryInsurance)
	return err
}

// decodeConcrete decodes a portfolio of a known Go type. The category must be
// one of allowed.
func decodeConcrete[T DefiPortfolio](data []byte, allowed ...PortfolioCategory) (T, error) {
	return decodeWith(data, func(f *fields) T {
		var zero T
		if c := expectCategory(f, allowed...); !lo.Contains(allowed, c) {
			return zero
		}
		p, _ := decodePortfolio(f).(T)
		return p
	})
}

// Validate checks p and returns every problem found.
func (p CommonPortfolio) Validate() error      { return validate(p.check) }
func (p LendingPortfolio) Validate() error     { return validate(p.check) }
func (p StakingPortfolio) Validate() error     { return validate(p.check) }
func (p FarmingPortfolio) Validate() error     { return validate(p.check) }
func (p DerivativesPortfolio) Validate() error { return validate(p.check) }
func (p InsurancePortfolio) Validate() error   { return validate(p.check) }

// checkKind verifies a category field against the categories a type allows.
func checkKind(r report, c PortfolioCategory, allowed []PortfolioCategory) {
	checkEnum(r, "category", c)
	if c.Valid() && !lo.Contains(allowed, c) {
		r.violationAt("category", "CategoryMismatch", "%q is not one of %v", c, allowed)
	}
}

func (p CommonPortfolio) check(r report) {
	checkKind(r, p.Kind, commonCategories)
	p.PortfolioBase.check(r)
	checkPositions(r, "positions", p.Positions)
}

func (p LendingPortfolio) check(r report) {
	checkKind(r, p.Kind, lendingCategories)
	p.PortfolioBase.check(r)
	checkPositions(r, "suppliedPositions", p.SuppliedPositions)
	checkPositions(r, "borrowedPositions", p.BorrowedPositions)
	if p.HealthFactor != nil && *p.HealthFactor < 0 {
		r.violationAt("healthFactor", "NegativeHealthFactor", "health factor is %v", *p.HealthFactor)
	}
}

func (p StakingPortfolio) check(r report) {
	p.PortfolioBase.check(r)
	checkPositions(r, "stakedPositions", p.StakedPositions)
	checkAddress(r, "validatorAddress", p.ValidatorAddress)
}

func (p FarmingPortfolio) check(r report) {
	p.PortfolioBase.check(r)
	checkPositions(r, "lpTokenPositions", p.LPTokenPositions)
	for i, a := range p.PoolTokens {
		a.check(r.at("poolTokens").index(i))
	}
	if s := p.PoolShare; s != nil && (*s < 0 || *s > 100) {
		r.violationAt("poolShare", "PoolShareOutOfRange", "pool share is %s", *s)
	}
}

func (p DerivativesPortfolio) check(r report) {
	p.PortfolioBase.check(r)
	for i, d := range p.DerivativePositions {
		d.check(r.at("derivativePositions").index(i))
	}
	checkPositions(r, "collateralPositions", p.CollateralPositions)
}

func (p InsurancePortfolio) check(r report) {
	p.PortfolioBase.check(r)
	checkPositions(r, "positions", p.Positions)
	checkEnum(r, "type", p.Role)
	if p.CoverageType == "" {
		r.missing("coverageType")
	}
	if p.CoverageStartTimestamp >= p.CoverageEndTimestamp {
		r.violationAt("coverageEndTimestamp", "TimestampOrder", "coverage ends at %d, not after its start at %d", p.CoverageEndTimestamp, p.CoverageStartTimestamp)
	}
	if p.ClaimAmount != nil && !p.Claimable {
		r.violationAt("claimAmount", "ClaimWithoutClaimable", "claim amount %v set on a non claimable coverage", *p.ClaimAmount)
	}
}

// Liabilities returns the positions of p that are owed: the borrowed
// positions of a lending portfolio. Other categories owe nothing.
func Liabilities(p DefiPortfolio) []TokenPosition {
	switch p := p.(type) {
	case LendingPortfolio:
		return p.BorrowedPositions
	case *LendingPortfolio:
		if p != nil {
			return p.BorrowedPositions
		}
	}
	return nil
}

// isNilPortfolio reports whether p is nil or a nil pointer to a variant.
func isNilPortfolio(p DefiPortfolio) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
