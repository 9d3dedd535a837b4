package kryptos

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/samber/lo"
)

// equateQuantities compares quantities by value.
var equateQuantities = cmp.Comparer(func(a, b Quantity) bool { return a.Equal(b) })

func usdPtr(price float64) *PriceModel { return lo.ToPtr(usd(price)) }

// lendingHolding supplies 10 ETH worth 30000 USD and borrows 12000 USDC.
func lendingHolding() DefiHolding {
	return DefiHolding{
		HoldingID:    "aave-w1",
		Owner:        *wallet("w1"),
		ProtocolName: "Aave",
		Chain:        "ethereum",
		Category:     CategoryLending,
		Portfolio: LendingPortfolio{
			Kind:              CategoryLending,
			SuppliedPositions: []TokenPosition{{Asset: eth(), Amount: Q(10), Value: usdPtr(30000), IsCollateral: lo.ToPtr(true)}},
			BorrowedPositions: []TokenPosition{{Asset: usdc(), Amount: Q(12000), Value: usdPtr(12000)}},
			HealthFactor:      lo.ToPtr(1.8),
		},
		TotalValue: usd(30000),
		NetValue:   usd(18000),
		CreatedAt:  1704067200,
		UpdatedAt:  1717200000,
		IsActive:   true,
	}
}

func TestNetValue(t *testing.T) {
	h := lendingHolding()
	net, err := NetValue(h)
	if err != nil {
		t.Fatalf("NetValue() failed: %v", err)
	}
	if net.Price != 18000 || net.BaseCurrency != "USD" {
		t.Errorf("NetValue() = %v %s, want 18000 USD", net.Price, net.BaseCurrency)
	}
	if err := h.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	h.NetValue = usd(30000)
	if err := h.Validate(); !HasProblem(err, InvariantViolation, "NetValueMismatch") {
		t.Errorf("Validate() = %v, want NetValueMismatch", err)
	}
	fixed, err := h.WithNetValue()
	if err != nil {
		t.Fatalf("WithNetValue() failed: %v", err)
	}
	if err := fixed.Validate(); err != nil {
		t.Errorf("Validate() after WithNetValue() = %v", err)
	}
}

func TestNetValueUncomputable(t *testing.T) {
	tests := []struct {
		name   string
		change func(*TokenPosition)
	}{
		{"no value", func(p *TokenPosition) { p.Value = nil }},
		{"other currency", func(p *TokenPosition) { p.Value.BaseCurrency = "EUR" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := lendingHolding()
			p := h.Portfolio.(LendingPortfolio)
			tt.change(&p.BorrowedPositions[0])
			h.Portfolio = p

			if _, err := NetValue(h); err == nil {
				t.Errorf("NetValue() succeeded, want an error")
			}
			if err := h.Validate(); !HasProblem(err, InvariantViolation, "NetValueUncomputable") {
				t.Errorf("Validate() = %v, want NetValueUncomputable", err)
			}
		})
	}
}

func TestLiabilities(t *testing.T) {
	tests := []struct {
		name string
		p    DefiPortfolio
		want int
	}{
		{"nil", nil, 0},
		{"lending", lendingHolding().Portfolio, 1},
		{"staking", StakingPortfolio{StakedPositions: []TokenPosition{{Asset: eth(), Amount: Q(32)}}}, 0},
		{"vesting", VestingPortfolio{}, 0},
		{"lending pointer", lendingPointer(), 1},
		{"nil lending pointer", (*LendingPortfolio)(nil), 0},
		{"staking pointer", &StakingPortfolio{}, 0},
	}
	for _, tt := range tests {
		if got := len(Liabilities(tt.p)); got != tt.want {
			t.Errorf("Liabilities(%s) has %d positions, want %d", tt.name, got, tt.want)
		}
	}
}

func lendingPointer() DefiPortfolio {
	p := lendingHolding().Portfolio.(LendingPortfolio)
	return &p
}

func TestDefiHoldingPortfolioPointer(t *testing.T) {
	h := lendingHolding()
	h.Portfolio = lendingPointer()
	if err := h.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	net, err := NetValue(h)
	if err != nil || net.Price != 18000 {
		t.Errorf("NetValue() = %v, %v, want 18000", net.Price, err)
	}

	h.Portfolio = (*LendingPortfolio)(nil)
	want := []string{`MissingField("portfolio") at portfolio`}
	if diff := cmp.Diff(want, problemStrings(h.Validate())); diff != "" {
		t.Errorf("Validate() problems mismatch (-want +got):\n%s", diff)
	}
}

func TestDefiHoldingRoundTrip(t *testing.T) {
	want := lendingHolding()
	data, err := want.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := ParseEntity(KindDefiHolding, data)
	if err != nil {
		t.Fatalf("ParseEntity() failed: %v", err)
	}
	if diff := cmp.Diff(want, got, equateQuantities, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDefiHoldingProblems(t *testing.T) {
	t.Run("unknown portfolio", func(t *testing.T) {
		data := edit(t, lendingHolding(), func(m map[string]json.RawMessage) {
			m["portfolio"] = json.RawMessage(`{"category":"exotic"}`)
		})
		_, err := DecodeEntity(KindDefiHolding, data)
		want := []string{`UnknownVariant("exotic") at portfolio.category`}
		if diff := cmp.Diff(want, problemStrings(err)); diff != "" {
			t.Errorf("problems mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("category mismatch", func(t *testing.T) {
		h := lendingHolding()
		h.Category = CategoryBorrowing
		want := []string{`InvariantViolation("CategoryMismatch") at portfolio.category`}
		if diff := cmp.Diff(want, problemStrings(h.Validate())); diff != "" {
			t.Errorf("problems mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("concrete type", func(t *testing.T) {
		var p LendingPortfolio
		err := json.Unmarshal([]byte(`{"category":"staking","stakedPositions":[]}`), &p)
		if !HasProblem(err, InvariantViolation, "CategoryMismatch") {
			t.Errorf("Unmarshal() = %v, want CategoryMismatch", err)
		}
	})
}

func TestPortfolioValidate(t *testing.T) {
	tests := []struct {
		name string
		p    DefiPortfolio
		want []string
	}{
		{
			name: "negative health factor",
			p:    LendingPortfolio{Kind: CategoryBorrowing, HealthFactor: lo.ToPtr(-1.0)},
			want: []string{`InvariantViolation("NegativeHealthFactor") at healthFactor`},
		},
		{
			name: "pool share",
			p:    FarmingPortfolio{PoolShare: lo.ToPtr(Percent(120))},
			want: []string{`InvariantViolation("PoolShareOutOfRange") at poolShare`},
		},
		{
			name: "negative amount",
			p:    CommonPortfolio{Kind: CategoryGovernance, Positions: []TokenPosition{{Asset: eth(), Amount: Q(-1)}}},
			want: []string{`InvariantViolation("NegativeAmount") at positions[0].amount`},
		},
		{
			name: "claim without claimable",
			p: InsurancePortfolio{
				Role:                   Buyer,
				CoverageType:           "smart-contract",
				CoverageStartTimestamp: 1,
				CoverageEndTimestamp:   2,
				ClaimAmount:            lo.ToPtr(100.0),
			},
			want: []string{`InvariantViolation("ClaimWithoutClaimable") at claimAmount`},
		},
		{
			name: "common category",
			p:    CommonPortfolio{Kind: CategoryStaking},
			want: []string{`InvariantViolation("CategoryMismatch") at category`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, problemStrings(tt.p.Validate())); diff != "" {
				t.Errorf("Validate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func vestingPlan() VestingPortfolio {
	return VestingPortfolio{
		VestedAsset:    eth(),
		TotalAmount:    Q(100),
		StartTimestamp: 1000,
		EndTimestamp:   3000,
		CliffTimestamp: lo.ToPtr(int64(1500)),
		ReleaseSchedule: []VestingSchedule{
			{ReleaseTimestamp: 2000, ReleaseAmount: Q(50)},
			{ReleaseTimestamp: 3000, ReleaseAmount: Q(50)},
		},
	}
}

func TestVestingLifecycle(t *testing.T) {
	v := vestingPlan()

	if _, err := v.Release(1); !errors.Is(err, ErrEarlierPending) {
		t.Errorf("Release(1) = %v, want ErrEarlierPending", err)
	}
	if _, err := v.Claim(0); !errors.Is(err, ErrNotReleased) {
		t.Errorf("Claim(0) = %v, want ErrNotReleased", err)
	}

	released, err := v.Release(0)
	if err != nil {
		t.Fatalf("Release(0) failed: %v", err)
	}
	if !released.ClaimableAmount.Equal(Q(50)) || !released.VestedAmount.IsZero() {
		t.Errorf("after release: claimable %s, vested %s", released.ClaimableAmount, released.VestedAmount)
	}
	if _, err := released.Release(0); !errors.Is(err, ErrAlreadyReleased) {
		t.Errorf("Release(0) twice = %v, want ErrAlreadyReleased", err)
	}

	claimed, err := released.Claim(0)
	if err != nil {
		t.Fatalf("Claim(0) failed: %v", err)
	}
	if !claimed.ClaimableAmount.IsZero() || !claimed.VestedAmount.Equal(Q(50)) {
		t.Errorf("after claim: claimable %s, vested %s", claimed.ClaimableAmount, claimed.VestedAmount)
	}
	if got := claimed.ReleaseSchedule[0].State(); got != VestingClaimed {
		t.Errorf("state = %s, want %s", got, VestingClaimed)
	}
	if _, err := claimed.Claim(0); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("Claim(0) twice = %v, want ErrAlreadyClaimed", err)
	}
	if err := claimed.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	if v.ReleaseSchedule[0].State() != VestingPending || !v.ClaimableAmount.IsZero() {
		t.Errorf("the original plan changed: %+v", v)
	}
	if _, err := v.Release(5); err == nil {
		t.Errorf("Release(5) succeeded, want an error")
	}
}

func TestVestingValidate(t *testing.T) {
	tests := []struct {
		name   string
		change func(*VestingPortfolio)
		want   []string
	}{
		{
			name:   "overflow",
			change: func(v *VestingPortfolio) { v.VestedAmount, v.ClaimableAmount = Q(80), Q(30) },
			want:   []string{`InvariantViolation("VestingOverflow") at `},
		},
		{
			name:   "cliff outside",
			change: func(v *VestingPortfolio) { v.CliffTimestamp = lo.ToPtr(int64(500)) },
			want:   []string{`InvariantViolation("TimestampOrder") at cliffTimestamp`},
		},
		{
			name:   "claimed not released",
			change: func(v *VestingPortfolio) { v.ReleaseSchedule[0].IsClaimed = true },
			want:   []string{`InvariantViolation("ClaimedNotReleased") at releaseSchedule[0].isClaimed`},
		},
		{
			name:   "unordered schedule",
			change: func(v *VestingPortfolio) { v.ReleaseSchedule[1].ReleaseTimestamp = 1500 },
			want:   []string{`InvariantViolation("ScheduleUnordered") at releaseSchedule[1].releaseTimestamp`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := vestingPlan()
			tt.change(&v)
			if diff := cmp.Diff(tt.want, problemStrings(v.Validate())); diff != "" {
				t.Errorf("Validate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func ethCall() DerivativePosition {
	return DerivativePosition{
		PositionID: "deribit-1",
		Side:       Long,
		BaseAsset:  eth(),
		QuoteAsset: usdc(),
		Size:       Q(2),
		EntryPrice: lo.ToPtr(120.0),
		Terms:      OptionTerms{StrikePrice: 4000, OptionType: Call, ExpiryTimestamp: lo.ToPtr(int64(1735689600))},
	}
}

func TestPortfolioRoundTrip(t *testing.T) {
	steth := TokenPosition{Asset: eth(), Amount: Q(32), Value: usdPtr(96000), EntryTimestamp: lo.ToPtr(int64(1704067200))}
	lp := TokenPosition{Asset: usdc(), Amount: MustQ("1250.5"), Value: usdPtr(2501)}
	reward := TokenPosition{Asset: eth(), Amount: MustQ("0.02"), IsReward: lo.ToPtr(true)}
	vesting := vestingPlan()
	vesting.Metadata = json.RawMessage(`{"beneficiary":"team"}`)
	vesting.ReleaseSchedule[0].IsReleased = true
	vesting.VestedAmount = Q(50)
	vesting.ClaimableAmount = Q(50)

	tests := []struct {
		name string
		p    DefiPortfolio
	}{
		{"governance", CommonPortfolio{Kind: CategoryGovernance, Positions: []TokenPosition{reward}}},
		{"staking", StakingPortfolio{
			PortfolioBase:    PortfolioBase{RewardPositions: []TokenPosition{reward}, APY: lo.ToPtr(3.4)},
			StakedPositions:  []TokenPosition{steth},
			StakingAPY:       lo.ToPtr(3.4),
			ValidatorAddress: "0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84",
			ValidatorName:    "Lido",
			UnlockTimestamp:  lo.ToPtr(int64(1735689600)),
			UnbondingPeriod:  lo.ToPtr(int64(7 * secondsPerDay)),
		}},
		{"farming", FarmingPortfolio{
			PortfolioBase:    PortfolioBase{Metadata: json.RawMessage(`{"poolId":"0x01"}`)},
			LPTokenPositions: []TokenPosition{lp},
			FarmAPY:          lo.ToPtr(12.5),
			PoolShare:        lo.ToPtr(Percent(0.25)),
			PoolTokens:       []Asset{eth(), usdc()},
		}},
		{"derivatives", DerivativesPortfolio{
			DerivativePositions: []DerivativePosition{ethCall()},
			CollateralPositions: []TokenPosition{lp},
		}},
		{"insurance", InsurancePortfolio{
			Positions:              []TokenPosition{lp},
			Role:                   Buyer,
			CoverageAmount:         50000,
			Premium:                1200,
			CoveredProtocol:        "Aave",
			CoverageType:           "smart-contract",
			CoverageStartTimestamp: 1704067200,
			CoverageEndTimestamp:   1735689600,
			Claimable:              true,
			ClaimAmount:            lo.ToPtr(10000.0),
		}},
		{"vesting", vesting},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := tc.p.MarshalJSON()
			if err != nil {
				t.Fatal(err)
			}
			got, err := ParseEntity(KindPortfolio, data)
			if err != nil {
				t.Fatalf("ParseEntity(%s) failed: %v", data, err)
			}
			if diff := cmp.Diff(tc.p, got, equateQuantities, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			if c := got.(DefiPortfolio).Category(); c != tc.p.Category() {
				t.Errorf("Category() = %q, want %q", c, tc.p.Category())
			}
		})
	}
}

func TestDerivativeRoundTrip(t *testing.T) {
	perp := ethCall()
	perp.Terms = PerpetualTerms{Leverage: lo.ToPtr(5.0), FundingRate: lo.ToPtr(0.0001)}

	for _, want := range []DerivativePosition{ethCall(), perp} {
		t.Run(string(want.Type()), func(t *testing.T) {
			data, err := want.MarshalJSON()
			if err != nil {
				t.Fatal(err)
			}
			got, err := ParseEntity(KindDerivative, data)
			if err != nil {
				t.Fatalf("ParseEntity() failed: %v", err)
			}
			if diff := cmp.Diff(want, got, equateQuantities, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDerivativeTypeFields(t *testing.T) {
	tests := []struct {
		name  string
		typ   DerivativeType
		extra map[string]string
		want  []string
	}{
		{
			name:  "leverage on option",
			typ:   DerivativeOption,
			extra: map[string]string{"leverage": "5", "strikePrice": "4000", "optionType": `"call"`},
			want:  []string{`InvariantViolation("PerpetualFieldsOnNonPerpetual") at leverage`},
		},
		{
			name:  "strike on perpetual",
			typ:   DerivativePerpetual,
			extra: map[string]string{"strikePrice": "4000"},
			want:  []string{`InvariantViolation("OptionFieldsOnNonOption") at strikePrice`},
		},
		{
			name:  "expiry on future",
			typ:   DerivativeFuture,
			extra: map[string]string{"expiryTimestamp": "1735689600"},
			want:  nil,
		},
		{
			name:  "expiry on swap",
			typ:   DerivativeSwap,
			extra: map[string]string{"expiryTimestamp": "1735689600"},
			want:  []string{`InvariantViolation("OptionFieldsOnNonOption") at expiryTimestamp`},
		},
		{
			name: "unknown type",
			typ:  "forward",
			want: []string{`UnknownVariant("forward") at type`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ethCall()
			p.Terms = SwapTerms{}
			data := edit(t, p, func(m map[string]json.RawMessage) {
				m["type"] = json.RawMessage(`"` + tt.typ + `"`)
				for k, v := range tt.extra {
					m[k] = json.RawMessage(v)
				}
			})
			_, err := DecodeEntity(KindDerivative, data)
			if diff := cmp.Diff(tt.want, problemStrings(err)); diff != "" {
				t.Errorf("problems mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDerivativeValidate(t *testing.T) {
	p := ethCall()
	p.Terms = OptionTerms{StrikePrice: 0, OptionType: Put}
	if err := p.Validate(); !HasProblem(err, InvariantViolation, "NonPositiveStrike") {
		t.Errorf("Validate() = %v, want NonPositiveStrike", err)
	}

	p.Terms = nil
	if err := p.Validate(); !HasProblem(err, MissingField, "type") {
		t.Errorf("Validate() = %v, want MissingField(type)", err)
	}
}
