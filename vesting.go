package kryptos

import (
	"encoding/json"
	"errors"
	"fmt"
)

// VestingState is the lifecycle step of a release. It only moves forward:
// pending, then released, then claimed.
type VestingState string

const (
	VestingPending  VestingState = "pending"
	VestingReleased VestingState = "released"
	VestingClaimed  VestingState = "claimed"
)

var (
	ErrAlreadyReleased = errors.New("release already happened")
	ErrNotReleased     = errors.New("release has not happened yet")
	ErrAlreadyClaimed  = errors.New("release already claimed")
	ErrEarlierPending  = errors.New("an earlier release is still pending")
)

// VestingSchedule is one release of a vesting plan.
type VestingSchedule struct {
	ReleaseTimestamp int64
	ReleaseAmount    Quantity
	IsReleased       bool
	IsClaimed        bool
}

// State returns the lifecycle step of s.
func (s VestingSchedule) State() VestingState {
	switch {
	case s.IsClaimed:
		return VestingClaimed
	case s.IsReleased:
		return VestingReleased
	default:
		return VestingPending
	}
}

// Release returns s released. Only a pending release can be released.
func (s VestingSchedule) Release() (VestingSchedule, error) {
	if s.State() != VestingPending {
		return s, ErrAlreadyReleased
	}
	s.IsReleased = true
	return s, nil
}

// Claim returns s claimed. Only a released, unclaimed release can be claimed.
func (s VestingSchedule) Claim() (VestingSchedule, error) {
	switch s.State() {
	case VestingPending:
		return s, ErrNotReleased
	case VestingClaimed:
		return s, ErrAlreadyClaimed
	}
	s.IsClaimed = true
	return s, nil
}

func (s VestingSchedule) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("releaseTimestamp", s.ReleaseTimestamp)
	w.Append("releaseAmount", s.ReleaseAmount)
	w.Append("isReleased", s.IsReleased)
	w.Append("isClaimed", s.IsClaimed)
	return w.MarshalJSON()
}

func (s *VestingSchedule) UnmarshalJSON(data []byte) (err error) {
	*s, err = decodeWith(data, decodeVestingSchedule)
	return err
}

func decodeVestingSchedule(f *fields) VestingSchedule {
	return VestingSchedule{
		ReleaseTimestamp: f.Int("releaseTimestamp"),
		ReleaseAmount:    f.Quantity("releaseAmount"),
		IsReleased:       f.Bool("isReleased"),
		IsClaimed:        f.Bool("isClaimed"),
	}
}

func (s VestingSchedule) check(r report) {
	checkNonNegative(r, "releaseAmount", s.ReleaseAmount)
	if s.IsClaimed && !s.IsReleased {
		r.violationAt("isClaimed", "ClaimedNotReleased", "a release is claimed before it is released")
	}
}

// VestingPortfolio is a token vesting plan.
//
// VestedAmount counts the released tokens already claimed, ClaimableAmount
// the released tokens waiting to be claimed; together they never exceed
// TotalAmount.
type VestingPortfolio struct {
	RewardPositions []TokenPosition
	Metadata        json.RawMessage

	VestedAsset     Asset
	TotalAmount     Quantity
	VestedAmount    Quantity
	ClaimableAmount Quantity
	StartTimestamp  int64
	EndTimestamp    int64
	CliffTimestamp  *int64
	ReleaseSchedule []VestingSchedule
}

func (VestingPortfolio) Category() PortfolioCategory { return CategoryVesting }

// Release returns a copy of v with the i-th release released, its amount
// becoming claimable. Releases happen in schedule order.
func (v VestingPortfolio) Release(i int) (VestingPortfolio, error) {
	if i < 0 || i >= len(v.ReleaseSchedule) {
		return v, fmt.Errorf("no release #%d in a schedule of %d", i, len(v.ReleaseSchedule))
	}
	for _, s := range v.ReleaseSchedule[:i] {
		if s.State() == VestingPending {
			return v, ErrEarlierPending
		}
	}
	s, err := v.ReleaseSchedule[i].Release()
	if err != nil {
		return v, err
	}
	v.ReleaseSchedule = append([]VestingSchedule(nil), v.ReleaseSchedule...)
	v.ReleaseSchedule[i] = s
	v.ClaimableAmount = v.ClaimableAmount.Add(s.ReleaseAmount)
	return v, nil
}

// Claim returns a copy of v with the i-th release claimed, its amount moving
// from claimable to vested.
func (v VestingPortfolio) Claim(i int) (VestingPortfolio, error) {
	if i < 0 || i >= len(v.ReleaseSchedule) {
		return v, fmt.Errorf("no release #%d in a schedule of %d", i, len(v.ReleaseSchedule))
	}
	s, err := v.ReleaseSchedule[i].Claim()
	if err != nil {
		return v, err
	}
	v.ReleaseSchedule = append([]VestingSchedule(nil), v.ReleaseSchedule...)
	v.ReleaseSchedule[i] = s
	v.ClaimableAmount = v.ClaimableAmount.Sub(s.ReleaseAmount)
	v.VestedAmount = v.VestedAmount.Add(s.ReleaseAmount)
	return v, nil
}

func (v VestingPortfolio) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("category", CategoryVesting)
	w.Optional("rewardPositions", v.RewardPositions)
	if len(v.Metadata) > 0 {
		w.Append("metadata", v.Metadata)
	}
	w.Append("vestedAsset", v.VestedAsset)
	w.Append("totalAmount", v.TotalAmount)
	w.Append("vestedAmount", v.VestedAmount)
	w.Append("claimableAmount", v.ClaimableAmount)
	w.Append("startTimestamp", v.StartTimestamp)
	w.Append("endTimestamp", v.EndTimestamp)
	w.Optional("cliffTimestamp", v.CliffTimestamp)
	w.Optional("releaseSchedule", v.ReleaseSchedule)
	return w.MarshalJSON()
}

func (v *VestingPortfolio) UnmarshalJSON(data []byte) (err error) {
	*v, err = decodeWith(data, func(f *fields) VestingPortfolio {
		expectCategory(f, CategoryVesting)
		return decodeVesting(f)
	})
	return err
}

func decodeVesting(f *fields) VestingPortfolio {
	return VestingPortfolio{
		RewardPositions: objectList(f, "rewardPositions", false, decodeTokenPosition),
		Metadata:        f.Raw("metadata"),
		VestedAsset:     object(f, "vestedAsset", decodeAsset),
		TotalAmount:     f.Quantity("totalAmount"),
		VestedAmount:    f.Quantity("vestedAmount"),
		ClaimableAmount: f.Quantity("claimableAmount"),
		StartTimestamp:  f.Int("startTimestamp"),
		EndTimestamp:    f.Int("endTimestamp"),
		CliffTimestamp:  f.OptInt("cliffTimestamp"),
		ReleaseSchedule: objectList(f, "releaseSchedule", false, decodeVestingSchedule),
	}
}

// Validate checks v and returns every problem found.
func (v VestingPortfolio) Validate() error { return validate(v.check) }

func (v VestingPortfolio) check(r report) {
	checkPositions(r, "rewardPositions", v.RewardPositions)
	v.VestedAsset.check(r.at("vestedAsset"))
	checkNonNegative(r, "totalAmount", v.TotalAmount)
	checkNonNegative(r, "vestedAmount", v.VestedAmount)
	checkNonNegative(r, "claimableAmount", v.ClaimableAmount)
	if sum := v.VestedAmount.Add(v.ClaimableAmount); sum.GreaterThan(v.TotalAmount) {
		r.violation("VestingOverflow", "vested %s plus claimable %s exceed total %s", v.VestedAmount, v.ClaimableAmount, v.TotalAmount)
	}

	if v.StartTimestamp > v.EndTimestamp {
		r.violationAt("endTimestamp", "TimestampOrder", "vesting ends at %d before it starts at %d", v.EndTimestamp, v.StartTimestamp)
	}
	if c := v.CliffTimestamp; c != nil && (*c < v.StartTimestamp || *c > v.EndTimestamp) {
		r.violationAt("cliffTimestamp", "TimestampOrder", "cliff %d is outside [%d, %d]", *c, v.StartTimestamp, v.EndTimestamp)
	}

	for i, s := range v.ReleaseSchedule {
		sr := r.at("releaseSchedule").index(i)
		s.check(sr)
		if i > 0 && s.ReleaseTimestamp < v.ReleaseSchedule[i-1].ReleaseTimestamp {
			sr.violationAt("releaseTimestamp", "ScheduleUnordered", "release at %d comes after %d", s.ReleaseTimestamp, v.ReleaseSchedule[i-1].ReleaseTimestamp)
		}
	}
}

func checkNonNegative(r report, key string, q Quantity) {
	if q.IsNegative() {
		r.violationAt(key, "NegativeAmount", "%s is %s", key, q)
	}
}
