package kryptos

import "fmt"

// Validate checks any entity of the model and returns every problem found,
// aggregated. It is nil when v is valid.
func Validate(v any) error {
	switch v := v.(type) {
	case Asset:
		return v.Validate()
	case NftCollection:
		return v.Validate()
	case AccountType:
		return v.Validate()
	case PriceModel:
		return v.Validate()
	case IncomingTransfer:
		return v.Validate()
	case OutgoingTransfer:
		return v.Validate()
	case FeeTransfer:
		return v.Validate()
	case LedgerEntry:
		return v.Validate()
	case Transaction:
		return v.Validate()
	case Holding:
		return v.Validate()
	case TokenPosition:
		return validate(v.check)
	case DerivativePosition:
		return v.Validate()
	case VestingSchedule:
		return validate(v.check)
	case DefiPortfolio:
		return v.Validate()
	case DefiHolding:
		return v.Validate()
	case NFTBalance:
		return v.Validate()
	case Collection:
		return validate(v.check)
	case LastSale:
		return validate(v.check)
	case TaxPnL:
		return v.Validate()
	case []LedgerEntry:
		return ValidateLedger(v)
	case nil:
		return fmt.Errorf("cannot validate nil")
	default:
		return fmt.Errorf("cannot validate %T", v)
	}
}
