package kryptos

// AccountType identifies a custodial or non-custodial holding location: a
// wallet address, an exchange account, a smart contract.
type AccountType struct {
	Provider           string // wallet or exchange name
	ProviderPublicName string
	PublicAddress      string // on-chain address
	WalletID           string // internal wallet id
	LogoURL            string
	IsContract         *bool
	Alias              string // user-defined
}

// Resolvable reports whether the account can be located: it needs an
// address or a wallet id.
func (a AccountType) Resolvable() bool {
	return a.PublicAddress != "" || a.WalletID != ""
}

// Key identifies the account when grouping balances.
func (a AccountType) Key() string {
	if a.WalletID != "" {
		return a.Provider + "/" + a.WalletID
	}
	return a.Provider + "@" + a.PublicAddress
}

// Name is the best human readable name of the account.
func (a AccountType) Name() string {
	switch {
	case a.Alias != "":
		return a.Alias
	case a.ProviderPublicName != "":
		return a.ProviderPublicName
	case a.PublicAddress != "":
		return a.Provider + " " + a.PublicAddress
	default:
		return a.Provider + " " + a.WalletID
	}
}

func (a AccountType) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("provider", a.Provider)
	w.Optional("providerPublicName", a.ProviderPublicName)
	w.Optional("publicAddress", a.PublicAddress)
	w.Optional("walletId", a.WalletID)
	w.Optional("logoUrl", a.LogoURL)
	w.Optional("isContract", a.IsContract)
	w.Optional("alias", a.Alias)
	return w.MarshalJSON()
}

func (a *AccountType) UnmarshalJSON(data []byte) (err error) {
	*a, err = decodeWith(data, decodeAccount)
	return err
}

func decodeAccount(f *fields) AccountType {
	return AccountType{
		Provider:           f.String("provider"),
		ProviderPublicName: f.OptString("providerPublicName"),
		PublicAddress:      f.OptString("publicAddress"),
		WalletID:           f.OptString("walletId"),
		LogoURL:            f.OptString("logoUrl"),
		IsContract:         f.OptBool("isContract"),
		Alias:              f.OptString("alias"),
	}
}

// Validate checks a and returns every problem found.
func (a AccountType) Validate() error {
	r := newReport()
	a.check(r)
	return r.err()
}

func (a AccountType) check(r report) {
	if a.Provider == "" {
		r.missing("provider")
	}
	if !a.Resolvable() {
		r.violation("UnresolvableAccount", "an account needs a publicAddress or a walletId")
	}
	checkAddress(r, "publicAddress", a.PublicAddress)
}

// checkAccount checks an optional account field.
func checkAccount(r report, key string, a *AccountType) {
	if a != nil {
		a.check(r.at(key))
	}
}

// checkRequiredAccount checks a mandatory account field.
func checkRequiredAccount(r report, key string, a *AccountType) {
	if a == nil {
		r.missing(key)
		return
	}
	a.check(r.at(key))
}
