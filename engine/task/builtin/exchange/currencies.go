package exchange

// DefaultCurrencies returns a fresh copy of the builtin currency table.
func DefaultCurrencies() []string {
	return []string{
		"aud", "brl", "cad", "chf", "cny", "czk", "dkk", "eur", "gbp", "hkd",
		"huf", "idr", "ils", "inr", "isk", "jpy", "krw", "mxn", "myr", "nok",
		"nzd", "php", "pln", "ron", "sek", "sgd", "thb", "try", "usd", "zar",
		"btc", "eth",
	}
}
