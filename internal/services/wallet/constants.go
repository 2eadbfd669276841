package wallet

// Default currency universe, overridable via Config.
const DefaultBaseCurrency = "NGN"

var DefaultSupportedCurrencies = []string{"NGN", "USD", "EUR", "GBP"}
