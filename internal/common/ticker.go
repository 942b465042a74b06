// Package common provides shared utilities across the application.
package common

import (
	"fmt"
	"os"
	"strings"
)

// Ticker is a parsed ticker symbol.
// Accepted forms: "AAPL", "BHP.AX" (vendor suffix), "ASX:GNP" (exchange prefix).
type Ticker struct {
	// Exchange is the EODHD exchange code (e.g., "US", "AU")
	Exchange string
	// Code is the security code (e.g., "AAPL", "BRK-B")
	Code string
	// Raw is the normalized input symbol, used as the cache and result key
	Raw string
}

// ExchangeToSuffix maps exchange names used in EXCHANGE:CODE form to EODHD exchange codes.
var ExchangeToSuffix = map[string]string{
	"ASX":    "AU",
	"NYSE":   "US",
	"NASDAQ": "US",
	"AMEX":   "US",
	"LSE":    "LSE",
	"TSX":    "TO",
	"XETRA":  "XETRA",
}

// SymbolSuffixToExchange maps symbol suffixes to EODHD exchange codes. Yahoo-style
// suffixes (".AX", ".L") and EODHD codes (".AU", ".LSE") are both recognized.
var SymbolSuffixToExchange = map[string]string{
	"AX":    "AU",
	"AU":    "AU",
	"L":     "LSE",
	"LSE":   "LSE",
	"TO":    "TO",
	"DE":    "XETRA",
	"XETRA": "XETRA",
	"PA":    "PA",
	"HK":    "HK",
	"SI":    "SG",
	"SG":    "SG",
	"US":    "US",
}

// ParseTicker parses a ticker symbol. Symbols without a recognized exchange resolve to
// defaultExchange.
func ParseTicker(symbol, defaultExchange string) Ticker {
	raw := strings.ToUpper(strings.TrimSpace(symbol))
	if raw == "" {
		return Ticker{}
	}
	defaultExchange = strings.ToUpper(defaultExchange)
	if defaultExchange == "" {
		defaultExchange = "US"
	}

	if idx := strings.Index(raw, ":"); idx > 0 {
		exchange := raw[:idx]
		if mapped, ok := ExchangeToSuffix[exchange]; ok {
			exchange = mapped
		}
		return Ticker{Exchange: exchange, Code: raw[idx+1:], Raw: raw}
	}

	if idx := strings.LastIndex(raw, "."); idx > 0 && idx < len(raw)-1 {
		if exchange, ok := SymbolSuffixToExchange[raw[idx+1:]]; ok {
			return Ticker{Exchange: exchange, Code: raw[:idx], Raw: raw}
		}
	}

	return Ticker{Exchange: defaultExchange, Code: raw, Raw: raw}
}

// EODHDSymbol returns the CODE.EXCHANGE form used by the EODHD API.
// Example: "BHP.AX" -> "BHP.AU"
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	return t.Code + "." + t.Exchange
}

// String returns the normalized symbol.
func (t Ticker) String() string {
	return t.Raw
}

// ParseTickers splits a comma or newline separated list, trimming and upper-casing
// each symbol and dropping empty entries. Duplicates are kept.
func ParseTickers(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	tickers := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.ToUpper(strings.TrimSpace(f)); t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

// LoadTickersFile reads tickers from a text file, one per line or comma separated.
// Everything after a '#' on a line is a comment.
func LoadTickersFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tickers file %s: %w", path, err)
	}

	var tickers []string
	for _, line := range strings.Split(string(data), "\n") {
		line, _, _ = strings.Cut(line, "#")
		tickers = append(tickers, ParseTickers(line)...)
	}
	return tickers, nil
}
