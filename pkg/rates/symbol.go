package rates

import (
	"fmt"
	"strings"
)

// Symbol identifies one of the assets the swap contract can quote
type Symbol string

const (
	XLM  Symbol = "XLM"
	USDC Symbol = "USDC"
	EURC Symbol = "EURC"
	BTC  Symbol = "BTC"
)

// Asset describes a supported symbol for display
type Asset struct {
	Symbol Symbol `json:"symbol"`
	Name   string `json:"name"`
}

// Assets is the fixed, ordered set of supported assets
var Assets = []Asset{
	{Symbol: XLM, Name: "Stellar Lumens"},
	{Symbol: USDC, Name: "USD Coin"},
	{Symbol: EURC, Name: "Euro Coin"},
	{Symbol: BTC, Name: "Bitcoin (wrapped)"},
}

// ParseSymbol converts user input into a supported Symbol
func ParseSymbol(s string) (Symbol, error) {
	s = strings.TrimSpace(strings.ToUpper(s))

	for _, asset := range Assets {
		if string(asset.Symbol) == s {
			return asset.Symbol, nil
		}
	}

	return "", fmt.Errorf("unsupported asset '%s' (supported: %s)", s, supportedList())
}

// Name returns the display name of the symbol, or the symbol itself when unknown
func (s Symbol) Name() string {
	for _, asset := range Assets {
		if asset.Symbol == s {
			return asset.Name
		}
	}
	return string(s)
}

func supportedList() string {
	names := make([]string, 0, len(Assets))
	for _, asset := range Assets {
		names = append(names, string(asset.Symbol))
	}
	return strings.Join(names, ", ")
}
