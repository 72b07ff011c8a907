package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"stellar-swap/pkg/rates"
	"stellar-swap/pkg/types"
)

var (
	// Amount is captured loosely so the workflow can report InvalidAmount itself
	swapPattern = regexp.MustCompile(`^(\S+)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)
	validate    = validator.New()
)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 100 XLM to USDC"
//   - "2.5 EURC to XLM"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "SWAP ")

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <asset> to <asset>' (e.g., 'swap 100 XLM to USDC')")
	}

	from, err := rates.ParseSymbol(NormalizeSymbol(matches[2]))
	if err != nil {
		return nil, err
	}
	to, err := rates.ParseSymbol(NormalizeSymbol(matches[3]))
	if err != nil {
		return nil, err
	}

	req := &types.SwapRequest{
		AmountIn: matches[1],
		From:     from,
		To:       to,
	}
	if err := ValidateSwapRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "AmountIn":
				return fmt.Errorf("amount is required")
			case "From":
				return fmt.Errorf("source asset is required")
			case "To":
				if verrs[0].Tag() == "nefield" {
					return fmt.Errorf("source and destination assets must differ")
				}
				return fmt.Errorf("destination asset is required")
			}
		}
		return fmt.Errorf("invalid swap request: %w", err)
	}
	return nil
}

// NormalizeSymbol normalizes asset symbols to the supported codes
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"LUMEN":  "XLM",
		"LUMENS": "XLM",
		"NATIVE": "XLM",
		"XBT":    "BTC",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
