package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stellar-swap/pkg/types"
)

var rootCmd = &cobra.Command{
	Use:   "stellar-swap",
	Short: "A CLI for swapping assets through a Soroban swap contract",
	Long: `stellar-swap is a command-line tool for quoting and executing asset swaps
against a Soroban swap contract on the Stellar network. Quotes come from a fixed
rate table; swaps are simulated, signed by your wallet, submitted and tracked
until the network reports a final status.

Examples:
  stellar-swap quote 100 XLM to USDC
  stellar-swap swap 100 XLM to USDC
  stellar-swap rates
  stellar-swap events --watch
  stellar-swap status <tx-hash>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("wallet", "", "Wallet to use (overrides config)")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Approve wallet prompts without asking")
}

// newLogger builds the stderr logger used by all components
func newLogger(level string, verbose bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printJSONError(err error) {
	output := map[string]interface{}{"error": err.Error()}
	var typed *types.Error
	if errors.As(err, &typed) {
		output["error"] = typed.Message
		output["error_kind"] = typed.Kind.String()
	}
	jsonData, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(jsonData))
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
