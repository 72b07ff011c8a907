package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stellar-swap/pkg/parser"
	"stellar-swap/pkg/rates"
	"stellar-swap/pkg/types"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-asset> to <dest-asset>",
	Short: "Show the estimated output of a swap",
	Long: `Estimate how much of the destination asset a swap would return.

Quotes come from the built-in rate table and are advisory only; no network
call is made.

Examples:
  stellar-swap quote 100 XLM to USDC
  stellar-swap quote 0.5 BTC to EURC`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	table := rates.Default()
	amountOut := table.Quote(swapReq.AmountIn, swapReq.From, swapReq.To)
	rate, routed := table.Lookup(swapReq.From, swapReq.To)

	if jsonOutput {
		output := map[string]interface{}{
			"amount_in":  swapReq.AmountIn,
			"from":       swapReq.From,
			"amount_out": amountOut,
			"to":         swapReq.To,
			"routed":     routed,
		}
		if routed {
			output["rate"] = rate.Display.String()
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayQuote(swapReq, amountOut, rate, routed)
}

func displayQuote(swapReq *types.SwapRequest, amountOut string, rate rates.Rate, routed bool) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", swapReq.AmountIn, color.YellowString(string(swapReq.From)))
	fmt.Printf("  To:                ~%s %s\n", amountOut, color.YellowString(string(swapReq.To)))
	if routed {
		fmt.Printf("  Rate:              1 %s = %s %s\n", swapReq.From, rate.Display.String(), swapReq.To)
	} else {
		color.HiBlack("  No rate for this pair, a swap would settle at par (1:1)")
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
