package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stellar-swap/pkg/rates"
)

var filterSymbol string

var ratesCmd = &cobra.Command{
	Use:     "rates",
	Aliases: []string{"list-rates", "ls"},
	Short:   "List the supported assets and exchange rates",
	Long: `List every asset pair in the rate table with its display rate and the
integer ratio submitted to the contract.

Examples:
  stellar-swap rates
  stellar-swap rates --from XLM`,
	Run: runListRates,
}

func init() {
	rootCmd.AddCommand(ratesCmd)

	ratesCmd.Flags().StringVar(&filterSymbol, "from", "", "Only show rates from this asset")
}

func runListRates(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	entries := rates.Default().Pairs()

	if filterSymbol != "" {
		from, err := rates.ParseSymbol(filterSymbol)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		var temp []rates.Entry
		for _, e := range entries {
			if e.From == from {
				temp = append(temp, e)
			}
		}
		entries = temp
	}

	if jsonOutput {
		output := make([]map[string]interface{}, 0, len(entries))
		for _, e := range entries {
			output = append(output, map[string]interface{}{
				"from":     e.From,
				"to":       e.To,
				"rate":     e.Display.String(),
				"rate_num": e.Num,
				"rate_den": e.Den,
			})
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayRates(entries)
}

func displayRates(entries []rates.Entry) {
	if len(entries) == 0 {
		fmt.Println("\nNo rates found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                          EXCHANGE RATES")
	fmt.Println(strings.Repeat("=", 70))

	// Group by source asset, in table order
	var order []rates.Symbol
	bySource := make(map[rates.Symbol][]rates.Entry)
	for _, e := range entries {
		if _, seen := bySource[e.From]; !seen {
			order = append(order, e.From)
		}
		bySource[e.From] = append(bySource[e.From], e)
	}

	for _, from := range order {
		color.Cyan("\n%s (%s)", from, from.Name())
		fmt.Println(strings.Repeat("-", 70))

		for _, e := range bySource[from] {
			fmt.Printf("  1 %-5s = %-14s %-5s  %s\n",
				from,
				e.Display.String(),
				color.YellowString(string(e.To)),
				color.HiBlackString("(%d/%d)", e.Num, e.Den))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("\nTotal: %d pairs across %d assets\n\n", len(entries), len(order))
}
