package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stellar-swap/pkg/contract"
	"stellar-swap/pkg/swap"
)

var countAddress string

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Show how many swaps an account has made",
	Long: `Read the per-account swap counter kept by the contract. The call is
simulated only and never submitted.

Examples:
  stellar-swap count
  stellar-swap count --address GABC...`,
	Run: runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)

	countCmd.Flags().StringVar(&countAddress, "address", "", "Account to read (defaults to the connected wallet)")
}

func runCount(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd, false)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()
	address := countAddress
	if address == "" {
		w, err := a.selectedWallet()
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		address, err = a.wallets.Connect(ctx, w.ID())
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	} else if err := contract.ValidateAccountID(address); err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Reading swap count..."
		s.Start()
	}

	reader := swap.NewCounterReader(a.horizon, a.rpc, a.builder)
	count, err := reader.ReadCount(ctx, address)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]interface{}{
			"address":    address,
			"swap_count": count,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printSuccess(fmt.Sprintf("%s has made %s swaps", color.CyanString(address), color.GreenString("%d", count)))
}
