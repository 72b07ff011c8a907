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
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect your wallet and show its XLM balance",
	Long: `Ask the configured wallet for access to its account, then load the
account from Horizon and show the native balance.

Examples:
  stellar-swap connect
  stellar-swap connect --wallet freighter`,
	Run: runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd, false)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	session, err := a.connect(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Reading swap count..."
		s.Start()
	}
	counter := a.counter()
	counter.Refresh(ctx, session.Address)
	if !jsonOutput {
		s.Stop()
	}
	count, counted := counter.Value()

	if jsonOutput {
		output := map[string]interface{}{
			"wallet":  session.WalletID,
			"address": session.Address,
			"balance": session.Balance,
			"network": a.cfg.NetworkName(),
		}
		if counted {
			output["swap_count"] = count
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	color.Green("\n✓ Connected")
	fmt.Printf("  Wallet:   %s\n", session.WalletID)
	fmt.Printf("  Address:  %s\n", color.CyanString(session.Address))
	fmt.Printf("  Balance:  %s XLM\n", session.Balance)
	fmt.Printf("  Network:  %s\n", a.cfg.NetworkName())
	if counted {
		fmt.Printf("  Swaps:    %d\n", count)
	}
	fmt.Println()
}
