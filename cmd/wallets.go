package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var walletsCmd = &cobra.Command{
	Use:   "wallets",
	Short: "List the supported wallets",
	Long: `List the wallets stellar-swap can connect to, in the order they are offered,
and whether each one is available on this machine.

The local wallet signs with the secret key from STELLAR_SWAP_SECRET_KEY or
secret_key in .stellar-swap.yaml.`,
	Run: runWallets,
}

func init() {
	rootCmd.AddCommand(walletsCmd)
}

func runWallets(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd, false)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()
	wallets := a.wallets.List()

	if jsonOutput {
		output := make([]map[string]interface{}, 0, len(wallets))
		for _, w := range wallets {
			output = append(output, map[string]interface{}{
				"id":        w.ID(),
				"name":      w.Name(),
				"url":       w.URL(),
				"available": w.IsAvailable(ctx),
				"selected":  w.ID() == a.cfg.Wallet,
			})
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                            WALLETS")
	fmt.Println(strings.Repeat("=", 70) + "\n")

	for _, w := range wallets {
		marker := " "
		if w.ID() == a.cfg.Wallet {
			marker = color.CyanString("*")
		}

		availability := color.RedString("not installed")
		if w.IsAvailable(ctx) {
			availability = color.GreenString("available")
		}

		fmt.Printf(" %s %-10s %-16s %-15s %s\n", marker, w.ID(), w.Name(), availability, color.HiBlackString(w.URL()))
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("\nSelect a wallet with --wallet <id> or wallet: <id> in .stellar-swap.yaml\n\n")
}
