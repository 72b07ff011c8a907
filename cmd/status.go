package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stellar-swap/pkg/client"
)

var (
	watchStatus   bool
	watchInterval int
)

var txHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a swap transaction",
	Long: `Check the status of a submitted transaction by its hash.

Examples:
  stellar-swap status 3b7c...e91f
  stellar-swap status 3b7c...e91f --watch
  stellar-swap status 3b7c...e91f --watch --interval 5`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch until the transaction is final")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 2, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	hash := strings.ToLower(strings.TrimSpace(args[0]))
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if !txHashPattern.MatchString(hash) {
		printError(fmt.Errorf("invalid transaction hash '%s' (expected 64 hex characters)", args[0]))
		os.Exit(1)
	}

	a, err := newApp(cmd, false)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if watchStatus {
		watchTxStatus(a, hash, jsonOutput)
	} else {
		checkTxStatus(a, hash, jsonOutput)
	}
}

func checkTxStatus(a *app, hash string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	status, err := a.rpc.GetTransaction(context.Background(), hash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(status, hash, a.cfg.ExplorerURL)
	}
}

func watchTxStatus(a *app, hash string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(hash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	if checkAndDisplayStatus(ctx, a, hash) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if checkAndDisplayStatus(ctx, a, hash) {
				return
			}
		}
	}
}

// checkAndDisplayStatus returns true once the transaction is final
func checkAndDisplayStatus(ctx context.Context, a *app, hash string) bool {
	status, err := a.rpc.GetTransaction(ctx, hash)
	if err != nil {
		color.Red("Error: %v", err)
		return false
	}

	if status.Pending() {
		fmt.Printf("  %s  %s\n", time.Now().Format("15:04:05"), getColoredStatus(status.Status))
		return false
	}

	displayStatus(status, hash, a.cfg.ExplorerURL)
	return true
}

func displayStatus(status *client.GetTransactionResult, hash, explorerURL string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                      TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Hash:            %s\n", color.CyanString(hash))
	fmt.Printf("  Status:          %s\n", getColoredStatus(status.Status))

	if status.Ledger != 0 {
		fmt.Printf("  Ledger:          %d\n", status.Ledger)
	}
	if status.CreatedAt != "" {
		fmt.Printf("  Created At:      %s\n", status.CreatedAt)
	}
	fmt.Printf("  Latest Ledger:   %d\n", status.LatestLedger)
	if explorerURL != "" && status.Status != client.TxStatusNotFound {
		fmt.Printf("  Explorer:        %s\n", color.HiBlackString(explorerURL+hash))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	status = strings.ToUpper(status)

	switch status {
	case client.TxStatusSuccess:
		return color.GreenString(status)
	case client.TxStatusPending, client.TxStatusNotFound:
		return color.YellowString(status)
	case client.TxStatusFailed, "FAIL":
		return color.RedString(status)
	default:
		return status
	}
}
