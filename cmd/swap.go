package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stellar-swap/pkg/parser"
	"stellar-swap/pkg/swap"
	"stellar-swap/pkg/types"
	"stellar-swap/pkg/wallet"
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-asset> to <dest-asset>",
	Short: "Swap assets through the swap contract",
	Long: `Swap assets by invoking the swap contract with your connected wallet.

The transaction is simulated, signed by your wallet, submitted and then
tracked until the network reports a final status. Amounts are submitted as
whole units; any fractional part is dropped.

Examples:
  stellar-swap swap 100 XLM to USDC
  stellar-swap swap 2 EURC to XLM --wallet local

  # Skip all confirmations
  stellar-swap swap 100 XLM to USDC --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)
}

func runSwap(cmd *cobra.Command, args []string) {
	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	noConfirm, _ := cmd.Flags().GetBool("yes")

	a, err := newApp(cmd, false)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	signer, err := a.selectedWallet()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Account failures are left for the workflow to classify
	session, err := swap.ConnectForSwap(ctx, a.wallets, a.horizon, a.cfg.Wallet)
	if err != nil {
		if jsonOutput {
			printJSONError(err)
		} else {
			printError(err)
		}
		os.Exit(1)
	}
	swapReq.Address = session.Address

	amountOut := a.table.Quote(swapReq.AmountIn, swapReq.From, swapReq.To)
	rate, routed := a.table.Lookup(swapReq.From, swapReq.To)
	if !jsonOutput {
		displayQuote(swapReq, amountOut, rate, routed)
		if session.Balance != "" {
			fmt.Printf("  Account: %s (%s XLM)\n", color.CyanString(session.Address), session.Balance)
		} else {
			fmt.Printf("  Account: %s\n", color.CyanString(session.Address))
		}
	}

	// Ask for confirmation
	if !noConfirm && !jsonOutput {
		if !wallet.NewTerminalPrompter(os.Stdin, os.Stdout).Confirm("Proceed with swap?") {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	// Spinner only when no wallet prompt can interrupt it
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	useSpinner := !jsonOutput && noConfirm

	observer := func(attempt types.SwapAttempt) {
		if attempt.Status != types.StatusPending || jsonOutput {
			return
		}
		if useSpinner {
			s.Suffix = " Submitting swap and waiting for confirmation..."
			s.Start()
		} else {
			fmt.Println("\nSubmitting swap...")
		}
	}

	workflow := swap.NewWorkflow(a.horizon, a.rpc, signer, a.builder, a.table,
		swap.WithPollInterval(a.cfg.PollInterval),
		swap.WithMaxPolls(a.cfg.MaxPolls),
		swap.WithLogger(a.logger),
		swap.WithMetrics(a.metrics),
		swap.WithObserver(observer),
	)

	attempt := workflow.Run(ctx, *swapReq)
	if useSpinner {
		s.Stop()
	}

	// The counter is refreshed after every terminal attempt
	counter := a.counter()
	counter.Refresh(context.Background(), swapReq.Address)
	count, counted := counter.Value()

	if jsonOutput {
		output := map[string]interface{}{
			"id":          attempt.ID,
			"status":      attempt.Status,
			"amount_in":   swapReq.AmountIn,
			"from":        swapReq.From,
			"to":          swapReq.To,
			"quoted_out":  amountOut,
			"tx_hash":     attempt.TxHash,
			"polls":       attempt.Polls,
			"duration_ms": attempt.FinishedAt.Sub(attempt.StartedAt).Milliseconds(),
		}
		if attempt.Err != nil {
			output["error"] = attempt.Err.Message
			output["error_kind"] = attempt.Err.Kind.String()
			output["retryable"] = attempt.Err.Kind.Retryable()
		}
		if counted {
			output["swap_count"] = count
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayOutcome(attempt, a.cfg.ExplorerURL, amountOut)
		if counted {
			fmt.Printf("Total swaps by this account: %d\n\n", count)
		}
	}

	if attempt.Status != types.StatusSuccess {
		os.Exit(1)
	}
}

func displayOutcome(attempt *types.SwapAttempt, explorerURL, amountOut string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	if attempt.Status == types.StatusSuccess {
		color.Green("                    SWAP CONFIRMED")
	} else {
		color.Red("                     SWAP FAILED")
	}
	fmt.Println(strings.Repeat("=", 60))

	req := attempt.Request
	fmt.Printf("\n  Swapped:           %s %s\n", req.AmountIn, color.YellowString(string(req.From)))
	fmt.Printf("  Expected:          ~%s %s\n", amountOut, color.YellowString(string(req.To)))
	fmt.Printf("  Status:            %s\n", getColoredStatus(string(attempt.Status)))

	if attempt.TxHash != "" {
		fmt.Printf("  Transaction:       %s\n", color.HiBlackString(attempt.TxHash))
		if explorerURL != "" {
			fmt.Printf("  Explorer:          %s\n", color.CyanString(explorerURL+attempt.TxHash))
		}
	}
	if attempt.Err != nil {
		fmt.Printf("  Error:             %s\n", color.RedString(attempt.Err.Message))
		if attempt.Err.Kind.Retryable() {
			fmt.Printf("  %s\n", color.YellowString("Nothing was submitted, it is safe to try again."))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
