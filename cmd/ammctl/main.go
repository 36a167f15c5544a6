package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xmirasol/ammguard/internal/amm"
)

var (
	reserveIn  uint64
	reserveOut uint64

	apiURL string
	apiKey string
)

var rootCmd = &cobra.Command{
	Use:   "ammctl",
	Short: "CLI for AMM pricing and swaps",
	Long:  `Compute constant-product quotes locally or submit protected swaps to a running API`,
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute quotes locally from explicit reserves",
}

var quoteOutCmd = &cobra.Command{
	Use:   "out <amountIn>",
	Short: "Output amount for a given input",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amountIn, err := parseAmount(args[0])
		if err != nil {
			return err
		}

		cfg := amm.DefaultConfig()
		out, err := amm.QuoteOut(amountIn, reserveIn, reserveOut, cfg.FeeBpsComplement, cfg.FeeScale)
		if err != nil {
			return err
		}

		impact, err := amm.PriceImpactBps(amountIn, reserveIn, reserveOut, cfg.FeeBpsComplement, cfg.FeeScale)
		if err != nil {
			return err
		}

		fmt.Printf("amount_out: %d\n", out)
		fmt.Printf("impact_bps: %d\n", impact)
		return nil
	},
}

var quoteInCmd = &cobra.Command{
	Use:   "in <amountOut>",
	Short: "Input amount required for a desired output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amountOut, err := parseAmount(args[0])
		if err != nil {
			return err
		}

		cfg := amm.DefaultConfig()
		in, err := amm.QuoteIn(amountOut, reserveIn, reserveOut, cfg.FeeBpsComplement, cfg.FeeScale)
		if err != nil {
			return err
		}

		fmt.Printf("amount_in: %d\n", in)
		return nil
	},
}

var quoteLiquidityCmd = &cobra.Command{
	Use:   "liquidity <amountA>",
	Short: "Proportional other-side deposit for adding liquidity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amountA, err := parseAmount(args[0])
		if err != nil {
			return err
		}

		amountB, err := amm.QuoteLiquidity(amountA, reserveIn, reserveOut)
		if err != nil {
			return err
		}

		fmt.Printf("amount_b: %d\n", amountB)
		return nil
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap <trader> <pair> <amountIn> <minAmountOut>",
	Short: "Submit a protected swap to a running API",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		amountIn, err := parseAmount(args[2])
		if err != nil {
			return err
		}
		minAmountOut, err := parseAmount(args[3])
		if err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]any{
			"trader":         args[0],
			"pair":           args[1],
			"amount_in":      amountIn,
			"min_amount_out": minAmountOut,
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequest(http.MethodPost, apiURL+"/v1/swap", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if apiKey != "" {
			req.Header.Set("X-API-Key", apiKey)
		}

		client := &http.Client{Timeout: 15 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("swap rejected (%d): %s", resp.StatusCode, body)
		}

		fmt.Println(string(body))
		return nil
	},
}

func parseAmount(s string) (uint64, error) {
	var n uint64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if n == 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return n, nil
}

func init() {
	quoteCmd.PersistentFlags().Uint64Var(&reserveIn, "reserve-in", 0, "input-side reserve")
	quoteCmd.PersistentFlags().Uint64Var(&reserveOut, "reserve-out", 0, "output-side reserve")
	_ = quoteCmd.MarkPersistentFlagRequired("reserve-in")
	_ = quoteCmd.MarkPersistentFlagRequired("reserve-out")

	quoteCmd.AddCommand(quoteOutCmd)
	quoteCmd.AddCommand(quoteInCmd)
	quoteCmd.AddCommand(quoteLiquidityCmd)

	swapCmd.Flags().StringVar(&apiURL, "api", "http://localhost:8090", "API base URL")
	swapCmd.Flags().StringVar(&apiKey, "api-key", "", "API key (X-API-Key header)")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(swapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
