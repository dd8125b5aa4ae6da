package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"flip-lending/domain"
	"flip-lending/service"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute deal metrics and the risk report offline",
		Example: `  flip-lending analyze --purchase-price 200000 --rehab 50000 --arv 350000
  flip-lending analyze --purchase-price 550000 --rehab 90000 --arv 750000 --credit-score 720 --deals 12 --json`,
		RunE: runAnalyze,
	}

	cmd.Flags().Float64("purchase-price", 0, "purchase price in USD")
	cmd.Flags().Float64("rehab", 0, "rehab budget in USD")
	cmd.Flags().Float64("arv", 0, "after-repair value in USD")
	cmd.Flags().Int("credit-score", 0, "borrower credit score (enables the risk report)")
	cmd.Flags().Int("deals", 0, "borrower completed flips (enables the risk report)")
	cmd.Flags().Bool("json", false, "print JSON instead of text")
	cmd.MarkFlagsRequiredTogether("credit-score", "deals")

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	price, _ := flags.GetFloat64("purchase-price")
	rehab, _ := flags.GetFloat64("rehab")
	arv, _ := flags.GetFloat64("arv")
	asJSON, _ := flags.GetBool("json")

	input := domain.CalculatorInput{
		PurchasePrice:    price,
		RehabBudget:      rehab,
		AfterRepairValue: arv,
	}
	if flags.Changed("credit-score") {
		credit, _ := flags.GetInt("credit-score")
		deals, _ := flags.GetInt("deals")
		input.CreditScore = &credit
		input.CompletedDeals = &deals
	}

	result, err := service.Calculate(input)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	f := result.Financials
	fmt.Fprintf(out, "LTV: %.0f%%  LTC: %.0f%%  Risk: %s\n", f.LoanToValue, f.LoanToCost, result.RiskTier)
	fmt.Fprintf(out, "Total cost: %.2f  Profit: %.2f  ROI: %.2f%%\n", f.TotalCost, f.ProjectedProfit, f.ReturnOnInvestment)
	if result.Text != "" {
		fmt.Fprintf(out, "\n%s\n", result.Text)
	}
	return nil
}
