// Package infra contains infrastructure adapters for the opportunity context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	trendDomain "github.com/fd1az/product-scout/business/trend/domain"
	"github.com/fd1az/product-scout/internal/money"
)

const rule = "================================================================================"
const thinRule = "--------------------------------------------------------------------------------"

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out  io.Writer
	topN int
}

// NewConsoleReporter creates a ConsoleReporter printing at most topN
// opportunities per scan. A nil writer means stdout.
func NewConsoleReporter(out io.Writer, topN int) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out, topN: topN}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Product Scout Started")
	fmt.Fprintln(r.out, "=====================")
	return nil
}

// Report prints the scan summary and the top opportunities.
func (r *ConsoleReporter) Report(ctx context.Context, snap *domain.Snapshot) error {
	s := snap.Summary

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "SCAN #%d  %s\n", snap.Scan, snap.ScannedAt.Format(time.RFC3339))
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "Evaluated:      %d\n", snap.Evaluated)
	fmt.Fprintf(r.out, "Opportunities:  %d\n", s.Count)
	if s.Count == 0 {
		fmt.Fprintln(r.out, "No candidates passed the margin and risk gates.")
		fmt.Fprintln(r.out, rule)
		return nil
	}
	fmt.Fprintf(r.out, "Mean margin:    %.2f%%\n", s.MeanMarginPct)
	fmt.Fprintf(r.out, "Mean conf.:     %.1f\n", s.MeanConfidence)
	fmt.Fprintf(r.out, "Risk levels:    low %d / medium %d / high %d\n",
		s.RiskHistogram[trendDomain.TierLow], s.RiskHistogram[trendDomain.TierMedium], s.RiskHistogram[trendDomain.TierHigh])
	fmt.Fprintf(r.out, "Top category:   %s\n", s.TopCategory)

	for i, o := range snap.Top(r.topN) {
		r.printOpportunity(i+1, &o)
	}
	fmt.Fprintln(r.out, rule)
	return nil
}

func (r *ConsoleReporter) printOpportunity(rank int, o *domain.Opportunity) {
	p := o.Profit
	fmt.Fprintln(r.out, thinRule)
	fmt.Fprintf(r.out, "#%d %s  (confidence %.1f)\n", rank, o.ProductName(), o.Confidence)
	fmt.Fprintf(r.out, "  Keyword:      %s [%s]\n", o.Profile.Keyword, o.Profile.Category)
	fmt.Fprintf(r.out, "  Trend:        %.0f/100, growth %+.1f%%\n", o.Profile.TrendScore, o.Profile.GrowthRate)
	fmt.Fprintf(r.out, "  Buy / Sell:   %s / %s\n", money.Format(p.BasePrice), money.Format(p.ResalePrice))
	fmt.Fprintf(r.out, "  Total cost:   %s\n", money.Format(p.TotalCost))
	fmt.Fprintf(r.out, "  Net profit:   %s (margin %.2f%%, ROI %.2f%%)\n", money.Format(p.NetProfit), p.MarginPct, p.ROIPct)
	fmt.Fprintf(r.out, "  Break-even:   %d units\n", p.BreakEvenQty)
	fmt.Fprintf(r.out, "  Risk:         %s (%.2f), max investment %s, stop loss %s\n",
		o.Risk.RiskLevel, o.Risk.OverallRiskScore, money.Format(o.Risk.MaxInvestment), money.Format(o.Risk.StopLossPrice))
	if len(o.ViralSignals) > 0 {
		fmt.Fprintf(r.out, "  Signals:      %s\n", strings.Join(o.ViralSignals, ", "))
	}
	for _, f := range o.Risk.RiskFactors {
		fmt.Fprintf(r.out, "  ! %s\n", f)
	}
}

// ReportError prints a failed scan.
func (r *ConsoleReporter) ReportError(ctx context.Context, err error) {
	fmt.Fprintf(r.out, "[%s] scan failed: %v\n", time.Now().Format("15:04:05"), err)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Product Scout Stopped")
	return nil
}
