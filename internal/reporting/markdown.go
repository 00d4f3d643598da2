package reporting

import (
	"fmt"
	"strings"
	"time"

	"wallet-scout/internal/domain"
)

// RenderMarkdown renders the summary as a Markdown string.
func RenderMarkdown(s *Summary) string {
	var sb strings.Builder

	sb.WriteString("# Wallet Evaluation Run\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", s.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategy: %s | Wallets: %d\n\n", s.StrategyName, s.TotalWallets))

	sb.WriteString("## Tiers\n\n")
	sb.WriteString("| Tier | Wallets |\n")
	sb.WriteString("|------|--------|\n")
	for _, tier := range []domain.Tier{domain.TierActive, domain.TierCandidate, domain.TierRejected} {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", tier, s.TierCounts[tier]))
	}
	sb.WriteString("\n")

	sb.WriteString("## Backtest Outcomes\n\n")
	if len(s.StatusCounts) > 0 {
		sb.WriteString("| Status | Wallets |\n")
		sb.WriteString("|--------|--------|\n")
		for _, status := range s.sortedStatuses() {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", status, s.StatusCounts[status]))
		}
	} else {
		sb.WriteString("No wallets reached the backtest stage.\n")
	}
	sb.WriteString("\n")

	if len(s.ErrorWallets) > 0 {
		sb.WriteString("## Evaluation Errors\n\n")
		for _, addr := range s.ErrorWallets {
			sb.WriteString(fmt.Sprintf("- %s\n", addr))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Publication\n\n")
	if s.Published {
		sb.WriteString(fmt.Sprintf("Published %d records to `%s`.\n", s.RecordCount, s.RosterPath))
	} else {
		sb.WriteString("Roster was NOT published.\n")
	}

	return sb.String()
}

// RenderText renders the summary as a compact plain-text block for
// terminal output.
func RenderText(s *Summary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("=== Run summary (%s) ===\n", s.StrategyName))
	sb.WriteString(fmt.Sprintf("Wallets evaluated: %d\n", s.TotalWallets))
	sb.WriteString(fmt.Sprintf("  ACTIVE:    %d\n", s.TierCounts[domain.TierActive]))
	sb.WriteString(fmt.Sprintf("  CANDIDATE: %d\n", s.TierCounts[domain.TierCandidate]))
	sb.WriteString(fmt.Sprintf("  REJECTED:  %d\n", s.TierCounts[domain.TierRejected]))

	if len(s.StatusCounts) > 0 {
		sb.WriteString("Backtest outcomes:\n")
		for _, status := range s.sortedStatuses() {
			sb.WriteString(fmt.Sprintf("  %-27s %d\n", status, s.StatusCounts[status]))
		}
	}
	if len(s.ErrorWallets) > 0 {
		sb.WriteString(fmt.Sprintf("Errors: %d wallet(s)\n", len(s.ErrorWallets)))
	}

	if s.Published {
		sb.WriteString(fmt.Sprintf("Published %d records to %s\n", s.RecordCount, s.RosterPath))
	} else {
		sb.WriteString("Roster NOT published\n")
	}

	return sb.String()
}
