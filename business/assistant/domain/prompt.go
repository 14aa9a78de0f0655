package domain

import (
	"fmt"
	"strconv"
	"strings"

	gasdomain "github.com/fd1az/gas-genie/business/gas/domain"
)

// SystemPrompt sets the assistant persona for every completion.
const SystemPrompt = `You are Gas Genie, a friendly and knowledgeable AI assistant specialized in Ethereum gas prices and blockchain transactions.
Your capabilities include:

1. Gas Price Analysis (ONLY when asked about gas prices):
   - Analyze current gas prices and market conditions
   - Predict optimal gas prices for different transaction speeds
   - Explain gas price trends and their implications
   - Provide specific recommendations on when to send transactions

2. General Blockchain Knowledge:
   - Explain blockchain concepts in simple terms
   - Answer questions about Ethereum, smart contracts, and DeFi
   - Provide guidance on wallet security and best practices
   - Help with common transaction issues

3. General Chat and Assistance:
   - Respond naturally to greetings and casual conversation
   - Answer general questions about yourself and your capabilities
   - Provide clear, concise explanations
   - Maintain a warm, approachable tone

Response Guidelines:
1. For greetings and casual conversation, reply briefly and naturally, skip gas analysis unless asked, and ask how you can help today.
2. For specific questions, put the direct answer first and add context only if needed.
3. For gas price questions, start with the recommendation, then the supporting data and reasoning.
4. For blockchain questions, lead with the direct answer and explain in simple terms when useful.
5. For general questions, answer directly in a few sentences.

Remember:
- Put the answer first, then explain if needed
- Be concise and direct
- Adapt your response to the specific question`

// GasPrompt renders the detailed analysis prompt for a gas-related query.
func GasPrompt(query string, rec gasdomain.Recommendation) string {
	prices := rec.CurrentPrices
	trend := rec.PriceTrend
	metrics := rec.NetworkMetrics

	var b strings.Builder
	b.WriteString("Current gas prices and network conditions:\n")
	fmt.Fprintf(&b, "- Safe: %s Gwei\n", formatNumber(prices.Safe))
	fmt.Fprintf(&b, "- Propose: %s Gwei\n", formatNumber(prices.Propose))
	fmt.Fprintf(&b, "- Fast: %s Gwei\n", formatNumber(prices.Fast))
	fmt.Fprintf(&b, "- Base Fee: %s Gwei\n", formatNumber(prices.SuggestedBaseFee))
	b.WriteString("\nNetwork Status:\n")
	fmt.Fprintf(&b, "- Base Fee: %s Gwei\n", formatNumber(metrics.BaseFee))
	fmt.Fprintf(&b, "- Gas Used Ratio: %s\n", formatNumber(metrics.GasUsedRatio))
	fmt.Fprintf(&b, "- Congestion Level: %s\n", metrics.CongestionLevel)
	b.WriteString("\nPrice Trend:\n")
	fmt.Fprintf(&b, "- Trend: %s\n", trend.Trend)
	fmt.Fprintf(&b, "- Change: %.2f%%\n", trend.ChangePercentage)
	fmt.Fprintf(&b, "- Current Price: %s Gwei\n", formatOptional(trend.CurrentPrice))
	fmt.Fprintf(&b, "- Previous Price: %s Gwei\n", formatOptional(trend.PreviousPrice))
	b.WriteString("\nRecommendation:\n")
	fmt.Fprintf(&b, "- Suggested Action: %s\n", rec.Suggestion)
	fmt.Fprintf(&b, "- Recommended Price: %s Gwei\n", formatNumber(rec.RecommendedPrice))
	fmt.Fprintf(&b, "- Confidence: %.1f%%\n", rec.Confidence*100)
	fmt.Fprintf(&b, "\nUser query: %s\n\n", query)
	b.WriteString("Please provide a detailed analysis and recommendation based on the above data. Consider:\n")
	b.WriteString("1. Current network conditions and their impact\n")
	b.WriteString("2. Price trends and their implications\n")
	b.WriteString("3. Specific recommendations for the user's query\n")
	b.WriteString("4. Alternative options if applicable\n")
	b.WriteString("5. Any risks or considerations to be aware of")
	return b.String()
}

// GeneralPrompt renders the short prompt used for non-gas queries.
func GeneralPrompt(query string) string {
	return fmt.Sprintf("User query: %s\n\nPlease provide a helpful and friendly response. Keep it concise and natural.", query)
}

// PricesPrompt renders a compact prompt carrying only the current tiers.
func PricesPrompt(query string, prices gasdomain.Observation) string {
	var b strings.Builder
	b.WriteString("Current gas prices:\n")
	fmt.Fprintf(&b, "- Safe: %s Gwei\n", formatNumber(prices.Safe))
	fmt.Fprintf(&b, "- Propose: %s Gwei\n", formatNumber(prices.Propose))
	fmt.Fprintf(&b, "- Fast: %s Gwei\n", formatNumber(prices.Fast))
	fmt.Fprintf(&b, "- Base Fee: %s Gwei\n", formatNumber(prices.SuggestedBaseFee))
	fmt.Fprintf(&b, "\nUser query: %s", query)
	return b.String()
}

// formatNumber prints the shortest exact form, always with a decimal point
// (20 -> "20.0", 30.5 -> "30.5").
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatOptional(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return formatNumber(*v)
}
