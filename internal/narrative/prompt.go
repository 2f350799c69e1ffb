package narrative

import (
	"fmt"
	"strings"

	"github.com/hakivo/brief-engine/internal/aggregator"
	"github.com/hakivo/brief-engine/internal/models"
)

func scriptSystemPrompt(pc Context) string {
	cadence := "today's"
	if pc.BriefType == models.BriefTypeWeekly {
		cadence = "this week's"
	}
	return fmt.Sprintf(`You are writing %s personalized civic news brief as a natural two-host audio conversation between %s and %s.

Rules:
- The very first line of your output must be exactly: HEADLINE: <a short punchy headline for this brief>
- After the headline line, write only the dialogue. Prefix every line with "%s:" or "%s:".
- Open with the top story, then cover the remaining items as shorter spotlight mentions.
- Use only the facts provided. Never invent bill numbers, sponsors, votes, or outcomes.
- Keep it conversational and grounded, around 900 words.`, cadence, SpeakerA, SpeakerB, SpeakerA, SpeakerB)
}

func scriptUserPrompt(pc Context, content *aggregator.Content) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Listener: %s", orUnknown(pc.UserName, "a subscriber"))
	if pc.UserState != "" {
		fmt.Fprintf(&b, " from %s", pc.UserState)
	}
	b.WriteString("\n\n")

	top, rest := splitTopStory(content.Bills)
	if top != nil {
		b.WriteString("TOP STORY (lead with this):\n")
		b.WriteString(billBlock(top.Bill, top.FromRepresentative))
		b.WriteString("\n")
	}
	if len(rest) > 0 {
		b.WriteString("SPOTLIGHT BILLS:\n")
		for _, sb := range rest {
			b.WriteString(billBlock(sb.Bill, sb.FromRepresentative))
			b.WriteString("\n")
		}
	}
	if len(content.StateBills) > 0 {
		fmt.Fprintf(&b, "STATE LEGISLATURE (%s):\n", pc.UserState)
		for _, sb := range content.StateBills {
			b.WriteString(stateBillBlock(sb))
			b.WriteString("\n")
		}
	}
	if len(content.News) > 0 {
		b.WriteString("IN THE NEWS:\n")
		for _, item := range content.News {
			fmt.Fprintf(&b, "- %s", item.Title)
			if item.Summary != "" {
				fmt.Fprintf(&b, " — %s", item.Summary)
			}
			b.WriteString("\n")
		}
	}
	if top == nil && len(content.News) == 0 {
		b.WriteString("(No legislative or news items were available this period; acknowledge the quiet period and keep the brief short.)\n")
	}

	return b.String()
}

func articleSystemPrompt(pc Context) string {
	cadence := "daily"
	if pc.BriefType == models.BriefTypeWeekly {
		cadence = "weekly"
	}
	return fmt.Sprintf(`You are a civic affairs journalist writing a reader's %s written brief to accompany an audio episode.

Rules:
- Write a clear, formal article of roughly 600 words with short paragraphs.
- Use only the facts provided. Never invent bill numbers, sponsors, votes, or outcomes.
- Do not include a title; the headline is supplied separately.`, cadence)
}

func articleUserPrompt(pc Context, headline string, content *aggregator.Content) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Episode headline: %s\n\n", headline)

	top, rest := splitTopStory(content.Bills)
	if top != nil {
		b.WriteString("LEAD:\n")
		b.WriteString(billBlock(top.Bill, top.FromRepresentative))
		b.WriteString("\n")
	}
	for _, sb := range rest {
		b.WriteString(billBlock(sb.Bill, sb.FromRepresentative))
		b.WriteString("\n")
	}
	if len(content.StateBills) > 0 {
		fmt.Fprintf(&b, "STATE LEGISLATURE (%s):\n", pc.UserState)
		for _, sb := range content.StateBills {
			b.WriteString(stateBillBlock(sb))
			b.WriteString("\n")
		}
	}
	if len(content.News) > 0 {
		b.WriteString("RELATED NEWS:\n")
		for _, item := range content.News {
			fmt.Fprintf(&b, "- %s (%s)\n", item.Title, item.URL)
		}
	}

	return b.String()
}

// splitTopStory picks the top story, preferring a representative-sponsored
// bill: "your senator did this" beats topical relevance.
func splitTopStory(bills []aggregator.SelectedBill) (*aggregator.SelectedBill, []aggregator.SelectedBill) {
	if len(bills) == 0 {
		return nil, nil
	}
	topIdx := 0
	for i, b := range bills {
		if b.FromRepresentative {
			topIdx = i
			break
		}
	}
	top := bills[topIdx]
	rest := make([]aggregator.SelectedBill, 0, len(bills)-1)
	rest = append(rest, bills[:topIdx]...)
	rest = append(rest, bills[topIdx+1:]...)
	return &top, rest
}

// billBlock serializes a bill into the structured fact block embedded in
// prompts, keeping the model grounded in verifiable detail.
func billBlock(b models.Bill, fromRepresentative bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- Bill: %s — %s\n", strings.ToUpper(b.BillID), b.Title)
	if b.PolicyArea != "" {
		fmt.Fprintf(&sb, "  Category: %s\n", b.PolicyArea)
	}
	if b.SponsorName != "" {
		fmt.Fprintf(&sb, "  Sponsor: %s (%s-%s)", b.SponsorName, b.SponsorParty, b.SponsorState)
		if fromRepresentative {
			sb.WriteString(" — the listener's own representative")
		}
		sb.WriteString("\n")
	}
	if b.LatestActionText != "" {
		fmt.Fprintf(&sb, "  Latest action (%s): %s\n", b.LatestActionDate.Format("Jan 2"), b.LatestActionText)
	}
	if b.SourceURL != "" {
		fmt.Fprintf(&sb, "  Reference: %s\n", b.SourceURL)
	}
	return sb.String()
}

func stateBillBlock(b models.StateBill) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- %s %s — %s\n", b.State, b.BillNumber, b.Title)
	if b.LatestActionText != "" {
		fmt.Fprintf(&sb, "  Latest action (%s): %s\n", b.LatestActionDate.Format("Jan 2"), b.LatestActionText)
	}
	if b.SourceURL != "" {
		fmt.Fprintf(&sb, "  Reference: %s\n", b.SourceURL)
	}
	return sb.String()
}

func orUnknown(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
