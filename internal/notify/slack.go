package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"depscan/internal/risk"
)

// SlackNotifier posts risk prediction cards to a Slack incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	Client     *http.Client
}

// NewSlackNotifier creates a webhook notifier. The URL is validated at
// send time so that an unconfigured notifier can still be constructed.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify renders the prediction into a Block Kit card and posts it. Errors
// cover configuration, network, and non-2xx responses; callers treat all
// of them as non-fatal for the pipeline.
func (s *SlackNotifier) Notify(ctx context.Context, pred *risk.Prediction) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}

	msg := BuildMessage(BuildPayload(pred))

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.WebhookURL, client, msg); err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	return nil
}

// BuildMessage renders the payload into the Block Kit wire format: a
// header block, a context line, one section group per risk tier, the
// suggested fixes, and the closing status line.
func BuildMessage(p *Payload) *slack.WebhookMessage {
	var blocks []slack.Block

	icon := ":white_check_mark:"
	if p.Urgent {
		icon = ":rotating_light:"
	}
	blocks = append(blocks,
		slack.NewHeaderBlock(slack.NewTextBlockObject(
			slack.PlainTextType, fmt.Sprintf("%s %s", icon, p.Title), true, false)),
		slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*%s* — scanned %s", p.Project, p.Timestamp.Format("2006-01-02 15:04 MST")), false, false)),
	)

	for _, tier := range p.Tiers {
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*%s risk dependencies (%d)*", titleCase(string(tier.Level)), tier.Total), false, false), nil, nil),
		)
		for _, entry := range tier.Entries {
			blocks = append(blocks, slack.NewSectionBlock(
				slack.NewTextBlockObject(slack.MarkdownType, renderEntry(entry), false, false), nil, nil))
		}
		if tier.Elided > 0 {
			blocks = append(blocks, slack.NewContextBlock("",
				slack.NewTextBlockObject(slack.MarkdownType,
					fmt.Sprintf("...and %d more", tier.Elided), false, false)))
		}
	}

	if len(p.Fixes) > 0 {
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
				"*Suggested fixes*", false, false), nil, nil),
		)
		var lines []string
		for _, fix := range p.Fixes {
			lines = append(lines, fmt.Sprintf("• `%s` %s → %s (%s)",
				fix.Package, fix.From, fix.To, fix.Priority))
		}
		if p.MoreFixes > 0 {
			lines = append(lines, fmt.Sprintf("...and %d more", p.MoreFixes))
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, strings.Join(lines, "\n"), false, false), nil, nil))
	}

	blocks = append(blocks,
		slack.NewDividerBlock(),
		slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, p.StatusLine, false, false)),
	)

	return &slack.WebhookMessage{
		Username: "depscan",
		// Fallback text for notification previews and clients without
		// Block Kit support.
		Text:   fmt.Sprintf("%s: %s — %s", p.Title, p.Project, p.StatusLine),
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

func renderEntry(e Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* — score %.1f, %s", e.Package, e.Score, e.Urgency)

	if e.WorstTitle != "" {
		fmt.Fprintf(&b, "\n> %s (_%s_", e.WorstTitle, e.WorstSev)
		if e.CVSS > 0 {
			fmt.Fprintf(&b, ", CVSS %.1f", e.CVSS)
		}
		b.WriteString(")")
	}
	if len(e.CWEs) > 0 {
		fmt.Fprintf(&b, "\n> %s", strings.Join(e.CWEs, ", "))
	}
	if len(e.Path) > 0 {
		path := strings.Join(e.Path, " > ")
		if e.PathElided {
			path += " > ..."
		}
		fmt.Fprintf(&b, "\n> via %s", path)
	}
	if e.WorstTitle != "" {
		fmt.Fprintf(&b, "\n> upgradable: %s, patchable: %s", yesNo(e.Upgradable), yesNo(e.Patchable))
	}
	if e.SuggestedFix != "" {
		fmt.Fprintf(&b, "\n> fix: %s", e.SuggestedFix)
	}
	if e.Description != "" {
		fmt.Fprintf(&b, "\n> %s", e.Description)
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
