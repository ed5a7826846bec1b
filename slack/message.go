package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"golang.org/x/oauth2"

	"github.com/akawula/fourkeys/fourkeys"
	"github.com/akawula/fourkeys/report"
)

const (
	postMessageURL = "https://slack.com/api/chat.postMessage"
	// Slack rejects messages with more than 50 blocks.
	maxBlocks = 50
)

var ErrMissingToken = errors.New("SLACK_TOKEN is required")

type Block = map[string]interface{}

// Client posts block messages with a bot token.
type Client struct {
	hc      *http.Client
	channel string
	url     string
}

func New(ctx context.Context, token, channel string) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	return &Client{hc: hc, channel: channel, url: postMessageURL}, nil
}

func templateSummary(s *fourkeys.Summary) []Block {
	m := fmt.Sprintf("*%s* %s\nDeployments/day: %.2f (%s)\nLead time: %s (%s)\nChange failure rate: %.2f%% (%s)\nTime to restore: %s (%s)",
		s.Repository, report.TierLabel(s.PerformanceLevel),
		s.DeploymentFrequency.DeploymentsPerDay, s.Tiers.DeploymentFrequency,
		report.Duration(s.LeadTime.AverageLeadTimeHours), s.Tiers.LeadTime,
		s.ChangeFailureRate.FailureRate, s.Tiers.ChangeFailureRate,
		report.Duration(s.MTTR.AverageMTTRHours), s.Tiers.MTTR,
	)
	return []Block{
		{
			"type": "section",
			"text": Block{
				"type": "mrkdwn",
				"text": m,
			},
		},
		{
			"type": "divider",
		},
	}
}

// Digest builds the blocks of the periodic report. failed lists the
// repositories whose summary could not be computed.
func Digest(period fourkeys.Period, summaries []*fourkeys.Summary, failed []string) []Block {
	blocks := []Block{
		{
			"type": "header",
			"text": Block{
				"type":  "plain_text",
				"emoji": true,
				"text":  "Four Keys - " + report.PeriodLabel(period),
			},
		},
		{
			"type": "divider",
		},
	}
	for _, s := range summaries {
		blocks = append(blocks, templateSummary(s)...)
	}
	if len(failed) > 0 {
		blocks = append(blocks, Block{
			"type": "context",
			"elements": []Block{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("Could not compute %d repositories: %v", len(failed), failed),
				},
			},
		})
	}
	return blocks
}

// Send posts blocks, split into as many messages as Slack requires.
func (c *Client) Send(ctx context.Context, blocks []Block) error {
	for chunk := range slices.Chunk(blocks, maxBlocks) {
		if err := c.post(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

type response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (c *Client) post(ctx context.Context, blocks []Block) error {
	payload, err := json.Marshal(Block{
		"channel": c.channel,
		"blocks":  blocks,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}
	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("decoding slack response: %w", err)
	}
	if !r.OK {
		return fmt.Errorf("slack API error: %s", r.Error)
	}
	return nil
}
