// Package summarization writes a short situation briefing for a forecast run.
package summarization

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"

	"herdwatch/types"
)

const maxAlertsInPrompt = 6
const maxPromptLength = 15000 // Rough character limit for prompt

// ChatCompleter is satisfied by *openai.Client.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Brief returns a briefing for the run, or "" when there is nothing to report.
func Brief(ctx context.Context, client ChatCompleter, run types.ForecastRun) (string, error) {
	if len(run.Report.Alerts) == 0 {
		log.Printf("Run %s has no alerts. Skipping briefing.", run.ID)
		return "", nil
	}

	log.Printf("Requesting briefing from OpenAI for run %s...", run.ID)
	prompt := BuildPrompt(run)
	resp, err := client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4oMini,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are an assistant that briefs peacekeeping field teams on predicted pastoralist herd movements and conflict risk. Be factual and concise.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   250,
			N:           1,
			Temperature: 0.3,
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai chat completion error: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned empty response or choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildPrompt lists the run's alerts and suggested actions in priority order.
func BuildPrompt(run types.ForecastRun) string {
	names := make(map[string]string, len(run.Herds))
	for _, h := range run.Herds {
		names[h.ID] = h.Name
	}
	herd := func(id string) string {
		if n := names[id]; n != "" {
			return n
		}
		return id
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Forecast from day %d over %d days. %d herds tracked.\n\nAlerts:\n",
		run.Day, run.ForecastDays, len(run.Herds))

	for i, a := range run.Report.Alerts {
		if i >= maxAlertsInPrompt {
			break
		}
		where := a.LocationName
		if where == "" {
			where = fmt.Sprintf("%.3f, %.3f", a.Location.Lat, a.Location.Lng)
		}
		fmt.Fprintf(&b, "- %s severity (%s): %s and %s converge near %s in %d day(s), %.1f km apart. Triggers: %s.",
			a.Severity, a.Category, herd(a.HerdA), herd(a.HerdB), where, a.DaysAway, a.DistanceKM, firedTriggers(a.Triggers))
		if a.NearestPost != "" {
			fmt.Fprintf(&b, " Nearest post: %s (%.0f km).", a.NearestPost, a.NearestPostKM)
		}
		b.WriteString("\n")
		for _, act := range a.Actions {
			fmt.Fprintf(&b, "  * %s %s: %s\n", act.Kind, herd(act.HerdID), act.Rationale)
		}
	}

	b.WriteString("\nWrite a briefing of 3-4 sentences: which convergences need attention first, where, and the recommended actions.")

	prompt := b.String()
	if len(prompt) > maxPromptLength {
		log.Printf("Warning: Prompt for run %s exceeds max length (%d), truncating.", run.ID, maxPromptLength)
		prompt = prompt[:maxPromptLength]
	}
	return prompt
}

func firedTriggers(t types.Triggers) string {
	var fired []string
	if t.ResourceScarcity {
		fired = append(fired, fmt.Sprintf("resource scarcity (CSI %.2f)", t.CSI))
	}
	if t.Settlement {
		fired = append(fired, "settlement "+t.NearestSettlement)
	}
	if t.Farmland {
		fired = append(fired, "farmland "+t.NearestFarm)
	}
	if t.ConflictHistory {
		fired = append(fired, fmt.Sprintf("conflict history (score %.2f)", t.ConflictScore))
	}
	if len(fired) == 0 {
		return "none"
	}
	return strings.Join(fired, ", ")
}
