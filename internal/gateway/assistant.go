package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const (
	// ReferencesSeparator introduces the list of document URLs in a reply.
	ReferencesSeparator = "\n\nRelevant documents:\n"
	FallbackReply       = "I apologize, but there was an error processing your request. Please try again later."
)

// AssistantReply is the text appended to the transcript for one question.
type AssistantReply struct {
	Text     string
	DocURLs  []string
	Fallback bool
}

type assistantResult struct {
	Output  *string  `json:"output"`
	DocURLs []string `json:"doc_urls"`
}

// AskAssistant never fails: any error is logged and replaced by FallbackReply.
func (c *Client) AskAssistant(ctx context.Context, question string) AssistantReply {
	result, err := c.askAssistant(ctx, question)
	if err != nil {
		c.logger.Warn("assistant request failed", zap.Error(err))
		return AssistantReply{Text: FallbackReply, Fallback: true}
	}
	return result
}

func (c *Client) askAssistant(ctx context.Context, question string) (AssistantReply, error) {
	const op = "ask assistant"
	raw, err := c.postJSON(ctx, op, c.endpoints.ChatWebhook, map[string]string{"question": question})
	if err != nil {
		return AssistantReply{}, err
	}

	var results []assistantResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return AssistantReply{}, malformed(op, err)
	}
	if len(results) == 0 {
		return AssistantReply{}, malformed(op, errors.New("empty result list"))
	}
	first := results[0]
	if first.Output == nil || strings.TrimSpace(*first.Output) == "" {
		return AssistantReply{}, malformed(op, errors.New("missing output"))
	}

	urls := make([]string, 0, len(first.DocURLs))
	for _, u := range first.DocURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return AssistantReply{Text: FormatReply(*first.Output, urls), DocURLs: urls}, nil
}

// FormatReply appends the references section when urls is not empty.
func FormatReply(output string, urls []string) string {
	if len(urls) == 0 {
		return output
	}
	return output + ReferencesSeparator + strings.Join(urls, "\n")
}
