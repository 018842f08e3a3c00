package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"subforge/internal/language"
	"subforge/internal/services"
	"subforge/internal/subtitles"
)

var translationSystemPrompt = `You translate subtitle captions.
Output only the translated captions, one per line, in the same order as the input.
Every input line must produce exactly one output line. Do not merge, split, number, or annotate lines.
Keep the token ` + subtitles.LineBreakToken + ` wherever it appears; it marks a line break inside a caption.
Translate proper nouns and names accurately and match the tone and style of the original.
If a caption carries formatting tags, keep the formatting in the translation.`

// Translate sends text to the model and returns its translation into
// targetLanguage. The text is one caption per line; the reply keeps that shape.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	targetLanguage = strings.TrimSpace(targetLanguage)
	if strings.TrimSpace(text) == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "translate", "text required", nil)
	}
	if targetLanguage == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "translate", "target language required", nil)
	}
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "llm", "translate", "api key required", nil)
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: translationSystemPrompt},
			{Role: "user", Content: buildTranslationPrompt(text, language.PromptName(targetLanguage))},
		},
		Temperature: 0.2,
	}
	content, err := c.completionContentWithRetry(ctx, payload, "translate")
	if err != nil {
		return "", err
	}
	return stripCodeFenceBlock(content), nil
}

func buildTranslationPrompt(text, targetLanguage string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate all the captions below into %s. ", targetLanguage)
	b.WriteString("Only output the translated content, with each line corresponding to the original caption line.\n\n")
	b.WriteString(text)
	return b.String()
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "llm", "health", "api key required", nil)
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: "Respond with {\"ok\":true}"},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	content, err := c.completionContentWithRetry(ctx, payload, "health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal([]byte(stripCodeFenceBlock(content)), &parsed); err != nil {
		return fmt.Errorf("llm health: parse payload (snippet: %s): %w", summarizePayloadSnippet(content), err)
	}
	if !parsed.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

// stripCodeFenceBlock removes a surrounding Markdown code fence, including an
// optional language tag, that some models wrap their output in. Only trailing
// whitespace is trimmed: a leading blank line stands for an empty caption.
func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimLeftFunc(content, unicode.IsSpace)
	if !strings.HasPrefix(trimmed, "```") {
		return strings.TrimRightFunc(content, unicode.IsSpace)
	}
	body := trimmed[3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.Contains(strings.TrimSpace(body[:nl]), " ") {
		body = body[nl+1:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimRightFunc(body, unicode.IsSpace)
}
