package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/astadocs/internal/llm"
)

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Draft implements llm.Drafter. The model's content is returned even when it
// does not validate; Valid reports whether it matched the schema, possibly
// after sanitizing. Errors are reserved for transport and envelope failures.
func (c *Client) Draft(ctx context.Context, req llm.DraftRequest) (llm.DraftResult, error) {
	rid := uuid.NewString()
	start := time.Now()
	schema := llm.SchemaFor(req.Kind)

	c.logger.Info("draft.openai.start",
		"request_id", rid,
		"file", req.FileID,
		"kind", req.Kind,
		"model", c.cfg.Model,
		"len", len(req.Text),
		"image", req.ImageDataURL != "",
	)

	user := llm.BuildUserPrompt(llm.PromptFor(req.Kind), req.FileID, llm.ClampText(req.Text, c.cfg.MaxChars))
	var userContent any = user
	if req.ImageDataURL != "" {
		userContent = []map[string]any{
			{"type": "text", "text": user},
			{"type": "image_url", "image_url": map[string]any{"url": req.ImageDataURL}},
		}
	}

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   schema.Name,
				"schema": schema.Schema,
				"strict": true,
			},
		},
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": userContent},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("draft.openai.http_error",
			"request_id", rid, "file", req.FileID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.DraftResult{Model: c.cfg.Model, Elapsed: time.Since(start)}, fmt.Errorf("openai draft: %w", err)
	}

	var cc chatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("draft.openai.decode_error", "request_id", rid, "error", err, "len", len(raw))
		return llm.DraftResult{Model: c.cfg.Model, Elapsed: time.Since(start)}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("draft.openai.no_choices", "request_id", rid)
		return llm.DraftResult{Model: c.cfg.Model, Elapsed: time.Since(start)}, fmt.Errorf("no choices in openai response")
	}

	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))
	res := llm.DraftResult{Raw: content, Model: c.cfg.Model}

	if err := llm.ValidateJSONAgainstSchema(schema, content); err == nil {
		res.Valid = true
	} else {
		cleaned, notes, sErr := llm.NormalizeAndSanitizeJSON(schema, content, c.logger)
		switch {
		case sErr != nil:
			c.logger.Warn("draft.openai.sanitize_failed", "request_id", rid, "file", req.FileID, "error", sErr)
		case llm.ValidateJSONAgainstSchema(schema, cleaned) == nil:
			c.logger.Warn("draft.openai.sanitized", "request_id", rid, "file", req.FileID, "notes", notes)
			res.Raw = cleaned
			res.Valid = true
		default:
			c.logger.Warn("draft.openai.schema_invalid", "request_id", rid, "file", req.FileID, "error", err)
			res.Raw = cleaned
		}
	}

	res.Elapsed = time.Since(start)
	c.logger.Info("draft.openai.ok",
		"request_id", rid,
		"file", req.FileID,
		"valid", res.Valid,
		"len", len(res.Raw),
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	return res, nil
}
