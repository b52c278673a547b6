package costledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

const reviewSystemPrompt = "You are an investment accounting assistant. You are given a " +
	"holdings snapshot produced by a weighted-average-cost ledger. Comment on position " +
	"concentration, cost basis, and realized performance. Do not invent figures that are " +
	"not in the data."

// ReviewRequest asks for AI commentary over one batch's holdings snapshot.
type ReviewRequest struct {
	BatchID string
	Level   string
	AsOf    string
}

// ReviewHoldings builds a holdings snapshot for the request, asks the
// configured provider for commentary, stores the result, and returns it.
// API keys come from the environment only (ANTHROPIC_API_KEY,
// OPENAI_API_KEY, GEMINI_API_KEY).
func (c *Core) ReviewHoldings(ctx context.Context, req ReviewRequest) (*ReviewResult, error) {
	settings, err := c.GetAISettings()
	if err != nil {
		return nil, err
	}
	model := resolveAIModel(settings)

	holdings, err := c.SnapshotBatchHoldings(req.BatchID, req.Level, req.AsOf)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, NewError(ErrCodeInvalidInput, "no open positions to review")
	}
	level, _ := findLevel(c.levels, req.Level)

	annotated, err := c.BuildBatchLedger(req.BatchID)
	if err != nil {
		return nil, err
	}

	prompt := buildReviewPrompt(holdings, level, annotated, settings.Tone, req.AsOf)
	hash := sha256.Sum256([]byte(prompt))
	promptHash := hex.EncodeToString(hash[:])

	commentary, err := c.requestCommentary(ctx, settings.Provider, model, prompt)
	if err != nil {
		return nil, err
	}

	result := &ReviewResult{
		BatchID:    req.BatchID,
		Level:      req.Level,
		AsOf:       req.AsOf,
		Provider:   settings.Provider,
		Model:      model,
		Commentary: commentary,
		PromptHash: promptHash,
	}
	res, err := c.db.Exec(`
		INSERT INTO ai_reviews (batch_id, level, as_of, provider, model, commentary, prompt_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.BatchID, result.Level, nullIfEmpty(result.AsOf), result.Provider, result.Model, result.Commentary, result.PromptHash)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "save review", err)
	}
	result.ID, _ = res.LastInsertId()
	c.addOperationLog("REVIEW_HOLDINGS", &req.BatchID, fmt.Sprintf("level=%s provider=%s", req.Level, settings.Provider))
	return result, nil
}

// buildReviewPrompt renders the snapshot and realized-P&L totals into a
// compact textual table the model can reason over.
func buildReviewPrompt(holdings []Holding, level Level, annotated []AnnotatedTransaction, tone, asOf string) string {
	var sb strings.Builder
	sb.WriteString("Consolidation level: ")
	sb.WriteString(level.Name)
	if asOf != "" {
		sb.WriteString("\nAs of: ")
		sb.WriteString(asOf)
	}
	sb.WriteString("\n\nOpen positions:\n")
	for _, h := range holdings {
		var keys []string
		for _, col := range level.Keys {
			keys = append(keys, h.Keys[col])
		}
		group := strings.Join(keys, " / ")
		if group == "" {
			group = "(all)"
		}
		fmt.Fprintf(&sb, "- %s | %s | qty %s | cost USD %s | WAC USD %s | last trade %s\n",
			group, h.Security,
			formatAmount(h.CurrentQuantity), formatAmount(h.CurrentCostUSD),
			formatAmount(h.WACPerUnitUSD), h.LastTradeDate)
	}

	var realizedUSD float64
	for i := range annotated {
		if asOf != "" && annotated[i].TradeDate > asOf {
			continue
		}
		realizedUSD += annotated[i].Levels[level.Name].RealizedGainLossUSD
	}
	fmt.Fprintf(&sb, "\nRealized gain/loss to date (USD): %s\n", formatAmount(realizedUSD))

	if tone == "detailed" {
		sb.WriteString("\nWrite a detailed review, one paragraph per notable position.")
	} else {
		sb.WriteString("\nWrite a short review of at most five sentences.")
	}
	return sb.String()
}

func (c *Core) requestCommentary(ctx context.Context, provider, model, prompt string) (string, error) {
	switch provider {
	case "anthropic":
		return requestAnthropic(ctx, model, prompt)
	case "openai":
		return requestOpenAI(ctx, model, prompt)
	case "gemini":
		return requestGemini(ctx, model, prompt)
	}
	return "", NewError(ErrCodeUnsupported, fmt.Sprintf("unknown provider %q", provider))
}

func requestAnthropic(ctx context.Context, model, prompt string) (string, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return "", NewError(ErrCodeValidation, "ANTHROPIC_API_KEY is not set")
	}
	client := anthropic.NewClient(anthropicoption.WithAPIKey(key))
	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: reviewSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", WrapError(ErrCodeInternal, "anthropic request failed", err)
	}
	var sb strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	if sb.Len() == 0 {
		return "", NewError(ErrCodeInternal, "anthropic response contained no text")
	}
	return sb.String(), nil
}

func requestOpenAI(ctx context.Context, model, prompt string) (string, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return "", NewError(ErrCodeValidation, "OPENAI_API_KEY is not set")
	}
	client := openai.NewClient(openaioption.WithAPIKey(key))
	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(reviewSystemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", WrapError(ErrCodeInternal, "openai request failed", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", NewError(ErrCodeInternal, "openai response contained no text")
	}
	return completion.Choices[0].Message.Content, nil
}

func requestGemini(ctx context.Context, model, prompt string) (string, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		return "", NewError(ErrCodeValidation, "GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", WrapError(ErrCodeInternal, "gemini client init failed", err)
	}
	response, err := client.Models.GenerateContent(ctx, model,
		genai.Text(reviewSystemPrompt+"\n\n"+prompt), nil)
	if err != nil {
		return "", WrapError(ErrCodeInternal, "gemini request failed", err)
	}
	text := response.Text()
	if text == "" {
		return "", NewError(ErrCodeInternal, "gemini response contained no text")
	}
	return text, nil
}

// GetReviews returns stored reviews for one batch, newest first.
func (c *Core) GetReviews(batchID string, limit int) ([]ReviewResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := c.db.Query(`
		SELECT id, batch_id, level, as_of, provider, model, commentary, prompt_hash, created_at
		FROM ai_reviews WHERE batch_id = ? ORDER BY id DESC LIMIT ?
	`, batchID, limit)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "load reviews", err)
	}
	defer rows.Close()

	var reviews []ReviewResult
	for rows.Next() {
		var review ReviewResult
		var asOf, createdAt any
		if err := rows.Scan(&review.ID, &review.BatchID, &review.Level, &asOf,
			&review.Provider, &review.Model, &review.Commentary, &review.PromptHash, &createdAt); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan review", err)
		}
		if s, ok := asOf.(string); ok {
			review.AsOf = s
		}
		if s, ok := createdAt.(string); ok {
			review.CreatedAt = s
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
