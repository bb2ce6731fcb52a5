package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"expenseintel/internal/cache"
	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

const (
	analysisSampleSize = 50

	// Analyses are advisory and expensive to produce; serving one a little
	// stale is fine.
	analysisCacheSize = 256
	analysisCacheTTL  = 15 * time.Minute
)

type AISuggestion struct {
	Category  string  `json:"category"`
	Reduction float64 `json:"reduction"`
	Reason    string  `json:"reason"`
}

type AIAnalysis struct {
	Summary          string         `json:"summary"`
	SavingsTip       string         `json:"savings_tip"`
	Suggestions      []AISuggestion `json:"suggestions"`
	DisciplineScore  int            `json:"discipline_score"`
	SavingsRate      float64        `json:"savings_rate"`
	TimelineImpact   string         `json:"timeline_impact"`
	SavingsPotential float64        `json:"savings_potential"`
	RiskLevel        string         `json:"risk_level"`
}

// AIService turns recent spending into a structured analysis via Gemini.
// Without an API key it serves a fixed placeholder instead of failing.
type AIService struct {
	expenses storage.ExpenseRepository
	model    string
	results  *cache.LRU[AIAnalysis]
	generate func(ctx context.Context, prompt string) (string, error)
}

func NewAIService(ctx context.Context, apiKey, model string, expenses storage.ExpenseRepository) (*AIService, error) {
	s := &AIService{
		expenses: expenses,
		model:    model,
		results:  cache.NewLRU[AIAnalysis](analysisCacheSize, analysisCacheTTL),
	}
	if apiKey == "" {
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	s.generate = func(ctx context.Context, prompt string) (string, error) {
		contents := []*genai.Content{
			{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
		}
		resp, err := client.Models.GenerateContent(ctx, s.model, contents, nil)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		return resp.Text(), nil
	}
	return s, nil
}

func (s *AIService) Enabled() bool {
	return s.generate != nil
}

func (s *AIService) AnalyzeExpenses(ctx context.Context, ownerID uuid.UUID) (AIAnalysis, error) {
	if !s.Enabled() {
		return disabledAnalysis(), nil
	}

	if cached, ok := s.results.Get(ownerID.String()); ok {
		return cached, nil
	}

	list, err := s.expenses.ListByOwner(ctx, ownerID, storage.ExpenseFilter{
		Limit:     analysisSampleSize,
		SortBy:    storage.SortByDate,
		SortOrder: storage.Descending,
	})
	if err != nil {
		return AIAnalysis{}, fmt.Errorf("load expenses for analysis: %w", err)
	}

	prompt, err := buildAnalysisPrompt(list.Items)
	if err != nil {
		return AIAnalysis{}, err
	}

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return AIAnalysis{}, fmt.Errorf("AI analysis: %w", err)
	}
	if raw == "" {
		return AIAnalysis{}, fmt.Errorf("AI analysis: empty response from model")
	}

	var analysis AIAnalysis
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &analysis); err != nil {
		return AIAnalysis{}, fmt.Errorf("AI analysis: unmarshal model response: %w", err)
	}

	s.results.Set(ownerID.String(), analysis)
	return analysis, nil
}

// expenseSample is the trimmed view the model sees. No IDs, no owner.
type expenseSample struct {
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Emotion     string  `json:"emotion,omitempty"`
	IsAvoidable bool    `json:"is_avoidable"`
	Date        string  `json:"date"`
}

func buildAnalysisPrompt(expenses []core.Expense) (string, error) {
	samples := make([]expenseSample, 0, len(expenses))
	for _, e := range expenses {
		samples = append(samples, expenseSample{
			Title:       e.Title,
			Amount:      e.Amount.Float64(),
			Category:    e.Category,
			Emotion:     e.Emotion,
			IsAvoidable: e.IsAvoidable,
			Date:        e.Date.String(),
		})
	}

	data, err := json.Marshal(samples)
	if err != nil {
		return "", fmt.Errorf("marshal expense sample: %w", err)
	}

	return "Analyze the following expense data and provide a structured JSON response.\n" +
		"Data: " + string(data) + "\n\n" +
		"Return JSON with fields:\n" +
		"- \"summary\": string, a human-readable summary of spending habits\n" +
		"- \"savings_tip\": string, a single high-impact sentence of advice\n" +
		"- \"suggestions\": array of 3 objects with keys \"category\" (string), \"reduction\" (number), \"reason\" (string)\n" +
		"- \"discipline_score\": integer from 0 to 100 reflecting budget adherence\n" +
		"- \"savings_rate\": number from 0 to 1 representing savings vs spending\n" +
		"- \"timeline_impact\": string describing how current spending affects goals\n" +
		"- \"savings_potential\": number, estimated monthly savings\n" +
		"- \"risk_level\": one of \"Low\", \"Medium\", \"High\"\n\n" +
		"Return ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences.\n" +
		"Do NOT use ```json or any Markdown.\n" +
		"Output must begin with \"{\" and end with \"}\".\n", nil
}

func disabledAnalysis() AIAnalysis {
	return AIAnalysis{
		Summary:    "AI analysis is currently disabled (API key missing).",
		SavingsTip: "Configure GEMINI_API_KEY to enable spending analysis.",
		Suggestions: []AISuggestion{
			{Category: "General", Reduction: 0, Reason: "Add API key"},
		},
		DisciplineScore:  0,
		SavingsRate:      0,
		TimelineImpact:   "N/A",
		SavingsPotential: 0,
		RiskLevel:        "Unknown",
	}
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
