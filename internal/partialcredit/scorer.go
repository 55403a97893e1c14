// Package partialcredit awards fractional credit to wrong answers by asking
// an LLM to judge the learner's working.
package partialcredit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"text/template"

	"github.com/abhisek/mathverify/internal/grading"
	"github.com/abhisek/mathverify/internal/llm"
	"github.com/abhisek/mathverify/internal/verify"
)

// Purpose labels LLM request events made by the scorer.
const Purpose = "partial-credit"

// Config holds configuration for the LLM scorer.
type Config struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   384,
		Temperature: 0.2,
	}
}

// LLMScorer implements grading.PartialCreditScorer with an LLM judge.
type LLMScorer struct {
	provider llm.Provider
	cfg      Config
}

// NewLLMScorer creates an LLM-backed scorer.
func NewLLMScorer(provider llm.Provider, cfg Config) *LLMScorer {
	def := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	return &LLMScorer{provider: provider, cfg: cfg}
}

type creditOutput struct {
	Delta float64              `json:"delta"`
	Note  string               `json:"note"`
	Steps []grading.StepDetail `json:"steps"`
}

// Score asks the LLM how much of the item the learner's working earns.
// Items with nothing submitted earn no credit without an LLM call.
func (s *LLMScorer) Score(ctx context.Context, item grading.Item, outcome verify.Outcome) (grading.Credit, error) {
	if item.RawUserValue == "" && len(item.ParsedSteps) == 0 {
		return grading.Credit{}, nil
	}
	ctx = llm.WithPurpose(ctx, Purpose)

	userMsg, err := buildCreditMessage(item, outcome)
	if err != nil {
		return grading.Credit{}, fmt.Errorf("build partial credit prompt: %w", err)
	}

	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      creditSystemPrompt,
		Messages:    llm.UserMessage(userMsg),
		Schema:      CreditSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return grading.Credit{}, fmt.Errorf("LLM partial credit failed: %w", err)
	}

	var raw creditOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return grading.Credit{}, fmt.Errorf("failed to parse partial credit response: %w", err)
	}

	return grading.Credit{
		Delta:       math.Min(math.Max(raw.Delta, 0), 1),
		Note:        raw.Note,
		StepsDetail: raw.Steps,
	}, nil
}

const creditSystemPrompt = `You are grading one part of a math exercise. The learner's final answer has already been checked and is wrong. Decide how much partial credit their working deserves.

Instructions:
- Award delta between 0.0 and 1.0. Never award 1.0 for a wrong final answer.
- Credit correct setup and correct intermediate steps; give 0.0 when the working shows no valid progress.
- Judge each listed step as correct or not, with a short comment when it is wrong.
- Write the note as one encouraging sentence to the learner. Do not reveal the full solution.`

var creditUserTemplate = template.Must(template.New("credit").Parse(`Skill: {{.SkillID}}
Check kind: {{.Kind}}
Problem:
{{range $k, $v := .Payload}}{{if ne $k "answer"}}- {{$k}}: {{$v}}
{{end}}{{end}}Learner's final answer: {{.Answer}}
Check result: {{.Result}}
{{if .Steps}}Learner's steps:
{{range .Steps}}- {{.}}
{{end}}{{else}}The learner showed no working.
{{end}}`))

func buildCreditMessage(item grading.Item, outcome verify.Outcome) (string, error) {
	result := "mismatch"
	if outcome.ErrorTag != "" {
		result = outcome.ErrorTag
	}
	var buf bytes.Buffer
	err := creditUserTemplate.Execute(&buf, map[string]any{
		"SkillID": item.SkillID,
		"Kind":    item.Kind,
		"Payload": item.Payload,
		"Answer":  item.RawUserValue,
		"Result":  result,
		"Steps":   item.ParsedSteps,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
