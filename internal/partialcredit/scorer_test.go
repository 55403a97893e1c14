package partialcredit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathverify/internal/grading"
	"github.com/abhisek/mathverify/internal/llm"
	"github.com/abhisek/mathverify/internal/verify"
)

func wrongItem() grading.Item {
	return grading.Item{
		ID:           "q2",
		SkillID:      "calculus.derivative.chain_rule",
		Kind:         verify.KindDerivative,
		Payload:      map[string]any{"expr": "sin(x^2)", "answer": "cos(x^2)", "var": "x"},
		RawUserValue: "cos(x^2)",
		ParsedSteps:  []string{"outer derivative is cos(x^2)"},
	}
}

func TestLLMScorer_Score(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"delta": 0.5,
		"note": "Good outer derivative; remember the inner factor 2x.",
		"steps": [{"step": "outer derivative is cos(x^2)", "correct": true}]
	}`)})
	s := NewLLMScorer(mock, DefaultConfig())

	credit, err := s.Score(context.Background(), wrongItem(), verify.Mismatch())
	require.NoError(t, err)
	assert.Equal(t, 0.5, credit.Delta)
	assert.Contains(t, credit.Note, "inner factor")
	require.Len(t, credit.StepsDetail, 1)
	assert.True(t, credit.StepsDetail[0].Correct)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, CreditSchema, req.Schema)
	assert.Equal(t, 384, req.MaxTokens)
	msg := req.Messages[0].Content
	assert.Contains(t, msg, "Skill: calculus.derivative.chain_rule")
	assert.Contains(t, msg, "- expr: sin(x^2)")
	assert.Contains(t, msg, "Learner's final answer: cos(x^2)")
	assert.Contains(t, msg, "- outer derivative is cos(x^2)")
	assert.NotContains(t, msg, "- answer:")
}

func TestLLMScorer_SchemaViolation(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"delta": 1.5, "note": "x"}`)})
	s := NewLLMScorer(mock, DefaultConfig())

	_, err := s.Score(context.Background(), wrongItem(), verify.Mismatch())
	var invalid *llm.ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestLLMScorer_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	s := NewLLMScorer(mock, Config{})

	_, err := s.Score(context.Background(), wrongItem(), verify.Mismatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM partial credit failed")
}

func TestLLMScorer_EmptySubmissionSkipsLLM(t *testing.T) {
	mock := llm.NewMockProvider()
	s := NewLLMScorer(mock, DefaultConfig())

	credit, err := s.Score(context.Background(), grading.Item{ID: "q1", Kind: verify.KindEquation}, verify.Mismatch())
	require.NoError(t, err)
	assert.Zero(t, credit.Delta)
	assert.Zero(t, mock.CallCount())
}

func TestLLMScorer_NoWorking(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"delta": 0, "note": "Try isolating x first."}`)})
	s := NewLLMScorer(mock, DefaultConfig())

	item := wrongItem()
	item.ParsedSteps = nil
	credit, err := s.Score(context.Background(), item, verify.Mismatch())
	require.NoError(t, err)
	assert.Zero(t, credit.Delta)
	assert.Contains(t, mock.Calls[0].Messages[0].Content, "The learner showed no working.")
}

func TestLLMScorer_SatisfiesScorer(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"delta": 0.25, "note": "Close."}`)})
	var scorer grading.PartialCreditScorer = NewLLMScorer(mock, DefaultConfig())

	credit, err := scorer.Score(context.Background(), wrongItem(), verify.Mismatch())
	require.NoError(t, err)
	assert.Equal(t, 0.25, credit.Delta)
}

func TestLLMScorer_OfflineProviderAwardsNothing(t *testing.T) {
	p := llm.NewOfflineProvider()
	s := NewLLMScorer(p, DefaultConfig())

	credit, err := s.Score(context.Background(), wrongItem(), verify.Mismatch())
	require.NoError(t, err)
	assert.Zero(t, credit.Delta)
	assert.Empty(t, credit.Note)
	assert.Equal(t, []string{Purpose}, p.Purposes)
}
