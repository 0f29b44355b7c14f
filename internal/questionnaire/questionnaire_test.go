package questionnaire

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allAnswered(q *Questionnaire, value string) map[string]string {
	out := make(map[string]string, q.Len())
	for _, question := range q.Questions {
		out[question.Text] = value
	}
	return out
}

func TestDefault(t *testing.T) {
	q := Default()
	assert.Equal(t, "phq9", q.ID)
	assert.Equal(t, 9, q.Len())
	assert.Equal(t, 27, q.MaxScore())
	require.Len(t, q.Options, 4)
	assert.Equal(t, "Совсем нет", q.Options[0].Label)
	assert.Equal(t, 8, q.Questions[8].Index)
}

func TestClassify(t *testing.T) {
	q := Default()
	tests := []struct {
		score int
		level string
		label string
	}{
		{0, "minimal", "Минимальная депрессия"},
		{4, "minimal", "Минимальная депрессия"},
		{5, "mild", "Лёгкая депрессия"},
		{9, "mild", "Лёгкая депрессия"},
		{10, "moderate", "Умеренная депрессия"},
		{14, "moderate", "Умеренная депрессия"},
		{15, "moderately_severe", "Умеренно тяжёлая депрессия"},
		{19, "moderately_severe", "Умеренно тяжёлая депрессия"},
		{20, "severe", "Тяжёлая депрессия"},
		{27, "severe", "Тяжёлая депрессия"},
		{99, "severe", "Тяжёлая депрессия"},
	}
	for _, tt := range tests {
		got := q.Classify(tt.score)
		assert.Equal(t, Severity{Level: tt.level, Label: tt.label}, got, "score %d", tt.score)
	}
}

func TestScore(t *testing.T) {
	q := Default()

	t.Run("sums answers", func(t *testing.T) {
		res, err := q.Score([]int{0, 1, 2, 3, 0, 1, 2, 3, 0})
		require.NoError(t, err)
		assert.Equal(t, 12, res.Score)
		assert.Equal(t, "moderate", res.Severity.Level)
	})

	t.Run("wrong count", func(t *testing.T) {
		_, err := q.Score([]int{1, 2, 3})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidAnswers))
		assert.Contains(t, err.Error(), "expected 9 answers, got 3")
	})

	t.Run("value outside scale", func(t *testing.T) {
		_, err := q.Score([]int{0, 0, 0, 0, 4, 0, 0, 0, 0})
		require.ErrorIs(t, err, ErrInvalidAnswers)
		_, err = q.Score([]int{0, 0, 0, 0, -1, 0, 0, 0, 0})
		require.ErrorIs(t, err, ErrInvalidAnswers)
	})
}

func TestResolve(t *testing.T) {
	q := Default()

	t.Run("numbers and labels", func(t *testing.T) {
		answers := allAnswered(q, "2")
		answers[q.Questions[0].Text] = "  почти   КАЖДЫЙ день "
		answers[q.Questions[1].Text] = "Совсем нет"

		res, err := q.Resolve(answers)
		require.NoError(t, err)
		assert.True(t, res.Scored())
		want := []int{3, 0, 2, 2, 2, 2, 2, 2, 2}
		if diff := cmp.Diff(want, res.Values); diff != "" {
			t.Errorf("values mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, "Совсем нет", res.Answers[q.Questions[1].Text])
	})

	t.Run("question keys are matched loosely", func(t *testing.T) {
		answers := allAnswered(q, "0")
		delete(answers, q.Questions[0].Text)
		answers["  МАЛО интереса или   удовольствия от занятий"] = "1"
		res, err := q.Resolve(answers)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Values[0])
		assert.Equal(t, "1", res.Answers[q.Questions[0].Text])
	})

	t.Run("free text is kept but not scored", func(t *testing.T) {
		answers := allAnswered(q, "1")
		answers[q.Questions[4].Text] = "иногда, по выходным"
		res, err := q.Resolve(answers)
		require.NoError(t, err)
		assert.False(t, res.Scored())
		assert.Equal(t, -1, res.Values[4])
		assert.Equal(t, "иногда, по выходным", res.Answers[q.Questions[4].Text])
	})

	t.Run("missing question", func(t *testing.T) {
		answers := allAnswered(q, "1")
		delete(answers, q.Questions[8].Text)
		_, err := q.Resolve(answers)
		require.ErrorIs(t, err, ErrInvalidAnswers)
		assert.Contains(t, err.Error(), "question 9 is not answered")
	})

	t.Run("unknown question", func(t *testing.T) {
		answers := allAnswered(q, "1")
		answers["Как погода?"] = "1"
		_, err := q.Resolve(answers)
		require.ErrorIs(t, err, ErrInvalidAnswers)
	})

	t.Run("duplicate after normalization", func(t *testing.T) {
		answers := allAnswered(q, "1")
		answers[" "+q.Questions[2].Text+" "] = "2"
		_, err := q.Resolve(answers)
		require.ErrorIs(t, err, ErrInvalidAnswers)
		assert.Contains(t, err.Error(), "more than once")
	})

	t.Run("blank answer", func(t *testing.T) {
		answers := allAnswered(q, "1")
		answers[q.Questions[3].Text] = "   "
		_, err := q.Resolve(answers)
		require.ErrorIs(t, err, ErrInvalidAnswers)
	})
}

func TestAnswerMap(t *testing.T) {
	q := Default()
	m := q.AnswerMap([]int{0, 1, 2, 3, 0, 1, 2, 3, 0})
	assert.Len(t, m, 9)
	assert.Equal(t, "Совсем нет", m[q.Questions[0].Text])
	assert.Equal(t, "Почти каждый день", m[q.Questions[3].Text])
}

func TestLoad(t *testing.T) {
	t.Run("empty path is the default", func(t *testing.T) {
		q, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "phq9", q.ID)
	})

	t.Run("override file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gad2.yaml")
		doc := `
id: gad2
title: GAD-2
questions:
  - Nervous, anxious or on edge
  - Not able to stop worrying
options:
  - {label: Not at all, value: 0}
  - {label: Several days, value: 1}
  - {label: More than half the days, value: 2}
  - {label: Nearly every day, value: 3}
bands:
  - {max: 6, level: high, label: High}
  - {max: 2, level: low, label: Low}
`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
		q, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 6, q.MaxScore())
		assert.Equal(t, "low", q.Classify(2).Level)
		assert.Equal(t, "high", q.Classify(3).Level)

		res, err := q.Score([]int{1, 3})
		require.NoError(t, err)
		assert.Equal(t, Result{Score: 4, Severity: Severity{Level: "high", Label: "High"}}, res)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"no id":              "questions: [a]\noptions: [{label: x, value: 0}, {label: y, value: 1}]\nbands: [{max: 1, level: l}]",
		"no questions":       "id: x\noptions: [{label: x, value: 0}, {label: y, value: 1}]\nbands: [{max: 1, level: l}]",
		"one option":         "id: x\nquestions: [a]\noptions: [{label: x, value: 0}]\nbands: [{max: 1, level: l}]",
		"duplicate values":   "id: x\nquestions: [a]\noptions: [{label: x, value: 1}, {label: y, value: 1}]\nbands: [{max: 1, level: l}]",
		"short bands":        "id: x\nquestions: [a, b]\noptions: [{label: x, value: 0}, {label: y, value: 3}]\nbands: [{max: 5, level: l}]",
		"duplicate question": "id: x\nquestions: [a, ' A ']\noptions: [{label: x, value: 0}, {label: y, value: 1}]\nbands: [{max: 2, level: l}]",
		"not yaml":           "id: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
