package questionnaire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAnswers wraps every validation failure of a set of answers.
var ErrInvalidAnswers = errors.New("invalid answers")

// Severity is the classification of a total score.
type Severity struct {
	Level string `json:"level"`
	Label string `json:"label"`
}

// Result is a scored submission.
type Result struct {
	Score    int      `json:"score"`
	Severity Severity `json:"severity"`
}

// Resolved is a question-keyed submission mapped onto the questionnaire.
type Resolved struct {
	// Answers holds the trimmed raw answer per question, keyed by the canonical question text.
	Answers map[string]string
	// Values holds the ordinal per question index; -1 marks a free-text answer.
	Values []int
}

// Scored reports whether every answer resolved to an ordinal.
func (r *Resolved) Scored() bool {
	for _, v := range r.Values {
		if v < 0 {
			return false
		}
	}
	return len(r.Values) > 0
}

// Score sums ordinal answers given in question order.
func (q *Questionnaire) Score(answers []int) (Result, error) {
	if len(answers) != len(q.Questions) {
		return Result{}, fmt.Errorf("%w: expected %d answers, got %d", ErrInvalidAnswers, len(q.Questions), len(answers))
	}
	total := 0
	for i, v := range answers {
		if !q.values[v] {
			return Result{}, fmt.Errorf("%w: answer %d has unsupported value %d", ErrInvalidAnswers, i+1, v)
		}
		total += v
	}
	return Result{Score: total, Severity: q.Classify(total)}, nil
}

// Classify returns the severity band for score. Scores above every band get
// the last band.
func (q *Questionnaire) Classify(score int) Severity {
	for _, b := range q.Bands {
		if score <= b.Max {
			return Severity{Level: b.Level, Label: b.Label}
		}
	}
	last := q.Bands[len(q.Bands)-1]
	return Severity{Level: last.Level, Label: last.Label}
}

// Resolve maps answers keyed by question text onto the questionnaire. Every
// question needs exactly one non-empty answer. Values that are an option value
// or an option label become ordinals; anything else is kept as free text.
func (q *Questionnaire) Resolve(answers map[string]string) (*Resolved, error) {
	res := &Resolved{
		Answers: make(map[string]string, len(q.Questions)),
		Values:  make([]int, len(q.Questions)),
	}
	seen := make([]bool, len(q.Questions))

	for key, raw := range answers {
		idx, ok := q.byText[normalize(key)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown question %q", ErrInvalidAnswers, key)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: question %d answered more than once", ErrInvalidAnswers, idx+1)
		}
		value := strings.TrimSpace(raw)
		if value == "" {
			return nil, fmt.Errorf("%w: question %d has an empty answer", ErrInvalidAnswers, idx+1)
		}
		seen[idx] = true
		res.Answers[q.Questions[idx].Text] = value
		res.Values[idx] = q.ordinal(value)
	}

	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: question %d is not answered", ErrInvalidAnswers, i+1)
		}
	}
	return res, nil
}

// AnswerMap renders ordinal answers as the question-keyed form.
func (q *Questionnaire) AnswerMap(values []int) map[string]string {
	labels := make(map[int]string, len(q.Options))
	for _, opt := range q.Options {
		labels[opt.Value] = opt.Label
	}
	out := make(map[string]string, len(values))
	for i, v := range values {
		if i >= len(q.Questions) {
			break
		}
		if l, ok := labels[v]; ok {
			out[q.Questions[i].Text] = l
		} else {
			out[q.Questions[i].Text] = strconv.Itoa(v)
		}
	}
	return out
}

func (q *Questionnaire) ordinal(value string) int {
	if n, err := strconv.Atoi(value); err == nil && q.values[n] {
		return n
	}
	if n, ok := q.byLabel[normalize(value)]; ok {
		return n
	}
	return -1
}

// normalize lowercases and collapses whitespace so keys survive trivial edits.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
