package quiz

import (
	"context"
	"strings"

	appI18n "github.com/pavelanni/lumira/internal/i18n"
	"github.com/pavelanni/lumira/internal/model"
)

const (
	// MissingAnswer marks a question the user did not answer.
	MissingAnswer = "—"
	// MissingKey marks a question number absent from a sparse answer key.
	MissingKey = "?"
)

// QuestionResult is the outcome for one question.
type QuestionResult struct {
	Number  int
	Given   string
	Correct string
}

// OK reports whether the given letter matches the key.
func (q QuestionResult) OK() bool {
	return q.Given == q.Correct
}

// Grade is the outcome of checking one answer submission.
type Grade struct {
	Score     int
	Total     int
	Unparsed  bool
	Questions []QuestionResult
}

// Percent returns the rounded-down percentage of correct answers.
func (g Grade) Percent() int {
	return model.Percent(g.Score, g.Total)
}

// GradeAnswers checks raw user text against key. Questions 1..len(key) are
// visited in ascending order. When nothing in raw parses, the result is
// flagged Unparsed with a zero score so the caller can ask for a resubmission.
// The key is never modified.
func GradeAnswers(key model.AnswerKey, raw string) Grade {
	total := len(key)
	g := Grade{Total: total}

	parsed := ParseAnswers(raw, total)
	if len(parsed) == 0 {
		g.Unparsed = true
		return g
	}

	g.Questions = make([]QuestionResult, 0, total)
	for n := 1; n <= total; n++ {
		correct, ok := key[n]
		if !ok {
			correct = MissingKey
		}
		given, ok := parsed[n]
		if !ok {
			given = MissingAnswer
		}
		qr := QuestionResult{Number: n, Given: given, Correct: strings.ToUpper(correct)}
		if qr.OK() {
			g.Score++
		}
		g.Questions = append(g.Questions, qr)
	}
	return g
}

// Report renders the grade as user-facing text: a "score/total" header
// followed by one line per question.
func (g Grade) Report(ctx context.Context) string {
	if g.Unparsed {
		return appI18n.T(ctx, "GradeUnparsed")
	}

	lines := make([]string, 0, len(g.Questions))
	for _, q := range g.Questions {
		data := map[string]any{"Number": q.Number, "Given": q.Given, "Correct": q.Correct}
		if q.OK() {
			lines = append(lines, appI18n.Td(ctx, "GradeLineCorrect", data))
		} else {
			lines = append(lines, appI18n.Td(ctx, "GradeLineWrong", data))
		}
	}

	header := appI18n.Td(ctx, "GradeHeader", map[string]any{"Score": g.Score, "Total": g.Total})
	return header + "\n\n" + strings.Join(lines, "\n")
}
