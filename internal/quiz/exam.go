package quiz

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pavelanni/lumira/internal/model"
)

var (
	// ErrMissingAnswers is returned when the exam block has no ANSWERS line.
	ErrMissingAnswers = errors.New("exam block has no ANSWERS line")
	// ErrEmptyAnswerKey is returned when the ANSWERS line holds no usable pairs.
	ErrEmptyAnswerKey = errors.New("exam block ANSWERS line has no valid entries")
	// ErrMissingQuestions is returned when the exam block has no QUESTIONS section.
	ErrMissingQuestions = errors.New("exam block has no QUESTIONS section")
)

var (
	themeRe   = regexp.MustCompile(`THEME:[ \t]*(.*)`)
	answersRe = regexp.MustCompile(`ANSWERS:[ \t]*(.*)`)
	// A THEME or ANSWERS line after the questions ends the block.
	sectionEndRe = regexp.MustCompile(`(?m)^[ \t]*(?:THEME|ANSWERS):`)
)

const questionsMarker = "QUESTIONS:"

// Exam is a parsed exam block. Questions is the only part shown to the user;
// Key stays server-side until grading.
type Exam struct {
	Questions string
	Key       model.AnswerKey
	Theme     string
}

// ParseExam splits an examiner document of the form
//
//	THEME: Planets of the Solar System
//	ANSWERS: 1A 2B 3C 4D 5A
//	QUESTIONS:
//	1. ...
//
// Each section is located independently. A missing THEME yields
// model.UnknownTheme. A missing ANSWERS line or QUESTIONS section is an error;
// the returned Exam then carries only the theme.
func ParseExam(text string) (Exam, error) {
	exam := Exam{Theme: model.UnknownTheme}

	if m := themeRe.FindStringSubmatch(text); m != nil {
		if theme := strings.TrimSpace(m[1]); theme != "" {
			exam.Theme = theme
		}
	}

	m := answersRe.FindStringSubmatch(text)
	if m == nil {
		return exam, ErrMissingAnswers
	}
	key := parseKey(m[1])

	idx := strings.Index(text, questionsMarker)
	if idx < 0 {
		return exam, ErrMissingQuestions
	}
	rest := text[idx+len(questionsMarker):]
	if loc := sectionEndRe.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	questions := strings.TrimSpace(rest)
	if questions == "" {
		return exam, ErrMissingQuestions
	}

	if len(key) == 0 {
		return exam, ErrEmptyAnswerKey
	}

	exam.Questions = questions
	exam.Key = key
	return exam, nil
}

// parseKey reads tokens like "12B" into question 12 -> "B". Tokens shorter
// than two characters or without a numeric prefix are skipped.
func parseKey(line string) model.AnswerKey {
	key := make(model.AnswerKey)
	for _, tok := range strings.Fields(line) {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		letter, size := utf8.DecodeLastRuneInString(tok)
		n, err := strconv.Atoi(tok[:len(tok)-size])
		if err != nil || n < 1 {
			continue
		}
		key[n] = strings.ToUpper(string(letter))
	}
	return key
}
