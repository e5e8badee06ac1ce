package model

import (
	"time"
)

// Role represents a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a conversation sent to or received from an LLM.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// AgentID identifies the specialized agent a routing decision selects.
type AgentID int

const (
	// AgentUnknown is any routing result outside the known range.
	AgentUnknown AgentID = iota
	// AgentTutor answers questions and keeps a running dialogue.
	AgentTutor
	// AgentExaminer authors a multiple-choice test for the current topic.
	AgentExaminer
	// AgentAnalyser grades the user's answers to the outstanding test.
	AgentAnalyser
	// AgentProblemSolver starts a stepwise explanation.
	AgentProblemSolver
)

// ParseAgentID maps the moderator's numeric code onto an AgentID.
// Out-of-range codes map to AgentUnknown.
func ParseAgentID(n int) AgentID {
	switch AgentID(n) {
	case AgentTutor, AgentExaminer, AgentAnalyser, AgentProblemSolver:
		return AgentID(n)
	default:
		return AgentUnknown
	}
}

// String returns the agent name used in logs and metric labels.
func (a AgentID) String() string {
	switch a {
	case AgentTutor:
		return "tutor"
	case AgentExaminer:
		return "examiner"
	case AgentAnalyser:
		return "analyser"
	case AgentProblemSolver:
		return "problem_solver"
	default:
		return "unknown"
	}
}

// RoutingDecision is the moderator's classification of a user turn.
type RoutingDecision struct {
	Agent       AgentID
	ChangeTopic bool
}

// AnswerKey maps question numbers (1-based) to the correct letter A-D.
type AnswerKey map[int]string

// Result is one completed grading, appended to a session's results log.
type Result struct {
	Topic      string    `json:"topic"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percent    int       `json:"percent"`
	RawAnswers string    `json:"raw_answers"`
	GradedAt   time.Time `json:"graded_at"`
}

// Percent returns floor(score/total*100), or 0 when total is 0.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return score * 100 / total
}

// Progress aggregates a session's results log.
type Progress struct {
	Results        []Result `json:"results"`
	TotalScore     int      `json:"total_score"`
	TotalQuestions int      `json:"total_questions"`
	Percent        int      `json:"percent"`
}

// BotConfig holds runtime parameters set via CLI flags.
type BotConfig struct {
	Lang         string        // language of user-facing text (ru, en)
	HistoryLimit int           // tutor history entries sent per completion
	MaxSteps     int           // upper bound on problem-solver steps
	LLMTimeout   time.Duration // per-call completion timeout
	LLMRetries   int           // retries for retryable completion failures
}

// UnknownTheme is the topic recorded when an exam block carries no THEME line.
const UnknownTheme = "(unknown theme)"
