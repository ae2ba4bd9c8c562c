package course

import (
	"math"
	"strings"
	"time"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ GRADING
// ══════════════════════════════════════════════════════════════════════════════

// FailedAttemptXPShare is the fraction of the quiz XP reward earned by a
// failing attempt. Each attempt is rewarded exactly once, pass or fail.
const FailedAttemptXPShare = 0.3

// AttemptResult describes one graded quiz attempt.
type AttemptResult struct {
	Score         int
	Passed        bool
	AttemptNumber int

	// JustCompleted - the pass pushed the course aggregate to 100 for the
	// first time.
	JustCompleted bool
}

// Grade scores a set of answers against the quiz. Choice questions compare
// the submitted option text to the single flagged-correct option; free-text
// questions compare case-insensitively after trimming.
func (q *Quiz) Grade(answers map[string]string) (score int, passed bool) {
	maxPoints := q.MaxPoints()
	if maxPoints == 0 {
		return 0, false
	}

	earned := 0
	for _, question := range q.Questions {
		submitted, ok := answers[question.ID]
		if !ok {
			continue
		}
		if question.isCorrect(submitted) {
			earned += question.Points
		}
	}

	score = int(math.Round(100 * float64(earned) / float64(maxPoints)))
	return score, score >= q.EffectivePassingScore()
}

// isCorrect checks one submission against the question's answer key.
func (q Question) isCorrect(submitted string) bool {
	switch q.Type {
	case QuestionMultipleChoice, QuestionTrueFalse:
		correct, ok := q.CorrectOptionText()
		return ok && submitted == correct
	case QuestionFillBlank, QuestionShortAnswer:
		return strings.EqualFold(
			strings.TrimSpace(submitted),
			strings.TrimSpace(q.CorrectAnswer),
		)
	default:
		return false
	}
}

// RecordQuizAttempt grades a submission, appends the attempt and recomputes
// the aggregate. Fails with a conflict once the attempt limit is reached and
// with a state error when the course has no quiz.
func (p *Progress) RecordQuizAttempt(c *Course, answers map[string]string, timeSpent time.Duration) (AttemptResult, error) {
	if p.IsTerminal() {
		return AttemptResult{}, shared.NewDomainError("course", "RecordQuizAttempt",
			shared.ErrInvalidState, "progress record is abandoned")
	}
	if !c.HasQuiz() {
		return AttemptResult{}, shared.NewDomainError("course", "RecordQuizAttempt",
			shared.ErrInvalidState, "course "+c.ID+" has no quiz")
	}
	quiz := c.Quiz
	if quiz.AttemptsAllowed > 0 && len(p.QuizAttempts) >= quiz.AttemptsAllowed {
		return AttemptResult{}, shared.Conflictf("course", "RecordQuizAttempt",
			"attempt limit of %d reached", quiz.AttemptsAllowed)
	}

	score, passed := quiz.Grade(answers)

	p.QuizAttempts = append(p.QuizAttempts, QuizAttempt{
		Score:       score,
		Passed:      passed,
		Answers:     answers,
		TimeSpent:   timeSpent,
		SubmittedAt: time.Now().UTC(),
	})
	if score > p.BestQuizScore {
		p.BestQuizScore = score
	}
	p.QuizPassed = p.QuizPassed || passed

	justCompleted := p.recompute(c)
	p.UpdatedAt = time.Now().UTC()

	return AttemptResult{
		Score:         score,
		Passed:        passed,
		AttemptNumber: len(p.QuizAttempts),
		JustCompleted: justCompleted,
	}, nil
}

// AttemptXP returns the XP earned by a single attempt: the full quiz reward
// on a pass, 30% of it otherwise.
func AttemptXP(quiz *Quiz, passed bool) int {
	if passed {
		return quiz.XPReward
	}
	return int(math.Floor(float64(quiz.XPReward) * FailedAttemptXPShare))
}
