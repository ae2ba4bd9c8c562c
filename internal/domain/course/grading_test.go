package course

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skillbridge-hub/skillbridge-engine/internal/domain/shared"
)

func sampleQuiz() *Quiz {
	return &Quiz{
		Questions: []Question{
			{
				ID: "q1", Type: QuestionMultipleChoice, Points: 3,
				Options: []Option{
					{Text: "interface"},
					{Text: "struct", IsCorrect: true},
					{Text: "map"},
				},
			},
			{
				ID: "q2", Type: QuestionTrueFalse, Points: 2,
				Options: []Option{
					{Text: "true", IsCorrect: true},
					{Text: "false"},
				},
			},
			{
				ID: "q3", Type: QuestionFillBlank, Points: 1,
				CorrectAnswer: "goroutine",
			},
		},
		AttemptsAllowed: 3,
		XPReward:        100,
	}
}

func TestQuiz_Grade(t *testing.T) {
	quiz := sampleQuiz()

	// 5 of 6 points: round(100*5/6) = 83, above the default threshold of 70.
	score, passed := quiz.Grade(map[string]string{
		"q1": "struct",
		"q2": "true",
		"q3": "channel",
	})
	assert.Equal(t, 83, score)
	assert.True(t, passed)

	// 3 of 6 points fails.
	score, passed = quiz.Grade(map[string]string{"q1": "struct"})
	assert.Equal(t, 50, score)
	assert.False(t, passed)

	// Free-text answers compare case-insensitively after trimming.
	score, _ = quiz.Grade(map[string]string{"q3": "  GoRoutine "})
	assert.Equal(t, 17, score)
}

func TestQuiz_GradeMissingAnswersCountAsWrong(t *testing.T) {
	quiz := sampleQuiz()

	score, passed := quiz.Grade(map[string]string{})
	assert.Equal(t, 0, score)
	assert.False(t, passed)
}

func TestQuiz_EffectivePassingScore(t *testing.T) {
	quiz := sampleQuiz()
	assert.Equal(t, DefaultPassingScore, quiz.EffectivePassingScore())

	quiz.PassingScore = 90
	assert.Equal(t, 90, quiz.EffectivePassingScore())

	// 83 no longer passes against the raised threshold.
	_, passed := quiz.Grade(map[string]string{"q1": "struct", "q2": "true"})
	assert.False(t, passed)
}

func TestAttemptXP(t *testing.T) {
	quiz := sampleQuiz()

	assert.Equal(t, 100, AttemptXP(quiz, true))
	assert.Equal(t, 30, AttemptXP(quiz, false))

	quiz.XPReward = 45
	assert.Equal(t, 13, AttemptXP(quiz, false)) // floor(45 * 0.3)
}

func TestProgress_RecordQuizAttempt(t *testing.T) {
	c := fourModuleCourse()
	c.Quiz = sampleQuiz()
	p := NewProgress("user1", c.ID)

	result, err := p.RecordQuizAttempt(c, map[string]string{"q1": "struct"}, 5*time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 50, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, 1, result.AttemptNumber)
	assert.Equal(t, 50, p.BestQuizScore)
	assert.False(t, p.QuizPassed)

	result, err = p.RecordQuizAttempt(c, map[string]string{
		"q1": "struct", "q2": "true", "q3": "goroutine",
	}, 4*time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, 100, p.BestQuizScore)
	assert.True(t, p.QuizPassed)

	// QuizPassed is sticky across a later failing attempt.
	result, err = p.RecordQuizAttempt(c, map[string]string{}, time.Minute)
	assert.NoError(t, err)
	assert.False(t, result.Passed)
	assert.True(t, p.QuizPassed)
	assert.Equal(t, 100, p.BestQuizScore)
}

func TestProgress_RecordQuizAttempt_Limit(t *testing.T) {
	c := fourModuleCourse()
	c.Quiz = sampleQuiz()
	c.Quiz.AttemptsAllowed = 2
	p := NewProgress("user1", c.ID)

	for i := 0; i < 2; i++ {
		_, err := p.RecordQuizAttempt(c, map[string]string{}, time.Minute)
		assert.NoError(t, err)
	}

	_, err := p.RecordQuizAttempt(c, map[string]string{}, time.Minute)
	assert.True(t, shared.IsConflict(err))
	assert.Len(t, p.QuizAttempts, 2)
}

func TestProgress_RecordQuizAttempt_NoQuiz(t *testing.T) {
	c := fourModuleCourse()
	p := NewProgress("user1", c.ID)

	_, err := p.RecordQuizAttempt(c, map[string]string{}, time.Minute)
	assert.True(t, shared.IsInvalidState(err))
}
