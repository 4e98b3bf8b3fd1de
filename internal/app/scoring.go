package app

import "quizdeck/internal/domain"

// Evaluate scores a submission against a quiz's question set.
//
// TotalMarks accumulates marks over the entire question set regardless of
// which questions were answered. Each submitted answer is resolved against
// the set by question ID: an unresolved reference scores zero and is marked
// incorrect without aborting the rest of the evaluation, so a stale client
// pointing at a deleted question cannot fail scoring. Comparison of the
// selected answer to the correct answer is exact string equality, case
// sensitive, no trimming. Output order matches submission order.
func Evaluate(questions []domain.Question, answers []domain.SubmittedAnswer) domain.Evaluation {
	byID := make(map[string]*domain.Question, len(questions))
	totalMarks := 0
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
		totalMarks += marksOf(&questions[i])
	}

	evaluated := make([]domain.EvaluatedAnswer, 0, len(answers))
	score := 0
	for _, ans := range answers {
		question, ok := byID[ans.QuestionID]
		if !ok {
			evaluated = append(evaluated, domain.EvaluatedAnswer{
				QuestionID:     ans.QuestionID,
				SelectedAnswer: ans.SelectedAnswer,
				IsCorrect:      false,
				MarksObtained:  0,
			})
			continue
		}

		isCorrect := question.CorrectAnswer == ans.SelectedAnswer
		marksObtained := 0
		if isCorrect {
			marksObtained = marksOf(question)
			score += marksObtained
		}
		evaluated = append(evaluated, domain.EvaluatedAnswer{
			QuestionID:     ans.QuestionID,
			SelectedAnswer: ans.SelectedAnswer,
			IsCorrect:      isCorrect,
			MarksObtained:  marksObtained,
		})
	}

	return domain.Evaluation{
		Answers:    evaluated,
		Score:      score,
		TotalMarks: totalMarks,
	}
}

func marksOf(q *domain.Question) int {
	if q.Marks <= 0 {
		return 1
	}
	return q.Marks
}
