package application

import "github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"

// MapAnswers projects answers onto the fields of a QuestionMap. Every declared field is
// present in the result; unanswered fields are nil and the last answer for a question wins.
func MapAnswers(answers []domain.Answer, questions domain.QuestionMap) map[string]any {
	fields := make(map[string]any, len(questions))
	for _, field := range questions {
		fields[field] = nil
	}
	for _, answer := range answers {
		field, ok := questions[answer.QuestionID]
		if !ok {
			continue
		}
		if answer.Value == nil || *answer.Value == "" {
			fields[field] = nil
			continue
		}
		fields[field] = *answer.Value
	}
	return fields
}
