package application

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

// BuildResult groups rows by destination id. Destinations without rows are absent.
type BuildResult struct {
	Rows     map[string][]domain.Row
	Skipped  []domain.Skip
	Warnings []domain.FieldWarning
}

// RowCount returns the number of rows across all destinations.
func (r BuildResult) RowCount() int {
	total := 0
	for _, rows := range r.Rows {
		total += len(rows)
	}
	return total
}

// BuildRows routes each submission to its destination by questionnaire id and shapes one row per
// submission. Unknown questionnaires are skipped and uncoercible values become nil.
func BuildRows(meta domain.VisitMetadata, submissions []domain.Submission, catalog domain.Catalog, rawPayload, receivedAt string) BuildResult {
	result := BuildResult{Rows: make(map[string][]domain.Row)}

	for i, submission := range submissions {
		dest, ok := catalog.Resolve(submission.QuestionnaireID)
		if !ok {
			result.Skipped = append(result.Skipped, domain.Skip{Index: i, QuestionnaireID: submission.QuestionnaireID})
			continue
		}
		row, warnings := buildRow(dest, meta, submission, rawPayload, receivedAt)
		result.Rows[dest.ID] = append(result.Rows[dest.ID], row)
		result.Warnings = append(result.Warnings, warnings...)
	}
	return result
}

func buildRow(dest domain.Destination, meta domain.VisitMetadata, submission domain.Submission, rawPayload, receivedAt string) (domain.Row, []domain.FieldWarning) {
	row := domain.Row{
		domain.FieldResponderName:     domain.StringValue(firstPresent(submission.GuestName, meta.ResponderName)),
		domain.FieldSubmitted:         domain.StringValue(firstPresent(submission.Created, meta.SignedIn)),
		domain.FieldLocation:          domain.StringValue(meta.Location),
		domain.FieldOrganisation:      domain.StringValue(meta.Organisation),
		domain.FieldMobile:            domain.StringValue(meta.Mobile),
		domain.FieldQuestionnaireID:   submission.QuestionnaireID,
		domain.FieldQuestionnaireName: submission.QuestionnaireName,
		domain.FieldRawPayload:        rawPayload,
		domain.FieldReceivedAt:        receivedAt,
	}

	var warnings []domain.FieldWarning
	mapped := MapAnswers(submission.Answers, dest.Questions)
	for _, field := range dest.Questions.Fields() {
		value := mapped[field]
		if dest.IsInteger(field) {
			coerced, ok := coerceInteger(value)
			if !ok {
				warnings = append(warnings, domain.FieldWarning{Destination: dest.ID, Field: field, Raw: fmt.Sprint(value)})
			}
			value = coerced
		}
		row[field] = value
	}

	for _, alias := range dest.Aliases {
		row[alias.To] = row[alias.From]
	}
	return row, warnings
}

func firstPresent(values ...*string) *string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// coerceInteger parses string values as integers. ok is false only when a non-nil value
// could not be parsed.
func coerceInteger(value any) (any, bool) {
	text, isString := value.(string)
	if !isString {
		return nil, value == nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return nil, false
	}
	return parsed, true
}
