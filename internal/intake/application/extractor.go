package application

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

// Key aliases seen across provider versions. The first present key wins.
var (
	submissionKeys        = []string{"submissions", "questionnaireSubmissions"}
	questionnaireIDKeys   = []string{"questionnaireId", "questionnaire_id"}
	questionnaireNameKeys = []string{"questionnaireName", "questionnaire_name"}
	answerListKeys        = []string{"answers"}
	questionIDKeys        = []string{"questionId", "question_id"}
	questionTextKeys      = []string{"question", "questionText", "question_text"}
	answerValueKeys       = []string{"answer", "value"}
	guestNameKeys         = []string{"guestName", "guest_name"}
	createdKeys           = []string{"created", "createdAt"}

	responderNameKeys = []string{"name", "contractor_name", "contractorName"}
	organisationKeys  = []string{"organisation", "organization", "company"}
	mobileKeys        = []string{"mobile", "phone"}
	locationKeys      = []string{"location_name", "locationName", "location"}
	signedInKeys      = []string{"signed_in", "signedIn"}
)

// Extract reads the visit metadata and the ordered submissions from a decoded payload.
// Missing fields default to null or empty; malformed nested items are skipped.
func Extract(tree domain.Tree) (domain.VisitMetadata, []domain.Submission) {
	node := map[string]any(tree)
	meta := domain.VisitMetadata{
		ResponderName: nullableField(node, responderNameKeys),
		Organisation:  nullableField(node, organisationKeys),
		Mobile:        nullableField(node, mobileKeys),
		Location:      nullableField(node, locationKeys),
		SignedIn:      nullableField(node, signedInKeys),
	}

	raw, _ := lookup(node, submissionKeys)
	items := sequence(raw)
	submissions := make([]domain.Submission, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		submissions = append(submissions, extractSubmission(entry))
	}
	return meta, submissions
}

func extractSubmission(node map[string]any) domain.Submission {
	submission := domain.Submission{
		QuestionnaireID:   stringField(node, questionnaireIDKeys),
		QuestionnaireName: stringField(node, questionnaireNameKeys),
		GuestName:         nullableField(node, guestNameKeys),
		Created:           nullableField(node, createdKeys),
		Answers:           []domain.Answer{},
	}

	raw, _ := lookup(node, answerListKeys)
	for _, item := range sequence(raw) {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		value, _ := lookup(entry, answerValueKeys)
		submission.Answers = append(submission.Answers, domain.Answer{
			QuestionID:   stringField(entry, questionIDKeys),
			QuestionText: stringField(entry, questionTextKeys),
			Value:        answerValue(value),
		})
	}
	return submission
}

func lookup(node map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if value, ok := node[key]; ok {
			return value, true
		}
	}
	return nil, false
}

// stringField reads a scalar field as-is. A repeated form key arrives as a list and the
// last scalar wins.
func stringField(node map[string]any, keys []string) string {
	value, ok := lookup(node, keys)
	if !ok {
		return ""
	}
	if items, isList := value.([]any); isList {
		for i := len(items) - 1; i >= 0; i-- {
			if text, ok := scalarString(items[i]); ok {
				return text
			}
		}
		return ""
	}
	text, _ := scalarString(value)
	return text
}

func nullableField(node map[string]any, keys []string) *string {
	return nonBlank(stringField(node, keys))
}

// nonBlank maps empty and whitespace-only text to nil and keeps everything else unchanged.
func nonBlank(text string) *string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return domain.NullableString(text)
}

// sequence accepts a list, an integer-keyed mapping or a lone non-empty mapping.
func sequence(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case map[string]any:
		if items, ok := orderedItems(v); ok {
			return items
		}
		if len(v) == 0 {
			return nil
		}
		return []any{v}
	default:
		return nil
	}
}

func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

// answerValue maps a blank answer to nil; multi-select lists are joined. Non-blank text is kept verbatim.
func answerValue(value any) *string {
	if items, ok := value.([]any); ok {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			text, ok := scalarString(item)
			if !ok || strings.TrimSpace(text) == "" {
				continue
			}
			parts = append(parts, text)
		}
		return nonBlank(strings.Join(parts, ", "))
	}
	text, _ := scalarString(value)
	return nonBlank(text)
}
