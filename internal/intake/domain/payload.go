package domain

// Tree is the normalized form of a webhook body regardless of wire encoding.
// Branches are map[string]any or []any; leaves are string, json.Number, bool or nil.
type Tree map[string]any

// Answer is a single question response inside a submission.
type Answer struct {
	QuestionID   string  `json:"questionId" bson:"questionId"`
	QuestionText string  `json:"questionText,omitempty" bson:"questionText,omitempty"`
	Value        *string `json:"answer" bson:"answer"`
}

// Submission is one questionnaire response within a webhook call.
type Submission struct {
	QuestionnaireID   string   `json:"questionnaireId" bson:"questionnaireId"`
	QuestionnaireName string   `json:"questionnaireName" bson:"questionnaireName"`
	GuestName         *string  `json:"guestName,omitempty" bson:"guestName,omitempty"`
	Created           *string  `json:"created,omitempty" bson:"created,omitempty"`
	Answers           []Answer `json:"answers" bson:"answers"`
}

// VisitMetadata holds the top-level sign-in fields shared by every submission of a request.
type VisitMetadata struct {
	ResponderName *string
	Organisation  *string
	Mobile        *string
	Location      *string
	SignedIn      *string
}

// NullableString maps blank strings to nil.
func NullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// StringValue returns the pointed string or nil as an untyped row value.
func StringValue(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
