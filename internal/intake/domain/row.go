package domain

// Row is a flat destination record; values are string, int or nil.
type Row map[string]any

// Common row columns present on every destination.
const (
	FieldResponderName     = "responder_name"
	FieldSubmitted         = "submitted"
	FieldLocation          = "location"
	FieldOrganisation      = "organisation"
	FieldMobile            = "mobile"
	FieldQuestionnaireID   = "questionnaire_id"
	FieldQuestionnaireName = "questionnaire_name"
	FieldRawPayload        = "raw_payload"
	FieldReceivedAt        = "received_at"
)

// CommonFields lists the columns every row carries, in column order.
var CommonFields = []string{
	FieldResponderName,
	FieldSubmitted,
	FieldLocation,
	FieldOrganisation,
	FieldMobile,
	FieldQuestionnaireID,
	FieldQuestionnaireName,
	FieldRawPayload,
	FieldReceivedAt,
}

// Skip records a submission that was dropped because its questionnaire is not routed anywhere.
type Skip struct {
	Index           int    `json:"index"`
	QuestionnaireID string `json:"questionnaire_id"`
}

// FieldWarning records a value that could not be coerced and was stored as null.
type FieldWarning struct {
	Destination string `json:"destination"`
	Field       string `json:"field"`
	Raw         string `json:"raw"`
}
