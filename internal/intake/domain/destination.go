package domain

import (
	"fmt"
	"sort"
	"strings"
)

// QuestionMap maps a provider question id to a canonical field name.
type QuestionMap map[string]string

// Fields returns the declared field names sorted for stable column order.
func (m QuestionMap) Fields() []string {
	seen := make(map[string]struct{}, len(m))
	fields := make([]string, 0, len(m))
	for _, field := range m {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// QuestionField pairs a provider question id with its field. Configuration files list questions
// this way so ids keep their case; viper folds map keys to lower case.
type QuestionField struct {
	QuestionID string `mapstructure:"question_id" json:"questionId"`
	Field      string `mapstructure:"field" json:"field"`
}

// FieldAlias copies a mapped field into a second column for schema compatibility
// between destinations.
type FieldAlias struct {
	From string `mapstructure:"from" json:"from"`
	To   string `mapstructure:"to" json:"to"`
}

// Destination describes one logical row sink and how its rows are shaped.
type Destination struct {
	ID               string          `mapstructure:"id" json:"id"`
	Table            string          `mapstructure:"table" json:"table"`
	QuestionnaireIDs []string        `mapstructure:"questionnaire_ids" json:"questionnaireIds"`
	Questions        QuestionMap     `mapstructure:"-" json:"questions"`
	QuestionFields   []QuestionField `mapstructure:"questions" json:"-"`
	IntegerFields    []string        `mapstructure:"integer_fields" json:"integerFields,omitempty"`
	Aliases          []FieldAlias    `mapstructure:"aliases" json:"aliases,omitempty"`
}

// TableName returns the storage name, falling back to the destination id.
func (d Destination) TableName() string {
	if table := strings.TrimSpace(d.Table); table != "" {
		return table
	}
	return d.ID
}

// IsInteger reports whether field must be coerced to an integer.
func (d Destination) IsInteger(field string) bool {
	for _, name := range d.IntegerFields {
		if name == field {
			return true
		}
	}
	return false
}

// Columns returns every column a row for this destination carries.
func (d Destination) Columns() []string {
	columns := append([]string(nil), CommonFields...)
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		seen[c] = struct{}{}
	}
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		columns = append(columns, name)
	}
	for _, field := range d.Questions.Fields() {
		add(field)
	}
	for _, alias := range d.Aliases {
		add(alias.To)
	}
	return columns
}

// Catalog is the ordered table of destinations keyed by questionnaire id.
type Catalog struct {
	destinations    []Destination
	byQuestionnaire map[string]int
}

// NewCatalog validates the destinations and indexes them by questionnaire id.
func NewCatalog(destinations []Destination) (Catalog, error) {
	catalog := Catalog{
		destinations:    make([]Destination, 0, len(destinations)),
		byQuestionnaire: make(map[string]int),
	}
	ids := make(map[string]struct{}, len(destinations))
	for _, dest := range destinations {
		dest.ID = strings.TrimSpace(dest.ID)
		if dest.ID == "" {
			return Catalog{}, fmt.Errorf("destination id is required")
		}
		if _, dup := ids[dest.ID]; dup {
			return Catalog{}, fmt.Errorf("duplicate destination id: %s", dest.ID)
		}
		ids[dest.ID] = struct{}{}
		questions, err := mergeQuestions(dest)
		if err != nil {
			return Catalog{}, err
		}
		dest.Questions = questions
		dest.QuestionFields = nil
		fields := make(map[string]string, len(dest.Questions))
		for questionID, field := range dest.Questions {
			if other, dup := fields[field]; dup {
				return Catalog{}, fmt.Errorf("destination %s maps field %s from both %s and %s", dest.ID, field, other, questionID)
			}
			fields[field] = questionID
		}
		if len(dest.QuestionnaireIDs) == 0 {
			return Catalog{}, fmt.Errorf("destination %s has no questionnaire ids", dest.ID)
		}
		for _, qid := range dest.QuestionnaireIDs {
			qid = strings.TrimSpace(qid)
			if owner, taken := catalog.byQuestionnaire[qid]; taken {
				return Catalog{}, fmt.Errorf("questionnaire %s routed to both %s and %s", qid, catalog.destinations[owner].ID, dest.ID)
			}
			catalog.byQuestionnaire[qid] = len(catalog.destinations)
		}
		catalog.destinations = append(catalog.destinations, dest)
	}
	return catalog, nil
}

// mergeQuestions copies the question map and adds the listed question fields to it.
func mergeQuestions(dest Destination) (QuestionMap, error) {
	questions := make(QuestionMap, len(dest.Questions)+len(dest.QuestionFields))
	for questionID, field := range dest.Questions {
		questions[questionID] = field
	}
	for _, q := range dest.QuestionFields {
		if strings.TrimSpace(q.QuestionID) == "" || strings.TrimSpace(q.Field) == "" {
			return nil, fmt.Errorf("destination %s has a question without question_id or field", dest.ID)
		}
		if existing, dup := questions[q.QuestionID]; dup && existing != q.Field {
			return nil, fmt.Errorf("destination %s maps question %s to both %s and %s", dest.ID, q.QuestionID, existing, q.Field)
		}
		questions[q.QuestionID] = q.Field
	}
	return questions, nil
}

// Resolve returns the destination for an exact questionnaire id match.
func (c Catalog) Resolve(questionnaireID string) (Destination, bool) {
	idx, ok := c.byQuestionnaire[questionnaireID]
	if !ok {
		return Destination{}, false
	}
	return c.destinations[idx], true
}

// Destinations returns the destinations in configuration order.
func (c Catalog) Destinations() []Destination {
	return append([]Destination(nil), c.destinations...)
}

// Lookup finds a destination by id.
func (c Catalog) Lookup(id string) (Destination, bool) {
	for _, dest := range c.destinations {
		if dest.ID == id {
			return dest, true
		}
	}
	return Destination{}, false
}

// DefaultDestinations is the reference routing table: every-visit sign-ins and the annual registration.
func DefaultDestinations() []Destination {
	return []Destination{
		{
			ID:               "every_visit",
			Table:            "every_visit",
			QuestionnaireIDs: []string{"8208"},
			Questions: QuestionMap{
				"49028": "reason_for_visit",
				"49029": "young_person",
				"49030": "purpose_of_visit",
			},
		},
		{
			ID:               "annual_visit",
			Table:            "annual_visit",
			QuestionnaireIDs: []string{"8895"},
			Questions: QuestionMap{
				"47811": "type_of_visitor",
				"47812": "age",
				"47813": "gender",
				"47814": "school",
				"47815": "suburb",
				"47816": "ethnicity_culture",
				"47817": "emergency_contact",
			},
			IntegerFields: []string{"age"},
			Aliases:       []FieldAlias{{From: "type_of_visitor", To: "young_person"}},
		},
	}
}

// DefaultCatalog builds the catalog from DefaultDestinations.
func DefaultCatalog() Catalog {
	catalog, err := NewCatalog(DefaultDestinations())
	if err != nil {
		panic(err)
	}
	return catalog
}
