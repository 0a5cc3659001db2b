package main

import (
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
)

var (
	responderNames = []string{"Jordan Lee", "Sam Walker", "Priya Nair", "Alex Chen", "Mia Thompson", "Noah Williams"}
	organisations  = []string{"Youth Hub", "City Council", "Community Health", ""}
	locations      = []string{"Midland", "Fremantle", "Joondalup", "Armadale"}
	reasons        = []string{"Drop-in", "Appointment", "Program", "Event"}
	purposes       = []string{"Homework", "Gaming", "Counselling", "Meal", "Chill"}
	visitorTypes   = []string{"Young person", "Parent", "Worker"}
	genders        = []string{"Female", "Male", "Non-binary", "Prefer not to say"}
	schools        = []string{"Midland High", "Governor Stirling", "Not at school"}
	ethnicities    = []string{"Aboriginal", "Australian", "Other"}
)

type seedAnswer struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

type seedSubmission struct {
	QuestionnaireID   string       `json:"questionnaireId"`
	QuestionnaireName string       `json:"questionnaireName"`
	Answers           []seedAnswer `json:"answers"`
}

type seedVisit struct {
	Name         string           `json:"name"`
	Organisation string           `json:"organisation"`
	Mobile       string           `json:"mobile"`
	LocationName string           `json:"location_name"`
	SignedIn     string           `json:"signed_in"`
	Submissions  []seedSubmission `json:"submissions"`
}

func generateRequests(rng *rand.Rand, count int, formRatio float64, now time.Time) []intakeapp.IngestRequest {
	requests := make([]intakeapp.IngestRequest, 0, count)
	for i := 0; i < count; i++ {
		visit := generateVisit(rng, now.Add(-time.Duration(rng.Intn(72*60))*time.Minute))
		if rng.Float64() < formRatio {
			requests = append(requests, intakeapp.IngestRequest{
				ContentType: "application/x-www-form-urlencoded",
				Body:        []byte(encodeForm(visit)),
			})
			continue
		}
		body, err := json.Marshal(visit)
		if err != nil {
			panic(fmt.Sprintf("seed visit を JSON に変換できません: %v", err))
		}
		requests = append(requests, intakeapp.IngestRequest{ContentType: "application/json", Body: body})
	}
	return requests
}

func generateVisit(rng *rand.Rand, signedIn time.Time) seedVisit {
	visit := seedVisit{
		Name:         pick(rng, responderNames),
		Organisation: pick(rng, organisations),
		Mobile:       fmt.Sprintf("04%08d", rng.Intn(100000000)),
		LocationName: pick(rng, locations),
		SignedIn:     signedIn.Format("2006-01-02 15:04"),
	}

	visit.Submissions = append(visit.Submissions, seedSubmission{
		QuestionnaireID:   "8208",
		QuestionnaireName: "Every visit",
		Answers: []seedAnswer{
			{QuestionID: "49028", Question: "Reason for visit", Answer: pick(rng, reasons)},
			{QuestionID: "49029", Question: "Young person?", Answer: pick(rng, []string{"Yes", "No"})},
			{QuestionID: "49030", Question: "Purpose of visit", Answer: pick(rng, purposes)},
		},
	})

	if rng.Intn(3) == 0 {
		age := strconv.Itoa(12 + rng.Intn(14))
		if rng.Intn(10) == 0 {
			age = "unknown"
		}
		visit.Submissions = append(visit.Submissions, seedSubmission{
			QuestionnaireID:   "8895",
			QuestionnaireName: "Annual visit",
			Answers: []seedAnswer{
				{QuestionID: "47811", Question: "Type of visitor", Answer: pick(rng, visitorTypes)},
				{QuestionID: "47812", Question: "Age", Answer: age},
				{QuestionID: "47813", Question: "Gender", Answer: pick(rng, genders)},
				{QuestionID: "47814", Question: "School", Answer: pick(rng, schools)},
				{QuestionID: "47815", Question: "Suburb", Answer: pick(rng, locations)},
				{QuestionID: "47816", Question: "Ethnicity / culture", Answer: pick(rng, ethnicities)},
			},
		})
	}

	if rng.Intn(8) == 0 {
		visit.Submissions = append(visit.Submissions, seedSubmission{QuestionnaireID: "9999", QuestionnaireName: "Retired form"})
	}
	return visit
}

// encodeForm は bracket 記法 (submissions[0][answers][1][answer]) のフォーム本文を組み立てる。
func encodeForm(visit seedVisit) string {
	values := url.Values{}
	values.Set("name", visit.Name)
	values.Set("organisation", visit.Organisation)
	values.Set("mobile", visit.Mobile)
	values.Set("location_name", visit.LocationName)
	values.Set("signed_in", visit.SignedIn)
	for i, sub := range visit.Submissions {
		prefix := fmt.Sprintf("submissions[%d]", i)
		values.Set(prefix+"[questionnaireId]", sub.QuestionnaireID)
		values.Set(prefix+"[questionnaireName]", sub.QuestionnaireName)
		for j, answer := range sub.Answers {
			answerPrefix := fmt.Sprintf("%s[answers][%d]", prefix, j)
			values.Set(answerPrefix+"[questionId]", answer.QuestionID)
			values.Set(answerPrefix+"[question]", answer.Question)
			values.Set(answerPrefix+"[answer]", answer.Answer)
		}
	}
	return values.Encode()
}

func pick(rng *rand.Rand, source []string) string {
	return source[rng.Intn(len(source))]
}
