package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

func TestLoadDefaultsFromEnv(t *testing.T) {
	t.Setenv("BASIC_AUTH_USER", "kiosk")
	t.Setenv("BASIC_AUTH_PASS", "s3cret")
	t.Setenv("REQUEST_TIMEOUT", "3s")

	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, SinkMongo, cfg.SinkBackend)
	assert.Equal(t, "kiosk", cfg.BasicAuthUser)
	assert.Equal(t, "s3cret", cfg.BasicAuthPass)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Len(t, cfg.Destinations, 2)
	assert.NotNil(t, cfg.ServerLog)
}

func TestLoadRequiresCredentials(t *testing.T) {
	_, err := load(viper.New(), t.TempDir())
	assert.Error(t, err)

	t.Setenv("BASIC_AUTH_USER", "kiosk")
	_, err = load(viper.New(), t.TempDir())
	assert.Error(t, err, "user without password must be rejected")
}

func TestLoadAcceptsJWTOnly(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "signing-key")
	t.Setenv("AUTH_JWT_ISSUER", "kiosk-provider")
	t.Setenv("SINK_BACKEND", "REDIS")

	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	require.Len(t, cfg.JWTConfigs, 1)
	assert.Equal(t, "kiosk-provider", cfg.JWTConfigs[0].Issuer)
	assert.Equal(t, []byte("signing-key"), cfg.JWTConfigs[0].Secret)
	assert.Equal(t, SinkRedis, cfg.SinkBackend)
}

func TestLoadRejectsUnknownSink(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "signing-key")
	t.Setenv("SINK_BACKEND", "bigquery")

	_, err := load(viper.New(), t.TempDir())
	assert.Error(t, err)
}

func TestLoadPostgresNeedsDSN(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "signing-key")
	t.Setenv("SINK_BACKEND", "postgres")

	_, err := load(viper.New(), t.TempDir())
	assert.Error(t, err)

	t.Setenv("POSTGRES_DSN", "postgres://localhost/visits")
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/visits", cfg.PostgresDSN)
}

func TestLoadDestinationsFromFile(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "signing-key")
	dir := t.TempDir()
	yaml := `
destinations:
  - id: holiday_program
    table: analytics.holiday_program
    questionnaire_ids: ["9100"]
    questions:
      - question_id: "51001"
        field: activity
      - question_id: "51002"
        field: age
    integer_fields: [age]
    aliases:
      - from: activity
        to: reason_for_visit
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)

	require.Len(t, cfg.Destinations, 1)
	dest := cfg.Destinations[0]
	assert.Equal(t, "holiday_program", dest.ID)
	assert.Equal(t, "analytics.holiday_program", dest.TableName())
	assert.Equal(t, []string{"9100"}, dest.QuestionnaireIDs)
	assert.Equal(t, "activity", dest.Questions["51001"])
	assert.True(t, dest.IsInteger("age"))
	require.Len(t, dest.Aliases, 1)
	assert.Equal(t, "reason_for_visit", dest.Aliases[0].To)
}

func TestLoadRejectsInvalidDestinations(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "signing-key")
	dir := t.TempDir()
	yaml := `
destinations:
  - id: a
    questionnaire_ids: ["1"]
  - id: b
    questionnaire_ids: ["1"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	_, err := load(viper.New(), dir)
	assert.Error(t, err)
}

func TestLoadDestinationsKeepQuestionIDCase(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "signing-key")
	dir := t.TempDir()
	yaml := `
destinations:
  - id: intake
    questionnaire_ids: ["QX-7"]
    questions:
      - question_id: QA1
        field: Reason_Field
      - question_id: qa1
        field: lower_field
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)

	require.Len(t, cfg.Destinations, 1)
	dest := cfg.Destinations[0]
	assert.Equal(t, domain.QuestionMap{"QA1": "Reason_Field", "qa1": "lower_field"}, dest.Questions)
	assert.Equal(t, []string{"QX-7"}, dest.QuestionnaireIDs)

	catalog, err := domain.NewCatalog(cfg.Destinations)
	require.NoError(t, err)
	resolved, ok := catalog.Resolve("QX-7")
	require.True(t, ok)
	assert.Equal(t, "Reason_Field", resolved.Questions["QA1"])
}

func TestLoadRejectsIncompleteQuestion(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "signing-key")
	dir := t.TempDir()
	yaml := `
destinations:
  - id: intake
    questionnaire_ids: ["1"]
    questions:
      - question_id: QA1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	_, err := load(viper.New(), dir)
	assert.Error(t, err)
}
