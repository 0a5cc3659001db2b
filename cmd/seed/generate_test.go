package main

import (
	"bytes"
	"context"
	"log"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ps1339880-hash/webhook-visitor/internal/config"
	intakeapp "github.com/ps1339880-hash/webhook-visitor/internal/intake/application"
	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

var seedNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func TestGenerateRequestsIsDeterministic(t *testing.T) {
	first := generateRequests(rand.New(rand.NewSource(42)), 10, 0.5, seedNow)
	second := generateRequests(rand.New(rand.NewSource(42)), 10, 0.5, seedNow)
	assert.Equal(t, first, second)
}

func TestGeneratedRequestsProduceRows(t *testing.T) {
	for _, ratio := range []float64{0, 1} {
		requests := generateRequests(rand.New(rand.NewSource(7)), 25, ratio, seedNow)
		require.Len(t, requests, 25)

		for _, req := range requests {
			if ratio == 0 {
				assert.Equal(t, "application/json", req.ContentType)
			} else {
				assert.Equal(t, "application/x-www-form-urlencoded", req.ContentType)
			}

			tree, err := intakeapp.Decode(req.ContentType, req.Body)
			require.NoError(t, err, string(req.Body))
			meta, submissions := intakeapp.Extract(tree)
			require.NotNil(t, meta.ResponderName)
			require.NotEmpty(t, submissions)
			assert.Equal(t, "8208", submissions[0].QuestionnaireID)

			result := intakeapp.BuildRows(meta, submissions, domain.DefaultCatalog(), string(req.Body), "2026-10-18T01:30:00Z")
			require.Len(t, result.Rows["every_visit"], 1)
			assert.Equal(t, *meta.ResponderName, result.Rows["every_visit"][0][domain.FieldResponderName])
		}
	}
}

func TestDryRunSkipsConfig(t *testing.T) {
	var out bytes.Buffer
	opts := seedOptions{visitCount: 3, formRatio: 0.5, randomSeed: 11, dryRun: true}

	err := run(context.Background(), opts, log.New(&out, "", 0), func() config.Config {
		t.Fatal("config must not be loaded for a dry run")
		return config.Config{}
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.True(t,
			strings.HasPrefix(line, "application/json ") || strings.HasPrefix(line, "application/x-www-form-urlencoded "),
			line)
	}
}
