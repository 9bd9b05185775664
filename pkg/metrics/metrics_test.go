package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricService_Counters(t *testing.T) {
	ms := NewMetricService()

	ms.IncVoteSubmitted()
	ms.IncVoteSubmitted()
	ms.IncVoteRejected("token_already_used")
	ms.IncTokensIssued(KindVoter, 5)
	ms.ObserveTokenResolution(KindCandidate, 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(ms.votesSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(ms.votesRejected.WithLabelValues("token_already_used")))
	assert.Equal(t, 5.0, testutil.ToFloat64(ms.tokensIssued.WithLabelValues(KindVoter)))
}

func TestMetricService_IndependentRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		NewMetricService()
		NewMetricService()
	})
}

func TestMetricService_Handler(t *testing.T) {
	ms := NewMetricService()
	ms.IncVoteSubmitted()

	rec := httptest.NewRecorder()
	ms.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), MetricVotesSubmitted))
}
