package challenge

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("ACCEPTED")
	var unknown *UnknownStateError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ACCEPTED", unknown.Value)
}

func TestStatus_Terminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusDeclined:  true,
		StatusCompleted: true,
		StatusExpired:   true,
	}
	for _, s := range Statuses {
		assert.Equal(t, terminal[s], s.Terminal(), string(s))
	}
}

func TestChallenge_DecodeRejectsUnknownStatus(t *testing.T) {
	var c Challenge
	err := json.Unmarshal([]byte(`{"id":1,"status":"archived"}`), &c)
	var unknown *UnknownStateError
	require.ErrorAs(t, err, &unknown)

	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"status":"completion_requested","completionRequestedByUsername":"alice"}`), &c))
	assert.Equal(t, StatusCompletionRequested, c.Status)
	assert.Equal(t, "alice", c.CompletionRequestedByUsername)
}

func TestHTTPStatusRoundTrip(t *testing.T) {
	for _, err := range []error{ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict, ErrValidation} {
		assert.Equal(t, err, ErrorForStatus(HTTPStatus(err)))
	}
	assert.Nil(t, ErrorForStatus(http.StatusInternalServerError))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(assert.AnError))
}
