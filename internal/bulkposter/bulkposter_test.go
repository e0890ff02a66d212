package bulkposter

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/cl-bulk-poster/internal/metrics"
	"github.com/ginjaninja78/cl-bulk-poster/internal/posting"
	"github.com/ginjaninja78/cl-bulk-poster/internal/types"
)

const (
	validateURL = "https://post.example.org/bulk-rss/validate"
	postURL     = "https://post.example.org/bulk-rss/post"
)

type call struct {
	url         string
	contentType string
	body        []byte
}

// fakeTransport replays a fixed reply and records every call.
type fakeTransport struct {
	status int
	body   []byte
	err    error
	calls  []call
}

func (f *fakeTransport) Post(_ context.Context, url, contentType string, body []byte) (int, []byte, error) {
	f.calls = append(f.calls, call{url: url, contentType: contentType, body: body})
	return f.status, f.body, f.err
}

var testAccount = types.Account{Username: "username@gmail.com", Password: "password", AccountID: "14"}

func validPosting(name string) *posting.Posting {
	return posting.New(name, posting.Required{
		Title:       posting.String("1 Br Charmer in Chelsea"),
		Description: posting.String("posting body goes here"),
		Category:    posting.String("fee"),
		Area:        posting.String("atl"),
		ReplyEmail: &posting.ReplyEmail{
			Value:            posting.String("bulkuser1@bulkposterz.net"),
			Privacy:          posting.String("A"),
			OutsideContactOK: 0,
		},
	}, posting.Optional{})
}

func newPoster(ft *fakeTransport, postings ...*posting.Posting) (*BulkPoster, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	b := New(testAccount, postings,
		WithEndpoints(Endpoints{Validate: validateURL, Post: postURL}),
		WithTransport(ft),
		WithLogger(logger),
	)
	return b, hook
}

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "xmlreader", "testdata", name))
	require.NoError(t, err)
	return data
}

func TestNew(t *testing.T) {
	b := New(testAccount, []*posting.Posting{validPosting("a")})
	assert.Equal(t, "username@gmail.com", b.Account.Username)
	assert.Len(t, b.Postings, 1)
	assert.Empty(t, b.Errors)
	assert.Nil(t, b.SubmissionDocument)
	assert.NotNil(t, b.transport)
}

func TestCheckUniqueness(t *testing.T) {
	tests := []struct {
		name     string
		names    []string
		expected []string
	}{
		{"unique", []string{"name", "unique_name"}, nil},
		{"one duplicate", []string{"name", "name"}, []string{"Invalid non-unique postings: 'name'"}},
		{"reported once per name", []string{"a", "b", "a", "a", "b", "c"}, []string{
			"Invalid non-unique postings: 'a'",
			"Invalid non-unique postings: 'b'",
		}},
		{"empty batch", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var postings []*posting.Posting
			for _, n := range tt.names {
				postings = append(postings, validPosting(n))
			}
			b, _ := newPoster(&fakeTransport{}, postings...)
			b.CheckUniqueness()

			var got []string
			for _, e := range b.Errors {
				assert.Equal(t, posting.KindGeneral, e.Kind)
				got = append(got, e.Message)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidatePostings(t *testing.T) {
	bad := posting.New("bad", posting.Required{}, posting.Optional{})
	b, hook := newPoster(&fakeTransport{}, validPosting("good"), bad, validPosting("good"))

	before := testutil.ToFloat64(metrics.PostingsValidatedTotal.WithLabelValues("invalid"))
	b.ValidatePostings()

	require.Len(t, b.Errors, 1)
	assert.Equal(t, "Invalid non-unique postings: 'good'", b.Errors[0].Message)
	assert.Empty(t, b.Postings[0].Errors)
	assert.Len(t, b.Postings[1].Errors, 5)
	assert.Empty(t, b.Postings[2].Errors)
	assert.False(t, b.Valid())

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PostingsValidatedTotal.WithLabelValues("invalid")))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "local validation finished", hook.LastEntry().Message)
	assert.Equal(t, 1, hook.LastEntry().Data["invalid"])
}

func TestValidatePostingsDoublesOnRepeat(t *testing.T) {
	b, _ := newPoster(&fakeTransport{}, validPosting("x"), validPosting("x"))
	b.ValidatePostings()
	b.ValidatePostings()
	assert.Len(t, b.Errors, 2)
}

func TestSerializeCachesDocument(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK, body: readTestdata(t, "validation_response.xml")}
	b, _ := newPoster(ft, validPosting("NYCBrokerHousingSample1"))

	b.ValidateAtRemote(context.Background())
	require.NotNil(t, b.SubmissionDocument)
	first := b.SubmissionDocument

	b.Postings[0].Required.Title = posting.String("changed")
	b.ValidateAtRemote(context.Background())
	require.Len(t, ft.calls, 2)
	assert.Equal(t, first, ft.calls[1].body, "the cached document is reused")

	doc := b.Serialize()
	assert.Contains(t, string(doc), "<title>changed</title>")
	assert.Equal(t, doc, b.SubmissionDocument)
}

func TestValidateAtRemoteSuccess(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK, body: readTestdata(t, "validation_response.xml")}
	b, _ := newPoster(ft, validPosting("NYCBrokerHousingSample1"), validPosting("NYCBrokerHousingSample2"))

	b.ValidateAtRemote(context.Background())

	require.Len(t, ft.calls, 1)
	assert.Equal(t, validateURL, ft.calls[0].url)
	assert.Equal(t, "application/x-www-form-urlencoded", ft.calls[0].contentType)
	assert.Equal(t, b.SubmissionDocument, ft.calls[0].body)

	assert.Empty(t, b.Errors)
	for _, p := range b.Postings {
		require.NotNil(t, p.Status)
		assert.Equal(t, "Validated", p.Status.PostedExplanation)
		assert.Nil(t, p.Status.Receipt)
	}
}

func TestSubmitToRemoteSuccess(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK, body: readTestdata(t, "validation_response.xml")}
	b, _ := newPoster(ft, validPosting("NYCBrokerHousingSample1"), validPosting("NYCBrokerHousingSample2"))

	b.ValidateAtRemote(context.Background())
	require.Empty(t, b.Errors)

	ft.body = readTestdata(t, "posting_response.xml")
	b.SubmitToRemote(context.Background())

	require.Len(t, ft.calls, 2)
	assert.Equal(t, postURL, ft.calls[1].url)
	assert.Empty(t, b.Errors)
	for _, p := range b.Postings {
		require.NotNil(t, p.Status)
		require.NotNil(t, p.Status.Receipt)
		assert.Equal(t, "Posted", p.Status.PostedExplanation)
		assert.NotEmpty(t, p.Status.Receipt.PostingID)
		assert.NotEmpty(t, p.Status.Receipt.ManageURL)
	}
}

func TestRemoteFailures(t *testing.T) {
	tests := []struct {
		name     string
		ft       *fakeTransport
		expected string
		outcome  string
	}{
		{
			name:     "forbidden",
			ft:       &fakeTransport{status: http.StatusForbidden, body: []byte("bad auth")},
			expected: "Validation/Submission failed (Forbidden): 'bad auth'",
			outcome:  metrics.OutcomeForbidden,
		},
		{
			name:     "forbidden with empty body",
			ft:       &fakeTransport{status: http.StatusForbidden},
			expected: "Validation/Submission failed (Forbidden): ''",
			outcome:  metrics.OutcomeForbidden,
		},
		{
			name:     "unsupported media type",
			ft:       &fakeTransport{status: http.StatusUnsupportedMediaType, body: []byte("not rss")},
			expected: "Validation/Submission failed (Unsupported Media Type): 'not rss'",
			outcome:  metrics.OutcomeUnsupportedMedia,
		},
		{
			name:     "unexpected status",
			ft:       &fakeTransport{status: http.StatusInternalServerError, body: []byte("oops")},
			expected: "Validation/Submission failed (unexpected status 500): 'oops'",
			outcome:  metrics.OutcomeUnexpectedStatus,
		},
		{
			name:     "transport error",
			ft:       &fakeTransport{err: errors.New("connection refused")},
			expected: "Validation/Submission failed (transport error): 'connection refused'",
			outcome:  metrics.OutcomeTransportError,
		},
		{
			name:    "malformed body",
			ft:      &fakeTransport{status: http.StatusOK, body: []byte("<rdf:RDF><item")},
			outcome: metrics.OutcomeMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous := &types.RemoteStatus{PostedStatus: "0", PostedExplanation: "earlier"}
			p := validPosting("NYCBrokerHousingSample1")
			p.Status = previous
			b, _ := newPoster(tt.ft, p)

			counter := metrics.RemoteSubmissionsTotal.WithLabelValues("post", tt.outcome)
			before := testutil.ToFloat64(counter)

			b.SubmitToRemote(context.Background())

			require.Len(t, b.Errors, 1)
			assert.Equal(t, posting.KindGeneral, b.Errors[0].Kind)
			if tt.expected != "" {
				assert.Equal(t, tt.expected, b.Errors[0].Message)
			} else {
				assert.Contains(t, b.Errors[0].Message, "Validation/Submission failed (malformed response)")
			}
			assert.Same(t, previous, p.Status, "postings are untouched on failure")
			assert.Empty(t, p.Errors)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestValidateRunsLocalThenRemote(t *testing.T) {
	ft := &fakeTransport{status: http.StatusForbidden}
	bad := posting.New("bad", posting.Required{}, posting.Optional{})
	b, _ := newPoster(ft, validPosting("good"), bad)

	b.Validate(context.Background())

	assert.Len(t, ft.calls, 1, "invalid postings are still sent to remote validation")
	assert.Len(t, b.Errors, 1)
	assert.Len(t, bad.Errors, 5)
	assert.False(t, b.Valid())
}

func TestValidAfterCleanRun(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK, body: readTestdata(t, "validation_response.xml")}
	b, hook := newPoster(ft, validPosting("NYCBrokerHousingSample1"), validPosting("unmatched"))

	b.Validate(context.Background())

	assert.True(t, b.Valid())
	assert.Nil(t, b.Postings[1].Status)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "response named unknown postings" {
			warned = true
		}
	}
	assert.True(t, warned)
}
