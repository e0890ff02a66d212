package xmlreader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/cl-bulk-poster/internal/posting"
	"github.com/ginjaninja78/cl-bulk-poster/internal/types"
)

func openTestdata(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func namedPostings(names ...string) []*posting.Posting {
	postings := make([]*posting.Posting, len(names))
	for i, n := range names {
		postings[i] = posting.New(n, posting.Required{}, posting.Optional{})
	}
	return postings
}

func TestParseItemsValidationResponse(t *testing.T) {
	items, err := ParseItems(openTestdata(t, "validation_response.xml"))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "NYCBrokerHousingSample1", items[0].About)
	assert.Equal(t, `<div id="previewWrapper"><h2>1 Br Charmer in Chelsea</h2><p>posting body goes here</p></div>`, items[0].PreviewHTML)
	assert.Equal(t, "0", items[0].PostedStatus)
	assert.Equal(t, "Validated", items[0].PostedExplanation)
	assert.Empty(t, items[0].PostingID)

	assert.Equal(t, `<div id="previewWrapper"><h2>Spacious Sunny Studio</h2></div>`, items[1].PreviewHTML)
}

func TestApplyValidationResponse(t *testing.T) {
	postings := namedPostings("NYCBrokerHousingSample1", "NYCBrokerHousingSample2")

	result, err := Apply(openTestdata(t, "validation_response.xml"), ValidationResponse, postings)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Matched)
	assert.Empty(t, result.Skipped)

	for _, p := range postings {
		require.NotNil(t, p.Status)
		assert.Equal(t, "0", p.Status.PostedStatus)
		assert.Equal(t, "Validated", p.Status.PostedExplanation)
		assert.Nil(t, p.Status.Receipt, "validation responses carry no receipt")
	}
	assert.True(t, strings.HasPrefix(postings[0].Status.PreviewText(), "1 Br Charmer in Chelsea"))
}

func TestApplyPostingResponse(t *testing.T) {
	postings := namedPostings("NYCBrokerHousingSample1", "NYCBrokerHousingSample2")
	postings[0].Status = &types.RemoteStatus{PostedExplanation: "stale", PreviewHTML: "stale"}

	result, err := Apply(openTestdata(t, "posting_response.xml"), PostingResponse, postings)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Matched)

	status := postings[0].Status
	assert.Equal(t, "Posted", status.PostedExplanation)
	assert.Equal(t, "<h2>1 Br Charmer in Chelsea</h2>", status.PreviewHTML)
	require.NotNil(t, status.Receipt)
	assert.Equal(t, "1234567890", status.Receipt.PostingID)
	assert.Equal(t, "https://post.craigslist.org/manage/1234567890/abcde", status.Receipt.ManageURL)

	assert.Equal(t, "1234567891", postings[1].Status.Receipt.PostingID)
}

func TestApplySkipsUnknownItems(t *testing.T) {
	postings := namedPostings("NYCBrokerHousingSample1", "unrelated")

	result, err := Apply(openTestdata(t, "validation_response.xml"), ValidationResponse, postings)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, []string{"NYCBrokerHousingSample2"}, result.Skipped)

	assert.NotNil(t, postings[0].Status)
	assert.Nil(t, postings[1].Status)
}

func TestApplyReplacesStatus(t *testing.T) {
	postings := namedPostings("a")
	postings[0].Status = &types.RemoteStatus{
		PostedStatus: "1",
		Receipt:      &types.Receipt{PostingID: "old"},
	}

	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:cl="c">
  <item rdf:about="a"><cl:postedStatus>0</cl:postedStatus></item>
</rdf:RDF>`

	_, err := Apply(strings.NewReader(doc), ValidationResponse, postings)
	require.NoError(t, err)

	assert.Equal(t, &types.RemoteStatus{PostedStatus: "0"}, postings[0].Status)
}

func TestApplyMalformedDocument(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"plain text", "Forbidden"},
		{"truncated", `<rdf:RDF xmlns:rdf="r"><item rdf:about="a"><postedStatus>0</postedStatus>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			postings := namedPostings("a")
			_, err := Apply(strings.NewReader(tt.body), ValidationResponse, postings)
			assert.Error(t, err)
			assert.Nil(t, postings[0].Status)
		})
	}
}

func TestResponseKindString(t *testing.T) {
	assert.Equal(t, "validate", ValidationResponse.String())
	assert.Equal(t, "post", PostingResponse.String())
}
