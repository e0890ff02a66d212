// =============================================================================
// Bulk Poster - Shared Types
// =============================================================================
//
// This package contains types shared across modules to avoid import cycles.
// Types defined here are used by:
//   - posting      (RemoteStatus is stored on each posting)
//   - xmlwriter    (Account is rendered into the channel auth element)
//   - xmlreader    (RemoteStatus is produced from response items)
//   - bulkposter   (Account is owned by the batch)
//   - config       (Account is populated from configuration)
//
// =============================================================================

package types

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// =============================================================================
// ACCOUNT
// =============================================================================

// Account holds the credentials sent in the channel auth element. It is
// opaque to validation.
type Account struct {
	// Username is the login email of the bulk posting account.
	Username string

	// Password is the account password.
	Password string

	// AccountID is the numeric account id, kept as the string the remote
	// service expects.
	AccountID string
}

// =============================================================================
// REMOTE STATUS
// =============================================================================

// RemoteStatus is the per-posting outcome returned by the remote service.
type RemoteStatus struct {
	// PreviewHTML is the rendered preview of the posting.
	PreviewHTML string

	// PostedStatus is the remote verdict, e.g. "0" or "1".
	PostedStatus string

	// PostedExplanation is the human-readable reason behind PostedStatus.
	PostedExplanation string

	// Receipt is only present after a live posting response. Validation-only
	// responses leave it nil.
	Receipt *Receipt
}

// Receipt identifies a live posting.
type Receipt struct {
	// PostingID is the remote id of the created posting.
	PostingID string

	// ManageURL is where the posting can be edited or deleted.
	ManageURL string
}

// PreviewText renders PreviewHTML as whitespace-collapsed plain text for
// terminal output. Malformed markup yields the raw HTML.
func (s *RemoteStatus) PreviewText() string {
	if s == nil || strings.TrimSpace(s.PreviewHTML) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.PreviewHTML))
	if err != nil {
		return s.PreviewHTML
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
