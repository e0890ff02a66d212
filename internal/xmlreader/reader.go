// =============================================================================
// Bulk Poster - XML Reader Module
// =============================================================================
//
// This module reads the RDF/RSS documents returned by the remote service and
// maps each response item back onto the posting with the same name.
//
// RESPONSE STRUCTURE:
//
//   <rdf:RDF ...>
//     <item rdf:about="NYCBrokerHousingSample1">
//       <cl:previewHTML>&lt;div&gt;...&lt;/div&gt;</cl:previewHTML>
//       <cl:postedStatus>0</cl:postedStatus>
//       <cl:postedExplanation>Validated</cl:postedExplanation>
//       <cl:postingID>1234567890</cl:postingID>              <!-- posting only -->
//       <cl:postingManageURL>https://...</cl:postingManageURL> <!-- posting only -->
//     </item>
//   </rdf:RDF>
//
// MATCHING RULES:
//   - The about attribute is the correlation key
//   - Items naming no posting in the batch are skipped
//   - A matched posting gets a fresh status; the previous one is replaced
//   - The whole document is parsed before any posting is touched, so a
//     malformed document leaves every posting unchanged
//
// =============================================================================

package xmlreader

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/cl-bulk-poster/internal/posting"
	"github.com/ginjaninja78/cl-bulk-poster/internal/types"
)

// ResponseKind selects which fields of a response item are read.
type ResponseKind int

const (
	// ValidationResponse carries preview, status and explanation.
	ValidationResponse ResponseKind = iota

	// PostingResponse additionally carries the posting id and manage URL.
	PostingResponse
)

// String implements fmt.Stringer.
func (k ResponseKind) String() string {
	if k == PostingResponse {
		return "post"
	}
	return "validate"
}

// Item is one response item as it appears on the wire.
type Item struct {
	About             string
	PreviewHTML       string
	PostedStatus      string
	PostedExplanation string
	PostingID         string
	PostingManageURL  string
}

// Result summarizes how a response was applied to a batch.
type Result struct {
	// Matched counts items that updated a posting.
	Matched int

	// Skipped lists the about keys of items with no matching posting.
	Skipped []string
}

// =============================================================================
// PARSING
// =============================================================================

// wireItem is the decoding target for a single item element. Child element
// names are matched without regard to their namespace prefix.
type wireItem struct {
	Attrs             []xml.Attr `xml:",any,attr"`
	PreviewHTML       text       `xml:"previewHTML"`
	PostedStatus      text       `xml:"postedStatus"`
	PostedExplanation text       `xml:"postedExplanation"`
	PostingID         text       `xml:"postingID"`
	PostingManageURL  text       `xml:"postingManageURL"`
}

// text collects all character data below an element, including the text of
// nested elements.
type text string

// UnmarshalXML implements xml.Unmarshaler.
func (t *text) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	depth := 1
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.CharData:
			sb.Write(tok)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				*t = text(sb.String())
				return nil
			}
		}
	}
}

// ParseItems streams every item element out of r, in document order.
func ParseItems(r io.Reader) ([]Item, error) {
	decoder := xml.NewDecoder(r)

	var items []Item
	sawRoot := false

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if start.Name.Local != "item" {
			continue
		}

		var w wireItem
		if err := decoder.DecodeElement(&w, &start); err != nil {
			return nil, fmt.Errorf("failed to parse response item: %w", err)
		}

		about, found := aboutKey(w.Attrs)
		if !found {
			continue
		}

		items = append(items, Item{
			About:             about,
			PreviewHTML:       string(w.PreviewHTML),
			PostedStatus:      string(w.PostedStatus),
			PostedExplanation: string(w.PostedExplanation),
			PostingID:         string(w.PostingID),
			PostingManageURL:  string(w.PostingManageURL),
		})
	}

	if !sawRoot {
		return nil, fmt.Errorf("failed to parse response: no root element")
	}

	return items, nil
}

// aboutKey finds the about attribute, whatever its prefix.
func aboutKey(attrs []xml.Attr) (string, bool) {
	for _, attr := range attrs {
		if attr.Name.Local == "about" {
			return attr.Value, true
		}
	}
	return "", false
}

// =============================================================================
// APPLYING
// =============================================================================

// Apply parses r and stores a fresh status on every posting named by an
// item. On a parse error no posting is modified.
func Apply(r io.Reader, kind ResponseKind, postings []*posting.Posting) (Result, error) {
	items, err := ParseItems(r)
	if err != nil {
		return Result{}, err
	}

	byName := make(map[string][]*posting.Posting, len(postings))
	for _, p := range postings {
		byName[p.Name] = append(byName[p.Name], p)
	}

	var result Result
	for _, item := range items {
		matches, ok := byName[item.About]
		if !ok {
			result.Skipped = append(result.Skipped, item.About)
			continue
		}
		// Only the first posting with a name is updated. Duplicate names are
		// reported by the uniqueness check.
		matches[0].Status = item.status(kind)
		result.Matched++
	}

	return result, nil
}

// status converts an item to the RemoteStatus for kind.
func (i Item) status(kind ResponseKind) *types.RemoteStatus {
	status := &types.RemoteStatus{
		PreviewHTML:       i.PreviewHTML,
		PostedStatus:      i.PostedStatus,
		PostedExplanation: i.PostedExplanation,
	}
	if kind == PostingResponse {
		status.Receipt = &types.Receipt{
			PostingID: i.PostingID,
			ManageURL: i.PostingManageURL,
		}
	}
	return status
}
