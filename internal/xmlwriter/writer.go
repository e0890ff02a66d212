// =============================================================================
// Bulk Poster - XML Writer Module
// =============================================================================
//
// This module renders a batch of postings into the RDF/RSS submission document
// accepted by the remote bulk posting interface.
//
// XML STRUCTURE:
//
//   <rdf:RDF xmlns="http://purl.org/rss/1.0/"
//            xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
//            xmlns:cl="http://www.craigslist.org/about/cl-bulk-ns/1.0">
//     <channel>
//       <items>
//         <rdf:li rdf:resource="NYCBrokerHousingSample1"/>  <!-- one per posting -->
//       </items>
//       <cl:auth username="..." password="..." accountID="..."/>
//     </channel>
//     <item rdf:about="NYCBrokerHousingSample1">            <!-- one per posting -->
//       <title>1 Br Charmer in Chelsea</title>
//       <description><![CDATA[posting body]]></description>
//       <cl:category>fee</cl:category>
//       <cl:area>nyc</cl:area>
//       <cl:replyEmail privacy="C" outsideContactOK="0">x@y.z</cl:replyEmail>
//       <cl:image position="0">base64...</cl:image>          <!-- optional -->
//       <cl:housingInfo price="1450" bedrooms="0"/>          <!-- optional -->
//     </item>
//   </rdf:RDF>
//
// The writer does not validate. Whatever the postings hold is rendered.
// Optional sub-schemas that are absent or empty produce no element.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/cl-bulk-poster/internal/posting"
	"github.com/ginjaninja78/cl-bulk-poster/internal/types"
)

// Namespaces declared on the root element.
const (
	NamespaceRSS = "http://purl.org/rss/1.0/"
	NamespaceRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NamespaceCL  = "http://www.craigslist.org/about/cl-bulk-ns/1.0"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate renders the submission document for postings, in batch order.
func Generate(account types.Account, postings []*posting.Posting) ([]byte, error) {
	return GenerateWithOptions(account, postings, DefaultGenerateOptions())
}

// GenerateWithOptions renders the submission document with custom options.
func GenerateWithOptions(account types.Account, postings []*posting.Posting, options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	doc := buildDocument(account, postings)

	xmlBytes, err := marshalWithIndent(doc, options.Indent)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}

	buffer.Write(xmlBytes)

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement is a generic element. Name.Space holds the namespace prefix
// ("rdf", "cl"), not the namespace URI; an empty prefix means the default
// RSS namespace.
type XMLElement struct {
	Name       xml.Name
	Attributes []xml.Attr
	Value      string
	CDATA      bool
	Children   []XMLElement
}

func qname(prefix, local string) xml.Name {
	return xml.Name{Space: prefix, Local: local}
}

// buildDocument constructs the rdf:RDF tree.
func buildDocument(account types.Account, postings []*posting.Posting) XMLElement {
	root := XMLElement{
		Name: qname("rdf", "RDF"),
		Attributes: []xml.Attr{
			{Name: qname("", "xmlns"), Value: NamespaceRSS},
			{Name: qname("xmlns", "rdf"), Value: NamespaceRDF},
			{Name: qname("xmlns", "cl"), Value: NamespaceCL},
		},
	}

	root.Children = append(root.Children, buildChannelElement(account, postings))
	for _, p := range postings {
		root.Children = append(root.Children, buildItemElement(p))
	}

	return root
}

// buildChannelElement lists every posting name and carries the credentials.
//
// STRUCTURE:
//   <channel>
//     <items>
//       <rdf:li rdf:resource="name"/>
//     </items>
//     <cl:auth username="" password="" accountID=""/>
//   </channel>
func buildChannelElement(account types.Account, postings []*posting.Posting) XMLElement {
	items := XMLElement{Name: qname("", "items")}
	for _, p := range postings {
		items.Children = append(items.Children, XMLElement{
			Name:       qname("rdf", "li"),
			Attributes: []xml.Attr{{Name: qname("rdf", "resource"), Value: p.Name}},
		})
	}

	auth := XMLElement{
		Name: qname("cl", "auth"),
		Attributes: []xml.Attr{
			{Name: qname("", "username"), Value: account.Username},
			{Name: qname("", "password"), Value: account.Password},
			{Name: qname("", "accountID"), Value: account.AccountID},
		},
	}

	return XMLElement{
		Name:     qname("", "channel"),
		Children: []XMLElement{items, auth},
	}
}

// buildItemElement renders one posting: required items first, then the
// optional elements in their fixed order.
func buildItemElement(p *posting.Posting) XMLElement {
	item := XMLElement{
		Name:       qname("", "item"),
		Attributes: []xml.Attr{{Name: qname("rdf", "about"), Value: p.Name}},
	}

	r := p.Required
	item.Children = append(item.Children,
		createSimpleElement(qname("", "title"), deref(r.Title)),
		XMLElement{Name: qname("", "description"), Value: deref(r.Description), CDATA: true},
		createSimpleElement(qname("cl", "category"), deref(r.Category)),
		createSimpleElement(qname("cl", "area"), deref(r.Area)),
	)
	if r.ReplyEmail != nil {
		item.Children = append(item.Children, buildReplyEmailElement(r.ReplyEmail))
	}

	o := &p.Optional
	for _, image := range o.Images {
		item.Children = append(item.Children, buildImageElement(image))
	}
	item.Children = appendValue(item.Children, "subarea", o.Subarea)
	item.Children = appendValue(item.Children, "neighborhood", o.Neighborhood)
	item.Children = appendValue(item.Children, "price", o.Price)
	item.Children = appendAttrs(item.Children, mapLocationElement, o.MapLocation)
	item.Children = appendValue(item.Children, "PONumber", o.PONumber)
	for _, ae := range attrElements {
		item.Children = appendAttrs(item.Children, ae, *o.Group(ae.group))
	}

	return item
}

// buildReplyEmailElement writes the address as the body. Absent attributes
// are omitted.
func buildReplyEmailElement(email *posting.ReplyEmail) XMLElement {
	element := XMLElement{
		Name:  qname("cl", "replyEmail"),
		Value: deref(email.Value),
	}
	if email.Privacy != nil {
		element.Attributes = append(element.Attributes, xml.Attr{Name: qname("", "privacy"), Value: *email.Privacy})
	}
	if email.OutsideContactOK != nil {
		element.Attributes = append(element.Attributes, xml.Attr{Name: qname("", "outsideContactOK"), Value: fmt.Sprint(email.OutsideContactOK)})
	}
	if email.OtherContactInfo != nil {
		element.Attributes = append(element.Attributes, xml.Attr{Name: qname("", "otherContactInfo"), Value: *email.OtherContactInfo})
	}
	return element
}

func buildImageElement(image posting.Image) XMLElement {
	element := XMLElement{Name: qname("cl", "image"), Value: image.Data}
	if image.Position != nil {
		element.Attributes = []xml.Attr{{Name: qname("", "position"), Value: strconv.Itoa(*image.Position)}}
	}
	return element
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name xml.Name, value string) XMLElement {
	return XMLElement{
		Name:  name,
		Value: value,
	}
}

// appendValue adds a cl: element with a text body when value is set.
func appendValue(children []XMLElement, local string, value *string) []XMLElement {
	if value == nil {
		return children
	}
	return append(children, createSimpleElement(qname("cl", local), *value))
}

// appendAttrs adds an attribute-only cl: element when at least one listed
// field is supplied. Fields are written in list order; others are skipped.
func appendAttrs(children []XMLElement, ae attrElement, attrs posting.Attributes) []XMLElement {
	element := XMLElement{Name: qname("cl", ae.element)}
	for _, f := range ae.fields {
		if value, ok := attrs.Text(f.key); ok {
			element.Attributes = append(element.Attributes, xml.Attr{Name: qname("", f.wire), Value: value})
		}
	}
	if len(element.Attributes) == 0 {
		return children
	}
	return append(children, element)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// marshalWithIndent marshals the document with indentation.
func marshalWithIndent(doc XMLElement, indent string) ([]byte, error) {
	if doc.Name.Local == "" {
		return nil, fmt.Errorf("root element has no name")
	}
	var buffer bytes.Buffer
	writeElement(&buffer, doc, indent, 0)
	return buffer.Bytes(), nil
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	buffer.WriteString(strings.Repeat(indent, level))

	buffer.WriteString("<")
	buffer.WriteString(formatName(element.Name))

	for _, attr := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", formatName(attr.Name), escapeXML(attr.Value)))
	}

	// Self-closing tag.
	if len(element.Children) == 0 && element.Value == "" && !element.CDATA {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	switch {
	case element.CDATA:
		buffer.WriteString(cdata(element.Value))
	case len(element.Children) == 0:
		buffer.WriteString(escapeXML(element.Value))
	default:
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		buffer.WriteString(strings.Repeat(indent, level))
	}

	buffer.WriteString("</")
	buffer.WriteString(formatName(element.Name))
	buffer.WriteString(">\n")
}

// formatName renders prefix:local, or local alone for the default namespace.
func formatName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// cdata wraps s in a CDATA section. A literal "]]>" is split across two
// sections.
func cdata(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
