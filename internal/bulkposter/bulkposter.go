// =============================================================================
// Bulk Poster - Batch Orchestration
// =============================================================================
//
// A BulkPoster owns one account and an ordered batch of postings. It runs the
// local checks, renders the submission document, sends it to the remote
// service and maps the response back onto the postings.
//
// PROCESSING FLOW:
//   1. ValidatePostings  - name uniqueness, then every posting's own checks
//   2. Serialize         - render the RDF document (cached on the batch)
//   3. ValidateAtRemote  - POST to the validate endpoint, parse statuses
//   4. SubmitToRemote    - POST to the post endpoint, parse statuses and
//                          receipts
//
// ERROR HANDLING:
//   Every outcome is recorded as a posting.Error on the batch or on a posting.
//   Nothing is returned as a Go error and nothing stops the batch early. When
//   a remote call fails, no posting is modified.
//
// =============================================================================

package bulkposter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/cl-bulk-poster/internal/metrics"
	"github.com/ginjaninja78/cl-bulk-poster/internal/posting"
	"github.com/ginjaninja78/cl-bulk-poster/internal/transport"
	"github.com/ginjaninja78/cl-bulk-poster/internal/types"
	"github.com/ginjaninja78/cl-bulk-poster/internal/xmlreader"
	"github.com/ginjaninja78/cl-bulk-poster/internal/xmlwriter"
)

// Messages used in batch-level general errors.
const (
	MsgNonUniquePostings     = "Invalid non-unique postings"
	MsgSubmissionFailed      = "Validation/Submission failed (Forbidden)"
	MsgSubmissionParseFailed = "Validation/Submission failed (Unsupported Media Type)"
	MsgUnexpectedStatus      = "Validation/Submission failed (unexpected status %d)"
	MsgTransportFailed       = "Validation/Submission failed (transport error)"
	MsgMalformedResponse     = "Validation/Submission failed (malformed response)"
	MsgSerializationFailed   = "Submission document could not be built"
)

// Endpoints are the two remote URLs.
type Endpoints struct {
	Validate string
	Post     string
}

// BulkPoster is one batch of postings bound to an account.
type BulkPoster struct {
	// Account is rendered into the document's auth element.
	Account types.Account

	// Postings are kept in submission order.
	Postings []*posting.Posting

	// Errors holds batch-level general errors. Like posting errors, it is
	// append-only.
	Errors []posting.Error

	// SubmissionDocument is the rendered RDF document. It is built on first
	// need and reused by later remote calls until Serialize is called again.
	SubmissionDocument []byte

	endpoints Endpoints
	transport transport.Transport
	log       logrus.FieldLogger
}

// Option configures a BulkPoster.
type Option func(*BulkPoster)

// WithEndpoints sets the remote URLs.
func WithEndpoints(e Endpoints) Option {
	return func(b *BulkPoster) { b.endpoints = e }
}

// WithTransport replaces the default net/http transport.
func WithTransport(t transport.Transport) Option {
	return func(b *BulkPoster) { b.transport = t }
}

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *BulkPoster) { b.log = l }
}

// New creates a batch. Postings are used as given; nothing is validated yet.
func New(account types.Account, postings []*posting.Posting, opts ...Option) *BulkPoster {
	b := &BulkPoster{
		Account:  account,
		Postings: postings,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.transport == nil {
		b.transport = transport.NewHTTP(transport.DefaultTimeout)
	}
	return b
}

// =============================================================================
// LOCAL VALIDATION
// =============================================================================

// CheckUniqueness records one batch error for every name used more than once.
func (b *BulkPoster) CheckUniqueness() {
	seen := make(map[string]int, len(b.Postings))
	var order []string
	for _, p := range b.Postings {
		if seen[p.Name] == 0 {
			order = append(order, p.Name)
		}
		seen[p.Name]++
	}

	for _, name := range order {
		if seen[name] > 1 {
			b.addError(posting.GeneralError(MsgNonUniquePostings, name))
		}
	}
}

// ValidatePostings checks name uniqueness and then validates every posting
// in order. It never stops early.
func (b *BulkPoster) ValidatePostings() {
	b.CheckUniqueness()

	invalid := 0
	for _, p := range b.Postings {
		before := len(p.Errors)
		p.Validate()

		added := p.Errors[before:]
		for _, e := range added {
			metrics.ValidationErrorsTotal.WithLabelValues(e.Kind.String()).Inc()
		}
		if len(added) > 0 {
			invalid++
			metrics.PostingsValidatedTotal.WithLabelValues("invalid").Inc()
			b.log.WithFields(logrus.Fields{
				"posting": p.Name,
				"errors":  len(added),
			}).Debug("posting failed local validation")
		} else {
			metrics.PostingsValidatedTotal.WithLabelValues("valid").Inc()
		}
	}

	b.log.WithFields(logrus.Fields{
		"postings": len(b.Postings),
		"invalid":  invalid,
	}).Info("local validation finished")
}

// Validate runs local validation and then remote validation.
func (b *BulkPoster) Validate(ctx context.Context) {
	b.ValidatePostings()
	b.ValidateAtRemote(ctx)
}

// Valid reports whether neither the batch nor any posting has errors.
func (b *BulkPoster) Valid() bool {
	if len(b.Errors) > 0 {
		return false
	}
	for _, p := range b.Postings {
		if p.HasErrors() {
			return false
		}
	}
	return true
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// Serialize renders the submission document, replacing any cached one.
func (b *BulkPoster) Serialize() []byte {
	doc, err := xmlwriter.Generate(b.Account, b.Postings)
	if err != nil {
		b.addError(posting.GeneralError(MsgSerializationFailed, err))
		return nil
	}
	b.SubmissionDocument = doc
	return doc
}

// document returns the cached document, building it on first use.
func (b *BulkPoster) document() []byte {
	if b.SubmissionDocument == nil {
		return b.Serialize()
	}
	return b.SubmissionDocument
}

// =============================================================================
// REMOTE CALLS
// =============================================================================

// ValidateAtRemote sends the document to the validate endpoint and stores the
// returned statuses on the matching postings.
func (b *BulkPoster) ValidateAtRemote(ctx context.Context) {
	b.submit(ctx, b.endpoints.Validate, xmlreader.ValidationResponse)
}

// SubmitToRemote sends the document to the post endpoint and stores the
// returned statuses and receipts on the matching postings.
func (b *BulkPoster) SubmitToRemote(ctx context.Context) {
	b.submit(ctx, b.endpoints.Post, xmlreader.PostingResponse)
}

// submit performs one POST and maps the outcome.
//
// STATUS MAPPING:
//   200       - parse the body and update postings
//   403       - batch error with the response body
//   415       - batch error with the response body
//   other     - batch error naming the status
//   no reply  - batch error with the transport failure
func (b *BulkPoster) submit(ctx context.Context, url string, kind xmlreader.ResponseKind) {
	doc := b.document()
	if doc == nil {
		return
	}

	log := b.log.WithFields(logrus.Fields{
		"kind":     kind.String(),
		"url":      url,
		"postings": len(b.Postings),
	})

	start := time.Now()
	status, body, err := b.transport.Post(ctx, url, transport.ContentType, doc)
	metrics.RemoteSubmissionDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		log.WithError(err).Error("remote call failed")
		b.remoteError(kind, metrics.OutcomeTransportError, posting.GeneralError(MsgTransportFailed, err))
		return
	}

	log = log.WithField("status", status)

	switch status {
	case http.StatusOK:
		result, err := xmlreader.Apply(bytes.NewReader(body), kind, b.Postings)
		if err != nil {
			log.WithError(err).Error("remote response could not be parsed")
			b.remoteError(kind, metrics.OutcomeMalformed, posting.GeneralError(MsgMalformedResponse, err))
			return
		}
		metrics.RemoteSubmissionsTotal.WithLabelValues(kind.String(), metrics.OutcomeOK).Inc()
		metrics.ResponseItemsTotal.WithLabelValues(kind.String(), "true").Add(float64(result.Matched))
		metrics.ResponseItemsTotal.WithLabelValues(kind.String(), "false").Add(float64(len(result.Skipped)))
		if len(result.Skipped) > 0 {
			log.WithField("skipped", result.Skipped).Warn("response named unknown postings")
		}
		log.WithField("matched", result.Matched).Info("remote call finished")

	case http.StatusForbidden:
		log.Warn("remote service refused the submission")
		b.remoteError(kind, metrics.OutcomeForbidden, posting.GeneralError(MsgSubmissionFailed, string(body)))

	case http.StatusUnsupportedMediaType:
		log.Warn("remote service could not parse the submission")
		b.remoteError(kind, metrics.OutcomeUnsupportedMedia, posting.GeneralError(MsgSubmissionParseFailed, string(body)))

	default:
		log.Warn("remote service returned an unexpected status")
		b.remoteError(kind, metrics.OutcomeUnexpectedStatus, posting.GeneralError(fmt.Sprintf(MsgUnexpectedStatus, status), string(body)))
	}
}

func (b *BulkPoster) remoteError(kind xmlreader.ResponseKind, outcome string, err posting.Error) {
	metrics.RemoteSubmissionsTotal.WithLabelValues(kind.String(), outcome).Inc()
	b.addError(err)
}

func (b *BulkPoster) addError(err posting.Error) {
	metrics.ValidationErrorsTotal.WithLabelValues(err.Kind.String()).Inc()
	b.Errors = append(b.Errors, err)
}
