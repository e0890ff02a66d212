package loader

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ginjaninja78/cl-bulk-poster/internal/posting"
)

// Column names of the row form.
const (
	columnName         = "name"
	columnImage        = "image"
	replyEmailPrefix   = "reply_email."
	imagePathIndicator = "@"
)

// rowsToPostings converts header -> value rows. baseDir resolves "@path"
// image cells.
func rowsToPostings(headers []string, rows []map[string]string, baseDir string, opts Options) ([]*posting.Posting, error) {
	postings := make([]*posting.Posting, 0, len(rows))
	for i, row := range rows {
		p, err := rowToPosting(headers, row, baseDir, opts)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// rowToPosting walks the headers in order so that unknown groups are
// recorded in column order.
func rowToPosting(headers []string, row map[string]string, baseDir string, opts Options) (*posting.Posting, error) {
	var (
		required posting.Required
		optional posting.Optional
		email    posting.ReplyEmail
		hasEmail bool
		unknown  = make(map[string]bool)
	)

	for _, header := range headers {
		value := row[header]
		if value == "" {
			continue
		}

		switch header {
		case columnName:
			continue
		case "title":
			required.Title = posting.String(value)
			continue
		case "description":
			required.Description = posting.String(value)
			continue
		case "category":
			required.Category = posting.String(value)
			continue
		case "area":
			required.Area = posting.String(value)
			continue
		}

		if field, ok := strings.CutPrefix(header, replyEmailPrefix); ok {
			hasEmail = true
			switch strings.ToLower(field) {
			case "value":
				email.Value = posting.String(value)
			case "privacy":
				email.Privacy = posting.String(value)
			case "outside_contact_ok":
				email.OutsideContactOK = numberOrText(value)
			case "other_contact_info":
				email.OtherContactInfo = posting.String(value)
			default:
				return nil, fmt.Errorf("unknown column %q", header)
			}
			continue
		}

		if header == columnImage || strings.HasPrefix(header, columnImage+".") {
			image, err := cellImage(header, value, baseDir)
			if err != nil {
				return nil, err
			}
			optional.Images = append(optional.Images, image)
			continue
		}

		if target := optional.Value(header); target != nil {
			*target = posting.String(value)
			continue
		}

		group, field, found := strings.Cut(header, ".")
		if target := optional.Group(group); found && target != nil {
			if *target == nil {
				*target = posting.Attributes{}
			}
			(*target)[field] = value
			continue
		}

		if opts.Tables.IsOptional(group) {
			return nil, fmt.Errorf("column %q does not address a field of %s", header, group)
		}

		if !unknown[group] {
			unknown[group] = true
			optional.Unknown = append(optional.Unknown, group)
		}
	}

	if hasEmail {
		required.ReplyEmail = &email
	}

	return posting.NewWithTables(row[columnName], required, optional, opts.Tables), nil
}

// cellImage reads an image column. "image.<n>" sets the position. A value
// starting with "@" names a file, relative to the batch file, that is
// base64 encoded; any other value is taken as the encoded payload.
func cellImage(header, value, baseDir string) (posting.Image, error) {
	var image posting.Image

	if pos, ok := strings.CutPrefix(header, columnImage+"."); ok {
		n, err := strconv.Atoi(pos)
		if err != nil {
			return image, fmt.Errorf("image column %q has a non-numeric position", header)
		}
		image.Position = posting.Int(n)
	}

	path, isPath := strings.CutPrefix(value, imagePathIndicator)
	if !isPath {
		image.Data = value
		return image, nil
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return image, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	image.Data = base64.StdEncoding.EncodeToString(data)
	return image, nil
}

// numberOrText keeps integers as numbers so flag checks see the cell the
// way a typed format would deliver it.
func numberOrText(value string) interface{} {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}
