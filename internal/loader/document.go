package loader

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/cl-bulk-poster/internal/posting"
)

// document is the JSON and YAML batch layout. Posting bodies stay generic so
// that numbers and strings keep their own types.
type document struct {
	Postings []rawPosting `json:"postings" yaml:"postings"`
}

type rawPosting struct {
	Name     string                 `json:"name" yaml:"name"`
	Required map[string]interface{} `json:"required" yaml:"required"`
	Optional map[string]interface{} `json:"optional" yaml:"optional"`
}

func loadJSON(path string, opts Options) ([]*posting.Posting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return doc.postings(opts)
}

func loadYAML(path string, opts Options) ([]*posting.Posting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc.postings(opts)
}

func (d document) postings(opts Options) ([]*posting.Posting, error) {
	postings := make([]*posting.Posting, 0, len(d.Postings))
	for i, raw := range d.Postings {
		p, err := raw.convert(opts)
		if err != nil {
			return nil, fmt.Errorf("posting %d (%q): %w", i+1, raw.Name, err)
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// =============================================================================
// CONVERSION
// =============================================================================

func (r rawPosting) convert(opts Options) (*posting.Posting, error) {
	required, err := convertRequired(r.Required)
	if err != nil {
		return nil, err
	}
	optional, err := convertOptional(r.Optional)
	if err != nil {
		return nil, err
	}
	return posting.NewWithTables(r.Name, required, optional, opts.Tables), nil
}

func convertRequired(m map[string]interface{}) (posting.Required, error) {
	required := posting.Required{
		Title:       text(m, "title"),
		Description: text(m, "description"),
		Category:    text(m, "category"),
		Area:        text(m, "area"),
	}

	raw, ok := m["reply_email"]
	if !ok || raw == nil {
		return required, nil
	}
	em, ok := asMap(raw)
	if !ok {
		return required, fmt.Errorf("reply_email must be a mapping")
	}
	required.ReplyEmail = &posting.ReplyEmail{
		Value:            text(em, "value"),
		Privacy:          text(em, "privacy"),
		OutsideContactOK: em["outside_contact_ok"],
		OtherContactInfo: text(em, "other_contact_info"),
	}
	return required, nil
}

// convertOptional sorts keys so that unknown names are recorded in a stable
// order.
func convertOptional(m map[string]interface{}) (posting.Optional, error) {
	var optional posting.Optional

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := m[key]

		if key == posting.SubImages {
			if value == nil {
				continue
			}
			images, err := convertImages(value)
			if err != nil {
				return optional, err
			}
			optional.Images = images
			continue
		}

		if target := optional.Value(key); target != nil {
			*target = text(m, key)
			continue
		}

		if group := optional.Group(key); group != nil {
			if value == nil {
				continue
			}
			attrs, ok := asMap(value)
			if !ok {
				return optional, fmt.Errorf("%s must be a mapping", key)
			}
			*group = posting.Attributes(attrs)
			continue
		}

		optional.Unknown = append(optional.Unknown, key)
	}

	return optional, nil
}

func convertImages(value interface{}) ([]posting.Image, error) {
	list, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("images must be a list")
	}

	images := make([]posting.Image, 0, len(list))
	for i, item := range list {
		m, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("image %d must be a mapping", i+1)
		}

		var image posting.Image
		if pos, ok := m["position"]; ok && pos != nil {
			n, err := toInt(pos)
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", i+1, err)
			}
			image.Position = posting.Int(n)
		}
		if data := text(m, "data"); data != nil {
			image.Data = *data
		} else if data := text(m, "base64_encoded_image"); data != nil {
			image.Data = *data
		}
		images = append(images, image)
	}
	return images, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// text returns the value of key as a string pointer, or nil when the key is
// absent or null.
func text(m map[string]interface{}, key string) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	if s, isString := v.(string); isString {
		return &s
	}
	s := fmt.Sprint(v)
	return &s
}

// asMap accepts both map shapes the decoders produce.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("position %v is not a whole number", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("position %q is not a number", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("position %v is not a number", v)
}
