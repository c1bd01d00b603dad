package clinpdf

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// ErrMetadataParse reports metadata that is not a YAML/JSON mapping.
var ErrMetadataParse = errors.New("failed to parse metadata")

// maxMetadataBytes bounds metadata documents decoded from files or requests.
const maxMetadataBytes = 1 << 20

// Metadata describes the job a summary came from. Every field is optional.
type Metadata struct {
	Filename    string
	Model       string
	GeneratedAt time.Time
	TokenUsage  TokenUsage
}

// TokenUsage carries model usage figures; nil means "not reported".
type TokenUsage struct {
	TotalTokens      *int64
	EstimatedCostUSD *float64
}

// IsZero reports whether no metadata field is set.
func (m Metadata) IsZero() bool {
	return m.Filename == "" && m.Model == "" && m.GeneratedAt.IsZero() &&
		m.TokenUsage.TotalTokens == nil && m.TokenUsage.EstimatedCostUSD == nil
}

// DecodeMetadata decodes a YAML or JSON mapping into Metadata. Empty input
// yields zero Metadata.
func DecodeMetadata(data []byte) (Metadata, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Metadata{}, nil
	}
	if len(data) > maxMetadataBytes {
		return Metadata{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrMetadataParse, len(data), maxMetadataBytes)
	}
	raw, err := decodeMetadataMap(data)
	if err != nil {
		return Metadata{}, err
	}
	return MetadataFromMap(raw), nil
}

func decodeMetadataMap(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataParse, err)
	}
	return raw, nil
}

// metadataKeys are the top-level keys MetadataFromMap reads.
var metadataKeys = []string{
	"filename",
	"model",
	"generated_at",
	"token_usage",
	"token_usage.total_tokens",
	"token_usage.estimated_cost_usd",
}

func hasMetadataKey(raw map[string]any) bool {
	for _, key := range metadataKeys {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

// MetadataFromMap reads the metadata keys filename, model, generated_at,
// token_usage.total_tokens and token_usage.estimated_cost_usd. The token
// usage keys may be nested under a token_usage mapping or given dotted.
// Values of the wrong type are ignored.
func MetadataFromMap(raw map[string]any) Metadata {
	var m Metadata
	if raw == nil {
		return m
	}
	m.Filename = stringValue(raw["filename"])
	m.Model = stringValue(raw["model"])
	m.GeneratedAt = timeValue(raw["generated_at"])
	usage := mapValue(raw["token_usage"])
	total, ok := usage["total_tokens"]
	if !ok {
		total = raw["token_usage.total_tokens"]
	}
	if n, ok := intValue(total); ok {
		m.TokenUsage.TotalTokens = &n
	}
	cost, ok := usage["estimated_cost_usd"]
	if !ok {
		cost = raw["token_usage.estimated_cost_usd"]
	}
	if f, ok := floatValue(cost); ok {
		m.TokenUsage.EstimatedCostUSD = &f
	}
	return m
}

var generatedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone are
// taken as UTC.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range generatedAtLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	case nil:
		return ""
	case int, int64, uint64, float64:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

func timeValue(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case string:
		ts, _ := ParseTimestamp(x)
		return ts
	default:
		return time.Time{}
	}
}

func mapValue(v any) map[string]any {
	switch x := v.(type) {
	case map[string]any:
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = val
		}
		return out
	default:
		return nil
	}
}

func intValue(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if math.IsNaN(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func floatValue(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case float32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		if n, ok := intValue(v); ok {
			return float64(n), true
		}
		return 0, false
	}
}
