// internal/jsoncompare/service.go
package jsoncompare

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// ErrNotJSON is returned when either input does not decode as JSON.
var ErrNotJSON = errors.New("jsoncompare: input is not JSON")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options controls how two geometry dumps are compared.
type Options struct {
	Rules HeuristicRules
	// Tolerance is the largest absolute difference at which two numbers
	// still compare equal. Zero requires exact equality.
	Tolerance float64
	// IgnoreKeys names object members left out of the comparison wherever
	// they appear, such as "paint" or "diagnostics".
	IgnoreKeys []string
	// EquateEmpty treats null, [] and {} members as equal to absent ones.
	EquateEmpty bool
}

// DefaultOptions ignores run ids and sub-hundredth differences, which is
// the precision geometry is reported to.
func DefaultOptions() Options {
	return Options{
		Rules:       DefaultRules(),
		Tolerance:   0.01,
		EquateEmpty: true,
	}
}

// ComparisonResult is the outcome of a comparison.
type ComparisonResult struct {
	AreEquivalent bool
	// Diff is a go-cmp report, empty when the inputs are equivalent.
	Diff        string
	NormalizedA interface{}
	NormalizedB interface{}
}

// Service compares layout dumps written by the engine.
type Service struct {
	logger *zap.Logger
}

// NewService creates a comparison service.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger.Named("jsoncompare")}
}

// Compare compares with DefaultOptions.
func (s *Service) Compare(a, b []byte) (*ComparisonResult, error) {
	return s.CompareWithOptions(a, b, DefaultOptions())
}

// CompareWithOptions decodes both inputs, normalizes them and compares the
// results structurally.
func (s *Service) CompareWithOptions(a, b []byte, opts Options) (*ComparisonResult, error) {
	if bytes.Equal(a, b) && json.Valid(a) {
		return &ComparisonResult{AreEquivalent: true}, nil
	}

	var dataA, dataB interface{}
	if err := json.Unmarshal(a, &dataA); err != nil {
		return nil, fmt.Errorf("%w: first document: %v", ErrNotJSON, err)
	}
	if err := json.Unmarshal(b, &dataB); err != nil {
		return nil, fmt.Errorf("%w: second document: %v", ErrNotJSON, err)
	}

	n := NewNormalizer(opts.Rules, opts.IgnoreKeys)
	normA, normB := n.Normalize(dataA), n.Normalize(dataB)

	diff := cmp.Diff(normA, normB, buildCmpOptions(opts)...)
	if diff != "" {
		s.logger.Debug("Documents differ.", zap.Int("diff_bytes", len(diff)))
	}
	return &ComparisonResult{
		AreEquivalent: diff == "",
		Diff:          diff,
		NormalizedA:   normA,
		NormalizedB:   normB,
	}, nil
}

func buildCmpOptions(opts Options) cmp.Options {
	var cmpOpts cmp.Options
	if opts.Tolerance > 0 {
		cmpOpts = append(cmpOpts, cmpopts.EquateApprox(0, opts.Tolerance))
	}
	if opts.EquateEmpty {
		cmpOpts = append(cmpOpts, equateEmptyMembers())
	}
	return cmpOpts
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	}
	return false
}

// equateEmptyMembers drops empty members from objects before comparing
// them, so a member written as null, [] or {} equals a missing one.
func equateEmptyMembers() cmp.Option {
	return cmp.Transformer("dropEmpty", func(m map[string]interface{}) map[string]interface{} {
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			if !isEmpty(v) {
				out[k] = v
			}
		}
		return out
	})
}
