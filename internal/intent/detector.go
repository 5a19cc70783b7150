package intent

// Copyright (C) 2025 Rizome Labs, Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; either version 2
// of the License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/rizome-dev/kasir/internal/action"
	actpkg "github.com/rizome-dev/kasir/pkg/action"
)

const (
	// DefaultThreshold is the minimum confidence for an intent to be acted on
	DefaultThreshold = 0.7
	// ExampleConfidence is reported when an example phrase matches
	ExampleConfidence = 0.8
	// ExampleMatchRatio is the share of an example's words the message must contain
	ExampleMatchRatio = 0.6
	// minWordLength: only words longer than this count when matching examples
	minWordLength = 3
)

// Options configures a Detector
type Options struct {
	Threshold float64
	// Rules replaces DefaultRules when non-nil
	Rules []Rule
}

// Detector classifies free text into action intents
type Detector struct {
	registry  *action.Registry
	threshold float64

	mu         sync.RWMutex
	rules      []Rule
	extractors map[string]Extractor
}

// NewDetector creates a detector that reads examples from registry
func NewDetector(registry *action.Registry, opts Options) *Detector {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	d := &Detector{
		registry:   registry,
		threshold:  opts.Threshold,
		rules:      rules,
		extractors: make(map[string]Extractor),
	}
	for id, ex := range DefaultExtractors() {
		d.extractors[id] = ex
	}
	return d
}

// Threshold returns the confidence an intent needs before it is acted on
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// SetExtractor replaces the slot extractor used for an action
func (d *Detector) SetExtractor(actionID string, ex Extractor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.extractors[actionID] = ex
}

// Detect classifies message. Example phrases are tried first, then the
// keyword rules; the first match wins.
func (d *Detector) Detect(message string) actpkg.Intent {
	if id, ok := d.matchExamples(message); ok {
		return actpkg.Intent{
			DetectedActionID:    id,
			Confidence:          ExampleConfidence,
			ExtractedParameters: d.ExtractParameters(message, id),
			RawMessage:          message,
		}
	}

	if intent, ok := d.matchRules(message); ok {
		return intent
	}

	return actpkg.Intent{
		Confidence:          0,
		ExtractedParameters: actpkg.Params{},
		RawMessage:          message,
	}
}

// IsActionRequest reports whether message is confidently an action request.
// The comparison is strict: a confidence of exactly 0.7 is not enough.
func (d *Detector) IsActionRequest(message string) bool {
	return d.Detect(message).Confidence > DefaultThreshold
}

// ExtractParameters runs the slot extractor for actionID over message.
// Values are raw and still have to be normalized against the schema.
func (d *Detector) ExtractParameters(message, actionID string) actpkg.Params {
	d.mu.RLock()
	ex, exists := d.extractors[actionID]
	d.mu.RUnlock()

	if !exists {
		return actpkg.Params{}
	}
	params, _ := ex(message)
	if params == nil {
		params = actpkg.Params{}
	}
	return params
}

func (d *Detector) matchExamples(message string) (string, bool) {
	words := wordSet(message)
	if len(words) == 0 {
		return "", false
	}

	for _, a := range d.registry.All() {
		for _, example := range a.Examples {
			exampleWords := significantWords(example)
			if len(exampleWords) == 0 {
				continue
			}

			matched := 0
			for _, w := range exampleWords {
				if words[w] {
					matched++
				}
			}

			if float64(matched)/float64(len(exampleWords)) >= ExampleMatchRatio {
				return a.ID, true
			}
		}
	}

	return "", false
}

func (d *Detector) matchRules(message string) (actpkg.Intent, bool) {
	lower := strings.ToLower(message)

	d.mu.RLock()
	rules := d.rules
	d.mu.RUnlock()

	for _, rule := range rules {
		if !rule.Matches(lower) {
			continue
		}

		params := actpkg.Params{}
		if rule.Extract != nil {
			extracted, ok := rule.Extract(message)
			if !ok {
				// A required slot is missing, let later rules try
				continue
			}
			params = extracted
		}

		return actpkg.Intent{
			DetectedActionID:    rule.ActionID,
			Confidence:          rule.Confidence,
			ExtractedParameters: params,
			RawMessage:          message,
		}, true
	}

	return actpkg.Intent{}, false
}

// significantWords lowercases s, splits it on anything that is not a
// letter or digit and keeps the words longer than minWordLength runes
func significantWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	words := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > minWordLength {
			words = append(words, f)
		}
	}
	return words
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range significantWords(s) {
		set[w] = true
	}
	return set
}
