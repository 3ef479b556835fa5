// Package checklist compares a country's required document tags with the
// tags a patient has uploaded.
package checklist

import (
	"strings"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

var vocabulary = func() map[string]struct{} {
	m := make(map[string]struct{}, len(model.ChecklistTags))
	for _, t := range model.ChecklistTags {
		m[t] = struct{}{}
	}
	return m
}()

// ValidTag reports whether tag belongs to the checklist vocabulary.
func ValidTag(tag string) bool {
	_, ok := vocabulary[tag]
	return ok
}

// Normalize validates tags and removes duplicates, keeping first-seen order.
func Normalize(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	var unknown []string
	for _, t := range tags {
		if !ValidTag(t) {
			unknown = append(unknown, t)
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(unknown) > 0 {
		return nil, apperrors.Validationf("unknown document types: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// Missing returns the required tags with no uploaded counterpart, in the
// order of required. Matching is exact.
func Missing(required, uploaded []string) []string {
	have := make(map[string]struct{}, len(uploaded))
	for _, u := range uploaded {
		have[u] = struct{}{}
	}
	missing := []string{}
	seen := make(map[string]struct{}, len(required))
	for _, r := range required {
		if _, ok := have[r]; ok {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		missing = append(missing, r)
	}
	return missing
}

// IsComplete reports whether every required tag was uploaded.
func IsComplete(required, uploaded []string) bool {
	return len(Missing(required, uploaded)) == 0
}

// Status is the checklist view of one application.
type Status struct {
	Required []string `json:"required"`
	Uploaded []string `json:"uploaded"`
	Missing  []string `json:"missing"`
	Complete bool     `json:"complete"`
}

func Evaluate(required, uploaded []string) Status {
	missing := Missing(required, uploaded)
	return Status{
		Required: append([]string{}, required...),
		Uploaded: append([]string{}, uploaded...),
		Missing:  missing,
		Complete: len(missing) == 0,
	}
}
