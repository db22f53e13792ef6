// Package service holds siteboard's use cases. Services validate typed
// requests, run repository calls (in transactions where a use case writes
// more than one row) and publish domain events.
package service

import (
	"strings"
	"time"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// ImportResult summarises a batch import. Per-item failures are collected in
// Errors and never abort the batch.
type ImportResult struct {
	Total      int         `json:"total"`
	Created    int         `json:"created"`
	Updated    int         `json:"updated"`
	Failed     int         `json:"failed"`
	Duplicates int         `json:"duplicates,omitempty"`
	Errors     []ItemError `json:"errors,omitempty"`
}

// ItemError reports why one item of a batch failed. Index is 1-based.
type ItemError struct {
	Index int    `json:"index"`
	Item  string `json:"item,omitempty"`
	Error string `json:"error"`
}

func (r *ImportResult) fail(index int, item string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, ItemError{Index: index, Item: item, Error: err.Error()})
}

// optionalString returns nil for blank input.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
