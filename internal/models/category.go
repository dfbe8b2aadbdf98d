// Package models defines the inventory data structures used throughout the tool.
// Snapshots are serialized to JSON both for snapshot files and for the facts
// column of the relational store.
package models

import (
	"fmt"
	"strings"
)

// Category identifies one group of host facts.
type Category string

const (
	CategoryCPU     Category = "cpu"
	CategoryMemory  Category = "memory"
	CategoryStorage Category = "storage"
	CategoryGPU     Category = "gpu"
	CategoryNetwork Category = "network"
	CategoryOS      Category = "os"
)

// AllCategories returns every supported category in the default collection order.
func AllCategories() []Category {
	return []Category{
		CategoryCPU,
		CategoryMemory,
		CategoryStorage,
		CategoryGPU,
		CategoryNetwork,
		CategoryOS,
	}
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCPU, CategoryMemory, CategoryStorage, CategoryGPU, CategoryNetwork, CategoryOS:
		return true
	default:
		return false
	}
}

// ParseCategory converts a case-insensitive name into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// ParseCategories converts names into categories, keeping the first
// occurrence of each and preserving order. An empty input yields AllCategories.
func ParseCategories(names []string) ([]Category, error) {
	if len(names) == 0 {
		return AllCategories(), nil
	}
	seen := make(map[Category]bool, len(names))
	result := make([]Category, 0, len(names))
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		result = append(result, c)
	}
	return result, nil
}

// StatusCode is the outcome of collecting one category.
type StatusCode string

const (
	StatusOK           StatusCode = "ok"
	StatusUnavailable  StatusCode = "unavailable"
	StatusPartialError StatusCode = "partial_error"
)

// Status describes how a fact was collected. Message is empty for StatusOK.
type Status struct {
	Code    StatusCode `json:"code"`
	Message string     `json:"message,omitempty"`
}

// OK returns a successful status.
func OK() Status { return Status{Code: StatusOK} }

// Unavailable returns a status for a category the platform cannot provide.
func Unavailable(reason string) Status {
	return Status{Code: StatusUnavailable, Message: reason}
}

// PartialError returns a status for a category whose collection failed.
func PartialError(msg string) Status {
	return Status{Code: StatusPartialError, Message: msg}
}

// Valid reports whether the status code is known.
func (s Status) Valid() bool {
	switch s.Code {
	case StatusOK, StatusUnavailable, StatusPartialError:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	if s.Message == "" {
		return string(s.Code)
	}
	return fmt.Sprintf("%s: %s", s.Code, s.Message)
}
