package core

import "penguindash/pkg/domain"

type (
	// Table mirrors domain.Table for core consumers.
	Table = domain.Table
	// FilterState mirrors domain.FilterState for core consumers.
	FilterState = domain.FilterState
	// Summary mirrors domain.Summary for core consumers.
	Summary = domain.Summary
)
