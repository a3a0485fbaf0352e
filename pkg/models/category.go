package models

// Category classifies a development subtask by the area of work it covers.
type Category string

const (
	// CategoryBackend is server-side work.
	CategoryBackend Category = "Backend"
	// CategoryFrontend is user-interface work.
	CategoryFrontend Category = "Frontend"
	// CategoryAPI is interface and integration work between components.
	CategoryAPI Category = "API"
	// CategoryDevOps is build, deployment and infrastructure work.
	CategoryDevOps Category = "DevOps"
	// CategoryTesting is dedicated test and verification work.
	CategoryTesting Category = "Testing"
)

// Valid returns true if the category is a known value.
// Matching is exact and case-sensitive.
func (c Category) Valid() bool {
	switch c {
	case CategoryBackend, CategoryFrontend, CategoryAPI, CategoryDevOps, CategoryTesting:
		return true
	default:
		return false
	}
}

// Categories returns every known category in declaration order.
func Categories() []Category {
	return []Category{CategoryBackend, CategoryFrontend, CategoryAPI, CategoryDevOps, CategoryTesting}
}

// Priority ranks a test case.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}
