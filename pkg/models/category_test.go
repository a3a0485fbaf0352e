package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory_Valid(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		want     bool
	}{
		{"Backend is valid", CategoryBackend, true},
		{"Frontend is valid", CategoryFrontend, true},
		{"API is valid", CategoryAPI, true},
		{"DevOps is valid", CategoryDevOps, true},
		{"Testing is valid", CategoryTesting, true},
		{"lowercase is invalid", Category("backend"), false},
		{"empty is invalid", Category(""), false},
		{"prompt placeholder is invalid", Category("Backend | Frontend"), false},
		{"API Integration is invalid", Category("API Integration"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.Valid())
		})
	}
}

func TestCategories_AllValid(t *testing.T) {
	cats := Categories()
	assert.Len(t, cats, 5)
	for _, c := range cats {
		assert.True(t, c.Valid(), "category %q should be valid", c)
	}
}

func TestPriority_Valid(t *testing.T) {
	tests := []struct {
		priority Priority
		want     bool
	}{
		{PriorityHigh, true},
		{PriorityMedium, true},
		{PriorityLow, true},
		{Priority("high"), false},
		{Priority("Critical"), false},
		{Priority(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.priority.Valid())
		})
	}
}
