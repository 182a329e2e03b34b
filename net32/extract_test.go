package net32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLastJSONObject(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		expected string
		found    bool
	}{
		{
			name:     "Plain object",
			body:     `{"statusCode":200}`,
			expected: `{"statusCode":200}`,
			found:    true,
		},
		{
			name:     "Diagnostic prefix before the object",
			body:     `request received at node 3 {"statusCode":200,"success":true}`,
			expected: `{"statusCode":200,"success":true}`,
			found:    true,
		},
		{
			name:     "Multiple objects returns the last",
			body:     `{"statusCode":500} retrying {"statusCode":200}`,
			expected: `{"statusCode":200}`,
			found:    true,
		},
		{
			name:     "Nested braces stay within one object",
			body:     `noise {"payload":{"inner":{"deep":1}},"success":true} trailing`,
			expected: `{"payload":{"inner":{"deep":1}},"success":true}`,
			found:    true,
		},
		{
			name:     "Braces inside strings are not delimiters",
			body:     `{"message":"use {curly} braces","success":true}`,
			expected: `{"message":"use {curly} braces","success":true}`,
			found:    true,
		},
		{
			name:     "Escaped quote inside string",
			body:     `{"message":"she said \"hi {there}\"","statusCode":200}`,
			expected: `{"message":"she said \"hi {there}\"","statusCode":200}`,
			found:    true,
		},
		{
			name:  "No JSON at all",
			body:  `internal server error`,
			found: false,
		},
		{
			name:  "Unbalanced braces never complete an object",
			body:  `{"statusCode":200`,
			found: false,
		},
		{
			name:     "Invalid candidate is skipped in favor of an earlier valid one",
			body:     `{"statusCode":200} {not json}`,
			expected: `{"statusCode":200}`,
			found:    true,
		},
		{
			name:  "Empty body",
			body:  "",
			found: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractLastJSONObject(tc.body)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}
