package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathParameters(t *testing.T) {
	var testCases = []struct {
		description string
		template    string
		path        string
		expect      map[string]string
	}{
		{description: "no parameters", template: "/features", path: "/features"},
		{description: "single parameter", template: "/features/{id}", path: "/features/12", expect: map[string]string{"id": "12"}},
		{description: "escaped parameter", template: "/features/{id}/{name}", path: "/features/1/a%20b", expect: map[string]string{"id": "1", "name": "a b"}},
		{description: "greedy parameter", template: "/files/{proxy+}", path: "/files/a/b/c.txt", expect: map[string]string{"proxy": "a/b/c.txt"}},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, PathParameters(testCase.template, testCase.path), testCase.description)
	}
}

func TestIsBinary(t *testing.T) {
	var testCases = []struct {
		description string
		contentType string
		mediaTypes  []string
		expect      bool
	}{
		{description: "no media types", contentType: "image/png"},
		{description: "exact", contentType: "image/png", mediaTypes: []string{"image/png"}, expect: true},
		{description: "escaped", contentType: "application/octet-stream", mediaTypes: []string{"application~1octet-stream"}, expect: true},
		{description: "wildcard", contentType: "image/gif; charset=binary", mediaTypes: []string{"image/*"}, expect: true},
		{description: "any", contentType: "text/plain", mediaTypes: []string{"*~1*"}, expect: true},
		{description: "text", contentType: "application/json", mediaTypes: []string{"image/*"}},
		{description: "no content type", mediaTypes: []string{"*/*"}},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, IsBinary(testCase.contentType, testCase.mediaTypes), testCase.description)
	}
}
