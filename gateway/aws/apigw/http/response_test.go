package http

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeResponse(t *testing.T) {
	var testCases = []struct {
		description    string
		payload        string
		payloadVersion string
		expectCode     int
		expectBody     string
		expectHeader   map[string]string
		expectErr      bool
	}{
		{
			description:    "structured response",
			payload:        `{"statusCode": 404, "headers": {"Content-Type": "text/plain"}, "multiValueHeaders": {"X-Id": ["1", "2"]}, "body": "missing"}`,
			payloadVersion: "1.0",
			expectCode:     404,
			expectBody:     "missing",
			expectHeader:   map[string]string{"Content-Type": "text/plain", "X-Id": "1"},
		},
		{
			description:    "base64 body",
			payload:        `{"statusCode": 200, "body": "aGk=", "isBase64Encoded": true}`,
			payloadVersion: "1.0",
			expectCode:     200,
			expectBody:     "hi",
		},
		{
			description:    "missing status code",
			payload:        `{"body": "x"}`,
			payloadVersion: "1.0",
			expectErr:      true,
		},
		{
			description:    "invalid json",
			payload:        `abc`,
			payloadVersion: "1.0",
			expectErr:      true,
		},
		{
			description:    "http api raw payload",
			payload:        `"hello"`,
			payloadVersion: "2.0",
			expectCode:     200,
			expectBody:     `"hello"`,
			expectHeader:   map[string]string{"Content-Type": "application/json"},
		},
	}
	for _, testCase := range testCases {
		proxy, err := DecodeResponse([]byte(testCase.payload), testCase.payloadVersion)
		if testCase.expectErr {
			assert.NotNil(t, err, testCase.description)
			continue
		}
		if !assert.Nil(t, err, testCase.description) {
			continue
		}
		response, err := NewResponse(proxy)
		if !assert.Nil(t, err, testCase.description) {
			continue
		}
		assert.Equal(t, testCase.expectCode, response.StatusCode, testCase.description)
		body, _ := io.ReadAll(response.Body)
		assert.Equal(t, testCase.expectBody, string(body), testCase.description)
		for k, v := range testCase.expectHeader {
			assert.Equal(t, v, response.Header.Get(k), testCase.description)
		}
	}
}
