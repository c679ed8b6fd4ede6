package apigw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/pkg/errors"
	"github.com/ryanpudd/aws-sam-cli/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/viant/gmetric"
)

type invocation struct {
	function string
	payload  []byte
}

type fakeInvoker struct {
	responses   map[string]string
	invocations []*invocation
}

func (f *fakeInvoker) Invoke(ctx context.Context, functionName string, payload []byte) ([]byte, error) {
	f.invocations = append(f.invocations, &invocation{function: functionName, payload: payload})
	response, ok := f.responses[functionName]
	if !ok {
		return nil, errors.Errorf("unknown function: %v", functionName)
	}
	return []byte(response), nil
}

func strPtr(s string) *string {
	return &s
}

func TestService_Do(t *testing.T) {
	var testCases = []struct {
		description string
		routes      []*gateway.Route
		responses   map[string]string
		method      string
		URI         string
		body        string
		header      http.Header
		expectCode  int
		expectBody  string
		expectCalls []string
		expectEvent func(t *testing.T, payload []byte)
	}{
		{
			description: "rest api proxy",
			routes: []*gateway.Route{
				{FunctionName: "Foo", URI: "/features/{id}", Methods: []string{"get"}, EventType: gateway.API},
			},
			responses:   map[string]string{"Foo": `{"statusCode": 201, "headers": {"X-Test": "1"}, "body": "ok"}`},
			method:      http.MethodGet,
			URI:         "/features/12?q=a&q=b",
			expectCode:  201,
			expectBody:  "ok",
			expectCalls: []string{"Foo"},
			expectEvent: func(t *testing.T, payload []byte) {
				event := &events.APIGatewayProxyRequest{}
				assert.Nil(t, json.Unmarshal(payload, event))
				assert.Equal(t, "/features/{id}", event.Resource)
				assert.Equal(t, "/features/12", event.Path)
				assert.Equal(t, map[string]string{"id": "12"}, event.PathParameters)
				assert.Equal(t, "b", event.QueryStringParameters["q"])
				assert.Equal(t, []string{"a", "b"}, event.MultiValueQueryStringParameters["q"])
				assert.Equal(t, "Prod", event.RequestContext.Stage)
			},
		},
		{
			description: "http api payload 2.0 raw response",
			routes: []*gateway.Route{
				{FunctionName: "Foo", URI: "/{proxy+}", Methods: []string{gateway.AnyMethod}, EventType: gateway.HTTP},
			},
			responses:   map[string]string{"Foo": `{"message": "hello"}`},
			method:      http.MethodPost,
			URI:         "/a/b",
			body:        `{"k": 1}`,
			expectCode:  200,
			expectBody:  `{"message": "hello"}`,
			expectCalls: []string{"Foo"},
			expectEvent: func(t *testing.T, payload []byte) {
				event := &events.APIGatewayV2HTTPRequest{}
				assert.Nil(t, json.Unmarshal(payload, event))
				assert.Equal(t, "2.0", event.Version)
				assert.Equal(t, "ANY /{proxy+}", event.RouteKey)
				assert.Equal(t, map[string]string{"proxy": "a/b"}, event.PathParameters)
				assert.Equal(t, `{"k": 1}`, event.Body)
				assert.Equal(t, "$default", event.RequestContext.Stage)
			},
		},
		{
			description: "binary body",
			routes: []*gateway.Route{
				{FunctionName: "Foo", URI: "/upload", Methods: []string{"post"}, PayloadFormatVersion: strPtr("1.0")},
			},
			responses:   map[string]string{"Foo": `{"statusCode": 200, "body": "aGVsbG8=", "isBase64Encoded": true}`},
			method:      http.MethodPost,
			URI:         "/upload",
			body:        "abc",
			header:      http.Header{"Content-Type": []string{"image/png"}},
			expectCode:  200,
			expectBody:  "hello",
			expectCalls: []string{"Foo"},
			expectEvent: func(t *testing.T, payload []byte) {
				event := &events.APIGatewayProxyRequest{}
				assert.Nil(t, json.Unmarshal(payload, event))
				assert.True(t, event.IsBase64Encoded)
				assert.Equal(t, "YWJj", event.Body)
			},
		},
		{
			description: "route not found",
			routes: []*gateway.Route{
				{FunctionName: "Foo", URI: "/features", Methods: []string{"get"}},
			},
			method:     http.MethodGet,
			URI:        "/other",
			expectCode: http.StatusForbidden,
			expectBody: `{"message":"Missing Authentication Token"}`,
		},
		{
			description: "authorizer allow",
			routes: []*gateway.Route{
				{FunctionName: "Foo", URI: "/features", Methods: []string{"get"}, Authorizers: []gateway.AuthorizerSet{{"Auth": strPtr("AuthFn"), "ApiKey": nil}}},
			},
			responses: map[string]string{
				"AuthFn": `{"principalId": "user", "policyDocument": {"Version": "2012-10-17", "Statement": [{"Action": ["execute-api:Invoke"], "Effect": "Allow", "Resource": ["*"]}]}, "context": {"role": "admin"}}`,
				"Foo":    `{"statusCode": 200, "body": "ok"}`,
			},
			method:      http.MethodGet,
			URI:         "/features",
			header:      http.Header{"Authorization": []string{"token"}},
			expectCode:  200,
			expectBody:  "ok",
			expectCalls: []string{"AuthFn", "Foo"},
			expectEvent: func(t *testing.T, payload []byte) {
				event := &events.APIGatewayProxyRequest{}
				assert.Nil(t, json.Unmarshal(payload, event))
				assert.Equal(t, "admin", event.RequestContext.Authorizer["role"])
				assert.Equal(t, "user", event.RequestContext.Authorizer["principalId"])
			},
		},
		{
			description: "authorizer deny",
			routes: []*gateway.Route{
				{FunctionName: "Foo", URI: "/features", Methods: []string{"get"}, Authorizers: []gateway.AuthorizerSet{{"Auth": strPtr("AuthFn")}}},
			},
			responses: map[string]string{
				"AuthFn": `{"principalId": "user", "policyDocument": {"Version": "2012-10-17", "Statement": [{"Action": ["execute-api:Invoke"], "Effect": "Deny", "Resource": ["*"]}]}}`,
				"Foo":    `{"statusCode": 200, "body": "ok"}`,
			},
			method:      http.MethodGet,
			URI:         "/features",
			expectCode:  http.StatusForbidden,
			expectBody:  `{"message":"User is not authorized to access this resource"}`,
			expectCalls: []string{"AuthFn"},
		},
		{
			description: "authorizer alternatives",
			routes: []*gateway.Route{
				{FunctionName: "Foo", URI: "/features", Methods: []string{"get"}, Authorizers: []gateway.AuthorizerSet{{"Token": strPtr("DenyFn")}, {"Request": strPtr("AllowFn")}}},
			},
			responses: map[string]string{
				"DenyFn":  `{"principalId": "user", "policyDocument": {"Version": "2012-10-17", "Statement": [{"Action": ["execute-api:Invoke"], "Effect": "Deny", "Resource": ["*"]}]}}`,
				"AllowFn": `{"isAuthorized": true, "context": {"role": "reader"}}`,
				"Foo":     `{"statusCode": 200, "body": "ok"}`,
			},
			method:      http.MethodGet,
			URI:         "/features",
			expectCode:  200,
			expectBody:  "ok",
			expectCalls: []string{"DenyFn", "AllowFn", "Foo"},
			expectEvent: func(t *testing.T, payload []byte) {
				event := &events.APIGatewayProxyRequest{}
				assert.Nil(t, json.Unmarshal(payload, event))
				assert.Equal(t, "reader", event.RequestContext.Authorizer["role"])
			},
		},
		{
			description: "every authorizer alternative denies",
			routes: []*gateway.Route{
				{FunctionName: "Foo", URI: "/features", Methods: []string{"get"}, Authorizers: []gateway.AuthorizerSet{{"Token": strPtr("DenyFn")}, {"Request": strPtr("AllowFn"), "Other": strPtr("DenyFn")}}},
			},
			responses: map[string]string{
				"DenyFn":  `{"principalId": "user", "policyDocument": {"Version": "2012-10-17", "Statement": [{"Action": ["execute-api:Invoke"], "Effect": "Deny", "Resource": ["*"]}]}}`,
				"AllowFn": `{"isAuthorized": true}`,
				"Foo":     `{"statusCode": 200, "body": "ok"}`,
			},
			method:      http.MethodGet,
			URI:         "/features",
			expectCode:  http.StatusForbidden,
			expectBody:  `{"message":"User is not authorized to access this resource"}`,
			expectCalls: []string{"DenyFn", "DenyFn"},
			expectEvent: func(t *testing.T, payload []byte) {
				event := &events.APIGatewayCustomAuthorizerRequestTypeRequest{}
				assert.Nil(t, json.Unmarshal(payload, event))
				assert.Equal(t, "arn:aws:execute-api:us-west-2:123456789012:1234567890/Prod/GET/features", event.MethodArn)
			},
		},
		{
			description: "function error",
			routes: []*gateway.Route{
				{FunctionName: "Missing", URI: "/features", Methods: []string{"get"}},
			},
			method:      http.MethodGet,
			URI:         "/features",
			expectCode:  http.StatusBadGateway,
			expectBody:  `{"message":"Internal server error"}`,
			expectCalls: []string{"Missing"},
		},
	}

	for _, testCase := range testCases {
		invoker := &fakeInvoker{responses: testCase.responses}
		srv := New(NewRouter(testCase.routes), &Config{BinaryMediaTypes: []string{"image~1*"}}, WithInvoker(invoker), WithMetrics(gmetric.New()))
		request := httptest.NewRequest(testCase.method, testCase.URI, strings.NewReader(testCase.body))
		for k, v := range testCase.header {
			request.Header[k] = v
		}
		recorder := httptest.NewRecorder()
		srv.Do(recorder, request)
		assert.Equal(t, testCase.expectCode, recorder.Code, testCase.description)
		assert.Equal(t, testCase.expectBody, recorder.Body.String(), testCase.description)
		var calls []string
		for _, call := range invoker.invocations {
			calls = append(calls, call.function)
		}
		assert.Equal(t, testCase.expectCalls, calls, testCase.description)
		if testCase.expectEvent != nil && len(invoker.invocations) > 0 {
			testCase.expectEvent(t, invoker.invocations[len(invoker.invocations)-1].payload)
		}
	}
}

func TestLambdaInvoker_Invoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		functionName := strings.TrimSuffix(strings.TrimPrefix(request.URL.Path, "/2015-03-31/functions/"), "/invocations")
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"function": "` + functionName + `"}`))
	}))
	defer server.Close()
	cfg := &Config{
		Endpoint: server.URL,
		Region:   "us-west-2",
		AWS: &aws.Config{
			Region:      aws.String("us-west-2"),
			Endpoint:    aws.String(server.URL),
			Credentials: credentials.NewStaticCredentials("id", "secret", ""),
		},
	}
	cfg.Init()
	invoker := &lambdaInvoker{cfg: cfg}
	var testCases = []struct {
		description string
		function    string
	}{
		{description: "first function", function: "Foo"},
		{description: "second function", function: "Bar"},
		{description: "third function", function: "Baz"},
		{description: "fourth function", function: "Qux"},
		{description: "fifth function", function: "Foo"},
		{description: "sixth function", function: "Bar"},
		{description: "seventh function", function: "Baz"},
		{description: "eighth function", function: "Qux"},
	}
	waitGroup := sync.WaitGroup{}
	waitGroup.Add(len(testCases))
	for i := range testCases {
		testCase := testCases[i]
		go func() {
			defer waitGroup.Done()
			output, err := invoker.Invoke(context.Background(), testCase.function, []byte(`{}`))
			if !assert.Nil(t, err, testCase.description) {
				return
			}
			assert.JSONEq(t, `{"function": "`+testCase.function+`"}`, string(output), testCase.description)
		}()
	}
	waitGroup.Wait()
}
