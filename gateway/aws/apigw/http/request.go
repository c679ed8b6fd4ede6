package http

import (
	"encoding/base64"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/ryanpudd/aws-sam-cli/gateway"
)

type (
	Request http.Request

	//Options represents proxy event settings
	Options struct {
		Stage            string
		Region           string
		AccountID        string
		APIID            string
		RequestID        string
		BinaryMediaTypes []string
		Body             []byte
		StartTime        time.Time
	}

	//AuthorizerRequest represents lambda authorizer event, authorizationToken is set for token authorizers
	AuthorizerRequest struct {
		events.APIGatewayCustomAuthorizerRequestTypeRequest
		AuthorizationToken string `json:"authorizationToken,omitempty"`
	}
)

func (o *Options) init() {
	if o.RequestID == "" {
		o.RequestID = uuid.New().String()
	}
	if o.StartTime.IsZero() {
		o.StartTime = time.Now()
	}
	if o.APIID == "" {
		o.APIID = "1234567890"
	}
	if o.Region == "" {
		o.Region = "us-east-1"
	}
}

func (o *Options) body(contentType string) (string, bool) {
	if len(o.Body) == 0 {
		return "", false
	}
	if IsBinary(contentType, o.BinaryMediaTypes) {
		return base64.StdEncoding.EncodeToString(o.Body), true
	}
	return string(o.Body), false
}

//ProxyRequest converts to REST api (payload format 1.0) proxy event
func (r *Request) ProxyRequest(route *gateway.Route, options *Options) *events.APIGatewayProxyRequest {
	options.init()
	queryParameters := r.URL.Query()
	pathVariables := PathParameters(route.URI, r.URL.Path)
	body, isBase64 := options.body(r.Header.Get("Content-Type"))
	return &events.APIGatewayProxyRequest{
		Resource:                        route.URI,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         asHeaderMap(r.Header),
		MultiValueHeaders:               r.Header,
		QueryStringParameters:           asSingleValues(queryParameters),
		MultiValueQueryStringParameters: queryParameters,
		PathParameters:                  pathVariables,
		Body:                            body,
		IsBase64Encoded:                 isBase64,
		RequestContext: events.APIGatewayProxyRequestContext{
			AccountID:    options.AccountID,
			ResourceID:   "123456",
			Stage:        options.Stage,
			RequestID:    options.RequestID,
			ResourcePath: route.URI,
			HTTPMethod:   r.Method,
			APIID:        options.APIID,
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  r.sourceIP(),
				UserAgent: r.UserAgent(),
			},
		},
	}
}

//HTTPRequest converts to http api (payload format 2.0) event
func (r *Request) HTTPRequest(route *gateway.Route, options *Options) *events.APIGatewayV2HTTPRequest {
	options.init()
	routeKey := "$default"
	if len(route.Methods) > 0 {
		routeKey = strings.ToUpper(route.Methods[0]) + " " + route.URI
	}
	header := http.Header(r.Header).Clone()
	var cookies []string
	for _, cookie := range (*http.Request)(r).Cookies() {
		cookies = append(cookies, cookie.String())
	}
	header.Del("Cookie")
	headers := map[string]string{}
	for key, values := range header {
		headers[strings.ToLower(key)] = strings.Join(values, ",")
	}
	queryParameters := map[string]string{}
	for key, values := range r.URL.Query() {
		queryParameters[key] = strings.Join(values, ",")
	}
	body, isBase64 := options.body(r.Header.Get("Content-Type"))
	return &events.APIGatewayV2HTTPRequest{
		Version:               "2.0",
		RouteKey:              routeKey,
		RawPath:               r.URL.Path,
		RawQueryString:        r.URL.RawQuery,
		Cookies:               cookies,
		Headers:               headers,
		QueryStringParameters: queryParameters,
		PathParameters:        PathParameters(route.URI, r.URL.Path),
		Body:                  body,
		IsBase64Encoded:       isBase64,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RouteKey:  routeKey,
			AccountID: options.AccountID,
			Stage:     options.Stage,
			RequestID: options.RequestID,
			APIID:     options.APIID,
			TimeEpoch: options.StartTime.UnixNano() / int64(time.Millisecond),
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    r.Method,
				Path:      r.URL.Path,
				Protocol:  r.Proto,
				SourceIP:  r.sourceIP(),
				UserAgent: r.UserAgent(),
			},
		},
	}
}

//AuthorizerRequest converts to lambda authorizer event
func (r *Request) AuthorizerRequest(route *gateway.Route, options *Options) *AuthorizerRequest {
	options.init()
	queryParameters := r.URL.Query()
	methodArn := "arn:aws:execute-api:" + options.Region + ":" + options.AccountID + ":" + options.APIID + "/" + options.Stage + "/" + r.Method + r.URL.Path
	return &AuthorizerRequest{
		APIGatewayCustomAuthorizerRequestTypeRequest: events.APIGatewayCustomAuthorizerRequestTypeRequest{
			Type:                            "REQUEST",
			MethodArn:                       methodArn,
			Resource:                        route.URI,
			Path:                            r.URL.Path,
			HTTPMethod:                      r.Method,
			Headers:                         asHeaderMap(r.Header),
			MultiValueHeaders:               r.Header,
			QueryStringParameters:           asSingleValues(queryParameters),
			MultiValueQueryStringParameters: queryParameters,
			PathParameters:                  PathParameters(route.URI, r.URL.Path),
			RequestContext: events.APIGatewayCustomAuthorizerRequestTypeRequestContext{
				Path:         r.URL.Path,
				AccountID:    options.AccountID,
				Stage:        options.Stage,
				RequestID:    options.RequestID,
				ResourcePath: route.URI,
				HTTPMethod:   r.Method,
				APIID:        options.APIID,
			},
		},
		AuthorizationToken: r.Header.Get("Authorization"),
	}
}

func (r *Request) sourceIP() string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (r *Request) UserAgent() string {
	return r.Header.Get("User-Agent")
}
