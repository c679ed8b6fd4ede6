package gateway

import (
	"sort"
	"strings"
)

// AnyMethod matches every HTTP method not explicitly routed for a path
const AnyMethod = "ANY"

type EventType string

const (
	//API REST api (AWS::Serverless::Api) event
	API = EventType("Api")
	//HTTP http api (AWS::Serverless::HttpApi) event
	HTTP = EventType("HttpApi")
)

type (
	Routes []*Route

	//AuthorizerSet maps security scheme name to authorizer function name, nil if unresolved
	AuthorizerSet map[string]*string

	Route struct {
		FunctionName         string
		URI                  string
		Methods              []string
		EventType            EventType
		PayloadFormatVersion *string
		Authorizers          []AuthorizerSet
	}
)

//HasMethod returns true if route handles supplied method
func (r *Route) HasMethod(method string) bool {
	for _, candidate := range r.Methods {
		if strings.EqualFold(candidate, method) {
			return true
		}
	}
	return false
}

//PayloadVersion returns payload format version, defaulting by event type
func (r *Route) PayloadVersion() string {
	if r.PayloadFormatVersion != nil && *r.PayloadFormatVersion != "" {
		return *r.PayloadFormatVersion
	}
	if r.EventType == HTTP {
		return "2.0"
	}
	return "1.0"
}

//Functions returns resolved authorizer function names ordered by scheme name
func (s AuthorizerSet) Functions() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	var result []string
	for _, name := range names {
		if fn := s[name]; fn != nil && *fn != "" {
			result = append(result, *fn)
		}
	}
	return result
}
