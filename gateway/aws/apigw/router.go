package apigw

import (
	"net/http"
	"strings"

	"github.com/ryanpudd/aws-sam-cli/gateway"
	"github.com/ryanpudd/aws-sam-cli/gateway/matcher"
)

type (
	Router struct {
		matcher *matcher.Matcher
	}

	matchable struct {
		route *gateway.Route
	}
)

func NewRouter(routes []*gateway.Route) *Router {
	matchables := make([]matcher.Matchable, 0, len(routes))
	for _, route := range routes {
		matchables = append(matchables, &matchable{
			route: route,
		})
	}

	aMatcher := matcher.NewMatcher(matchables)
	return &Router{matcher: aMatcher}
}

//FindRoute returns route for request method, or ANY method route for the path
func (c *Router) FindRoute(request *http.Request) (*gateway.Route, error) {
	aRoute, err := c.matcher.MatchOne(strings.ToUpper(request.Method), request.RequestURI)
	if err != nil {
		var anyErr error
		if aRoute, anyErr = c.matcher.MatchOne(gateway.AnyMethod, request.RequestURI); anyErr != nil {
			return nil, err
		}
	}

	route := aRoute.(*matchable)
	return route.route, nil
}

func (m *matchable) URI() string {
	return m.route.URI
}

func (m *matchable) Namespaces() []string {
	result := make([]string, 0, len(m.route.Methods))
	for _, method := range m.route.Methods {
		result = append(result, strings.ToUpper(method))
	}
	return result
}
