package sam

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/ryanpudd/aws-sam-cli/gateway"
	"github.com/ryanpudd/aws-sam-cli/gateway/aws/apigw/swagger"
)

const (
	apiEvent     = "Api"
	httpAPIEvent = "HttpApi"
)

//API represents routes and binary media types collected from a template
type API struct {
	Routes           gateway.Routes
	BinaryMediaTypes []string
}

//API returns gateway routes defined by Api/HttpApi swagger definitions and function events,
//a route defined by a definition takes precedence over a function event route with the same path and method
func (t *Template) API(ctx context.Context, logger *slog.Logger) (*API, error) {
	if logger == nil {
		logger = slog.Default()
	}
	result := &API{BinaryMediaTypes: []string{}}
	index := map[string]bool{}
	add := func(route *gateway.Route) {
		key := strings.ToUpper(route.Methods[0]) + " " + route.URI
		if index[key] {
			logger.Debug("duplicate route ignored", "route", key, "function", route.FunctionName)
			return
		}
		index[key] = true
		result.Routes = append(result.Routes, route)
	}
	names := t.resourceNames()
	for _, name := range names {
		resource := t.Resources[name]
		var eventType gateway.EventType
		switch resource.Type {
		case APIType:
			eventType = gateway.API
		case HTTPAPIType:
			eventType = gateway.HTTP
		default:
			continue
		}
		definition, err := t.Definition(ctx, name)
		if err != nil {
			return nil, err
		}
		result.BinaryMediaTypes = appendUnique(result.BinaryMediaTypes, resource.Properties.BinaryMediaTypes...)
		if definition == nil {
			continue
		}
		parser := swagger.New(definition, swagger.WithLogger(logger))
		routes, err := parser.Routes(eventType)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to extract %v routes", name)
		}
		for _, route := range routes {
			add(route)
		}
		result.BinaryMediaTypes = appendUnique(result.BinaryMediaTypes, parser.BinaryMediaTypes()...)
	}
	for _, name := range names {
		resource := t.Resources[name]
		if resource.Type != FunctionType {
			continue
		}
		for _, route := range t.functionRoutes(name, resource) {
			add(route)
		}
	}
	return result, nil
}

//Routes returns gateway routes with lambda info
func (t *Template) Routes(ctx context.Context) (gateway.Routes, error) {
	api, err := t.API(ctx, nil)
	if err != nil {
		return nil, err
	}
	return api.Routes, nil
}

func (t *Template) functionRoutes(name string, res *Resource) gateway.Routes {
	var result gateway.Routes
	events := t.document.Path("Resources", name, "Properties", "Events")
	for _, pair := range events.Pairs() {
		eventName := pair.Key
		event := res.Properties.Events[eventName]
		if event == nil {
			continue
		}
		prop := event.Properties
		if prop == nil {
			prop = &Properties{}
		}
		route := &gateway.Route{
			FunctionName: name,
			URI:          prop.Path,
			Methods:      []string{prop.Method},
			Authorizers:  t.eventAuthorizers(name, eventName),
		}
		switch event.Type {
		case apiEvent:
			route.EventType = gateway.API
		case httpAPIEvent:
			route.EventType = gateway.HTTP
			if route.URI == "" && prop.Method == "" {
				route.URI = "/{proxy+}"
			}
			version := prop.PayloadFormatVersion
			if version == "" {
				version = "2.0"
			}
			route.PayloadFormatVersion = &version
		default:
			continue
		}
		if route.URI == "" {
			continue
		}
		if route.Methods[0] == "" || strings.EqualFold(route.Methods[0], "any") {
			route.Methods[0] = gateway.AnyMethod
		}
		result = append(result, route)
	}
	return result
}

//eventAuthorizers resolves event Auth.Authorizer against referenced (or any) Api Auth.Authorizers FunctionArn
func (t *Template) eventAuthorizers(functionName, eventName string) []gateway.AuthorizerSet {
	var result = []gateway.AuthorizerSet{}
	properties := t.document.Path("Resources", functionName, "Properties", "Events", eventName, "Properties")
	authorizer, ok := properties.Path("Auth", "Authorizer").AsString()
	if !ok || authorizer == "" || authorizer == "NONE" || authorizer == "AWS_IAM" {
		return result
	}
	var candidates []string
	for _, key := range []string{"RestApiId", "ApiId"} {
		if ref, ok := properties.Path(key, "Ref").AsString(); ok {
			candidates = append(candidates, ref)
		}
	}
	if len(candidates) == 0 {
		candidates = t.resourceNames()
	}
	for _, candidate := range candidates {
		definition := t.document.Path("Resources", candidate, "Properties", "Auth", "Authorizers", authorizer)
		if definition == nil {
			continue
		}
		var fn *string
		if name := functionReference(definition.Get("FunctionArn")); name != "" {
			fn = &name
		}
		return append(result, gateway.AuthorizerSet{authorizer: fn})
	}
	return append(result, gateway.AuthorizerSet{authorizer: nil})
}

//functionReference returns function name from {"Fn::GetAtt": [Name, Arn]} or {"Ref": Name}
func functionReference(value *swagger.Value) string {
	if attr, ok := value.Lookup("Fn::GetAtt"); ok {
		if items := attr.Items(); len(items) > 0 {
			name, _ := items[0].AsString()
			return name
		}
		if text, ok := attr.AsString(); ok {
			return strings.SplitN(text, ".", 2)[0]
		}
		return ""
	}
	name, _ := value.Get("Ref").AsString()
	return name
}

//resourceNames returns resource names in template order
func (t *Template) resourceNames() []string {
	var names []string
	for _, pair := range t.document.Get("Resources").Pairs() {
		if _, ok := t.Resources[pair.Key]; ok {
			names = append(names, pair.Key)
		}
	}
	return names
}

func appendUnique(target []string, values ...string) []string {
	for _, value := range values {
		found := false
		for _, candidate := range target {
			if candidate == value {
				found = true
				break
			}
		}
		if !found {
			target = append(target, value)
		}
	}
	return target
}
