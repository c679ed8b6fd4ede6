package swagger

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/ryanpudd/aws-sam-cli/gateway"
)

type (
	//Parser extracts lambda backed routes from swagger document with API Gateway extensions
	Parser struct {
		document *Value
		resolver Resolver
		logger   *slog.Logger
	}

	//Option configures a parser
	Option func(p *Parser)
)

//WithResolver overrides lambda URI resolver
func WithResolver(resolver Resolver) Option {
	return func(p *Parser) {
		p.resolver = resolver
	}
}

//WithLogger sets logger used for skipped integrations, slog.Default() otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

//BinaryMediaTypes returns x-amazon-apigateway-binary-media-types items in order, empty if not defined or falsy.
//A single string value is returned as one item, non scalar items as empty strings.
func (p *Parser) BinaryMediaTypes() []string {
	var result = []string{}
	value := p.document.Get(binaryMediaTypesKey)
	if !value.Truthy() {
		return result
	}
	if !value.IsSequence() {
		return append(result, value.Text())
	}
	for _, item := range value.Items() {
		result = append(result, item.Text())
	}
	return result
}

//Routes returns routes for every path and method backed by lambda proxy integration,
//an error is returned if the document is malformed or references undefined security scheme
func (p *Parser) Routes(eventType gateway.EventType) ([]*gateway.Route, error) {
	if eventType == "" {
		eventType = gateway.API
	}
	paths, err := mapping(p.document, "paths")
	if err != nil {
		return nil, err
	}
	components, err := mapping(p.document, "components")
	if err != nil {
		return nil, err
	}
	schemes, err := mapping(components, "securitySchemes")
	if err != nil {
		return nil, err
	}
	var result = []*gateway.Route{}
	for _, pathEntry := range paths.Pairs() {
		path, methods := pathEntry.Key, pathEntry.Value
		if !methods.IsMapping() && !methods.IsNull() {
			return nil, errors.Wrapf(ErrInvalidDocument, "path %v: expected mapping but had %v", path, methods.Kind())
		}
		for _, methodEntry := range methods.Pairs() {
			method, methodConfig := methodEntry.Key, methodEntry.Value
			authorizers, err := p.authorizers(methodConfig, schemes)
			if err != nil {
				return nil, errors.Wrapf(err, "path %v, method %v", path, method)
			}
			integration := p.integration(methodConfig)
			functionName := p.functionName(integration)
			if functionName == "" {
				p.logger.Debug("lambda function integration not found in swagger document", "path", path, "method", method)
				continue
			}
			if strings.ToLower(method) == anyMethodKey {
				method = gateway.AnyMethod
			}
			result = append(result, &gateway.Route{
				FunctionName:         functionName,
				URI:                  path,
				Methods:              []string{method},
				EventType:            eventType,
				PayloadFormatVersion: payloadFormatVersion(integration),
				Authorizers:          authorizers,
			})
		}
	}
	return result, nil
}

//integration returns aws_proxy integration defined for the method or nil
func (p *Parser) integration(methodConfig *Value) *Value {
	integration, ok := methodConfig.Lookup(integrationKey)
	if !ok || !integration.IsMapping() || !integration.Truthy() {
		return nil
	}
	if kind, _ := integration.Get("type").AsString(); kind != string(IntegrationAWSProxy) {
		return nil
	}
	return integration
}

func (p *Parser) functionName(integration *Value) string {
	if integration == nil {
		return ""
	}
	return p.resolver.FunctionName(integration.Get("uri"))
}

func (p *Parser) authorizers(methodConfig *Value, schemes *Value) ([]gateway.AuthorizerSet, error) {
	var result = []gateway.AuthorizerSet{}
	security := methodConfig.Get("security")
	if security.IsNull() {
		return result, nil
	}
	if !security.IsSequence() {
		return nil, errors.Wrapf(ErrInvalidDocument, "security: expected sequence but had %v", security.Kind())
	}
	for _, requirement := range security.Items() {
		if !requirement.IsMapping() {
			return nil, errors.Wrapf(ErrInvalidDocument, "security requirement: expected mapping but had %v", requirement.Kind())
		}
		authorizerSet := gateway.AuthorizerSet{}
		for _, entry := range requirement.Pairs() {
			scheme, ok := schemes.Lookup(entry.Key)
			if !ok {
				return nil, errors.Wrapf(ErrUnknownSecurityScheme, "%v", entry.Key)
			}
			authorizerSet[entry.Key] = p.authorizerFunctionName(scheme)
		}
		result = append(result, authorizerSet)
	}
	return result, nil
}

//authorizerFunctionName returns token or request lambda authorizer function name or nil
func (p *Parser) authorizerFunctionName(scheme *Value) *string {
	authorizer, ok := scheme.Lookup(authorizerKey)
	if !ok || !authorizer.IsMapping() || !authorizer.Truthy() {
		return nil
	}
	switch kind, _ := authorizer.Get("type").AsString(); AuthorizerType(kind) {
	case AuthorizerToken, AuthorizerRequest:
	default:
		return nil
	}
	name := p.resolver.FunctionName(authorizer.Get("authorizerUri"))
	if name == "" {
		return nil
	}
	return &name
}

func payloadFormatVersion(integration *Value) *string {
	version := integration.Get("payloadFormatVersion")
	if version.IsNull() {
		return nil
	}
	text := version.Text()
	return &text
}

//mapping returns mapping value for the key, absent or null value is treated as an empty mapping
func mapping(parent *Value, key string) (*Value, error) {
	value := parent.Get(key)
	if value.IsNull() {
		return newMapping(), nil
	}
	if !value.IsMapping() {
		return nil, errors.Wrapf(ErrInvalidDocument, "%v: expected mapping but had %v", key, value.Kind())
	}
	return value, nil
}

//New creates a parser, nil document is treated as an empty one
func New(document *Value, opts ...Option) *Parser {
	if document == nil {
		document = newMapping()
	}
	ret := &Parser{document: document}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.resolver == nil {
		ret.resolver = NewLambdaURI(ret.logger)
	}
	return ret
}

//NewWithData creates a parser for JSON or YAML encoded document
func NewWithData(data []byte, opts ...Option) (*Parser, error) {
	document, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return New(document, opts...), nil
}
