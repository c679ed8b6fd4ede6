package swagger

import (
	"log/slog"
	"regexp"
	"strings"
)

const (
	fnSub            = "Fn::Sub"
	fnGetAtt         = "Fn::GetAtt"
	//functionFragment precedes function name in arn:aws:lambda:<region>:<account>:function:<name>[:<alias>]
	functionFragment = ":function:"
	//functionArnPrefix replaces ${Function.Arn} and ${Function.Alias} in Fn::Sub expressions
	functionArnPrefix = "arn:aws:lambda:${AWS::Region}:123456789012:function:"
)

var (
	invocationExpr    = regexp.MustCompile(`.+/functions/(.+)/invocations`)
	subFunctionExpr   = regexp.MustCompile(`\$\{([A-Za-z0-9]+)\.(Arn|Alias)\}`)
	subVariableExpr   = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)
	stageVariableExpr = regexp.MustCompile(`^\$\{stageVariables\..+\}`)
	functionNameExpr  = regexp.MustCompile(`^[A-Za-z0-9\-_]+$`)
)

type (
	//Resolver resolves function name from integration or authorizer URI expression, empty if it cannot be determined
	Resolver interface {
		FunctionName(uri *Value) string
	}

	//ResolverFunc adapts function to Resolver
	ResolverFunc func(uri *Value) string

	//LambdaURI resolves lambda function name from API Gateway invocation URI,
	//i.e. arn:aws:apigateway:us-east-1:lambda:path/2015-03-31/functions/arn:aws:lambda:us-east-1:123456789012:function:Foo/invocations
	LambdaURI struct {
		logger *slog.Logger
	}
)

func (f ResolverFunc) FunctionName(uri *Value) string {
	return f(uri)
}

//FunctionName returns lambda function name or empty string
func (u *LambdaURI) FunctionName(uri *Value) string {
	arn := u.functionArn(uri)
	if arn == "" {
		return ""
	}
	u.log().Debug("extracted function ARN", "arn", arn)
	return u.functionNameFromArn(arn)
}

func (u *LambdaURI) functionArn(uri *Value) string {
	if !uri.Truthy() {
		return ""
	}
	if isSub(uri) {
		uri = u.resolveSub(uri)
	}
	text, ok := uri.AsString()
	if !ok {
		u.log().Debug("unsupported integration URI format", "uri", uri.Interface())
		return ""
	}
	matches := invocationExpr.FindStringSubmatch(text)
	if len(matches) < 2 {
		u.log().Debug("ignoring integration URI, not a lambda function integration", "uri", text)
		return ""
	}
	return matches[1]
}

func (u *LambdaURI) functionNameFromArn(arn string) string {
	name := arn
	if strings.Contains(arn, ":") {
		index := strings.LastIndex(arn, functionFragment)
		if index == -1 {
			u.log().Debug("unable to parse function name from ARN", "arn", arn)
			return ""
		}
		name = arn[index+len(functionFragment):]
		if alias := strings.Index(name, ":"); alias != -1 {
			name = name[:alias]
		}
	}
	if stageVariableExpr.MatchString(name) {
		u.log().Debug("stage variables are not supported, ignoring integration", "arn", arn)
		return ""
	}
	if !functionNameExpr.MatchString(name) {
		u.log().Debug("unable to parse function name from ARN", "arn", arn)
		return ""
	}
	return name
}

//resolveSub resolves short (string) and long (list) Fn::Sub forms, the result is unchanged if the template is not a string
func (u *LambdaURI) resolveSub(uri *Value) *Value {
	expr := uri.Get(fnSub)
	var variables *Value
	if expr.IsSequence() {
		items := expr.Items()
		if len(items) == 0 {
			return uri
		}
		if len(items) > 1 {
			variables = items[1]
		}
		expr = items[0]
	}
	template, ok := expr.AsString()
	if !ok {
		u.log().Debug("unable to resolve Fn::Sub value for URI", "uri", uri.Interface())
		return uri
	}
	template = subFunctionExpr.ReplaceAllStringFunc(template, func(placeholder string) string {
		return functionArnPrefix + subFunctionExpr.FindStringSubmatch(placeholder)[1]
	})
	if variables.IsMapping() {
		template = subVariableExpr.ReplaceAllStringFunc(template, func(placeholder string) string {
			name := placeholder[2 : len(placeholder)-1]
			if function := variableFunction(variables.Get(name)); function != "" {
				return functionArnPrefix + function
			}
			return placeholder
		})
	}
	return &Value{kind: String, scalar: template}
}

//variableFunction returns function name for Fn::Sub variable defined as {"Fn::GetAtt": [Name, Arn]} or {"Ref": Name}
func variableFunction(variable *Value) string {
	if attr, ok := variable.Lookup(fnGetAtt); ok {
		items := attr.Items()
		if len(items) == 0 {
			if text, ok := attr.AsString(); ok {
				items = splitAttribute(text).Items()
			}
		}
		if len(items) == 2 {
			name, _ := items[0].AsString()
			kind, _ := items[1].AsString()
			if kind == "Arn" || kind == "Alias" {
				return name
			}
		}
		return ""
	}
	name, _ := variable.Get("Ref").AsString()
	return name
}

func isSub(value *Value) bool {
	_, ok := value.Lookup(fnSub)
	return ok && value.Len() == 1
}

func (u *LambdaURI) log() *slog.Logger {
	if u.logger != nil {
		return u.logger
	}
	return slog.Default()
}

//NewLambdaURI creates lambda URI resolver
func NewLambdaURI(logger *slog.Logger) *LambdaURI {
	return &LambdaURI{logger: logger}
}
