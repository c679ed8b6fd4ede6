package apigw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/pkg/errors"
	"github.com/ryanpudd/aws-sam-cli/gateway"
	ahttp "github.com/ryanpudd/aws-sam-cli/gateway/aws/apigw/http"
	"github.com/viant/gmetric"
)

type (
	//Invoker invokes lambda function with JSON payload
	Invoker interface {
		Invoke(ctx context.Context, functionName string, payload []byte) ([]byte, error)
	}

	Service struct {
		cfg     *Config
		mux     sync.RWMutex
		router  *Router
		invoker Invoker
		logger  *slog.Logger
		metrics *gmetric.Operation
	}

	Option func(s *Service)

	lambdaInvoker struct {
		cfg    *Config
		mux    sync.Mutex
		client *lambda.Lambda
	}

	//authorizerResponse covers IAM policy and http api simple authorizer responses
	authorizerResponse struct {
		events.APIGatewayCustomAuthorizerResponse
		IsAuthorized *bool `json:"isAuthorized,omitempty"`
	}
)

func WithInvoker(invoker Invoker) Option {
	return func(s *Service) {
		s.invoker = invoker
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(metrics *gmetric.Service) Option {
	return func(s *Service) {
		location := fmt.Sprintf("%T", s)
		s.metrics = metrics.MultiOperationCounter(location, MetricName, "gateway performance", time.Microsecond, time.Microsecond, 3, newStats())
	}
}

func (s *lambdaInvoker) ensureClient() (*lambda.Lambda, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	sess, err := s.newSession()
	if err != nil {
		return nil, err
	}
	s.client = lambda.New(sess, s.cfg.AWS)
	return s.client, nil
}

func (s *lambdaInvoker) newSession() (*session.Session, error) {
	var options []*aws.Config
	if s.cfg.Endpoint != "" {
		options = append(options, &aws.Config{
			Region:   aws.String(s.cfg.Region),
			Endpoint: aws.String(s.cfg.Endpoint)})
	}
	return session.NewSession(options...)
}

func (s *lambdaInvoker) Invoke(ctx context.Context, functionName string, payload []byte) ([]byte, error) {
	client, err := s.ensureClient()
	if err != nil {
		return nil, err
	}
	input := &lambda.InvokeInput{
		FunctionName: aws.String(functionName),
		Payload:      payload,
	}
	output, err := client.InvokeWithContext(ctx, input)
	if err != nil {
		return nil, err
	}
	if output.FunctionError != nil {
		return nil, errors.Errorf("function %v error: %v, %s", functionName, *output.FunctionError, output.Payload)
	}
	return output.Payload, nil
}

//Do matches request route, calls route authorizers and route lambda function
func (s *Service) Do(writer http.ResponseWriter, request *http.Request) {
	var values []interface{}
	if s.metrics != nil {
		onDone := s.metrics.Begin(time.Now())
		defer func() { onDone(time.Now(), values...) }()
	}
	router, binaryMediaTypes := s.state()
	route, err := router.FindRoute(request)
	if err != nil {
		values = append(values, NotFoundKey)
		s.logger.Debug("route not found", "method", request.Method, "uri", request.RequestURI)
		writeMessage(writer, http.StatusForbidden, "Missing Authentication Token")
		return
	}
	var body []byte
	if request.Body != nil {
		if body, err = io.ReadAll(request.Body); err != nil {
			values = append(values, err)
			writeMessage(writer, http.StatusBadRequest, err.Error())
			return
		}
		_ = request.Body.Close()
		request.Body = io.NopCloser(bytes.NewReader(body))
	}
	options := &ahttp.Options{
		Stage:            s.stage(route),
		Region:           s.cfg.Region,
		AccountID:        s.cfg.AccountID,
		BinaryMediaTypes: binaryMediaTypes,
		Body:             body,
	}
	ctx := request.Context()
	authorizerContext, err := s.authorize(ctx, route, request, options)
	if err != nil {
		values = append(values, UnauthorizedKey)
		s.logger.Debug("request not authorized", "method", request.Method, "uri", request.RequestURI, "error", err)
		writeMessage(writer, http.StatusForbidden, "User is not authorized to access this resource")
		return
	}
	payload, err := s.event(route, request, options, authorizerContext)
	if err != nil {
		values = append(values, err)
		writeMessage(writer, http.StatusInternalServerError, err.Error())
		return
	}
	output, err := s.invoker.Invoke(ctx, route.FunctionName, payload)
	if err != nil {
		values = append(values, FunctionErrorKey)
		s.logger.Error("function invocation failed", "function", route.FunctionName, "error", err)
		writeMessage(writer, http.StatusBadGateway, "Internal server error")
		return
	}
	proxyResponse, err := ahttp.DecodeResponse(output, route.PayloadVersion())
	if err == nil {
		var response *http.Response
		if response, err = ahttp.NewResponse(proxyResponse); err == nil {
			if err = ahttp.Write(writer, response); err != nil {
				s.logger.Debug("failed to write response", "function", route.FunctionName, "error", err)
			}
			return
		}
	}
	values = append(values, err)
	s.logger.Error("invalid function response", "function", route.FunctionName, "error", err)
	writeMessage(writer, http.StatusBadGateway, "Internal server error")
}

//Reload replaces routes and binary media types, in-flight requests keep the previous router
func (s *Service) Reload(router *Router, binaryMediaTypes []string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.router = router
	s.cfg.BinaryMediaTypes = binaryMediaTypes
}

func (s *Service) state() (*Router, []string) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.router, s.cfg.BinaryMediaTypes
}

func (s *Service) event(route *gateway.Route, request *http.Request, options *ahttp.Options, authorizerContext map[string]interface{}) ([]byte, error) {
	aRequest := (*ahttp.Request)(request)
	if route.PayloadVersion() == "2.0" {
		return json.Marshal(aRequest.HTTPRequest(route, options))
	}
	proxyRequest := aRequest.ProxyRequest(route, options)
	if len(authorizerContext) > 0 {
		proxyRequest.RequestContext.Authorizer = authorizerContext
	}
	return json.Marshal(proxyRequest)
}

//authorize calls lambda authorizers, security requirements are alternatives: the request is authorized by the first
//requirement whose resolved authorizers all allow it, a requirement without resolved authorizers is not enforced
func (s *Service) authorize(ctx context.Context, route *gateway.Route, request *http.Request, options *ahttp.Options) (map[string]interface{}, error) {
	var err error
	for _, authorizerSet := range route.Authorizers {
		var authContext map[string]interface{}
		if authContext, err = s.authorizeSet(ctx, authorizerSet, route, request, options); err == nil {
			return authContext, nil
		}
	}
	return nil, err
}

//authorizeSet requires every resolved authorizer of the security requirement to allow the request
func (s *Service) authorizeSet(ctx context.Context, authorizerSet gateway.AuthorizerSet, route *gateway.Route, request *http.Request, options *ahttp.Options) (map[string]interface{}, error) {
	var result map[string]interface{}
	for _, functionName := range authorizerSet.Functions() {
		authContext, err := s.callAuthorizer(ctx, functionName, route, request, options)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = map[string]interface{}{}
		}
		for k, v := range authContext {
			result[k] = v
		}
	}
	return result, nil
}

func (s *Service) callAuthorizer(ctx context.Context, functionName string, route *gateway.Route, request *http.Request, options *ahttp.Options) (map[string]interface{}, error) {
	event := (*ahttp.Request)(request).AuthorizerRequest(route, options)
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	output, err := s.invoker.Invoke(ctx, functionName, payload)
	if err != nil {
		return nil, errors.Wrapf(err, "authorizer %v failed", functionName)
	}
	response := &authorizerResponse{}
	if err = json.Unmarshal(output, response); err != nil {
		return nil, errors.Wrapf(err, "invalid authorizer %v response", functionName)
	}
	if !response.allowed() {
		return nil, errors.Errorf("authorizer %v denied request", functionName)
	}
	authContext := map[string]interface{}{}
	for k, v := range response.Context {
		authContext[k] = v
	}
	if response.PrincipalID != "" {
		authContext["principalId"] = response.PrincipalID
	}
	return authContext, nil
}

func (r *authorizerResponse) allowed() bool {
	if r.IsAuthorized != nil {
		return *r.IsAuthorized
	}
	allowed := false
	for _, statement := range r.PolicyDocument.Statement {
		switch statement.Effect {
		case "Deny":
			return false
		case "Allow":
			allowed = true
		}
	}
	return allowed
}

func (s *Service) stage(route *gateway.Route) string {
	if s.cfg.Stage != "" {
		return s.cfg.Stage
	}
	if route.EventType == gateway.HTTP {
		return defaultHTTPStage
	}
	return defaultStage
}

func writeMessage(writer http.ResponseWriter, statusCode int, message string) {
	data, _ := json.Marshal(map[string]string{"message": message})
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(data)
}

//New creates gateway service
func New(router *Router, cfg *Config, opts ...Option) *Service {
	cfg.Init()
	ret := &Service{cfg: cfg, router: router}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.invoker == nil {
		ret.invoker = &lambdaInvoker{cfg: cfg}
	}
	return ret
}
