package sam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/pkg/errors"
	"github.com/ryanpudd/aws-sam-cli/gateway/aws/apigw"
	"github.com/ryanpudd/aws-sam-cli/resource"
	"github.com/viant/gmetric"
)

const metricURI = "/v1/api/metric/"

type Service struct {
	gateway *apigw.Service
	server  *http.Server
	metric  *http.Server
	metrics *gmetric.Service
	config  *Config
	api     *API
	tmpl    *Template
	cancel  context.CancelFunc
}

//Handler returns gateway http handler logging requests and responses
func (s *Service) Handler() http.Handler {
	mux := &http.ServeMux{}
	mux.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		var body []byte
		if request.Body != nil {
			body, _ = io.ReadAll(request.Body)
			request.Body.Close()
			request.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.logRequest(request, body)
		httpWriter := NewWriter()
		s.gateway.Do(httpWriter, request)
		s.logResponse(httpWriter)
		if err := httpWriter.Update(writer); err != nil {
			log.Printf("failed to write response: %v", err)
		}

	})
	return mux
}

func (s *Service) Start() {
	s.server = &http.Server{
		Addr:    ":" + strconv.Itoa(s.config.Port),
		Handler: s.Handler(),
	}
	s.startMetricsEndpoint()
	s.watchTemplate()
	s.shutdownOnInterrupt()
	for _, route := range s.api.Routes {
		fmt.Printf("mounted %v %v => %v\n", route.Methods, route.URI, route.FunctionName)
	}
	fmt.Printf("starting SAM endpoint: %v\n", s.config.Port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("HTTP server: %v", err)
	}
}

func (s *Service) startMetricsEndpoint() {
	if s.config.MetricPort == 0 {
		return
	}
	mux := http.NewServeMux()
	mux.Handle(metricURI, gmetric.NewHandler(metricURI, s.metrics))
	s.metric = &http.Server{
		Addr:    ":" + strconv.Itoa(s.config.MetricPort),
		Handler: mux,
	}
	fmt.Printf("starting metric endpoint: %v\n", s.config.MetricPort)
	go s.metric.ListenAndServe()
}

//watchTemplate reloads routes when template or definition documents under template location change
func (s *Service) watchTemplate() {
	if s.config.WatchSec == 0 || s.tmpl.url == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	tracker := resource.New(s.tmpl.baseURL, time.Duration(s.config.WatchSec)*time.Second, resource.DefinitionFilter)
	if err := tracker.Notify(ctx, s.tmpl.fs, func(URL string, operation resource.Operation) {}); err != nil {
		log.Printf("failed to watch %v: %v", s.tmpl.baseURL, err)
		return
	}
	tracker.Watch(ctx, s.tmpl.fs, func(changes map[string]resource.Operation) {
		for URL, operation := range changes {
			fmt.Printf("%v %v\n", operation, URL)
		}
		if err := s.Reload(ctx); err != nil {
			log.Printf("failed to reload routes: %v", err)
		}
	}, func(err error) {
		log.Printf("watch error: %v", err)
	})
}

//Reload reloads template and replaces gateway routes
func (s *Service) Reload(ctx context.Context) error {
	tmpl, err := NewTemplateWithURL(ctx, s.tmpl.url)
	if err != nil {
		return err
	}
	api, err := tmpl.API(ctx, slog.Default())
	if err != nil {
		return err
	}
	s.gateway.Reload(apigw.NewRouter(api.Routes), api.BinaryMediaTypes)
	for _, route := range api.Routes {
		fmt.Printf("mounted %v %v => %v\n", route.Methods, route.URI, route.FunctionName)
	}
	return nil
}

//shutdownOnInterrupt
func (s *Service) shutdownOnInterrupt() {
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint
		// We received an interrupt signal, shut down.
		if err := s.Shutdown(context.Background()); err != nil {
			// Error from closing listeners, or context timeout:
			log.Printf("HTTP server Shutdown: %v", err)
		}
	}()
}

func (s *Service) Shutdown(ctx context.Context) error {
	var err error
	if s.cancel != nil {
		s.cancel()
	}
	if s.metric != nil {
		err = s.metric.Shutdown(ctx)
	}
	if s.server != nil {
		if sErr := s.server.Shutdown(ctx); sErr != nil {
			err = sErr
		}
	}
	return err
}

func (s *Service) logRequest(request *http.Request, body []byte) {
	fmt.Printf("[%v] %v\n", request.Method, request.RequestURI)
	header, _ := json.Marshal(request.Header)
	if len(header) > 0 {
		fmt.Printf("[Header] %s\n", header)
	}
	if len(body) > 0 {
		fmt.Printf("[Body] %s\n", body)
	}
}

func (s *Service) logResponse(response *ProxyResponse) {
	fmt.Printf("[Status] %v\n", response.StatusCode)
	header, _ := json.Marshal(response.header)
	if len(header) > 0 {
		fmt.Printf("[Header] %s\n", header)
	}
	if response.Len() > 0 {
		fmt.Printf("[Body] %s\n", response.Bytes())
	}
}

//New creates SAM gateway service, routes are extracted from template Api/HttpApi definitions and function events
func New(tmpl *Template, cfg *Config, opts ...apigw.Option) (*Service, error) {
	cfg.Init()
	ret := &Service{config: cfg, metrics: gmetric.New(), tmpl: tmpl}
	api, err := tmpl.API(context.Background(), slog.Default())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load routes")
	}
	ret.api = api
	router := apigw.NewRouter(api.Routes)
	opts = append([]apigw.Option{apigw.WithMetrics(ret.metrics)}, opts...)
	ret.gateway = apigw.New(router, &apigw.Config{
		Endpoint:         cfg.Endpoint,
		Region:           cfg.Region,
		Stage:            cfg.Stage,
		BinaryMediaTypes: api.BinaryMediaTypes,
		AWS: &aws.Config{
			Region:   aws.String(cfg.Region),
			Endpoint: aws.String(cfg.Endpoint)},
	}, opts...)
	return ret, nil
}
