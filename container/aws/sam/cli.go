package sam

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	TemplateURL string `short:"t" long:"template" description:"SAM template URL" default:"template.yaml"`
	Port        int    `short:"p" long:"port" description:"gateway port" default:"8081"`
	MetricPort  int    `short:"m" long:"metric-port" description:"metric endpoint port, 0 disables it"`
	Endpoint    string `short:"e" long:"endpoint" description:"lambda API endpoint" default:"http://127.0.0.1:9001"`
	Region      string `short:"r" long:"region" description:"AWS region" default:"us-west-2"`
	Stage       string `short:"s" long:"stage" description:"stage name, defaults to Prod for REST and $default for HTTP API"`
	WatchSec    int    `short:"w" long:"watch" description:"reload routes when template or definitions change, check frequency in seconds, 0 disables it"`
	List        bool   `short:"l" long:"list" description:"print routes and exit"`
	Debug       bool   `short:"d" long:"debug" description:"enable debug logging"`
}

func (o *Options) config() *Config {
	return &Config{
		Port:       o.Port,
		MetricPort: o.MetricPort,
		Endpoint:   o.Endpoint,
		Region:     o.Region,
		Stage:      o.Stage,
		WatchSec:   o.WatchSec,
	}
}

func Run(args []string) {
	options := &Options{}
	_, err := flags.ParseArgs(options, args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		log.Fatalln(err)
	}
	if options.Debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	tmpl, err := NewTemplateWithURL(context.Background(), options.TemplateURL)
	if err != nil {
		log.Fatalln(err)
	}
	if options.List {
		api, err := tmpl.API(context.Background(), slog.Default())
		if err != nil {
			log.Fatalln(err)
		}
		PrintRoutes(os.Stdout, api)
		return
	}
	srv, err := New(tmpl, options.config())
	if err != nil {
		log.Fatalln(err)
	}
	srv.Start()
}

//PrintRoutes writes one line per route: methods, path, function, event type and authorizers
func PrintRoutes(writer io.Writer, api *API) {
	for _, route := range api.Routes {
		var authorizers []string
		for _, set := range route.Authorizers {
			authorizers = append(authorizers, set.Functions()...)
		}
		line := fmt.Sprintf("%-8v %-40v %-30v %v/%v", strings.Join(route.Methods, ","), route.URI, route.FunctionName, route.EventType, route.PayloadVersion())
		if len(authorizers) > 0 {
			line += " auth:" + strings.Join(authorizers, ",")
		}
		fmt.Fprintln(writer, line)
	}
	if len(api.BinaryMediaTypes) > 0 {
		fmt.Fprintf(writer, "binary media types: %v\n", strings.Join(api.BinaryMediaTypes, ","))
	}
}
