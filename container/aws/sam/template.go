package sam

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/ryanpudd/aws-sam-cli/gateway/aws/apigw/swagger"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/toolbox"
)

const (
	FunctionType = "AWS::Serverless::Function"
	APIType      = "AWS::Serverless::Api"
	HTTPAPIType  = "AWS::Serverless::HttpApi"
)

type (
	Template struct {
		Resources map[string]*Resource
		Globals   *Globals
		baseURL   string
		url       string
		document  *swagger.Value
		fs        afs.Service
	}

	Globals struct {
		Function *Properties `json:",omitempty"`
		Api      *Properties `json:",omitempty"`
		HttpApi  *Properties `json:",omitempty"`
	}

	Resource struct {
		Type       string      `json:",omitempty"`
		Properties *Properties `json:",omitempty"`
	}

	Properties struct {
		CodeUri              interface{} `json:",omitempty"`
		Handler              string      `json:",omitempty"`
		Runtime              string      `json:",omitempty"`
		Events               map[string]*Resource
		Path                 string      `json:",omitempty"`
		Method               string      `json:",omitempty"`
		PayloadFormatVersion string      `json:",omitempty"`
		DefinitionUri        interface{} `json:",omitempty"`
		BinaryMediaTypes     []string    `json:",omitempty"`
	}
)

//CodeURL returns function code location
func (p *Properties) CodeURL(baseURL string) string {
	codeURI, ok := p.CodeUri.(string)
	if !ok || codeURI == "" {
		return ""
	}
	return resolveURL(baseURL, codeURI)
}

func resolveURL(baseURL, location string) string {
	if strings.HasPrefix(location, "/") || strings.Contains(location, "://") {
		return location
	}
	return url.Join(baseURL, location)
}

//Definition returns Api or HttpApi swagger definition, inline DefinitionBody takes precedence over DefinitionUri
func (t *Template) Definition(ctx context.Context, name string) (*swagger.Value, error) {
	properties := t.document.Path("Resources", name, "Properties")
	if body, ok := properties.Lookup("DefinitionBody"); ok && !body.IsNull() {
		return body, nil
	}
	definitionURI, ok := properties.Get("DefinitionUri").AsString()
	if !ok || definitionURI == "" {
		return nil, nil
	}
	definitionURI = resolveURL(t.baseURL, definitionURI)
	data, err := t.fs.DownloadWithURL(ctx, definitionURI)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %v definition: %v", name, definitionURI)
	}
	return swagger.Decode(data)
}

func (t *Template) Init() error {
	if t.Resources == nil {
		t.Resources = map[string]*Resource{}
	}
	if t.Globals == nil {
		t.Globals = &Globals{}
	}
	for name, resource := range t.Resources {
		if resource == nil {
			return errors.Errorf("invalid resource: %v", name)
		}
		if resource.Properties == nil {
			resource.Properties = &Properties{}
		}
	}
	return nil
}

//NewTemplate creates a template from decoded document
func NewTemplate(document *swagger.Value, baseURL string, fs afs.Service) (*Template, error) {
	if !document.IsMapping() {
		return nil, errors.Errorf("invalid template: expected mapping but had %v", document.Kind())
	}
	template := &Template{baseURL: baseURL, document: document, fs: fs}
	if err := toolbox.DefaultConverter.AssignConverted(template, document.Interface()); err != nil {
		return nil, errors.Wrap(err, "failed to convert template")
	}
	return template, template.Init()
}

//NewTemplateWithURL loads a template, relative CodeUri and DefinitionUri resolve against the template location
func NewTemplateWithURL(ctx context.Context, URL string) (*Template, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, err
	}
	document, err := swagger.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode template: %v", URL)
	}
	baseURL, _ := url.Split(URL, file.Scheme)
	template, err := NewTemplate(document, baseURL, fs)
	if err != nil {
		return nil, err
	}
	template.url = URL
	return template, nil
}
