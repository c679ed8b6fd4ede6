package http

import (
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/ryanpudd/aws-sam-cli/gateway/matcher"
)

func asHeaderMap(header http.Header) map[string]string {
	result := map[string]string{}

	for aKey, values := range header {
		if len(values) == 0 {
			continue
		}

		result[aKey] = values[len(values)-1]
	}

	return result
}

//asSingleValues returns last value of each parameter the way API Gateway does
func asSingleValues(parameters url.Values) map[string]string {
	result := map[string]string{}
	for key, values := range parameters {
		if len(values) == 0 {
			continue
		}

		result[key] = values[len(values)-1]
	}

	return result
}

//PathParameters extracts {name} and {name+} parameters of the route template from the request path
func PathParameters(template, path string) map[string]string {
	result := map[string]string{}
	templateSegments := strings.Split(matcher.AsRelative(template), "/")
	pathSegments := strings.Split(matcher.AsRelative(path), "/")
	for i, segment := range templateSegments {
		if i >= len(pathSegments) {
			break
		}
		if len(segment) < 2 || segment[0] != '{' || segment[len(segment)-1] != '}' {
			continue
		}
		name := segment[1 : len(segment)-1]
		if strings.HasSuffix(name, "+") {
			result[strings.TrimSuffix(name, "+")] = unescape(strings.Join(pathSegments[i:], "/"))
			break
		}
		result[name] = unescape(pathSegments[i])
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func unescape(segment string) string {
	if ret, err := url.PathUnescape(segment); err == nil {
		return ret
	}
	return segment
}

//IsBinary returns true if content type matches any of binary media types, i.e. image/png, image/*, */*
func IsBinary(contentType string, binaryMediaTypes []string) bool {
	if contentType == "" || len(binaryMediaTypes) == 0 {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	for _, candidate := range binaryMediaTypes {
		candidate = strings.ToLower(strings.ReplaceAll(candidate, "~1", "/"))
		if candidate == mediaType || candidate == "*/*" {
			return true
		}
		if strings.HasSuffix(candidate, "/*") && strings.HasPrefix(mediaType, strings.TrimSuffix(candidate, "*")) {
			return true
		}
	}
	return false
}
