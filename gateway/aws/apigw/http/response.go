package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

//DecodeResponse decodes lambda proxy response, payload format 2.0 treats any non structured payload as a 200 JSON body
func DecodeResponse(payload []byte, payloadVersion string) (*events.APIGatewayV2HTTPResponse, error) {
	if payloadVersion == "2.0" {
		probe := map[string]json.RawMessage{}
		if err := json.Unmarshal(payload, &probe); err != nil || probe["statusCode"] == nil {
			return &events.APIGatewayV2HTTPResponse{
				StatusCode: http.StatusOK,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       string(payload),
			}, nil
		}
	}
	response := &events.APIGatewayV2HTTPResponse{}
	if err := json.Unmarshal(payload, response); err != nil {
		return nil, errors.Wrapf(err, "invalid lambda proxy response: %s", payload)
	}
	if response.StatusCode == 0 {
		return nil, errors.Errorf("invalid lambda proxy response, missing statusCode: %s", payload)
	}
	return response, nil
}

func NewResponse(proxy *events.APIGatewayV2HTTPResponse) (*http.Response, error) {
	var body = []byte(proxy.Body)
	var err error
	if proxy.IsBase64Encoded {
		if body, err = base64.StdEncoding.DecodeString(proxy.Body); err != nil {
			return nil, errors.Wrap(err, "failed to decode base64 body")
		}
	}
	response := &http.Response{StatusCode: proxy.StatusCode}
	response.Body = io.NopCloser(bytes.NewReader(body))
	response.ContentLength = int64(len(body))
	response.Header = http.Header{}
	for k, values := range proxy.MultiValueHeaders {
		for _, v := range values {
			response.Header.Add(k, v)
		}
	}
	for k, v := range proxy.Headers {
		response.Header.Set(k, v)
	}
	for _, cookie := range proxy.Cookies {
		response.Header.Add("Set-Cookie", cookie)
	}
	return response, nil
}

//Write writes response to writer
func Write(writer http.ResponseWriter, response *http.Response) error {
	for k, values := range response.Header {
		for _, v := range values {
			writer.Header().Add(k, v)
		}
	}
	writer.Header().Set("Content-Length", strconv.FormatInt(response.ContentLength, 10))
	writer.WriteHeader(response.StatusCode)
	_, err := io.Copy(writer, response.Body)
	return err
}
