package sam

import (
	"bytes"
	"io"
	"net/http"
)

//ProxyResponse buffers gateway response so that it can be logged before it is sent
type ProxyResponse struct {
	StatusCode int
	header     http.Header
	bytes.Buffer
}

func (w *ProxyResponse) Header() http.Header {
	return w.header
}

func (w *ProxyResponse) Write(d []byte) (int, error) {
	if w.StatusCode == 0 {
		w.StatusCode = http.StatusOK
	}
	return w.Buffer.Write(d)
}

func (w *ProxyResponse) WriteHeader(statusCode int) {
	w.StatusCode = statusCode
}

//Update copies buffered status, headers and body to the writer
func (w *ProxyResponse) Update(writer http.ResponseWriter) error {
	for k, vals := range w.header {
		for _, v := range vals {
			writer.Header().Add(k, v)
		}
	}
	if w.StatusCode != 0 {
		writer.WriteHeader(w.StatusCode)
	}
	if w.Buffer.Len() == 0 {
		return nil
	}
	_, err := io.Copy(writer, &w.Buffer)
	return err
}

//NewWriter creates a writer
func NewWriter() *ProxyResponse {
	return &ProxyResponse{header: map[string][]string{}}
}
