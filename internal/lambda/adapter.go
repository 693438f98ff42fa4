package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// ServeHTTP runs an API Gateway HTTP API (payload v2) request through h and
// converts the recorded response back into a gateway response.
func ServeHTTP(ctx context.Context, h http.Handler, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := NewHTTPRequest(ctx, request)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}

	w := newResponseWriter()
	h.ServeHTTP(w, req)
	return w.toGatewayResponse(), nil
}

// NewHTTPRequest builds the net/http request described by a gateway event.
func NewHTTPRequest(ctx context.Context, request events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	body := []byte(request.Body)
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode request body: %w", err)
		}
		body = decoded
	}

	path := request.RawPath
	if path == "" {
		path = request.RequestContext.HTTP.Path
	}
	if path == "" {
		path = "/"
	}
	target := path
	if request.RawQueryString != "" {
		target += "?" + request.RawQueryString
	}

	method := request.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for name, value := range request.Headers {
		req.Header.Set(name, value)
	}
	if len(request.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(request.Cookies, "; "))
	}
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	} else if request.RequestContext.DomainName != "" {
		req.Host = request.RequestContext.DomainName
	}
	req.RemoteAddr = request.RequestContext.HTTP.SourceIP
	req.RequestURI = target

	return req, nil
}

// HeaderValue looks up a gateway header regardless of its case.
func HeaderValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

type responseWriter struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: make(http.Header)}
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.body.Write(p)
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) toGatewayResponse() events.APIGatewayV2HTTPResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	resp := events.APIGatewayV2HTTPResponse{
		StatusCode:        status,
		Headers:           make(map[string]string, len(w.header)),
		MultiValueHeaders: make(map[string][]string),
	}
	for name, values := range w.header {
		if name == "Set-Cookie" {
			resp.Cookies = append(resp.Cookies, values...)
			continue
		}
		resp.Headers[name] = strings.Join(values, ",")
		if len(values) > 1 {
			resp.MultiValueHeaders[name] = values
		}
	}

	if isTextContent(w.header.Get("Content-Type")) {
		resp.Body = w.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(w.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}

func isTextContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	for _, textual := range []string{"text/", "json", "xml", "javascript", "x-www-form-urlencoded"} {
		if strings.Contains(ct, textual) {
			return true
		}
	}
	return false
}
