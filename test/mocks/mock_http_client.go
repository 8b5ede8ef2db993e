package mocks

import (
	"bytes"
	"io"
	"net/http"
	"sync"
)

// MockHTTPClient is a mock implementation of ports.HTTPClient for testing
type MockHTTPClient struct {
	mu     sync.Mutex
	DoFunc func(req *http.Request) (*http.Response, error)
	Calls  []*http.Request
	Bodies []string
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient(doFunc func(req *http.Request) (*http.Response, error)) *MockHTTPClient {
	return &MockHTTPClient{
		DoFunc: doFunc,
		Calls:  []*http.Request{},
	}
}

// Do executes the mock function and captures the call and its body
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		req.Body.Close()
		body = string(data)
		req.Body = io.NopCloser(bytes.NewReader(data))
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.Bodies = append(m.Bodies, body)
	m.mu.Unlock()

	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return XMLResponse(http.StatusOK, DefaultStatusResponse), nil
}

// CallCount returns the number of requests seen
func (m *MockHTTPClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Reset clears captured calls
func (m *MockHTTPClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = []*http.Request{}
	m.Bodies = nil
}

// DefaultStatusResponse is a successful OrderCreateResponse
const DefaultStatusResponse = `<?xml version="1.0" encoding="UTF-8"?>
<OpenPayU xmlns="http://www.openpayu.com/openpayu.xsd"><OrderDomainResponse><OrderCreateResponse><ResId>mock</ResId><Status><StatusCode>OPENPAYU_SUCCESS</StatusCode></Status></OrderCreateResponse></OrderDomainResponse></OpenPayU>`

// XMLResponse builds an *http.Response carrying body as text/xml
func XMLResponse(statusCode int, body string) *http.Response {
	header := make(http.Header)
	header.Set("Content-Type", "text/xml")
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     header,
	}
}
