package openpayu

// Result is the uniform outcome of an OpenPayU operation.
//
// Success is true exactly when Status.StatusCode is OPENPAYU_SUCCESS and Error
// always mirrors Status.StatusCode. Message is set only when the response
// carried a StatusDesc, except for inbound messages where it names the
// message kind.
type Result struct {
	Status  Status
	Error   string
	Message *string
	Success bool

	// Request is the caller's Fields for outbound calls and the parsed
	// inbound Document for consumed messages.
	Request interface{}

	// Response is the parsed Document, the raw body string when parsing was
	// recovered, or the acknowledgement XML for notifications.
	Response interface{}

	SessionID   string
	ReqID       string
	CountryCode string
}

// newStatusResult fills the status derived fields of a Result
func newStatusResult(status Status) *Result {
	result := &Result{
		Status:  status,
		Error:   status.StatusCode(),
		Success: status.IsSuccess(),
	}
	if desc, ok := status.StatusDesc(); ok {
		result.Message = &desc
	}
	return result
}

// MessageText returns Message or "" when unset
func (r *Result) MessageText() string {
	if r.Message == nil {
		return ""
	}
	return *r.Message
}

// ResponseDocument returns Response as a parsed Document when it is one
func (r *Result) ResponseDocument() (Document, bool) {
	doc, ok := r.Response.(Document)
	return doc, ok
}

func stringPtr(s string) *string {
	return &s
}
