package dto

// GatewayRequest is the transport-neutral request handed to the dispatcher.
// Both the Lambda adapter and the gin handler build one.
type GatewayRequest struct {
	Method         string            // transport verb, e.g. "POST"
	ID             string            // path-scoped message id, "" when absent
	Query          map[string]string // query string parameters
	Body           string            // raw JSON body
	StageVariables map[string]string
	Claims         map[string]string // identity claims from the authorizer
}

// QueryParam returns a query parameter or "".
func (r *GatewayRequest) QueryParam(key string) string {
	if r.Query == nil {
		return ""
	}
	return r.Query[key]
}

// GatewayResponse is what the dispatcher produces for every request.
type GatewayResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// ResponseHeaders returns the static header set attached to every response.
func ResponseHeaders() map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"X-Api-Author":  "messageboard",
		"X-Api-Version": "v1",
	}
}
