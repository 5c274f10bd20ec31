// Package gateway adapts API Gateway HTTP API events to the dispatcher.
package gateway

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"messageboard/internal/microservices/http-api/dto"
)

// Dispatcher is satisfied by *service.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *dto.GatewayRequest) *dto.GatewayResponse
}

type Handler struct {
	dispatcher Dispatcher
}

func NewHandler(dispatcher Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// Handle is the Lambda entry point. It never returns an error: every
// failure is already a response.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := Translate(event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    dto.ResponseHeaders(),
			Body:       `{"error":"invalid base64 body"}`,
		}, nil
	}

	resp := h.dispatcher.Dispatch(ctx, req)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

// Translate builds a GatewayRequest from an HTTP API (payload v2) event.
func Translate(event events.APIGatewayV2HTTPRequest) (*dto.GatewayRequest, error) {
	body := event.Body
	if event.IsBase64Encoded && body != "" {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, err
		}
		body = string(raw)
	}

	var claims map[string]string
	if auth := event.RequestContext.Authorizer; auth != nil && auth.JWT != nil {
		claims = auth.JWT.Claims
	}

	return &dto.GatewayRequest{
		Method:         event.RequestContext.HTTP.Method,
		ID:             event.PathParameters["id"],
		Query:          event.QueryStringParameters,
		Body:           body,
		StageVariables: event.StageVariables,
		Claims:         claims,
	}, nil
}
