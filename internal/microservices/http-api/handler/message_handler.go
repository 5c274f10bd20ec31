package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"messageboard/internal/microservices/http-api/dto"
	"messageboard/internal/microservices/http-api/middleware"
)

// maxBodyBytes caps request bodies; messages are small.
const maxBodyBytes = 1 << 20

// Dispatcher is satisfied by *service.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *dto.GatewayRequest) *dto.GatewayResponse
}

// MessageHandler adapts gin requests to the dispatcher so the local server
// and the Lambda entry share one code path.
type MessageHandler struct {
	dispatcher     Dispatcher
	stageVariables map[string]string
	timeout        time.Duration
}

func NewMessageHandler(dispatcher Dispatcher, stageVariables map[string]string, timeout time.Duration) *MessageHandler {
	return &MessageHandler{
		dispatcher:     dispatcher,
		stageVariables: stageVariables,
		timeout:        timeout,
	}
}

// RegisterRoutes binds every verb so unsupported ones still get the
// dispatcher's 405 body.
func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Any("", h.Handle)
	rg.Any("/:id", h.Handle)
}

func (h *MessageHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "could not read request body"})
		return
	}

	resp := h.dispatcher.Dispatch(ctx, &dto.GatewayRequest{
		Method:         c.Request.Method,
		ID:             c.Param("id"),
		Query:          queryMap(c),
		Body:           string(body),
		StageVariables: h.stageVariables,
		Claims:         middleware.ClaimsFrom(c),
	})

	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Data(resp.StatusCode, resp.Headers["Content-Type"], []byte(resp.Body))
}

// queryMap keeps the first value of each query parameter.
func queryMap(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
