package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"messageboard/internal/metrics"
	"messageboard/internal/microservices/http-api/dto"
	"messageboard/internal/tenant"
)

// Method is the transport-independent operation class of a request.
type Method int

const (
	MethodUnknown Method = iota
	MethodCreate
	MethodRead
	MethodUpdate
	MethodDelete
)

// ParseMethod maps an HTTP verb to a Method.
func ParseMethod(verb string) Method {
	switch strings.ToUpper(verb) {
	case http.MethodPost:
		return MethodCreate
	case http.MethodGet:
		return MethodRead
	case http.MethodPut, http.MethodPatch:
		return MethodUpdate
	case http.MethodDelete:
		return MethodDelete
	default:
		return MethodUnknown
	}
}

// Dispatcher routes a gateway request to one message operation and turns
// the outcome, success or error, into a response. No error escapes it.
type Dispatcher struct {
	messages MessageService
	logger   *zap.Logger
}

func NewDispatcher(messages MessageService, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{messages: messages, logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req *dto.GatewayRequest) *dto.GatewayResponse {
	op, status, payload, err := d.route(ctx, req)

	if err != nil {
		status = StatusFor(err)
		payload = dto.ErrorResponse{Error: err.Error()}
	}
	d.record(req, op, status, err)

	return render(status, payload)
}

func (d *Dispatcher) route(ctx context.Context, req *dto.GatewayRequest) (op string, status int, payload any, err error) {
	hasID := strings.TrimSpace(req.ID) != ""

	switch ParseMethod(req.Method) {
	case MethodCreate:
		m, err := d.create(ctx, req)
		return "create", http.StatusCreated, m, err

	case MethodRead:
		if hasID {
			m, err := d.messages.GetByID(ctx, scopeOf(req, ""), req.ID)
			return "get", http.StatusOK, m, err
		}
		list, err := d.list(ctx, req)
		return "list", http.StatusOK, list, err

	case MethodUpdate:
		m, err := d.update(ctx, req, hasID)
		return "update", http.StatusOK, m, err

	case MethodDelete:
		if !hasID {
			break
		}
		err := d.messages.Delete(ctx, scopeOf(req, ""), req.ID)
		return "delete", http.StatusOK, dto.DeleteResponse{Message: "message deleted", ID: req.ID}, err
	}

	return "unsupported", 0, nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.Method)
}

func (d *Dispatcher) create(ctx context.Context, req *dto.GatewayRequest) (any, error) {
	body, err := parseBody(req.Body)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body.Sender) == "" {
		return nil, ErrMissingSender
	}

	roomID := body.RoomID
	if roomID == "" {
		roomID = req.QueryParam("roomId")
	}

	return d.messages.Create(ctx, scopeOf(req, body.Tenant), CreateInput{
		Sender:  body.Sender,
		Content: *body.Content,
		RoomID:  strings.TrimSpace(roomID),
	})
}

func (d *Dispatcher) list(ctx context.Context, req *dto.GatewayRequest) (any, error) {
	window, err := ParseRoomWindow(
		req.QueryParam("roomId"),
		req.QueryParam("startTimestamp"),
		req.QueryParam("endTimestamp"),
	)
	if err != nil {
		return nil, err
	}
	return d.messages.ListByRoom(ctx, scopeOf(req, ""), window)
}

func (d *Dispatcher) update(ctx context.Context, req *dto.GatewayRequest, hasID bool) (any, error) {
	if !hasID {
		return nil, ErrMissingID
	}
	body, err := parseBody(req.Body)
	if err != nil {
		return nil, err
	}

	sender := req.QueryParam("sender")
	if sender == "" {
		sender = body.Sender
	}
	if strings.TrimSpace(sender) == "" {
		return nil, ErrMissingSender
	}

	return d.messages.Update(ctx, scopeOf(req, body.Tenant), UpdateInput{
		ID:      req.ID,
		Sender:  sender,
		Content: *body.Content,
	})
}

// parseBody decodes a create/update body and requires non-null content.
func parseBody(raw string) (*dto.MessageBody, error) {
	body, err := dto.ParseMessageBody(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if body == nil || body.Content == nil {
		return nil, ErrMissingContent
	}
	return body, nil
}

func scopeOf(req *dto.GatewayRequest, bodyTenant string) tenant.Input {
	return tenant.Input{
		Query:          req.Query,
		BodyTenant:     bodyTenant,
		StageVariables: req.StageVariables,
		Claims:         req.Claims,
	}
}

func (d *Dispatcher) record(req *dto.GatewayRequest, op string, status int, err error) {
	metrics.MessageOperations.WithLabelValues(op, fmt.Sprint(status)).Inc()

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("method", req.Method),
		zap.String("id", req.ID),
		zap.Int("status", status),
	}
	switch {
	case err == nil:
		d.logger.Info("request handled", fields...)
	case status >= http.StatusInternalServerError:
		d.logger.Error("request failed", append(fields, zap.Error(err))...)
	default:
		d.logger.Warn("request rejected", append(fields, zap.Error(err))...)
	}
}

func render(status int, payload any) *dto.GatewayResponse {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(dto.ErrorResponse{Error: "encode response: " + err.Error()})
	}
	return &dto.GatewayResponse{
		StatusCode: status,
		Headers:    dto.ResponseHeaders(),
		Body:       string(body),
	}
}
