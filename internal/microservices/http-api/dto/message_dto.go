package dto

import "encoding/json"

// MessageBody is the JSON body accepted on create and update.
// Content is a pointer so a missing field can be told apart from "".
type MessageBody struct {
	Sender  string  `json:"sender"`
	Content *string `json:"content"`
	RoomID  string  `json:"roomId,omitempty"`
	Tenant  string  `json:"tenant,omitempty"`
}

// ParseMessageBody decodes a request body. An empty or "null" body yields nil.
func ParseMessageBody(raw string) (*MessageBody, error) {
	if raw == "" {
		return nil, nil
	}
	var body *MessageBody
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, err
	}
	return body, nil
}

// ErrorResponse is the JSON shape of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DeleteResponse confirms a delete.
type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}
