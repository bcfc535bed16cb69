package internal

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf16"
)

// RequestType is the discriminator every client message carries in its
// "requestType" field.
type RequestType string

const (
	RequestPlayCard        RequestType = "PlayCard"
	RequestChangeName      RequestType = "ChangeName"
	RequestChatMessage     RequestType = "ChatMessage"
	RequestRevealCards     RequestType = "RevealCards"
	RequestStartNewRound   RequestType = "StartNewRound"
	RequestClientBroadcast RequestType = "ClientBroadcast"
)

// UserRequest is one of PlayCard, ChangeName, ChatMessage, RevealCards,
// StartNewRound or ClientBroadcast.
type UserRequest interface {
	Type() RequestType
}

// PlayCard with a nil CardValue takes the user's card back.
type PlayCard struct {
	CardValue *string `json:"cardValue"`
}

type ChangeName struct {
	Name string `json:"name"`
}

type ChatMessage struct {
	Message string `json:"message"`
}

type RevealCards struct{}

type StartNewRound struct{}

// ClientBroadcast is an opaque payload a client relays to the whole room.
// Only NewClientBroadcast and ParseUserRequest create valid values.
type ClientBroadcast struct {
	Payload string `json:"payload"`
}

func (PlayCard) Type() RequestType        { return RequestPlayCard }
func (ChangeName) Type() RequestType      { return RequestChangeName }
func (ChatMessage) Type() RequestType     { return RequestChatMessage }
func (RevealCards) Type() RequestType     { return RequestRevealCards }
func (StartNewRound) Type() RequestType   { return RequestStartNewRound }
func (ClientBroadcast) Type() RequestType { return RequestClientBroadcast }

// MarshalUserRequest adds the discriminator so requests round trip through
// ParseUserRequest. Used by clients and tests.
func MarshalUserRequest(req UserRequest) ([]byte, error) {
	fields := map[string]any{"requestType": req.Type()}
	switch r := req.(type) {
	case PlayCard:
		fields["cardValue"] = r.CardValue
	case ChangeName:
		fields["name"] = r.Name
	case ChatMessage:
		fields["message"] = r.Message
	case ClientBroadcast:
		fields["payload"] = r.Payload
	case RevealCards, StartNewRound:
	default:
		return nil, fmt.Errorf("unknown request %T", req)
	}
	return json.Marshal(fields)
}

// ValidationError rejects a client message before it reaches the rooms.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid request: %s: %v", e.Reason, e.Err)
	}
	return "invalid request: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewClientBroadcast checks the payload length in UTF-16 code units, the
// unit browsers use for String.length: an emoji counts twice.
func NewClientBroadcast(payload string) (ClientBroadcast, error) {
	if strings.TrimSpace(payload) == "" {
		return ClientBroadcast{}, &ValidationError{Reason: "payload cannot be blank"}
	}
	if len(utf16.Encode([]rune(payload))) > MaxBroadcastPayloadLength {
		return ClientBroadcast{}, &ValidationError{
			Reason: fmt.Sprintf("payload cannot be longer than %d", MaxBroadcastPayloadLength),
		}
	}
	return ClientBroadcast{Payload: payload}, nil
}

// ParseUserRequest decodes a client message. Every failure is a
// *ValidationError.
func ParseUserRequest(data []byte) (UserRequest, error) {
	var base struct {
		RequestType RequestType `json:"requestType"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, &ValidationError{Reason: "malformed json", Err: err}
	}

	switch base.RequestType {
	case RequestPlayCard:
		var req PlayCard
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, &ValidationError{Reason: "malformed PlayCard", Err: err}
		}
		return req, nil
	case RequestChangeName:
		var req struct {
			Name *string `json:"name"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, &ValidationError{Reason: "malformed ChangeName", Err: err}
		}
		if req.Name == nil {
			return nil, &ValidationError{Reason: "ChangeName requires a name"}
		}
		return ChangeName{Name: *req.Name}, nil
	case RequestChatMessage:
		var req struct {
			Message *string `json:"message"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, &ValidationError{Reason: "malformed ChatMessage", Err: err}
		}
		if req.Message == nil {
			return nil, &ValidationError{Reason: "ChatMessage requires a message"}
		}
		return ChatMessage{Message: *req.Message}, nil
	case RequestRevealCards:
		return RevealCards{}, nil
	case RequestStartNewRound:
		return StartNewRound{}, nil
	case RequestClientBroadcast:
		var req struct {
			Payload *string `json:"payload"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, &ValidationError{Reason: "malformed ClientBroadcast", Err: err}
		}
		if req.Payload == nil {
			return nil, &ValidationError{Reason: "ClientBroadcast requires a payload"}
		}
		broadcast, err := NewClientBroadcast(*req.Payload)
		if err != nil {
			return nil, err
		}
		return broadcast, nil
	case "":
		return nil, &ValidationError{Reason: "missing requestType"}
	default:
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown requestType %q", base.RequestType)}
	}
}
