package httphandler

import (
	"encoding/json"
	"fmt"

	"github.com/ericfisherdev/streetpass/internal/application"
	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

// messageEnvelope is the wire form of an inbound message.
type messageEnvelope struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type hrefPayloadArgs struct {
	RelMeHref *string `json:"relMeHref"`
	TabURL    *string `json:"tabUrl"`
}

type fetchProfileUpdateArgs struct {
	RelMeHref *string `json:"relMeHref"`
}

// DecodeMessage parses an envelope into one of the model.Message types.
// Unknown names fail with application.ErrUnknownMessage; bad JSON or missing
// arguments fail with application.ErrMalformedMessage.
func DecodeMessage(data []byte) (model.Message, error) {
	var env messageEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", application.ErrMalformedMessage, err)
	}

	switch model.MessageName(env.Name) {
	case model.MessageHrefPayload:
		var args hrefPayloadArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, fmt.Errorf("%w: %s args: %v", application.ErrMalformedMessage, env.Name, err)
		}
		if args.RelMeHref == nil || args.TabURL == nil {
			return nil, fmt.Errorf("%w: %s requires relMeHref and tabUrl", application.ErrMalformedMessage, env.Name)
		}
		return model.HrefPayload{RelMeHref: *args.RelMeHref, TabURL: *args.TabURL}, nil

	case model.MessageFetchProfileUpdate:
		var args fetchProfileUpdateArgs
		if err := json.Unmarshal(env.Args, &args); err != nil {
			return nil, fmt.Errorf("%w: %s args: %v", application.ErrMalformedMessage, env.Name, err)
		}
		if args.RelMeHref == nil {
			return nil, fmt.Errorf("%w: %s requires relMeHref", application.ErrMalformedMessage, env.Name)
		}
		return model.FetchProfileUpdate{RelMeHref: *args.RelMeHref}, nil

	default:
		return nil, fmt.Errorf("%w: %q", application.ErrUnknownMessage, env.Name)
	}
}
