package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"
)

var (
	ErrEmptyType    = errors.New("envelope type is empty")
	ErrNilPayload   = errors.New("payload is nil")
	ErrEmptyFrame   = errors.New("frame is empty")
	ErrEmptyPayload = errors.New("payload is empty")
)

// Encode wraps payload in an envelope of type t.
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, ErrEmptyType
	}
	if payload == nil {
		return nil, ErrNilPayload
	}

	p, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s payload", t)
	}
	return json.Marshal(Envelope{T: t, P: p})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyFrame
	}

	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, errors.Wrap(err, "decode envelope")
	}
	if e.T == "" {
		return Envelope{}, ErrEmptyType
	}
	return e, nil
}

// DecodePayload unmarshals the envelope payload into a T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.P) == 0 || string(env.P) == "null" {
		return out, errors.Wrapf(ErrEmptyPayload, "type %q", env.T)
	}
	if err := json.Unmarshal(env.P, &out); err != nil {
		return out, errors.Wrapf(err, "decode %s payload", env.T)
	}
	return out, nil
}
