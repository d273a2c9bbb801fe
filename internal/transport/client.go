package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"learnsnap/internal/domain"
)

// RemoteError carries the error text of an unsuccessful response verbatim.
type RemoteError struct{ Message string }

func (e *RemoteError) Error() string { return e.Message }

// Client sends correlated requests to one endpoint.
type Client struct {
	Bus *Bus
	To  string
	// Timeout bounds each request; zero waits as long as the caller's context allows.
	Timeout time.Duration
	NewID   func() string
}

func NewClient(b *Bus, to string, timeout time.Duration) *Client {
	return &Client{Bus: b, To: to, Timeout: timeout, NewID: uuid.NewString}
}

// Request sends a message of kind with payload and checks that the response echoes its requestId.
func (c *Client) Request(ctx context.Context, kind domain.MessageKind, payload any) (domain.MessageResponse, error) {
	msg, err := domain.NewMessage(kind, payload)
	if err != nil {
		return domain.MessageResponse{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	msg.RequestID = c.NewID()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	resp, err := c.Bus.Send(ctx, c.To, msg)
	if err != nil {
		return domain.MessageResponse{}, err
	}
	if resp.RequestID != msg.RequestID {
		return resp, fmt.Errorf("%s: got %q want %q: %w", kind, resp.RequestID, msg.RequestID, domain.ErrCorrelationMissing)
	}
	return resp, nil
}

// Call performs Request and decodes the response data into out, which may be nil.
func (c *Client) Call(ctx context.Context, kind domain.MessageKind, payload, out any) error {
	resp, err := c.Request(ctx, kind, payload)
	if err != nil {
		return err
	}
	return DecodeInto(resp, out)
}

// DecodeInto turns an unsuccessful response into a *RemoteError and otherwise unmarshals its data.
func DecodeInto(resp domain.MessageResponse, out any) error {
	if !resp.Success {
		return &RemoteError{Message: resp.Error}
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// Decode is the generic form of DecodeInto.
func Decode[T any](resp domain.MessageResponse) (T, error) {
	var v T
	err := DecodeInto(resp, &v)
	return v, err
}
