package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnsnap/internal/domain"
)

func TestClient_CallDecodes(t *testing.T) {
	b := New(nil)
	_, err := b.Listen(Background, echo)
	require.NoError(t, err)
	c := NewClient(b, Background, time.Second)

	var out map[string]int
	require.NoError(t, c.Call(context.Background(), domain.KindListSnapshots, map[string]int{"n": 3}, &out))
	assert.Equal(t, map[string]int{"n": 3}, out)
}

func TestClient_FailureSurfacesErrorVerbatim(t *testing.T) {
	b := New(nil)
	_, err := b.Listen(Background, func(_ context.Context, msg domain.Message) domain.MessageResponse {
		return domain.Failure(msg, "No active tab found to capture.")
	})
	require.NoError(t, err)

	err = NewClient(b, Background, 0).Call(context.Background(), domain.KindCaptureSnapshot, nil, nil)
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "No active tab found to capture.", err.Error())
}

func TestClient_DetectsCorrelationMismatch(t *testing.T) {
	b := New(nil)
	_, err := b.Listen(Background, func(context.Context, domain.Message) domain.MessageResponse {
		return domain.MessageResponse{Success: true, RequestID: "someone-else"}
	})
	require.NoError(t, err)
	_, err = NewClient(b, Background, 0).Request(context.Background(), domain.KindListSnapshots, nil)
	assert.ErrorIs(t, err, domain.ErrCorrelationMissing)
}

func TestClient_Timeout(t *testing.T) {
	b := New(nil)
	_, err := b.Listen(Background, func(ctx context.Context, msg domain.Message) domain.MessageResponse {
		<-ctx.Done()
		return domain.Failure(msg, ctx.Err().Error())
	})
	require.NoError(t, err)
	_, err = NewClient(b, Background, 10*time.Millisecond).Request(context.Background(), domain.KindListSnapshots, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDecode(t *testing.T) {
	v, err := Decode[domain.CaptureAck](domain.MessageResponse{Success: true, Data: []byte(`{"status":"request_sent"}`)})
	require.NoError(t, err)
	assert.Equal(t, domain.CaptureRequestSent, v.Status)

	_, err = Decode[domain.CaptureAck](domain.MessageResponse{Success: true, Data: []byte(`[`)})
	assert.Error(t, err)
}
