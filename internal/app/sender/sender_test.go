package sender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	senderservice "github.com/magabrotheeeer/sales-tracker/internal/services/sender"
)

func TestMessageHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	smtpErr := errors.New("smtp unavailable")

	tests := []struct {
		name    string
		sendErr error
		wantErr error
	}{
		{name: "sent", sendErr: nil, wantErr: nil},
		{name: "malformed notice is dropped", sendErr: fmt.Errorf("op: %w", senderservice.ErrBadNotice), wantErr: nil},
		{name: "transport failure is retried", sendErr: smtpErr, wantErr: smtpErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []byte
			handler := MessageHandler(func(_ context.Context, body []byte) error {
				got = body
				return tt.sendErr
			}, log)

			err := handler(context.Background(), []byte(`{"sale_id":1}`))
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			}
			assert.Equal(t, `{"sale_id":1}`, string(got))
		})
	}
}
