package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendGridNotifier_SendReminder(t *testing.T) {
	n := NewSendGridNotifier("key", "Fees Office", "fees@institute.test", "Institute")

	var sent rest.Request
	n.api = func(req rest.Request) (*rest.Response, error) {
		sent = req
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}

	err := n.SendReminder(context.Background(), []string{"asha@example.com", "parent@example.com"}, "Fee due soon", "Rs. 2900.00 is due on 2024-05-13")
	require.NoError(t, err)

	assert.Equal(t, rest.Method(http.MethodPost), sent.Method)
	assert.Equal(t, "https://api.sendgrid.com/v3/mail/send", sent.BaseURL)

	var payload struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			To []struct {
				Email string `json:"email"`
			} `json:"to"`
			Subject string `json:"subject"`
		} `json:"personalizations"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(sent.Body, &payload))

	assert.Equal(t, "fees@institute.test", payload.From.Email)
	require.Len(t, payload.Personalizations, 1)
	assert.Equal(t, "[Institute] Fee due soon", payload.Personalizations[0].Subject)
	assert.Len(t, payload.Personalizations[0].To, 2)
	require.Len(t, payload.Content, 1)
	assert.Equal(t, "text/plain", payload.Content[0].Type)
}

func TestSendGridNotifier_Failures(t *testing.T) {
	n := NewSendGridNotifier("key", "Fees Office", "fees@institute.test", "Institute")

	n.api = func(req rest.Request) (*rest.Response, error) {
		return &rest.Response{StatusCode: http.StatusUnauthorized, Body: "bad key"}, nil
	}
	err := n.SendReminder(context.Background(), []string{"asha@example.com"}, "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	n.api = func(req rest.Request) (*rest.Response, error) {
		return nil, errors.New("dial tcp: timeout")
	}
	assert.Error(t, n.SendReminder(context.Background(), []string{"asha@example.com"}, "s", "b"))

	assert.ErrorIs(t, n.SendReminder(context.Background(), nil, "s", "b"), ErrNoRecipients)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, n.SendReminder(context.Background(), []string{"asha@example.com"}, "Fee overdue", "please pay"))
	assert.Contains(t, buf.String(), "asha@example.com")
	assert.Contains(t, buf.String(), "Fee overdue")

	assert.ErrorIs(t, n.SendReminder(context.Background(), nil, "s", "b"), ErrNoRecipients)
}
