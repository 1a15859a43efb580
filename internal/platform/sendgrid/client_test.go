package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

func TestSendBuildsMailRequest(t *testing.T) {
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/mail/send", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "key", BaseURL: srv.URL + "/", DefaultFromEmail: "noreply@example.com", DefaultFromName: "Rentals"})
	require.NoError(t, err)

	res, err := c.Send(context.Background(), SendEmailRequest{
		To:         []EmailAddress{{Email: "owner@example.com"}},
		Subject:    " New inquiry ",
		Text:       "hello",
		Categories: []string{"chat_new_inquiry"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, res.StatusCode)
	require.Equal(t, "msg-1", res.MessageID)

	require.Equal(t, "noreply@example.com", got.From.Email)
	require.Equal(t, "Rentals", got.From.Name)
	require.Equal(t, "New inquiry", got.Subject)
	require.Len(t, got.Content, 1)
	require.Equal(t, "text/plain", got.Content[0].Type)
	require.Equal(t, []string{"chat_new_inquiry"}, got.Categories)
}

func TestSendRetriesServerErrorsOnly(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "0")
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad to address"}]}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "key", BaseURL: srv.URL, DefaultFromEmail: "a@example.com", MaxRetries: 3, Timeout: 5 * time.Second})
	require.NoError(t, err)

	_, err = c.Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "x"}},
		Subject: "s",
		Text:    "t",
	})
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.StatusCode)
	require.Contains(t, he.Error(), "bad to address")
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestSendValidates(t *testing.T) {
	c, err := New(logger.Nop(), Config{APIKey: "key"})
	require.NoError(t, err)
	_, err = c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "x"}}, Subject: "s", Text: "t"})
	require.Error(t, err, "missing from address")

	_, err = New(logger.Nop(), Config{})
	require.Error(t, err)
}
