package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/", Token: "tok", MaxRetries: 2, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return c
}

func TestPostMessageDecodesAutoReply(t *testing.T) {
	threadID := uuid.New()
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "/api/chat/threads/"+threadID.String()+"/messages", r.URL.Path)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if atomic.AddInt32(&calls, 1) == 1 {
			fmt.Fprintf(w, `{"ok":true,"message":{"id":7,"body":%q},"auto_reply":{"id":8,"body":"auto"}}`, in["body"])
			return
		}
		fmt.Fprintf(w, `{"ok":true,"message":{"id":9,"body":%q},"auto_reply":false}`, in["body"])
	}))

	res, err := c.PostMessage(context.Background(), threadID, "hello")
	require.NoError(t, err)
	require.EqualValues(t, 7, res.Message.ID)
	require.Equal(t, "hello", res.Message.Body)
	require.NotNil(t, res.AutoReply)
	require.Equal(t, "auto", res.AutoReply.Body)

	res, err = c.PostMessage(context.Background(), threadID, "again")
	require.NoError(t, err)
	require.EqualValues(t, 9, res.Message.ID)
	require.Nil(t, res.AutoReply)
}

func TestErrorEnvelopeAndRetries(t *testing.T) {
	var gets, posts int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			atomic.AddInt32(&posts, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":"server_error","message":"internal error"}}`))
			return
		}
		if atomic.AddInt32(&gets, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"not_participant","message":"not a participant of this thread"}}`))
	}))

	_, err := c.FetchPage(context.Background(), uuid.New(), nil)
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	require.Equal(t, http.StatusForbidden, he.StatusCode)
	require.Equal(t, "not_participant", he.Code)
	require.EqualValues(t, 3, atomic.LoadInt32(&gets))

	_, err = c.PostMessage(context.Background(), uuid.New(), "x")
	require.True(t, errors.As(err, &he))
	require.Equal(t, "server_error", he.Code)
	require.EqualValues(t, 1, atomic.LoadInt32(&posts), "posts are never retried")
}

func TestFetchHistoryWalksCursor(t *testing.T) {
	threadID := uuid.New()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("before_id") {
		case "":
			_, _ = w.Write([]byte(`{"messages":[{"id":3,"body":"c"},{"id":4,"body":"d"}],"next_before_id":3}`))
		case "3":
			_, _ = w.Write([]byte(`{"messages":[{"id":1,"body":"a"},{"id":2,"body":"b"}],"next_before_id":1}`))
		default:
			_, _ = w.Write([]byte(`{"messages":[],"next_before_id":null}`))
		}
	}))

	msgs, err := c.FetchHistory(context.Background(), threadID, 0)
	require.NoError(t, err)
	var got []string
	for _, m := range msgs {
		got = append(got, m.Body)
	}
	require.Equal(t, []string{"a", "b", "c", "d"}, got)

	msgs, err = c.FetchHistory(context.Background(), threadID, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
}

func TestStreamDeliversNewMessages(t *testing.T) {
	threadID := uuid.New()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "tok", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": connected\n\n")
		fmt.Fprintf(w, "event: new-message\ndata: {\"channel\":\"thread:%s\",\"event\":\"new-message\",\"data\":{\"id\":1,\"body\":\"one\"}}\n\n", threadID)
		fmt.Fprint(w, ": ping\n\n")
		fmt.Fprintf(w, "event: new-message\ndata: {\"channel\":\"thread:%s\",\"event\":\"new-message\",\"data\":{\"id\":2,\"body\":\"two\"}}\n\n", threadID)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tl := NewTimeline()
	err := c.Stream(ctx, threadID, func(m Message) error {
		tl.Merge(m)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, bodies(tl.Entries()))
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Token: "x"})
	require.Error(t, err)
	_, err = New(Options{BaseURL: "http://x"})
	require.Error(t, err)
}
