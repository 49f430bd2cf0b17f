package session

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/scoir/attestor/pkg/identity"
)

type ping struct {
	Msg string
}

type pong struct {
	Msg string
}

func TestHub_RoundTrip(t *testing.T) {
	hub := NewHub()

	hub.Handle("alice", func(sess Session) {
		defer sess.Close()

		in := &ping{}
		if err := sess.Receive(context.Background(), &in); err != nil {
			return
		}
		_ = sess.Send(&pong{Msg: in.Msg + " back"})
	})

	sess, err := hub.DialerFor("thrift").Open(context.Background(), &identity.PartyIdentity{Name: "alice"})
	require.NoError(t, err)
	defer sess.Close()

	require.Equal(t, "alice", sess.Counterparty())
	require.NoError(t, sess.Send(&ping{Msg: "hello"}))

	out := &pong{}
	require.NoError(t, sess.Receive(context.Background(), &out))
	require.Equal(t, "hello back", out.Msg)
}

func TestHub_NotListening(t *testing.T) {
	hub := NewHub()

	_, err := hub.DialerFor("thrift").Open(context.Background(), &identity.PartyIdentity{Name: "alice"})
	require.Error(t, err)
}

func TestSession_UnexpectedPayload(t *testing.T) {
	hub := NewHub()

	hub.Handle("alice", func(sess Session) {
		_ = sess.Send(&pong{Msg: "surprise"})
	})

	sess, err := hub.DialerFor("thrift").Open(context.Background(), &identity.PartyIdentity{Name: "alice"})
	require.NoError(t, err)
	defer sess.Close()

	out := &ping{}
	err = sess.Receive(context.Background(), &out)
	require.Error(t, err)
	require.Equal(t, ErrUnexpected, errors.Cause(err))
}

func TestSession_Timeout(t *testing.T) {
	hub := NewHub()

	hub.Handle("alice", func(sess Session) {
		// never responds
	})

	sess, err := hub.DialerFor("thrift").Open(context.Background(), &identity.PartyIdentity{Name: "alice"})
	require.NoError(t, err)
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := &pong{}
	err = sess.Receive(ctx, &out)
	require.Error(t, err)
	require.Equal(t, ErrTimeout, errors.Cause(err))
}

func TestSession_Close(t *testing.T) {
	hub := NewHub()

	closed := make(chan struct{})
	hub.Handle("alice", func(sess Session) {
		defer close(closed)

		out := &ping{}
		err := sess.Receive(context.Background(), &out)
		require.Equal(t, ErrClosed, errors.Cause(err))
	})

	sess, err := hub.DialerFor("thrift").Open(context.Background(), &identity.PartyIdentity{Name: "alice"})
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("responder did not observe close")
	}
}
