package identity

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWallet_SignAndVerify(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		w, err := NewWallet("acme", "")
		require.NoError(t, err)

		sig, err := w.Sign([]byte("payload"))
		require.NoError(t, err)

		err = Verify(w.Identity().Verkey, []byte("payload"), sig)
		require.NoError(t, err)
	})
	t.Run("wrong key fails", func(t *testing.T) {
		w, err := NewWallet("acme", "")
		require.NoError(t, err)

		other, err := NewWallet("mallory", "")
		require.NoError(t, err)

		sig, err := w.Sign([]byte("payload"))
		require.NoError(t, err)

		err = Verify(other.Identity().Verkey, []byte("payload"), sig)
		require.Error(t, err)
	})
	t.Run("tampered payload fails", func(t *testing.T) {
		w, err := NewWallet("acme", "")
		require.NoError(t, err)

		sig, err := w.Sign([]byte("payload"))
		require.NoError(t, err)

		err = Verify(w.Identity().Verkey, []byte("payload2"), sig)
		require.Error(t, err)
	})
}

func TestStaticResolver(t *testing.T) {
	m := &Membership{
		Notary: "notary",
		Parties: []PartyIdentity{
			{Name: "notary", Verkey: "nk"},
			{Name: "acme", Verkey: "ak"},
		},
	}
	resolver := NewStaticResolver(m)

	t.Run("resolve", func(t *testing.T) {
		p, err := resolver.Resolve("acme")
		require.NoError(t, err)
		require.Equal(t, "ak", p.Verkey)
	})
	t.Run("notary", func(t *testing.T) {
		p, err := resolver.Notary()
		require.NoError(t, err)
		require.Equal(t, "notary", p.Name)
	})
	t.Run("unknown party", func(t *testing.T) {
		_, err := resolver.Resolve("mallory")
		require.Error(t, err)
		require.Equal(t, ErrUnknownParty, errors.Cause(err))
	})
	t.Run("register", func(t *testing.T) {
		resolver.Register(PartyIdentity{Name: "alice", Verkey: "alk"})

		p, err := resolver.Resolve("alice")
		require.NoError(t, err)
		require.Equal(t, "alk", p.Verkey)
	})
}

func TestLoadMembership(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		f, err := ioutil.TempFile("", "membership")
		require.NoError(t, err)
		defer os.Remove(f.Name())

		_, err = f.WriteString("notary: notary\nparties:\n  - name: acme\n    verkey: ak\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		m, err := LoadMembership(f.Name())
		require.NoError(t, err)
		require.Equal(t, "notary", m.Notary)
		require.Len(t, m.Parties, 1)
	})
	t.Run("missing notary", func(t *testing.T) {
		f, err := ioutil.TempFile("", "membership")
		require.NoError(t, err)
		defer os.Remove(f.Name())

		_, err = f.WriteString("parties: []\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = LoadMembership(f.Name())
		require.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMembership("/does/not/exist.yaml")
		require.Error(t, err)
	})
}
