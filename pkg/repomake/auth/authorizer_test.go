// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/telekom/repomake/pkg/repomake/store"
)

type memStore struct {
	ids     store.Identities
	saves   int
	saveErr error
}

func (m *memStore) Load() store.Identities {
	return append(store.Identities{}, m.ids...)
}

func (m *memStore) Save(ids store.Identities) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.ids = append(store.Identities{}, ids...)
	return nil
}

func (m *memStore) Clear() error {
	m.ids = nil
	return nil
}

type fakeFetcher struct {
	token string
	err   error
	calls int
}

func (f *fakeFetcher) FetchToken(context.Context) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakeVerifier struct {
	logins  map[string]string
	checked []string
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (string, bool) {
	f.checked = append(f.checked, token)
	login, ok := f.logins[token]
	return login, ok && login != ""
}

type fakeSelector struct {
	pick    int // index into the offered list, -1 for a different login
	err     error
	offered store.Identities
}

func (f *fakeSelector) SelectIdentity(ids store.Identities) (store.Identity, bool, error) {
	f.offered = ids
	if f.err != nil {
		return store.Identity{}, false, f.err
	}
	if f.pick < 0 {
		return store.Identity{}, false, nil
	}
	return ids[f.pick], true, nil
}

type fakeConfirmer struct {
	answer   bool
	err      error
	question string
}

func (f *fakeConfirmer) Confirm(question string, _ bool) (bool, error) {
	f.question = question
	return f.answer, f.err
}

func newTestAuthorizer(t *testing.T, s store.Store, sel IdentitySelector, fetch TokenFetcher, verify IdentityVerifier) *Authorizer {
	return NewAuthorizer(s, sel, fetch, verify, zaptest.NewLogger(t).Sugar())
}

// empty store, new token via the browser, identity confirmed
func TestAuthorizeEmptyStoreFetchesNewToken(t *testing.T) {
	s := &memStore{}
	fetch := &fakeFetcher{token: "abc"}
	verify := &fakeVerifier{logins: map[string]string{"abc": "alice"}}
	sel := &fakeSelector{}

	auth, err := newTestAuthorizer(t, s, sel, fetch, verify).Authorize(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "abc", auth.Token)
	assert.Equal(t, "alice", auth.Login)
	assert.False(t, auth.Stored())
	assert.Equal(t, 1, fetch.calls)
	assert.Nil(t, sel.offered, "no prompt with an empty store")
	assert.Equal(t, 0, s.saves)
}

// saved token is no longer valid: pruned and the run fails
func TestAuthorizeReuseInvalidTokenIsPruned(t *testing.T) {
	s := &memStore{ids: store.Identities{
		{Login: "carol", Token: "tok-c"},
		{Login: "bob", Token: "xyz"},
	}}
	fetch := &fakeFetcher{token: "new"}
	verify := &fakeVerifier{logins: map[string]string{}}
	sel := &fakeSelector{pick: 0}

	_, err := newTestAuthorizer(t, s, sel, fetch, verify).Authorize(context.Background(), Request{})
	require.ErrorIs(t, err, ErrTokenInvalid)
	assert.Equal(t, store.Identities{{Login: "carol", Token: "tok-c"}}, s.ids)
	assert.Equal(t, 1, s.saves)
	assert.Equal(t, 0, fetch.calls, "no automatic fallback to a new login")
	assert.Equal(t, []string{"xyz"}, verify.checked)
}

func TestAuthorizeOffersNewestFirst(t *testing.T) {
	s := &memStore{ids: store.Identities{
		{Login: "alice", Token: "tok-a"},
		{Login: "bob", Token: "tok-b"},
	}}
	sel := &fakeSelector{pick: 1}
	verify := &fakeVerifier{logins: map[string]string{"tok-a": "alice"}}

	auth, err := newTestAuthorizer(t, s, sel, &fakeFetcher{}, verify).Authorize(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "bob", sel.offered[0].Login)
	assert.Equal(t, "alice", auth.Login)
	assert.True(t, auth.Stored())

	// reused identity becomes the most recent one
	recent, _ := s.ids.MostRecent()
	assert.Equal(t, "alice", recent.Login)
	assert.Equal(t, 1, s.saves)
}

func TestAuthorizeReuseMostRecentDoesNotWrite(t *testing.T) {
	s := &memStore{ids: store.Identities{
		{Login: "alice", Token: "tok-a"},
		{Login: "bob", Token: "tok-b"},
	}}
	sel := &fakeSelector{pick: 0}
	verify := &fakeVerifier{logins: map[string]string{"tok-b": "bob"}}

	_, err := newTestAuthorizer(t, s, sel, &fakeFetcher{}, verify).Authorize(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 0, s.saves)
}

func TestAuthorizeUpdatesRenamedLogin(t *testing.T) {
	s := &memStore{ids: store.Identities{{Login: "old-name", Token: "tok-a"}}}
	sel := &fakeSelector{pick: 0}
	verify := &fakeVerifier{logins: map[string]string{"tok-a": "new-name"}}

	auth, err := newTestAuthorizer(t, s, sel, &fakeFetcher{}, verify).Authorize(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "new-name", auth.Login)
	assert.Equal(t, store.Identities{{Login: "new-name", Token: "tok-a"}}, s.ids)
}

func TestAuthorizeDifferentLogin(t *testing.T) {
	s := &memStore{ids: store.Identities{{Login: "bob", Token: "xyz"}}}
	fetch := &fakeFetcher{token: "abc"}
	verify := &fakeVerifier{logins: map[string]string{"abc": "alice", "xyz": "bob"}}

	auth, err := newTestAuthorizer(t, s, &fakeSelector{pick: -1}, fetch, verify).Authorize(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "alice", auth.Login)
	assert.False(t, auth.Stored())
	assert.Equal(t, 1, fetch.calls)
	assert.Equal(t, 0, s.saves)
}

func TestAuthorizeFetchFailure(t *testing.T) {
	s := &memStore{}
	fetch := &fakeFetcher{err: ErrStateMismatch}
	verify := &fakeVerifier{}

	_, err := newTestAuthorizer(t, s, nil, fetch, verify).Authorize(context.Background(), Request{})
	require.ErrorIs(t, err, ErrStateMismatch)
	assert.Empty(t, verify.checked)
	assert.Equal(t, 0, s.saves)
}

func TestAuthorizeSelectorError(t *testing.T) {
	s := &memStore{ids: store.Identities{{Login: "bob", Token: "xyz"}}}
	sentinel := errors.New("interrupted")

	_, err := newTestAuthorizer(t, s, &fakeSelector{err: sentinel}, &fakeFetcher{}, &fakeVerifier{}).Authorize(context.Background(), Request{})
	require.ErrorIs(t, err, sentinel)
}

func TestAuthorizeQuick(t *testing.T) {
	t.Run("uses most recent without prompting", func(t *testing.T) {
		s := &memStore{ids: store.Identities{
			{Login: "alice", Token: "tok-a"},
			{Login: "bob", Token: "tok-b"},
		}}
		sel := &fakeSelector{}
		verify := &fakeVerifier{logins: map[string]string{"tok-b": "bob"}}

		auth, err := newTestAuthorizer(t, s, sel, &fakeFetcher{}, verify).Authorize(context.Background(), Request{Quick: true})
		require.NoError(t, err)
		assert.Equal(t, "bob", auth.Login)
		assert.Nil(t, sel.offered)
	})

	t.Run("fails on empty store", func(t *testing.T) {
		fetch := &fakeFetcher{token: "abc"}
		_, err := newTestAuthorizer(t, &memStore{}, nil, fetch, &fakeVerifier{}).Authorize(context.Background(), Request{Quick: true})
		require.ErrorIs(t, err, ErrNoSavedTokens)
		assert.Equal(t, 0, fetch.calls)
	})
}

func TestAuthorizeSuppliedToken(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := &memStore{ids: store.Identities{{Login: "bob", Token: "xyz"}}}
		sel := &fakeSelector{}
		verify := &fakeVerifier{logins: map[string]string{"pat": "alice"}}

		auth, err := newTestAuthorizer(t, s, sel, &fakeFetcher{}, verify).Authorize(context.Background(), Request{Token: "pat"})
		require.NoError(t, err)
		assert.Equal(t, "alice", auth.Login)
		assert.False(t, auth.Stored())
		assert.Nil(t, sel.offered)
	})

	t.Run("invalid stored token is pruned", func(t *testing.T) {
		s := &memStore{ids: store.Identities{{Login: "bob", Token: "xyz"}, {Login: "alice", Token: "tok-a"}}}
		_, err := newTestAuthorizer(t, s, nil, nil, &fakeVerifier{}).Authorize(context.Background(), Request{Token: "xyz"})
		require.ErrorIs(t, err, ErrTokenInvalid)
		assert.Equal(t, store.Identities{{Login: "alice", Token: "tok-a"}}, s.ids)
	})

	t.Run("invalid unknown token leaves store untouched", func(t *testing.T) {
		s := &memStore{ids: store.Identities{{Login: "alice", Token: "tok-a"}}}
		_, err := newTestAuthorizer(t, s, nil, nil, &fakeVerifier{}).Authorize(context.Background(), Request{Token: "nope"})
		require.ErrorIs(t, err, ErrTokenInvalid)
		assert.Equal(t, 0, s.saves)
	})
}

func TestAuthorizePruneWriteFailureStillReportsInvalid(t *testing.T) {
	s := &memStore{ids: store.Identities{{Login: "bob", Token: "xyz"}}, saveErr: errors.New("read-only fs")}
	_, err := newTestAuthorizer(t, s, &fakeSelector{pick: 0}, nil, &fakeVerifier{}).Authorize(context.Background(), Request{})
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestOfferSave(t *testing.T) {
	t.Run("consent appends", func(t *testing.T) {
		s := &memStore{ids: store.Identities{{Login: "bob", Token: "xyz"}}}
		a := newTestAuthorizer(t, s, &fakeSelector{pick: -1}, &fakeFetcher{token: "abc"},
			&fakeVerifier{logins: map[string]string{"abc": "alice"}})
		auth, err := a.Authorize(context.Background(), Request{})
		require.NoError(t, err)

		confirm := &fakeConfirmer{answer: true}
		saved, err := a.OfferSave(auth, confirm)
		require.NoError(t, err)
		assert.True(t, saved)
		assert.Contains(t, confirm.question, "save your token")
		assert.Equal(t, store.Identities{{Login: "bob", Token: "xyz"}, {Login: "alice", Token: "abc"}}, s.ids)
		assert.Equal(t, 1, s.saves)
	})

	t.Run("declined", func(t *testing.T) {
		s := &memStore{}
		a := newTestAuthorizer(t, s, nil, &fakeFetcher{token: "abc"}, &fakeVerifier{logins: map[string]string{"abc": "alice"}})
		auth, err := a.Authorize(context.Background(), Request{})
		require.NoError(t, err)

		saved, err := a.OfferSave(auth, &fakeConfirmer{answer: false})
		require.NoError(t, err)
		assert.False(t, saved)
		assert.Equal(t, 0, s.saves)
	})

	t.Run("already stored is not offered", func(t *testing.T) {
		s := &memStore{ids: store.Identities{{Login: "bob", Token: "xyz"}}}
		a := newTestAuthorizer(t, s, &fakeSelector{pick: 0}, nil, &fakeVerifier{logins: map[string]string{"xyz": "bob"}})
		auth, err := a.Authorize(context.Background(), Request{})
		require.NoError(t, err)

		confirm := &fakeConfirmer{answer: true}
		saved, err := a.OfferSave(auth, confirm)
		require.NoError(t, err)
		assert.False(t, saved)
		assert.Empty(t, confirm.question)
	})

	t.Run("write failure is reported", func(t *testing.T) {
		s := &memStore{saveErr: errors.New("disk full")}
		a := newTestAuthorizer(t, s, nil, &fakeFetcher{token: "abc"}, &fakeVerifier{logins: map[string]string{"abc": "alice"}})
		auth, err := a.Authorize(context.Background(), Request{})
		require.NoError(t, err)

		saved, err := a.OfferSave(auth, &fakeConfirmer{answer: true})
		require.Error(t, err)
		assert.False(t, saved)
		assert.Contains(t, err.Error(), "could not save token")
	})
}
