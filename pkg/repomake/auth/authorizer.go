// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/telekom/repomake/pkg/repomake/store"
)

// ErrNoSavedTokens is returned for a quick run with an empty store.
var ErrNoSavedTokens = errors.New("no saved tokens, run repomake without --quick to authenticate first")

// State names the steps of an authorization for logging.
type State string

const (
	StateCheckStore  State = "CheckStore"
	StatePromptReuse State = "PromptReuse"
	StateFetchNew    State = "FetchNew"
	StateVerify      State = "Verify"
	StateConfirmed   State = "Confirmed"
	StatePruned      State = "Pruned"
	StatePersist     State = "PersistNewToken"
)

// TokenFetcher obtains a fresh token, normally through the browser Flow.
type TokenFetcher interface {
	FetchToken(ctx context.Context) (string, error)
}

// IdentityVerifier reports the login owning token. An invalid token is a
// normal outcome and is signalled by ok == false.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (login string, ok bool)
}

// IdentitySelector lets the user pick a saved identity. reuse == false means
// the user asked to authenticate with a different login.
type IdentitySelector interface {
	SelectIdentity(newestFirst store.Identities) (identity store.Identity, reuse bool, err error)
}

type Confirmer interface {
	Confirm(question string, defaultYes bool) (bool, error)
}

// Request describes how the token should be obtained.
type Request struct {
	// Token is used as is instead of consulting the store.
	Token string
	// Quick reuses the most recently used identity without prompting.
	Quick bool
}

// Authorization is a verified token.
type Authorization struct {
	Token string
	Login string

	known store.Identities
}

// Stored reports whether the token is already in the store.
func (a Authorization) Stored() bool {
	return a.known.Contains(a.Token)
}

type Authorizer struct {
	store    store.Store
	selector IdentitySelector
	fetcher  TokenFetcher
	verifier IdentityVerifier
	log      *zap.SugaredLogger
}

func NewAuthorizer(s store.Store, selector IdentitySelector, fetcher TokenFetcher, verifier IdentityVerifier, log *zap.SugaredLogger) *Authorizer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Authorizer{store: s, selector: selector, fetcher: fetcher, verifier: verifier, log: log}
}

func (a *Authorizer) enter(state State, keysAndValues ...interface{}) {
	a.log.Debugw("Authorization step", append([]interface{}{"state", state}, keysAndValues...)...)
}

// Authorize loads the store, picks or fetches a token and verifies it. A
// token that fails verification is pruned from the store and ErrTokenInvalid
// is returned; there is no automatic retry.
func (a *Authorizer) Authorize(ctx context.Context, req Request) (Authorization, error) {
	a.enter(StateCheckStore)
	known := a.store.Load()

	token, err := a.chooseToken(ctx, req, known)
	if err != nil {
		return Authorization{}, err
	}

	a.enter(StateVerify, "token", store.MaskToken(token))
	login, ok := a.verifier.Verify(ctx, token)
	if !ok {
		a.enter(StatePruned, "token", store.MaskToken(token))
		if pruned := known.Without(token); len(pruned) != len(known) {
			if err := a.store.Save(pruned); err != nil {
				a.log.Warnw("Failed to remove invalid token from store", "error", err)
			}
		}
		return Authorization{}, ErrTokenInvalid
	}

	a.enter(StateConfirmed, "login", login)
	if known.Contains(token) {
		// mark as most recently used and pick up a renamed login
		updated := known.Append(store.Identity{Login: login, Token: token})
		if !slices.Equal(updated, known) {
			if err := a.store.Save(updated); err != nil {
				a.log.Warnw("Failed to update saved tokens", "error", err)
			} else {
				known = updated
			}
		}
	}
	return Authorization{Token: token, Login: login, known: known}, nil
}

func (a *Authorizer) chooseToken(ctx context.Context, req Request, known store.Identities) (string, error) {
	if req.Token != "" {
		return req.Token, nil
	}
	if len(known) == 0 {
		if req.Quick {
			return "", ErrNoSavedTokens
		}
		return a.fetchNew(ctx)
	}
	if req.Quick {
		recent, _ := known.MostRecent()
		a.log.Debugw("Reusing most recent identity", "login", recent.Login)
		return recent.Token, nil
	}

	a.enter(StatePromptReuse, "saved", len(known))
	if a.selector == nil {
		return "", errors.New("no identity selector configured")
	}
	identity, reuse, err := a.selector.SelectIdentity(known.NewestFirst())
	if err != nil {
		return "", err
	}
	if reuse {
		return identity.Token, nil
	}
	return a.fetchNew(ctx)
}

func (a *Authorizer) fetchNew(ctx context.Context) (string, error) {
	a.enter(StateFetchNew)
	if a.fetcher == nil {
		return "", errors.New("no token fetcher configured")
	}
	return a.fetcher.FetchToken(ctx)
}

// OfferSave asks once whether to keep a token that is not stored yet and
// appends it on consent. It reports whether the token was saved.
func (a *Authorizer) OfferSave(auth Authorization, confirm Confirmer) (bool, error) {
	if auth.Token == "" || auth.Stored() {
		return false, nil
	}
	ok, err := confirm.Confirm("Would you like to save your token to local storage to use for next time (less secure)?", false)
	if err != nil || !ok {
		return false, err
	}
	a.enter(StatePersist, "login", auth.Login)
	if err := a.store.Save(auth.known.Append(store.Identity{Login: auth.Login, Token: auth.Token})); err != nil {
		return false, fmt.Errorf("could not save token: %w", err)
	}
	return true, nil
}
