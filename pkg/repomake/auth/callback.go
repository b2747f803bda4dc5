// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CallbackPath is the route GitHub redirects to after the user authorizes.
const CallbackPath = "/auth"

const shutdownGrace = 5 * time.Second

var errListenerClosed = errors.New("callback listener closed")

// CallbackListener serves exactly one authorization attempt on a loopback
// port. The first request to CallbackPath decides the outcome; once the
// attempt is resolved the listener shuts itself down.
type CallbackListener struct {
	state     string
	exchanger CodeExchanger
	log       *zap.SugaredLogger

	listener net.Listener
	server   *http.Server

	// exchangeCtx is cancelled when the attempt resolves so an in-flight
	// exchange does not outlive the listener.
	exchangeCtx    context.Context
	cancelExchange context.CancelFunc

	claimed atomic.Bool
	once    sync.Once
	done    chan struct{}
	closed  chan struct{}
	token   string
	err     error
}

// ListenCallback binds addr and starts serving. It fails fast with
// ErrPortInUse when the port cannot be bound; the redirect URI registered
// with GitHub is fixed, so no other port is tried.
func ListenCallback(addr, state string, exchanger CodeExchanger, log *zap.SugaredLogger) (*CallbackListener, error) {
	if state == "" {
		return nil, errors.New("state token is required")
	}
	if exchanger == nil {
		return nil, errors.New("code exchanger is required")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPortInUse, addr, err)
	}

	exchangeCtx, cancel := context.WithCancel(context.Background())
	l := &CallbackListener{
		state:          state,
		exchanger:      exchanger,
		log:            log,
		listener:       ln,
		exchangeCtx:    exchangeCtx,
		cancelExchange: cancel,
		done:           make(chan struct{}),
		closed:         make(chan struct{}),
	}
	l.server = &http.Server{
		Handler:           l.engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go l.serve()
	go l.shutdownWhenResolved()

	log.Debugw("Callback listener started", "address", ln.Addr().String())
	return l, nil
}

func (l *CallbackListener) engine() *gin.Engine {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(ginzap.RecoveryWithZap(l.log.Desugar(), true))
	engine.GET(CallbackPath, l.handleCallback)
	return engine
}

// Addr is the bound address, useful when listening on port 0.
func (l *CallbackListener) Addr() net.Addr {
	return l.listener.Addr()
}

func (l *CallbackListener) serve() {
	if err := l.server.Serve(l.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.resolve("", fmt.Errorf("callback listener failed: %w", err))
	}
}

func (l *CallbackListener) shutdownWhenResolved() {
	<-l.done
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := l.server.Shutdown(ctx); err != nil {
		l.log.Debugw("Graceful shutdown of callback listener failed, closing", "error", err)
		_ = l.server.Close()
	}
	// Serve may not have registered the listener yet.
	_ = l.listener.Close()
	close(l.closed)
	l.log.Debugw("Callback listener closed")
}

func (l *CallbackListener) resolve(token string, err error) {
	l.once.Do(func() {
		l.token = token
		l.err = err
		l.cancelExchange()
		close(l.done)
	})
}

func (l *CallbackListener) handleCallback(c *gin.Context) {
	l.log.Debugw("Received authorization callback", "remote", c.ClientIP())
	if !l.claimed.CompareAndSwap(false, true) {
		c.Data(http.StatusGone, htmlContentType, alreadyHandledPage)
		return
	}

	state := c.Query("state")
	if subtle.ConstantTimeCompare([]byte(state), []byte(l.state)) != 1 {
		l.log.Warnw("Rejected authorization callback with mismatching state", "remote", c.ClientIP())
		c.Data(http.StatusBadRequest, htmlContentType, failurePage)
		l.resolve("", ErrStateMismatch)
		return
	}

	if providerErr := c.Query("error"); providerErr != "" {
		msg := providerErr
		if desc := strings.TrimSpace(c.Query("error_description")); desc != "" {
			msg = msg + ": " + desc
		}
		c.Data(http.StatusBadRequest, htmlContentType, failurePage)
		l.resolve("", fmt.Errorf("%w: %s", ErrAuthorizationDenied, msg))
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Data(http.StatusBadRequest, htmlContentType, failurePage)
		l.resolve("", ErrMissingCode)
		return
	}

	c.Data(http.StatusOK, htmlContentType, successPage)
	go l.exchange(code)
}

func (l *CallbackListener) exchange(code string) {
	token, err := l.exchanger.Exchange(l.exchangeCtx, code)
	if err != nil {
		l.resolve("", err)
		return
	}
	l.resolve(token, nil)
}

// Wait blocks until the attempt resolves, ctx is done or timeout elapses
// (no limit when timeout <= 0). The listener is closed when Wait returns.
func (l *CallbackListener) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-l.done:
	case <-ctx.Done():
		l.resolve("", ctx.Err())
	case <-expired:
		l.resolve("", fmt.Errorf("%w after %s", ErrTimeout, timeout))
	}
	<-l.closed
	return l.token, l.err
}

// Close rejects a pending attempt and waits for the listener to shut down.
// It is safe to call after Wait.
func (l *CallbackListener) Close() error {
	l.resolve("", errListenerClosed)
	<-l.closed
	return nil
}
