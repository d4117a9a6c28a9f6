package trakt

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Poll is a running device-code polling session.
type Poll struct {
	cancel context.CancelFunc
	done   chan struct{}
	token  *TokenResponse
	err    error
}

// Cancel stops polling. Wait then returns ErrPollCanceled.
func (p *Poll) Cancel() {
	p.cancel()
}

// Done is closed when polling has finished.
func (p *Poll) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until polling finishes and returns its outcome.
func (p *Poll) Wait() (*TokenResponse, error) {
	<-p.done
	return p.token, p.err
}

// StartPoll starts polling the device token endpoint every code.Interval
// seconds until the user authorizes the device, the code expires, a
// non-400 error occurs, or the poll is canceled (via ctx or Cancel).
func (c *Client) StartPoll(ctx context.Context, code *DeviceCode) (*Poll, error) {
	if err := code.validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Poll{cancel: cancel, done: make(chan struct{})}
	dc := *code
	go func() {
		defer close(p.done)
		defer cancel()
		p.token, p.err = c.poll(ctx, dc)
	}()
	return p, nil
}

// PollAccess polls until the device code is authorized and returns the
// token response. Canceling ctx stops polling.
func (c *Client) PollAccess(ctx context.Context, code *DeviceCode) (*TokenResponse, error) {
	p, err := c.StartPoll(ctx, code)
	if err != nil {
		return nil, err
	}
	return p.Wait()
}

func (c *Client) poll(ctx context.Context, code DeviceCode) (*TokenResponse, error) {
	logger := c.logger.With("user_code", code.UserCode)
	deadline := c.now().Add(time.Duration(code.ExpiresIn) * time.Second)

	ticker := time.NewTicker(time.Duration(code.Interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrPollCanceled, ctx.Err())
		case <-ticker.C:
			if !c.now().Before(deadline) {
				logger.Info("device code expired")
				return nil, ErrPollExpired
			}
			tr, err := c.deviceToken(ctx, code.DeviceCode)
			if err == nil {
				logger.Info("device authorized")
				return tr, nil
			}
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrPollCanceled, ctx.Err())
			}
			if StatusCode(err) == http.StatusBadRequest {
				logger.Debug("authorization pending")
				continue
			}
			return nil, WrapError("PollAccess", err)
		}
	}
}
