package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/retry"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/timeutil"
)

// enginePage is the domain.Page handed to searchers. It bounds every
// request by the navigation timeout and penalizes the throttle when a
// site answers with a non-OK status.
type enginePage struct {
	session  domain.Session
	throttle *Throttle
	clock    timeutil.Clock
	timeout  time.Duration
	log      *logger.Logger
}

func (p *enginePage) Goto(ctx context.Context, url string) (*domain.Response, error) {
	return p.Submit(ctx, &domain.Request{URL: url})
}

func (p *enginePage) Submit(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	reqCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := p.clock.Now()
	resp, err := p.session.Do(reqCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: loading %s after %s", domain.ErrTimeout, req.URL, p.timeout)
		}
		return nil, err
	}

	p.log.Debug().
		Str("url", resp.URL).
		Int("status", resp.Status).
		Dur("elapsed", p.clock.Now().Sub(start)).
		Msg("page loaded")

	if !resp.OK() {
		p.throttle.Penalize(ctx)
		return resp, &domain.NavigationError{URL: resp.URL, Status: resp.Status}
	}
	return resp, nil
}

func (p *enginePage) Current() *domain.Response {
	return p.session.Current()
}

func (p *enginePage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.session.Screenshot(ctx)
}

func (p *enginePage) WaitFor(ctx context.Context, check func(ctx context.Context) (bool, error), opts domain.WaitOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = p.timeout
	}
	result := retry.Poll(ctx, check, retry.PollConfig{
		Timeout:  timeout,
		Interval: opts.Interval,
		Clock:    p.clock,
	})

	switch result.Outcome {
	case retry.Ready:
		return nil
	case retry.TimedOut:
		return fmt.Errorf("%w: page state not reached after %d checks in %s", domain.ErrTimeout, result.Attempts, result.Elapsed)
	default:
		return result.Err
	}
}

var _ domain.Page = (*enginePage)(nil)
