package scanner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/model"
)

func init() {
	RegisterBackend(BackendChromedp, func(cfg Config, logger logging.Logger) (Scanner, error) {
		return NewChromedpScanner(cfg, logger)
	})
}

// ChromedpScanner drives a headless Chrome, injects axe-core after the page
// settles and collects the real rule engine's violations.
type ChromedpScanner struct {
	cfg    Config
	logger logging.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	axeOnce   sync.Once
	axeSource string
	axeErr    error
}

// NewChromedpScanner creates the browser allocator. The axe-core script is
// fetched lazily on the first page scan so construction stays cheap.
func NewChromedpScanner(cfg Config, logger logging.Logger) (*ChromedpScanner, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	if cfg.AxeScriptURL == "" {
		cfg.AxeScriptURL = DefaultAxeScriptURL
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromedpScanner{
		cfg:         cfg,
		logger:      logger.With(logging.Field{Key: "component", Value: "chromedp_scanner"}),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// ScanPage navigates to pageURL, waits for the network to go idle, injects
// axe and runs it with the configured tags.
func (c *ChromedpScanner) ScanPage(ctx context.Context, pageURL string) (*model.PageResult, error) {
	axeSrc, err := c.loadAxeSource(ctx)
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(c.allocCtx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var tcancel context.CancelFunc
		tabCtx, tcancel = context.WithDeadline(tabCtx, deadline)
		defer tcancel()
	}

	idleCh := waitNetworkIdle(tabCtx, 2*time.Second)

	if err := chromedp.Run(tabCtx, chromedp.Navigate(pageURL)); err != nil {
		return nil, fmt.Errorf("chromedp scan: navigating to %s: %w", pageURL, err)
	}

	select {
	case <-idleCh:
	case <-tabCtx.Done():
		return nil, fmt.Errorf("chromedp scan: waiting for %s to settle: %w", pageURL, tabCtx.Err())
	}

	var raw string
	err = chromedp.Run(tabCtx,
		chromedp.Evaluate(axeSrc, nil),
		chromedp.Evaluate(axeRunExpr(c.cfg.RunTags), &raw,
			func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp scan: running axe on %s: %w", pageURL, err)
	}

	violations, err := decodeAxeViolations(raw)
	if err != nil {
		return nil, fmt.Errorf("chromedp scan: %s: %w", pageURL, err)
	}
	violations = filterViolations(c.cfg, violations)

	c.logger.Debug("chromedp scan: page done",
		logging.Field{Key: "url", Value: pageURL},
		logging.Field{Key: "violations", Value: len(violations)})

	return &model.PageResult{
		URLPath:    pathOf(pageURL),
		Violations: violations,
	}, nil
}

// Close tears down the browser allocator.
func (c *ChromedpScanner) Close() error {
	c.allocCancel()
	return nil
}

// loadAxeSource fetches the axe-core build once and caches it for every
// subsequent page.
func (c *ChromedpScanner) loadAxeSource(ctx context.Context) (string, error) {
	c.axeOnce.Do(func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AxeScriptURL, nil)
		if err != nil {
			c.axeErr = fmt.Errorf("building axe script request: %w", err)
			return
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			c.axeErr = fmt.Errorf("fetching axe script %s: %w", c.cfg.AxeScriptURL, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			c.axeErr = fmt.Errorf("fetching axe script %s: status %d", c.cfg.AxeScriptURL, resp.StatusCode)
			return
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			c.axeErr = fmt.Errorf("reading axe script: %w", err)
			return
		}
		c.axeSource = string(body)
	})
	return c.axeSource, c.axeErr
}

// waitNetworkIdle signals once no network request has been in flight for
// idleAfter. Single-page apps keep loading after the navigation event, so
// running axe before idle under-reports.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() {
					close(idleChan)
				})
			}
		})
	}
	startTimer()

	chromedp.ListenTarget(ctx,
		func(ev any) {
			switch ev.(type) {
			case *network.EventRequestWillBeSent:
				atomic.AddInt32(&activeReqs, 1)
			case *network.EventLoadingFinished, *network.EventLoadingFailed:
				if atomic.AddInt32(&activeReqs, -1) == 0 {
					startTimer()
				}
			}
		})

	return idleChan
}
