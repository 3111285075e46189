package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MohitNegi1997/MoltenMotion/internal/domain"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	ProductsResource     = "products.json"
	CategoriesResource   = "categories.json"
	TestimonialsResource = "testimonials.json"

	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	defaultFetchTimeout     = 10 * time.Second
)

// Client reads the static catalog files under a base URL. Nothing is cached:
// every call goes to the network. Identical calls that are in flight at the
// same moment share one request, which is not bound to any single caller's
// context; a caller that gives up stops waiting without failing the others.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	sfg        singleflight.Group
	log        *zap.Logger

	failureThreshold uint32
	openTimeout      time.Duration
	fetchTimeout     time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how
// long it stays open.
func WithBreaker(failures uint32, openFor time.Duration) Option {
	return func(c *Client) {
		c.failureThreshold = failures
		c.openTimeout = openFor
	}
}

// WithFetchTimeout bounds one shared request to the catalog.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.fetchTimeout = d
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log:              zap.NewNop(),
		failureThreshold: defaultFailureThreshold,
		openTimeout:      defaultOpenTimeout,
		fetchTimeout:     defaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	threshold := c.failureThreshold
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     c.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("catalog breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// NewDirClient reads the catalog files straight from dir, for commands that
// run without the HTTP server.
func NewDirClient(dir string, opts ...Option) *Client {
	hc := &http.Client{Transport: http.NewFileTransport(http.Dir(dir))}
	return NewClient("file://catalog", append([]Option{WithHTTPClient(hc)}, opts...)...)
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	return fetchList[domain.Product](ctx, c, ProductsResource)
}

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	return fetchList[domain.Category](ctx, c, CategoriesResource)
}

func (c *Client) Testimonials(ctx context.Context) ([]domain.Testimonial, error) {
	return fetchList[domain.Testimonial](ctx, c, TestimonialsResource)
}

// Storefront is what a page needs on first render.
type Storefront struct {
	Products   []domain.Product  `json:"products"`
	Categories []domain.Category `json:"categories"`
}

// Storefront loads products and categories concurrently. Either failure
// fails the call.
func (c *Client) Storefront(ctx context.Context) (Storefront, error) {
	var sf Storefront
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := c.Products(gctx)
		sf.Products = products
		return err
	})
	g.Go(func() error {
		categories, err := c.Categories(gctx)
		sf.Categories = categories
		return err
	})
	if err := g.Wait(); err != nil {
		return Storefront{}, err
	}
	return sf, nil
}

func fetchList[T any](ctx context.Context, c *Client, resource string) ([]T, error) {
	body, err := c.fetch(ctx, resource)
	if err != nil {
		return nil, err
	}

	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &LoadError{Resource: resource, Err: errors.Wrap(err, "failed to decode body")}
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, resource string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Resource: resource, Err: err}
	}

	shared := context.WithoutCancel(ctx)
	ch := c.sfg.DoChan(resource, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(shared, c.fetchTimeout)
		defer cancel()
		return c.breaker.Execute(func() ([]byte, error) {
			return c.get(fetchCtx, resource)
		})
	})

	select {
	case <-ctx.Done():
		return nil, &LoadError{Resource: resource, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			var loadErr *LoadError
			if errors.As(res.Err, &loadErr) {
				return nil, loadErr
			}
			return nil, &LoadError{Resource: resource, Err: res.Err}
		}
		return res.Val.([]byte), nil
	}
}

// breakerSuccess does not count a cancellation as a catalog failure.
func breakerSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

func (c *Client) get(ctx context.Context, resource string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+resource, nil)
	if err != nil {
		return nil, &LoadError{Resource: resource, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &LoadError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoadError{Resource: resource, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LoadError{Resource: resource, Err: errors.Wrap(err, "failed to read body")}
	}
	return body, nil
}
