package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	productsJSON = `[
		{"id":"p1","name":"Lava Lamp","slug":"lava-lamp","price":49,"categoryId":"lighting","image":"/img/p1.jpg","description":"Warm glow"},
		{"id":"p2","name":"Glass Vase","slug":"glass-vase","price":25,"categoryId":"decor","image":"/img/p2.jpg","description":"Blown glass"}
	]`
	categoriesJSON   = `[{"id":"lighting","name":"Lighting","slug":"lighting","color":"#ff6b35","image":"/img/c1.jpg"}]`
	testimonialsJSON = `[{"avatar":"/img/a1.jpg","quote":"Lovely","name":"Sam"}]`
)

func newCatalogServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if hits != nil {
				atomic.AddInt32(hits, 1)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/data/products.json", serve(productsJSON))
	mux.HandleFunc("/data/categories.json", serve(categoriesJSON))
	mux.HandleFunc("/data/testimonials.json", serve(testimonialsJSON))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProducts_Success(t *testing.T) {
	srv := newCatalogServer(t, nil)
	client := NewClient(srv.URL + "/data/")

	products, err := client.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "p1", products[0].ID)
	assert.Equal(t, "lava-lamp", products[0].Slug)
	assert.Equal(t, 49.0, products[0].Price)
	assert.Equal(t, "lighting", products[0].CategoryID)
	assert.Equal(t, "Warm glow", products[0].Description)
}

func TestCategoriesAndTestimonials(t *testing.T) {
	srv := newCatalogServer(t, nil)
	client := NewClient(srv.URL + "/data")
	ctx := context.Background()

	categories, err := client.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "#ff6b35", categories[0].Color)

	testimonials, err := client.Testimonials(ctx)
	require.NoError(t, err)
	require.Len(t, testimonials, 1)
	assert.Equal(t, "Sam", testimonials[0].Name)
	assert.Equal(t, "Lovely", testimonials[0].Quote)
}

func TestProducts_EveryCallRefetches(t *testing.T) {
	var hits int32
	srv := newCatalogServer(t, &hits)
	client := NewClient(srv.URL + "/data")

	for i := 0; i < 3; i++ {
		_, err := client.Products(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

// newBlockingServer serves products.json only after release is closed and
// reports each request on started.
func newBlockingServer(t *testing.T, hits *int32) (srv *httptest.Server, started <-chan struct{}, release chan struct{}) {
	t.Helper()
	startedCh := make(chan struct{}, 16)
	release = make(chan struct{})
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		startedCh <- struct{}{}
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte(productsJSON))
	}))
	t.Cleanup(srv.Close)
	return srv, startedCh, release
}

func TestProducts_ConcurrentCallsShareOneRequest(t *testing.T) {
	var hits int32
	srv, started, release := newBlockingServer(t, &hits)
	client := NewClient(srv.URL)

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	call := func() {
		defer wg.Done()
		products, err := client.Products(context.Background())
		if err == nil && len(products) != 2 {
			err = errors.Errorf("got %d products", len(products))
		}
		errs <- err
	}

	wg.Add(1)
	go call()
	<-started
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go call()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err := client.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestProducts_CanceledCallerDoesNotFailOthers(t *testing.T) {
	var hits int32
	srv, started, release := newBlockingServer(t, &hits)
	client := NewClient(srv.URL)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := client.Products(ctxA)
		errA <- err
	}()
	<-started

	type result struct {
		n   int
		err error
	}
	resB := make(chan result, 1)
	go func() {
		products, err := client.Products(context.Background())
		resB <- result{len(products), err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		var loadErr *LoadError
		require.True(t, errors.As(err, &loadErr))
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(release)
	select {
	case res := <-resB:
		require.NoError(t, res.err)
		assert.Equal(t, 2, res.n)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not return")
	}
}

func TestProducts_CancellationsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte(productsJSON))
	}))
	defer srv.Close()
	client := NewClient(srv.URL, WithBreaker(2, time.Minute))

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := client.Products(ctx)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.Products(ctx)
		require.ErrorIs(t, err, context.Canceled)
	}

	products, err := client.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestProducts_FetchTimeout(t *testing.T) {
	var hits int32
	srv, _, release := newBlockingServer(t, &hits)
	defer close(release)
	client := NewClient(srv.URL, WithFetchTimeout(20*time.Millisecond))

	_, err := client.Products(context.Background())

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBreakerSuccess(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"canceled", context.Canceled, true},
		{"wrapped canceled", &LoadError{Resource: ProductsResource, Err: context.Canceled}, true},
		{"fetch deadline", &LoadError{Resource: ProductsResource, Err: context.DeadlineExceeded}, false},
		{"bad status", &LoadError{Resource: ProductsResource, StatusCode: 503}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, breakerSuccess(tt.err))
		})
	}
}

func TestProducts_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	client := NewClient(srv.URL)

	_, err := client.Products(context.Background())

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ProductsResource, loadErr.Resource)
	assert.Equal(t, http.StatusInternalServerError, loadErr.StatusCode)
	assert.EqualError(t, err, "failed to load products.json: unexpected status 500")
}

func TestProducts_NotFound(t *testing.T) {
	srv := newCatalogServer(t, nil)
	client := NewClient(srv.URL + "/missing")

	_, err := client.Categories(context.Background())

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, http.StatusNotFound, loadErr.StatusCode)
}

func TestProducts_NetworkFault(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	client := NewClient(url)

	_, err := client.Products(context.Background())

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, 0, loadErr.StatusCode)
	assert.Error(t, loadErr.Err)
}

func TestProducts_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()
	client := NewClient(srv.URL)

	_, err := client.Products(context.Background())

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorContains(t, err, "failed to decode body")
}

func TestProducts_BreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	client := NewClient(srv.URL, WithBreaker(2, time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.Products(ctx)
		require.Error(t, err)
	}

	_, err := client.Products(ctx)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestStorefront(t *testing.T) {
	srv := newCatalogServer(t, nil)
	client := NewClient(srv.URL + "/data")

	sf, err := client.Storefront(context.Background())
	require.NoError(t, err)
	assert.Len(t, sf.Products, 2)
	assert.Len(t, sf.Categories, 1)
}

func TestStorefront_FailsWhenOneResourceFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/products.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(productsJSON))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	client := NewClient(srv.URL)

	_, err := client.Storefront(context.Background())

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, CategoriesResource, loadErr.Resource)
}

func TestProducts_ContextCanceled(t *testing.T) {
	srv := newCatalogServer(t, nil)
	client := NewClient(srv.URL + "/data")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Products(ctx)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirClient(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProductsResource), []byte(productsJSON), 0o644))
	client := NewDirClient(dir)

	products, err := client.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = client.Categories(context.Background())
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, http.StatusNotFound, loadErr.StatusCode)
}
