package revalidate

import (
	"bytes"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// storedHeaders are the response headers a cached page replays. Headers set
// by outer middleware (CORS, request ids) depend on the caller and are left
// to that middleware on every request.
var storedHeaders = []string{
	"Content-Type",
	"Content-Language",
	"Cache-Control",
	"Last-Modified",
	"Etag",
}

type cachedPage struct {
	header http.Header
	body   []byte
}

// PageCache keeps successful public GET responses in an LRU keyed by
// request URI and drops them when a Notifier signal names their path.
type PageCache struct {
	pages *lru.Cache[string, cachedPage]

	// mu guards generation and orders stores against invalidation sweeps.
	// generation is bumped by every signal; a response rendered under an
	// older generation is not stored.
	mu         sync.Mutex
	generation uint64
}

func NewPageCache(size int) (*PageCache, error) {
	pages, err := lru.New[string, cachedPage](size)
	if err != nil {
		return nil, err
	}
	return &PageCache{pages: pages}, nil
}

func (c *PageCache) Revalidate(paths ...string) {
	if len(paths) == 0 {
		return
	}
	want := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		want[p] = struct{}{}
	}
	c.sweep(func(p string) bool {
		_, ok := want[p]
		return ok
	})
	log.Printf("[content] revalidated %v", paths)
}

func (c *PageCache) RevalidatePrefix(prefixes ...string) {
	if len(prefixes) == 0 {
		return
	}
	c.sweep(func(p string) bool {
		for _, prefix := range prefixes {
			if strings.HasPrefix(p, prefix) {
				return true
			}
		}
		return false
	})
	log.Printf("[content] revalidated prefixes %v", prefixes)
}

// Len reports the number of cached responses.
func (c *PageCache) Len() int { return c.pages.Len() }

// sweep bumps the generation and removes every key whose path matches,
// all under mu so no render can be stored in between.
func (c *PageCache) sweep(match func(path string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	for _, key := range c.pages.Keys() {
		if match(pathOf(key)) {
			c.pages.Remove(key)
		}
	}
}

func (c *PageCache) current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// store adds the page unless a signal arrived since gen was read.
func (c *PageCache) store(key string, gen uint64, page cachedPage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.pages.Add(key, page)
	return true
}

// Middleware serves GET requests from the cache and stores 200 responses.
// X-Cache reports HIT or MISS.
func (c *PageCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := r.URL.RequestURI()
		if page, ok := c.pages.Get(key); ok {
			for k, v := range page.header {
				if _, set := w.Header()[k]; !set {
					w.Header()[k] = v
				}
			}
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(page.body)
			return
		}

		gen := c.current()
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Cache", "MISS")
		next.ServeHTTP(rec, r)

		if rec.status == http.StatusOK {
			c.store(key, gen, cachedPage{header: pick(w.Header()), body: rec.buf.Bytes()})
		}
	})
}

func pick(h http.Header) http.Header {
	out := make(http.Header, len(storedHeaders))
	for _, k := range storedHeaders {
		if v := h.Values(k); len(v) > 0 {
			out[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
		}
	}
	return out
}

// recorder tees the body so it can be cached after the handler returns.
type recorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func pathOf(requestURI string) string {
	u, err := url.ParseRequestURI(requestURI)
	if err != nil {
		return requestURI
	}
	return u.Path
}
