package editor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/h2non/filetype/matchers"
	"github.com/seventv/image-editor/go/container"
	"github.com/valyala/fasthttp"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxRedirects        = 5
)

// Fetcher resolves an image reference to its encoded bytes.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// Loader turns image references into rasters. References are dispatched on
// their URI scheme; anything without a registered scheme is read from the
// local filesystem.
type Loader struct {
	fetchers map[string]Fetcher
	client   *fasthttp.Client
	timeout  time.Duration
	maxBytes int
}

type LoaderOption func(*Loader)

// WithFetcher registers f for references of the form "<scheme>://...".
func WithFetcher(scheme string, f Fetcher) LoaderOption {
	return func(l *Loader) {
		l.fetchers[strings.ToLower(scheme)] = f
	}
}

// WithHTTPTimeout bounds remote fetches that have no context deadline.
func WithHTTPTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithMaxBytes limits the size of a remote response body.
func WithMaxBytes(n int) LoaderOption {
	return func(l *Loader) {
		l.maxBytes = n
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		fetchers: map[string]Fetcher{},
		timeout:  defaultFetchTimeout,
	}

	l.fetchers["http"] = FetcherFunc(l.fetchHTTP)
	l.fetchers["https"] = FetcherFunc(l.fetchHTTP)
	l.fetchers["data"] = FetcherFunc(fetchDataURI)
	l.fetchers["file"] = FetcherFunc(fetchFile)

	for _, opt := range opts {
		opt(l)
	}

	l.client = &fasthttp.Client{
		Name:                "image-editor",
		MaxResponseBodySize: l.maxBytes,
	}

	return l
}

// Register adds or replaces the fetcher used for "<scheme>://" references.
// It must not be called concurrently with Load.
func (l *Loader) Register(scheme string, f Fetcher) {
	l.fetchers[strings.ToLower(scheme)] = f
}

// Load fetches and decodes ref. All failures are reported as *DecodeError.
func (l *Loader) Load(ctx context.Context, ref string) (*Raster, error) {
	data, err := l.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	r, err := Decode(data)
	if err != nil {
		err.(*DecodeError).Ref = ref
		return nil, err
	}

	return r, nil
}

// Fetch resolves ref to its encoded bytes without decoding them.
func (l *Loader) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DecodeError{Ref: ref, Err: err}
	}

	f := l.fetcherFor(ref)

	data, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, &DecodeError{Ref: ref, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &DecodeError{Ref: ref, Err: err}
	}

	return data, nil
}

func (l *Loader) fetcherFor(ref string) Fetcher {
	if strings.HasPrefix(ref, "data:") {
		return l.fetchers["data"]
	}

	if i := strings.Index(ref, "://"); i > 0 {
		if f, ok := l.fetchers[strings.ToLower(ref[:i])]; ok {
			return f
		}
	}

	return FetcherFunc(fetchFile)
}

func (l *Loader) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(ref)
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(l.timeout)
	}

	for redirects := 0; ; redirects++ {
		if err := l.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}

		if !fasthttp.StatusCodeIsRedirect(resp.StatusCode()) {
			break
		}
		if redirects == maxRedirects {
			return nil, fasthttp.ErrTooManyRedirects
		}

		location := resp.Header.Peek(fasthttp.HeaderLocation)
		if len(location) == 0 {
			return nil, fasthttp.ErrMissingLocation
		}

		// relative locations resolve against the current uri
		next := req.URI()
		next.UpdateBytes(location)
		req.SetRequestURI(next.String())
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode())
	}

	return append([]byte(nil), resp.Body()...), nil
}

func fetchFile(_ context.Context, ref string) ([]byte, error) {
	return os.ReadFile(strings.TrimPrefix(ref, "file://"))
}

// fetchDataURI decodes RFC 2397 data URIs, the form produced by
// canvas.toDataURL.
func fetchDataURI(_ context.Context, ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data uri")
	}

	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}

		return data, nil
	}

	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}

	return []byte(s), nil
}

// Decode sniffs the codec of data and decodes it into a Raster. Animated
// inputs decode to their first frame.
func Decode(data []byte) (*Raster, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("empty image data")}
	}

	match := container.Match(data)
	if !container.Decodable(match) {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, match.Extension)}
	}

	var (
		img image.Image
		err error
	)

	rd := bytes.NewReader(data)
	switch match {
	case matchers.TypeJpeg:
		img, err = jpeg.Decode(rd)
	case matchers.TypePng:
		img, err = png.Decode(rd)
	case matchers.TypeGif:
		img, err = gif.Decode(rd)
	case matchers.TypeWebp:
		img, err = webp.Decode(rd)
	}
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	if img.Bounds().Empty() {
		return nil, &DecodeError{Err: fmt.Errorf("image has no pixels")}
	}

	return NewRaster(img), nil
}
