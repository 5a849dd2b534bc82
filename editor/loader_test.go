package editor

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/seventv/image-editor/go/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestDecode(t *testing.T) {
	img := testutil.Gradient(24, 16)

	r, err := Decode(testutil.PNG(t, img))
	require.NoError(t, err)
	assert.True(t, r.Equal(wrap(img)))

	r, err = Decode(testutil.JPEG(t, img))
	require.NoError(t, err)
	assert.Equal(t, 24, r.Width())
	assert.Equal(t, 16, r.Height())
}

func TestDecodeGIF(t *testing.T) {
	pal := color.Palette{color.NRGBA{255, 0, 0, 255}, color.NRGBA{0, 0, 255, 255}}
	img := image.NewPaletted(image.Rect(0, 0, 5, 3), pal)
	img.SetColorIndex(4, 2, 1)

	buf := bytes.Buffer{}
	require.NoError(t, gif.Encode(&buf, img, nil))

	r, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 5, r.Width())
	assert.Equal(t, 3, r.Height())
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, r.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, r.NRGBAAt(4, 2))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))

	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Decode(nil)
	assert.True(t, errors.As(err, &decErr))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.png")
	require.NoError(t, os.WriteFile(path, testutil.PNG(t, testutil.Gradient(10, 10)), 0o600))

	l := NewLoader()

	r, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 10, r.Width())

	r, err = l.Load(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, 10, r.Height())

	_, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	var decErr *DecodeError
	assert.True(t, errors.As(err, &decErr))
}

func TestLoadDataURI(t *testing.T) {
	data := testutil.PNG(t, testutil.Gradient(6, 4))
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	r, err := NewLoader().Load(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, 6, r.Width())
	assert.Equal(t, 4, r.Height())

	_, err = NewLoader().Load(context.Background(), "data:image/png;base64")
	var decErr *DecodeError
	assert.True(t, errors.As(err, &decErr), "missing payload separator")
}

func TestLoadHTTP(t *testing.T) {
	data := testutil.PNG(t, testutil.Gradient(12, 7))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old.png":
			http.Redirect(w, r, "/art.png", http.StatusFound)
			return
		case "/loop.png":
			http.Redirect(w, r, "/loop.png", http.StatusMovedPermanently)
			return
		case "/art.png":
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	l := NewLoader()

	r, err := l.Load(context.Background(), srv.URL+"/art.png")
	require.NoError(t, err)
	assert.Equal(t, 12, r.Width())

	r, err = l.Load(context.Background(), srv.URL+"/old.png")
	require.NoError(t, err, "redirects are followed")
	assert.Equal(t, 7, r.Height())

	_, err = l.Load(context.Background(), srv.URL+"/loop.png")
	assert.True(t, errors.Is(err, fasthttp.ErrTooManyRedirects))

	_, err = l.Load(context.Background(), srv.URL+"/missing.png")
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, srv.URL+"/missing.png", decErr.Ref)
}

func TestLoadCustomScheme(t *testing.T) {
	data := testutil.JPEG(t, testutil.Gradient(9, 9))

	var seen string
	l := NewLoader(WithFetcher("mem", FetcherFunc(func(ctx context.Context, ref string) ([]byte, error) {
		seen = ref
		return data, nil
	})))

	r, err := l.Load(context.Background(), "mem://bucket/key.jpg")
	require.NoError(t, err)
	assert.Equal(t, 9, r.Width())
	assert.Equal(t, "mem://bucket/key.jpg", seen)
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader().Load(ctx, "data:,x")
	assert.True(t, errors.Is(err, context.Canceled))
}
