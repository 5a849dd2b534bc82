package container

import (
	"bytes"
	"image/gif"
	"testing"

	"github.com/chai2010/webp"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
	"github.com/seventv/image-editor/go/internal/testutil"
)

type testCase struct {
	Name         string
	Data         []byte
	ExpectedType types.Type
	Decodable    bool
}

func TestMatch(t *testing.T) {
	t.Parallel()

	img := testutil.Gradient(16, 8)

	gifBuf := bytes.Buffer{}
	testutil.IsNil(t, gif.Encode(&gifBuf, img, nil), "gif encodes")

	webpBuf := bytes.Buffer{}
	testutil.IsNil(t, webp.Encode(&webpBuf, img, &webp.Options{Lossless: true}), "webp encodes")

	avif := []byte{0x00, 0x00, 0x00, 0x1c, 'f', 't', 'y', 'p', 'a', 'v', 'i', 'f', 0x00, 0x00}

	cases := []testCase{
		{"png", testutil.PNG(t, img), matchers.TypePng, true},
		{"jpeg", testutil.JPEG(t, img), matchers.TypeJpeg, true},
		{"gif", gifBuf.Bytes(), matchers.TypeGif, true},
		{"webp", webpBuf.Bytes(), matchers.TypeWebp, true},
		{"avif", avif, TypeAvif, false},
		{"garbage", []byte("definitely not an image"), types.Unknown, false},
	}

	for _, c := range cases {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			match := Match(c.Data)
			testutil.Assert(t, c.ExpectedType, match, "image "+c.Name)
			testutil.Assert(t, c.Decodable, Decodable(match), "decodable "+c.Name)
		})
	}
}
