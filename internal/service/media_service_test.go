package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	tags    map[string][]string
	meta    map[string]map[string]string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects: map[string][]byte{},
		tags:    map[string][]string{},
		meta:    map[string]map[string]string{},
	}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string, tags []string, meta map[string]string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.tags[key] = tags
	f.meta[key] = meta
	return nil
}

func (f *fakeObjectStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) URL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", []string{}},
		{"json array", `["Oci", "usne", "unknown", "oci"]`, []string{"oci", "usne"}},
		{"comma list", " ten , OBRVE,,alat ", []string{"ten", "obrve", "alat"}},
		{"broken json falls back to commas", `["setovi",`, []string{}},
		{"plain word", "setovi", []string{"setovi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.raw))
		})
	}
}

func TestParseContext(t *testing.T) {
	assert.Equal(t, map[string]string{"brand": "MAC", "shade": "12"}, ParseContext(`{"brand":"MAC","shade":12}`))
	assert.Equal(t, map[string]string{}, ParseContext("not json"))
	assert.Equal(t, map[string]string{}, ParseContext(`["a"]`))
	assert.Equal(t, map[string]string{}, ParseContext(""))
}

func TestMediaService_Disabled(t *testing.T) {
	svc := NewMediaService(nil, "gallery")
	ctx := context.Background()

	_, err := svc.Upload(ctx, bytes.NewReader(pngHeader), "a.png", "", "")
	assert.ErrorIs(t, err, ErrMediaDisabled)
	_, err = svc.UploadFromURL(ctx, UploadByURLInput{ImageURL: "http://x/a.png"})
	assert.ErrorIs(t, err, ErrMediaDisabled)
	assert.ErrorIs(t, svc.Delete(ctx, "gallery/a"), ErrMediaDisabled)
}

func TestMediaService_Upload(t *testing.T) {
	store := newFakeObjectStore()
	svc := NewMediaService(store, "/gallery/")
	ctx := context.Background()

	obj, err := svc.Upload(ctx, bytes.NewReader(pngHeader), "Red Lips.PNG", `["usne","bogus"]`, `{"brand":"MAC"}`)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(obj.PublicID, "gallery/red-lips-"), obj.PublicID)
	assert.Equal(t, "https://cdn.example.com/"+obj.PublicID, obj.SecureURL)
	assert.Equal(t, "png", obj.Format)
	assert.Equal(t, []string{"usne"}, obj.Tags)
	assert.Equal(t, map[string]string{"brand": "MAC"}, obj.Context)
	assert.Equal(t, []string{"usne"}, store.tags[obj.PublicID])
	assert.Equal(t, pngHeader, store.objects[obj.PublicID])

	require.NoError(t, svc.Delete(ctx, obj.PublicID))
	assert.NotContains(t, store.objects, obj.PublicID)
}

func TestMediaService_UploadRejects(t *testing.T) {
	svc := NewMediaService(newFakeObjectStore(), "gallery")
	ctx := context.Background()

	_, err := svc.Upload(ctx, strings.NewReader("just text"), "a.txt", "", "")
	assert.ErrorIs(t, err, ErrInvalidImage)

	big := append(append([]byte{}, pngHeader...), make([]byte, MaxImageBytes)...)
	_, err = svc.Upload(ctx, bytes.NewReader(big), "big.png", "", "")
	assert.ErrorIs(t, err, ErrImageTooLarge)

	assert.ErrorIs(t, svc.Delete(ctx, "../etc/passwd"), ErrInvalidMediaID)
	assert.ErrorIs(t, svc.Delete(ctx, "/"), ErrInvalidMediaID)
}

func TestMediaService_UploadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	store := newFakeObjectStore()
	svc := NewMediaService(store, "")
	svc.checkAddr = func(netip.AddrPort) error { return nil }
	ctx := context.Background()

	obj, err := svc.UploadFromURL(ctx, UploadByURLInput{
		ImageURL: srv.URL + "/shade.png",
		Tags:     json.RawMessage(`"ten, alat"`),
		Context:  json.RawMessage(`{"shade":"rose"}`),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.PublicID, "shade-"), obj.PublicID)
	assert.Equal(t, []string{"ten", "alat"}, obj.Tags)
	assert.Equal(t, map[string]string{"shade": "rose"}, obj.Context)

	_, err = svc.UploadFromURL(ctx, UploadByURLInput{ImageURL: srv.URL + "/missing.png"})
	assert.ErrorIs(t, err, ErrFetchFailed)

	_, err = svc.UploadFromURL(ctx, UploadByURLInput{ImageURL: "ftp://example.com/a.png"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPublicAddr(t *testing.T) {
	tests := []struct {
		addr    string
		allowed bool
	}{
		{"93.184.216.34:80", true},
		{"[2606:2800:220:1:248:1893:25c8:1946]:443", true},
		{"127.0.0.1:80", false},
		{"10.1.2.3:80", false},
		{"172.16.0.9:80", false},
		{"192.168.1.1:8080", false},
		{"169.254.169.254:80", false},
		{"0.0.0.0:80", false},
		{"[::1]:80", false},
		{"[fe80::1]:80", false},
		{"[fd00::1]:80", false},
		{"[::ffff:127.0.0.1]:80", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := publicAddr(netip.MustParseAddrPort(tt.addr))
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errBlockedAddress)
			}
		})
	}
}

func TestMediaService_UploadFromURL_RefusesInternalHosts(t *testing.T) {
	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		_, _ = w.Write(pngHeader)
	}))
	defer internal.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, internal.URL+"/latest/meta-data", http.StatusFound)
	}))
	defer redirector.Close()

	store := newFakeObjectStore()
	ctx := context.Background()

	t.Run("loopback literal", func(t *testing.T) {
		svc := NewMediaService(store, "")
		_, err := svc.UploadFromURL(ctx, UploadByURLInput{ImageURL: internal.URL + "/a.png"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("metadata address", func(t *testing.T) {
		svc := NewMediaService(store, "")
		_, err := svc.UploadFromURL(ctx, UploadByURLInput{ImageURL: "http://169.254.169.254/latest/meta-data"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("hostname resolving to loopback", func(t *testing.T) {
		u, err := url.Parse(internal.URL)
		require.NoError(t, err)
		svc := NewMediaService(store, "")
		_, err = svc.UploadFromURL(ctx, UploadByURLInput{ImageURL: "http://localhost:" + u.Port() + "/a.png"})
		assert.ErrorIs(t, err, ErrFetchFailed)
	})

	t.Run("redirect to internal host", func(t *testing.T) {
		u, err := url.Parse(redirector.URL)
		require.NoError(t, err)
		port, err := strconv.Atoi(u.Port())
		require.NoError(t, err)

		// Only the redirecting server counts as public here.
		svc := NewMediaService(store, "")
		svc.checkAddr = func(ap netip.AddrPort) error {
			if int(ap.Port()) == port {
				return nil
			}
			return publicAddr(ap)
		}

		_, err = svc.UploadFromURL(ctx, UploadByURLInput{ImageURL: redirector.URL + "/x.png"})
		assert.ErrorIs(t, err, ErrFetchFailed)
	})

	assert.Zero(t, internalHits.Load())
	assert.Empty(t, store.objects)
}
