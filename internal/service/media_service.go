package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/glamplanner/internal/domain"
	"github.com/vedran77/glamplanner/internal/metrics"
)

var (
	ErrMediaDisabled  = errors.New("media storage is not configured")
	ErrInvalidImage   = errors.New("not an image")
	ErrImageTooLarge  = errors.New("image too large")
	ErrFetchFailed    = errors.New("fetching remote image failed")
	ErrInvalidMediaID = errors.New("invalid public id")

	errBlockedAddress = errors.New("address is not public")
)

const MaxImageBytes = 10 << 20

// AllowedTags are the product categories an image can be tagged with.
var AllowedTags = []string{"oci", "usne", "ten", "obrve", "alat", "setovi"}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, tags []string, meta map[string]string) error
	Remove(ctx context.Context, key string) error
	URL(key string) string
}

type MediaService struct {
	store  ObjectStore
	folder string
	client *http.Client
	// checkAddr vets every address the URL fetcher connects to, redirects
	// included.
	checkAddr func(netip.AddrPort) error
}

// NewMediaService accepts a nil store; every call then fails with ErrMediaDisabled.
func NewMediaService(store ObjectStore, folder string) *MediaService {
	s := &MediaService{
		store:     store,
		folder:    strings.Trim(folder, "/"),
		checkAddr: publicAddr,
	}
	s.client = s.newFetchClient()
	return s
}

const maxRedirects = 5

// newFetchClient dials only addresses checkAddr accepts. The check runs after
// DNS resolution, so hostnames that resolve to internal addresses and
// redirects towards them are refused as well.
func (s *MediaService) newFetchClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: 5 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			ap, err := netip.ParseAddrPort(address)
			if err != nil {
				return fmt.Errorf("%w: %s", errBlockedAddress, address)
			}
			return s.checkAddr(ap)
		},
	}

	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return fmt.Errorf("redirect to %s is not allowed", req.URL.Scheme)
			}
			return nil
		},
	}
}

// publicAddr refuses loopback, private, link-local, multicast and unspecified
// addresses.
func publicAddr(ap netip.AddrPort) error {
	addr := ap.Addr().Unmap()
	if !addr.IsValid() ||
		addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified() {
		return fmt.Errorf("%w: %s", errBlockedAddress, addr)
	}
	return nil
}

type UploadByURLInput struct {
	ImageURL string          `json:"image_url"`
	Tags     json.RawMessage `json:"tags"`
	Context  json.RawMessage `json:"context"`
}

func (s *MediaService) Enabled() bool {
	return s.store != nil
}

// Upload stores an image read from body. rawTags and rawContext come straight
// from form fields.
func (s *MediaService) Upload(ctx context.Context, body io.Reader, filename, rawTags, rawContext string) (*domain.MediaObject, error) {
	if !s.Enabled() {
		return nil, ErrMediaDisabled
	}

	data, err := readLimited(body)
	if err != nil {
		return nil, err
	}

	obj, err := s.put(ctx, data, filename, ParseTags(rawTags), ParseContext(rawContext))
	if err != nil {
		return nil, err
	}
	metrics.MediaUploads.WithLabelValues("file").Inc()
	return obj, nil
}

func (s *MediaService) UploadFromURL(ctx context.Context, input UploadByURLInput) (*domain.MediaObject, error) {
	if !s.Enabled() {
		return nil, ErrMediaDisabled
	}

	src, err := url.Parse(strings.TrimSpace(input.ImageURL))
	if err != nil || (src.Scheme != "http" && src.Scheme != "https") || src.Hostname() == "" {
		return nil, fmt.Errorf("%w: image_url must be an http(s) URL", ErrInvalidInput)
	}
	if ip, err := netip.ParseAddr(src.Hostname()); err == nil {
		if s.checkAddr(netip.AddrPortFrom(ip, urlPort(src))) != nil {
			return nil, fmt.Errorf("%w: image_url must point to a public host", ErrInvalidInput)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, err
	}

	obj, err := s.put(ctx, data, path.Base(src.Path), parseRawTags(input.Tags), parseRawContext(input.Context))
	if err != nil {
		return nil, err
	}
	metrics.MediaUploads.WithLabelValues("url").Inc()
	return obj, nil
}

func urlPort(u *url.URL) uint16 {
	if p, err := strconv.ParseUint(u.Port(), 10, 16); err == nil {
		return uint16(p)
	}
	if u.Scheme == "https" {
		return 443
	}
	return 80
}

func (s *MediaService) Delete(ctx context.Context, publicID string) error {
	if !s.Enabled() {
		return ErrMediaDisabled
	}

	publicID = strings.Trim(publicID, "/")
	if publicID == "" || strings.Contains(publicID, "..") {
		return ErrInvalidMediaID
	}
	return s.store.Remove(ctx, publicID)
}

func (s *MediaService) put(ctx context.Context, data []byte, filename string, tags []string, meta map[string]string) (*domain.MediaObject, error) {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidImage
	}

	publicID := s.publicID(filename)
	if err := s.store.Put(ctx, publicID, bytes.NewReader(data), int64(len(data)), contentType, tags, meta); err != nil {
		return nil, err
	}

	return &domain.MediaObject{
		SecureURL: s.store.URL(publicID),
		PublicID:  publicID,
		Format:    strings.TrimPrefix(contentType, "image/"),
		Size:      int64(len(data)),
		Tags:      tags,
		Context:   meta,
	}, nil
}

var unsafeName = regexp.MustCompile(`[^a-z0-9_-]+`)

// publicID keeps the file stem readable and appends a short random suffix so
// two uploads with the same name never collide.
func (s *MediaService) publicID(filename string) string {
	stem := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	stem = strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(stem), "-"), "-")
	if stem == "" || stem == "." {
		stem = "image"
	}
	id := stem + "-" + uuid.NewString()[:8]
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	return data, nil
}

// ParseTags accepts a JSON array or a comma separated list. Tags are trimmed,
// lowercased, deduplicated and filtered to AllowedTags.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var src []string
	var arr []any
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		for _, v := range arr {
			src = append(src, fmt.Sprint(v))
		}
	} else {
		src = strings.Split(raw, ",")
	}
	return normalizeTags(src)
}

func parseRawTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseTags(s)
	}
	return ParseTags(string(raw))
}

func normalizeTags(src []string) []string {
	out := []string{}
	for _, t := range src {
		t = strings.ToLower(strings.TrimSpace(t))
		if slices.Contains(AllowedTags, t) && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// ParseContext decodes a JSON object. Anything else yields an empty map.
func ParseContext(raw string) map[string]string {
	out := map[string]string{}
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
		return out
	}
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

func parseRawContext(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return map[string]string{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseContext(s)
	}
	return ParseContext(string(raw))
}
