package downloader

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/guiyumin/tikget/internal/extractor"
)

// DefaultUserAgent is the default User-Agent header used for downloads
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const fetchTimeout = 60 * time.Second

// Kind distinguishes the two payload shapes relayed to the chat
type Kind string

const (
	KindVideo  Kind = "video"
	KindPhotos Kind = "photoSet"
)

// Item is a single fetched blob
type Item struct {
	Data []byte
	Ext  string // "mp4", "jpg", ...
}

// Payload is the fully fetched media, held in memory for the single relay.
// Items preserve the order advertised by the API.
type Payload struct {
	Kind      Kind
	Items     []Item
	TotalSize int64
}

// SizeError reports a payload that blew through the size gate
type SizeError struct {
	Fetched int64 // bytes read before aborting
	Limit   int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("payload exceeds %s limit (fetched %s before aborting)",
		FormatBytes(e.Limit), FormatBytes(e.Fetched))
}

// FetchError reports a transient network failure while fetching media bytes
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Downloader fetches media bytes into memory, enforcing a total size gate.
// Safe for concurrent use: all fields are set at construction.
type Downloader struct {
	client *http.Client
	limit  int64
}

// New creates a Downloader with the given total size limit in bytes
func New(limit int64) *Downloader {
	return &Downloader{
		limit: limit,
		client: &http.Client{
			Timeout: fetchTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
	}
}

// Fetch downloads the chosen media content. A video downloads its best
// (first) format; a photo carousel downloads every image in API order.
// Any single fetch failure aborts the whole payload; nothing partial is
// ever returned.
func (d *Downloader) Fetch(m extractor.Media) (*Payload, error) {
	switch media := m.(type) {
	case *extractor.VideoMedia:
		if len(media.Formats) == 0 {
			return nil, &FetchError{Err: fmt.Errorf("video has no formats")}
		}
		best := media.Formats[0]
		data, err := d.fetchOne(best.URL, d.limit)
		if err != nil {
			return nil, err
		}
		ext := best.Ext
		if ext == "" {
			ext = DetectExt(data)
		}
		return &Payload{
			Kind:      KindVideo,
			Items:     []Item{{Data: data, Ext: ext}},
			TotalSize: int64(len(data)),
		}, nil

	case *extractor.ImageMedia:
		items := make([]Item, 0, len(media.Images))
		var total int64
		for _, img := range media.Images {
			data, err := d.fetchOne(img.URL, d.limit-total)
			if err != nil {
				// Re-base partial size errors on the whole payload
				var sizeErr *SizeError
				if errors.As(err, &sizeErr) {
					return nil, &SizeError{Fetched: total + sizeErr.Fetched, Limit: d.limit}
				}
				return nil, err
			}
			ext := img.Ext
			if ext == "" {
				ext = DetectExt(data)
			}
			items = append(items, Item{Data: data, Ext: ext})
			total += int64(len(data))
		}
		return &Payload{Kind: KindPhotos, Items: items, TotalSize: total}, nil

	default:
		return nil, &FetchError{Err: fmt.Errorf("unsupported media type %T", m)}
	}
}

// fetchOne downloads a single URL into memory, aborting as soon as the
// remaining byte budget is exhausted
func (d *Downloader) fetchOne(rawURL string, budget int64) ([]byte, error) {
	if budget <= 0 {
		return nil, &SizeError{Fetched: 0, Limit: d.limit}
	}

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	// Cheap pre-check when the server announces its size
	if resp.ContentLength > budget {
		return nil, &SizeError{Fetched: 0, Limit: d.limit}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, budget+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if int64(len(data)) > budget {
		return nil, &SizeError{Fetched: int64(len(data)), Limit: d.limit}
	}

	return data, nil
}

// FormatBytes renders a byte count for user-facing messages
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
