package extractor

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

const (
	// Browser-like User-Agent; TikWM rejects the Go default
	tiktokUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	tikwmAPIURL       = "https://tikwm.com/api/"
	tiktokPlayAPIURL  = "https://api.tiktokv.com/aweme/v1/play/"
	tiktokCanonical   = "tiktok.com"
	redirectTimeout   = 10 * time.Second
	apiTimeout        = 30 * time.Second
	fallbackProbeSize = 1000 // play endpoint returns error pages under ~1KB
)

// Media sources, shown in the upload caption
const (
	SourceTikWM     = "TikWM"
	SourceTikTokAPI = "TikTok API"
)

// Kind distinguishes video posts from photo carousels
type Kind string

const (
	KindVideo Kind = "video"
	KindPhoto Kind = "photo"
)

var (
	// Matches the first URL embedded in free text
	textURLRegex = regexp.MustCompile(`https?://[^\s]+`)

	// Matches the numeric post ID in canonical TikTok URLs
	tiktokIDRegexes = []*regexp.Regexp{
		regexp.MustCompile(`/video/(\d+)`),
		regexp.MustCompile(`/photo/(\d+)`),
		regexp.MustCompile(`/v/(\d+)`),
	}
)

// NormalizedURL is the canonical form of a user-supplied TikTok link
type NormalizedURL struct {
	URL  string // canonical long-form URL
	ID   string // numeric post ID
	Kind Kind
}

// TikTokHosts are the hostnames routed to the TikTok extractor
var TikTokHosts = []string{
	"tiktok.com",
	"vm.tiktok.com",
	"vt.tiktok.com",
	"m.tiktok.com",
}

// TikTokExtractor downloads TikTok posts via the TikWM API, falling back to
// the direct TikTok play endpoint when TikWM is unavailable.
//
// Configuration (SetEndpoints) must happen before the extractor serves
// requests; after that the struct is read-only and safe for concurrent use.
type TikTokExtractor struct {
	client      *http.Client
	tikwmURL    string
	fallbackURL string
}

// NewTikTok returns a TikTok extractor with its own HTTP client
func NewTikTok() *TikTokExtractor {
	return &TikTokExtractor{client: newAPIClient()}
}

// defaultAPIClient serves zero-value extractors. It is built at package init
// and never written afterwards.
var defaultAPIClient = newAPIClient()

func newAPIClient() *http.Client {
	return &http.Client{
		Timeout: apiTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
		},
	}
}

func (e *TikTokExtractor) Name() string {
	return "tiktok"
}

func (e *TikTokExtractor) Match(u *url.URL) bool {
	// Host matching is done by registry
	return true
}

// SetEndpoints overrides the API endpoints (used by config and tests).
// Call before the extractor starts serving requests.
func (e *TikTokExtractor) SetEndpoints(tikwm, fallback string) {
	if tikwm != "" {
		e.tikwmURL = tikwm
	}
	if fallback != "" {
		e.fallbackURL = fallback
	}
}

func (e *TikTokExtractor) httpClient() *http.Client {
	if e.client != nil {
		return e.client
	}
	return defaultAPIClient
}

func (e *TikTokExtractor) endpoints() (string, string) {
	tikwm, fallback := e.tikwmURL, e.fallbackURL
	if tikwm == "" {
		tikwm = tikwmAPIURL
	}
	if fallback == "" {
		fallback = tiktokPlayAPIURL
	}
	return tikwm, fallback
}

// IsTikTokHost reports whether host belongs to tiktok.com, including
// short-link subdomains like vm. and vt.
func IsTikTokHost(host string) bool {
	host = strings.ToLower(host)
	return host == tiktokCanonical || strings.HasSuffix(host, "."+tiktokCanonical)
}

// extractPostID returns the numeric post ID embedded in a TikTok URL,
// or "" when the URL is not in canonical long form
func extractPostID(u string) string {
	for _, re := range tiktokIDRegexes {
		if m := re.FindStringSubmatch(u); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

// Normalize validates free text claiming to contain a TikTok link and
// resolves it to its canonical long form. Short links are resolved by
// following the redirect exactly once.
func (e *TikTokExtractor) Normalize(text string) (*NormalizedURL, error) {
	raw := FindLink(text)
	if raw == "" {
		return nil, invalidURL("no link found in message")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, invalidURL("unparseable link: %v", err)
	}
	if !IsTikTokHost(u.Hostname()) {
		return nil, invalidURL("not a tiktok.com link: %s", u.Hostname())
	}

	canonical := u.String()
	id := extractPostID(canonical)
	if id == "" {
		canonical, err = e.resolveRedirect(canonical)
		if err != nil {
			return nil, invalidURL("could not resolve short link: %v", err)
		}
		if id = extractPostID(canonical); id == "" {
			return nil, invalidURL("no post ID in resolved URL: %s", canonical)
		}
	}

	kind := KindVideo
	if strings.Contains(canonical, "/photo/") {
		kind = KindPhoto
	}

	return &NormalizedURL{URL: canonical, ID: id, Kind: kind}, nil
}

// resolveRedirect follows a short link's redirect exactly one hop and
// returns the target URL. Loops are impossible by construction.
func (e *TikTokExtractor) resolveRedirect(shortURL string) (string, error) {
	client := &http.Client{
		Timeout: redirectTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequest(http.MethodGet, shortURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", tiktokUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	loc := resp.Header.Get("Location")
	if loc == "" {
		// Already canonical, no redirect issued
		return shortURL, nil
	}

	target, err := resp.Request.URL.Parse(loc)
	if err != nil {
		return "", err
	}
	if !IsTikTokHost(target.Hostname()) {
		return "", fmt.Errorf("redirect left tiktok.com: %s", target.Hostname())
	}

	// Strip tracking query params; the post ID lives in the path
	target.RawQuery = ""
	return target.String(), nil
}

// Extract retrieves media from a TikTok URL (or free text containing one)
func (e *TikTokExtractor) Extract(urlStr string) (Media, error) {
	norm, err := e.Normalize(urlStr)
	if err != nil {
		return nil, err
	}
	return e.ExtractNormalized(norm)
}

// ExtractNormalized resolves an already-normalized URL to downloadable media.
// TikWM is tried first; on any failure the direct play endpoint serves as a
// video-only fallback.
func (e *TikTokExtractor) ExtractNormalized(norm *NormalizedURL) (Media, error) {
	media, primaryErr := e.extractTikWM(norm)
	if primaryErr == nil {
		return media, nil
	}

	media, fallbackErr := e.extractPlayFallback(norm)
	if fallbackErr != nil {
		return nil, apiFailure("primary: %v; fallback: %v", primaryErr, fallbackErr)
	}
	return media, nil
}

// tikwmResponse mirrors the TikWM API JSON body
type tikwmResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		ID       string   `json:"id"`
		Title    string   `json:"title"`
		Play     string   `json:"play"`
		HDPlay   string   `json:"hdplay"`
		Images   []string `json:"images"`
		Duration int      `json:"duration"`
		Author   struct {
			UniqueID string `json:"unique_id"`
			Nickname string `json:"nickname"`
		} `json:"author"`
	} `json:"data"`
}

// extractTikWM queries the TikWM API for the post's direct media URLs
func (e *TikTokExtractor) extractTikWM(norm *NormalizedURL) (Media, error) {
	endpoint, _ := e.endpoints()

	form := url.Values{}
	form.Set("url", norm.URL)
	form.Set("hd", "1")

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", tiktokUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://tikwm.com")
	req.Header.Set("Referer", "https://tikwm.com/")

	resp, err := e.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tikwm request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var data tikwmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse tikwm response: %w", err)
	}
	if data.Code != 0 {
		return nil, fmt.Errorf("tikwm returned code %d: %s", data.Code, data.Msg)
	}

	return e.parseTikWMResponse(&data, norm)
}

// parseTikWMResponse maps the API body to media, preferring the HD variant
func (e *TikTokExtractor) parseTikWMResponse(data *tikwmResponse, norm *NormalizedURL) (Media, error) {
	id := data.Data.ID
	if id == "" {
		id = norm.ID
	}
	title := truncateText(data.Data.Title, 100)
	uploader := data.Data.Author.Nickname
	if uploader == "" {
		uploader = data.Data.Author.UniqueID
	}

	// Photo carousel: ordered image list, API order preserved
	if len(data.Data.Images) > 0 {
		images := make([]Image, 0, len(data.Data.Images))
		for _, imgURL := range data.Data.Images {
			images = append(images, Image{URL: imgURL, Ext: imageExtFromURL(imgURL)})
		}
		return &ImageMedia{
			ID:       id,
			Title:    title,
			Uploader: uploader,
			Source:   SourceTikWM,
			Images:   images,
		}, nil
	}

	// Video: HD always preferred over standard when both are advertised
	var formats []VideoFormat
	if data.Data.HDPlay != "" {
		formats = append(formats, VideoFormat{URL: data.Data.HDPlay, Quality: "HD", Ext: "mp4"})
	}
	if data.Data.Play != "" {
		formats = append(formats, VideoFormat{URL: data.Data.Play, Quality: "Standard", Ext: "mp4"})
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no media found in tikwm response")
	}

	return &VideoMedia{
		ID:       id,
		Title:    title,
		Uploader: uploader,
		Duration: data.Data.Duration,
		Source:   SourceTikWM,
		Formats:  formats,
	}, nil
}

// extractPlayFallback builds the direct play URL for the post and probes it.
// The endpoint answers 200 with a small error page for dead posts, so
// anything at or under the probe size is rejected.
func (e *TikTokExtractor) extractPlayFallback(norm *NormalizedURL) (Media, error) {
	if norm.Kind == KindPhoto {
		return nil, fmt.Errorf("play endpoint cannot serve photo posts")
	}
	if norm.ID == "" {
		return nil, fmt.Errorf("no post ID for play endpoint")
	}

	_, endpoint := e.endpoints()

	params := url.Values{}
	params.Set("video_id", norm.ID)
	params.Set("vr_type", "0")
	params.Set("is_play_url", "1")
	params.Set("source", "PackSourceEnum_PUBLISH")
	params.Set("media_id", norm.ID)
	params.Set("ratio", "720p")
	params.Set("line", "0")
	params.Set("file_id", norm.ID)
	params.Set("quality", "720p")
	params.Set("watermark", "0")

	playURL := endpoint + "?" + params.Encode()

	req, err := http.NewRequest(http.MethodGet, playURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", tiktokUserAgent)
	req.Header.Set("Referer", "https://www.tiktok.com/")
	req.Header.Set("X-Requested-With", "com.zhiliaoapp.musically")
	// Only the probe window is needed here; the downloader fetches the full
	// body later. Servers that ignore Range stream normally and the read
	// below is capped anyway.
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", fallbackProbeSize))

	resp, err := e.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("play endpoint returned status %d", resp.StatusCode)
	}

	probe, err := io.ReadAll(io.LimitReader(resp.Body, fallbackProbeSize+1))
	if err != nil {
		return nil, err
	}
	if len(probe) <= fallbackProbeSize {
		return nil, fmt.Errorf("play endpoint returned %d bytes, not a video", len(probe))
	}

	return &VideoMedia{
		ID:     norm.ID,
		Title:  "TikTok Video",
		Source: SourceTikTokAPI,
		Formats: []VideoFormat{
			{URL: playURL, Quality: "720p", Ext: "mp4"},
		},
	}, nil
}

// imageExtFromURL guesses an image extension from the URL path
func imageExtFromURL(imgURL string) string {
	u, err := url.Parse(imgURL)
	if err != nil {
		return "jpg"
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	case ".gif":
		return "gif"
	default:
		return "jpg"
	}
}

func init() {
	Register(NewTikTok(), TikTokHosts...)
}
