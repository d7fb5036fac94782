package extractor

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestIsTikTokHost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"tiktok.com", true},
		{"www.tiktok.com", true},
		{"vm.tiktok.com", true},
		{"vt.tiktok.com", true},
		{"m.tiktok.com", true},
		{"TikTok.com", true},
		{"example.com", false},
		{"eviltiktok.com", false},
		{"tiktok.com.evil.org", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := IsTikTokHost(tt.host); got != tt.expected {
				t.Errorf("IsTikTokHost(%q) = %v; want %v", tt.host, got, tt.expected)
			}
		})
	}
}

func TestExtractPostID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "Canonical video URL",
			url:      "https://www.tiktok.com/@user/video/7301234567890123456",
			expected: "7301234567890123456",
		},
		{
			name:     "Photo post URL",
			url:      "https://www.tiktok.com/@user/photo/7301234567890123456",
			expected: "7301234567890123456",
		},
		{
			name:     "Legacy /v/ URL",
			url:      "https://m.tiktok.com/v/7301234567890123456",
			expected: "7301234567890123456",
		},
		{
			name:     "Short link has no ID",
			url:      "https://vt.tiktok.com/ZS8abc123/",
			expected: "",
		},
		{
			name:     "Non-numeric segment",
			url:      "https://www.tiktok.com/@user/video/abc",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPostID(tt.url); got != tt.expected {
				t.Errorf("extractPostID(%q) = %q; want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestNormalizeRejectsNonTikTok(t *testing.T) {
	e := &TikTokExtractor{}

	tests := []struct {
		name  string
		input string
	}{
		{"Plain text", "hello there"},
		{"Other video site", "https://www.youtube.com/watch?v=abc"},
		{"Look-alike domain", "https://eviltiktok.com/video/123"},
		{"Empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Normalize(tt.input)
			var exErr *ExtractError
			if !errors.As(err, &exErr) {
				t.Fatalf("Normalize(%q) error = %v; want *ExtractError", tt.input, err)
			}
			if exErr.Code != ErrorInvalidURL {
				t.Errorf("error code = %q; want %q", exErr.Code, ErrorInvalidURL)
			}
		})
	}
}

func TestNormalizeCanonicalURL(t *testing.T) {
	e := &TikTokExtractor{}

	tests := []struct {
		name     string
		input    string
		wantID   string
		wantKind Kind
	}{
		{
			name:     "Video URL in surrounding text",
			input:    "check this out https://www.tiktok.com/@user/video/7301234567890123456 lol",
			wantID:   "7301234567890123456",
			wantKind: KindVideo,
		},
		{
			name:     "Photo post",
			input:    "https://www.tiktok.com/@user/photo/7301234567890123456",
			wantID:   "7301234567890123456",
			wantKind: KindPhoto,
		},
		{
			name:     "Bare link without scheme",
			input:    "www.tiktok.com/@user/video/42",
			wantID:   "42",
			wantKind: KindVideo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			norm, err := e.Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.input, err)
			}
			if norm.ID != tt.wantID {
				t.Errorf("ID = %q; want %q", norm.ID, tt.wantID)
			}
			if norm.Kind != tt.wantKind {
				t.Errorf("Kind = %q; want %q", norm.Kind, tt.wantKind)
			}
		})
	}
}

func TestResolveRedirect(t *testing.T) {
	const canonical = "https://www.tiktok.com/@user/video/7301234567890123456"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, canonical+"?_r=1&_t=xyz", http.StatusMovedPermanently)
	}))
	defer ts.Close()

	e := &TikTokExtractor{}
	got, err := e.resolveRedirect(ts.URL + "/ZS8abc123/")
	if err != nil {
		t.Fatalf("resolveRedirect error: %v", err)
	}
	if got != canonical {
		t.Errorf("resolved = %q; want %q (tracking params stripped)", got, canonical)
	}
}

func TestResolveRedirectNoHop(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	e := &TikTokExtractor{}
	got, err := e.resolveRedirect(ts.URL + "/already/canonical")
	if err != nil {
		t.Fatalf("resolveRedirect error: %v", err)
	}
	if got != ts.URL+"/already/canonical" {
		t.Errorf("resolved = %q; want input returned unchanged", got)
	}
}

func TestResolveRedirectLeavingTikTok(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://evil.example.com/video/1", http.StatusFound)
	}))
	defer ts.Close()

	e := &TikTokExtractor{}
	if _, err := e.resolveRedirect(ts.URL); err == nil {
		t.Fatal("expected error for redirect leaving tiktok.com, got nil")
	}
}

func testNorm() *NormalizedURL {
	return &NormalizedURL{
		URL:  "https://www.tiktok.com/@user/video/7301234567890123456",
		ID:   "7301234567890123456",
		Kind: KindVideo,
	}
}

func TestExtractPrefersHD(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("bad form: %v", err)
		}
		if r.FormValue("hd") != "1" {
			t.Errorf("hd param = %q; want \"1\"", r.FormValue("hd"))
		}
		fmt.Fprint(w, `{"code":0,"data":{"id":"7301234567890123456","title":"a video","hdplay":"http://cdn/hd.mp4","play":"http://cdn/sd.mp4","duration":12,"author":{"nickname":"someone"}}}`)
	}))
	defer primary.Close()

	e := &TikTokExtractor{}
	e.SetEndpoints(primary.URL, "")

	media, err := e.ExtractNormalized(testNorm())
	if err != nil {
		t.Fatalf("ExtractNormalized error: %v", err)
	}

	video, ok := media.(*VideoMedia)
	if !ok {
		t.Fatalf("media type = %T; want *VideoMedia", media)
	}
	if video.Source != SourceTikWM {
		t.Errorf("Source = %q; want %q", video.Source, SourceTikWM)
	}
	if len(video.Formats) != 2 {
		t.Fatalf("len(Formats) = %d; want 2", len(video.Formats))
	}
	if video.Formats[0].URL != "http://cdn/hd.mp4" || video.Formats[0].Quality != "HD" {
		t.Errorf("Formats[0] = %+v; want the HD variant first", video.Formats[0])
	}
}

func TestExtractPhotoOrderPreserved(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"data":{"id":"1","title":"carousel","images":["http://cdn/1.jpg","http://cdn/2.png","http://cdn/3.webp"]}}`)
	}))
	defer primary.Close()

	e := &TikTokExtractor{}
	e.SetEndpoints(primary.URL, "")

	media, err := e.ExtractNormalized(testNorm())
	if err != nil {
		t.Fatalf("ExtractNormalized error: %v", err)
	}

	imgs, ok := media.(*ImageMedia)
	if !ok {
		t.Fatalf("media type = %T; want *ImageMedia", media)
	}
	want := []Image{
		{URL: "http://cdn/1.jpg", Ext: "jpg"},
		{URL: "http://cdn/2.png", Ext: "png"},
		{URL: "http://cdn/3.webp", Ext: "webp"},
	}
	if len(imgs.Images) != len(want) {
		t.Fatalf("len(Images) = %d; want %d", len(imgs.Images), len(want))
	}
	for i := range want {
		if imgs.Images[i] != want[i] {
			t.Errorf("Images[%d] = %+v; want %+v", i, imgs.Images[i], want[i])
		}
	}
}

func TestExtractFallsBackOnPrimaryFailure(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("video_id") != "7301234567890123456" {
			t.Errorf("video_id = %q; want the post ID", r.URL.Query().Get("video_id"))
		}
		w.Write(make([]byte, 4096))
	}))
	defer fallback.Close()

	e := &TikTokExtractor{}
	e.SetEndpoints(primary.URL, fallback.URL)

	media, err := e.ExtractNormalized(testNorm())
	if err != nil {
		t.Fatalf("ExtractNormalized error: %v", err)
	}

	video, ok := media.(*VideoMedia)
	if !ok {
		t.Fatalf("media type = %T; want *VideoMedia", media)
	}
	if video.Source != SourceTikTokAPI {
		t.Errorf("Source = %q; want %q", video.Source, SourceTikTokAPI)
	}
	if len(video.Formats) != 1 {
		t.Fatalf("len(Formats) = %d; want 1", len(video.Formats))
	}
}

func TestExtractBothAPIsFail(t *testing.T) {
	tests := []struct {
		name    string
		primary http.HandlerFunc
	}{
		{
			name: "Primary 500",
			primary: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "Primary malformed JSON",
			primary: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "<html>not json</html>")
			},
		},
		{
			name: "Primary error code",
			primary: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"code":-1,"msg":"url invalid"}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := httptest.NewServer(tt.primary)
			defer primary.Close()

			// Play endpoint answers 200 with a tiny error page
			fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "item doesn't exist")
			}))
			defer fallback.Close()

			e := &TikTokExtractor{}
			e.SetEndpoints(primary.URL, fallback.URL)

			_, err := e.ExtractNormalized(testNorm())
			var exErr *ExtractError
			if !errors.As(err, &exErr) {
				t.Fatalf("error = %v; want *ExtractError", err)
			}
			if exErr.Code != ErrorAPIFailure {
				t.Errorf("error code = %q; want %q", exErr.Code, ErrorAPIFailure)
			}
		})
	}
}

func TestFallbackRefusesPhotoPosts(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()

	e := &TikTokExtractor{}
	e.SetEndpoints(primary.URL, "http://127.0.0.1:0/unused")

	norm := testNorm()
	norm.Kind = KindPhoto

	_, err := e.ExtractNormalized(norm)
	var exErr *ExtractError
	if !errors.As(err, &exErr) || exErr.Code != ErrorAPIFailure {
		t.Fatalf("error = %v; want api_failure", err)
	}
}

func TestExtractNormalizedConcurrent(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"data":{"id":"1","title":"clip","hdplay":"http://cdn/hd.mp4"}}`)
	}))
	defer primary.Close()

	e := NewTikTok()
	e.SetEndpoints(primary.URL, "")

	// One extractor instance shared across goroutines, as the bot runtime
	// shares it across per-message handlers
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.ExtractNormalized(testNorm()); err != nil {
				t.Errorf("ExtractNormalized error: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestFallbackProbeRangedRequest(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Range"); got != "bytes=0-1000" {
			t.Errorf("Range = %q; want bytes=0-1000", got)
		}
		// Honor the range: only the probe window crosses the wire
		w.Header().Set("Content-Range", "bytes 0-1000/4096000")
		w.WriteHeader(http.StatusPartialContent)
		w.Write(make([]byte, 1001))
	}))
	defer fallback.Close()

	e := NewTikTok()
	e.SetEndpoints(primary.URL, fallback.URL)

	media, err := e.ExtractNormalized(testNorm())
	if err != nil {
		t.Fatalf("ExtractNormalized error: %v", err)
	}
	video, ok := media.(*VideoMedia)
	if !ok {
		t.Fatalf("media type = %T; want *VideoMedia", media)
	}
	if video.Source != SourceTikTokAPI {
		t.Errorf("Source = %q; want %q", video.Source, SourceTikTokAPI)
	}
}

func TestFindLink(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "URL in surrounding text",
			input:    "look https://www.tiktok.com/@u/video/1 wow",
			expected: "https://www.tiktok.com/@u/video/1",
		},
		{
			name:     "Bare link without scheme",
			input:    "vm.tiktok.com/ZS8abc/",
			expected: "https://vm.tiktok.com/ZS8abc/",
		},
		{"Plain text", "hello there", ""},
		{"Empty", "", ""},
		{"No dot", "notaurl", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindLink(tt.input); got != tt.expected {
				t.Errorf("FindLink(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRegistryMatch(t *testing.T) {
	tests := []struct {
		url  string
		want string // extractor name, "" for nil
	}{
		{"https://www.tiktok.com/@user/video/1", "tiktok"},
		{"https://vt.tiktok.com/ZS8abc123/", "tiktok"},
		{"https://vm.tiktok.com/xyz/", "tiktok"},
		{"https://example.com/video/1", ""},
		{"not a url at all", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			e := Match(tt.url)
			got := ""
			if e != nil {
				got = e.Name()
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %q; want %q", tt.url, got, tt.want)
			}
		})
	}
}
