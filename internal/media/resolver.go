package media

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"time"

	"github.com/mymmrac/telego"
	"go.uber.org/ratelimit"

	"telegram-sync/pkg/telegoapi"
)

const (
	defaultAPIBaseURL = "https://api.telegram.org"
	defaultExtension  = ".jpg"

	// Telegram allows bursts well above this, but file downloads are heavy;
	// same pacing the bot uses for its API calls elsewhere.
	fileAPIRatePerSecond = 20

	downloadTimeout = 60 * time.Second
)

// Outcome tags the result of a resolution attempt, so callers can tell
// "no media" from "media present but unmirrored".
type Outcome int

const (
	// OutcomeResolutionFailed means not even a Telegram CDN URL could be
	// obtained; the post proceeds without this media.
	OutcomeResolutionFailed Outcome = iota
	// OutcomeMirrorFailed means the CDN URL resolved but mirroring to durable
	// storage failed; RemoteURL is still usable.
	OutcomeMirrorFailed
	// OutcomeResolved means the file is mirrored and DurableURL is set.
	OutcomeResolved
)

// Resolution is the result of the two-stage media pipeline.
type Resolution struct {
	Outcome    Outcome
	RemoteURL  string
	DurableURL string
}

// Resolved reports whether the file was mirrored to durable storage.
func (r Resolution) Resolved() bool { return r.Outcome == OutcomeResolved }

// URL returns the best available URL: durable when mirrored, the
// time-limited CDN URL otherwise, empty when resolution failed entirely.
func (r Resolution) URL() string {
	if r.Outcome == OutcomeResolved {
		return r.DurableURL
	}
	return r.RemoteURL
}

// Mirror uploads a binary to durable storage and returns its public URL.
type Mirror interface {
	Upload(ctx context.Context, data []byte, fileName string) (string, error)
}

// Resolver exchanges Telegram file references for URLs and mirrors the
// binaries best-effort.
type Resolver struct {
	fileAPI    telegoapi.FileAPI
	botToken   string
	mirror     Mirror
	httpClient *http.Client
	limiter    ratelimit.Limiter
	apiBaseURL string
}

// NewResolver creates a media resolver. mirror may be an unconfigured mirror;
// uploads then fail and posts keep their CDN URLs.
func NewResolver(fileAPI telegoapi.FileAPI, botToken string, mirror Mirror) *Resolver {
	if fileAPI == nil {
		log.Fatal("Media Resolver: file API instance is nil")
	}
	if mirror == nil {
		log.Fatal("Media Resolver: mirror instance is nil")
	}
	return &Resolver{
		fileAPI:    fileAPI,
		botToken:   botToken,
		mirror:     mirror,
		httpClient: &http.Client{Timeout: downloadTimeout},
		limiter:    ratelimit.New(fileAPIRatePerSecond),
		apiBaseURL: defaultAPIBaseURL,
	}
}

// ResolveAndMirror resolves fileID to a CDN URL, then mirrors the binary
// under a year/month-partitioned name derived from postKey. Mirroring
// failure is non-fatal: the CDN URL is retained in the result.
func (r *Resolver) ResolveAndMirror(ctx context.Context, fileID, postKey string) Resolution {
	r.limiter.Take()

	file, err := r.fileAPI.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		log.Printf("Failed to resolve file %s: %v", fileID, err)
		return Resolution{Outcome: OutcomeResolutionFailed}
	}

	remoteURL := fmt.Sprintf("%s/file/bot%s/%s", r.apiBaseURL, r.botToken, file.FilePath)

	data, err := r.download(ctx, remoteURL)
	if err != nil {
		log.Printf("Failed to download file %s: %v", fileID, err)
		return Resolution{Outcome: OutcomeMirrorFailed, RemoteURL: remoteURL}
	}

	ext := path.Ext(file.FilePath)
	if ext == "" {
		ext = defaultExtension
	}
	fileName := fmt.Sprintf("post_%s%s", postKey, ext)

	durableURL, err := r.mirror.Upload(ctx, data, fileName)
	if err != nil {
		log.Printf("Failed to mirror file %s: %v", fileID, err)
		return Resolution{Outcome: OutcomeMirrorFailed, RemoteURL: remoteURL}
	}

	return Resolution{Outcome: OutcomeResolved, RemoteURL: remoteURL, DurableURL: durableURL}
}

func (r *Resolver) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read download body: %w", err)
	}
	return data, nil
}
