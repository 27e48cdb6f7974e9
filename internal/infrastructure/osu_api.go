package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/osz-extract-go/internal/domain"
)

// MaxMetadataBytes caps the beatmapset JSON response
const MaxMetadataBytes = 4 * 1024 * 1024

// beatmapsetResponse is the subset of the osu! API v2 beatmapset object we use
type beatmapsetResponse struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	TitleUnicode  string `json:"title_unicode"`
	Artist        string `json:"artist"`
	ArtistUnicode string `json:"artist_unicode"`
	Creator       string `json:"creator"`
	Covers        struct {
		Card  string `json:"card"`
		Cover string `json:"cover"`
	} `json:"covers"`
}

// BeatmapsetClient looks up beatmapset metadata from the osu! API
type BeatmapsetClient struct {
	baseURL   string
	transport Transport
	timeout   time.Duration
}

// NewBeatmapsetClient creates a new metadata client
func NewBeatmapsetClient(baseURL string, transport Transport, timeout time.Duration) *BeatmapsetClient {
	return &BeatmapsetClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		timeout:   timeout,
	}
}

// Get fetches metadata for a beatmapset. The API requires a bearer token.
func (c *BeatmapsetClient) Get(ctx context.Context, contentID int, accessToken string) (*domain.BeatmapsetMetadata, error) {
	if accessToken == "" {
		return nil, &domain.AuthMissingError{Source: "osu-api"}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+accessToken)
	headers.Set("Accept", "application/json")

	url := fmt.Sprintf("%s/beatmapsets/%d", c.baseURL, contentID)
	status, body, err := c.transport.Get(ctx, url, headers)
	if err != nil {
		return nil, &domain.NetworkError{Source: "osu-api", Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &domain.HTTPStatusError{Source: "osu-api", StatusCode: status}
	}

	var resp beatmapsetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode beatmapset %d: %w", contentID, err)
	}

	return &domain.BeatmapsetMetadata{
		ID:       contentID,
		Title:    firstNonEmpty(resp.TitleUnicode, resp.Title),
		Artist:   firstNonEmpty(resp.ArtistUnicode, resp.Artist, resp.Creator),
		Creator:  resp.Creator,
		CoverURL: firstNonEmpty(resp.Covers.Card, resp.Covers.Cover),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
