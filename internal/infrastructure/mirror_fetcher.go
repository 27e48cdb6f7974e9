package infrastructure

import (
	"context"
	"strconv"
	"time"

	"github.com/yourusername/osz-extract-go/internal/domain"
	"go.uber.org/zap"
)

// FetchedArchive is the raw archive body returned by the first mirror that succeeded
type FetchedArchive struct {
	Source string
	URL    string
	Data   []byte
}

// MirrorFetcher tries each mirror in priority order until one returns a body
type MirrorFetcher struct {
	registry  *domain.MirrorRegistry
	transport Transport
	timeout   time.Duration
	logger    *zap.Logger
}

// NewMirrorFetcher creates a new mirror fetcher
func NewMirrorFetcher(registry *domain.MirrorRegistry, transport Transport, timeout time.Duration, logger *zap.Logger) *MirrorFetcher {
	return &MirrorFetcher{
		registry:  registry,
		transport: transport,
		timeout:   timeout,
		logger:    logger,
	}
}

// Fetch downloads the archive for contentID.
// Per-mirror failures are logged and skipped; when every mirror fails the
// returned error is *domain.AllSourcesExhaustedError.
func (f *MirrorFetcher) Fetch(ctx context.Context, contentID int, accessToken string) (*FetchedArchive, error) {
	attempts := f.registry.Attempts(contentID, accessToken)
	failures := make([]domain.SourceFailure, 0, len(attempts))

	for _, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := f.try(ctx, attempt, accessToken)
		if err == nil {
			mirrorAttemptsTotal.WithLabelValues(attempt.Source.Name, "success").Inc()
			fetchedBytesTotal.Add(float64(len(data)))
			f.logger.Info("Archive fetched",
				zap.Int("content_id", contentID),
				zap.String("source", attempt.Source.Name),
				zap.Int("bytes", len(data)))
			return &FetchedArchive{Source: attempt.Source.Name, URL: attempt.URL, Data: data}, nil
		}

		// The caller gave up; this is not a mirror failure
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		mirrorAttemptsTotal.WithLabelValues(attempt.Source.Name, outcomeLabel(err)).Inc()
		f.logger.Warn("Mirror attempt failed",
			zap.Int("content_id", contentID),
			zap.String("source", attempt.Source.Name),
			zap.String("url", attempt.URL),
			zap.Error(err))
		failures = append(failures, domain.SourceFailure{Source: attempt.Source.Name, Err: err})
	}

	return nil, &domain.AllSourcesExhaustedError{Failures: failures}
}

func (f *MirrorFetcher) try(ctx context.Context, attempt domain.AttemptDescriptor, accessToken string) ([]byte, error) {
	if attempt.Source.RequiresAuth && accessToken == "" {
		return nil, &domain.AuthMissingError{Source: attempt.Source.Name}
	}

	attemptCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	status, data, err := f.transport.Get(attemptCtx, attempt.URL, attempt.Headers)
	mirrorFetchDuration.WithLabelValues(attempt.Source.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &domain.NetworkError{Source: attempt.Source.Name, Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &domain.HTTPStatusError{Source: attempt.Source.Name, StatusCode: status}
	}
	if len(data) == 0 {
		return nil, &domain.NetworkError{Source: attempt.Source.Name, Err: domain.ErrEmptyBody}
	}
	return data, nil
}

func outcomeLabel(err error) string {
	switch e := err.(type) {
	case *domain.HTTPStatusError:
		return "http_" + strconv.Itoa(e.StatusCode)
	case *domain.AuthMissingError:
		return "auth_missing"
	default:
		return "network_error"
	}
}
