// Package mirror copies generated illustrations into an image store and hands
// out references served by this application instead of the upstream URL.
package mirror

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/vbonduro/eatai/internal/assistant"
	"github.com/vbonduro/eatai/internal/domain"
	"github.com/vbonduro/eatai/internal/imagestore"
)

// PathPrefix is where the web server serves mirrored illustrations.
const PathPrefix = "/api/illustrations/"

const maxImageBytes = 10 << 20

type Illustrator struct {
	next   assistant.Illustrator
	store  imagestore.ImageStore
	client *http.Client
}

var _ assistant.Illustrator = (*Illustrator)(nil)

func New(next assistant.Illustrator, store imagestore.ImageStore) *Illustrator {
	return &Illustrator{next: next, store: store, client: &http.Client{}}
}

func (m *Illustrator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	ref, err := m.next.GenerateImage(ctx, prompt)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", fmt.Errorf("%w: invalid illustration url: %w", domain.ErrUpstream, err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to download illustration: %w", domain.ErrUpstream, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close illustration body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: illustration download returned status %d", domain.ErrUpstream, resp.StatusCode)
	}

	mimeType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: illustration has content type %q", domain.ErrUpstream, resp.Header.Get("Content-Type"))
	}

	key, err := m.store.Save(ctx, mimeType, io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to store illustration: %w", err)
	}
	return PathPrefix + key, nil
}
