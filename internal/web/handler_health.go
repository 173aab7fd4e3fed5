package web

import (
	"io"
	"net/http"
	"time"

	"github.com/vbonduro/eatai/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

// handleGetIllustration serves a recipe image mirrored into the image store.
func (s *Server) handleGetIllustration(w http.ResponseWriter, r *http.Request) {
	rc, mimeType, err := s.opts.Illustrations.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	if _, err := io.Copy(w, rc); err != nil {
		logging.FromContext(r.Context(), s.logger).Warn("failed to stream illustration", "error", err)
	}
}
