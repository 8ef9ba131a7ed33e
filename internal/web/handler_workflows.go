package web

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jmhart/boxinv/internal/interchange"
)

const maxArchiveSize = 500 * 1024 * 1024 // 500 MB

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	path, err := s.service.Export(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "export failed")
		s.logger.Error("export failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"archive": path})
}

// stagedImportResponse previews a staged import. When the archive carried no
// metadata the import was already applied and no confirmation is pending.
type stagedImportResponse struct {
	Token    string                `json:"token,omitempty"`
	Applied  bool                  `json:"applied"`
	Metadata *interchange.Metadata `json:"metadata,omitempty"`
}

func (s *Server) handleStageImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxArchiveSize); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("archive")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "archive file required")
		return
	}
	defer file.Close()

	tmpDir, err := os.MkdirTemp("", "boxinv-upload-")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to stage archive")
		s.logger.Error("create upload dir failed", "error", err)
		return
	}
	defer os.RemoveAll(tmpDir)

	archivePath := filepath.Join(tmpDir, filepath.Base(header.Filename))
	dst, err := os.Create(archivePath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to stage archive")
		s.logger.Error("create archive file failed", "error", err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		s.writeError(w, http.StatusInternalServerError, "failed to stage archive")
		s.logger.Error("write archive file failed", "error", err)
		return
	}
	dst.Close()

	pending, err := s.service.StageImport(r.Context(), archivePath)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to stage import")
		s.logger.Error("stage import failed", "error", err)
		return
	}

	// Without metadata there is nothing to preview, so apply immediately.
	if !pending.NeedsConfirmation() {
		if err := s.service.ApplyImport(r.Context(), pending.Token); err != nil {
			s.writeError(w, http.StatusInternalServerError, "import failed")
			s.logger.Error("apply import failed", "error", err)
			return
		}
		s.writeJSON(w, http.StatusOK, stagedImportResponse{Applied: true})
		return
	}

	s.writeJSON(w, http.StatusOK, stagedImportResponse{
		Token:    pending.Token,
		Metadata: pending.Meta,
	})
}

func (s *Server) handleApplyImport(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if err := s.service.ApplyImport(r.Context(), token); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to apply import")
		s.logger.Error("apply import failed", "token", token, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stagedImportResponse{Applied: true})
}

func (s *Server) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if err := s.service.CancelImport(token); err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to cancel import")
		s.logger.Error("cancel import failed", "token", token, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	handle, err := s.service.CreateShare(r.Context(), req.Title)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "share failed")
		s.logger.Error("create share failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, handle)
}
