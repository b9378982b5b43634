package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Taichi-iskw/ytshelf/internal/errors"
	"github.com/Taichi-iskw/ytshelf/internal/model"
	"github.com/Taichi-iskw/ytshelf/internal/service/bulk"
)

const userIDHeader = "X-User-ID"

type searchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"userId"`
}

type addRequest struct {
	UserID string              `json:"userId"`
	Songs  []model.VideoRecord `json:"songs"`
}

type idsRequest struct {
	UserID    string   `json:"userId"`
	SongIDs   []string `json:"songIds"`
	SessionID string   `json:"sessionId"`
}

type materializeRequest struct {
	UserID string `json:"userId"`
	SongID string `json:"songId"`
}

type addResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	model.AddResult
}

type downloadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	model.DownloadResult
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	model.DeleteResult
}

type materializeResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	DownloadURL string `json:"download_url"`
	*model.MaterializeResult
}

// userID resolves the caller from the body value, the query string or the header
func userID(c *gin.Context, fromBody string) string {
	if id := strings.TrimSpace(fromBody); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.Query("userId")); id != "" {
		return id
	}
	return strings.TrimSpace(c.GetHeader(userIDHeader))
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.CodeInvalidArg, "invalid request body"))
		return false
	}
	return true
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.deps.Health != nil {
		if err := s.deps.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := s.deps.Search.Search(c.Request.Context(), req.Query, userID(c, req.UserID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListLibrary(c *gin.Context) {
	limit, offset := pagination(c)
	items, err := s.deps.Library.ListLibrary(c.Request.Context(), userID(c, ""), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"songs": items, "page": offset/limit + 1, "limit": limit})
}

func (s *Server) handleListDownloads(c *gin.Context) {
	limit, offset := pagination(c)
	items, err := s.deps.Library.ListDownloads(c.Request.Context(), userID(c, ""), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloads": items, "page": offset/limit + 1, "limit": limit})
}

// handleLibraryVideoIDs never fails: search exclusion must keep working
func (s *Server) handleLibraryVideoIDs(c *gin.Context) {
	id := userID(c, "")
	if id == "" {
		c.JSON(http.StatusOK, gin.H{"videoIds": []string{}})
		return
	}
	ids, err := s.deps.Library.LibraryExternalIDs(c.Request.Context(), id)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("server: library video ids unavailable")
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"videoIds": ids})
}

func (s *Server) handleAdd(c *gin.Context) {
	var req addRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := s.deps.Library.Add(c.Request.Context(), userID(c, req.UserID), req.Songs)
	resp := addResponse{Success: err == nil}
	if result != nil {
		resp.AddResult = *result
		resp.Message = fmt.Sprintf("Added %d %s to your library", result.Added, plural(result.Added, "song"))
		if result.Duplicate > 0 {
			resp.Message += fmt.Sprintf(", %d already existed", result.Duplicate)
		}
	}
	respond(c, resp, resp.Message, err)
}

func (s *Server) handleDownload(c *gin.Context) {
	var req idsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := s.deps.Library.Download(c.Request.Context(), userID(c, req.UserID), req.SongIDs)
	resp := downloadResponse{Success: err == nil}
	if result != nil {
		resp.DownloadResult = *result
		resp.Message = fmt.Sprintf("Downloaded %d %s", result.Downloaded, plural(result.Downloaded, "song"))
		if result.AlreadyDownloaded > 0 {
			resp.Message += fmt.Sprintf(", %d already downloaded", result.AlreadyDownloaded)
		}
		if result.Failed > 0 {
			resp.Message += fmt.Sprintf(", %d failed", result.Failed)
		}
	}
	respond(c, resp, resp.Message, err)
}

func (s *Server) handleRemove(c *gin.Context) {
	s.handleDelete(c, s.deps.Library.RemoveFromLibrary, "from your library")
}

func (s *Server) handleDeleteDownload(c *gin.Context) {
	s.handleDelete(c, s.deps.Library.DeleteDownload, "from your downloads")
}

func (s *Server) handleDeleteCompletely(c *gin.Context) {
	s.handleDelete(c, s.deps.Library.DeleteCompletely, "completely")
}

func (s *Server) handleDelete(c *gin.Context, del deleteFunc, where string) {
	var req idsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := del(c.Request.Context(), userID(c, req.UserID), req.SongIDs)
	resp := deleteResponse{Success: err == nil}
	if result != nil {
		resp.DeleteResult = *result
		resp.Message = fmt.Sprintf("Deleted %d %s %s", result.Deleted, plural(result.Deleted, "song"), where)
		if result.Missing > 0 {
			resp.Message += fmt.Sprintf(", %d not found", result.Missing)
		}
	}
	respond(c, resp, resp.Message, err)
}

func (s *Server) handleMaterialize(c *gin.Context) {
	var req materializeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := s.deps.Library.Materialize(c.Request.Context(), userID(c, req.UserID), req.SongID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := materializeResponse{
		Success:           true,
		Message:           "MP3 file generated and ready for download",
		MaterializeResult: result,
	}
	if result.Reused {
		resp.Message = "File ready for download"
	}
	if result.Download.ArtifactURL != nil {
		resp.DownloadURL = *result.Download.ArtifactURL
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCleanup(c *gin.Context) {
	result, err := s.deps.Library.CleanupArtifacts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         fmt.Sprintf("Cleaned up %d old download files", result.Deleted),
		"deleted_count":   result.Deleted,
		"remaining_files": result.Kept,
	})
}

func (s *Server) handleBulk(c *gin.Context) {
	name := c.Param("operation")
	op, ok := bulk.Lookup(s.deps.Library, name)
	if !ok {
		writeError(c, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("unknown bulk operation %q", name)))
		return
	}

	var req idsRequest
	if !bindJSON(c, &req) {
		return
	}

	summary, err := s.deps.Bulk.Run(c.Request.Context(), op, userID(c, req.UserID), req.SongIDs, req.SessionID)
	if err != nil && summary == nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	c.JSON(status, summary)
}

func (s *Server) handleProgress(c *gin.Context) {
	if s.deps.Progress == nil {
		writeError(c, apperrors.New(apperrors.CodeNotFound, "progress tracking is disabled"))
		return
	}
	session, err := s.deps.Progress.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		writeError(c, err)
		return
	}
	if id := userID(c, ""); id != "" && session.UserID != id {
		writeError(c, apperrors.New(apperrors.CodeNotFound, "progress session not found"))
		return
	}
	c.JSON(http.StatusOK, session)
}

type deleteFunc func(ctx context.Context, userID string, ids []string) (*model.DeleteResult, error)

// respond writes a tally response. The operation ran unless err is set; when
// every item failed the status follows the error code but the tally is kept.
func respond(c *gin.Context, body any, msg string, err error) {
	if err == nil {
		c.JSON(http.StatusOK, body)
		return
	}
	if msg == "" {
		writeError(c, err)
		return
	}
	c.JSON(statusFor(err), body)
}

func pagination(c *gin.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
