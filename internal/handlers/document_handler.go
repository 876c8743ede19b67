package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"cime-gpt/internal/models"
	"cime-gpt/internal/services"
)

// ListDocuments godoc
// @Summary List indexed documents
// @Tags documents
// @Produce json
// @Success 200 {array} models.DocumentRef
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/documents [get]
func (h *GatewayHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.backend.ListDocuments(r.Context())
	if err != nil {
		h.sendUpstreamFailure(w, r, err, "Failed to fetch documents")
		return
	}
	if docs == nil {
		docs = []models.DocumentRef{}
	}
	h.sendJSON(w, http.StatusOK, docs)
}

// DeleteDocument godoc
// @Summary Delete a document from the index
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/documents/{id} [delete]
func (h *GatewayHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.sendError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	if err := h.backend.DeleteDocument(r.Context(), id); err != nil {
		var upErr *services.UpstreamError
		if errors.As(err, &upErr) && upErr.Kind == services.ErrorKindStatus {
			msg := "Failed to delete document: " + http.StatusText(upErr.StatusCode)
			if upErr.Message != "" && upErr.Message != http.StatusText(upErr.StatusCode) {
				msg += " - " + upErr.Message
			}
			h.logger.Warn("Backend refused document deletion",
				zap.String("id", id),
				zap.Int("status", upErr.StatusCode))
			h.sendError(w, upErr.StatusCode, msg)
			return
		}
		h.sendUpstreamFailure(w, r, err, "Failed to delete document")
		return
	}

	h.logger.Info("Document deleted", zap.String("id", id))
	h.sendJSON(w, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("Document %s deleted successfully", id),
	})
}

// UploadPDF godoc
// @Summary Upload a PDF
// @Description Streams a PDF of at most 5 MiB to the backend for indexing
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param document_name formData string false "Display name, defaults to the file name"
// @Success 200 {object} models.UploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/upload-pdf [post]
func (h *GatewayHandler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	// multipart framing adds a little on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, models.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(models.MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Size > models.MaxUploadSize {
		h.sendError(w, http.StatusBadRequest, "File size exceeds 5MB limit")
		return
	}

	name := r.FormValue("document_name")
	if name == "" {
		name = header.Filename
	}

	resp, err := h.backend.UploadPDF(r.Context(), header.Filename, name, file)
	if err != nil {
		h.sendUpstreamFailure(w, r, err, "Failed to upload PDF")
		return
	}

	h.logger.Info("PDF uploaded",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size),
		zap.String("id", resp.ID))
	h.sendJSON(w, http.StatusOK, resp)
}

// RebuildIndex godoc
// @Summary Rebuild the search index
// @Tags documents
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/rebuild-index [post]
func (h *GatewayHandler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.RebuildIndex(r.Context()); err != nil {
		h.sendUpstreamFailure(w, r, err, "Failed to rebuild index")
		return
	}
	h.logger.Info("Index rebuilt")
	h.sendJSON(w, http.StatusOK, models.MessageResponse{Message: "Index rebuilt successfully"})
}
