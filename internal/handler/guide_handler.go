package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/service"
)

type moveImageRequest struct {
	From *int `json:"from" binding:"required,min=0"`
	To   *int `json:"to" binding:"required,min=0"`
}

// GetDraft обработчик для GET /api/guide/draft - черновик тура гида.
func (h *Handler) GetDraft(c *gin.Context) {
	c.JSON(http.StatusOK, h.TourForm.View(currentUser(c).ID))
}

// UpdateDraft обработчик для PUT /api/guide/draft - сохранить текстовые поля.
func (h *Handler) UpdateDraft(c *gin.Context) {
	var f service.TourFields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.TourForm.UpdateFields(currentUser(c).ID, f))
}

// DiscardDraft обработчик для DELETE /api/guide/draft.
func (h *Handler) DiscardDraft(c *gin.Context) {
	h.TourForm.Discard(currentUser(c).ID)
	c.Status(http.StatusNoContent)
}

// UploadImages обработчик для POST /api/guide/draft/images (multipart, поле images).
// Файлы ставятся в очередь загрузки, ответ содержит слоты с миниатюрами.
func (h *Handler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ожидается multipart/form-data"})
		return
	}
	headers := form.File["images"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Не выбраны файлы"})
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.respondError(c, fmt.Errorf("не удалось открыть %s: %w", fh.Filename, err), nil)
			return
		}
		// на один байт больше лимита, чтобы сервис увидел превышение размера
		data, err := io.ReadAll(io.LimitReader(f, h.maxFileBytes+1))
		f.Close()
		if err != nil {
			h.respondError(c, fmt.Errorf("не удалось прочитать %s: %w", fh.Filename, err), nil)
			return
		}
		files = append(files, service.UploadFile{Name: fh.Filename, Data: data})
	}

	guideID := currentUser(c).ID
	h.TourForm.AddFiles(guideID, files)
	c.JSON(http.StatusAccepted, h.TourForm.View(guideID))
}

// MoveImage обработчик для POST /api/guide/draft/images/move.
func (h *Handler) MoveImage(c *gin.Context) {
	var req moveImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	guideID := currentUser(c).ID
	if err := h.TourForm.Move(guideID, *req.From, *req.To); err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, h.TourForm.View(guideID))
}

// RemoveImage обработчик для DELETE /api/guide/draft/images/:index.
func (h *Handler) RemoveImage(c *gin.Context) {
	index, ok := intParam(c, "index")
	if !ok {
		return
	}
	guideID := currentUser(c).ID
	if err := h.TourForm.Remove(guideID, index); err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, h.TourForm.View(guideID))
}

// SubmitDraft обработчик для POST /api/guide/draft/submit - отправка тура на модерацию.
func (h *Handler) SubmitDraft(c *gin.Context) {
	res, err := h.TourForm.Submit(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, res)
}
