package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/daloestt55/connecta-sub001/internal/repositories"
)

// StorageHandler exposes the storage buckets: authenticated uploads and
// public reads of the returned URLs.
type StorageHandler struct {
	store   ConversationStore
	objects repositories.ObjectRepository
}

// NewStorageHandler builds a StorageHandler.
func NewStorageHandler(store ConversationStore, objects repositories.ObjectRepository) *StorageHandler {
	return &StorageHandler{store: store, objects: objects}
}

// Upload stores the multipart file and returns its public URL.
func (h *StorageHandler) Upload(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	url, err := h.store.UploadFile(c.Request.Context(), sess, c.Param("bucket"), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		c.JSON(storeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// ServeObject serves stored bytes at their public URL.
func (h *StorageHandler) ServeObject(c *gin.Context) {
	bucket := c.Param("bucket")
	key := strings.TrimPrefix(c.Param("key"), "/")

	obj, err := h.objects.Get(c.Request.Context(), bucket, key)
	if err != nil {
		if errors.Is(err, repositories.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load object"})
		return
	}

	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
