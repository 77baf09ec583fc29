package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orrery-labs/orrery/backend/internal/domain/notebook"
	"github.com/orrery-labs/orrery/backend/internal/shared/id"
	"github.com/orrery-labs/orrery/backend/internal/shared/utils"
)

// ListLibrary walks the library root and returns every stored notebook.
func (h *Handlers) ListLibrary(c *gin.Context) {
	entries, err := h.library.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notebooks": entries,
		"count":     len(entries),
	})
}

// GetLibraryNotebook loads one stored document by name.
func (h *Handlers) GetLibraryNotebook(c *gin.Context) {
	name := c.Param("name")
	if err := utils.ValidateNotebookName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.library.Load(name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// SaveLibraryNotebook snapshots the current workspace under the given name.
func (h *Handlers) SaveLibraryNotebook(c *gin.Context) {
	name := c.Param("name")
	if err := utils.ValidateNotebookName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records := h.store.List()
	if err := h.library.Save(name, notebook.Encode(records)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"saved":   name,
		"windows": len(records),
	})
}

// DeleteLibraryNotebook removes one stored document.
func (h *Handlers) DeleteLibraryNotebook(c *gin.Context) {
	name := c.Param("name")
	if err := utils.ValidateNotebookName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.library.Delete(name); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": name})
}

// ArchiveLibrary bundles every stored notebook into a tar.gz download. The
// bundle is built in memory first so a walk failure never sends a torn
// archive.
func (h *Handlers) ArchiveLibrary(c *gin.Context) {
	var buf bytes.Buffer
	count, err := h.library.Archive(c.Request.Context(), &buf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	name := fmt.Sprintf("orrery-library-%s.tar.gz", id.NewArchiveID())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("X-Notebook-Count", strconv.Itoa(count))
	c.Data(http.StatusOK, "application/gzip", buf.Bytes())
}
