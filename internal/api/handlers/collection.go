package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/card-grader/internal/collection"
	"github.com/codyseavey/card-grader/internal/models"
	"github.com/codyseavey/card-grader/internal/services"
	"github.com/codyseavey/card-grader/internal/storage"
)

// Maximum quantity allowed per collection entry
const maxQuantity = 9999

type CollectionHandler struct {
	store     *collection.Store
	bridge    *storage.Bridge
	autosaver *storage.Autosaver
	settings  *services.SettingsService
	snapshots *services.SnapshotService
}

func NewCollectionHandler(store *collection.Store, bridge *storage.Bridge, autosaver *storage.Autosaver, settings *services.SettingsService, snapshots *services.SnapshotService) *CollectionHandler {
	return &CollectionHandler{
		store:     store,
		bridge:    bridge,
		autosaver: autosaver,
		settings:  settings,
		snapshots: snapshots,
	}
}

// entryResponse is a changed entry plus the outcome of the last background save.
type entryResponse struct {
	models.CollectionEntry
	PersistError string `json:"persistError,omitempty"`
}

// persistError reports the most recent failed collection save, or "".
// Mutations commit in memory first; the client shows this so unsaved changes
// are never silent.
func (h *CollectionHandler) persistError() string {
	if h.autosaver == nil {
		return ""
	}
	if err := h.autosaver.LastError(); err != nil {
		return err.Error()
	}
	return ""
}

func (h *CollectionHandler) mutationResult(body gin.H) gin.H {
	if msg := h.persistError(); msg != "" {
		body["persistError"] = msg
	}
	return body
}

// GetCollection lists entries, optionally narrowed by q (name, set or type),
// rarity and condition.
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	st := h.store.Snapshot()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		st = collection.NewState(st.Search(q))
	}

	filters := []struct {
		field collection.Field
		value string
	}{
		{collection.FieldRarity, c.Query("rarity")},
		{collection.FieldCondition, c.Query("condition")},
	}
	for _, f := range filters {
		if f.value == "" {
			continue
		}
		entries, err := st.FilterBy(f.field, f.value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		st = collection.NewState(entries)
	}

	c.JSON(http.StatusOK, st.Entries())
}

func (h *CollectionHandler) AddToCollection(c *gin.Context) {
	var req models.AddToCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Card.ID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card id is required"})
		return
	}

	st, err := h.store.AddLimited(c.Request.Context(), req.Card, maxQuantity)
	if errors.Is(err, collection.ErrQuantityLimit) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity exceeds maximum allowed (9999)"})
		return
	}
	if err != nil {
		storeUnavailable(c, err)
		return
	}

	entry, _ := st.Get(req.Card.ID)
	c.JSON(http.StatusCreated, entryResponse{CollectionEntry: entry, PersistError: h.persistError()})
}

func (h *CollectionHandler) UpdateCollectionItem(c *gin.Context) {
	id := c.Param("id")

	var req models.UpdateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}
	if *req.Quantity > maxQuantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity exceeds maximum allowed (9999)"})
		return
	}

	if _, ok := h.store.Snapshot().Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	st, err := h.store.SetQuantity(c.Request.Context(), id, *req.Quantity)
	if err != nil {
		storeUnavailable(c, err)
		return
	}

	entry, ok := st.Get(id)
	if !ok {
		c.JSON(http.StatusOK, h.mutationResult(gin.H{"message": "removed"}))
		return
	}
	c.JSON(http.StatusOK, entryResponse{CollectionEntry: entry, PersistError: h.persistError()})
}

// DeleteCollectionItem removes an entry. Deleting an unknown id succeeds.
func (h *CollectionHandler) DeleteCollectionItem(c *gin.Context) {
	if _, err := h.store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		storeUnavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, h.mutationResult(gin.H{"message": "deleted"}))
}

// ImportCollection merges previously exported entries into the collection.
func (h *CollectionHandler) ImportCollection(c *gin.Context) {
	var req models.ImportCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.store.Import(c.Request.Context(), req.Entries)
	if err != nil {
		storeUnavailable(c, err)
		return
	}

	log.Printf("Collection: imported %d entries (%d unique cards now)", len(req.Entries), st.UniqueCount())
	c.JSON(http.StatusOK, h.mutationResult(gin.H{
		"imported": len(req.Entries),
		"stats":    st.Stats(),
	}))
}

func (h *CollectionHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot().Stats())
}

// GetDistribution counts cards (weighted by quantity) per rarity or condition.
func (h *CollectionHandler) GetDistribution(c *gin.Context) {
	field, err := collection.ParseField(c.Param("field"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dist, err := h.store.Snapshot().DistributionBy(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dist)
}

// GetValueHistory returns daily value snapshots for period (week, month, 3month, year, all).
func (h *CollectionHandler) GetValueHistory(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "value history is not available"})
		return
	}

	period := c.DefaultQuery("period", "month")
	snapshots, err := h.snapshots.GetHistory(period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ValueHistoryResponse{
		Snapshots: snapshots,
		Period:    period,
	})
}

// ClearAllData empties the in-memory collection, then wipes the stored
// collection and settings. The autosaver is reset around the wipe so no save
// queued before it lands afterwards.
func (h *CollectionHandler) ClearAllData(c *gin.Context) {
	ctx := c.Request.Context()

	if _, err := h.store.Clear(ctx); err != nil {
		storeUnavailable(c, err)
		return
	}

	clearStored := func() error { return h.bridge.ClearAll(ctx) }
	var err error
	if h.autosaver != nil {
		err = h.autosaver.Reset(clearStored)
	} else {
		err = clearStored()
	}
	if err != nil {
		log.Printf("Collection: clear all failed: %v", err)
		// Memory is already empty; queue it so the stored copy follows once storage recovers.
		if h.autosaver != nil {
			h.autosaver.Notify(h.store.Snapshot())
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear data"})
		return
	}

	if h.settings != nil {
		h.settings.Load(ctx)
	}

	c.JSON(http.StatusOK, gin.H{"message": "all data cleared"})
}

func storeUnavailable(c *gin.Context, err error) {
	if errors.Is(err, collection.ErrStoreClosed) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "collection is shutting down"})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
}
