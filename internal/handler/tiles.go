package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"locator-api/internal/cache"
	"locator-api/internal/fetch"
)

// tileMaxAge matches upstream tile freshness; just under five and a half
// hours.
const tileMaxAge = 19730

// TileHandler proxies OpenStreetMap tiles through the disk cache so the
// public tile servers see each tile at most once per cache lifetime.
type TileHandler struct {
	images  *cache.ImageCache
	fetcher fetch.Fetcher
}

// NewTileHandler creates a new tile proxy.
func NewTileHandler(images *cache.ImageCache, fetcher fetch.Fetcher) *TileHandler {
	return &TileHandler{images: images, fetcher: fetcher}
}

// Tile handles GET /map/tiles/:z/:x/:y requests. Tiles are served with a
// long cache-control header and without range support.
func (h *TileHandler) Tile(c *gin.Context) {
	z, x := c.Param("z"), c.Param("x")
	y := strings.TrimSuffix(c.Param("y"), ".png")
	for _, p := range []string{z, x, y} {
		if _, err := strconv.Atoi(p); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
	}

	url := tileURL(z, x, y)
	name := cache.FileName("tiles", url)

	img, ok := h.images.Read(name)
	if !ok {
		data, err := h.fetcher.Fetch(c.Request.Context(), url)
		if err != nil || len(data) == 0 {
			c.Status(http.StatusBadGateway)
			return
		}
		img = data
		// A failed write just means the next request re-fetches.
		h.images.Put(name, data)
	}

	c.Header("Cache-Control", "max-age="+strconv.Itoa(tileMaxAge))
	c.Header("Accept-Ranges", "none")
	c.Data(http.StatusOK, "image/png", img)
}
