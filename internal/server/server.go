package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kiesman99/retile/internal/api"
	"github.com/kiesman99/retile/internal/grid"
	"github.com/kiesman99/retile/internal/slicer"
	"github.com/kiesman99/retile/internal/stitch"
	"github.com/kiesman99/retile/internal/tilestore"
	"github.com/kiesman99/retile/pkg/tile"
)

// maxUploadBytes caps request bodies carrying images
const maxUploadBytes = 64 << 20

// Options configures the operations the server runs
type Options struct {
	Slice  slicer.Options
	Canvas stitch.Options
	Grid   grid.Options
}

// Server implements api.ServerInterface on top of a shared tile store
type Server struct {
	startTime time.Time
	version   string
	store     tilestore.Store
	opts      Options
}

// NewServer creates a new server instance
func NewServer(version string, store tilestore.Store, opts Options) *Server {
	return &Server{
		startTime: time.Now(),
		version:   version,
		store:     store,
		opts:      opts,
	}
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding health response: %v", err)
	}
}

// SliceSource slices the uploaded image into the store as source index source
func (s *Server) SliceSource(w http.ResponseWriter, r *http.Request, source int) {
	requestID := requestIDFrom(r)

	if source < 0 {
		s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR,
			"source must not be negative", &requestID, nil)
		return
	}

	img, err := readImage(r)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, api.INVALIDIMAGE,
			err.Error(), &requestID, nil)
		return
	}

	coords, err := slicer.New(s.opts.Slice).SliceImage(r.Context(), source, img, s.store)
	if err != nil {
		s.handleOperationError(w, err, &requestID)
		return
	}

	response := api.SliceResponse{
		Source: source,
		Tiles:  make([]api.TileRef, len(coords)),
	}
	for i, c := range coords {
		response.Tiles[i] = api.TileRef{
			Coordinate: api.Coordinate{Source: c.Source, Column: c.Column, Row: c.Row},
			Filename:   c.Filename(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding slice response: %v", err)
	}
}

// GetTile returns one stored tile as PNG
func (s *Server) GetTile(w http.ResponseWriter, r *http.Request, source int, column int, row int) {
	requestID := requestIDFrom(r)

	img, err := s.store.Tile(tile.Coord{Source: source, Column: column, Row: row})
	if err != nil {
		s.handleOperationError(w, err, &requestID)
		return
	}

	s.writePNG(w, img, requestID)
}

// Rearrange composites the requested tiles and returns the canvas as PNG
func (s *Server) Rearrange(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req api.RearrangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return
	}

	if err := validateRearrangeRequest(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR,
			err.Error(), &requestID, nil)
		return
	}

	opts := s.opts.Canvas
	if req.Fill != nil {
		fill, err := tile.ParseColor(*req.Fill)
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR,
				err.Error(), &requestID, nil)
			return
		}
		opts.Fill = fill
	}

	coords := make([]tile.Coord, len(req.Coords))
	for i, c := range req.Coords {
		coords[i] = tile.Coord{Source: c.Source, Column: c.Column, Row: c.Row}
	}

	canvas, err := stitch.NewStitcher(opts).Rearrange(r.Context(), coords, s.store)
	if err != nil {
		s.handleOperationError(w, err, &requestID)
		return
	}

	s.writePNG(w, canvas, requestID)
}

// DrawGrid overlays a grid on the uploaded image and returns it as PNG
func (s *Server) DrawGrid(w http.ResponseWriter, r *http.Request, params api.DrawGridParams) {
	requestID := requestIDFrom(r)

	opts := s.opts.Grid
	if params.Spacing != nil {
		if *params.Spacing <= 0 {
			s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR,
				"spacing must be positive", &requestID, nil)
			return
		}
		opts.Spacing = *params.Spacing
	}
	if params.Color != nil {
		c, err := tile.ParseColor(*params.Color)
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR,
				err.Error(), &requestID, nil)
			return
		}
		opts.Color = c
	}

	img, err := readImage(r)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, api.INVALIDIMAGE,
			err.Error(), &requestID, nil)
		return
	}

	s.writePNG(w, grid.Draw(img, opts), requestID)
}

// InvalidParamHandler maps parameter binding failures to validation errors
func (s *Server) InvalidParamHandler(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestIDFrom(r)
	s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR, err.Error(), &requestID, nil)
}

// validateRearrangeRequest validates the incoming rearrange request
func validateRearrangeRequest(req *api.RearrangeRequest) error {
	if len(req.Coords) == 0 {
		return fmt.Errorf("coords must contain at least one coordinate")
	}
	for i, c := range req.Coords {
		if c.Source < 0 || c.Column < 0 || c.Row < 0 {
			return fmt.Errorf("coords[%d]: fields must not be negative", i)
		}
	}
	return nil
}

// readImage decodes the request body as an image
func readImage(r *http.Request) (image.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return tile.DecodeImage(data)
}

// handleOperationError maps operation errors to HTTP responses
func (s *Server) handleOperationError(w http.ResponseWriter, err error, requestID *string) {
	var boundsErr *slicer.BoundsError

	switch {
	case errors.Is(err, tilestore.ErrTileNotFound):
		s.writeErrorResponse(w, http.StatusNotFound, api.TILENOTFOUND, err.Error(), requestID, nil)
	case errors.As(err, &boundsErr):
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, api.OUTOFBOUNDS, err.Error(), requestID,
			map[string]interface{}{
				"cell":   boundsErr.Cell.String(),
				"bounds": boundsErr.Bounds.String(),
			})
	case errors.Is(err, tile.ErrUnrecognizedFormat):
		s.writeErrorResponse(w, http.StatusBadRequest, api.INVALIDIMAGE, err.Error(), requestID, nil)
	default:
		log.Printf("request %s failed: %v", *requestID, err)
		s.writeErrorResponse(w, http.StatusInternalServerError, api.INTERNALERROR,
			"Internal server error", requestID, nil)
	}
}

// writePNG encodes img and writes it with image headers
func (s *Server) writePNG(w http.ResponseWriter, img image.Image, requestID string) {
	data, err := tile.EncodePNG(img)
	if err != nil {
		s.handleOperationError(w, fmt.Errorf("failed to encode image: %w", err), &requestID)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// requestIDFrom returns the id assigned by the RequestID middleware, or a fresh one
func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
