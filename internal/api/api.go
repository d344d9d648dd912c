// Package api defines the HTTP surface of the retile server: request and
// response bodies, the ServerInterface the server implements, and a chi
// router that binds path and query parameters before dispatching.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// HealthResponseStatus is the reported service state
type HealthResponseStatus string

const (
	Healthy   HealthResponseStatus = "healthy"
	Unhealthy HealthResponseStatus = "unhealthy"
)

// Error codes used in ErrorResponse.Error
const (
	VALIDATIONERROR = "VALIDATION_ERROR"
	INVALIDIMAGE    = "INVALID_IMAGE"
	TILENOTFOUND    = "TILE_NOT_FOUND"
	OUTOFBOUNDS     = "OUT_OF_BOUNDS"
	INTERNALERROR   = "INTERNAL_ERROR"
)

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status    HealthResponseStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Uptime    *int                 `json:"uptime,omitempty"`
	Version   *string              `json:"version,omitempty"`
}

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Error     string                  `json:"error"`
	Message   string                  `json:"message"`
	RequestId *string                 `json:"request_id,omitempty"`
	Details   *map[string]interface{} `json:"details,omitempty"`
}

// Coordinate defines model for Coordinate.
type Coordinate struct {
	Source int `json:"source"`
	Column int `json:"column"`
	Row    int `json:"row"`
}

// TileRef defines model for TileRef.
type TileRef struct {
	Coordinate
	Filename string `json:"filename"`
}

// SliceResponse defines model for SliceResponse.
type SliceResponse struct {
	Source int       `json:"source"`
	Tiles  []TileRef `json:"tiles"`
}

// RearrangeRequest defines model for RearrangeRequest.
type RearrangeRequest struct {
	Coords []Coordinate `json:"coords"`
	Fill   *string      `json:"fill,omitempty"`
}

// DrawGridParams defines parameters for DrawGrid.
type DrawGridParams struct {
	Spacing *int    `form:"spacing,omitempty" json:"spacing,omitempty"`
	Color   *string `form:"color,omitempty" json:"color,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (POST /sources/{source}/slice)
	SliceSource(w http.ResponseWriter, r *http.Request, source int)
	// (GET /tiles/{source}/{column}/{row})
	GetTile(w http.ResponseWriter, r *http.Request, source int, column int, row int)
	// (POST /rearrange)
	Rearrange(w http.ResponseWriter, r *http.Request)
	// (POST /grid)
	DrawGrid(w http.ResponseWriter, r *http.Request, params DrawGridParams)
}

// MiddlewareFunc wraps a single operation handler
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError is passed to ErrorHandlerFunc when a parameter fails to bind
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.Handler) {
	for _, middleware := range siw.HandlerMiddlewares {
		h = middleware(h)
	}
	h.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) bindPathInt(w http.ResponseWriter, r *http.Request, name string, dest *int) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

// GetHealth operation middleware
func (siw *ServerInterfaceWrapper) GetHealth(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.GetHealth))
}

// SliceSource operation middleware
func (siw *ServerInterfaceWrapper) SliceSource(w http.ResponseWriter, r *http.Request) {
	var source int
	if !siw.bindPathInt(w, r, "source", &source) {
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SliceSource(w, r, source)
	}))
}

// GetTile operation middleware
func (siw *ServerInterfaceWrapper) GetTile(w http.ResponseWriter, r *http.Request) {
	var source, column, row int
	if !siw.bindPathInt(w, r, "source", &source) ||
		!siw.bindPathInt(w, r, "column", &column) ||
		!siw.bindPathInt(w, r, "row", &row) {
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetTile(w, r, source, column, row)
	}))
}

// Rearrange operation middleware
func (siw *ServerInterfaceWrapper) Rearrange(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.Rearrange))
}

// DrawGrid operation middleware
func (siw *ServerInterfaceWrapper) DrawGrid(w http.ResponseWriter, r *http.Request) {
	var params DrawGridParams

	if err := runtime.BindQueryParameter("form", true, false, "spacing", r.URL.Query(), &params.Spacing); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "spacing", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "color", r.URL.Query(), &params.Color); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "color", Err: err})
		return
	}

	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DrawGrid(w, r, params)
	}))
}

// ChiServerOptions configures HandlerWithOptions
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.GetHealth)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/sources/{source}/slice", wrapper.SliceSource)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/tiles/{source}/{column}/{row}", wrapper.GetTile)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/rearrange", wrapper.Rearrange)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/grid", wrapper.DrawGrid)
	})

	return r
}
