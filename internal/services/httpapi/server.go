// Package httpapi serves README generation over HTTP.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/readmegen/internal/readme"
)

const (
	defaultListenAddress    = "127.0.0.1:8000"
	defaultShutdownDuration = 5 * time.Second
	maxRequestBodyBytes     = 1 << 20
	headerContentType       = "Content-Type"
	mimeTypeJSON            = "application/json"
	rootPath                = "/"
	// GenerateReadmePath is the README generation endpoint.
	GenerateReadmePath = "/generate-readme"
)

// ReadmeGenerator produces a README for a repository URL.
type ReadmeGenerator interface {
	Generate(ctx context.Context, repositoryURL string) (readme.Result, error)
}

// GenerateReadmeRequest is the body of POST /generate-readme.
type GenerateReadmeRequest struct {
	RepositoryURL string `json:"repo_url"`
}

// GenerateReadmeResponse is the successful response body.
type GenerateReadmeResponse struct {
	Readme string `json:"readme"`
}

// ErrorResponse is the body of every failed response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Config defines runtime options for the HTTP server.
type Config struct {
	Address         string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	Generator       ReadmeGenerator
	Logger          *zap.Logger
}

// Server exposes a ReadmeGenerator over HTTP.
type Server struct {
	config Config
	logger *zap.Logger
}

// NewServer creates a new Server with defaults applied.
func NewServer(config Config) (Server, error) {
	if config.Generator == nil {
		return Server{}, errors.New("http server requires a readme generator")
	}
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if len(normalized.AllowedOrigins) == 0 {
		normalized.AllowedOrigins = []string{allowAllOrigins}
	}
	logger := normalized.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return Server{config: normalized, logger: logger}, nil
}

// Handler returns the routed handler wrapped in CORS and request logging.
func (server Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(GenerateReadmePath, server.handleGenerateReadme)
	router.HandleFunc(rootPath, server.handleRoot)
	return newCORSMiddleware(server.config.AllowedOrigins)(server.logRequests(router))
}

// Run starts the server and blocks until the provided context is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	httpServer := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", serveErr)
		}
		return nil
	})

	server.logger.Info("listening", zap.String("address", actualAddress))
	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown http: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

func (server Server) handleRoot(writer http.ResponseWriter, request *http.Request) {
	if request.URL.Path != rootPath {
		server.writeJSON(writer, http.StatusNotFound, ErrorResponse{Detail: "Not Found"})
		return
	}
	if request.Method != http.MethodGet {
		server.writeJSON(writer, http.StatusMethodNotAllowed, ErrorResponse{Detail: "Method Not Allowed"})
		return
	}
	server.writeJSON(writer, http.StatusOK, map[string]string{"status": "ok"})
}

func (server Server) handleGenerateReadme(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.Header().Set("Allow", http.MethodPost)
		server.writeJSON(writer, http.StatusMethodNotAllowed, ErrorResponse{Detail: "Method Not Allowed"})
		return
	}
	body, readErr := io.ReadAll(http.MaxBytesReader(writer, request.Body, maxRequestBodyBytes))
	if readErr != nil {
		server.writeJSON(writer, http.StatusBadRequest, ErrorResponse{Detail: fmt.Sprintf("read request body: %v", readErr)})
		return
	}
	var payload GenerateReadmeRequest
	if decodeErr := json.Unmarshal(body, &payload); decodeErr != nil {
		server.writeJSON(writer, http.StatusBadRequest, ErrorResponse{Detail: fmt.Sprintf("decode request body: %v", decodeErr)})
		return
	}

	result, generateErr := server.config.Generator.Generate(request.Context(), payload.RepositoryURL)
	if generateErr != nil {
		requestError := readme.Classify(generateErr)
		server.writeJSON(writer, requestError.StatusCode(), ErrorResponse{Detail: requestError.Detail()})
		return
	}
	server.writeJSON(writer, http.StatusOK, GenerateReadmeResponse{Readme: result.Readme})
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := ErrorResponse{Detail: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (recorder *statusRecorder) WriteHeader(statusCode int) {
	recorder.statusCode = statusCode
	recorder.ResponseWriter.WriteHeader(statusCode)
}

func (server Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		startedAt := time.Now()
		recorder := &statusRecorder{ResponseWriter: writer, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, request)
		server.logger.Info("request",
			zap.String("method", request.Method),
			zap.String("path", request.URL.Path),
			zap.Int("status", recorder.statusCode),
			zap.Duration("duration", time.Since(startedAt)),
		)
	})
}
