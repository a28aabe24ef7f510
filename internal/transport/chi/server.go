package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moe/internal/credential"
	"github.com/kailas-cloud/moe/internal/domain"
	logpkg "github.com/kailas-cloud/moe/internal/logger"
	"github.com/kailas-cloud/moe/internal/metrics"
	"github.com/kailas-cloud/moe/internal/parser"
	"github.com/kailas-cloud/moe/internal/usecase/analyze"
	"github.com/kailas-cloud/moe/internal/usecase/assistant"
	healthuc "github.com/kailas-cloud/moe/internal/usecase/health"
)

const (
	defaultMaxUploadBytes = parser.DefaultMaxBytes
	// multipartOverhead leaves room for boundaries and headers around the file part.
	multipartOverhead = 1 << 20
	maxJSONBodyBytes  = 1 << 20
)

// errorMapping maps a domain sentinel to its HTTP status and code.
type errorMapping struct {
	sentinel error
	status   int
	code     ErrorCode
}

// Server serves the assistant HTTP API.
type Server struct {
	analyzer       Analyzer
	assistant      Assistant
	knowledge      Knowledge
	credentials    Credentials
	health         HealthChecker
	verifiers      map[string]KeyVerifier
	maxUploadBytes int64
	logger         *zap.Logger
	errorMappings  []errorMapping
}

// NewServer creates an HTTP API server.
func NewServer(
	analyzer Analyzer,
	assistantSvc Assistant,
	knowledgeBase Knowledge,
	credentials Credentials,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analyzer:       analyzer,
		assistant:      assistantSvc,
		knowledge:      knowledgeBase,
		credentials:    credentials,
		health:         health,
		verifiers:      make(map[string]KeyVerifier),
		maxUploadBytes: defaultMaxUploadBytes,
		logger:         logger,
	}
	s.errorMappings = []errorMapping{
		{domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, CodeUnsupportedFormat},
		{domain.ErrParseFailure, http.StatusUnprocessableEntity, CodeParseFailure},
		{domain.ErrCorruptedFile, http.StatusUnprocessableEntity, CodeCorruptedFile},
		{domain.ErrMissingCredential, http.StatusPreconditionFailed, CodeMissingCredential},
		{domain.ErrTimeout, http.StatusGatewayTimeout, CodeTimeout},
		{domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider},
		{domain.ErrCompletionProviderError, http.StatusBadGateway, CodeCompletionProvider},
		{domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound},
		{domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed},
	}
	return s
}

// WithVerifier enables key verification on PUT /api/credentials for a provider.
func (s *Server) WithVerifier(provider string, v KeyVerifier) *Server {
	s.verifiers[provider] = v
	return s
}

// WithMaxUploadBytes configures the largest accepted file.
func (s *Server) WithMaxUploadBytes(n int64) *Server {
	if n > 0 {
		s.maxUploadBytes = n
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Post("/files", s.UploadFile)
		r.Post("/chat", s.Chat)

		r.Get("/knowledge", s.GetKnowledge)
		r.Delete("/knowledge", s.ClearKnowledge)
		r.Delete("/knowledge/documents/{id}", s.DeleteChunk)

		r.Get("/credentials", s.GetCredentials)
		r.Put("/credentials", s.PutCredential)
		r.Delete("/credentials", s.DeleteCredential)
	})
}

// UploadFile handles POST /api/files.
func (s *Server) UploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				fmt.Sprintf("file exceeds %d bytes", s.maxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "multipart field \"file\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to read upload")
		return
	}
	// The body limit includes multipart framing, so the file itself is checked here.
	if int64(len(data)) > s.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
			fmt.Sprintf("file exceeds %d bytes", s.maxUploadBytes))
		return
	}

	r = r.WithContext(logpkg.With(r.Context(), zap.String("file", header.Filename)))
	ctx, usage := domain.NewContextWithUsage(r.Context())
	a, err := s.analyzer.Analyze(ctx, analyze.Upload{Name: header.Filename, Data: data})
	if err != nil {
		if a.ID != "" {
			// Parse failures still carry an ERROR record to render.
			resp := analysisToResponse(&a)
			s.handleDomainErrorWith(w, r, err, &resp)
			return
		}
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, analysisToResponse(&a))
}

// Chat handles POST /api/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ans, err := s.assistant.Answer(ctx, assistant.Question{
		Query:   req.Query,
		Mission: assistant.Mission(req.Mission),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, answerToResponse(&ans))
}

// GetKnowledge handles GET /api/knowledge.
func (s *Server) GetKnowledge(w http.ResponseWriter, _ *http.Request) {
	st := s.analyzer.Stats()
	sources := s.knowledge.Sources()
	files := make([]FileChunkCount, len(sources))
	for i, src := range sources {
		files[i] = FileChunkCount{FileName: src.FileName, Chunks: src.Chunks}
	}
	writeJSON(w, http.StatusOK, KnowledgeResponse{
		DocumentsProcessed: st.DocumentsProcessed,
		LastProcessedFile:  st.LastProcessedFile,
		ChunkCount:         s.knowledge.Count(),
		Files:              files,
	})
}

// ClearKnowledge handles DELETE /api/knowledge.
func (s *Server) ClearKnowledge(w http.ResponseWriter, _ *http.Request) {
	s.knowledge.Clear()
	s.analyzer.ResetStats()
	metrics.KnowledgeChunks.Set(0)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteChunk handles DELETE /api/knowledge/documents/{id}.
func (s *Server) DeleteChunk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.knowledge.Delete(id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	metrics.KnowledgeChunks.Set(float64(s.knowledge.Count()))
	w.WriteHeader(http.StatusNoContent)
}

// GetCredentials handles GET /api/credentials.
func (s *Server) GetCredentials(w http.ResponseWriter, _ *http.Request) {
	statuses := s.credentials.Status()
	providers := make([]CredentialStatus, len(statuses))
	for i, st := range statuses {
		providers[i] = CredentialStatus{Provider: st.Provider, Configured: st.Configured}
	}
	writeJSON(w, http.StatusOK, CredentialsResponse{Providers: providers})
}

// PutCredential handles PUT /api/credentials.
func (s *Server) PutCredential(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !credential.Known(req.Provider) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, fmt.Sprintf("unknown provider %q", req.Provider))
		return
	}

	if v, ok := s.verifiers[req.Provider]; ok && req.Verify {
		if err := v.Verify(r.Context(), req.APIKey); err != nil {
			if rejectedKey(err) {
				writeError(w, http.StatusBadRequest, CodeInvalidAPIKey, "Invalid API key. Please check and try again.")
				return
			}
			s.handleDomainError(w, r, err)
			return
		}
	}

	if err := s.credentials.Set(req.Provider, req.APIKey); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	logpkg.FromContextOr(r.Context(), s.logger).Info("credential stored",
		zap.String("provider", req.Provider), zap.Bool("verified", req.Verify))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCredential handles DELETE /api/credentials?provider=...
func (s *Server) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if !credential.Known(provider) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, fmt.Sprintf("unknown provider %q", provider))
		return
	}
	s.credentials.Clear(provider)
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health. ?deep=true also calls the provider.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	deep, _ := strconv.ParseBool(r.URL.Query().Get("deep"))
	report := s.health.Check(r.Context(), deep)

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	if usage == nil || !usage.Used {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.CompletionTokens))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// rejectedKey reports whether the provider refused the credential itself.
func rejectedKey(err error) bool {
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden
}

// clientMessage returns a message safe to show the caller: parser and provider
// explanations are kept, anything unclassified collapses to "internal error".
func clientMessage(err error) string {
	var perr *parser.Error
	if errors.As(err, &perr) {
		if perr.Details != "" {
			return perr.Message + ": " + perr.Details
		}
		return perr.Message
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	sentinels := []error{
		domain.ErrUnsupportedFormat,
		domain.ErrParseFailure,
		domain.ErrCorruptedFile,
		domain.ErrMissingCredential,
		domain.ErrTimeout,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
		domain.ErrDocumentNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	return "internal error"
}

func (s *Server) resolveError(ctx context.Context, err error) (int, ErrorResponse) {
	log := logpkg.FromContextOr(ctx, s.logger)
	for _, m := range s.errorMappings {
		if errors.Is(err, m.sentinel) {
			log.Warn("domain error", zap.Error(err))
			return m.status, ErrorResponse{Code: m.code, Message: clientMessage(err)}
		}
	}
	log.Error("internal error", zap.Error(err))
	return http.StatusInternalServerError, ErrorResponse{Code: CodeInternalError, Message: "internal error"}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := s.resolveError(r.Context(), err)
	writeJSON(w, status, body)
}

// handleDomainErrorWith maps err like handleDomainError and attaches the partial analysis.
func (s *Server) handleDomainErrorWith(
	w http.ResponseWriter, r *http.Request, err error, analysis *AnalysisResponse,
) {
	status, body := s.resolveError(r.Context(), err)
	body.Analysis = analysis
	writeJSON(w, status, body)
}
