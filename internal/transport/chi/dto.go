package chi

import (
	"github.com/kailas-cloud/moe/internal/domain/record"
	"github.com/kailas-cloud/moe/internal/usecase/analyze"
	"github.com/kailas-cloud/moe/internal/usecase/assistant"
	"github.com/kailas-cloud/moe/internal/usecase/ingest"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeBadRequest         ErrorCode = "bad_request"
	CodeUnauthorized       ErrorCode = "unauthorized"
	CodeValidationFailed   ErrorCode = "validation_failed"
	CodeUnsupportedFormat  ErrorCode = "unsupported_format"
	CodeParseFailure       ErrorCode = "parse_failure"
	CodeCorruptedFile      ErrorCode = "corrupted_file"
	CodePayloadTooLarge    ErrorCode = "payload_too_large"
	CodeMissingCredential  ErrorCode = "missing_credential"
	CodeInvalidAPIKey      ErrorCode = "invalid_api_key"
	CodeEmbeddingProvider  ErrorCode = "embedding_provider_error"
	CodeCompletionProvider ErrorCode = "completion_provider_error"
	CodeTimeout            ErrorCode = "timeout"
	CodeDocumentNotFound   ErrorCode = "document_not_found"
	CodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Analysis is set when a file failed to parse, so the client can still render it.
	Analysis *AnalysisResponse `json:"analysis,omitempty"`
}

// AnalysisResponse is the result of POST /api/files.
type AnalysisResponse struct {
	ID             string          `json:"id"`
	Record         record.Record   `json:"record"`
	Issues         []string        `json:"issues"`
	Warnings       []string        `json:"warnings"`
	Score          int             `json:"score"`
	IsValid        bool            `json:"is_valid"`
	Status         analyze.Status  `json:"status"`
	Report         string          `json:"report,omitempty"`
	Knowledge      *IngestResponse `json:"knowledge,omitempty"`
	KnowledgeError string          `json:"knowledge_error,omitempty"`
}

// IngestResponse summarizes knowledge ingestion of one file.
type IngestResponse struct {
	TotalChunks int `json:"total_chunks"`
	Added       int `json:"added"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Query   string `json:"query"`
	Mission string `json:"mission,omitempty"`
}

// ChatResponse is the assistant reply.
type ChatResponse struct {
	Answer  string           `json:"answer"`
	Sources []SourceResponse `json:"sources"`
}

// SourceResponse is one retrieved chunk.
type SourceResponse struct {
	ID       string  `json:"id"`
	FileName string  `json:"file_name"`
	Score    float64 `json:"score"`
}

// KnowledgeResponse describes the knowledge base.
type KnowledgeResponse struct {
	DocumentsProcessed int              `json:"documents_processed"`
	LastProcessedFile  string           `json:"last_processed_file,omitempty"`
	ChunkCount         int              `json:"chunk_count"`
	Files              []FileChunkCount `json:"files"`
}

// FileChunkCount is the number of stored chunks from one file.
type FileChunkCount struct {
	FileName string `json:"file_name"`
	Chunks   int    `json:"chunks"`
}

// CredentialRequest is the body of PUT /api/credentials.
type CredentialRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	// Verify checks the key with the provider before storing it.
	Verify bool `json:"verify,omitempty"`
}

// CredentialsResponse lists which providers have a key.
type CredentialsResponse struct {
	Providers []CredentialStatus `json:"providers"`
}

// CredentialStatus never includes the key itself.
type CredentialStatus struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func analysisToResponse(a *analyze.Analysis) AnalysisResponse {
	resp := AnalysisResponse{
		ID:             a.ID,
		Record:         a.Record,
		Issues:         a.Issues,
		Warnings:       a.Warnings,
		Score:          a.Score,
		IsValid:        len(a.Issues) == 0,
		Status:         a.Status,
		Report:         a.Report,
		KnowledgeError: a.KnowledgeError,
	}
	if resp.Issues == nil {
		resp.Issues = []string{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	if a.Knowledge != nil {
		resp.Knowledge = ingestToResponse(a.Knowledge)
	}
	return resp
}

func ingestToResponse(r *ingest.Report) *IngestResponse {
	return &IngestResponse{
		TotalChunks: r.TotalChunks,
		Added:       r.Added,
		Failed:      r.Failed,
		Skipped:     r.Skipped,
	}
}

func answerToResponse(a *assistant.Answer) ChatResponse {
	sources := make([]SourceResponse, len(a.Sources))
	for i, s := range a.Sources {
		sources[i] = SourceResponse{ID: s.ID, FileName: s.FileName, Score: s.Score}
	}
	return ChatResponse{Answer: a.Text, Sources: sources}
}
