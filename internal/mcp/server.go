package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/acordkit/acord-extract/internal/config"
	"github.com/acordkit/acord-extract/internal/extraction"
	"github.com/acordkit/acord-extract/internal/history"
	"github.com/acordkit/acord-extract/internal/pdf"
	"github.com/acordkit/acord-extract/internal/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *extraction.Service
	registry  *registry.Registry
	validator *pdf.UploadValidator
	verifier  extraction.AuthVerifier
	history   *history.MemorySink
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *extraction.Service, reg *registry.Registry, sink *history.MemorySink) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		service:   svc,
		registry:  reg,
		validator: pdf.NewUploadValidator(cfg.MaxFileSize, cfg.MaxPageCount),
		verifier:  extraction.LocalVerifier{},
		history:   sink,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Register extract file tool
	extractFileTool := mcp.NewTool(
		"acord_extract_file",
		mcp.WithDescription("Extract structured application fields from an ACORD commercial insurance PDF"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(extractFileTool, s.handleExtractFile)

	// Register validate file tool
	validateFileTool := mcp.NewTool(
		"acord_validate_file",
		mcp.WithDescription("Check whether a file is an acceptable upload: a readable PDF within the size and page limits"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
	)
	s.mcpServer.AddTool(validateFileTool, s.handleValidateFile)

	// Register registry info tool
	registryInfoTool := mcp.NewTool(
		"acord_registry_info",
		mcp.WithDescription("List the canonical fields, label synonyms, and value types the extractor recognizes"),
	)
	s.mcpServer.AddTool(registryInfoTool, s.handleRegistryInfo)

	// Register history tool
	historyTool := mcp.NewTool(
		"acord_history",
		mcp.WithDescription("List the extraction requests recorded for the current identity, oldest first"),
	)
	s.mcpServer.AddTool(historyTool, s.handleHistory)

	// Register server info tool
	serverInfoTool := mcp.NewTool(
		"acord_server_info",
		mcp.WithDescription("Get server information, configured limits, and usage guidance"),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	upload, err := uploadFromPath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	identity, err := s.verifier.Verify(ctx, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("authentication failed: %v", err)), nil
	}

	doc, err := s.service.Extract(ctx, identity, upload)
	if err != nil {
		return s.documentErrorResult(err), nil
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode document: %v", err)), nil
	}

	responseText := fmt.Sprintf("Extracted %s\n\n%s\n", upload.Filename, encoded)
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	upload, err := uploadFromPath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pages, err := s.validator.Validate(upload.ContentType, upload.Data)
	if err != nil {
		if docErr, ok := pdf.AsDocumentError(err); ok {
			responseText := fmt.Sprintf("Validation failed for %s: [%s] %s", path, docErr.Kind, docErr.Message)
			return mcp.NewToolResultText(responseText), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("PDF file %s is valid: %d page(s), %d bytes", path, pages, len(upload.Data))
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleRegistryInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("Field registry: %d canonical field(s)\n", s.registry.Len())
	for _, field := range s.registry.Fields() {
		text += fmt.Sprintf("\n• %s (%s)\n", field.CanonicalName, field.Type)
		text += fmt.Sprintf("  Synonyms: %s\n", strings.Join(field.Synonyms, ", "))
		text += fmt.Sprintf("  Pattern: %s\n", field.Pattern.String())
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleHistory(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.history == nil {
		return mcp.NewToolResultText("History is not enabled on this server"), nil
	}

	identity, err := s.verifier.Verify(ctx, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("authentication failed: %v", err)), nil
	}

	records := s.history.History(identity)
	if len(records) == 0 {
		return mcp.NewToolResultText("No extraction requests recorded yet"), nil
	}

	text := fmt.Sprintf("Recorded %d extraction request(s):\n", len(records))
	for i, rec := range records {
		text += fmt.Sprintf("\n%d. %s at %s\n", i+1, rec.Filename, rec.RequestedAt.Format("2006-01-02 15:04:05 MST"))
		if rec.Error != nil {
			text += fmt.Sprintf("   Failed: [%s] %s\n", rec.Error.Error, rec.Error.Message)
			continue
		}
		found := 0
		for _, result := range rec.Document {
			if result.Found {
				found++
			}
		}
		text += fmt.Sprintf("   Extracted %d of %d field(s)\n", found, len(rec.Document))
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Server Information\n\n", s.config.ServerName, s.config.Version)
	text += "Limits:\n"
	text += fmt.Sprintf("  Max upload size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("  Max page count: %d\n", s.config.MaxPageCount)
	text += fmt.Sprintf("  Line overlap fraction: %.2f\n", s.config.LineOverlapFraction)
	text += fmt.Sprintf("  Confidence floor: %.2f\n", s.config.ConfidenceFloor)

	text += "\nAvailable Tools:\n"
	text += "  • acord_extract_file - extract structured fields from an ACORD application PDF\n"
	text += "  • acord_validate_file - check a file against the upload constraints\n"
	text += "  • acord_registry_info - list the recognized fields and their synonyms\n"
	text += "  • acord_history - list recorded extraction requests\n"
	text += "  • acord_server_info - this information\n"

	text += "\nUsage: call acord_extract_file with the full path to a PDF. The result is a JSON\n"
	text += "document with one entry per canonical field; fields not present in the form are\n"
	text += "reported with found=false rather than omitted.\n"

	return mcp.NewToolResultText(text), nil
}

// documentErrorResult renders a pipeline failure as a tool error carrying the
// machine-readable error payload.
func (s *Server) documentErrorResult(err error) *mcp.CallToolResult {
	docErr, ok := pdf.AsDocumentError(err)
	if !ok {
		return mcp.NewToolResultError(err.Error())
	}

	encoded, marshalErr := json.MarshalIndent(docErr.Payload(), "", "  ")
	if marshalErr != nil {
		return mcp.NewToolResultError(docErr.Error())
	}
	return mcp.NewToolResultError(string(encoded))
}

// uploadFromPath reads a file from disk into an upload, deriving the content
// type from the file extension with a content sniff as fallback.
func uploadFromPath(path string) (extraction.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extraction.Upload{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return extraction.Upload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting ACORD extraction MCP server in stdio mode")
		log.Printf("Registry fields: %d", s.registry.Len())
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// For now, we'll just use stdio mode since the mark3labs library
	// handles the transport differently
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
