package gcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/yungbote/interview-brief-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// Document turns uploaded document bytes into plain text with a Document AI
// OCR processor.
type Document interface {
	ProcessBytes(ctx context.Context, req DocAIProcessBytesRequest) (*DocAIResult, error)
	Close() error
}

type DocAIProcessBytesRequest struct {
	MimeType string
	Data     []byte
}

type DocAIResult struct {
	Processor   string `json:"processor"`
	MimeType    string `json:"mime_type"`
	PrimaryText string `json:"primary_text"`
	Pages       int    `json:"pages"`
}

type documentService struct {
	log       *logger.Logger
	docClient *documentai.DocumentProcessorClient
	processor string
}

// NewDocumentFromEnv returns (nil, nil) when DOCUMENTAI_PROCESSOR_ID is unset;
// uploaded documents then contribute no text.
func NewDocumentFromEnv(log *logger.Logger) (Document, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	processorID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID"))
	if processorID == "" {
		return nil, nil
	}
	project := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROJECT_ID"))
	if project == "" {
		project = strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT"))
	}
	location := strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION"))
	if location == "" {
		location = "us"
	}
	name := processorName(project, location, processorID, os.Getenv("DOCUMENTAI_PROCESSOR_VERSION"))
	if name == "" {
		return nil, fmt.Errorf("DOCUMENTAI_PROJECT_ID required when DOCUMENTAI_PROCESSOR_ID is set")
	}

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	credOpts, err := ClientOptionsFromEnv()
	if err != nil {
		return nil, err
	}
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, credOpts...)
	c, err := documentai.NewDocumentProcessorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	slog := log.With("service", "gcp.Document")
	slog.Info("Document AI initialized", "endpoint", endpoint, "processor", name)
	return &documentService{log: slog, docClient: c, processor: name}, nil
}

func (s *documentService) Close() error {
	if s == nil || s.docClient == nil {
		return nil
	}
	return s.docClient.Close()
}

func (s *documentService) ProcessBytes(ctx context.Context, req DocAIProcessBytesRequest) (*DocAIResult, error) {
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	if req.MimeType == "" {
		req.MimeType = "application/pdf"
	}
	if len(req.Data) == 0 {
		return &DocAIResult{Processor: s.processor, MimeType: req.MimeType}, nil
	}

	resp, err := s.docClient.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: s.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  req.Data,
				MimeType: req.MimeType,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	out := &DocAIResult{Processor: s.processor, MimeType: req.MimeType}
	if resp == nil || resp.GetDocument() == nil {
		return out, nil
	}
	doc := resp.GetDocument()
	out.PrimaryText = collapseWhitespace(doc.GetText())
	out.Pages = len(doc.GetPages())
	s.log.Debug("Document processed", "pages", out.Pages, "chars", len(out.PrimaryText))
	return out, nil
}

func processorName(project, location, processorID, version string) string {
	project = strings.TrimSpace(project)
	location = strings.TrimSpace(location)
	processorID = strings.TrimSpace(processorID)
	version = strings.TrimSpace(version)

	if project == "" || location == "" || processorID == "" {
		return ""
	}
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processorID)
	if version != "" {
		return base + "/processorVersions/" + version
	}
	return base
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
