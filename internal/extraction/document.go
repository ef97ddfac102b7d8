package extraction

import (
	"context"
	"strings"

	"github.com/yungbote/interview-brief-backend/internal/data/blob"
	"github.com/yungbote/interview-brief-backend/internal/platform/gcp"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// DocumentExtractor returns the plain text of an uploaded document. The bool
// is false when the object is missing, unreadable or has no text.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, ref string) (string, bool)
}

type docAIExtractor struct {
	store blob.Store
	doc   gcp.Document
	log   *logger.Logger
}

// NewDocumentExtractor reads the upload from store and runs it through doc.
// A nil doc means every document extracts to nothing.
func NewDocumentExtractor(store blob.Store, doc gcp.Document, baseLog *logger.Logger) DocumentExtractor {
	return &docAIExtractor{store: store, doc: doc, log: baseLog.With("service", "DocumentExtractor")}
}

func (d *docAIExtractor) ExtractText(ctx context.Context, ref string) (string, bool) {
	if d.doc == nil || strings.TrimSpace(ref) == "" {
		return "", false
	}
	data, ok, err := d.store.GetBytes(ctx, ref)
	if err != nil {
		d.log.Warn("Upload read failed", "key", ref, "error", err)
		return "", false
	}
	if !ok || len(data) == 0 {
		return "", false
	}
	res, err := d.doc.ProcessBytes(ctx, gcp.DocAIProcessBytesRequest{MimeType: "application/pdf", Data: data})
	if err != nil {
		d.log.Warn("Document extraction failed", "key", ref, "error", err)
		return "", false
	}
	text := strings.TrimSpace(res.PrimaryText)
	if text == "" {
		return "", false
	}
	d.log.Debug("Document extracted", "key", ref, "pages", res.Pages, "chars", len(text))
	return text, true
}
