package blob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/gcp"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

type fakeBucket struct {
	objects map[string][]byte
	signErr error
	failPut error
}

func (f *fakeBucket) Upload(ctx context.Context, key string, body []byte) error {
	if f.failPut != nil {
		return f.failPut
	}
	f.objects[key] = body
	return nil
}

func (f *fakeBucket) Download(ctx context.Context, key string) ([]byte, error) {
	b, ok := f.objects[key]
	if !ok {
		return nil, gcp.ErrObjectNotFound
	}
	return b, nil
}

func (f *fakeBucket) SignedUploadURL(key, contentType string, ttl time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://signed.test/" + key, nil
}

func (f *fakeBucket) BucketName() string { return "artifacts" }

func TestBucketStoreJSONAndAbsence(t *testing.T) {
	ctx := context.Background()
	st := NewBucketStore(&fakeBucket{objects: map[string][]byte{}}, logger.Nop())

	q := domain.QuestionSet{Questions: []domain.Question{{ID: "q1", Question: "How?"}}}
	if err := st.PutJSON(ctx, domain.QuestionsKey("s1", 1), q); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}
	var got domain.QuestionSet
	ok, err := st.GetJSON(ctx, domain.QuestionsKey("s1", 1), &got)
	if err != nil || !ok {
		t.Fatalf("GetJSON: ok=%v err=%v", ok, err)
	}
	if len(got.Questions) != 1 || got.Questions[0].ID != "q1" {
		t.Fatalf("GetJSON: unexpected %+v", got)
	}
	ok, err = st.GetJSON(ctx, domain.QuestionsKey("s1", 2), &got)
	if err != nil || ok {
		t.Fatalf("GetJSON absent: want=false,nil got=%v,%v", ok, err)
	}
}

func TestBucketStoreUploadFailureIsUpstream(t *testing.T) {
	st := NewBucketStore(&fakeBucket{objects: map[string][]byte{}, failPut: errors.New("503")}, logger.Nop())
	err := st.PutText(context.Background(), "k.txt", "x")
	if !domain.IsCode(err, domain.CodeUpstreamDependency) {
		t.Fatalf("PutText: want=upstream_dependency got=%v", err)
	}
}

func TestBucketStoreSignedURLBestEffort(t *testing.T) {
	st := NewBucketStore(&fakeBucket{objects: map[string][]byte{}, signErr: errors.New("no signer")}, logger.Nop())
	u, err := st.SignedUploadURL(context.Background(), "uploads/u/s/document.pdf", "application/pdf", time.Minute)
	if err != nil || u != "" {
		t.Fatalf("SignedUploadURL: want empty,nil got=%q,%v", u, err)
	}
}

func TestMemoryStoreCopiesAndLists(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	raw := []byte("abc")
	m.PutBytes("extracted/s1/document_text.txt", raw)
	raw[0] = 'z'
	txt, ok, _ := m.GetText(ctx, "extracted/s1/document_text.txt")
	if !ok || txt != "abc" {
		t.Fatalf("GetText: want=abc got=%q ok=%v", txt, ok)
	}
	_ = m.PutText(ctx, "extracted/s1/chunks.json", "[]")
	_ = m.PutText(ctx, "briefs/s1/v1/questions.json", "{}")
	keys := m.Keys("extracted/s1/")
	if len(keys) != 2 || keys[0] != "extracted/s1/chunks.json" {
		t.Fatalf("Keys: got=%v", keys)
	}
}
