package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockClient implements Client for testing.
type mockClient struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	delErr  error
	delTry  int
}

func newMockClient() *mockClient {
	return &mockClient{objects: make(map[string][]byte)}
}

func (m *mockClient) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockClient) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delTry++
	if m.delErr != nil {
		return nil, m.delErr
	}
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func testStore(c Client) *Store {
	return NewWithClient(Config{
		Endpoint:  "http://localhost:9000",
		Bucket:    "offnotes",
		AccessKey: "key",
		SecretKey: "secret",
	}, c)
}

func TestPutReturnsURL(t *testing.T) {
	mc := newMockClient()
	s := testStore(mc)

	url, err := s.Put(context.Background(), "u1/abc-report.pdf", strings.NewReader("data"), 4, "application/pdf")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	want := "http://localhost:9000/offnotes/u1/abc-report.pdf"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
	if string(mc.objects["u1/abc-report.pdf"]) != "data" {
		t.Error("object body not stored")
	}
}

func TestDeleteRoundTrip(t *testing.T) {
	mc := newMockClient()
	s := testStore(mc)

	url, err := s.Put(context.Background(), "u1/abc-a.png", strings.NewReader("x"), 1, "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Delete(context.Background(), url); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := mc.objects["u1/abc-a.png"]; ok {
		t.Error("object should be gone")
	}
}

func TestDeleteRetriesThenFails(t *testing.T) {
	mc := newMockClient()
	mc.delErr = errors.New("boom")
	s := testStore(mc)

	err := s.Delete(context.Background(), "http://localhost:9000/offnotes/u1/k")
	if err == nil {
		t.Fatal("expected error")
	}
	if mc.delTry < 2 {
		t.Errorf("delete attempts = %d, want retries", mc.delTry)
	}
}

func TestKeyForURLForeign(t *testing.T) {
	s := testStore(newMockClient())

	if _, err := s.KeyForURL("https://elsewhere.example.com/other/key"); err == nil {
		t.Error("expected error for foreign url")
	}
}

func TestKeyScopingAndSanitize(t *testing.T) {
	k1 := Key(7, "my résumé.pdf")
	if !strings.HasPrefix(k1, "u7/") {
		t.Errorf("key = %q, want u7/ prefix", k1)
	}
	if !strings.HasSuffix(k1, "my_r_sum_.pdf") {
		t.Errorf("key = %q, want sanitized filename suffix", k1)
	}

	k2 := Key(7, "my résumé.pdf")
	if k1 == k2 {
		t.Error("keys for repeated uploads must differ")
	}
}
