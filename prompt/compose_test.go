package prompt

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestComposeEmptyRequestRejected(t *testing.T) {
	_, err := Compose(ModuleGeniea1Pro, nil, "", nil, nil)
	if !errors.Is(err, ErrEmptyRequest) {
		t.Fatalf("expected ErrEmptyRequest, got %v", err)
	}
}

func TestComposeTextOnlySucceeds(t *testing.T) {
	req, err := Compose(ModuleGeniea1Pro, nil, "hello", nil, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if req.UserText != "hello" {
		t.Errorf("UserText = %q, want %q", req.UserText, "hello")
	}
	if !strings.HasSuffix(req.Body(), "user: hello") {
		t.Errorf("body should end with the query slot, got:\n%s", req.Body())
	}
}

func TestComposeAttachmentOnlySucceeds(t *testing.T) {
	files := []TextAttachment{{Name: "notes.txt", Content: "remember the milk"}}
	req, err := Compose(ModuleGeniea1Pro, nil, "", files, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if !strings.Contains(req.Body(), "notes.txt") {
		t.Error("file name missing from prompt body")
	}
}

func TestComposeDeepThinkUsesDeepReasoningPreamble(t *testing.T) {
	req, err := Compose(ModuleDeepThink, nil, "explain recursion", nil, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if req.Template.Variant != VariantDeepReasoning {
		t.Errorf("expected deep-reasoning template, got variant %v", req.Template.Variant)
	}
	if !strings.Contains(req.Body(), "Deep Thinking") {
		t.Error("deep-reasoning preamble missing from body")
	}
	if !strings.HasSuffix(req.Body(), "user: explain recursion") {
		t.Error("query text must appear literally in the final slot")
	}
}

func TestComposeStandardPreambleNamesModule(t *testing.T) {
	req, err := Compose(ModuleGeniea1Flash, nil, "hi", nil, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if !strings.Contains(req.Body(), "interacting with the Geniea 1 Flash module") {
		t.Error("standard preamble should name the selected module")
	}
}

func TestComposePreservesHistoryOrder(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: "third"},
	}
	req, err := Compose(ModulePlayBox, history, "fourth", nil, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	body := req.Body()
	iFirst := strings.Index(body, "user: first")
	iSecond := strings.Index(body, "assistant: second")
	iThird := strings.Index(body, "user: third")
	if iFirst < 0 || iSecond < 0 || iThird < 0 {
		t.Fatalf("history turns missing from body:\n%s", body)
	}
	if !(iFirst < iSecond && iSecond < iThird) {
		t.Error("history turns rendered out of order")
	}
}

func TestComposeFilesKeepInsertionOrder(t *testing.T) {
	files := []TextAttachment{
		{Name: "z.txt", Content: "zebra"},
		{Name: "a.txt", Content: "apple"},
	}
	req, err := Compose(ModuleGeniea1Pro, nil, "check these", files, nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	body := req.Body()
	if strings.Index(body, "z.txt") > strings.Index(body, "a.txt") {
		t.Error("files must be rendered in insertion order, not sorted")
	}
	if !strings.Contains(body, "```\nzebra\n```") {
		t.Error("file content should be fenced verbatim")
	}
}

func TestComposeImagesNotInlined(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF})
	images := []ImageAttachment{{Name: "photo.jpg", Content: "data:image/jpeg;base64," + payload}}
	req, err := Compose(ModuleGeniea1Pro, nil, "what is this", nil, images)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if strings.Contains(req.Body(), payload) {
		t.Error("image payload must not be inlined into the prompt text")
	}
	if len(req.Images) != 1 {
		t.Fatalf("expected 1 image attachment, got %d", len(req.Images))
	}
}

func TestParseDataURI(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	mime, data, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI failed: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want image/png", mime)
	}
	if string(data) != string(raw) {
		t.Error("decoded payload mismatch")
	}

	for _, bad := range []string{"", "image/png;base64,AAAA", "data:image/png;base64", "data:image/png,plain"} {
		if _, _, err := ParseDataURI(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
