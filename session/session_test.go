package session

import (
	"testing"

	"github.com/moude-ai/moude-server/messages"
)

func TestToTextAttachments(t *testing.T) {
	files := []messages.FilePayload{
		{Name: "notes.txt", Content: "line one"},
		{Name: "readme.md", Content: "# hi"},
	}
	out := toTextAttachments(files)
	if len(out) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(out))
	}
	if out[0].Name != "notes.txt" || out[0].Content != "line one" {
		t.Errorf("first attachment mangled: %+v", out[0])
	}
	if toTextAttachments(nil) != nil {
		t.Error("expected nil for no files")
	}
}

func TestToImageAttachmentsSkipsMalformed(t *testing.T) {
	images := []messages.FilePayload{
		{Name: "good.png", Content: "data:image/png;base64,aGk="},
		{Name: "bad.png", Content: "just some text"},
	}
	out := toImageAttachments(images)
	if len(out) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(out))
	}
	if out[0].Name != "good.png" {
		t.Errorf("kept the wrong attachment: %s", out[0].Name)
	}
}
