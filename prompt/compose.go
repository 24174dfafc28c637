package prompt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyRequest is returned when a request carries neither text nor any
// attachment.
var ErrEmptyRequest = errors.New("request must contain text, a file, or an image")

// Turn is one entry of the conversation history.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// TextAttachment is an uploaded text file, embedded verbatim in the prompt.
type TextAttachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ImageAttachment is an uploaded image as a base64 data URI. It is passed
// to the model as a first-class image part, never inlined as text.
type ImageAttachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Decode splits the data URI into its media type and raw bytes.
func (a ImageAttachment) Decode() (string, []byte, error) {
	mime, data, err := ParseDataURI(a.Content)
	if err != nil {
		return "", nil, fmt.Errorf("image %q: %w", a.Name, err)
	}
	return mime, data, nil
}

// ParseDataURI decodes a "data:<mime>;base64,<payload>" URI.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URI is not base64-encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return mime, data, nil
}

// ComposedRequest is a fully assembled generation request. It is built once
// by Compose and never mutated afterwards.
type ComposedRequest struct {
	Module   Module
	Template TemplateSpec
	History  []Turn
	UserText string
	Files    []TextAttachment
	Images   []ImageAttachment

	body string
}

// Body returns the rendered text portion of the prompt: preamble, history,
// file excerpts and the final query, laid out per the module's template.
// Images are deliberately absent; they travel as separate parts.
func (r *ComposedRequest) Body() string {
	return r.body
}

// Compose merges history, user text and attachments into one request
// honoring the template structure of the given module.
func Compose(module Module, history []Turn, userText string, files []TextAttachment, images []ImageAttachment) (*ComposedRequest, error) {
	if userText == "" && len(files) == 0 && len(images) == 0 {
		return nil, ErrEmptyRequest
	}

	tmpl := ResolveTemplate(module)

	var b strings.Builder
	b.WriteString(strings.ReplaceAll(tmpl.Preamble, ModulePlaceholder, string(module)))
	b.WriteString("\n\n")

	b.WriteString(tmpl.HistoryIntro)
	b.WriteString("\n")
	for _, turn := range history {
		b.WriteString(turn.Role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}

	if len(files) > 0 {
		b.WriteString("\n")
		b.WriteString(tmpl.FilesIntro)
		b.WriteString("\n")
		for _, f := range files {
			b.WriteString("- ")
			b.WriteString(f.Name)
			b.WriteString(":\n```\n")
			b.WriteString(f.Content)
			b.WriteString("\n```\n")
		}
	}

	if len(images) > 0 {
		b.WriteString("\n")
		b.WriteString(tmpl.ImagesIntro)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tmpl.QueryIntro)
	b.WriteString("\nuser: ")
	b.WriteString(userText)

	return &ComposedRequest{
		Module:   module,
		Template: tmpl,
		History:  history,
		UserText: userText,
		Files:    files,
		Images:   images,
		body:     b.String(),
	}, nil
}
