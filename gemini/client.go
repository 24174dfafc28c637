package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/moude-ai/moude-server/audio"
	"github.com/moude-ai/moude-server/prompt"

	"google.golang.org/genai"
)

// Default model names. Overridable through config for preview-model churn.
const (
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultImageModel  = "imagen-3.0-generate-002"
	DefaultTitleModel  = "gemini-2.5-flash"
)

// DefaultVoice is used when the caller has no stored preference or names a
// voice we don't know.
const DefaultVoice = "Algenib"

// Voices lists the prebuilt speech voices offered in settings.
var Voices = []string{
	"Algenib", "Achernar", "Canopus", "Sirius", "Rigel",
	"Vega", "Hadar", "Spica", "Antares", "Deneb",
}

// Options selects the models the client talks to. Zero values mean the
// defaults above.
type Options struct {
	TextModel   string
	SpeechModel string
	ImageModel  string
	TitleModel  string

	// DefaultVoice replaces the built-in fallback voice. Unknown names
	// are themselves replaced with the built-in one.
	DefaultVoice string
}

// Client invokes the Gemini generation capability. Every call is
// single-shot: retry policy belongs to the caller.
type Client struct {
	client *genai.Client
	opts   Options
}

// NewClient creates a generation client for the Gemini API.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	if opts.TextModel == "" {
		opts.TextModel = DefaultTextModel
	}
	if opts.SpeechModel == "" {
		opts.SpeechModel = DefaultSpeechModel
	}
	if opts.ImageModel == "" {
		opts.ImageModel = DefaultImageModel
	}
	if opts.TitleModel == "" {
		opts.TitleModel = DefaultTitleModel
	}
	opts.DefaultVoice = ResolveVoice(opts.DefaultVoice)

	return &Client{client: client, opts: opts}, nil
}

// GenerateText sends a composed request to the text model and returns the
// reply.
func (c *Client) GenerateText(ctx context.Context, req *prompt.ComposedRequest) (string, error) {
	parts := []*genai.Part{{Text: req.Body()}}
	for _, img := range req.Images {
		mime, data, err := img.Decode()
		if err != nil {
			return "", upstreamErr("generate_text", "undecodable image attachment", err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: mime, Data: data},
		})
	}

	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	resp, err := c.client.Models.GenerateContent(ctx, c.opts.TextModel, contents, nil)
	if err != nil {
		return "", upstreamErr("generate_text", "model call failed", err)
	}

	text := resp.Text()
	if text == "" {
		return "", noOutputErr("generate_text", "model returned no text")
	}

	log.Printf("📥 [%s] Generated %d chars of text", req.Module, len(text))
	return text, nil
}

// GenerateSpeech synthesizes the given text with a prebuilt voice and
// returns the raw PCM sample buffer. Unknown or empty voice ids fall back
// to the default voice.
func (c *Client) GenerateSpeech(ctx context.Context, text, voiceID string) (*audio.RawSample, error) {
	voice := c.resolveVoice(voiceID)

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: text}},
	}}

	resp, err := c.client.Models.GenerateContent(ctx, c.opts.SpeechModel, contents, config)
	if err != nil {
		return nil, upstreamErr("generate_speech", "model call failed", err)
	}

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return nil, noOutputErr("generate_speech", "model returned no audio")
	}

	sample := audio.DefaultSample(blob.Data)
	if rate := parseRate(blob.MIMEType); rate > 0 {
		sample.SampleRate = rate
	}

	log.Printf("📥 Generated %d bytes of PCM audio (voice %s)", len(sample.PCM), voice)
	return sample, nil
}

// GenerateTitle produces a short title for a chat from its first message.
func (c *Client) GenerateTitle(ctx context.Context, message string) (string, error) {
	p := "Based on the following message, generate a short, concise title for the chat session (maximum 5 words).\n\nMessage:\n" + message
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: p}},
	}}

	resp, err := c.client.Models.GenerateContent(ctx, c.opts.TitleModel, contents, nil)
	if err != nil {
		return "", upstreamErr("generate_title", "model call failed", err)
	}

	title := strings.TrimSpace(resp.Text())
	if title == "" {
		return "", noOutputErr("generate_title", "model returned no title")
	}
	return title, nil
}

// GeneratedImage is one image produced for an Imagine module prompt.
type GeneratedImage struct {
	Bytes    []byte
	MimeType string
}

// DataURI returns the image as a data URI for direct embedding.
func (g *GeneratedImage) DataURI() string {
	return "data:" + g.MimeType + ";base64," + base64.StdEncoding.EncodeToString(g.Bytes)
}

// GenerateImage renders an image for the given prompt.
func (c *Client) GenerateImage(ctx context.Context, imagePrompt string) (*GeneratedImage, error) {
	resp, err := c.client.Models.GenerateImages(ctx, c.opts.ImageModel, imagePrompt, nil)
	if err != nil {
		return nil, upstreamErr("generate_image", "model call failed", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, noOutputErr("generate_image", "model returned no image")
	}

	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	log.Printf("📥 Generated image: %d bytes (%s)", len(img.ImageBytes), mime)
	return &GeneratedImage{Bytes: img.ImageBytes, MimeType: mime}, nil
}

// ResolveVoice maps a stored voice preference to a usable voice name.
func ResolveVoice(voiceID string) string {
	for _, v := range Voices {
		if v == voiceID {
			return v
		}
	}
	return DefaultVoice
}

func (c *Client) resolveVoice(voiceID string) string {
	for _, v := range Voices {
		if v == voiceID {
			return v
		}
	}
	return c.opts.DefaultVoice
}

// firstInlineData returns the first inline blob of the first candidate.
func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil {
				return part.InlineData
			}
		}
	}
	return nil
}

// parseRate extracts the sample rate from a mime type such as
// "audio/L16;codec=pcm;rate=24000".
func parseRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(param), "rate="); ok {
			if rate, err := strconv.Atoi(v); err == nil {
				return rate
			}
		}
	}
	return 0
}
