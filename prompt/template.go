package prompt

// Module identifies the selectable AI behavior profile the user is chatting
// with. The set is closed; anything else resolves to the standard template.
type Module string

const (
	ModuleGeniea1Pro     Module = "Geniea 1 Pro"
	ModuleGeniea1Flash   Module = "Geniea 1 Flash"
	ModuleGenieaNano1o   Module = "Geniea Nano 1o"
	ModuleGenieaSuper13o Module = "Geniea Super 13o"
	ModuleImagine1Suno   Module = "Imagine 1 SUNO"
	ModuleImagine1Pro    Module = "Imagine 1 Pro"
	ModuleDeepThink      Module = "Deep Think"
	ModulePlayBox        Module = "PlayBox"
)

// Variant tags the three prompt shapes a module can resolve to.
type Variant int

const (
	VariantStandard Variant = iota
	VariantDeepReasoning
	VariantFiction
)

// ModulePlaceholder is replaced with the module name when the standard
// preamble is rendered.
const ModulePlaceholder = "{{module}}"

// TemplateSpec describes the prompt structure for one module: a persona
// preamble followed by the history, files, images and query slots, in that
// order. The files and images slots are only rendered when attachments are
// present.
type TemplateSpec struct {
	Variant      Variant
	Preamble     string
	HistoryIntro string
	FilesIntro   string
	ImagesIntro  string
	QueryIntro   string
}

var standardTemplate = TemplateSpec{
	Variant:      VariantStandard,
	Preamble:     "You are an AI assistant from Moude AI. The user is interacting with the " + ModulePlaceholder + " module.",
	HistoryIntro: "Here is the conversation history:",
	FilesIntro:   "The user has uploaded the following files:",
	ImagesIntro:  "The user has uploaded the following image(s). Refer to them when responding.",
	QueryIntro:   "Respond to the following query:",
}

var deepThinkTemplate = TemplateSpec{
	Variant:      VariantDeepReasoning,
	Preamble:     `You are an AI assistant in "Deep Thinking" mode. Provide a comprehensive, well-reasoned, and in-depth response. Analyze the query from multiple perspectives and provide detailed explanations.`,
	HistoryIntro: "Here is the conversation history:",
	FilesIntro:   "The user has uploaded the following files for your deep analysis:",
	ImagesIntro:  "The user has uploaded the following image(s) for your deep analysis.",
	QueryIntro:   "Provide a deep and thoughtful response to the following query:",
}

var playBoxTemplate = TemplateSpec{
	Variant:      VariantFiction,
	Preamble:     `You are a creative partner in "PlayBox" mode. Your goal is to engage in collaborative storytelling and role-playing with the user. Be imaginative, descriptive, and build upon the user's ideas. You can invent characters, settings, and plot twists.`,
	HistoryIntro: "Here is our story so far:",
	FilesIntro:   "The user has provided the following files as inspiration or context for our story:",
	ImagesIntro:  "The user has provided the following image(s) as inspiration for our story.",
	QueryIntro:   "Continue the story based on the user's latest input:",
}

// ResolveTemplate maps a module to its prompt template. Unknown modules
// intentionally fall back to the standard template rather than erroring;
// new modules should work out of the box with the generic persona.
func ResolveTemplate(m Module) TemplateSpec {
	switch m {
	case ModuleDeepThink:
		return deepThinkTemplate
	case ModulePlayBox:
		return playBoxTemplate
	default:
		return standardTemplate
	}
}
