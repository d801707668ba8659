package triage

// prompts.go holds the fixed prompt and fallback texts used by the
// conversation pipeline. Keeping them in one file makes them easy to tweak
// without touching the rest of the code.

const (
	// SystemPrompt seeds every conversation. It instructs the assistant to
	// gather information one question at a time and to emit its verdict in
	// the labelled form the extractor looks for.
	SystemPrompt = "You are a friendly triage assistant. Ask one question at a time " +
		"to understand the patient's condition. Once you have enough information, " +
		"classify the urgency on its own line exactly as " +
		"\"Triage Level: Critical\", \"Triage Level: Urgent\", " +
		"\"Triage Level: Non-Urgent\" or \"Triage Level: Mild\", " +
		"then give clear advice as bullet points under an \"Advice:\" heading."

	// FallbackReply is shown to the patient when the completion provider is
	// unavailable. A health-triage interaction must never surface a raw failure.
	FallbackReply = "I'm having trouble reaching the assessment service right now. " +
		"Based on what you've told me so far, please monitor your symptoms closely " +
		"and seek medical attention if they worsen."

	// FallbackAdvice is the canned self-care advice paired with FallbackReply.
	FallbackAdvice = "Rest and stay hydrated.\n" +
		"Monitor your symptoms and note any changes.\n" +
		"Contact a medical professional if symptoms persist or worsen."

	// AdvicePending is reported when the reply carried no advice block yet.
	AdvicePending = "not yet available"
)
