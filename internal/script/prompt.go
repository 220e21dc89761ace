package script

import (
	"fmt"
	"strings"
)

const systemPrompt = "You write scripts that a single presenter reads aloud to camera. " +
	"Return only the words to be spoken."

var toneGuidance = map[Tone]string{
	ToneProfessional: "confident and polished, like an industry expert briefing peers",
	ToneCasual:       "relaxed and conversational, like talking to a friend",
	ToneEducational:  "clear and patient, building understanding step by step",
	ToneEntertaining: "energetic and playful, with vivid examples",
}

var styleGuidance = map[Style]string{
	StyleMonologue: "a direct-to-camera monologue",
	StyleInterview: "answers to implied interview questions, delivered by one speaker",
	StyleTutorial:  "a short tutorial that walks through concrete steps",
	StyleStory:     "a story with a beginning, a turning point, and a payoff",
}

// BuildPrompt assembles the user prompt for one script request.
func BuildPrompt(topic string, targetWords, seconds int, tone Tone, style Style) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a script about: %s\n\n", strings.TrimSpace(topic))
	fmt.Fprintf(&b, "Length: about %d words (%d seconds at %d words per minute).\n", targetWords, seconds, WordsPerMinute)
	fmt.Fprintf(&b, "Tone: %s (%s).\n", tone, toneGuidance[tone])
	fmt.Fprintf(&b, "Format: %s.\n\n", styleGuidance[style])
	b.WriteString("Rules:\n")
	b.WriteString("- Output only the spoken words. No stage directions, headings, speaker labels, or brackets.\n")
	b.WriteString("- Open with a strong hook in the first sentence.\n")
	b.WriteString("- Use short sentences and natural pauses (commas, ellipses) for pacing.\n")
	b.WriteString("- End with a clear call to action.\n")
	return b.String()
}
