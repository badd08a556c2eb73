package interview

import (
	"fmt"
	"strings"
)

// greetingText is the first AI message of every session. It is spoken aloud
// and persisted as part of the initial transcript.
func greetingText(name, role, techStack string) string {
	if name == "" {
		name = "Candidate"
	}
	return fmt.Sprintf("Hello %s! I'll be your interviewer today for a %s position focusing on %s. Let's begin.", name, role, techStack)
}

// closingText is appended when the candidate ends the interview.
const closingText = "Thank you for your time. I'm now generating your feedback..."

// firstQuestionPrompt seeds the interview; no transcript context exists yet.
func firstQuestionPrompt(role, techStack string) string {
	return fmt.Sprintf("You are a technical interviewer. Start an interview for a %s position on %s. Ask the first question.", role, techStack)
}

// renderTranscript formats messages as "sender: text" lines joined by
// newlines, the context format for every follow-up generation request.
func renderTranscript(msgs []Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(string(m.Sender))
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	return b.String()
}

func nextQuestionPrompt(msgs []Message) string {
	var b strings.Builder
	b.WriteString("This is a technical interview. Here is the transcript so far:\n")
	b.WriteString(renderTranscript(msgs))
	b.WriteString("\n\nBased on the candidate's last answer, ask the next single, relevant technical question.")
	return b.String()
}

func feedbackPrompt(msgs []Message) string {
	var b strings.Builder
	b.WriteString("The interview is over. Here is the transcript:\n")
	b.WriteString(renderTranscript(msgs))
	b.WriteString("\n\nProvide a detailed performance review in Markdown format. Cover technical knowledge, problem-solving skills, and communication. Include strengths, weaknesses, and areas for improvement.")
	return b.String()
}
