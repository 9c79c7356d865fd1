package prompts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mertcaliskan34/ExamGenerator/internal/i18n"
	"github.com/mertcaliskan34/ExamGenerator/internal/model"
)

// Source text beyond this many runes is truncated before prompting.
const maxContentRunes = 4000

// Submitted answers beyond this many runes are truncated before grading.
const maxAnswerRunes = 10000

// BuildGenerationPrompt assembles the question-generation prompt for the
// extracted document text and exam configuration. The wording comes from the
// configured language bundle so questions are generated in that language; the
// structural contract (JSON shape, answer tokens) is always stated in English.
func BuildGenerationPrompt(text string, cfg model.GenerationConfig) string {
	var sb strings.Builder
	sb.WriteString(i18n.T("PromptSystem") + "\n\n")
	sb.WriteString(fmt.Sprintf("Create exactly %d exam questions at %s difficulty based on the content below.\n\n",
		cfg.NumQuestions, difficultyTerm(cfg.Difficulty)))
	sb.WriteString(typeInstruction(cfg.ExamType) + "\n\n")
	sb.WriteString("CONTENT:\n" + truncateRunes(text, maxContentRunes) + "\n\n")

	sb.WriteString("Respond ONLY with a JSON object of this exact shape:\n")
	sb.WriteString(`{"questions": [{"question_text": "...", "question_type": "multiple_choice" | "true_false" | "fill_blank" | "open_ended", "options": ["...", "..."], "correct_answer": "...", "explanation": "..."}]}`)
	sb.WriteString("\n\nRULES:\n")
	sb.WriteString("- Include \"options\" only for multiple_choice questions, and \"correct_answer\" must exactly equal one of the options.\n")
	sb.WriteString("- For true_false questions \"correct_answer\" must be the literal token \"True\" or \"False\", regardless of the question language.\n")
	sb.WriteString("- For fill_blank and open_ended questions \"correct_answer\" is the reference answer text.\n")
	sb.WriteString("- Do not add any text before or after the JSON object.\n")
	sb.WriteString("- " + i18n.T("PromptLanguage") + "\n")
	return sb.String()
}

// BuildGradingPrompt assembles the open-ended grading prompt for one question,
// its reference answer, and the student's answer.
func BuildGradingPrompt(question model.Question, userAnswer string) string {
	var sb strings.Builder
	sb.WriteString(i18n.T("GraderSystem") + "\n\n")
	sb.WriteString("QUESTION: " + question.QuestionText + "\n\n")
	sb.WriteString("REFERENCE ANSWER: " + question.CorrectAnswer + "\n\n")
	sb.WriteString("STUDENT ANSWER: " + SanitizeAnswer(userAnswer) + "\n\n")
	sb.WriteString("Judge whether the student's answer expresses the same meaning as the reference answer. ")
	sb.WriteString("Exact wording is not required; correctness of content is.\n\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"is_correct": <true/false>, "explanation": "<brief explanation>"}`)
	sb.WriteString("\n")
	return sb.String()
}

// StripFences removes a surrounding markdown code fence from a model response,
// if present.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// SanitizeAnswer normalizes a student answer for inclusion in a prompt.
func SanitizeAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "[No answer provided]"
	}
	if utf8.RuneCountInString(answer) > maxAnswerRunes {
		runes := []rune(answer)
		answer = string(runes[:maxAnswerRunes]) + "\n\n[Answer truncated due to length]"
	}
	return answer
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func difficultyTerm(d model.Difficulty) string {
	switch d {
	case model.DifficultyEasy:
		return i18n.T("DifficultyEasy")
	case model.DifficultyMedium:
		return i18n.T("DifficultyMedium")
	case model.DifficultyHard:
		return i18n.T("DifficultyHard")
	}
	return string(d)
}

func typeInstruction(t model.ExamType) string {
	switch t {
	case model.ExamMultipleChoice:
		return i18n.T("TypeMultipleChoice")
	case model.ExamTrueFalse:
		return i18n.T("TypeTrueFalse")
	case model.ExamFillBlank:
		return i18n.T("TypeFillBlank")
	case model.ExamOpenEnded:
		return i18n.T("TypeOpenEnded")
	default:
		return i18n.T("TypeMixed")
	}
}
