package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Limits applied to text embedded in prompts, in characters.
const (
	MaxGenerationTextLength = 20000
	MaxSummaryTextLength    = 200000
	MaxExplainContextLength = 10000

	DefaultFlashcardCount = 10
	DefaultQuizCount      = 5

	DefaultDifficulty = "medium"

	quizOptionCount = 4
	blockSeparator  = "---"
)

var difficulties = map[string]struct{}{
	"easy":   {},
	"medium": {},
	"hard":   {},
}

// Truncate returns at most n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// BuildChatContext labels each chunk with its 1-based rank and joins them with blank lines.
func BuildChatContext(chunks []RankedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[Chunk %d]\n%s", i+1, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

// JoinChunkContents joins chunk contents with blank lines.
func JoinChunkContents(chunks []RankedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n\n")
}

// FlashcardPrompt asks for count flashcards in Q:/A:/D: blocks.
func FlashcardPrompt(text string, count int) string {
	return fmt.Sprintf(`You are an educational AI assistant.
Goal: Generate exactly %d flashcards based on the provided text.
Format each flashcard as:
Q: [Clear, specific question]
A: [Concise, accurate answer]
D: [Difficulty level: easy, medium or hard]

Separate each flashcard with '---'

Text:
%s
`, count, Truncate(text, MaxGenerationTextLength))
}

// QuizPrompt asks for count multiple-choice questions with four options each.
func QuizPrompt(text string, count int) string {
	return fmt.Sprintf(`Generate exactly %d multiple choice questions from the following text.
Format each question as:
Q: [Question]
O1: [Option 1]
O2: [Option 2]
O3: [Option 3]
O4: [Option 4]
C: [Correct option, exactly as written above]
E: [Brief explanation]
D: [Difficulty: easy, medium or hard]

Separate questions with '---'

Text:
%s
`, count, Truncate(text, MaxGenerationTextLength))
}

// SummaryPrompt asks for a structured summary of the text.
func SummaryPrompt(text string) string {
	return fmt.Sprintf(`Provide a concise summary of the following text, highlighting key concepts and main ideas.
Keep the summary clean and structured.

Text:
%s
`, Truncate(text, MaxSummaryTextLength))
}

// ChatPrompt asks the model to answer question from the labelled context only.
func ChatPrompt(question, context string) string {
	return fmt.Sprintf(`Based on the following context from a document, analyse the context and answer the user's question.
If the answer is not in the context, say so.

Context:
%s

Question: %s

Answer:
`, context, question)
}

// ExplainPrompt asks for an explanation of concept grounded in context.
func ExplainPrompt(concept, context string) string {
	return fmt.Sprintf(`Explain the concept of "%s" based on the following context.
Provide a clear, educational explanation that is easy to understand.
Include examples if relevant.

Context:
%s
`, concept, Truncate(context, MaxExplainContextLength))
}

// ParseFlashcards extracts flashcards from Q:/A:/D: blocks separated by "---".
// Blocks without a question or an answer are skipped. At most count cards are returned.
func ParseFlashcards(output string, count int) []GeneratedCard {
	cards := []GeneratedCard{}
	for _, block := range splitBlocks(output) {
		card := GeneratedCard{Difficulty: DefaultDifficulty}
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "Q:"):
				card.Question = strings.TrimSpace(line[2:])
			case strings.HasPrefix(line, "A:"):
				card.Answer = strings.TrimSpace(line[2:])
			case strings.HasPrefix(line, "D:"):
				card.Difficulty = parseDifficulty(line[2:])
			}
		}
		if card.Question == "" || card.Answer == "" {
			continue
		}
		cards = append(cards, card)
		if count > 0 && len(cards) == count {
			break
		}
	}
	return cards
}

// ParseQuiz extracts questions from Q:/O1-O4:/C:/E:/D: blocks. Only questions
// with exactly four options and a correct answer are kept.
func ParseQuiz(output string, count int) []GeneratedQuestion {
	questions := []GeneratedQuestion{}
	for _, block := range splitBlocks(output) {
		q := GeneratedQuestion{Difficulty: DefaultDifficulty, Options: []string{}}
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "Q:"):
				q.Question = strings.TrimSpace(line[2:])
			case isOptionLine(line):
				q.Options = append(q.Options, strings.TrimSpace(line[3:]))
			case strings.HasPrefix(line, "C:"):
				q.CorrectAnswer = strings.TrimSpace(line[2:])
			case strings.HasPrefix(line, "E:"):
				q.Explanation = strings.TrimSpace(line[2:])
			case strings.HasPrefix(line, "D:"):
				q.Difficulty = parseDifficulty(line[2:])
			}
		}
		if q.Question == "" || len(q.Options) != quizOptionCount || q.CorrectAnswer == "" {
			continue
		}
		questions = append(questions, q)
		if count > 0 && len(questions) == count {
			break
		}
	}
	return questions
}

func splitBlocks(output string) []string {
	output = strings.ReplaceAll(output, "\r\n", "\n")
	var blocks []string
	for _, b := range strings.Split(output, blockSeparator) {
		if b = strings.TrimSpace(b); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// isOptionLine matches "O<digit>:".
func isOptionLine(line string) bool {
	return len(line) >= 3 && line[0] == 'O' && line[1] >= '0' && line[1] <= '9' && line[2] == ':'
}

func parseDifficulty(s string) string {
	d := strings.ToLower(strings.TrimSpace(s))
	if _, ok := difficulties[d]; ok {
		return d
	}
	return DefaultDifficulty
}
