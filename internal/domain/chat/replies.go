package chat

import (
	"strings"
	"unicode"
)

// Category groups canned local replies.
type Category string

const (
	CategoryGreeting Category = "greeting"
	CategoryLuck     Category = "luck"
	CategoryLove     Category = "love"
	CategoryCareer   Category = "career"
	CategoryHealth   Category = "health"
	CategoryDefault  Category = "default"
)

type cannedReply struct {
	category Category
	keywords []string
	text     string
}

// Table order decides ties: the first matching category wins.
var cannedReplies = []cannedReply{
	{CategoryGreeting, []string{"hello", "hi"}, "Greetings, seeker of celestial wisdom! How may I illuminate your path today?"},
	{CategoryLuck, []string{"luck", "future"}, "The stars suggest a period of transformation ahead. Stay open to new opportunities, and fortune will favor your endeavors."},
	{CategoryLove, []string{"love", "relationship"}, "Venus aligns favorably in your chart. This is an excellent time to nurture existing bonds or open your heart to new connections."},
	{CategoryCareer, []string{"career", "job", "work"}, "Mercury's position indicates favorable communication at work. Share your ideas confidently, as they are likely to be well-received."},
	{CategoryHealth, []string{"health", "wellness"}, "The celestial energies suggest focusing on balance. Integrate both rest and activity for optimal well-being during this cycle."},
}

const defaultReplyText = "The cosmic patterns relevant to your query are complex. I sense that patience and mindfulness will serve you well as the stars reveal their message over time."

// prefixMatchLen is the keyword length from which a keyword also matches longer words.
const prefixMatchLen = 4

// Categories lists every category in match order, ending with the catch-all.
func Categories() []Category {
	out := make([]Category, 0, len(cannedReplies)+1)
	for _, r := range cannedReplies {
		out = append(out, r.category)
	}
	return append(out, CategoryDefault)
}

// Categorize maps free text to a reply category.
func Categorize(text string) Category {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, reply := range cannedReplies {
		for _, kw := range reply.keywords {
			if containsWord(words, kw) {
				return reply.category
			}
		}
	}
	return CategoryDefault
}

// CannedReply returns the local reply text for a category.
func CannedReply(category Category) string {
	for _, reply := range cannedReplies {
		if reply.category == category {
			return reply.text
		}
	}
	return defaultReplyText
}

// LocalReply answers text without the network.
func LocalReply(text string) string {
	return CannedReply(Categorize(text))
}

func containsWord(words []string, kw string) bool {
	for _, w := range words {
		if w == kw {
			return true
		}
		if len(kw) >= prefixMatchLen && strings.HasPrefix(w, kw) {
			return true
		}
	}
	return false
}
