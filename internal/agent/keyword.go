package agent

import (
	"context"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/soaringjerry/moodtrack/internal/models"
)

type keywordRule struct {
	words []string
	reply string
}

// Rules are checked in order; the first rule with a matching substring wins.
var keywordRules = []keywordRule{
	{
		words: []string{"sad", "depressed", "down"},
		reply: "I can sense that you're feeling low right now. These feelings can be really difficult to navigate. Have you noticed any patterns in when these feelings tend to be stronger?",
	},
	{
		words: []string{"anxious", "worried", "stress"},
		reply: "Anxiety and worry can feel overwhelming. It's helpful to remember that these feelings, while uncomfortable, are temporary. Have you tried any breathing exercises or grounding techniques?",
	},
	{
		words: []string{"help", "support"},
		reply: "I'm glad you're reaching out. There are many resources available, including mental health professionals, crisis helplines, and support groups. Would you like me to share some information about finding professional help?",
	},
	{
		words: []string{"thank", "thanks"},
		reply: "You're very welcome. I'm here to listen and support you. Remember, taking care of your mental health is important, and you're taking positive steps by engaging in this conversation.",
	},
	{
		words: []string{"hello", "hi", "hey"},
		reply: "Hello! I'm here to listen and provide support. How are you feeling today? Feel free to share what's on your mind.",
	},
}

var fallbackReplies = []string{
	"I understand that you're going through a difficult time. It's important to remember that your feelings are valid, and seeking support is a sign of strength.",
	"Thank you for sharing that with me. It sounds like you're dealing with a lot right now. Have you considered speaking with a mental health professional about these concerns?",
	"I hear you. It's completely normal to experience ups and downs. Remember that you don't have to face these challenges alone - there are resources and people who want to help.",
	"I appreciate you opening up. What you're describing sounds challenging. Would it be helpful to explore some coping strategies together?",
	"Thank you for trusting me with your thoughts. It takes courage to express what you're feeling. Remember, professional support is available when you're ready.",
}

// Keyword answers from a fixed table of supportive replies. It never fails
// and the same message always gets the same reply.
type Keyword struct{}

func NewKeyword() *Keyword { return &Keyword{} }

func (Keyword) Reply(_ context.Context, message string, _ []models.ChatMessage) (string, error) {
	lower := strings.ToLower(message)
	for _, rule := range keywordRules {
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				return rule.reply, nil
			}
		}
	}
	idx := xxhash.Sum64String(lower) % uint64(len(fallbackReplies))
	return fallbackReplies[idx], nil
}
