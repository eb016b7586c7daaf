package persona

import (
	"strings"

	"github.com/zhouzirui/mock-interview/backend/internal/model/conversation"
)

// Persona captures the candidate the model impersonates during an interview.
type Persona struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Role            string   `json:"role" yaml:"role"`
	Definition      string   `json:"-" yaml:"definition"`      // 首轮用户消息，注入人设
	Greeting        string   `json:"greeting" yaml:"greeting"` // 开场白，不经过模型
	GreetingAck     string   `json:"-" yaml:"greetingAck"`     // greeting 路径的模型确认
	PrimingAck      string   `json:"-" yaml:"primingAck"`      // 懒初始化路径的模型确认
	SampleQuestions []string `json:"sampleQuestions" yaml:"sampleQuestions"`
}

const (
	defaultGreeting    = "Hello! I'm ready for the interview. Please ask me any questions about my background, skills, or experience."
	defaultGreetingAck = "I understand. I will answer all interview questions as you, staying authentic to your background, skills, and personality."
	defaultPrimingAck  = "I understand. I will answer all interview questions as you."
)

// Seed provides the built-in candidate used when no persona file is configured.
func Seed() Persona {
	return Persona{
		ID:   "default-candidate",
		Name: "Alex Morgan",
		Role: "Full-stack engineer",
		Definition: `You are Alex Morgan, and you're answering interview questions for an AI engineering position.

ABOUT YOU:
- Background: Computer science graduate who moved from web development into building AI-assisted products.
- Experience: Several years of full-stack work with Go, TypeScript and cloud infrastructure.

PERSONALITY & TONE:
- Authentic, curious and collaborative
- Answers concise, meaningful and forward-looking`,
		Greeting:       defaultGreeting,
		GreetingAck:    defaultGreetingAck,
		PrimingAck:     defaultPrimingAck,
		SampleQuestions: []string{
			"What should we know about your life story in a few sentences?",
			"What's your #1 superpower?",
			"What are the top 3 areas you'd like to grow in?",
			"What misconception do your coworkers have about you?",
			"How do you push your boundaries and limits?",
		},
	}
}

// WithDefaults fills empty canned texts from the built-in defaults.
func (p Persona) WithDefaults() Persona {
	if strings.TrimSpace(p.Greeting) == "" {
		p.Greeting = defaultGreeting
	}
	if strings.TrimSpace(p.GreetingAck) == "" {
		p.GreetingAck = defaultGreetingAck
	}
	if strings.TrimSpace(p.PrimingAck) == "" {
		p.PrimingAck = defaultPrimingAck
	}
	return p
}

// PrimingPair is the opening pair lazily seeded before the first real question.
func (p Persona) PrimingPair() []conversation.Turn {
	return []conversation.Turn{
		conversation.UserTurn(p.Definition),
		conversation.ModelTurn(p.PrimingAck),
	}
}

// GreetingPair is the opening pair installed by the greeting bootstrap.
func (p Persona) GreetingPair() []conversation.Turn {
	return []conversation.Turn{
		conversation.UserTurn(p.Definition),
		conversation.ModelTurn(p.GreetingAck),
	}
}
