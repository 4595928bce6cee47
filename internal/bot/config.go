package bot

import (
	"github.com/example/wordwise/pkg/models"
)

// Config represents the configuration for the bot
type Config struct {
	Token string
	// Default number of questions per /quiz
	DefaultCount int
	// Kind used when /quiz names none
	DefaultKind models.Kind
	// Default study direction
	DefaultMode models.StudyMode
}

// DefaultConfig returns the default bot configuration
func DefaultConfig(token string) Config {
	return Config{
		Token:        token,
		DefaultCount: 10,
		DefaultKind:  models.KindVocabulary,
		DefaultMode:  models.StudyMixed,
	}
}
