package roast

import (
	"context"
	"math/rand"

	"passroast-server/pkg/analyzer"

	"github.com/sirupsen/logrus"
)

// fallbackRoasts is the canned corpus, keyed by strength tier
var fallbackRoasts = map[string][]string{
	analyzer.StrengthVeryWeak: {
		"🔥 Yikes! This password is weaker than a wet paper towel! Even my grandma's cat could guess this!",
		"💀 Bruh... did you just mash your forehead on the keyboard? This is BAD!",
		"🚨 ALERT! This password screams 'HACK ME PLEASE!' to every bot on the internet!",
		"😂 This password is so weak, it probably uses 'password' as its password!",
		"📉 My disappointment is immeasurable, and my day is ruined. Please try again!",
	},
	analyzer.StrengthWeak: {
		"😬 Oof! This password is trying its best, but it's still snack food for hackers!",
		"🤔 Interesting choice... if 'interesting' means 'easily guessable by a potato!'",
		"🎯 Hackers love passwords like this - they're low-hanging fruit!",
		"💤 This password is putting me to sleep... and probably hackers too (from boredom!)",
		"📝 Pro tip: Maybe don't use words that actually exist in any language?",
	},
	analyzer.StrengthFair: {
		"🤨 Not terrible, but not great either. It's like bringing a spoon to a knife fight!",
		"🎪 This password is walking the tightrope between 'meh' and 'okay I guess'!",
		"⚖️ On one hand: some good elements. On the other: room for SO much improvement!",
		"🏗️ There's a foundation here... now let's build a skyscraper, not a shed!",
		"📊 Statistically speaking: better than 'password123', worse than 'actually secure'!",
	},
	analyzer.StrengthStrong: {
		"👍 Okay, okay! This password has some swagger! Hackers will need to work for this one!",
		"🛡️ Now we're talking! This password could probably defend a small castle!",
		"💪 Look at you, being all secure and stuff! I'm genuinely impressed!",
		"🎯 Bullseye! This password hits the sweet spot between memorable and secure!",
		"🌟 Shining brighter than a hacker's tears! This is quality password craftsmanship!",
	},
	analyzer.StrengthVeryStrong: {
		"🎉 HOLY MOLY! This password is Fort Knox-level secure! Are you a cybersecurity wizard?!",
		"🏆 Trophy unlocked: 'Uncrackable Beast'! Hackers everywhere are crying!",
		"🚀 To infinity and beyond! This password could probably secure NASA's systems!",
		"💎 Diamond hands! This password is precious and virtually unbreakable!",
		"👑 All hail the Password King/Queen! This is absolute perfection! 🎊",
	},
}

// FallbackProvider serves canned roasts keyed by strength tier. It needs no
// configuration and never fails, which makes it the terminal fallback.
type FallbackProvider struct {
	logger *logrus.Logger
}

// NewFallbackProvider creates the canned roast provider
func NewFallbackProvider(logger *logrus.Logger) *FallbackProvider {
	return &FallbackProvider{logger: logger}
}

// Name returns the provider name
func (p *FallbackProvider) Name() string {
	return "fallback"
}

// Initialize initializes the fallback provider
func (p *FallbackProvider) Initialize() error {
	p.logger.Info("Fallback roast provider initialized")
	return nil
}

// Roast implements the Provider interface
func (p *FallbackProvider) Roast(ctx context.Context, analysis *analyzer.Analysis) (string, error) {
	return p.Pick(analysis.Strength), nil
}

// Pick returns a random canned roast for the tier. Unknown tiers borrow
// from the WEAK corpus.
func (p *FallbackProvider) Pick(strength string) string {
	roasts, ok := fallbackRoasts[strength]
	if !ok {
		roasts = fallbackRoasts[analyzer.StrengthWeak]
	}
	return roasts[rand.Intn(len(roasts))]
}
