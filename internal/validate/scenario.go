// Package validate drives the injection pipeline against a running
// application with a battery of text scenarios, reads the delivered
// text back, scores it, and records which strategies actually work so
// live dictation can prefer them.
package validate

// Scenario is one literal text sample representing an input category.
type Scenario struct {
	Name     string
	Category string
	Text     string
}

// Scenario categories.
const (
	CategoryASCII       = "ascii"
	CategoryUnicode     = "unicode"
	CategoryPunctuation = "punctuation"
	CategoryWhitespace  = "whitespace"
	CategoryCode        = "code"
)

// BuiltinScenarios returns the standard validation battery.
func BuiltinScenarios() []Scenario {
	return []Scenario{
		{
			Name:     "plain-ascii",
			Category: CategoryASCII,
			Text:     "The quick brown fox jumps over the lazy dog.",
		},
		{
			Name:     "accented-and-cjk",
			Category: CategoryUnicode,
			Text:     "héllo 世界 🎉 — naïve façade über Škoda",
		},
		{
			Name:     "punctuation-specials",
			Category: CategoryPunctuation,
			Text:     `"Quotes", 'apostrophes', ampersands & <angle> brackets; 50% off! #1 @user ~$5`,
		},
		{
			Name:     "newlines-and-tabs",
			Category: CategoryWhitespace,
			Text:     "Line one\nLine two\tTabbed",
		},
		{
			Name:     "code-snippet",
			Category: CategoryCode,
			Text:     "if err != nil {\n\treturn fmt.Errorf(\"inject: %w\", err)\n}\n",
		},
	}
}
