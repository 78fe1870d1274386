package engine

// Options tunes the engine. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// MaxIndent is the deepest nesting level a list item can be indented to.
	MaxIndent int

	// HeadingSizes maps heading levels 1-6 to projected font sizes.
	// Out-of-range levels clamp to the nearest entry.
	HeadingSizes [6]float64
}

// DefaultOptions returns the stock engine tuning.
func DefaultOptions() Options {
	return Options{
		MaxIndent:    3,
		HeadingSizes: [6]float64{28, 24, 20, 18, 16, 14},
	}
}

func (o Options) headingSize(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return o.HeadingSizes[level-1]
}
