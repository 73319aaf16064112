package bot

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/timeparse"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/timezone"
)

// userMessage converts a parse failure into the one line shown to the user.
func userMessage(err error, input string) string {
	switch {
	case errors.Is(err, timezone.ErrInvalidTimezone):
		return "Invalid timezone: " + input
	case errors.Is(err, timeparse.ErrUnsupportedPrecision):
		return "We aren't exact enough to use seconds! If you need that precision, try this: https://www.timeanddate.com/timer/"
	case errors.Is(err, timeparse.ErrInvalidUnit):
		return "Invalid unit: " + detail(err, timeparse.ErrInvalidUnit) +
			"\nPlease use minutes, hours, days, weeks, months, or, if you're feeling especially zealous, years."
	case errors.Is(err, timeparse.ErrDurationOverflow):
		return "That's way too far in the future!  Please keep it in your lifespan!"
	case errors.Is(err, timeparse.ErrReminderInPast):
		return "You can't set a reminder in the past!  If only..."
	case errors.Is(err, timeparse.ErrInvalidDateFields):
		return capitalize(detail(err, timeparse.ErrInvalidDateFields))
	case errors.Is(err, timeparse.ErrInvalidTimeExpression):
		return "Invalid time string: " + input
	}
	return "Invalid time string: " + input
}

// detail strips the sentinel's own text from a wrapped error message.
func detail(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
