package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jholhewres/remindclaw/pkg/remindclaw/format"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/reminder"
	"github.com/jholhewres/remindclaw/pkg/remindclaw/timeparse"
)

// errNoSuchReminder aborts a removal whose position is out of range.
var errNoSuchReminder = errors.New("no such reminder")

// HandleCommand executes one prefixed command for userID. Messages that are
// not commands come back with Handled false.
func (s *Service) HandleCommand(ctx context.Context, userID, content string) CommandResult {
	body, ok := strings.CutPrefix(strings.TrimSpace(content), s.prefix)
	if !ok {
		return CommandResult{Handled: false}
	}

	cmd, args := splitWord(body)
	switch strings.ToLower(cmd) {
	case "remindme", "remindmeat", "remindmein":
		return CommandResult{Response: s.remindme(ctx, userID, args), Handled: true}
	case "time":
		return CommandResult{Response: s.timeCommand(args), Handled: true}
	case "timeto":
		return CommandResult{Response: s.timetoCommand(args), Handled: true}
	}
	return CommandResult{Handled: false}
}

// splitWord returns the first whitespace-separated word of s and the
// trimmed remainder.
func splitWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' })
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func (s *Service) remindme(ctx context.Context, userID, args string) string {
	sub, rest := splitWord(args)
	switch strings.ToLower(sub) {
	case "":
		return s.usage()
	case "list", "get":
		return s.list(ctx, userID)
	case "remove":
		return s.remove(ctx, userID, rest)
	case "purge":
		return s.purge(ctx, userID)
	case "settimezone", "settz":
		return s.setTimezone(ctx, userID, rest)
	}
	return s.create(ctx, userID, args)
}

func (s *Service) usage() string {
	p := s.prefix
	return strings.Join([]string{
		"Usage:",
		p + "remindme 2020-04-13 06:12 Do something!",
		p + "remindme 5 weeks Do something!",
		p + "remindme 4:13 PM Do something!",
		p + "remindme list | remove <n> | purge | settimezone <tz>",
		p + "time <tz>",
		p + "timeto <tz> <time>",
	}, "\n")
}

// location resolves the user's stored timezone. configured is false when
// the user never set one and UTC is used.
func (s *Service) location(ctx context.Context, userID string) (loc *time.Location, configured bool, err error) {
	tz, err := s.store.Timezone(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if tz == "" {
		return time.UTC, false, nil
	}
	loc, rerr := s.resolver.Resolve(tz)
	if rerr != nil {
		s.logger.Warn("stored timezone no longer resolves, using UTC",
			"user", userID, "timezone", tz, "error", rerr)
		return time.UTC, true, nil
	}
	return loc, true, nil
}

func (s *Service) create(ctx context.Context, userID, expr string) string {
	loc, configured, err := s.location(ctx, userID)
	if err != nil {
		return s.storeFailure("read timezone", userID, err)
	}

	if !configured && timeparse.IsAbsolute(expr) {
		return fmt.Sprintf("Please configure your timezone with `%sremindme settimezone` first.", s.prefix)
	}

	now := s.now()
	res, err := timeparse.Parse(expr, loc, now)
	if err != nil {
		return userMessage(err, expr)
	}

	r := reminder.New(res.Due, res.Text)
	err = s.store.UpdateReminders(ctx, userID, func(list []reminder.Reminder) ([]reminder.Reminder, error) {
		return append(list, r), nil
	})
	if err != nil {
		return s.storeFailure("save reminder", userID, err)
	}

	s.logger.Info("reminder created", "user", userID, "due", r.Due, "absolute", res.Absolute)

	response := "I will tell you " + format.Reminder(r.Due, r.Text, loc, now)
	if !configured {
		response += fmt.Sprintf(". Configure your timezone with `%sremindme settimezone` for accurate times.", s.prefix)
	}
	return response
}

func (s *Service) list(ctx context.Context, userID string) string {
	list, err := s.store.Reminders(ctx, userID)
	if err != nil {
		return s.storeFailure("list reminders", userID, err)
	}
	if len(list) == 0 {
		return "You have no pending reminders!"
	}

	loc, _, err := s.location(ctx, userID)
	if err != nil {
		return s.storeFailure("read timezone", userID, err)
	}

	now := s.now()
	var b strings.Builder
	b.WriteString("```\n")
	for i, r := range reminder.Sorted(list) {
		fmt.Fprintf(&b, "%d: %s\n", i+1, format.Reminder(r.Due, r.Text, loc, now))
	}
	b.WriteString("```")
	return b.String()
}

func (s *Service) remove(ctx context.Context, userID, arg string) string {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return fmt.Sprintf("Usage: %sremindme remove <n>", s.prefix)
	}

	err = s.store.UpdateReminders(ctx, userID, func(list []reminder.Reminder) ([]reminder.Reminder, error) {
		_, rest, ok := reminder.RemoveAt(list, n)
		if !ok {
			return nil, errNoSuchReminder
		}
		return rest, nil
	})
	switch {
	case errors.Is(err, errNoSuchReminder):
		return fmt.Sprintf("There is no reminder #%d", n)
	case err != nil:
		return s.storeFailure("remove reminder", userID, err)
	}
	return "Done"
}

func (s *Service) purge(ctx context.Context, userID string) string {
	if err := s.store.SetReminders(ctx, userID, nil); err != nil {
		return s.storeFailure("purge reminders", userID, err)
	}
	return "Done"
}

func (s *Service) setTimezone(ctx context.Context, userID, token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Sprintf("Usage: %sremindme settimezone <tz>", s.prefix)
	}

	loc, err := s.resolver.Resolve(token)
	if err != nil {
		return "Invalid tzstr: " + token
	}
	if err := s.store.SetTimezone(ctx, userID, token); err != nil {
		return s.storeFailure("save timezone", userID, err)
	}
	return fmt.Sprintf("Set timezone to %s (%s)", loc, format.ZoneName(loc, s.now()))
}

func (s *Service) timeCommand(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Sprintf("Usage: %stime <tz>", s.prefix)
	}

	loc, err := s.resolver.Resolve(token)
	if err != nil {
		return "Failed to parse tz: " + token
	}

	now := s.now().In(loc)
	abbr, _ := now.Zone()
	return fmt.Sprintf("The time in %s is %s", abbr, format.Clock(now))
}

func (s *Service) timetoCommand(args string) string {
	token, clock := splitWord(args)
	if token == "" || clock == "" {
		return fmt.Sprintf("Usage: %stimeto <tz> <time>", s.prefix)
	}

	loc, err := s.resolver.Resolve(token)
	if err != nil {
		return "Failed to parse tz: " + token
	}
	hour, minute, err := timeparse.ParseClock(clock)
	if err != nil {
		return "Failed to parse time: " + clock
	}

	now := s.now().In(loc)
	abbr, _ := now.Zone()
	return fmt.Sprintf("There are %s until %s in %s",
		format.HoursMinutes(timeparse.Until(now, hour, minute)), clock, abbr)
}

func (s *Service) storeFailure(op, userID string, err error) string {
	s.logger.Error("store operation failed", "op", op, "user", userID, "error", err)
	return "Something went wrong, please try again later."
}
