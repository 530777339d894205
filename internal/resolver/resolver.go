// Package resolver maps a vague natural-language reference ("cancel the 2nd
// one on Thursday") to one specific reminder. It is deliberately heuristic:
// the trade-off is not having to expose reminder ids to users. A nil result
// is a defined outcome meaning "ask the user to list reminders and retry",
// never an error.
package resolver

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"remindbot/internal/reminder"
	"remindbot/internal/storage"
	logx "remindbot/pkg/logx"
)

// Hint carries a pre-parsed reference from the language-understanding
// collaborator. When present it short-circuits the resolver's own text
// parsing.
type Hint struct {
	Day      string
	Position int
}

type Service struct {
	store storage.Store
	log   logx.Logger
}

func New(store storage.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{store: store, log: log}
}

var (
	dayPrefixedRe = regexp.MustCompile(`(?i)(?:from|on|for)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)
	dayBareRe     = regexp.MustCompile(`(?i)(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)
	positionRe    = regexp.MustCompile(`(?i)(\d+)[.:]|number (\d+)|reminder (\d+)`)
)

// ExtractDayAndPosition pulls a weekday token and a positional ordinal out of
// free text. Either may be absent (day == "", position == 0).
func ExtractDayAndPosition(text string) (day string, position int) {
	if m := dayPrefixedRe.FindStringSubmatch(text); m != nil {
		day = m[1]
	} else if m := dayBareRe.FindStringSubmatch(text); m != nil {
		day = m[1]
	}

	if m := positionRe.FindStringSubmatch(text); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				position, _ = strconv.Atoi(g)
				break
			}
		}
	}
	return day, position
}

// Identify resolves the owner's free-text reference to one reminder:
// positional (day + ordinal) first, then the single-active shortcut, then
// content similarity. Returns (nil, nil) when nothing matches confidently.
func (s *Service) Identify(ctx context.Context, ownerID, text string, hint *Hint) (*reminder.Reminder, error) {
	day, pos := "", 0
	if hint != nil {
		day, pos = hint.Day, hint.Position
	}
	if pos == 0 {
		day, pos = ExtractDayAndPosition(text)
	}

	if pos > 0 {
		r, err := s.byPositionInDay(ctx, ownerID, pos, day)
		if err != nil {
			return nil, err
		}
		if r != nil {
			s.log.Debug("resolved by position",
				logx.String("owner", ownerID), logx.Int("position", pos), logx.String("day", day))
			return r, nil
		}
	}

	active, err := s.activeStandard(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(active) == 1 {
		return active[0], nil
	}

	if r := matchByContent(active, text); r != nil {
		s.log.Debug("resolved by content", logx.String("owner", ownerID), logx.String("id", r.ID))
		return r, nil
	}
	return nil, nil
}

// byPositionInDay groups the owner's pending reminders by the weekday name of
// each reminder's scheduled time (in its own zone), sorts each group by time,
// and indexes into it. With no day token the ordinal is consumed across
// groups in iteration order, mirroring how users count down a mixed listing.
func (s *Service) byPositionInDay(ctx context.Context, ownerID string, position int, day string) (*reminder.Reminder, error) {
	if position < 1 {
		return nil, nil
	}
	all, err := s.store.Find(ctx, storage.Filter{
		OwnerID:   ownerID,
		StatusNot: reminder.StatusCompleted,
	}, storage.SortByScheduledTime, 0)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	byDay := map[string][]*reminder.Reminder{}
	for _, r := range all {
		name := r.Weekday().String()
		byDay[name] = append(byDay[name], r)
	}
	// Groups inherit the store's ascending time order.

	if day != "" {
		want := strings.ToLower(day)
		for name, group := range byDay {
			if strings.ToLower(name) == want {
				if position <= len(group) {
					return group[position-1], nil
				}
				return nil, nil
			}
		}
		return nil, nil
	}

	for _, group := range byDay {
		if position <= len(group) {
			return group[position-1], nil
		}
		position -= len(group)
	}
	return nil, nil
}

func (s *Service) activeStandard(ctx context.Context, ownerID string) ([]*reminder.Reminder, error) {
	completed := false
	return s.store.Find(ctx, storage.Filter{
		OwnerID:   ownerID,
		Kind:      reminder.KindStandard,
		StatusNot: reminder.StatusCompleted,
		Completed: &completed,
	}, storage.SortByScheduledTime, 0)
}

// matchByContent picks the reminder whose text best matches the message:
// containment either way or a token-overlap score above the threshold wins
// outright; failing that, a single weak-but-unique overlap is accepted.
// Ambiguous weak overlaps resolve to nothing.
func matchByContent(rs []*reminder.Reminder, text string) *reminder.Reminder {
	msg := strings.ToLower(text)

	var (
		weak      *reminder.Reminder
		weakCount int
	)
	for _, r := range rs {
		rt := strings.ToLower(r.Text)
		if rt == "" {
			continue
		}
		if strings.Contains(msg, rt) || strings.Contains(rt, msg) {
			return r
		}
		score := tokenOverlap(msg, rt)
		if score > 0.7 {
			return r
		}
		if score > 0 {
			weak = r
			weakCount++
		}
	}
	if weakCount == 1 {
		return weak
	}
	return nil
}

// tokenOverlap counts shared words longer than two characters, divided by
// the larger word count of the two strings.
func tokenOverlap(a, b string) float64 {
	wa := strings.Fields(a)
	wb := strings.Fields(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		set[w] = struct{}{}
	}
	shared := 0
	for _, w := range wa {
		if len(w) <= 2 {
			continue
		}
		if _, ok := set[w]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	larger := len(wa)
	if len(wb) > larger {
		larger = len(wb)
	}
	return float64(shared) / float64(larger)
}
