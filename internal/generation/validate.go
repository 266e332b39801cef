package generation

import (
	"log/slog"
	"strings"
	"time"

	"github.com/templui/goalplanner/internal/apperr"
	"github.com/templui/goalplanner/internal/model"
)

const (
	PlaceholderID       = "1"
	DefaultDeadlineDays = 30
)

// DeadlineLayouts are tried in order; the first that parses wins.
var DeadlineLayouts = []string{
	"2006-01-02", // yyyy-MM-dd
	"02/01/2006", // dd/MM/yyyy
	"01/02/2006", // MM/dd/yyyy
	"2006/01/02", // yyyy/MM/dd
	"02-01-2006", // dd-MM-yyyy
}

var (
	ErrTitleRequired        = apperr.New(apperr.ErrInvalidGeneratedGoal, "title required")
	ErrSubgoalsRequired     = apperr.New(apperr.ErrInvalidGeneratedGoal, "at least one subgoal required")
	ErrSubgoalTitleRequired = apperr.New(apperr.ErrInvalidGeneratedGoal, "subgoal title required")
)

// ValidatedGoal has every field present and defaulted. Deadline is in the
// canonical YYYY-MM-DD form.
type ValidatedGoal struct {
	ID          string
	Title       string
	Description string
	Deadline    string
	Subgoals    []ValidatedSubgoal
}

type ValidatedSubgoal struct {
	Title       string
	Description string
}

type Validator struct {
	now func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// ValidateAndFix repairs cosmetic gaps and rejects records whose meaning
// would have to be invented: a missing goal title, no subgoals, or an
// unnamed subgoal.
func (v *Validator) ValidateAndFix(pg ProvisionalGoal) (ValidatedGoal, error) {
	var out ValidatedGoal

	out.ID = trimmed(pg.ID)
	if out.ID == "" {
		out.ID = PlaceholderID
	}

	out.Title = trimmed(pg.Title)
	if out.Title == "" {
		return ValidatedGoal{}, ErrTitleRequired
	}

	out.Description = orDefault(trimmed(pg.Description), model.DefaultDescription)
	out.Deadline = v.fixDeadline(trimmed(pg.Deadline))

	if len(pg.Subgoals) == 0 {
		return ValidatedGoal{}, ErrSubgoalsRequired
	}

	out.Subgoals = make([]ValidatedSubgoal, 0, len(pg.Subgoals))
	for _, sub := range pg.Subgoals {
		title := trimmed(sub.Title)
		if title == "" {
			return ValidatedGoal{}, ErrSubgoalTitleRequired
		}
		out.Subgoals = append(out.Subgoals, ValidatedSubgoal{
			Title:       title,
			Description: orDefault(trimmed(sub.Description), model.DefaultDescription),
		})
	}

	return out, nil
}

func (v *Validator) fixDeadline(deadline string) string {
	if d, ok := ParseDeadline(deadline); ok {
		return d.String()
	}
	if deadline != "" {
		slog.Warn("could not parse deadline, using default", "deadline", deadline, "days", DefaultDeadlineDays)
	}
	return v.DefaultDeadline().String()
}

// DefaultDeadline is today plus DefaultDeadlineDays on the validator's clock.
func (v *Validator) DefaultDeadline() model.Date {
	return model.DateOf(v.now()).AddDays(DefaultDeadlineDays)
}

// ParseDeadline tries each of DeadlineLayouts in order.
func ParseDeadline(s string) (model.Date, bool) {
	if s == "" {
		return model.Date{}, false
	}
	for _, layout := range DeadlineLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return model.DateOf(t), true
		}
	}
	return model.Date{}, false
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
