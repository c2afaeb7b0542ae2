package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sahilchouksey/skill-academy/model"
	"gorm.io/gorm"
)

// MaxAttempts bounds the collision search in UniqueCourseSlug
const MaxAttempts = 10

var ErrExhausted = errors.New("could not find a free slug")

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with dashes
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "course"
	}
	return s
}

// UniqueCourseSlug derives a slug from title that no other course uses.
// On a clash the id of the newest clashing course is appended and the
// candidate is checked again, up to MaxAttempts times. excludeID lets a
// course keep its own slug on update.
func UniqueCourseSlug(ctx context.Context, db *gorm.DB, title string, excludeID uint) (string, error) {
	candidate := Slugify(title)

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		// Unscoped: soft-deleted rows still hold the unique index
		query := db.WithContext(ctx).Unscoped().
			Model(&model.Course{}).
			Select("id").
			Where("slug = ?", candidate)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}

		var clash model.Course
		err := query.Order("id DESC").Take(&clash).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}

		candidate = fmt.Sprintf("%s-%d", candidate, clash.ID)
	}

	return "", fmt.Errorf("%w for %q after %d attempts", ErrExhausted, title, MaxAttempts)
}
