package feed

import (
	"fmt"
	"time"

	"github.com/selivandex/spectrum-feed/pkg/models"
)

const (
	secondsPerYear  = 31536000
	secondsPerMonth = 2592000
	secondsPerDay   = 86400
	secondsPerHour  = 3600
	secondsPerMin   = 60
)

// Describe summarizes who a post mentions, e.g. "2 pessoas citadas e 1 organização citada".
// Returns an empty string when the post has no entities.
func Describe(links []models.EntityLink) string {
	var people, organizations int
	for _, link := range links {
		switch link.Entity.Type {
		case models.EntityPerson:
			people++
		case models.EntityOrganization:
			organizations++
		}
	}

	var description string
	if people > 0 {
		description = plural(people, "pessoa citada", "pessoas citadas")
	}
	if organizations > 0 {
		if description != "" {
			description += " e "
		}
		description += plural(organizations, "organização citada", "organizações citadas")
	}
	return description
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// TimeAgo renders the age of t relative to now in the feed's compact form:
// years "a", months "m", days "d", hours "h", minutes "min", seconds "s".
// A unit is used only once the age exceeds one whole unit. Future times render as "0s".
func TimeAgo(t, now time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	if seconds < 0 {
		seconds = 0
	}

	switch {
	case seconds > secondsPerYear:
		return fmt.Sprintf("%da", seconds/secondsPerYear)
	case seconds > secondsPerMonth:
		return fmt.Sprintf("%dm", seconds/secondsPerMonth)
	case seconds > secondsPerDay:
		return fmt.Sprintf("%dd", seconds/secondsPerDay)
	case seconds > secondsPerHour:
		return fmt.Sprintf("%dh", seconds/secondsPerHour)
	case seconds > secondsPerMin:
		return fmt.Sprintf("%dmin", seconds/secondsPerMin)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
