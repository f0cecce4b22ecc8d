package playback

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/Nixie-Tech-LLC/vantage/internal/model"
	"github.com/Nixie-Tech-LLC/vantage/internal/rules"
	"github.com/Nixie-Tech-LLC/vantage/internal/schedule"
	"github.com/rs/zerolog/log"
)

const (
	SourceRule     = "rule"
	SourceSchedule = "schedule"
	SourceDefault  = "default"
	SourceNone     = "none"
)

// Item is one media slot the screen should play.
type Item struct {
	MediaID      int     `json:"media_id"`
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	Type         string  `json:"type"`
	Duration     int     `json:"duration"`
}

// Decision is what a screen should be showing right now. Items is a rotation
// for the schedule tier and a single entry for the rule and default tiers.
type Decision struct {
	ScreenID  int       `json:"screen_id"`
	Source    string    `json:"source"`
	RuleID    *int      `json:"rule_id,omitempty"`
	RuleName  string    `json:"rule_name,omitempty"`
	Items     []Item    `json:"items"`
	ETag      string    `json:"etag"`
	DecidedAt time.Time `json:"decided_at"`
}

// Inputs is everything the decision procedure looks at. Media must hold the
// output media of any rule that may win and the screen's default media.
type Inputs struct {
	Screen      model.Screen            `json:"screen"`
	Rules       []model.Rule            `json:"rules"`
	Assignments []model.Assignment      `json:"assignments"`
	Snapshot    *model.AudienceSnapshot `json:"snapshot"`
	Media       map[int]model.MediaItem `json:"media"`
}

// EffectiveSnapshot returns the audience the decision is made against. A
// missing snapshot, one captured after now, or one older than staleAfter
// counts as nobody watching.
func EffectiveSnapshot(screenID int, snap *model.AudienceSnapshot, now time.Time, staleAfter time.Duration) model.AudienceSnapshot {
	if snap == nil || snap.CapturedAt.After(now) {
		return model.AudienceSnapshot{ScreenID: screenID}
	}
	if staleAfter > 0 && now.Sub(snap.CapturedAt) > staleAfter {
		return model.AudienceSnapshot{ScreenID: screenID}
	}
	return *snap
}

// Resolve walks the tiers: audience rule, active scheduled assignments,
// screen default, nothing. It performs no I/O. A winning rule whose output
// media is absent from in.Media is skipped with a warning and the schedule
// tier is consulted instead.
func Resolve(in Inputs, now time.Time, staleAfter time.Duration) Decision {
	d := Decision{
		ScreenID:  in.Screen.ID,
		Source:    SourceNone,
		Items:     []Item{},
		DecidedAt: now,
	}
	snap := EffectiveSnapshot(in.Screen.ID, in.Snapshot, now, staleAfter)

	if winner, ok := rules.Evaluate(in.Screen.ID, snap, in.Rules); ok {
		if m, found := in.Media[winner.OutputMediaID]; found {
			id := winner.ID
			d.Source = SourceRule
			d.RuleID = &id
			d.RuleName = winner.Name
			d.Items = []Item{itemFromMedia(m, nil)}
			d.ETag = ETag(d)
			return d
		}
		log.Warn().
			Int("screen_id", in.Screen.ID).
			Int("rule_id", winner.ID).
			Int("media_id", winner.OutputMediaID).
			Msg("winning rule output media missing; falling back to schedule")
	}

	orientation := in.Screen.Orientation()
	for _, a := range in.Assignments {
		if a.Media == nil {
			continue
		}
		if !schedule.IsActive(a, now) || !schedule.MatchesAudience(a, snap, orientation) {
			continue
		}
		d.Items = append(d.Items, itemFromMedia(*a.Media, &a))
	}
	if len(d.Items) > 0 {
		d.Source = SourceSchedule
		d.ETag = ETag(d)
		return d
	}

	if in.Screen.DefaultMediaID != nil {
		if m, found := in.Media[*in.Screen.DefaultMediaID]; found {
			d.Source = SourceDefault
			d.Items = []Item{itemFromMedia(m, nil)}
		}
	}
	d.ETag = ETag(d)
	return d
}

func itemFromMedia(m model.MediaItem, a *model.Assignment) Item {
	duration := model.DefaultDurationSeconds
	if a != nil {
		duration = a.EffectiveDuration()
	} else if m.DurationSeconds != nil && *m.DurationSeconds > 0 {
		duration = *m.DurationSeconds
	}
	return Item{
		MediaID:      m.ID,
		Name:         m.Name,
		URL:          m.URL,
		ThumbnailURL: m.ThumbnailURL,
		Type:         m.Type,
		Duration:     duration,
	}
}

// ETag fingerprints what the screen would show. DecidedAt is excluded so the
// tag only changes when the content does.
func ETag(d Decision) string {
	payload, _ := json.Marshal(struct {
		ScreenID int    `json:"screen_id"`
		Source   string `json:"source"`
		RuleID   *int   `json:"rule_id"`
		Items    []Item `json:"items"`
	}{d.ScreenID, d.Source, d.RuleID, d.Items})
	sum := sha1.Sum(payload)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
