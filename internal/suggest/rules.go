package suggest

import (
	"fmt"

	"github.com/hibiki-app/hibiki/internal/model"
)

// Rule thresholds. Confidence constants are fixed by policy so generation
// stays deterministic given the same inputs.
const (
	peakMinSamples        = 3
	peakBaseConfidence    = 0.50
	peakPerSample         = 0.05
	peakMaxConfidence     = 0.95
	deficitBaseConfidence = 0.60
	deficitSpread         = 0.35
	decliningConfidence   = 0.80
	decliningLookbackDays = 14
	overloadConfidence    = 0.70
	overloadDailyHours    = 10.0
	mismatchConfidence    = 0.75
	mismatchLowEnergy     = 4.0
)

// defaultRules is the fixed, ordered rule set. Order matters twice: it is
// the dedupe priority and the tie-break for equal confidence.
func defaultRules() []rule {
	return []rule{
		rulePeakFocus,
		rulePillarDeficit,
		ruleDecliningHealth,
		ruleOverload,
		ruleEnergyMismatch,
	}
}

// rulePeakFocus proposes deep work in today's strongest learned energy
// window, provided the window has enough samples to trust and the hour is
// still unbooked.
func rulePeakFocus(e *Engine, rc ruleContext) (candidate, bool) {
	weekday := int(rc.date.Weekday())
	for _, w := range e.energy.PeakWindows(24 * 7) {
		if w.Bucket.Day != weekday || w.SampleSize < peakMinSamples {
			continue
		}
		if hourBooked(rc, w.Bucket.Hour) {
			continue
		}
		conf := peakBaseConfidence + peakPerSample*float64(min(w.SampleSize, 9))
		if conf > peakMaxConfidence {
			conf = peakMaxConfidence
		}
		return candidate{
			Type:  model.SuggestPeakFocus,
			Title: "Schedule deep work at your peak",
			Description: fmt.Sprintf(
				"Your energy around %02d:00 averages %.1f/10 — block it for focused work before the day fills up.",
				w.Bucket.Hour, w.Average),
			Confidence: conf,
			Target:     fmt.Sprintf("hour:%d:day:%d", w.Bucket.Hour, w.Bucket.Day),
			ActionData: map[string]any{"hour": w.Bucket.Hour, "day": w.Bucket.Day},
		}, true
	}
	return candidate{}, false
}

// rulePillarDeficit proposes a block for the pillar furthest below its
// daily share of the weekly target.
func rulePillarDeficit(e *Engine, rc ruleContext) (candidate, bool) {
	var worst *model.PillarInfo
	var worstDeficit, worstTarget float64
	for _, a := range rc.allocations {
		if a.TargetHours <= 0 {
			continue
		}
		deficit := a.TargetHours - a.PlannedHours
		if deficit <= 0 {
			continue
		}
		if worst == nil || deficit > worstDeficit {
			p := a.Pillar
			worst = &p
			worstDeficit = deficit
			worstTarget = a.TargetHours
		}
	}
	if worst == nil {
		return candidate{}, false
	}
	ratio := worstDeficit / worstTarget
	if ratio > 1 {
		ratio = 1
	}
	return candidate{
		Type:  model.SuggestPillarDeficit,
		Title: fmt.Sprintf("Make time for %s", worst.Name),
		Description: fmt.Sprintf(
			"%s is %.1fh short of its %.1fh daily target today.",
			worst.Name, worstDeficit, worstTarget),
		Confidence: deficitBaseConfidence + deficitSpread*ratio,
		Target:     worst.ID,
		ActionData: map[string]any{"pillar_id": worst.ID, "deficit_hours": worstDeficit},
	}, true
}

// ruleDecliningHealth flags the declining pillar with the lowest current
// score.
func ruleDecliningHealth(e *Engine, rc ruleContext) (candidate, bool) {
	var worst *model.PillarInfo
	var worstScore float64
	for _, a := range rc.allocations {
		if e.health.Trend(a.Pillar.ID, decliningLookbackDays, rc.date) != model.TrendDeclining {
			continue
		}
		latest, ok := e.health.Latest(a.Pillar.ID)
		if !ok {
			continue
		}
		if worst == nil || latest.Score < worstScore {
			p := a.Pillar
			worst = &p
			worstScore = latest.Score
		}
	}
	if worst == nil {
		return candidate{}, false
	}
	return candidate{
		Type:  model.SuggestDecliningHealth,
		Title: fmt.Sprintf("%s needs attention", worst.Name),
		Description: fmt.Sprintf(
			"%s has been trending down over the last two weeks (now %.0f/100).",
			worst.Name, worstScore),
		Confidence: decliningConfidence,
		Target:     worst.ID,
		ActionData: map[string]any{"pillar_id": worst.ID, "score": worstScore},
	}, true
}

// ruleOverload warns when the day is scheduled past a sustainable total.
func ruleOverload(e *Engine, rc ruleContext) (candidate, bool) {
	var planned float64
	for _, a := range rc.allocations {
		planned += a.PlannedHours
	}
	if planned <= overloadDailyHours {
		return candidate{}, false
	}
	day := rc.date.Format("2006-01-02")
	return candidate{
		Type:  model.SuggestOverload,
		Title: "Today looks overloaded",
		Description: fmt.Sprintf(
			"You have %.1fh scheduled — consider moving something to tomorrow.", planned),
		Confidence: overloadConfidence,
		Target:     day,
		ActionData: map[string]any{"date": day, "planned_hours": planned},
	}, true
}

// ruleEnergyMismatch flags a pending high-energy block sitting in an hour
// the profile has learned to be low-energy.
func ruleEnergyMismatch(e *Engine, rc ruleContext) (candidate, bool) {
	weekday := int(rc.date.Weekday())
	for _, b := range rc.todays {
		if b.Status != model.StatusPlanned && b.Status != model.StatusActive {
			continue
		}
		if b.EnergyRequired != model.EnergyHigh {
			continue
		}
		p := e.energy.Profile(b.StartTime.Hour(), weekday)
		if p.SampleSize == 0 || p.Average >= mismatchLowEnergy {
			continue
		}
		return candidate{
			Type:  model.SuggestEnergyMismatch,
			Title: fmt.Sprintf("Move %q to a stronger hour", b.Title),
			Description: fmt.Sprintf(
				"%q needs high energy but your %02d:00 average is %.1f/10.",
				b.Title, b.StartTime.Hour(), p.Average),
			Confidence: mismatchConfidence,
			Target:     b.ID.String(),
			ActionData: map[string]any{"block_id": b.ID.String(), "hour": b.StartTime.Hour()},
		}, true
	}
	return candidate{}, false
}

func hourBooked(rc ruleContext, hour int) bool {
	for _, b := range rc.todays {
		if b.Status == model.StatusMissed {
			continue
		}
		start := b.StartTime.Hour()
		end := b.EndTime.Hour()
		if end < start {
			end = 23
		}
		// EndTime on the hour does not occupy that hour.
		if b.EndTime.Minute() == 0 && b.EndTime.Second() == 0 && end > start {
			end--
		}
		if hour >= start && hour <= end {
			return true
		}
	}
	return false
}
