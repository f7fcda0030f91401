// Package recurrence materialises recurring time blocks inside a look-ahead
// window. Instances are computed on read and never persisted.
package recurrence

import (
	"iter"
	"slices"
	"time"

	"lifeplan/pkg/domain"
)

// MaxOccurrences caps how many instances a single block yields per expansion.
const MaxOccurrences = 1000

// instanceLayout is appended to the base ID to name an occurrence.
const instanceLayout = "20060102T1504"

// InstanceID names the occurrence of baseID starting at start.
func InstanceID(baseID string, start time.Time) string {
	return baseID + "@" + start.Format(instanceLayout)
}

// Expand yields the occurrences of block that overlap [from, to) in start
// order. A block without a recurrence rule yields itself when it overlaps the
// window. The sequence stops at the rule's Until or Count, the window end, or
// MaxOccurrences, whichever comes first.
func Expand(block domain.TimeBlock, from, to time.Time) iter.Seq[domain.TimeBlock] {
	return func(yield func(domain.TimeBlock) bool) {
		if !to.After(from) {
			return
		}
		rule := block.Recurrence
		if rule == nil || !knownFrequency(rule.Frequency) {
			if overlaps(block.Start, block.End, from, to) {
				yield(instance(block, block.ID, block.Start, block.End))
			}
			return
		}
		interval := rule.Interval
		if interval < 1 {
			interval = 1
		}
		dur := block.Duration()
		emitted := 0
		for n := firstIndex(block.Start, dur, rule.Frequency, interval, from); ; n++ {
			if rule.Count > 0 && n >= rule.Count {
				return
			}
			start := occurrence(block.Start, rule.Frequency, n*interval)
			if rule.Until != nil && start.After(*rule.Until) {
				return
			}
			if !start.Before(to) {
				return
			}
			end := start.Add(dur)
			if !end.After(from) {
				continue
			}
			if !yield(instance(block, InstanceID(block.ID, start), start, end)) {
				return
			}
			emitted++
			if emitted >= MaxOccurrences {
				return
			}
		}
	}
}

// ExpandAll expands every block and returns the instances sorted by start.
func ExpandAll(blocks []domain.TimeBlock, from, to time.Time) []domain.TimeBlock {
	var out []domain.TimeBlock
	for _, b := range blocks {
		out = slices.AppendSeq(out, Expand(b, from, to))
	}
	slices.SortStableFunc(out, func(a, b domain.TimeBlock) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

func knownFrequency(f domain.Frequency) bool {
	switch f {
	case domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyMonthly:
		return true
	}
	return false
}

func overlaps(start, end, from, to time.Time) bool {
	return start.Before(to) && end.After(from)
}

func instance(base domain.TimeBlock, id string, start, end time.Time) domain.TimeBlock {
	out := domain.CloneTimeBlock(base)
	out.ID = id
	out.Start = start
	out.End = end
	out.Recurrence = nil
	return out
}

// occurrence returns the start of the step'th repetition. Monthly steps keep
// the base day of month, clamped to the last day of shorter months.
func occurrence(base time.Time, freq domain.Frequency, step int) time.Time {
	switch freq {
	case domain.FrequencyDaily:
		return base.AddDate(0, 0, step)
	case domain.FrequencyWeekly:
		return base.AddDate(0, 0, 7*step)
	default:
		first := time.Date(base.Year(), base.Month()+time.Month(step), 1,
			base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())
		day := min(base.Day(), daysIn(first.Year(), first.Month(), base.Location()))
		return time.Date(first.Year(), first.Month(), day,
			base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())
	}
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// firstIndex skips repetitions that end before the window opens. It errs low;
// Expand filters the remainder.
func firstIndex(base time.Time, dur time.Duration, freq domain.Frequency, interval int, from time.Time) int {
	gap := from.Sub(base) - dur
	if gap <= 0 {
		return 0
	}
	var n int
	switch freq {
	case domain.FrequencyDaily:
		n = int(gap/(24*time.Hour)) / interval
	case domain.FrequencyWeekly:
		n = int(gap/(7*24*time.Hour)) / interval
	default:
		n = int(gap/(31*24*time.Hour)) / interval
	}
	n -= 2
	if n < 0 {
		return 0
	}
	return n
}
