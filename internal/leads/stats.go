package leads

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nconklindev/leadbook/internal/types"
)

// MonthWindow is how many recent months Monthly reports.
const MonthWindow = 6

type Summary struct {
	Total          int
	InProgress     int
	Completed      int
	PipelineValue  float64
	ConversionRate int
}

// Summarize computes the dashboard headline numbers. In progress means
// contacted, qualified or proposal; completed means won.
func Summarize(all []types.Lead) Summary {
	var s Summary
	s.Total = len(all)
	for _, l := range all {
		switch l.Status {
		case types.StatusContacted, types.StatusQualified, types.StatusProposal:
			s.InProgress++
		case types.StatusWon:
			s.Completed++
		}
		s.PipelineValue += l.Value
	}
	if s.Total > 0 {
		s.ConversionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}

type StatusShare struct {
	Status  types.Status
	Count   int
	Percent float64
}

// Shares counts leads per stage in board order, skipping empty stages.
func Shares(all []types.Lead) []StatusShare {
	var out []StatusShare
	grouped := ByStatus(all)
	for _, st := range types.Statuses {
		n := len(grouped[st])
		if n == 0 {
			continue
		}
		out = append(out, StatusShare{Status: st, Count: n, Percent: float64(n) / float64(len(all)) * 100})
	}
	return out
}

type Month struct {
	Label          string
	Start          time.Time
	Leads          int
	Value          float64
	Won            int
	ConversionRate float64
}

// Monthly buckets leads by the month of their Date and returns the most
// recent MonthWindow months that have any leads, oldest first.
func Monthly(all []types.Lead) []Month {
	buckets := make(map[time.Time]*Month)
	for _, l := range all {
		d := l.Date.UTC()
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		m, ok := buckets[start]
		if !ok {
			m = &Month{Label: start.Format("Jan 2006"), Start: start}
			buckets[start] = m
		}
		m.Leads++
		m.Value += l.Value
		if l.Status == types.StatusWon {
			m.Won++
		}
	}

	months := make([]Month, 0, len(buckets))
	for _, m := range buckets {
		if m.Leads > 0 {
			m.ConversionRate = float64(m.Won) / float64(m.Leads) * 100
		}
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Start.Before(months[j].Start) })

	if len(months) > MonthWindow {
		months = months[len(months)-MonthWindow:]
	}
	return months
}

// FormatValue renders an amount in rupees: crores (Cr) from 1,00,00,000,
// lakhs (L) from 1,00,000, otherwise with Indian digit grouping.
func FormatValue(v float64) string {
	switch {
	case v >= 1e7:
		return fmt.Sprintf("₹%.2f Cr", v/1e7)
	case v >= 1e5:
		return fmt.Sprintf("₹%.2f L", v/1e5)
	default:
		return "₹" + groupIndian(v)
	}
}

func groupIndian(v float64) string {
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(math.Round(v*100)/100), 'f', -1, 64)

	intPart, frac, _ := strings.Cut(s, ".")
	var groups []string
	if len(intPart) > 3 {
		groups = append(groups, intPart[len(intPart)-3:])
		intPart = intPart[:len(intPart)-3]
		for len(intPart) > 2 {
			groups = append([]string{intPart[len(intPart)-2:]}, groups...)
			intPart = intPart[:len(intPart)-2]
		}
	}
	out := strings.Join(append([]string{intPart}, groups...), ",")
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
