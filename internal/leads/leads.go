// Package leads holds the in-memory collection operations the host
// performs between loads and saves.
package leads

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nconklindev/leadbook/internal/types"
)

var (
	now   = time.Now
	newID = uuid.NewString
)

// New stamps a fresh id and timestamps onto l.
func New(l types.Lead) types.Lead {
	ts := now().UTC()
	l.ID = newID()
	l.CreatedAt = ts
	l.UpdatedAt = ts
	return l
}

// Add puts a new lead at the front of the collection.
func Add(all []types.Lead, l types.Lead) ([]types.Lead, types.Lead) {
	l = New(l)
	out := make([]types.Lead, 0, len(all)+1)
	out = append(out, l)
	return append(out, all...), l
}

// Update applies fn to the lead with the given id and refreshes UpdatedAt.
// It reports whether the lead was found.
func Update(all []types.Lead, id string, fn func(*types.Lead)) bool {
	for i := range all {
		if all[i].ID == id {
			fn(&all[i])
			all[i].ID = id
			all[i].UpdatedAt = now().UTC()
			return true
		}
	}
	return false
}

// SetStatus moves a lead to another pipeline stage.
func SetStatus(all []types.Lead, id string, status types.Status) bool {
	return Update(all, id, func(l *types.Lead) { l.Status = status })
}

// Delete removes the lead with the given id.
func Delete(all []types.Lead, id string) []types.Lead {
	out := all[:0:0]
	for _, l := range all {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

// Find returns the lead with the given id.
func Find(all []types.Lead, id string) (types.Lead, bool) {
	for _, l := range all {
		if l.ID == id {
			return l, true
		}
	}
	return types.Lead{}, false
}

// Merge appends imported leads. An imported id that is already taken is
// replaced with a fresh one so ids stay unique.
func Merge(all, imported []types.Lead) []types.Lead {
	seen := make(map[string]bool, len(all)+len(imported))
	for _, l := range all {
		seen[l.ID] = true
	}

	out := make([]types.Lead, 0, len(all)+len(imported))
	out = append(out, all...)
	for _, l := range imported {
		if l.ID == "" || seen[l.ID] {
			l.ID = newID()
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out
}

// Filter keeps leads matching every whitespace-separated term of query,
// case-insensitively, across title, client, email, description, status
// and priority. An empty query matches everything.
func Filter(all []types.Lead, query string) []types.Lead {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return all
	}

	var out []types.Lead
	for _, l := range all {
		haystack := strings.ToLower(strings.Join([]string{
			l.Title, l.Client, l.Email, l.Description, string(l.Status), string(l.Priority),
		}, " "))

		match := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				match = false
				break
			}
		}
		if match {
			out = append(out, l)
		}
	}
	return out
}

// ByStatus groups leads by pipeline stage, keeping collection order.
func ByStatus(all []types.Lead) map[types.Status][]types.Lead {
	out := make(map[types.Status][]types.Lead, len(types.Statuses))
	for _, l := range all {
		out[l.Status] = append(out[l.Status], l)
	}
	return out
}
