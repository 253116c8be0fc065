// Package dedup resolves a candidate member name against an existing roster.
//
// Members sharing a base name are disambiguated with numeric suffixes. The
// first duplicate promotes the unsuffixed original to "-1" and receives the
// next free number; later duplicates continue from the highest number seen.
//
// Resolution is deterministic and synchronous: same inputs, same result.
package dedup

import (
	"slices"

	"github.com/roach88/teamsplit/internal/ir"
)

// NoPromotion is the Promote index when no existing entry is renamed.
const NoPromotion = -1

// Resolution is the outcome of resolving a candidate base name.
//
// When Promote is not NoPromotion, the caller must rename
// existing[Promote] to Numbered(base, PromoteTo) alongside inserting Name.
type Resolution struct {
	Name      ir.Name
	Promote   int
	PromoteTo int
}

// Resolve computes the name to insert for base given the existing roster.
//
// Single pass over existing:
//   - entries with a different base are ignored
//   - an unsuffixed entry equal to base is the promotion candidate
//   - numeric suffixes contribute to the running maximum
//   - free-text suffixes count as a collision but not toward the maximum
//
// With no collision the result is base unsuffixed. Otherwise the
// unsuffixed entry (if any) is promoted to 1, or to the next free number
// when 1 is already held, and the new entry receives max(numbers, 1) + 1.
// The returned Name never equals any existing entry.
func Resolve(base string, existing []ir.Name) Resolution {
	collided := false
	unsuffixed := NoPromotion
	maxNumber := 0
	holdsOne := false

	for i, e := range existing {
		if e.Base != base {
			continue
		}
		collided = true
		switch {
		case e.Number > 0:
			maxNumber = max(maxNumber, e.Number)
			if e.Number == 1 {
				holdsOne = true
			}
		case e.Tag == "":
			unsuffixed = i
		}
	}

	if !collided {
		return Resolution{Name: ir.NewName(base), Promote: NoPromotion}
	}

	res := Resolution{Promote: NoPromotion}
	if unsuffixed != NoPromotion {
		res.Promote = unsuffixed
		res.PromoteTo = 1
		if holdsOne {
			maxNumber++
			res.PromoteTo = maxNumber
		}
		maxNumber = max(maxNumber, res.PromoteTo)
	}
	res.Name = ir.Numbered(base, max(maxNumber, 1)+1)
	return res
}

// Apply returns a new roster with the resolution's promotion applied and its
// name appended. The input slice is not modified.
func Apply(existing []ir.Name, r Resolution) []ir.Name {
	out := slices.Clone(existing)
	if r.Promote >= 0 && r.Promote < len(out) {
		out[r.Promote] = ir.Numbered(out[r.Promote].Base, r.PromoteTo)
	}
	return append(out, r.Name)
}

// Add resolves base against existing and applies the result.
func Add(existing []ir.Name, base string) []ir.Name {
	return Apply(existing, Resolve(base, existing))
}

// AddName inserts a parsed name. A name typed with its own suffix ("Kim-2",
// "Kim (x)") is kept as given unless an equal member exists, in which case it
// is resolved against its base like a bare name.
func AddName(existing []ir.Name, name ir.Name) []ir.Name {
	if name.HasSuffix() && !slices.Contains(existing, name) {
		return append(slices.Clone(existing), name)
	}
	return Add(existing, name.Base)
}

// Collapse strips the suffix of the sole remaining member with base when that
// member holds the numeral 1. A lone survivor no longer needs disambiguation.
// The input slice is not modified.
func Collapse(members []ir.Name, base string) []ir.Name {
	idx := NoPromotion
	count := 0
	for i, m := range members {
		if m.Base == base {
			count++
			idx = i
		}
	}
	if count != 1 || members[idx].Number != 1 {
		return members
	}
	out := slices.Clone(members)
	out[idx] = out[idx].Unsuffixed()
	return out
}
