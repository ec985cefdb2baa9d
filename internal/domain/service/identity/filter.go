package identity

import (
	"math"

	"aucwatch/internal/domain/value"
)

// defaultFilterValue substitutes a non-finite saved option value in an
// exact-match filter.
const defaultFilterValue = 10

// CategoryCodeFor maps a semantic category to the upstream auction search
// category code.
func CategoryCodeFor(cat value.Category) int {
	switch cat {
	case value.CategoryStone:
		return value.CategoryCodeStone
	case value.CategoryGem:
		return value.CategoryCodeGem
	case value.CategoryAccessory:
		return value.CategoryCodeAccessory
	default:
		return value.CategoryCodeDefault
	}
}

// AllowedGroupsForCategory returns the option-group codes relevant for an
// upstream category code.
func (e *Engine) AllowedGroupsForCategory(categoryCode int) []int {
	return e.table.GroupsForCategory(categoryCode)
}

// BuildOptionFilters maps saved favorite options into the upstream option
// filter shape. Options whose name is unknown to the table or whose group is
// not allowed are dropped silently. With loose set (stones) the filters match
// on existence only; otherwise min and max are pinned to the saved value, so
// accessories match the exact engrave level.
func (e *Engine) BuildOptionFilters(
	options []value.ItemOption,
	allowedGroups []int,
	loose bool,
) []value.OptionFilter {
	allowed := make(map[int]struct{}, len(allowedGroups))
	for _, g := range allowedGroups {
		allowed[g] = struct{}{}
	}

	filters := make([]value.OptionFilter, 0, len(options))

	for _, opt := range options {
		entry, ok := e.table.Lookup(opt.Name)
		if !ok {
			continue
		}
		if _, ok := allowed[entry.Group]; !ok {
			continue
		}

		filter := value.OptionFilter{
			FirstOption:  entry.Group,
			SecondOption: entry.Sub,
		}

		if !loose {
			v := opt.Value
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = defaultFilterValue
			}
			filter.MinValue = &v
			filter.MaxValue = &v
		}

		filters = append(filters, filter)
	}

	return filters
}
