package value

// Upstream auction category codes.
const (
	CategoryCodeDefault   = 10000
	CategoryCodeStone     = 30000
	CategoryCodeAccessory = 200000
	CategoryCodeGem       = 210000
)

// Upstream EtcOptions group codes.
const (
	GroupCombatStat = 2
	GroupEngrave    = 3
	GroupPenalty    = 6
)

// OptionEntry maps a saved option name to the upstream (group, sub) codes.
type OptionEntry struct {
	Group int
	Sub   int
}

// OptionTable is an immutable lookup from option names to upstream filter
// codes, plus the per-category list of option groups that actually
// discriminate listings. Built once at startup and injected (no ambient
// globals), so substitute tables can be used in tests.
type OptionTable struct {
	entries        map[string]OptionEntry
	categoryGroups map[int][]int
	defaultGroups  []int
}

func NewOptionTable(
	entries map[string]OptionEntry,
	categoryGroups map[int][]int,
	defaultGroups []int,
) *OptionTable {
	copied := make(map[string]OptionEntry, len(entries))
	for name, entry := range entries {
		copied[name] = entry
	}

	groups := make(map[int][]int, len(categoryGroups))
	for code, g := range categoryGroups {
		groups[code] = append([]int(nil), g...)
	}

	return &OptionTable{
		entries:        copied,
		categoryGroups: groups,
		defaultGroups:  append([]int(nil), defaultGroups...),
	}
}

// Lookup returns the filter codes for an option name.
func (t *OptionTable) Lookup(name string) (OptionEntry, bool) {
	entry, ok := t.entries[name]
	return entry, ok
}

// GroupsForCategory returns the option groups relevant for an upstream
// category code. Ability stones are special-cased to the engrave group only:
// penalty and secondary groups on stones do not discriminate listings.
func (t *OptionTable) GroupsForCategory(categoryCode int) []int {
	if categoryCode == CategoryCodeStone {
		return []int{GroupEngrave}
	}

	if groups, ok := t.categoryGroups[categoryCode]; ok {
		return append([]int(nil), groups...)
	}

	return append([]int(nil), t.defaultGroups...)
}

// DefaultOptionTable is the production lookup table. Names are stored the way
// favorites persist them (upstream display strings).
func DefaultOptionTable() *OptionTable {
	return NewOptionTable(
		map[string]OptionEntry{
			// Combat stats.
			"치명": {Group: GroupCombatStat, Sub: 15},
			"특화": {Group: GroupCombatStat, Sub: 16},
			"신속": {Group: GroupCombatStat, Sub: 17},
			"제압": {Group: GroupCombatStat, Sub: 18},
			"인내": {Group: GroupCombatStat, Sub: 19},
			"숙련": {Group: GroupCombatStat, Sub: 20},

			// Engrave effects.
			"원한":      {Group: GroupEngrave, Sub: 118},
			"예리한 둔기":  {Group: GroupEngrave, Sub: 255},
			"아드레날린":   {Group: GroupEngrave, Sub: 91},
			"돌격대장":    {Group: GroupEngrave, Sub: 188},
			"기습의 대가":  {Group: GroupEngrave, Sub: 19},
			"저주받은 인형": {Group: GroupEngrave, Sub: 140},
			"타격의 대가":  {Group: GroupEngrave, Sub: 170},
			"정기 흡수":   {Group: GroupEngrave, Sub: 150},
			"질량 증가":   {Group: GroupEngrave, Sub: 244},
			"결투의 대가":  {Group: GroupEngrave, Sub: 134},

			// Penalties.
			"공격력 감소":  {Group: GroupPenalty, Sub: 1},
			"공격속도 감소": {Group: GroupPenalty, Sub: 2},
			"방어력 감소":  {Group: GroupPenalty, Sub: 3},
			"이동속도 감소": {Group: GroupPenalty, Sub: 4},
		},
		map[int][]int{
			CategoryCodeAccessory: {GroupCombatStat, GroupEngrave},
			CategoryCodeStone:     {GroupEngrave, GroupPenalty},
		},
		nil,
	)
}
