package value

// ItemOption is one saved option of a favorite, e.g. an engrave with its
// numeric level.
type ItemOption struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// OptionFilter is one entry of the upstream EtcOptions request block.
// Nil Min/MaxValue means "existence only" (the loose stone filter);
// equal non-nil bounds mean an exact level match.
type OptionFilter struct {
	FirstOption  int      `json:"FirstOption"`
	SecondOption int      `json:"SecondOption"`
	MinValue     *float64 `json:"MinValue"`
	MaxValue     *float64 `json:"MaxValue"`
}
