package value

// Category is the semantic class of a tracked item. It decides which
// attributes participate in listing identity and which option groups are
// meaningful for search filtering.
type Category string

const (
	CategoryGem       Category = "gem"
	CategoryStone     Category = "stone"
	CategoryBook      Category = "book"
	CategoryAccessory Category = "accessory"
	CategoryGeneric   Category = "generic"
)

func (c Category) String() string {
	return string(c)
}

// Source tells where a favorite is traded.
type Source string

const (
	SourceAuction Source = "auction"
	SourceMarket  Source = "market"
)

func (s Source) String() string {
	return string(s)
}

func (s Source) Valid() bool {
	return s == SourceAuction || s == SourceMarket
}
