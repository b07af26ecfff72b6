package query

import "hermannm.dev/enumnames"

// Ordering is the direction of a sort.
type Ordering int8

const (
	OrderingAscending Ordering = iota + 1
	OrderingDescending
	OrderingNone
)

var orderingMap = enumnames.NewMap(map[Ordering]string{
	OrderingAscending:  "ascending",
	OrderingDescending: "descending",
	OrderingNone:       "none",
})

func (ordering Ordering) IsValid() bool {
	return orderingMap.ContainsEnumValue(ordering)
}

func (ordering Ordering) String() string {
	return orderingMap.GetNameOrFallback(ordering, "INVALID_ORDERING")
}

func (ordering Ordering) MarshalJSON() ([]byte, error) {
	return orderingMap.MarshalToNameJSON(ordering)
}

func (ordering *Ordering) UnmarshalJSON(bytes []byte) error {
	return orderingMap.UnmarshalFromNameJSON(bytes, ordering)
}

// SortingOrder is how values are compared when sorting or bounding.
type SortingOrder int8

const (
	SortingLexicographic SortingOrder = iota + 1
	SortingAlphanumeric
	SortingStrlen
	SortingNumeric
	SortingVersion
)

var sortingOrderMap = enumnames.NewMap(map[SortingOrder]string{
	SortingLexicographic: "lexicographic",
	SortingAlphanumeric:  "alphanumeric",
	SortingStrlen:        "strlen",
	SortingNumeric:       "numeric",
	SortingVersion:       "version",
})

func (order SortingOrder) IsValid() bool {
	return sortingOrderMap.ContainsEnumValue(order)
}

func (order SortingOrder) String() string {
	return sortingOrderMap.GetNameOrFallback(order, "INVALID_SORTING_ORDER")
}

func (order SortingOrder) MarshalJSON() ([]byte, error) {
	return sortingOrderMap.MarshalToNameJSON(order)
}

func (order *SortingOrder) UnmarshalJSON(bytes []byte) error {
	return sortingOrderMap.UnmarshalFromNameJSON(bytes, order)
}
