package query

// LimitSpec sorts and limits group-by results. Columns are applied in order.
type LimitSpec struct {
	Limit   int                 `json:"limit"`
	Columns []OrderByColumnSpec `json:"columns"`
}

type OrderByColumnSpec struct {
	Dimension      string       `json:"dimension"`
	Direction      Ordering     `json:"direction"`
	DimensionOrder SortingOrder `json:"dimensionOrder,omitempty"`
}

func Limit(limit int, columns ...OrderByColumnSpec) LimitSpec {
	return LimitSpec{Limit: limit, Columns: columns}
}

func OrderBy(dimension string, direction Ordering, dimensionOrder SortingOrder) OrderByColumnSpec {
	return OrderByColumnSpec{
		Dimension:      dimension,
		Direction:      direction,
		DimensionOrder: dimensionOrder,
	}
}

func (limitSpec LimitSpec) MarshalJSON() ([]byte, error) {
	type fields LimitSpec
	return marshalTagged(typeField, "default", fields(limitSpec))
}
