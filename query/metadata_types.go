package query

import (
	"encoding/json"
	"fmt"

	"hermannm.dev/enumnames"
)

// TimeBoundType limits a time boundary query to one end of the data's time range.
type TimeBoundType int8

const (
	TimeBoundMaxTime TimeBoundType = iota + 1
	TimeBoundMinTime
)

var timeBoundTypeMap = enumnames.NewMap(map[TimeBoundType]string{
	TimeBoundMaxTime: "maxTime",
	TimeBoundMinTime: "minTime",
})

func (bound TimeBoundType) IsValid() bool {
	return timeBoundTypeMap.ContainsEnumValue(bound)
}

func (bound TimeBoundType) String() string {
	return timeBoundTypeMap.GetNameOrFallback(bound, "INVALID_TIME_BOUND")
}

func (bound TimeBoundType) MarshalJSON() ([]byte, error) {
	return timeBoundTypeMap.MarshalToNameJSON(bound)
}

func (bound *TimeBoundType) UnmarshalJSON(bytes []byte) error {
	return timeBoundTypeMap.UnmarshalFromNameJSON(bytes, bound)
}

// AnalysisType selects a column property computed by a segment metadata query.
type AnalysisType int8

const (
	AnalysisCardinality AnalysisType = iota + 1
	AnalysisMinMax
	AnalysisSize
	AnalysisInterval
	AnalysisTimestampSpec
	AnalysisQueryGranularity
	AnalysisAggregators
	AnalysisRollup
)

var analysisTypeMap = enumnames.NewMap(map[AnalysisType]string{
	AnalysisCardinality:      "cardinality",
	AnalysisMinMax:           "minmax",
	AnalysisSize:             "size",
	AnalysisInterval:         "interval",
	AnalysisTimestampSpec:    "timestampSpec",
	AnalysisQueryGranularity: "queryGranularity",
	AnalysisAggregators:      "aggregators",
	AnalysisRollup:           "rollup",
})

func (analysisType AnalysisType) IsValid() bool {
	return analysisTypeMap.ContainsEnumValue(analysisType)
}

func (analysisType AnalysisType) String() string {
	return analysisTypeMap.GetNameOrFallback(analysisType, "INVALID_ANALYSIS_TYPE")
}

func (analysisType AnalysisType) MarshalJSON() ([]byte, error) {
	return analysisTypeMap.MarshalToNameJSON(analysisType)
}

func (analysisType *AnalysisType) UnmarshalJSON(bytes []byte) error {
	return analysisTypeMap.UnmarshalFromNameJSON(bytes, analysisType)
}

// HllType is the target HLL sketch representation of an HLLSketchBuild aggregation.
type HllType int8

const (
	HLL4 HllType = iota + 1
	HLL6
	HLL8
)

var hllTypeMap = enumnames.NewMap(map[HllType]string{
	HLL4: "HLL_4",
	HLL6: "HLL_6",
	HLL8: "HLL_8",
})

func (hllType HllType) IsValid() bool {
	return hllTypeMap.ContainsEnumValue(hllType)
}

func (hllType HllType) String() string {
	return hllTypeMap.GetNameOrFallback(hllType, "INVALID_HLL_TYPE")
}

func (hllType HllType) MarshalJSON() ([]byte, error) {
	return hllTypeMap.MarshalToNameJSON(hllType)
}

func (hllType *HllType) UnmarshalJSON(bytes []byte) error {
	return hllTypeMap.UnmarshalFromNameJSON(bytes, hllType)
}

// ToInclude selects the columns a segment metadata query reports on.
type ToInclude struct {
	Kind ToIncludeKind
	// Only for ToIncludeList.
	Columns []string
}

type ToIncludeKind int8

const (
	ToIncludeAll ToIncludeKind = iota + 1
	ToIncludeNone
	ToIncludeList
)

var toIncludeKindMap = enumnames.NewMap(map[ToIncludeKind]string{
	ToIncludeAll:  "all",
	ToIncludeNone: "none",
	ToIncludeList: "list",
})

func (kind ToIncludeKind) IsValid() bool {
	return toIncludeKindMap.ContainsEnumValue(kind)
}

func (kind ToIncludeKind) String() string {
	return toIncludeKindMap.GetNameOrFallback(kind, "INVALID_TO_INCLUDE")
}

func (kind ToIncludeKind) MarshalJSON() ([]byte, error) {
	return toIncludeKindMap.MarshalToNameJSON(kind)
}

func (kind *ToIncludeKind) UnmarshalJSON(bytes []byte) error {
	return toIncludeKindMap.UnmarshalFromNameJSON(bytes, kind)
}

func IncludeAll() ToInclude {
	return ToInclude{Kind: ToIncludeAll}
}

func IncludeNone() ToInclude {
	return ToInclude{Kind: ToIncludeNone}
}

func IncludeColumns(columns ...string) ToInclude {
	return ToInclude{Kind: ToIncludeList, Columns: columns}
}

type toIncludeListFields struct {
	Columns []string `json:"columns"`
}

func (toInclude ToInclude) MarshalJSON() ([]byte, error) {
	if !toInclude.Kind.IsValid() {
		return nil, fmt.Errorf("invalid toInclude kind %v", toInclude.Kind)
	}
	if toInclude.Kind == ToIncludeList {
		return marshalTagged(typeField, toInclude.Kind.String(), toIncludeListFields{
			Columns: toInclude.Columns,
		})
	}
	if len(toInclude.Columns) != 0 {
		return nil, fmt.Errorf("toInclude '%v' cannot list columns", toInclude.Kind)
	}
	return marshalTagged(typeField, toInclude.Kind.String(), struct{}{})
}

func (toInclude *ToInclude) UnmarshalJSON(data []byte) error {
	var decoded struct {
		Kind    ToIncludeKind `json:"type"`
		Columns []string      `json:"columns"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if !decoded.Kind.IsValid() {
		return fmt.Errorf("toInclude is missing its 'type' field")
	}

	*toInclude = ToInclude{Kind: decoded.Kind, Columns: decoded.Columns}
	return nil
}
