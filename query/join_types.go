package query

import "hermannm.dev/enumnames"

type JoinType int8

const (
	JoinInner JoinType = iota + 1
	JoinLeft
)

var joinTypeMap = enumnames.NewMap(map[JoinType]string{
	JoinInner: "INNER",
	JoinLeft:  "LEFT",
})

func (joinType JoinType) IsValid() bool {
	return joinTypeMap.ContainsEnumValue(joinType)
}

func (joinType JoinType) String() string {
	return joinTypeMap.GetNameOrFallback(joinType, "INVALID_JOIN_TYPE")
}

func (joinType JoinType) MarshalJSON() ([]byte, error) {
	return joinTypeMap.MarshalToNameJSON(joinType)
}

func (joinType *JoinType) UnmarshalJSON(bytes []byte) error {
	return joinTypeMap.UnmarshalFromNameJSON(bytes, joinType)
}
