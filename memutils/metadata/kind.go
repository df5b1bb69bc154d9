package metadata

// Kind identifies one of the closed set of allocator variants
type Kind uint32

const (
	KindFixed Kind = iota
	KindUnequal
	KindDynamic
	KindBuddy
	KindPaging
)

var kindMapping = map[Kind]string{
	KindFixed:   "fixed",
	KindUnequal: "unequal",
	KindDynamic: "dynamic",
	KindBuddy:   "buddy",
	KindPaging:  "paging",
}

func (k Kind) String() string {
	return kindMapping[k]
}
