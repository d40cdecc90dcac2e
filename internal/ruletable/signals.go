package ruletable

// Signal definition bounds.
const (
	MaxSignalParams          = 10
	MaxSignalParamNameLength = 30
)

// Struct kinds. Only basic structs bind to struct nodes.
const (
	StructKindBasic    = "basic"
	StructKindSaveData = "ingame_save"
)

// Package ids that never own graphs directly.
var ViewPackageIDs = map[string]bool{
	"global_view":       true,
	"unclassified_view": true,
}
