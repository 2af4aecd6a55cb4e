package arena

// Flags is the bitset carried by a Lineage record.
type Flags uint8

const (
	FlagActive Flags = 1 << iota
	FlagConscious
	FlagProtected
	FlagDirty
	FlagPinned
)

func (f Flags) Has(bit Flags) bool    { return f&bit != 0 }
func (f Flags) Set(bit Flags) Flags   { return f | bit }
func (f Flags) Clear(bit Flags) Flags { return f &^ bit }
