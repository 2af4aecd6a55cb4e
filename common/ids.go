package common

// LineageId is a dense 32-bit identifier into the lineage arena. The
// all-ones value is the null sentinel.
type LineageId uint32

// BondId is a dense 32-bit identifier into the bond graph slab.
type BondId uint32

// NullLineage is the sentinel value meaning "no lineage".
const NullLineage LineageId = 0xFFFFFFFF

// NullBond is the sentinel value meaning "no bond".
const NullBond BondId = 0xFFFFFFFF

// IsNull reports whether id is the null sentinel.
func (id LineageId) IsNull() bool { return id == NullLineage }

// IsNull reports whether id is the null sentinel.
func (id BondId) IsNull() bool { return id == NullBond }

// EngramIndex addresses a slot in the flat strata block (lineage_id*D + slot).
// The all-ones value is the sentinel meaning "no history yet".
type EngramIndex uint32

const NullEngram EngramIndex = 0xFFFFFFFF

func (idx EngramIndex) IsNull() bool { return idx == NullEngram }

// PayloadId addresses an entry in the extern payload store (arena.PayloadStore).
// The all-ones value means "no payload".
type PayloadId uint64

const NullPayload PayloadId = 0xFFFFFFFFFFFFFFFF

func (id PayloadId) IsNull() bool { return id == NullPayload }
