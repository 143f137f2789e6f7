package btree

import (
	"encoding/binary"
	"math"

	"github.com/shopspring/decimal"
)

// PageSize is the fixed page size fanout constants are derived from.
// Changing it changes the on-disk format. The header page does not
// record the page size, so opening a file written with a different
// PageSize is not detected.
const PageSize = 4096

// KeyTraits bundles, per spec §4.A/§9 option (a), the compile-time
// trait bundle for one key type: its on-page width, comparison, byte
// codec, and derived fanouts. Implementations must keep Size() *
// fanout + overhead exactly <= PageSize; see the per-type consts below
// for the worked-out derivations from spec §6.
type KeyTraits[T any] interface {
	AttrType() AttrType
	Size() int
	LeafFanout() int
	InnerFanout() int
	Compare(a, b T) int
	Encode(dst []byte, v T)
	Decode(src []byte) T
	Zero() T
}

// --- INTEGER -----------------------------------------------------------
//
// Inner: size = 4 (level) + N*4 (keys) + (N+1)*4 (children) = 8 + 8N.
// 8 + 8*511 = 4096 exactly -> INNER_FANOUT_INT = 511.
// Leaf: size = L*4 (keys) + L*8 (rids) + 4 (right_sibling) = 12L + 4.
// 12*341 + 4 = 4096 exactly -> LEAF_FANOUT_INT = 341.
const (
	InnerFanoutInt = 511
	LeafFanoutInt  = 341
)

type IntTraits struct{}

func (IntTraits) AttrType() AttrType   { return AttrInteger }
func (IntTraits) Size() int            { return 4 }
func (IntTraits) LeafFanout() int      { return LeafFanoutInt }
func (IntTraits) InnerFanout() int     { return InnerFanoutInt }
func (IntTraits) Zero() int32          { return 0 }
func (IntTraits) Compare(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
func (IntTraits) Encode(dst []byte, v int32) { binary.LittleEndian.PutUint32(dst, uint32(v)) }
func (IntTraits) Decode(src []byte) int32    { return int32(binary.LittleEndian.Uint32(src)) }

// --- DOUBLE --------------------------------------------------------------
//
// Inner: size = 4 + N*8 + (N+1)*4 = 8 + 12N. A naive sizing that
// ignores the "+1" extra child slot gives N = floor((PageSize-4)/12) =
// 341, which overflows the page once the trailing child is accounted
// for; the corrected value is 340 (8 + 12*340 = 4088, 8 bytes of
// padding) -- this is the "one fewer slot" spec §6 calls out.
// Leaf: size = L*8 + L*8 + 4 = 16L + 4. 16*255 + 4 = 4084 ->
// LEAF_FANOUT_DOUBLE = 255.
const (
	InnerFanoutDouble = 340
	LeafFanoutDouble  = 255
)

type DoubleTraits struct{}

func (DoubleTraits) AttrType() AttrType { return AttrDouble }
func (DoubleTraits) Size() int          { return 8 }
func (DoubleTraits) LeafFanout() int    { return LeafFanoutDouble }
func (DoubleTraits) InnerFanout() int   { return InnerFanoutDouble }
func (DoubleTraits) Zero() float64      { return 0 }

// Compare converts both operands with shopspring/decimal's
// NewFromFloat and compares the decimals. The resulting order is the
// natural float64 order: distinct float64 values never compare equal,
// however close they are (0.1+0.2 is greater than 0.3). The on-disk
// bytes are still raw IEEE-754 float64 (§6); this only affects the
// comparator.
func (DoubleTraits) Compare(a, b float64) int {
	da := decimal.NewFromFloat(a)
	db := decimal.NewFromFloat(b)
	return da.Cmp(db)
}

func (DoubleTraits) Encode(dst []byte, v float64) {
	binary.LittleEndian.PutUint64(dst, math.Float64bits(v))
}
func (DoubleTraits) Decode(src []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(src))
}

// --- STRING (fixed 10-byte) ----------------------------------------------
//
// Inner: size = 4 + N*10 + (N+1)*4 = 8 + 14N. 8 + 14*292 = 4096
// exactly -> INNER_FANOUT_STRING = 292.
// Leaf: size = L*10 + L*8 + 4 = 18L + 4. 18*227 + 4 = 4090 ->
// LEAF_FANOUT_STRING = 227.
const (
	InnerFanoutString = 292
	LeafFanoutString  = 227
)

type StringKey [StringKeyLen]byte

type StringTraits struct{}

func (StringTraits) AttrType() AttrType { return AttrString }
func (StringTraits) Size() int          { return StringKeyLen }
func (StringTraits) LeafFanout() int    { return LeafFanoutString }
func (StringTraits) InnerFanout() int   { return InnerFanoutString }
func (StringTraits) Zero() StringKey    { return StringKey{} }

// Compare orders fixed-width strings lexicographically by raw bytes, as
// required by spec §3/§6.
func (StringTraits) Compare(a, b StringKey) int {
	for i := 0; i < StringKeyLen; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (StringTraits) Encode(dst []byte, v StringKey) { copy(dst[:StringKeyLen], v[:]) }
func (StringTraits) Decode(src []byte) StringKey {
	var v StringKey
	copy(v[:], src[:StringKeyLen])
	return v
}

// StringKeyFromString right-pads (or truncates) s to the fixed 10-byte
// key width.
func StringKeyFromString(s string) StringKey {
	var v StringKey
	copy(v[:], s)
	return v
}

func (v StringKey) String() string {
	i := len(v)
	for i > 0 && v[i-1] == 0 {
		i--
	}
	return string(v[:i])
}
