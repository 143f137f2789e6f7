package btree

import (
	"bytes"
	"encoding/binary"
)

// RelationNameLen is the fixed width of the NUL-terminated relation
// name field in the header page.
const RelationNameLen = 20

// HeaderSize is the byte length of the populated part of the header
// page; the remainder of the page is padding.
const HeaderSize = RelationNameLen + 4 + 4 + 4

// IndexHeader is the page-1 metadata record, laid out per spec §6:
// [relation_name:20][attr_byte_offset:4][attr_type:4][root_page_no:4].
type IndexHeader struct {
	RelationName   string
	AttrByteOffset int32
	AttrType       AttrType
	RootPageNo     uint32
}

// Encode writes h into buf (must be at least PageSize long).
func (h IndexHeader) Encode(buf []byte) {
	for i := range buf[:HeaderSize] {
		buf[i] = 0
	}
	nameBytes := []byte(h.RelationName)
	if len(nameBytes) > RelationNameLen-1 {
		nameBytes = nameBytes[:RelationNameLen-1]
	}
	copy(buf[0:RelationNameLen], nameBytes)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(h.AttrByteOffset))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(h.AttrType))
	binary.LittleEndian.PutUint32(buf[28:32], h.RootPageNo)
}

// DecodeHeader reads an IndexHeader from buf.
func DecodeHeader(buf []byte) IndexHeader {
	nameField := buf[0:RelationNameLen]
	end := bytes.IndexByte(nameField, 0)
	if end < 0 {
		end = len(nameField)
	}
	return IndexHeader{
		RelationName:   string(nameField[:end]),
		AttrByteOffset: int32(binary.LittleEndian.Uint32(buf[20:24])),
		AttrType:       AttrType(binary.LittleEndian.Uint32(buf[24:28])),
		RootPageNo:     binary.LittleEndian.Uint32(buf[28:32]),
	}
}

// Matches reports whether the header's identifying fields (everything
// except the mutable RootPageNo) agree with the constructor-supplied
// parameters. A mismatch means the caller opened the wrong file, or the
// relation's schema changed underneath the index.
func (h IndexHeader) Matches(relationName string, attrByteOffset int32, attrType AttrType) bool {
	return h.RelationName == relationName &&
		h.AttrByteOffset == attrByteOffset &&
		h.AttrType == attrType
}
