// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package discovery

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const classMagic = 0xCAFEBABE

// Class access flags (JVMS 4.1).
const (
	AccPublic     uint16 = 0x0001
	AccFinal      uint16 = 0x0010
	AccInterface  uint16 = 0x0200
	AccAbstract   uint16 = 0x0400
	AccSynthetic  uint16 = 0x1000
	AccAnnotation uint16 = 0x2000
	AccEnum       uint16 = 0x4000
	AccModule     uint16 = 0x8000
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

var (
	// ErrNotClassFile is returned when the input does not start with the class file magic.
	ErrNotClassFile = errors.New("not a class file")
	// ErrMalformedClass is returned when the class file header cannot be decoded.
	ErrMalformedClass = errors.New("malformed class file")
)

// ClassInfo is the part of a class file header needed to choose test targets.
type ClassInfo struct {
	Name         string // Binary name, e.g. com.example.Outer$Inner
	AccessFlags  uint16
	MajorVersion uint16
}

// Package returns the package part of the binary name.
func (c *ClassInfo) Package() string {
	if i := strings.LastIndexByte(c.Name, '.'); i >= 0 {
		return c.Name[:i]
	}

	return ""
}

// IsInterface is true for interfaces and annotation types.
func (c *ClassInfo) IsInterface() bool {
	return c.AccessFlags&AccInterface != 0
}

// IsAbstract reports whether the class is abstract.
func (c *ClassInfo) IsAbstract() bool {
	return c.AccessFlags&AccAbstract != 0
}

// IsSynthetic reports whether the class was generated by the compiler.
func (c *ClassInfo) IsSynthetic() bool {
	return c.AccessFlags&AccSynthetic != 0
}

// IsModule reports whether this is a module-info class.
func (c *ClassInfo) IsModule() bool {
	return c.AccessFlags&AccModule != 0
}

// IsAnonymousOrLocal reports whether the class is anonymous (Outer$1) or local
// (Outer$1Helper). Both are named by the compiler with a digit after the last '$'.
func (c *ClassInfo) IsAnonymousOrLocal() bool {
	i := strings.LastIndexByte(c.Name, '$')
	if i < 0 || i == len(c.Name)-1 {
		return false
	}

	return unicode.IsDigit(rune(c.Name[i+1]))
}

// ParseClass reads the class file header up to this_class.
func ParseClass(r io.Reader) (*ClassInfo, error) {
	cr := &classReader{r: bufio.NewReader(r)}

	if magic := cr.u4(); cr.err == nil && magic != classMagic {
		return nil, fmt.Errorf("%w: magic %#x", ErrNotClassFile, magic)
	}

	_ = cr.u2() // minor
	major := cr.u2()
	count := int(cr.u2())

	if cr.err != nil {
		return nil, errors.Join(ErrMalformedClass, cr.err)
	}

	utf8 := make(map[int]string)
	classes := make(map[int]int)

	for i := 1; i < count; i++ {
		tag := cr.u1()

		switch tag {
		case tagUtf8:
			n := int(cr.u2())
			utf8[i] = string(cr.bytes(n))
		case tagClass:
			classes[i] = int(cr.u2())
		case tagString, tagMethodType, tagModule, tagPackage:
			cr.skip(2)
		case tagMethodHandle:
			cr.skip(3)
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref,
			tagNameAndType, tagDynamic, tagInvokeDynamic:
			cr.skip(4)
		case tagLong, tagDouble:
			// Eight-byte constants take two pool entries.
			cr.skip(8)
			i++
		default:
			if cr.err == nil {
				return nil, fmt.Errorf("%w: unknown constant pool tag %d at index %d", ErrMalformedClass, tag, i)
			}
		}

		if cr.err != nil {
			return nil, errors.Join(ErrMalformedClass, cr.err)
		}
	}

	flags := cr.u2()
	this := int(cr.u2())

	if cr.err != nil {
		return nil, errors.Join(ErrMalformedClass, cr.err)
	}

	nameIdx, ok := classes[this]
	if !ok {
		return nil, fmt.Errorf("%w: this_class %d is not a class constant", ErrMalformedClass, this)
	}

	name, ok := utf8[nameIdx]
	if !ok {
		return nil, fmt.Errorf("%w: class name index %d is not a utf8 constant", ErrMalformedClass, nameIdx)
	}

	return &ClassInfo{
		Name:         strings.ReplaceAll(name, "/", "."),
		AccessFlags:  flags,
		MajorVersion: major,
	}, nil
}

// classReader reads big-endian values and keeps the first error.
type classReader struct {
	r   *bufio.Reader
	err error
	buf [8]byte
}

func (cr *classReader) read(n int) []byte {
	if cr.err != nil {
		return cr.buf[:n]
	}

	if _, err := io.ReadFull(cr.r, cr.buf[:n]); err != nil {
		cr.err = err
	}

	return cr.buf[:n]
}

func (cr *classReader) u1() uint8 {
	return cr.read(1)[0]
}

func (cr *classReader) u2() uint16 {
	return binary.BigEndian.Uint16(cr.read(2))
}

func (cr *classReader) u4() uint32 {
	return binary.BigEndian.Uint32(cr.read(4))
}

func (cr *classReader) bytes(n int) []byte {
	b := make([]byte, n)
	if cr.err != nil {
		return b
	}

	if _, err := io.ReadFull(cr.r, b); err != nil {
		cr.err = err
	}

	return b
}

func (cr *classReader) skip(n int) {
	if cr.err != nil {
		return
	}

	if _, err := cr.r.Discard(n); err != nil {
		cr.err = err
	}
}
