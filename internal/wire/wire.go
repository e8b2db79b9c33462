// Package wire implements the assignment serialization format: a
// record-oriented stream where each record is a length-prefixed,
// tag-numbered structured message. The encoding is the protobuf wire
// format, written and parsed directly through protowire so no code
// generation step is involved; unknown tags are skipped on read, which
// keeps the format forward-compatible.
package wire

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the top-level assignment record.
const (
	fieldIntVars      = 1
	fieldIntervalVars = 2
	fieldSequenceVars = 3
	fieldObjective    = 4
)

// Field numbers of an integer-variable entry.
const (
	intFieldName   = 1
	intFieldMin    = 2
	intFieldMax    = 3
	intFieldActive = 4
)

// Field numbers of an interval-variable entry.
const (
	itvFieldName     = 1
	itvFieldStartMin = 2
	itvFieldStartMax = 3
	itvFieldDurMin   = 4
	itvFieldDurMax   = 5
	itvFieldEndMin   = 6
	itvFieldEndMax   = 7
	itvFieldPerfMin  = 8
	itvFieldPerfMax  = 9
	itvFieldActive   = 10
)

// Field numbers of a sequence-variable entry.
const (
	seqFieldName     = 1
	seqFieldActive   = 2
	seqFieldSequence = 3
)

// IntVarEntry is one integer variable's snapshot.
type IntVarEntry struct {
	Name   string
	Min    int64
	Max    int64
	Active bool
}

// IntervalVarEntry is one interval variable's snapshot.
type IntervalVarEntry struct {
	Name     string
	StartMin int64
	StartMax int64
	DurMin   int64
	DurMax   int64
	EndMin   int64
	EndMax   int64
	PerfMin  int64
	PerfMax  int64
	Active   bool
}

// SequenceVarEntry is one sequence variable's snapshot.
type SequenceVarEntry struct {
	Name     string
	Active   bool
	Sequence []int64
}

// Assignment is the serialized form of a solver assignment.
type Assignment struct {
	IntVars      []IntVarEntry
	IntervalVars []IntervalVarEntry
	SequenceVars []SequenceVarEntry
	Objective    *IntVarEntry
}

func appendBool(b []byte, field protowire.Number, v bool) []byte {
	b = protowire.AppendTag(b, field, protowire.VarintType)
	var raw uint64
	if v {
		raw = 1
	}
	return protowire.AppendVarint(b, raw)
}

func appendSint(b []byte, field protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, field, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendString(b []byte, field protowire.Number, v string) []byte {
	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func marshalIntVar(e *IntVarEntry) []byte {
	var b []byte
	b = appendString(b, intFieldName, e.Name)
	b = appendSint(b, intFieldMin, e.Min)
	b = appendSint(b, intFieldMax, e.Max)
	b = appendBool(b, intFieldActive, e.Active)
	return b
}

func marshalIntervalVar(e *IntervalVarEntry) []byte {
	var b []byte
	b = appendString(b, itvFieldName, e.Name)
	b = appendSint(b, itvFieldStartMin, e.StartMin)
	b = appendSint(b, itvFieldStartMax, e.StartMax)
	b = appendSint(b, itvFieldDurMin, e.DurMin)
	b = appendSint(b, itvFieldDurMax, e.DurMax)
	b = appendSint(b, itvFieldEndMin, e.EndMin)
	b = appendSint(b, itvFieldEndMax, e.EndMax)
	b = appendSint(b, itvFieldPerfMin, e.PerfMin)
	b = appendSint(b, itvFieldPerfMax, e.PerfMax)
	b = appendBool(b, itvFieldActive, e.Active)
	return b
}

func marshalSequenceVar(e *SequenceVarEntry) []byte {
	var b []byte
	b = appendString(b, seqFieldName, e.Name)
	b = appendBool(b, seqFieldActive, e.Active)
	for _, v := range e.Sequence {
		b = appendSint(b, seqFieldSequence, v)
	}
	return b
}

// Marshal encodes a into its wire form.
func Marshal(a *Assignment) []byte {
	var b []byte
	for i := range a.IntVars {
		b = protowire.AppendTag(b, fieldIntVars, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalIntVar(&a.IntVars[i]))
	}
	for i := range a.IntervalVars {
		b = protowire.AppendTag(b, fieldIntervalVars, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalIntervalVar(&a.IntervalVars[i]))
	}
	for i := range a.SequenceVars {
		b = protowire.AppendTag(b, fieldSequenceVars, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalSequenceVar(&a.SequenceVars[i]))
	}
	if a.Objective != nil {
		b = protowire.AppendTag(b, fieldObjective, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalIntVar(a.Objective))
	}
	return b
}

// fieldScanner walks one message's fields, dispatching varint and bytes
// payloads and skipping anything unknown.
func fieldScanner(b []byte, onVarint func(num protowire.Number, v uint64), onBytes func(num protowire.Number, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			if onVarint != nil {
				onVarint(num, v)
			}
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			if onBytes != nil {
				if err := onBytes(num, v); err != nil {
					return err
				}
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

func unmarshalIntVar(b []byte) (IntVarEntry, error) {
	var e IntVarEntry
	err := fieldScanner(b,
		func(num protowire.Number, v uint64) {
			switch num {
			case intFieldMin:
				e.Min = protowire.DecodeZigZag(v)
			case intFieldMax:
				e.Max = protowire.DecodeZigZag(v)
			case intFieldActive:
				e.Active = v != 0
			}
		},
		func(num protowire.Number, v []byte) error {
			if num == intFieldName {
				e.Name = string(v)
			}
			return nil
		})
	return e, err
}

func unmarshalIntervalVar(b []byte) (IntervalVarEntry, error) {
	var e IntervalVarEntry
	err := fieldScanner(b,
		func(num protowire.Number, v uint64) {
			switch num {
			case itvFieldStartMin:
				e.StartMin = protowire.DecodeZigZag(v)
			case itvFieldStartMax:
				e.StartMax = protowire.DecodeZigZag(v)
			case itvFieldDurMin:
				e.DurMin = protowire.DecodeZigZag(v)
			case itvFieldDurMax:
				e.DurMax = protowire.DecodeZigZag(v)
			case itvFieldEndMin:
				e.EndMin = protowire.DecodeZigZag(v)
			case itvFieldEndMax:
				e.EndMax = protowire.DecodeZigZag(v)
			case itvFieldPerfMin:
				e.PerfMin = protowire.DecodeZigZag(v)
			case itvFieldPerfMax:
				e.PerfMax = protowire.DecodeZigZag(v)
			case itvFieldActive:
				e.Active = v != 0
			}
		},
		func(num protowire.Number, v []byte) error {
			if num == itvFieldName {
				e.Name = string(v)
			}
			return nil
		})
	return e, err
}

func unmarshalSequenceVar(b []byte) (SequenceVarEntry, error) {
	var e SequenceVarEntry
	err := fieldScanner(b,
		func(num protowire.Number, v uint64) {
			switch num {
			case seqFieldActive:
				e.Active = v != 0
			case seqFieldSequence:
				e.Sequence = append(e.Sequence, protowire.DecodeZigZag(v))
			}
		},
		func(num protowire.Number, v []byte) error {
			if num == seqFieldName {
				e.Name = string(v)
			}
			return nil
		})
	return e, err
}

// Unmarshal decodes an assignment record, skipping unknown tags.
func Unmarshal(b []byte) (*Assignment, error) {
	a := &Assignment{}
	err := fieldScanner(b, nil, func(num protowire.Number, v []byte) error {
		switch num {
		case fieldIntVars:
			e, err := unmarshalIntVar(v)
			if err != nil {
				return fmt.Errorf("int var entry: %w", err)
			}
			a.IntVars = append(a.IntVars, e)
		case fieldIntervalVars:
			e, err := unmarshalIntervalVar(v)
			if err != nil {
				return fmt.Errorf("interval var entry: %w", err)
			}
			a.IntervalVars = append(a.IntervalVars, e)
		case fieldSequenceVars:
			e, err := unmarshalSequenceVar(v)
			if err != nil {
				return fmt.Errorf("sequence var entry: %w", err)
			}
			a.SequenceVars = append(a.SequenceVars, e)
		case fieldObjective:
			e, err := unmarshalIntVar(v)
			if err != nil {
				return fmt.Errorf("objective entry: %w", err)
			}
			a.Objective = &e
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Write emits one length-prefixed record to w.
func Write(w io.Writer, a *Assignment) error {
	body := Marshal(a)
	header := protowire.AppendVarint(nil, uint64(len(body)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing record header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("writing record body: %w", err)
	}
	return nil
}

// Read consumes one length-prefixed record from r. Returns io.EOF when
// the stream is cleanly exhausted.
func Read(r io.Reader) (*Assignment, error) {
	length, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("reading record body: %w", err)
	}
	return Unmarshal(body)
}

func readVarint(r io.Reader) (uint64, error) {
	var buf [1]byte
	var v uint64
	var shift uint
	for {
		if _, err := r.Read(buf[:]); err != nil {
			if err == io.EOF && shift == 0 {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("reading record header: %w", err)
		}
		v |= uint64(buf[0]&0x7f) << shift
		if buf[0]&0x80 == 0 {
			return v, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, fmt.Errorf("malformed record header")
		}
	}
}
