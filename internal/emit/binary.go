package emit

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/xspread/pairdisco/internal/model"
)

// The binary layouts below are hand-rolled rather than pulled from a
// general-purpose serialization library: both records are fixed, small,
// internal-only structures with no cross-version compatibility
// requirement (every run fully regenerates both files), so a generic
// schema/codegen layer would add indirection without buying anything.
// See DESIGN.md for the fuller justification.

const float64Absent = math.MaxFloat64

func putOptFloat(buf *bytes.Buffer, v *float64) {
	if v == nil {
		binary.Write(buf, binary.LittleEndian, float64Absent)
		return
	}
	binary.Write(buf, binary.LittleEndian, *v)
}

func putOptString(buf *bytes.Buffer, s *string) {
	if s == nil {
		binary.Write(buf, binary.LittleEndian, uint16(0xFFFF))
		return
	}
	b := []byte(*s)
	binary.Write(buf, binary.LittleEndian, uint16(len(b)))
	buf.Write(b)
}

func readOptFloat(r io.Reader) (*float64, error) {
	var v float64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return nil, err
	}
	if v == float64Absent {
		return nil, nil
	}
	return &v, nil
}

func readOptString(r io.Reader) (*string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n == 0xFFFF {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// EncodeSymbols serializes the registry's records into the stable binary
// encoding published as symbols.bin, in ascending id order.
func EncodeSymbols(records []model.SymbolRecord) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(records)))

	for _, r := range records {
		binary.Write(&buf, binary.LittleEndian, r.ID)
		putOptString(&buf, &r.Canonical)
		for _, s := range model.AllSources {
			putOptString(&buf, r.SourceSymbols[s])
		}
		for _, s := range model.AllSources {
			putOptFloat(&buf, r.MinQty[s])
		}
		for _, s := range model.AllSources {
			putOptFloat(&buf, r.MaxQty[s])
		}
		for _, s := range model.AllSources {
			putOptFloat(&buf, r.TickSize[s])
		}
		for _, s := range model.AllSources {
			putOptFloat(&buf, r.MinNotional[s])
		}
	}
	return buf.Bytes()
}

// DecodeSymbols parses a symbols.bin buffer back into SymbolRecords,
// exercised by round-trip tests and available to any future reload path.
func DecodeSymbols(data []byte) ([]model.SymbolRecord, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	out := make([]model.SymbolRecord, count)
	for i := range out {
		rec := &out[i]
		if err := binary.Read(r, binary.LittleEndian, &rec.ID); err != nil {
			return nil, err
		}
		canonical, err := readOptString(r)
		if err != nil {
			return nil, err
		}
		if canonical != nil {
			rec.Canonical = *canonical
		}
		for _, s := range model.AllSources {
			v, err := readOptString(r)
			if err != nil {
				return nil, err
			}
			rec.SourceSymbols[s] = v
		}
		for _, s := range model.AllSources {
			v, err := readOptFloat(r)
			if err != nil {
				return nil, err
			}
			rec.MinQty[s] = v
		}
		for _, s := range model.AllSources {
			v, err := readOptFloat(r)
			if err != nil {
				return nil, err
			}
			rec.MaxQty[s] = v
		}
		for _, s := range model.AllSources {
			v, err := readOptFloat(r)
			if err != nil {
				return nil, err
			}
			rec.TickSize[s] = v
		}
		for _, s := range model.AllSources {
			v, err := readOptFloat(r)
			if err != nil {
				return nil, err
			}
			rec.MinNotional[s] = v
		}
	}
	return out, nil
}

// EncodeDirections serializes the direction records published as
// directions.bin.
func EncodeDirections(records []model.DirectionRecord) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(records)))

	for _, d := range records {
		binary.Write(&buf, binary.LittleEndian, int32(d.ID))
		putOptString(&buf, &d.Name)
		binary.Write(&buf, binary.LittleEndian, int32(d.SpotSource))
		binary.Write(&buf, binary.LittleEndian, int32(d.FuturesSource))
		binary.Write(&buf, binary.LittleEndian, uint32(len(d.Symbols)))
		for _, id := range d.Symbols {
			binary.Write(&buf, binary.LittleEndian, id)
		}
	}
	return buf.Bytes()
}

// DecodeDirections parses a directions.bin buffer back into DirectionRecords.
func DecodeDirections(data []byte) ([]model.DirectionRecord, error) {
	r := bytes.NewReader(data)
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	out := make([]model.DirectionRecord, count)
	for i := range out {
		d := &out[i]
		var id, spot, fut int32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, err
		}
		name, err := readOptString(r)
		if err != nil {
			return nil, err
		}
		if name != nil {
			d.Name = *name
		}
		if err := binary.Read(r, binary.LittleEndian, &spot); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &fut); err != nil {
			return nil, err
		}
		d.ID = int(id)
		d.SpotSource = model.SourceID(spot)
		d.FuturesSource = model.SourceID(fut)

		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, err
		}
		d.Symbols = make([]uint16, n)
		for j := range d.Symbols {
			if err := binary.Read(r, binary.LittleEndian, &d.Symbols[j]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
