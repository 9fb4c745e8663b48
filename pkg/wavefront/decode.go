package wavefront

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	blanks   = "\r\n\t "
	invINDEX = -1
)

// Face is one polygon of an object. Indices are zero-based into the
// decoder's flat vertex and normal arrays; Normals[i] is invINDEX when the
// face vertex carries no normal.
type Face struct {
	Vertices []int
	Normals  []int
}

// Object is a named group of faces.
type Object struct {
	Name  string
	Faces []Face
}

// Decoder holds all data decoded from one OBJ text. Malformed lines are
// skipped and recorded in Warnings; decoding only fails on read errors.
type Decoder struct {
	Objects  []Object
	Vertices []float32 // x,y,z per vertex
	Normals  []float32 // x,y,z per normal
	Warnings []string

	line       int
	objCurrent *Object
}

// Decode parses the document.
func (d Document) Decode() *Decoder {
	// strings.Reader never fails
	dec, _ := Decode(strings.NewReader(d.text))
	return dec
}

// Decode parses OBJ text from r.
func Decode(r io.Reader) (*Decoder, error) {
	dec := &Decoder{}
	if err := dec.parse(r); err != nil {
		return nil, fmt.Errorf("wavefront: read: %w", err)
	}
	return dec, nil
}

func (dec *Decoder) parse(r io.Reader) error {
	bufin := bufio.NewReader(r)
	dec.line = 1
	for {
		line, err := bufin.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if perr := dec.parseLine(strings.Trim(line, blanks)); perr != nil {
			dec.appendWarn(perr.Error())
		}
		if err == io.EOF {
			return nil
		}
		dec.line++
	}
}

func (dec *Decoder) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	switch fields[0] {
	case "o", "g":
		return dec.parseObject(fields[1:])
	case "v":
		return dec.parseVec3(&dec.Vertices, "v", fields[1:])
	case "vn":
		return dec.parseVec3(&dec.Normals, "vn", fields[1:])
	case "f":
		return dec.parseFace(fields[1:])
	case "vt", "s", "usemtl", "mtllib":
		return nil
	default:
		return fmt.Errorf("field not supported: %s", fields[0])
	}
}

// o <name>
func (dec *Decoder) parseObject(fields []string) error {
	name := fmt.Sprintf("unnamed%d", dec.line)
	if len(fields) > 0 {
		name = fields[0]
	}
	dec.Objects = append(dec.Objects, Object{Name: name})
	dec.objCurrent = &dec.Objects[len(dec.Objects)-1]
	return nil
}

// v <x> <y> <z> [w]
func (dec *Decoder) parseVec3(dst *[]float32, kind string, fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("less than 3 coordinates in '%s' line", kind)
	}
	var v [3]float32
	for i, f := range fields[:3] {
		val, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return fmt.Errorf("bad coordinate %q in '%s' line", f, kind)
		}
		v[i] = float32(val)
	}
	*dst = append(*dst, v[:]...)
	return nil
}

// f v1[/vt1][/vn1] v2[/vt2][/vn2] v3[/vt3][/vn3] ...
func (dec *Decoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("face line with less than 3 vertices")
	}
	face := Face{
		Vertices: make([]int, len(fields)),
		Normals:  make([]int, len(fields)),
	}
	for pos, f := range fields {
		parts := strings.Split(f, "/")

		vi, err := resolveIndex(parts[0], len(dec.Vertices)/3)
		if err != nil {
			return fmt.Errorf("face vertex %q: %w", f, err)
		}
		face.Vertices[pos] = vi

		face.Normals[pos] = invINDEX
		if len(parts) >= 3 && parts[2] != "" {
			ni, err := resolveIndex(parts[2], len(dec.Normals)/3)
			if err != nil {
				return fmt.Errorf("face normal %q: %w", f, err)
			}
			face.Normals[pos] = ni
		}
	}

	// Faces before any o/g line go to a default object.
	if dec.objCurrent == nil {
		dec.parseObject(nil)
	}
	dec.objCurrent.Faces = append(dec.objCurrent.Faces, face)
	return nil
}

// resolveIndex converts a one-based or negative (relative to the last
// element) OBJ index to a zero-based index in [0, count).
func resolveIndex(s string, count int) (int, error) {
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index")
	}
	var idx int
	switch {
	case val > 0:
		idx = val - 1
	case val < 0:
		idx = count + val
	default:
		return 0, fmt.Errorf("index value equal to 0")
	}
	if idx < 0 || idx >= count {
		return 0, fmt.Errorf("index %d out of range", val)
	}
	return idx, nil
}

func (dec *Decoder) appendWarn(msg string) {
	dec.Warnings = append(dec.Warnings, fmt.Sprintf("obj(%d): %s", dec.line, msg))
}
