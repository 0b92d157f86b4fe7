package mesh

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// parseFile reads a mesh record file into an immutable Template.
//
// The format is line-oriented:
//
//	position x y z
//	face i j k
//
// Face indices are 1-based in the file and converted to 0-based here. Any
// line that does not start with a recognized keyword is treated as a comment
// and skipped. Faces must have exactly three vertices; the format carries no
// quads or polygons.
func parseFile(path string) (*Template, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	defer file.Close()

	var positions [][3]float32
	var indices []uint32

	lineNo := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "position":
			if len(fields) != 4 {
				return nil, &ParseError{Path: path, Line: lineNo, Msg: fmt.Sprintf("position record has %d components, want 3", len(fields)-1)}
			}
			var p [3]float32
			for i, f := range fields[1:] {
				v, err := strconv.ParseFloat(f, 32)
				if err != nil {
					return nil, &ParseError{Path: path, Line: lineNo, Msg: fmt.Sprintf("bad position component %q", f)}
				}
				p[i] = float32(v)
			}
			positions = append(positions, p)
		case "face":
			if len(fields) != 4 {
				return nil, &ParseError{Path: path, Line: lineNo, Msg: fmt.Sprintf("face has %d vertices, want 3", len(fields)-1)}
			}
			for _, f := range fields[1:] {
				v, err := strconv.ParseInt(f, 10, 64)
				if err != nil || v < 1 {
					return nil, &ParseError{Path: path, Line: lineNo, Msg: fmt.Sprintf("bad face index %q", f)}
				}
				// indices in the file start at 1
				indices = append(indices, uint32(v-1))
			}
		default:
			// comment or unknown record
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: path, Line: lineNo, Msg: err.Error()}
	}

	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, &ParseError{Path: path, Line: lineNo, Msg: fmt.Sprintf("face index %d out of range (have %d positions)", idx+1, len(positions))}
		}
	}

	tmpl := &Template{positions: positions, indices: indices}
	tmpl.boundsMin, tmpl.boundsMax = computeBounds(positions)
	return tmpl, nil
}
