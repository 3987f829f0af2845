// Package loader provides binary-file loading for ABS-M programs.
//
// An ABS-M binary is a UTF-8 text file, one logical record per line.
// Blank lines and lines beginning with ';' are ignored. The two-letter
// section markers ds, es, ts, dd and td select the parser state; every
// other line is a payload for the current state. Size lines carry two
// decimal integers, data and text lines one decimal word each.
package loader

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/XwanXuanX/Misim/emu"
)

// Loader errors.
var (
	// ErrBadExtension indicates a binary path not ending in .bin.
	ErrBadExtension = errors.New("binary file extension must be .bin")

	// ErrNoSection indicates a payload line before any section marker.
	ErrNoSection = errors.New("payload before any section marker")

	// ErrBadPayload indicates a non-numeric payload line.
	ErrBadPayload = errors.New("payload line not numeric")

	// ErrBadRange indicates a size line whose start exceeds its end.
	ErrBadRange = errors.New("starting address higher than ending address")
)

// Program is a parsed ABS-M binary ready for loading into a core.
type Program struct {
	// Data contains the data-segment words in file order.
	Data []uint32

	// Instructions contains the code-segment words in file order.
	Instructions []uint32

	// Segments maps CS, DS and ES as declared by the file, plus the
	// synthesized SS.
	Segments emu.SegmentMap
}

// parseState is the loader's line-classifier state.
type parseState uint8

const (
	stateNone parseState = iota
	stateDataSize
	stateExtraSize
	stateTextSize
	stateDataData
	stateTextData
)

// markers maps section-marker lines to the state they select.
var markers = map[string]parseState{
	"ds": stateDataSize,
	"es": stateExtraSize,
	"ts": stateTextSize,
	"dd": stateDataData,
	"td": stateTextData,
}

// Load parses the binary file at path. memSize is the machine's memory
// size; the stack segment is synthesized as the span from one past the
// largest declared end address through the last memory word.
func Load(path string, memSize uint32) (*Program, error) {
	if filepath.Ext(path) != ".bin" {
		return nil, errors.Wrapf(ErrBadExtension, "%s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open binary file")
	}
	defer func() { _ = file.Close() }()

	return parse(file, memSize)
}

// parse runs the line classifier over r.
func parse(r io.Reader, memSize uint32) (*Program, error) {
	prog := &Program{Segments: make(emu.SegmentMap)}
	state := stateNone

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if next, ok := markers[line]; ok {
			state = next
			continue
		}

		if err := prog.dispatch(state, line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read binary file")
	}

	prog.appendStackSegment(memSize)

	return prog, nil
}

// dispatch feeds one payload line to the current state's handler.
func (p *Program) dispatch(state parseState, line string) error {
	switch state {
	case stateDataSize:
		return p.parseSizeLine(emu.DS, line)
	case stateExtraSize:
		return p.parseSizeLine(emu.ES, line)
	case stateTextSize:
		return p.parseSizeLine(emu.CS, line)
	case stateDataData:
		return p.parseBodyLine(&p.Data, line)
	case stateTextData:
		return p.parseBodyLine(&p.Instructions, line)
	}
	return errors.Wrapf(ErrNoSection, "line %q", line)
}

// parseSizeLine parses a "<start> <end>" line into a segment range.
func (p *Program) parseSizeLine(seg emu.SegReg, line string) error {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return errors.Wrapf(ErrBadPayload, "size line %q", line)
	}

	start, err := parseWord(fields[0])
	if err != nil {
		return err
	}
	end, err := parseWord(fields[1])
	if err != nil {
		return err
	}

	if start > end {
		return errors.Wrapf(ErrBadRange, "[%d, %d]", start, end)
	}

	p.Segments[seg] = emu.SegmentRange{Start: start, End: end}
	return nil
}

// parseBodyLine parses a one-word payload line.
func (p *Program) parseBodyLine(dst *[]uint32, line string) error {
	word, err := parseWord(line)
	if err != nil {
		return err
	}
	*dst = append(*dst, word)
	return nil
}

func parseWord(s string) (uint32, error) {
	word, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrBadPayload, "%q", s)
	}
	return uint32(word), nil
}

// appendStackSegment synthesizes SS above the largest declared end
// address.
func (p *Program) appendStackSegment(memSize uint32) {
	var maxEnd uint32
	for _, rng := range p.Segments {
		if rng.End > maxEnd {
			maxEnd = rng.End
		}
	}

	p.Segments[emu.SS] = emu.SegmentRange{Start: maxEnd + 1, End: memSize - 1}
}
