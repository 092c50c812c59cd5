// Package asm is a two-pass assembler for the ARM subset the emulator
// runs: data processing, MUL/MLA, LDR/STR and B/BL.
//
// Syntax, one statement per line:
//
//	label:  MOV R0, #5        ; comment
//	        .equ COUNT 10
//	        ADD R1, R1, #$(COUNT*4)
//	loop:   SUBS R0, R0, #1
//	        BNE loop
//
// Mnemonics, registers and shift names are case-insensitive; labels and
// equates are case-sensitive. $(expr) is evaluated as a Starlark
// expression over the integer equates and the labels (byte addresses).
package asm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/sarchlab/armsim/insts"
)

// Program is the output of the assembler.
type Program struct {
	Words  []uint32          // Encoded instruction words, address 0 first.
	LineNo []int             // Source line of each word.
	Labels map[string]uint32 // Byte address of each label.
}

// Bytes returns the little-endian image of the program.
func (p *Program) Bytes() []byte {
	buf := make([]byte, 4*len(p.Words))
	for i, w := range p.Words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

// statement is one instruction or data word collected by the first pass.
type statement struct {
	lineNo   int
	line     string
	addr     uint32
	mnemonic string
	operands string
}

// Assembler is a two pass assembler. The zero value is ready to use and
// encodes single data transfers with the default offset encoding.
type Assembler struct {
	// Encoding selects the polarity of bit 25 for LDR/STR.
	Encoding insts.OffsetEncoding

	Label  map[string]uint32 // Map of labels to byte addresses.
	Equate map[string]string // Map of equates.

	predefine map[string]string
}

// Predefine defines an equate visible to every subsequent Parse.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var (
	reLabel      = regexp.MustCompile(`^([A-Za-z_.][A-Za-z0-9_.]*):`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
	reIdentifier = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

// Parse assembles source text.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &SyntaxError{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]uint32)
	asm.Equate = maps.Clone(asm.predefine)
	if asm.Equate == nil {
		asm.Equate = make(map[string]string)
	}

	// First pass: labels, equates and statement addresses.
	var stmts []statement
	var addr uint32

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lineno++
		line = scanner.Text()

		text := strings.TrimSpace(strings.SplitN(line, ";", 2)[0])

		for {
			m := reLabel.FindStringSubmatch(text)
			if m == nil {
				break
			}
			if _, ok := asm.Label[m[1]]; ok {
				return nil, ErrLabelDuplicate
			}
			asm.Label[m[1]] = addr
			text = strings.TrimSpace(text[len(m[0]):])
		}

		if text == "" {
			continue
		}

		mnemonic, operands := splitWord(text)

		if mnemonic == ".equ" {
			if err = asm.defineEquate(operands); err != nil {
				return nil, err
			}
			continue
		}

		if strings.HasPrefix(mnemonic, ".") && mnemonic != ".word" {
			return nil, ErrDirectiveUnknown
		}

		stmts = append(stmts, statement{
			lineNo:   lineno,
			line:     line,
			addr:     addr,
			mnemonic: mnemonic,
			operands: operands,
		})
		addr += 4
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}

	// Second pass: encode.
	prog = &Program{Labels: maps.Clone(asm.Label)}
	for _, st := range stmts {
		lineno, line = st.lineNo, st.line

		var word uint32
		word, err = asm.encode(st)
		if err != nil {
			return nil, err
		}

		prog.Words = append(prog.Words, word)
		prog.LineNo = append(prog.LineNo, st.lineNo)
	}

	return prog, nil
}

// defineEquate handles ".equ NAME value".
func (asm *Assembler) defineEquate(operands string) error {
	name, value := splitWord(operands)
	if value == "" || reIdentifier.FindString(name) != name {
		return ErrEquateSyntax
	}
	if _, dup := asm.Equate[name]; dup {
		return ErrEquateDuplicate
	}

	value, err := asm.expand(value)
	if err != nil {
		return err
	}

	asm.Equate[name] = value
	return nil
}

// expand evaluates $(...) expressions and substitutes equates.
func (asm *Assembler) expand(text string) (out string, err error) {
	out = reExpression.ReplaceAllStringFunc(text, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return strconv.FormatUint(uint64(value), 10)
	})
	if err != nil {
		return "", err
	}

	out = reIdentifier.ReplaceAllStringFunc(out, func(word string) string {
		if value, ok := asm.Equate[word]; ok {
			return value
		}
		return word
	})

	return out, nil
}

// parenEval does compile-time $(...) evaluations.
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		value32, err := valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeUint64(uint64(value32))
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeUint64(uint64(addr))
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrParseExpression(expr), err)
	}

	stInt, ok := dict["rc"].(starlark.Int)
	if !ok {
		return 0, ErrParseExpression(expr)
	}
	stInt64, ok := stInt.Int64()
	if !ok {
		return 0, ErrParseExpression(expr)
	}

	return uint32(stInt64), nil
}

// valueOf parses a numeric literal. Negative values wrap to 32 bits.
func valueOf(word string) (uint32, error) {
	v64, err := strconv.ParseInt(strings.TrimSpace(word), 0, 64)
	if err != nil || v64 > 0xffffffff || v64 < -0x80000000 {
		return 0, ErrParseNumber(word)
	}
	return uint32(v64), nil
}

// encode dispatches a statement to its instruction class.
func (asm *Assembler) encode(st statement) (uint32, error) {
	operands, err := asm.expand(st.operands)
	if err != nil {
		return 0, err
	}

	if st.mnemonic == ".word" {
		return valueOf(operands)
	}

	mnemonic := strings.ToUpper(st.mnemonic)

	if m := reDataProc.FindStringSubmatch(mnemonic); m != nil {
		return encodeDataProc(m, splitOperands(operands))
	}
	if m := reMultiply.FindStringSubmatch(mnemonic); m != nil {
		return encodeMultiply(m, splitOperands(operands))
	}
	if m := reTransfer.FindStringSubmatch(mnemonic); m != nil {
		return asm.encodeTransfer(m, operands)
	}
	if m := reBranch.FindStringSubmatch(mnemonic); m != nil {
		return asm.encodeBranch(m, operands, st.addr)
	}

	return 0, ErrOpcodeInvalid
}

// splitWord splits off the first whitespace-delimited word.
func splitWord(text string) (word, rest string) {
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

// splitOperands splits a comma separated operand list.
func splitOperands(operands string) []string {
	if operands == "" {
		return nil
	}
	parts := strings.Split(operands, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
