package debuginfo

import (
	"debug/elf"
	"debug/gosym"
	"fmt"

	"golang.org/x/sys/unix"
)

type linuxDebugInfo struct {
	SymTable  *gosym.Table
	LineTable *gosym.LineTable
	Target    Target
}

// NewDebugInfo opens path's ELF file and builds PC<->line translation from
// its .gopclntab section. It only resolves symbols for Go binaries; a
// debuggee without that section still runs, it just gets a frame with
// HasFunction=false (dbgproto.DefaultFrame's territory) instead.
func NewDebugInfo(path string, pid int) (DebugInfo, error) {
	exe, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("debuginfo: open %s: %w", path, err)
	}
	defer exe.Close()

	section := exe.Section(".gopclntab")
	if section == nil {
		return nil, fmt.Errorf("debuginfo: %s has no .gopclntab section", path)
	}
	lineTableData, err := section.Data()
	if err != nil {
		return nil, fmt.Errorf("debuginfo: read .gopclntab: %w", err)
	}
	addr := exe.Section(".text").Addr
	lineTable := gosym.NewLineTable(lineTableData, addr)
	symTable, err := gosym.NewTable([]byte{}, lineTable)
	if err != nil {
		return nil, fmt.Errorf("debuginfo: build symbol table: %w", err)
	}

	sourceFile, _, _ := symTable.PCToLine(symTable.LookupFunc("main.main").Entry)

	pgid, err := unix.Getpgid(pid)
	if err != nil {
		return nil, fmt.Errorf("debuginfo: getpgid: %w", err)
	}

	return &linuxDebugInfo{
		SymTable:  symTable,
		LineTable: lineTable,
		Target: Target{
			Path: sourceFile, PID: pid, PGID: pgid,
		},
	}, nil
}

func (l *linuxDebugInfo) GetTarget() Target {
	return l.Target
}

func (l *linuxDebugInfo) LineToPC(file string, line int) (pc uint64, fn *gosym.Func, err error) {
	return l.SymTable.LineToPC(file, line)
}

func (l *linuxDebugInfo) LookupFunc(fn string) *gosym.Func {
	return l.SymTable.LookupFunc(fn)
}

func (l *linuxDebugInfo) PCToLine(pc uint64) (file string, line int, fn *gosym.Func) {
	return l.SymTable.PCToLine(pc)
}
