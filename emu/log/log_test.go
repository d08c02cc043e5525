package log

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestModuleByName(t *testing.T) {
	for _, name := range []string{"emu", "disk", "ctrl", "hwio"} {
		mod, ok := ModuleByName(name)
		if !ok {
			t.Fatalf("ModuleByName(%q) not found", name)
		}
		if mod.String() != name {
			t.Errorf("ModuleByName(%q).String() = %q", name, mod.String())
		}
	}

	if _, ok := ModuleByName("<error>"); ok {
		t.Errorf("ModuleByName should not find the placeholder module")
	}
}

func TestModuleEnabled(t *testing.T) {
	defer DisableDebugModules(ModuleMaskAll)

	if !ModDisk.Enabled(WarnLevel) {
		t.Errorf("warnings should always be enabled")
	}
	if ModDisk.Enabled(DebugLevel) {
		t.Errorf("debug should be disabled by default")
	}
	EnableDebugModules(ModDisk.Mask())
	if !ModDisk.Enabled(DebugLevel) {
		t.Errorf("debug should be enabled after EnableDebugModules")
	}
	if ModCtrl.Enabled(DebugLevel) {
		t.Errorf("debug should only be enabled for the selected module")
	}

	Disable()
	defer Enable()
	if ModDisk.Enabled(ErrorLevel) || ModDisk.DebugZ("x") != nil {
		t.Errorf("Disable should turn off every level")
	}
}

func TestNilEntryZ(t *testing.T) {
	var z *EntryZ
	z.String("a", "b").Hex8("c", 1).Hex16("d", 2).Bool("e", true).End()
}

type pcContext uint16

func (pc pcContext) AddLogContext(z *EntryZ) { z.Hex16("pc", uint16(pc)) }

func TestEntryZOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	ctx := pcContext(0x1234)
	AddContext(ctx)
	defer RemoveContext(ctx)

	ModDisk.WarnZ("disk write").Hex8("track", 0x0A).Hex16("dma", 0x80).Bool("ok", true).End()

	out := buf.String()
	for _, want := range []string{"disk write", "_mod=disk", "track=0a", "dma=0080", "ok=true", "pc=1234"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestZFieldValue(t *testing.T) {
	fields := []ZField{
		{Type: FieldTypeHex8, Integer: 0xF},
		{Type: FieldTypeHex16, Integer: 0xBEEF},
		{Type: FieldTypeInt, Integer: uint64(^uint64(0))},
		{Type: FieldTypeBool, Boolean: false},
		{Type: FieldTypeError},
	}
	var got []string
	for i := range fields {
		got = append(got, fields[i].Value())
	}
	want := []string{"0f", "beef", "-1", "false", "<nil>"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ZField.Value mismatch (-want +got):\n%s", diff)
	}
}
