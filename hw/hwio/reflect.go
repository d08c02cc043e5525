package hwio

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var reg8Type = reflect.TypeOf(Reg8{})

type bankReg struct {
	offset uint8
	regPtr *Reg8
}

type regTag struct {
	offset    uint8
	hasOffset bool
	bank      int
	reset     uint8
	rwmask    uint8
	flags     RWFlags
	rcb, wcb  string
	pcb       string
}

func parseTag(name, tag string) (regTag, error) {
	rt := regTag{rwmask: 0xFF}

	parseU8 := func(key, s string) (uint8, error) {
		v, err := strconv.ParseUint(s, 0, 8)
		if err != nil {
			return 0, fmt.Errorf("%s: invalid %s value %q: %w", name, key, s, err)
		}
		return uint8(v), nil
	}

	for _, opt := range strings.Split(tag, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, val, _ := strings.Cut(opt, "=")

		var err error
		switch key {
		case "offset":
			rt.offset, err = parseU8(key, val)
			rt.hasOffset = true
		case "bank":
			rt.bank, err = strconv.Atoi(val)
		case "reset":
			rt.reset, err = parseU8(key, val)
		case "rwmask":
			rt.rwmask, err = parseU8(key, val)
		case "readonly":
			rt.flags |= ReadOnlyFlag
		case "writeonly":
			rt.flags |= WriteOnlyFlag
		case "rcb":
			rt.rcb = cbName("Read", name, val)
		case "wcb":
			rt.wcb = cbName("Write", name, val)
		case "pcb":
			rt.pcb = cbName("Peek", name, val)
		default:
			err = fmt.Errorf("%s: unknown hwio option %q", name, key)
		}
		if err != nil {
			return rt, err
		}
	}
	if rt.flags == ReadOnlyFlag|WriteOnlyFlag {
		return rt, fmt.Errorf("%s: register can't be both readonly and writeonly", name)
	}
	return rt, nil
}

// cbName returns the method name of a callback: either explicitly given,
// or built from the prefix and the uppercased register name.
func cbName(prefix, reg, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return prefix + strings.ToUpper(reg)
}

func structValue(data any) (reflect.Value, error) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, errors.New("hwio: expected pointer to struct")
	}
	return v, nil
}

func bindCallback[F any](ptr reflect.Value, method, reg string) (F, error) {
	var zero F
	m := ptr.MethodByName(method)
	if !m.IsValid() {
		return zero, fmt.Errorf("%s: missing callback method %s", reg, method)
	}
	cb, ok := m.Interface().(F)
	if !ok {
		return zero, fmt.Errorf("%s: callback %s has type %s, want %T", reg, method, m.Type(), zero)
	}
	return cb, nil
}

// InitRegs initializes all Reg8 fields of the structure pointed to by data,
// following their "hwio" struct tag:
//
//	reset=0x12      Value at reset.
//	rwmask=0xF0     Bits which can be written, the others are read-only.
//	readonly        Writes are ignored.
//	writeonly       Reads return OpenBus.
//	rcb[=Method]    Read callback, defaults to Read<NAME> method.
//	wcb[=Method]    Write callback, defaults to Write<NAME> method.
//	pcb[=Method]    Peek callback, defaults to Peek<NAME> method.
//
// <NAME> is the uppercased field name.
func InitRegs(data any) error {
	ptr, err := structValue(data)
	if err != nil {
		return err
	}

	v := ptr.Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type != reg8Type || !f.IsExported() {
			continue
		}
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseTag(f.Name, tag)
		if err != nil {
			return err
		}

		reg := v.Field(i).Addr().Interface().(*Reg8)
		*reg = Reg8{
			Name:   f.Name,
			Value:  rt.reset,
			RoMask: ^rt.rwmask,
			Flags:  rt.flags,
		}
		if rt.rcb != "" {
			if reg.ReadCb, err = bindCallback[func(uint8) uint8](ptr, rt.rcb, f.Name); err != nil {
				return err
			}
		}
		if rt.wcb != "" {
			if reg.WriteCb, err = bindCallback[func(uint8, uint8)](ptr, rt.wcb, f.Name); err != nil {
				return err
			}
		}
		if rt.pcb != "" {
			if reg.PeekCb, err = bindCallback[func(uint8) uint8](ptr, rt.pcb, f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

// bankGetRegs returns the registers of the bank, i.e. those having both an
// offset and the given bank number.
func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	ptr, err := structValue(bank)
	if err != nil {
		return nil, err
	}

	v := ptr.Elem()
	t := v.Type()

	var regs []bankReg
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type != reg8Type || !f.IsExported() {
			continue
		}
		tag, ok := f.Tag.Lookup("hwio")
		if !ok {
			continue
		}
		rt, err := parseTag(f.Name, tag)
		if err != nil {
			return nil, err
		}
		if !rt.hasOffset || rt.bank != bankNum {
			continue
		}
		regs = append(regs, bankReg{
			offset: rt.offset,
			regPtr: v.Field(i).Addr().Interface().(*Reg8),
		})
	}
	return regs, nil
}
