// Command libbattinfo builds the battery library as a C shared library:
//
//	go build -buildmode=c-shared -o libbattinfo.so ./cmd/libbattinfo
//
// Every pointer-like value crossing the boundary is an opaque uint64
// handle, 0 meaning NULL. Strings are returned as malloc'ed C strings that
// must be passed back to battery_str_free.
package main

/*
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/battinfo/pkg/handle"
)

var reg = handle.Default

// C strings handed out, mapped to their string handles.
var (
	stringsMu sync.Mutex
	cstrings  = map[unsafe.Pointer]handle.Handle{}
)

func main() {}

func logFree(what string, err error) {
	if err != nil {
		logrus.Warnf("failed to free %s: %v", what, err)
	}
}

//export battery_manager_new
func battery_manager_new() C.uint64_t {
	return C.uint64_t(reg.ManagerNew())
}

//export battery_manager_iter
func battery_manager_iter(m C.uint64_t) C.uint64_t {
	return C.uint64_t(reg.ManagerIter(handle.Handle(m)))
}

//export battery_manager_refresh
func battery_manager_refresh(m, b C.uint64_t) C.int {
	return C.int(reg.ManagerRefresh(handle.Handle(m), handle.Handle(b)))
}

//export battery_manager_free
func battery_manager_free(m C.uint64_t) {
	logFree("manager", reg.ManagerFree(handle.Handle(m)))
}

//export battery_iterator_next
func battery_iterator_next(it C.uint64_t) C.uint64_t {
	return C.uint64_t(reg.IteratorNext(handle.Handle(it)))
}

//export battery_iterator_free
func battery_iterator_free(it C.uint64_t) {
	logFree("iterator", reg.IteratorFree(handle.Handle(it)))
}

//export battery_free
func battery_free(b C.uint64_t) {
	logFree("battery", reg.BatteryFree(handle.Handle(b)))
}

//export battery_get_energy
func battery_get_energy(b C.uint64_t) C.uint32_t {
	return C.uint32_t(reg.BatteryEnergy(handle.Handle(b)))
}

//export battery_get_energy_full
func battery_get_energy_full(b C.uint64_t) C.uint32_t {
	return C.uint32_t(reg.BatteryEnergyFull(handle.Handle(b)))
}

//export battery_get_energy_full_design
func battery_get_energy_full_design(b C.uint64_t) C.uint32_t {
	return C.uint32_t(reg.BatteryEnergyFullDesign(handle.Handle(b)))
}

//export battery_get_energy_rate
func battery_get_energy_rate(b C.uint64_t) C.uint32_t {
	return C.uint32_t(reg.BatteryEnergyRate(handle.Handle(b)))
}

//export battery_get_voltage
func battery_get_voltage(b C.uint64_t) C.uint32_t {
	return C.uint32_t(reg.BatteryVoltage(handle.Handle(b)))
}

//export battery_get_percentage
func battery_get_percentage(b C.uint64_t) C.float {
	return C.float(reg.BatteryStateOfCharge(handle.Handle(b)))
}

//export battery_get_capacity
func battery_get_capacity(b C.uint64_t) C.float {
	return C.float(reg.BatteryStateOfHealth(handle.Handle(b)))
}

//export battery_get_temperature
func battery_get_temperature(b C.uint64_t) C.float {
	return C.float(reg.BatteryTemperature(handle.Handle(b)))
}

//export battery_get_cycle_count
func battery_get_cycle_count(b C.uint64_t) C.uint32_t {
	return C.uint32_t(reg.BatteryCycleCount(handle.Handle(b)))
}

//export battery_get_time_to_full
func battery_get_time_to_full(b C.uint64_t) C.uint64_t {
	return C.uint64_t(reg.BatteryTimeToFull(handle.Handle(b)))
}

//export battery_get_time_to_empty
func battery_get_time_to_empty(b C.uint64_t) C.uint64_t {
	return C.uint64_t(reg.BatteryTimeToEmpty(handle.Handle(b)))
}

//export battery_get_state
func battery_get_state(b C.uint64_t) C.uint8_t {
	return C.uint8_t(reg.BatteryState(handle.Handle(b)))
}

//export battery_get_technology
func battery_get_technology(b C.uint64_t) C.uint8_t {
	return C.uint8_t(reg.BatteryTechnology(handle.Handle(b)))
}

func cstring(h handle.Handle) *C.char {
	if h == handle.Null {
		return nil
	}

	s := C.CString(reg.Str(h))
	stringsMu.Lock()
	cstrings[unsafe.Pointer(s)] = h
	stringsMu.Unlock()

	return s
}

//export battery_get_vendor
func battery_get_vendor(b C.uint64_t) *C.char {
	return cstring(reg.BatteryVendor(handle.Handle(b)))
}

//export battery_get_model
func battery_get_model(b C.uint64_t) *C.char {
	return cstring(reg.BatteryModel(handle.Handle(b)))
}

//export battery_get_serial_number
func battery_get_serial_number(b C.uint64_t) *C.char {
	return cstring(reg.BatterySerialNumber(handle.Handle(b)))
}

//export battery_str_free
func battery_str_free(s *C.char) {
	if s == nil {
		return
	}

	p := unsafe.Pointer(s)
	stringsMu.Lock()
	h, ok := cstrings[p]
	delete(cstrings, p)
	stringsMu.Unlock()

	if !ok {
		logrus.Warnf("battery_str_free: %p was not returned by this library", p)
		return
	}
	logFree("string", reg.StrFree(h))
	C.free(p)
}

//export battery_have_last_error
func battery_have_last_error() C.int {
	if reg.HaveLastError() {
		return 1
	}
	return 0
}

// battery_last_error_length returns the message length including the
// trailing NUL, or 0 without error.
//
//export battery_last_error_length
func battery_last_error_length() C.int {
	msg := reg.LastErrorMessage()
	if msg == "" {
		return 0
	}
	return C.int(len(msg) + 1)
}

// battery_last_error_message copies the message into buffer and clears
// the error. It returns -1 when buffer is NULL or too small.
//
//export battery_last_error_message
func battery_last_error_message(buffer *C.char, length C.int) C.int {
	if buffer == nil {
		return -1
	}

	msg := reg.LastErrorMessage()
	if msg == "" {
		return 0
	}
	if len(msg) >= int(length) {
		return -1
	}

	cs := C.CString(msg)
	defer C.free(unsafe.Pointer(cs))
	C.memcpy(unsafe.Pointer(buffer), unsafe.Pointer(cs), C.size_t(len(msg)+1))
	reg.ClearLastError()

	return C.int(len(msg))
}

//export battery_clear_last_error
func battery_clear_last_error() {
	reg.ClearLastError()
}
