// Package meos is the generated Go binding for a subset of the MEOS
// mobility library. Open the native library with meosrt.OpenNative and
// bind it with Open:
//
//	rt, err := meosrt.OpenNative("")
//	if err != nil {
//		return err
//	}
//	defer rt.Close()
//	lib, err := meos.Open(rt)
//	if err != nil {
//		return err
//	}
//	if err := lib.MeosInitialize(); err != nil {
//		return err
//	}
//	defer lib.MeosFinalize()
//
// Values returned as *meosrt.Owned must be released exactly once with
// Release. Errors raised by the native library come back as
// *meosrt.NativeError.
package meos

//go:generate go run ../cmd/meosbind generate
