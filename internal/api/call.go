package api

import (
	"fmt"

	"github.com/buzzblog/buzzblog/internal/rpc"
)

// wireResult is the encoded result struct of one method: either the success
// value in field 0 or a declared exception in field excID. A void success
// writes an empty struct.
type wireResult struct {
	typ    rpc.Type
	write  func(w *rpc.Writer)
	excID  int16
	excMsg string
}

func (res *wireResult) Write(w *rpc.Writer) {
	switch {
	case res.excID > 0:
		w.WriteFieldBegin(rpc.TypeStruct, res.excID)
		writeErrStruct(w, res.excMsg)
	case res.write != nil:
		w.WriteFieldBegin(res.typ, 0)
		res.write(w)
	}
	w.WriteFieldStop()
}

func voidResult() *wireResult { return &wireResult{} }

func excResult(id int16, msg string) *wireResult {
	return &wireResult{excID: id, excMsg: msg}
}

func structResult(v rpc.Writable) *wireResult {
	return &wireResult{typ: rpc.TypeStruct, write: v.Write}
}

func boolResult(v bool) *wireResult {
	return &wireResult{typ: rpc.TypeBool, write: func(w *rpc.Writer) { w.WriteBool(v) }}
}

func i32Result(v int32) *wireResult {
	return &wireResult{typ: rpc.TypeI32, write: func(w *rpc.Writer) { w.WriteI32(v) }}
}

func listResult[T any, PT wireStruct[T]](vs []T) *wireResult {
	return &wireResult{typ: rpc.TypeList, write: func(w *rpc.Writer) {
		w.WriteListBegin(rpc.TypeStruct, len(vs))
		for i := range vs {
			PT(&vs[i]).Write(w)
		}
	}}
}

func stringListResult(vs []string) *wireResult {
	return &wireResult{typ: rpc.TypeList, write: func(w *rpc.Writer) {
		w.WriteListBegin(rpc.TypeString, len(vs))
		for _, v := range vs {
			w.WriteString(v)
		}
	}}
}

// readResult walks a reply's result struct. Field 0 is handed to onSuccess
// (nil for void methods); any other struct field is decoded as a declared
// exception and mapped through newExc. It reports whether field 0 was seen.
func readResult(r *rpc.Reader, onSuccess func(ft rpc.Type, r *rpc.Reader) error, newExc func(id int16, msg string) error) (bool, error) {
	var (
		gotSuccess bool
		domainErr  error
	)
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return false, err
		}
		if ft == rpc.TypeStop {
			break
		}
		switch {
		case id == 0 && onSuccess != nil:
			if err := onSuccess(ft, r); err != nil {
				return false, err
			}
			gotSuccess = true
		case id > 0 && ft == rpc.TypeStruct && newExc != nil:
			msg, err := readErrStruct(r)
			if err != nil {
				return false, err
			}
			if e := newExc(id, msg); e != nil {
				domainErr = e
			}
		default:
			if err := r.Skip(ft); err != nil {
				return false, err
			}
		}
	}
	if domainErr != nil {
		return false, domainErr
	}
	return gotSuccess, nil
}

func readStruct(v rpc.Readable) func(ft rpc.Type, r *rpc.Reader) error {
	return func(ft rpc.Type, r *rpc.Reader) error {
		if ft != rpc.TypeStruct {
			return fmt.Errorf("op=api.read: result field type %d, want struct", ft)
		}
		return v.Read(r)
	}
}

func readBool(v *bool) func(ft rpc.Type, r *rpc.Reader) error {
	return func(ft rpc.Type, r *rpc.Reader) error {
		if ft != rpc.TypeBool {
			return fmt.Errorf("op=api.read: result field type %d, want bool", ft)
		}
		b, err := r.ReadBool()
		if err != nil {
			return err
		}
		*v = b
		return nil
	}
}

func readI32(v *int32) func(ft rpc.Type, r *rpc.Reader) error {
	return func(ft rpc.Type, r *rpc.Reader) error {
		if ft != rpc.TypeI32 {
			return fmt.Errorf("op=api.read: result field type %d, want i32", ft)
		}
		n, err := r.ReadI32()
		if err != nil {
			return err
		}
		*v = n
		return nil
	}
}

func readStructList[T any, PT wireStruct[T]](out *[]T) func(ft rpc.Type, r *rpc.Reader) error {
	return func(ft rpc.Type, r *rpc.Reader) error {
		if ft != rpc.TypeList {
			return fmt.Errorf("op=api.read: result field type %d, want list", ft)
		}
		elem, n, err := r.ReadListBegin()
		if err != nil {
			return err
		}
		if elem != rpc.TypeStruct {
			return fmt.Errorf("op=api.read: list element type %d, want struct", elem)
		}
		vs := make([]T, n)
		for i := range vs {
			if err := PT(&vs[i]).Read(r); err != nil {
				return err
			}
		}
		*out = vs
		return nil
	}
}

func readStringList(out *[]string) func(ft rpc.Type, r *rpc.Reader) error {
	return func(ft rpc.Type, r *rpc.Reader) error {
		if ft != rpc.TypeList {
			return fmt.Errorf("op=api.read: result field type %d, want list", ft)
		}
		elem, n, err := r.ReadListBegin()
		if err != nil {
			return err
		}
		if elem != rpc.TypeString {
			return fmt.Errorf("op=api.read: list element type %d, want string", elem)
		}
		vs := make([]string, n)
		for i := range vs {
			if vs[i], err = r.ReadString(); err != nil {
				return err
			}
		}
		*out = vs
		return nil
	}
}

// missingResult is returned by client stubs when a reply carries neither a
// success value nor a declared exception.
func missingResult(method string) error {
	return rpc.NewApplicationException(rpc.ExcMissingResult, method+" failed: unknown result")
}

// decodeArgs reads the argument struct of an incoming call, failing with a
// protocol-level exception so malformed frames do not masquerade as handler
// errors.
func decodeArgs(method string, in *rpc.Reader, args rpc.Readable) error {
	if err := args.Read(in); err != nil {
		return rpc.NewApplicationException(rpc.ExcProtocolError,
			fmt.Sprintf("%s: malformed arguments: %v", method, err))
	}
	return nil
}
