package api

import "github.com/buzzblog/buzzblog/internal/rpc"

// Argument structs shared across service methods. The request-metadata
// envelope is always field 1; remaining arguments take ids 2..n in
// declaration order.

// wireStruct constrains a pointer type that both encodes and decodes.
type wireStruct[T any] interface {
	*T
	rpc.Writable
	rpc.Readable
}

type metaI32Args struct {
	Meta RequestMetadata
	V    int32
}

func (a *metaI32Args) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeStruct, 1)
	a.Meta.Write(w)
	w.WriteFieldBegin(rpc.TypeI32, 2)
	w.WriteI32(a.V)
	w.WriteFieldStop()
}

func (a *metaI32Args) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeStruct:
			err = a.Meta.Read(r)
		case id == 2 && ft == rpc.TypeI32:
			a.V, err = r.ReadI32()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

type metaI32I32Args struct {
	Meta RequestMetadata
	A, B int32
}

func (a *metaI32I32Args) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeStruct, 1)
	a.Meta.Write(w)
	w.WriteFieldBegin(rpc.TypeI32, 2)
	w.WriteI32(a.A)
	w.WriteFieldBegin(rpc.TypeI32, 3)
	w.WriteI32(a.B)
	w.WriteFieldStop()
}

func (a *metaI32I32Args) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeStruct:
			err = a.Meta.Read(r)
		case id == 2 && ft == rpc.TypeI32:
			a.A, err = r.ReadI32()
		case id == 3 && ft == rpc.TypeI32:
			a.B, err = r.ReadI32()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

type metaStringArgs struct {
	Meta RequestMetadata
	S    string
}

func (a *metaStringArgs) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeStruct, 1)
	a.Meta.Write(w)
	w.WriteFieldBegin(rpc.TypeString, 2)
	w.WriteString(a.S)
	w.WriteFieldStop()
}

func (a *metaStringArgs) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeStruct:
			err = a.Meta.Read(r)
		case id == 2 && ft == rpc.TypeString:
			a.S, err = r.ReadString()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

type metaString2Args struct {
	Meta   RequestMetadata
	S1, S2 string
}

func (a *metaString2Args) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeStruct, 1)
	a.Meta.Write(w)
	w.WriteFieldBegin(rpc.TypeString, 2)
	w.WriteString(a.S1)
	w.WriteFieldBegin(rpc.TypeString, 3)
	w.WriteString(a.S2)
	w.WriteFieldStop()
}

func (a *metaString2Args) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeStruct:
			err = a.Meta.Read(r)
		case id == 2 && ft == rpc.TypeString:
			a.S1, err = r.ReadString()
		case id == 3 && ft == rpc.TypeString:
			a.S2, err = r.ReadString()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

type metaString4Args struct {
	Meta           RequestMetadata
	S1, S2, S3, S4 string
}

func (a *metaString4Args) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeStruct, 1)
	a.Meta.Write(w)
	w.WriteFieldBegin(rpc.TypeString, 2)
	w.WriteString(a.S1)
	w.WriteFieldBegin(rpc.TypeString, 3)
	w.WriteString(a.S2)
	w.WriteFieldBegin(rpc.TypeString, 4)
	w.WriteString(a.S3)
	w.WriteFieldBegin(rpc.TypeString, 5)
	w.WriteString(a.S4)
	w.WriteFieldStop()
}

func (a *metaString4Args) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeStruct:
			err = a.Meta.Read(r)
		case id == 2 && ft == rpc.TypeString:
			a.S1, err = r.ReadString()
		case id == 3 && ft == rpc.TypeString:
			a.S2, err = r.ReadString()
		case id == 4 && ft == rpc.TypeString:
			a.S3, err = r.ReadString()
		case id == 5 && ft == rpc.TypeString:
			a.S4, err = r.ReadString()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

type metaI32String3Args struct {
	Meta       RequestMetadata
	V          int32
	S1, S2, S3 string
}

func (a *metaI32String3Args) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeStruct, 1)
	a.Meta.Write(w)
	w.WriteFieldBegin(rpc.TypeI32, 2)
	w.WriteI32(a.V)
	w.WriteFieldBegin(rpc.TypeString, 3)
	w.WriteString(a.S1)
	w.WriteFieldBegin(rpc.TypeString, 4)
	w.WriteString(a.S2)
	w.WriteFieldBegin(rpc.TypeString, 5)
	w.WriteString(a.S3)
	w.WriteFieldStop()
}

func (a *metaI32String3Args) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeStruct:
			err = a.Meta.Read(r)
		case id == 2 && ft == rpc.TypeI32:
			a.V, err = r.ReadI32()
		case id == 3 && ft == rpc.TypeString:
			a.S1, err = r.ReadString()
		case id == 4 && ft == rpc.TypeString:
			a.S2, err = r.ReadString()
		case id == 5 && ft == rpc.TypeString:
			a.S3, err = r.ReadString()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

type metaStringI32I32Args struct {
	Meta RequestMetadata
	S    string
	A, B int32
}

func (a *metaStringI32I32Args) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeStruct, 1)
	a.Meta.Write(w)
	w.WriteFieldBegin(rpc.TypeString, 2)
	w.WriteString(a.S)
	w.WriteFieldBegin(rpc.TypeI32, 3)
	w.WriteI32(a.A)
	w.WriteFieldBegin(rpc.TypeI32, 4)
	w.WriteI32(a.B)
	w.WriteFieldStop()
}

func (a *metaStringI32I32Args) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeStruct:
			err = a.Meta.Read(r)
		case id == 2 && ft == rpc.TypeString:
			a.S, err = r.ReadString()
		case id == 3 && ft == rpc.TypeI32:
			a.A, err = r.ReadI32()
		case id == 4 && ft == rpc.TypeI32:
			a.B, err = r.ReadI32()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

// queryListArgs carries (meta, query, limit, offset) for the list_* and
// fetch methods.
type queryListArgs[Q any, PQ wireStruct[Q]] struct {
	Meta   RequestMetadata
	Query  Q
	Limit  int32
	Offset int32
}

func (a *queryListArgs[Q, PQ]) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeStruct, 1)
	a.Meta.Write(w)
	w.WriteFieldBegin(rpc.TypeStruct, 2)
	PQ(&a.Query).Write(w)
	w.WriteFieldBegin(rpc.TypeI32, 3)
	w.WriteI32(a.Limit)
	w.WriteFieldBegin(rpc.TypeI32, 4)
	w.WriteI32(a.Offset)
	w.WriteFieldStop()
}

func (a *queryListArgs[Q, PQ]) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeStruct:
			err = a.Meta.Read(r)
		case id == 2 && ft == rpc.TypeStruct:
			err = PQ(&a.Query).Read(r)
		case id == 3 && ft == rpc.TypeI32:
			a.Limit, err = r.ReadI32()
		case id == 4 && ft == rpc.TypeI32:
			a.Offset, err = r.ReadI32()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

// queryArgs carries (meta, query) for the count method.
type queryArgs[Q any, PQ wireStruct[Q]] struct {
	Meta  RequestMetadata
	Query Q
}

func (a *queryArgs[Q, PQ]) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeStruct, 1)
	a.Meta.Write(w)
	w.WriteFieldBegin(rpc.TypeStruct, 2)
	PQ(&a.Query).Write(w)
	w.WriteFieldStop()
}

func (a *queryArgs[Q, PQ]) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeStruct:
			err = a.Meta.Read(r)
		case id == 2 && ft == rpc.TypeStruct:
			err = PQ(&a.Query).Read(r)
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}
