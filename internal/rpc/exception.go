package rpc

import "fmt"

// Application exception error codes.
const (
	ExcUnknown            int32 = 0
	ExcUnknownMethod      int32 = 1
	ExcInvalidMessageType int32 = 2
	ExcWrongMethodName    int32 = 3
	ExcBadSequenceID      int32 = 4
	ExcMissingResult      int32 = 5
	ExcInternalError      int32 = 6
	ExcProtocolError      int32 = 7
)

// ApplicationException is the generic wire exception used for any failure
// outside a method's declared exception set: unknown methods, protocol
// errors, and unhandled handler failures.
type ApplicationException struct {
	Message string
	Code    int32
}

// NewApplicationException builds an ApplicationException with the given code.
func NewApplicationException(code int32, message string) *ApplicationException {
	return &ApplicationException{Message: message, Code: code}
}

func (e *ApplicationException) Error() string {
	return fmt.Sprintf("application exception (code %d): %s", e.Code, e.Message)
}

// Write encodes the exception struct: {1: message, 2: type}.
func (e *ApplicationException) Write(w *Writer) {
	w.WriteFieldBegin(TypeString, 1)
	w.WriteString(e.Message)
	w.WriteFieldBegin(TypeI32, 2)
	w.WriteI32(e.Code)
	w.WriteFieldStop()
}

// Read decodes the exception struct, skipping unknown fields.
func (e *ApplicationException) Read(r *Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == TypeString:
			e.Message, err = r.ReadString()
		case id == 2 && ft == TypeI32:
			e.Code, err = r.ReadI32()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}
