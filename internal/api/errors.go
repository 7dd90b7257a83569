package api

import "github.com/buzzblog/buzzblog/internal/rpc"

// The typed domain errors below are part of the wire contract: each one is a
// declared exception of some service method and round-trips as an exception
// struct of shape {1: message} in the method's result slot.

func writeErrStruct(w *rpc.Writer, message string) {
	if message != "" {
		w.WriteFieldBegin(rpc.TypeString, 1)
		w.WriteString(message)
	}
	w.WriteFieldStop()
}

func readErrStruct(r *rpc.Reader) (string, error) {
	var message string
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return "", err
		}
		if ft == rpc.TypeStop {
			return message, nil
		}
		switch {
		case id == 1 && ft == rpc.TypeString:
			message, err = r.ReadString()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return "", err
		}
	}
}

// AccountInvalidCredentialsError signals a bad username or password.
type AccountInvalidCredentialsError struct{ Message string }

func (e *AccountInvalidCredentialsError) Error() string { return "account: invalid credentials" }

// AccountDeactivatedError signals authentication against a soft-deleted
// account.
type AccountDeactivatedError struct{ Message string }

func (e *AccountDeactivatedError) Error() string { return "account: deactivated" }

// AccountUsernameAlreadyExistsError signals a username uniqueness conflict.
type AccountUsernameAlreadyExistsError struct{ Message string }

func (e *AccountUsernameAlreadyExistsError) Error() string { return "account: username already exists" }

// AccountInvalidAttributesError signals attribute validation failure.
type AccountInvalidAttributesError struct{ Message string }

func (e *AccountInvalidAttributesError) Error() string { return "account: invalid attributes" }

// AccountNotAuthorizedError signals a requester acting on another account.
type AccountNotAuthorizedError struct{ Message string }

func (e *AccountNotAuthorizedError) Error() string { return "account: not authorized" }

// AccountNotFoundError signals a missing account row.
type AccountNotFoundError struct{ Message string }

func (e *AccountNotFoundError) Error() string { return "account: not found" }

// FollowAlreadyExistsError signals a duplicate follow relation.
type FollowAlreadyExistsError struct{ Message string }

func (e *FollowAlreadyExistsError) Error() string { return "follow: already exists" }

// FollowNotFoundError signals a missing follow relation.
type FollowNotFoundError struct{ Message string }

func (e *FollowNotFoundError) Error() string { return "follow: not found" }

// FollowNotAuthorizedError signals a requester deleting another account's
// follow.
type FollowNotAuthorizedError struct{ Message string }

func (e *FollowNotAuthorizedError) Error() string { return "follow: not authorized" }

// FollowInvalidAttributesError signals an invalid follow request, such as
// following oneself.
type FollowInvalidAttributesError struct{ Message string }

func (e *FollowInvalidAttributesError) Error() string { return "follow: invalid attributes" }

// LikeAlreadyExistsError signals a duplicate like relation.
type LikeAlreadyExistsError struct{ Message string }

func (e *LikeAlreadyExistsError) Error() string { return "like: already exists" }

// LikeNotFoundError signals a missing like relation.
type LikeNotFoundError struct{ Message string }

func (e *LikeNotFoundError) Error() string { return "like: not found" }

// LikeNotAuthorizedError signals a requester deleting another account's like.
type LikeNotAuthorizedError struct{ Message string }

func (e *LikeNotAuthorizedError) Error() string { return "like: not authorized" }

// PostInvalidAttributesError signals post text validation failure.
type PostInvalidAttributesError struct{ Message string }

func (e *PostInvalidAttributesError) Error() string { return "post: invalid attributes" }

// PostNotFoundError signals a missing post row.
type PostNotFoundError struct{ Message string }

func (e *PostNotFoundError) Error() string { return "post: not found" }

// PostNotAuthorizedError signals a requester deleting another author's post.
type PostNotAuthorizedError struct{ Message string }

func (e *PostNotAuthorizedError) Error() string { return "post: not authorized" }

// UniquepairAlreadyExistsError signals a (domain, first, second) uniqueness
// conflict.
type UniquepairAlreadyExistsError struct{ Message string }

func (e *UniquepairAlreadyExistsError) Error() string { return "uniquepair: already exists" }

// UniquepairNotFoundError signals a missing uniquepair row.
type UniquepairNotFoundError struct{ Message string }

func (e *UniquepairNotFoundError) Error() string { return "uniquepair: not found" }
