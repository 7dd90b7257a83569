// Package api defines the wire contract shared by all BuzzBlog services:
// the request-metadata envelope, the entity and query structs with their
// fixed field ids, the typed domain errors that round-trip as exception
// structs, and the client stubs and server processors for each service.
//
// Field ids are the compatibility surface; names never travel on the wire.
package api

import (
	"github.com/google/uuid"

	"github.com/buzzblog/buzzblog/internal/rpc"
)

// RequestMetadata is attached to every RPC. ID is opaque, globally unique
// per top-level user request, and propagated verbatim across nested calls;
// RequesterID is the authenticated caller's account id, or a sentinel when
// unauthenticated.
type RequestMetadata struct {
	ID          string
	RequesterID int32
}

/// NewRequestMetadata mints the envelope for a fresh top-level request.
// Callers behind a gateway reuse the gateway-assigned id instead.
func NewRequestMetadata(requesterID int32) RequestMetadata {
	return RequestMetadata{ID: uuid.NewString(), RequesterID: requesterID}
}

// Write encodes the envelope: {1: id, 2: requester_id}.
func (m *RequestMetadata) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeString, 1)
	w.WriteString(m.ID)
	w.WriteFieldBegin(rpc.TypeI32, 2)
	w.WriteI32(m.RequesterID)
	w.WriteFieldStop()
}

// Read decodes the envelope.
func (m *RequestMetadata) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeString:
			m.ID, err = r.ReadString()
		case id == 2 && ft == rpc.TypeI32:
			m.RequesterID, err = r.ReadI32()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

// Bool returns a pointer to v, for optional wire fields.
func Bool(v bool) *bool { return &v }

// I32 returns a pointer to v, for optional wire fields.
func I32(v int32) *int32 { return &v }

// String returns a pointer to v, for optional wire fields.
func String(v string) *string { return &v }

// Account is the account record. The pointer fields are the expanded view
// and are only set by retrieve_expanded_account and list_accounts.
type Account struct {
	ID        int32
	CreatedAt int64
	Active    bool
	Username  string
	FirstName string
	LastName  string

	FollowedByYou *bool
	FollowsYou    *bool
	NFollowers    *int32
	NFollowing    *int32
	NPosts        *int32
	NLikes        *int32
}

// Write encodes the account struct.
func (a *Account) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeI32, 1)
	w.WriteI32(a.ID)
	w.WriteFieldBegin(rpc.TypeI64, 2)
	w.WriteI64(a.CreatedAt)
	w.WriteFieldBegin(rpc.TypeBool, 3)
	w.WriteBool(a.Active)
	w.WriteFieldBegin(rpc.TypeString, 4)
	w.WriteString(a.Username)
	w.WriteFieldBegin(rpc.TypeString, 5)
	w.WriteString(a.FirstName)
	w.WriteFieldBegin(rpc.TypeString, 6)
	w.WriteString(a.LastName)
	if a.FollowedByYou != nil {
		w.WriteFieldBegin(rpc.TypeBool, 7)
		w.WriteBool(*a.FollowedByYou)
	}
	if a.FollowsYou != nil {
		w.WriteFieldBegin(rpc.TypeBool, 8)
		w.WriteBool(*a.FollowsYou)
	}
	if a.NFollowers != nil {
		w.WriteFieldBegin(rpc.TypeI32, 9)
		w.WriteI32(*a.NFollowers)
	}
	if a.NFollowing != nil {
		w.WriteFieldBegin(rpc.TypeI32, 10)
		w.WriteI32(*a.NFollowing)
	}
	if a.NPosts != nil {
		w.WriteFieldBegin(rpc.TypeI32, 11)
		w.WriteI32(*a.NPosts)
	}
	if a.NLikes != nil {
		w.WriteFieldBegin(rpc.TypeI32, 12)
		w.WriteI32(*a.NLikes)
	}
	w.WriteFieldStop()
}

// Read decodes the account struct.
func (a *Account) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeI32:
			a.ID, err = r.ReadI32()
		case id == 2 && ft == rpc.TypeI64:
			a.CreatedAt, err = r.ReadI64()
		case id == 3 && ft == rpc.TypeBool:
			a.Active, err = r.ReadBool()
		case id == 4 && ft == rpc.TypeString:
			a.Username, err = r.ReadString()
		case id == 5 && ft == rpc.TypeString:
			a.FirstName, err = r.ReadString()
		case id == 6 && ft == rpc.TypeString:
			a.LastName, err = r.ReadString()
		case id == 7 && ft == rpc.TypeBool:
			var v bool
			v, err = r.ReadBool()
			a.FollowedByYou = &v
		case id == 8 && ft == rpc.TypeBool:
			var v bool
			v, err = r.ReadBool()
			a.FollowsYou = &v
		case id == 9 && ft == rpc.TypeI32:
			var v int32
			v, err = r.ReadI32()
			a.NFollowers = &v
		case id == 10 && ft == rpc.TypeI32:
			var v int32
			v, err = r.ReadI32()
			a.NFollowing = &v
		case id == 11 && ft == rpc.TypeI32:
			var v int32
			v, err = r.ReadI32()
			a.NPosts = &v
		case id == 12 && ft == rpc.TypeI32:
			var v int32
			v, err = r.ReadI32()
			a.NLikes = &v
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

// Post is the post record; Author and NLikes are the expanded view.
type Post struct {
	ID        int32
	CreatedAt int64
	Active    bool
	Text      string
	AuthorID  int32

	Author *Account
	NLikes *int32
}

// Write encodes the post struct.
func (p *Post) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeI32, 1)
	w.WriteI32(p.ID)
	w.WriteFieldBegin(rpc.TypeI64, 2)
	w.WriteI64(p.CreatedAt)
	w.WriteFieldBegin(rpc.TypeBool, 3)
	w.WriteBool(p.Active)
	w.WriteFieldBegin(rpc.TypeString, 4)
	w.WriteString(p.Text)
	w.WriteFieldBegin(rpc.TypeI32, 5)
	w.WriteI32(p.AuthorID)
	if p.Author != nil {
		w.WriteFieldBegin(rpc.TypeStruct, 6)
		p.Author.Write(w)
	}
	if p.NLikes != nil {
		w.WriteFieldBegin(rpc.TypeI32, 7)
		w.WriteI32(*p.NLikes)
	}
	w.WriteFieldStop()
}

// Read decodes the post struct.
func (p *Post) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeI32:
			p.ID, err = r.ReadI32()
		case id == 2 && ft == rpc.TypeI64:
			p.CreatedAt, err = r.ReadI64()
		case id == 3 && ft == rpc.TypeBool:
			p.Active, err = r.ReadBool()
		case id == 4 && ft == rpc.TypeString:
			p.Text, err = r.ReadString()
		case id == 5 && ft == rpc.TypeI32:
			p.AuthorID, err = r.ReadI32()
		case id == 6 && ft == rpc.TypeStruct:
			p.Author = &Account{}
			err = p.Author.Read(r)
		case id == 7 && ft == rpc.TypeI32:
			var v int32
			v, err = r.ReadI32()
			p.NLikes = &v
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

// Follow is the follow relation; Follower and Followee are the expanded view.
type Follow struct {
	ID         int32
	CreatedAt  int64
	FollowerID int32
	FolloweeID int32

	Follower *Account
	Followee *Account
}

// Write encodes the follow struct.
func (f *Follow) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeI32, 1)
	w.WriteI32(f.ID)
	w.WriteFieldBegin(rpc.TypeI64, 2)
	w.WriteI64(f.CreatedAt)
	w.WriteFieldBegin(rpc.TypeI32, 3)
	w.WriteI32(f.FollowerID)
	w.WriteFieldBegin(rpc.TypeI32, 4)
	w.WriteI32(f.FolloweeID)
	if f.Follower != nil {
		w.WriteFieldBegin(rpc.TypeStruct, 5)
		f.Follower.Write(w)
	}
	if f.Followee != nil {
		w.WriteFieldBegin(rpc.TypeStruct, 6)
		f.Followee.Write(w)
	}
	w.WriteFieldStop()
}

// Read decodes the follow struct.
func (f *Follow) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeI32:
			f.ID, err = r.ReadI32()
		case id == 2 && ft == rpc.TypeI64:
			f.CreatedAt, err = r.ReadI64()
		case id == 3 && ft == rpc.TypeI32:
			f.FollowerID, err = r.ReadI32()
		case id == 4 && ft == rpc.TypeI32:
			f.FolloweeID, err = r.ReadI32()
		case id == 5 && ft == rpc.TypeStruct:
			f.Follower = &Account{}
			err = f.Follower.Read(r)
		case id == 6 && ft == rpc.TypeStruct:
			f.Followee = &Account{}
			err = f.Followee.Read(r)
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

// Like is the like relation; Account and Post are the expanded view.
type Like struct {
	ID        int32
	CreatedAt int64
	AccountID int32
	PostID    int32

	Account *Account
	Post    *Post
}

// Write encodes the like struct.
func (l *Like) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeI32, 1)
	w.WriteI32(l.ID)
	w.WriteFieldBegin(rpc.TypeI64, 2)
	w.WriteI64(l.CreatedAt)
	w.WriteFieldBegin(rpc.TypeI32, 3)
	w.WriteI32(l.AccountID)
	w.WriteFieldBegin(rpc.TypeI32, 4)
	w.WriteI32(l.PostID)
	if l.Account != nil {
		w.WriteFieldBegin(rpc.TypeStruct, 5)
		l.Account.Write(w)
	}
	if l.Post != nil {
		w.WriteFieldBegin(rpc.TypeStruct, 6)
		l.Post.Write(w)
	}
	w.WriteFieldStop()
}

// Read decodes the like struct.
func (l *Like) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeI32:
			l.ID, err = r.ReadI32()
		case id == 2 && ft == rpc.TypeI64:
			l.CreatedAt, err = r.ReadI64()
		case id == 3 && ft == rpc.TypeI32:
			l.AccountID, err = r.ReadI32()
		case id == 4 && ft == rpc.TypeI32:
			l.PostID, err = r.ReadI32()
		case id == 5 && ft == rpc.TypeStruct:
			l.Account = &Account{}
			err = l.Account.Read(r)
		case id == 6 && ft == rpc.TypeStruct:
			l.Post = &Post{}
			err = l.Post.Read(r)
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

// Uniquepair is one row of the generic unique-pair table.
type Uniquepair struct {
	ID         int32
	CreatedAt  int64
	Domain     string
	FirstElem  int32
	SecondElem int32
}

// Write encodes the uniquepair struct.
func (u *Uniquepair) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeI32, 1)
	w.WriteI32(u.ID)
	w.WriteFieldBegin(rpc.TypeI64, 2)
	w.WriteI64(u.CreatedAt)
	w.WriteFieldBegin(rpc.TypeString, 3)
	w.WriteString(u.Domain)
	w.WriteFieldBegin(rpc.TypeI32, 4)
	w.WriteI32(u.FirstElem)
	w.WriteFieldBegin(rpc.TypeI32, 5)
	w.WriteI32(u.SecondElem)
	w.WriteFieldStop()
}

// Read decodes the uniquepair struct.
func (u *Uniquepair) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeI32:
			u.ID, err = r.ReadI32()
		case id == 2 && ft == rpc.TypeI64:
			u.CreatedAt, err = r.ReadI64()
		case id == 3 && ft == rpc.TypeString:
			u.Domain, err = r.ReadString()
		case id == 4 && ft == rpc.TypeI32:
			u.FirstElem, err = r.ReadI32()
		case id == 5 && ft == rpc.TypeI32:
			u.SecondElem, err = r.ReadI32()
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

// AccountQuery filters list_accounts.
type AccountQuery struct {
	Username *string
}

// Write encodes the query struct.
func (q *AccountQuery) Write(w *rpc.Writer) {
	if q.Username != nil {
		w.WriteFieldBegin(rpc.TypeString, 1)
		w.WriteString(*q.Username)
	}
	w.WriteFieldStop()
}

// Read decodes the query struct.
func (q *AccountQuery) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeString:
			var v string
			v, err = r.ReadString()
			q.Username = &v
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

// FollowQuery filters list_follows.
type FollowQuery struct {
	FollowerID *int32
	FolloweeID *int32
}

// Write encodes the query struct.
func (q *FollowQuery) Write(w *rpc.Writer) {
	if q.FollowerID != nil {
		w.WriteFieldBegin(rpc.TypeI32, 1)
		w.WriteI32(*q.FollowerID)
	}
	if q.FolloweeID != nil {
		w.WriteFieldBegin(rpc.TypeI32, 2)
		w.WriteI32(*q.FolloweeID)
	}
	w.WriteFieldStop()
}

// Read decodes the query struct.
func (q *FollowQuery) Read(r *rpc.Reader) error {
	return readTwoOptionalI32(r, &q.FollowerID, &q.FolloweeID)
}

// LikeQuery filters list_likes.
type LikeQuery struct {
	AccountID *int32
	PostID    *int32
}

// Write encodes the query struct.
func (q *LikeQuery) Write(w *rpc.Writer) {
	if q.AccountID != nil {
		w.WriteFieldBegin(rpc.TypeI32, 1)
		w.WriteI32(*q.AccountID)
	}
	if q.PostID != nil {
		w.WriteFieldBegin(rpc.TypeI32, 2)
		w.WriteI32(*q.PostID)
	}
	w.WriteFieldStop()
}

// Read decodes the query struct.
func (q *LikeQuery) Read(r *rpc.Reader) error {
	return readTwoOptionalI32(r, &q.AccountID, &q.PostID)
}

// PostQuery filters list_posts.
type PostQuery struct {
	AuthorID *int32
}

// Write encodes the query struct.
func (q *PostQuery) Write(w *rpc.Writer) {
	if q.AuthorID != nil {
		w.WriteFieldBegin(rpc.TypeI32, 1)
		w.WriteI32(*q.AuthorID)
	}
	w.WriteFieldStop()
}

// Read decodes the query struct.
func (q *PostQuery) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeI32:
			var v int32
			v, err = r.ReadI32()
			q.AuthorID = &v
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

// UniquepairQuery filters fetch and count. Domain is required; the element
// filters are optional.
type UniquepairQuery struct {
	Domain     string
	FirstElem  *int32
	SecondElem *int32
}

// Write encodes the query struct.
func (q *UniquepairQuery) Write(w *rpc.Writer) {
	w.WriteFieldBegin(rpc.TypeString, 1)
	w.WriteString(q.Domain)
	if q.FirstElem != nil {
		w.WriteFieldBegin(rpc.TypeI32, 2)
		w.WriteI32(*q.FirstElem)
	}
	if q.SecondElem != nil {
		w.WriteFieldBegin(rpc.TypeI32, 3)
		w.WriteI32(*q.SecondElem)
	}
	w.WriteFieldStop()
}

// Read decodes the query struct.
func (q *UniquepairQuery) Read(r *rpc.Reader) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeString:
			q.Domain, err = r.ReadString()
		case id == 2 && ft == rpc.TypeI32:
			var v int32
			v, err = r.ReadI32()
			q.FirstElem = &v
		case id == 3 && ft == rpc.TypeI32:
			var v int32
			v, err = r.ReadI32()
			q.SecondElem = &v
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}

func readTwoOptionalI32(r *rpc.Reader, first, second **int32) error {
	for {
		ft, id, err := r.ReadFieldBegin()
		if err != nil {
			return err
		}
		if ft == rpc.TypeStop {
			return nil
		}
		switch {
		case id == 1 && ft == rpc.TypeI32:
			var v int32
			v, err = r.ReadI32()
			*first = &v
		case id == 2 && ft == rpc.TypeI32:
			var v int32
			v, err = r.ReadI32()
			*second = &v
		default:
			err = r.Skip(ft)
		}
		if err != nil {
			return err
		}
	}
}
