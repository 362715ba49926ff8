package idwrap

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDWrap is a ULID used for run, execution and generated graph ids.
type IDWrap struct {
	ulid ulid.ULID
}

func New(ulid ulid.ULID) IDWrap {
	return IDWrap{ulid: ulid}
}

func NewNow() IDWrap {
	return IDWrap{ulid: ulid.Make()}
}

func NewText(ulidString string) (IDWrap, error) {
	ulid, err := ulid.Parse(ulidString)
	if err != nil {
		return IDWrap{}, err
	}
	return IDWrap{ulid: ulid}, nil
}

func NewTextMust(ulidString string) IDWrap {
	ulid, err := ulid.Parse(ulidString)
	if err != nil {
		panic(err)
	}
	return IDWrap{ulid: ulid}
}

// NewPrefixed returns "<prefix>_<ulid>" in lower case, the shape used for
// node and edge ids generated on behalf of a host.
func NewPrefixed(prefix string) string {
	id := strings.ToLower(NewNow().String())
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

func (u IDWrap) String() string {
	return u.ulid.String()
}

func (u IDWrap) IsZero() bool {
	return u.ulid == ulid.ULID{}
}

func (u IDWrap) Compare(id IDWrap) int {
	return u.ulid.Compare(id.ulid)
}

func (u IDWrap) Time() time.Time {
	return time.UnixMilli(int64(u.ulid.Time()))
}

func (u IDWrap) MarshalText() ([]byte, error) {
	return u.ulid.MarshalText()
}

func (u *IDWrap) UnmarshalText(data []byte) error {
	return u.ulid.UnmarshalText(data)
}
