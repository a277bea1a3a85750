package hashrecord

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidHashAccountSize = errors.New("invalid hash account size")
)

// HashAccount is the state stored in a hash account: the raw hash bytes with
// no framing.
type HashAccount struct {
	Hash []byte
}

func (obj HashAccount) Marshal() []byte {
	res := make([]byte, HashAccountSize)
	copy(res, obj.Hash)
	return res
}

func (obj *HashAccount) Unmarshal(data []byte) error {
	if len(data) < HashAccountSize {
		return ErrInvalidHashAccountSize
	}

	obj.Hash = make([]byte, HashSize)
	copy(obj.Hash, data[:HashSize])

	return nil
}

// IsEmpty reports whether no hash has been written to the account yet.
func (obj HashAccount) IsEmpty() bool {
	for _, b := range obj.Hash {
		if b != 0 {
			return false
		}
	}
	return true
}

func (obj HashAccount) String() string {
	return string(obj.Hash)
}
