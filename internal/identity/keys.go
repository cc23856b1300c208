// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identity

import (
	"github.com/google/uuid"

	"github.com/pdiddy/talent-engine/pkg/types"
)

// Level is an identity-key precedence level. Lower values win.
type Level int

const (
	LevelScholar Level = iota + 1
	LevelCodeHost
	LevelName
)

func (l Level) String() string {
	switch l {
	case LevelScholar:
		return "scholar"
	case LevelCodeHost:
		return "codehost"
	case LevelName:
		return "name"
	}
	return "unknown"
}

// Key is an identity key at one precedence level.
type Key struct {
	Level Level
	Value string
}

// String renders the key as "<level>:<value>"; this is the input of the
// person id hash and must never change format.
func (k Key) String() string { return k.Level.String() + ":" + k.Value }

// IsZero reports whether the key is unset.
func (k Key) IsZero() bool { return k.Value == "" }

// personNamespace seeds the name-based UUIDs used as person ids.
var personNamespace = uuid.MustParse("6f1c9a52-3b1e-5d4f-9a0e-7c2b8e4d1f30")

// PersonID derives the stable person id for a key: a version 5 (SHA-1)
// UUID of the key string. The same key yields the same id in every run.
func PersonID(k Key) string {
	return uuid.NewSHA1(personNamespace, []byte(k.String())).String()
}

// Keys is the set of identity keys a record carries, one per level.
type Keys struct {
	Scholar  Key
	CodeHost Key
	Name     Key
}

// KeysFor extracts the identity keys of rec.
func KeysFor(rec types.RawCandidateRecord) Keys {
	var ks Keys
	if id := rec.ScholarID(); id != "" {
		ks.Scholar = Key{Level: LevelScholar, Value: id}
	}
	if h := NormalizeHandle(rec.Handle()); h != "" {
		ks.CodeHost = Key{Level: LevelCodeHost, Value: h}
	}
	if name := NormalizeName(rec.DisplayName); name != "" {
		ks.Name = Key{Level: LevelName, Value: name + "|" + NormalizeName(rec.Affiliation)}
	}
	return ks
}

// Best returns the highest-precedence non-empty key, and false when the
// record carries none.
func (ks Keys) Best() (Key, bool) {
	for _, k := range []Key{ks.Scholar, ks.CodeHost, ks.Name} {
		if !k.IsZero() {
			return k, true
		}
	}
	return Key{}, false
}
