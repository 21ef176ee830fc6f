package item

import (
	"fmt"
	"strings"
)

// Kong is one of the five playable characters.
type Kong int

// Playable kongs in roster order.
const (
	KongDonkey Kong = iota
	KongDiddy
	KongLanky
	KongTiny
	KongChunky
)

// Kongs lists every kong in roster order.
var Kongs = []Kong{KongDonkey, KongDiddy, KongLanky, KongTiny, KongChunky}

var kongNames = [...]string{"donkey", "diddy", "lanky", "tiny", "chunky"}

// String returns the lowercase kong name.
func (k Kong) String() string {
	if k < 0 || int(k) >= len(kongNames) {
		return fmt.Sprintf("kong(%d)", int(k))
	}
	return kongNames[k]
}

// Item returns the item that unlocks k.
func (k Kong) Item() Kind {
	return Donkey + Kind(k)
}

// ParseKong resolves a kong name.
//
// Postcondition: Returns the matching Kong or an error naming the unknown kong.
func ParseKong(name string) (Kong, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, kn := range kongNames {
		if kn == n {
			return Kong(i), nil
		}
	}
	return 0, fmt.Errorf("unknown kong %q", name)
}

// MarshalText encodes the kong name.
func (k Kong) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kong name.
func (k *Kong) UnmarshalText(b []byte) error {
	v, err := ParseKong(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
