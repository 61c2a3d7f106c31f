package preferences_test

import "encoding/base64"

func encodeKey(key [32]byte) string {
	return base64.URLEncoding.EncodeToString(key[:])
}
