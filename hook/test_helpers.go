package hook

import (
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

// MatchBody matches a request body by its JSON encoding, decoded into a map
func MatchBody(matcher func(map[string]any) bool) interface{} {
	return mock.MatchedBy(func(body any) bool {
		b, err := json.Marshal(body)
		if err != nil {
			return false
		}
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			return false
		}
		return matcher(m)
	})
}
