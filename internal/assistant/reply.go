package assistant

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var ErrNoReply = errors.New("model reply has no JSON object")

// Reply is the structured answer the model is asked to produce.
type Reply struct {
	Reply         string `json:"reply"`
	AddItemID     string `json:"add_item_id"`
	FinalizeOrder bool   `json:"finalize_order"`
}

// ParseReply extracts the reply object from model output. Code fences and
// surrounding prose are tolerated; broken JSON is repaired once.
func ParseReply(content string) (Reply, error) {
	raw := extractObject(content)
	if raw == "" {
		return Reply{}, ErrNoReply
	}
	var r Reply
	if err := unmarshalJSON([]byte(raw), &r); err != nil {
		return Reply{}, err
	}
	r.Reply = strings.TrimSpace(r.Reply)
	r.AddItemID = strings.TrimSpace(r.AddItemID)
	return r, nil
}

func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

// extractObject returns the text from the first '{' to the last '}', or to the
// end when the closing brace is missing.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}
