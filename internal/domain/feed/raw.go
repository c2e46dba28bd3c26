package feed

import (
	"strings"

	"github.com/bytedance/sonic"
)

// RawMatchData is the top-level JSON feed document. Records stay undecoded so
// one malformed record cannot fail the others.
type RawMatchData struct {
	Name    string                   `json:"name"`
	Matches []sonic.NoCopyRawMessage `json:"matches"`
}

// RawMatch is one fixture exactly as the JSON feed publishes it.
type RawMatch struct {
	Round  string           `json:"round"`
	Group  string           `json:"group"`
	Date   string           `json:"date"`
	Time   string           `json:"time"`
	Team1  RawTeam          `json:"team1"`
	Team2  RawTeam          `json:"team2"`
	Score  *RawScorePayload `json:"score"`
	Score1 *int             `json:"score1"`
	Score2 *int             `json:"score2"`
}

// RawTeam accepts either a bare name or a {name, code} object.
type RawTeam struct {
	Name string
	Code string
}

func (t *RawTeam) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*t = RawTeam{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var name string
		if err := sonic.Unmarshal(data, &name); err != nil {
			return err
		}
		*t = RawTeam{Name: name}
		return nil
	}

	var obj struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	if err := sonic.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = RawTeam{Name: obj.Name, Code: obj.Code}
	return nil
}

// RawScorePayload is the nested score object. Entries are kept loose so a malformed
// pair degrades to "no score" instead of failing the whole document.
type RawScorePayload struct {
	FT []any `json:"ft"`
	HT []any `json:"ht"`
	ET []any `json:"et"`
	P  []any `json:"p"`
}
