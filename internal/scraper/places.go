package scraper

import (
	"encoding/json"
	"strings"
)

// DefaultPlacesActor is the Google Maps extractor actor.
const DefaultPlacesActor = "nwua9Gu5YrADL7ZDj"

type placeKey struct {
	PlaceID string `json:"placeId"`
	Title   string `json:"title"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (p placeKey) key() string {
	if p.PlaceID != "" {
		return "id:" + p.PlaceID
	}
	return "tap:" + strings.ToLower(strings.TrimSpace(p.Title)+"_"+strings.TrimSpace(p.Address)+"_"+strings.TrimSpace(p.Phone))
}

// DedupePlaces drops repeated Google Maps places, keeping the first
// occurrence. Places are matched by placeId, or by title, address and
// phone when the id is missing. Items that are not objects pass through.
func DedupePlaces(items []json.RawMessage) []json.RawMessage {
	seen := make(map[string]struct{}, len(items))
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		var p placeKey
		if err := json.Unmarshal(item, &p); err != nil {
			out = append(out, item)
			continue
		}
		k := p.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}
