package scraper

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DefaultInstagramActor searches Instagram profiles by keyword.
const DefaultInstagramActor = "apify~instagram-search-scraper"

// DefaultInstagramLimit caps the profiles requested per keyword.
const DefaultInstagramLimit = 50

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Profile is an Instagram account shaped for lead capture.
type Profile struct {
	FullName             string `json:"fullName"`
	Username             string `json:"username"`
	Email                string `json:"email"`
	URL                  string `json:"url"`
	ExternalURL          string `json:"externalUrl"`
	Biography            string `json:"biography"`
	FollowersCount       int64  `json:"followersCount"`
	FollowingCount       int64  `json:"followingCount"`
	PostsCount           int64  `json:"postsCount"`
	IsVerified           bool   `json:"isVerified"`
	IsPrivate            bool   `json:"isPrivate"`
	BusinessCategoryName string `json:"businessCategoryName"`
}

type rawProfile struct {
	FullName             string `json:"fullName"`
	Username             string `json:"username"`
	URL                  string `json:"url"`
	ExternalURL          string `json:"externalUrl"`
	Biography            string `json:"biography"`
	FollowersCount       int64  `json:"followersCount"`
	FollowsCount         int64  `json:"followsCount"`
	PostsCount           int64  `json:"postsCount"`
	Verified             bool   `json:"verified"`
	Private              bool   `json:"private"`
	BusinessCategoryName string `json:"businessCategoryName"`
	BusinessEmail        string `json:"businessEmail"`
	PublicEmail          string `json:"publicEmail"`
}

// InstagramInput builds the actor input for a keyword search.
func InstagramInput(keyword string, limit int) (json.RawMessage, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultInstagramLimit
	}
	raw, err := json.Marshal(map[string]any{
		"search":      keyword,
		"searchType":  "user",
		"searchLimit": limit,
	})
	if err != nil {
		return nil, fmt.Errorf("encode instagram input: %w", err)
	}
	return raw, nil
}

// ProfileEmail picks the contact address of an account. The business
// address wins, then the public one, then the first address found in
// the biography.
func ProfileEmail(business, public, biography string) string {
	if e := strings.TrimSpace(business); e != "" {
		return e
	}
	if e := strings.TrimSpace(public); e != "" {
		return e
	}
	return emailPattern.FindString(biography)
}

// ShapeProfiles converts dataset items into profiles. Items without a
// username are skipped.
func ShapeProfiles(items []json.RawMessage) []Profile {
	out := make([]Profile, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		var r rawProfile
		if err := json.Unmarshal(item, &r); err != nil || r.Username == "" {
			continue
		}
		if _, dup := seen[r.Username]; dup {
			continue
		}
		seen[r.Username] = struct{}{}
		link := r.URL
		if link == "" {
			link = "https://www.instagram.com/" + r.Username + "/"
		}
		out = append(out, Profile{
			FullName:             r.FullName,
			Username:             r.Username,
			Email:                ProfileEmail(r.BusinessEmail, r.PublicEmail, r.Biography),
			URL:                  link,
			ExternalURL:          r.ExternalURL,
			Biography:            r.Biography,
			FollowersCount:       r.FollowersCount,
			FollowingCount:       r.FollowsCount,
			PostsCount:           r.PostsCount,
			IsVerified:           r.Verified,
			IsPrivate:            r.Private,
			BusinessCategoryName: r.BusinessCategoryName,
		})
	}
	return out
}
